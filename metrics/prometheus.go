// Package metrics 封装基于 Prometheus 的指标注册表及 ID 生成相关的标准指标。
package metrics

import (
	"cmp"
	"io"
	"log/slog"
	"net/http"
	"runtime"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/common/expfmt"
)

// Metrics 封装了独立的 Prometheus 注册中心与预定义指标。
type Metrics struct {
	registry  *prometheus.Registry
	namespace string

	Generated     *prometheus.CounterVec // 生成次数 (维度: status)
	RandomBytes   prometheus.Counter     // 从随机源读取的字节数
	RejectedBytes prometheus.Counter     // 因超出字母表而被丢弃的字节数
	FillRounds    prometheus.Histogram   // 单次生成调用随机源的批次数
	BuildInfo     *prometheus.GaugeVec
}

// NewMetrics 初始化并返回一个新的指标采集器，自动注册 Go 运行时与进程指标。
func NewMetrics(namespace string) *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	m := &Metrics{registry: reg, namespace: namespace}

	m.Generated = m.NewCounterVec(prometheus.CounterOpts{
		Name: "generated_total",
		Help: "Total number of identifier generations by outcome",
	}, []string{"status"})

	m.RandomBytes = m.NewCounter(prometheus.CounterOpts{
		Name: "random_bytes_total",
		Help: "Random bytes requested from the byte source",
	})

	m.RejectedBytes = m.NewCounter(prometheus.CounterOpts{
		Name: "rejected_bytes_total",
		Help: "Random bytes discarded by rejection sampling",
	})

	m.FillRounds = m.NewHistogram(prometheus.HistogramOpts{
		Name:    "fill_rounds",
		Help:    "Number of byte-source batches needed per identifier",
		Buckets: []float64{1, 2, 3, 4, 8, 16},
	})

	slog.Info("metrics registry initialized", "namespace", namespace)
	return m
}

// ObserveGeneration 记录一次生成调用。err 非空时只计入失败次数与已读取字节。
func (m *Metrics) ObserveGeneration(rounds, drawn, rejected int, err error) {
	if m == nil {
		return
	}
	m.RandomBytes.Add(float64(drawn))
	m.RejectedBytes.Add(float64(rejected))
	if err != nil {
		m.Generated.WithLabelValues("error").Inc()
		return
	}
	m.Generated.WithLabelValues("ok").Inc()
	m.FillRounds.Observe(float64(rounds))
}

// RegisterBuildInfo 注册常量为 1 的 build_info 指标，标签为服务名、版本与 Go 版本.
// 只有首次调用生效。
func (m *Metrics) RegisterBuildInfo(service, version string) {
	if m == nil || m.BuildInfo != nil {
		return
	}
	m.BuildInfo = m.NewGaugeVec(prometheus.GaugeOpts{
		Name: "build_info",
		Help: "Constant 1 labelled with service, version and Go runtime version",
	}, []string{"service", "version", "go_version"})
	m.BuildInfo.WithLabelValues(cmp.Or(service, "unknown"), cmp.Or(version, "unknown"), runtime.Version()).Set(1)
}

// NewCounter 创建并注册一个计数器。
func (m *Metrics) NewCounter(opts prometheus.CounterOpts) prometheus.Counter {
	opts.Namespace = m.namespace
	c := prometheus.NewCounter(opts)
	m.registry.MustRegister(c)
	return c
}

// NewCounterVec 创建并注册一个带维度的计数器。
func (m *Metrics) NewCounterVec(opts prometheus.CounterOpts, labelNames []string) *prometheus.CounterVec {
	opts.Namespace = m.namespace
	cv := prometheus.NewCounterVec(opts, labelNames)
	m.registry.MustRegister(cv)
	return cv
}

// NewGaugeVec 创建并注册一个仪表盘指标。
func (m *Metrics) NewGaugeVec(opts prometheus.GaugeOpts, labelNames []string) *prometheus.GaugeVec {
	opts.Namespace = m.namespace
	gv := prometheus.NewGaugeVec(opts, labelNames)
	m.registry.MustRegister(gv)
	return gv
}

// NewHistogram 创建并注册一个直方图。
func (m *Metrics) NewHistogram(opts prometheus.HistogramOpts) prometheus.Histogram {
	opts.Namespace = m.namespace
	h := prometheus.NewHistogram(opts)
	m.registry.MustRegister(h)
	return h
}

// Registry 返回内部注册中心。
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler 返回用于暴露指标的 HTTP 处理器。
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// WriteText 以 Prometheus 文本格式输出当前全部指标。
func (m *Metrics) WriteText(w io.Writer) error {
	families, err := m.registry.Gather()
	if err != nil {
		return err
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return err
		}
	}
	return nil
}
