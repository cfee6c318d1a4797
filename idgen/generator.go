package idgen

import (
	"errors"
	"log/slog"

	"github.com/wyfcoding/nanoid/async"
	"github.com/wyfcoding/nanoid/config"
	"github.com/wyfcoding/nanoid/metrics"
)

// Generator 绑定随机源与默认字母表、长度的 ID 生成器.
// Generator 本身不加锁，多个 goroutine 共享时由随机源负责同步。
type Generator struct {
	source    Source
	alphabet  string
	size      int
	maxRounds int
	logger    *slog.Logger
	metrics   *metrics.Metrics
	runner    *async.Runner
}

// Option 定义配置选项。
type Option func(*Generator)

// WithAlphabet 设置默认字母表.
func WithAlphabet(alphabet string) Option {
	return func(g *Generator) {
		g.alphabet = alphabet
	}
}

// WithSize 设置默认长度.
func WithSize(size int) Option {
	return func(g *Generator) {
		g.size = size
	}
}

// WithMaxRounds 限制单次生成调用随机源的批次数，超过后返回 ErrRandomnessExhausted.
// 0 表示不限制（默认），此时随机源若始终给出越界字节，调用不会结束。
func WithMaxRounds(n int) Option {
	return func(g *Generator) {
		g.maxRounds = max(n, 0)
	}
}

// WithLogger 设置日志记录器，默认使用 slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(g *Generator) {
		g.logger = logger
	}
}

// WithMetrics 注入指标采集器.
func WithMetrics(m *metrics.Metrics) Option {
	return func(g *Generator) {
		g.metrics = m
	}
}

// WithRunner 设置异步生成使用的执行器.
func WithRunner(r *async.Runner) Option {
	return func(g *Generator) {
		g.runner = r
	}
}

// NewGenerator 创建 Generator；src 为 nil 时使用 CryptoSource.
func NewGenerator(src Source, opts ...Option) (*Generator, error) {
	if src == nil {
		src = CryptoSource{}
	}
	g := &Generator{
		source:   src,
		alphabet: DefaultAlphabet,
		size:     DefaultSize,
		runner:   async.DefaultRunner,
	}
	for _, opt := range opts {
		opt(g)
	}
	if err := validate(g.alphabet, g.size); err != nil {
		return nil, err
	}
	return g, nil
}

// NewFromConfig 根据配置创建随机源与 Generator.
func NewFromConfig(cfg config.GeneratorConfig, opts ...Option) (*Generator, error) {
	src, err := NewSource(cfg)
	if err != nil {
		return nil, err
	}

	var base []Option
	if cfg.Alphabet != "" {
		base = append(base, WithAlphabet(cfg.Alphabet))
	}
	if cfg.Size > 0 {
		base = append(base, WithSize(cfg.Size))
	}
	if cfg.MaxRounds > 0 {
		base = append(base, WithMaxRounds(cfg.MaxRounds))
	}

	g, err := NewGenerator(src, append(base, opts...)...)
	if err != nil {
		return nil, err
	}

	sourceName := cfg.Source
	if sourceName == "" {
		sourceName = SourceCrypto
	}
	g.log().Info("id generator initialized",
		"source", sourceName,
		"alphabet_size", len(g.alphabet),
		"size", g.size,
		"max_rounds", g.maxRounds,
	)
	return g, nil
}

// Alphabet 返回默认字母表.
func (g *Generator) Alphabet() string { return g.alphabet }

// Size 返回默认长度.
func (g *Generator) Size() int { return g.size }

// Generate 使用默认字母表与长度生成 ID.
func (g *Generator) Generate() (string, error) {
	return g.GenerateWith(g.alphabet, g.size)
}

// GenerateWithAlphabet 使用指定字母表与默认长度生成 ID.
func (g *Generator) GenerateWithAlphabet(alphabet string) (string, error) {
	return g.GenerateWith(alphabet, g.size)
}

// GenerateWithSize 使用默认字母表与指定长度生成 ID.
func (g *Generator) GenerateWithSize(size int) (string, error) {
	return g.GenerateWith(g.alphabet, size)
}

// GenerateWith 使用指定字母表与长度生成 ID.
func (g *Generator) GenerateWith(alphabet string, size int) (string, error) {
	var st drawStats
	id, err := generate(g.source, alphabet, size, g.maxRounds, &st)
	g.metrics.ObserveGeneration(st.rounds, st.drawn, st.rejected, err)
	if err != nil {
		g.logFailure(err, alphabet, size, st)
	}
	return id, err
}

func (g *Generator) log() *slog.Logger {
	if g.logger != nil {
		return g.logger
	}
	return slog.Default()
}

func (g *Generator) logFailure(err error, alphabet string, size int, st drawStats) {
	args := []any{"error", err, "alphabet_size", len(alphabet), "size", size, "rounds", st.rounds}
	switch {
	case errors.Is(err, ErrRandomnessExhausted):
		g.log().Warn("id generation gave up", args...)
	case errors.Is(err, ErrSourceFailure):
		g.log().Error("random source failed", args...)
	default:
		g.log().Debug("id generation rejected arguments", args...)
	}
}
