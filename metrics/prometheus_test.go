package metrics

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"runtime"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveGeneration(t *testing.T) {
	m := NewMetrics("nanoid")

	m.ObserveGeneration(1, 34, 2, nil)
	m.ObserveGeneration(2, 68, 40, nil)
	m.ObserveGeneration(3, 10, 10, errors.New("source failed"))

	if got := testutil.ToFloat64(m.Generated.WithLabelValues("ok")); got != 2 {
		t.Errorf("ok count = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.Generated.WithLabelValues("error")); got != 1 {
		t.Errorf("error count = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.RandomBytes); got != 112 {
		t.Errorf("random bytes = %v, want 112", got)
	}
	if got := testutil.ToFloat64(m.RejectedBytes); got != 52 {
		t.Errorf("rejected bytes = %v, want 52", got)
	}
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.ObserveGeneration(1, 1, 1, nil)
	m.RegisterBuildInfo("svc", "v1")
}

func TestWriteTextAndHandler(t *testing.T) {
	m := NewMetrics("nanoid")
	m.RegisterBuildInfo("nanoid", "v1.0.0")
	m.RegisterBuildInfo("nanoid", "ignored")
	m.ObserveGeneration(1, 21, 0, nil)

	var buf bytes.Buffer
	if err := m.WriteText(&buf); err != nil {
		t.Fatalf("WriteText: %v", err)
	}
	text := buf.String()
	for _, want := range []string{"nanoid_generated_total", "nanoid_fill_rounds_bucket", `version="v1.0.0"`} {
		if !strings.Contains(text, want) {
			t.Errorf("WriteText output missing %q", want)
		}
	}
	if strings.Contains(text, "ignored") {
		t.Errorf("second RegisterBuildInfo must be a no-op")
	}

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()
	resp, err := http.Get(srv.URL)
	if err != nil {
		t.Fatalf("GET metrics: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "nanoid_random_bytes_total 21") {
		t.Errorf("handler output missing random bytes sample")
	}
}

func TestRegisterBuildInfoLabels(t *testing.T) {
	m := NewMetrics("nanoid")
	m.RegisterBuildInfo("", "")

	g, err := m.BuildInfo.GetMetricWithLabelValues("unknown", "unknown", runtime.Version())
	if err != nil {
		t.Fatalf("GetMetricWithLabelValues: %v", err)
	}
	if got := testutil.ToFloat64(g); got != 1 {
		t.Errorf("build_info = %v, want 1", got)
	}
	if n := testutil.CollectAndCount(m.BuildInfo); n != 1 {
		t.Errorf("build_info series = %d, want 1", n)
	}
}
