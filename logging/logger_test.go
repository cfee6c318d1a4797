package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
)

func TestNewFromConfigJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := NewFromConfig(Config{Service: "svc", Module: "idgen", Level: "info", Writer: &buf})

	logger.Info("generated", "size", 21)

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "svc", rec["service"])
	assert.Equal(t, "idgen", rec["module"])
	assert.Equal(t, "generated", rec["msg"])
	assert.Contains(t, rec, "timestamp")
}

func TestSetLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewFromConfig(Config{Level: "warn", Format: "text", Writer: &buf})

	logger.Info("hidden")
	assert.Empty(t, buf.String())

	SetLevel("debug")
	t.Cleanup(func() { SetLevel("info") })
	assert.Equal(t, slog.LevelDebug, Level())

	logger.Debug("visible")
	assert.Contains(t, buf.String(), "visible")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("bogus"))
}

func TestTraceHandlerInjectsIDs(t *testing.T) {
	var buf bytes.Buffer
	logger := NewFromConfig(Config{Level: "info", Writer: &buf})

	traceID, err := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	require.NoError(t, err)
	spanID, err := trace.SpanIDFromHex("00f067aa0ba902b7")
	require.NoError(t, err)
	ctx := trace.ContextWithSpanContext(context.Background(), trace.NewSpanContext(trace.SpanContextConfig{
		TraceID: traceID,
		SpanID:  spanID,
	}))

	logger.With("k", "v").InfoContext(ctx, "traced")

	out := buf.String()
	assert.Contains(t, out, "4bf92f3577b34da6a3ce929d0e0e4736")
	assert.Contains(t, out, "00f067aa0ba902b7")
}

func TestBothOutputsWriteFile(t *testing.T) {
	var buf bytes.Buffer
	path := filepath.Join(t.TempDir(), "nanoid.log")
	logger := NewFromConfig(Config{Level: "info", Output: "both", File: path, Writer: &buf})

	logger.Warn("to both")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), "to both"))
	assert.Contains(t, buf.String(), "to both")
}

func TestDefaultIsSingleton(t *testing.T) {
	assert.Same(t, Default(), Default())
}
