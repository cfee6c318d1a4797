package idgen

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/wyfcoding/nanoid/config"
	"github.com/wyfcoding/nanoid/metrics"
	"github.com/wyfcoding/nanoid/xerrors"
)

// outOfRange 只产生 0xff，对长度为 5 的字母表（掩码 7）永远不会被接受。
var outOfRange = SourceFunc(func(p []byte) error {
	for i := range p {
		p[i] = 0xff
	}
	return nil
})

func TestNewGeneratorDefaults(t *testing.T) {
	g, err := NewGenerator(nil)
	if err != nil {
		t.Fatalf("NewGenerator: %v", err)
	}
	if g.Alphabet() != DefaultAlphabet || g.Size() != DefaultSize {
		t.Errorf("unexpected defaults %q/%d", g.Alphabet(), g.Size())
	}

	id, err := g.Generate()
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(id) != DefaultSize {
		t.Errorf("len(id) = %d, want %d", len(id), DefaultSize)
	}
}

func TestNewGeneratorRejectsInvalidOptions(t *testing.T) {
	if _, err := NewGenerator(nil, WithAlphabet("")); !errors.Is(err, ErrInvalidAlphabet) {
		t.Errorf("error = %v, want ErrInvalidAlphabet", err)
	}
	if _, err := NewGenerator(nil, WithSize(0)); !errors.Is(err, ErrInvalidSize) {
		t.Errorf("error = %v, want ErrInvalidSize", err)
	}
}

func TestGeneratorEntryPoints(t *testing.T) {
	g, err := NewGenerator(CryptoSource{}, WithAlphabet("xyz"), WithSize(9))
	if err != nil {
		t.Fatalf("NewGenerator: %v", err)
	}

	tests := []struct {
		name     string
		call     func() (string, error)
		alphabet string
		size     int
	}{
		{"Generate", g.Generate, "xyz", 9},
		{"GenerateWithAlphabet", func() (string, error) { return g.GenerateWithAlphabet("01") }, "01", 9},
		{"GenerateWithSize", func() (string, error) { return g.GenerateWithSize(30) }, "xyz", 30},
		{"GenerateWith", func() (string, error) { return g.GenerateWith("q", 3) }, "q", 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := tt.call()
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(id) != tt.size || strings.Trim(id, tt.alphabet) != "" {
				t.Errorf("id %q does not match alphabet %q size %d", id, tt.alphabet, tt.size)
			}
		})
	}
}

func TestMaxRoundsStopsPathologicalSource(t *testing.T) {
	var logs bytes.Buffer
	g, err := NewGenerator(outOfRange,
		WithAlphabet("abcde"),
		WithMaxRounds(3),
		WithLogger(slog.New(slog.NewTextHandler(&logs, nil))),
	)
	if err != nil {
		t.Fatalf("NewGenerator: %v", err)
	}

	_, err = g.Generate()
	if !errors.Is(err, ErrRandomnessExhausted) {
		t.Fatalf("error = %v, want ErrRandomnessExhausted", err)
	}
	xe, _ := xerrors.FromError(err)
	if xe.Type != xerrors.ErrLimitExceeded {
		t.Errorf("type = %v, want LimitExceeded", xe.Type)
	}
	if !strings.Contains(logs.String(), "id generation gave up") {
		t.Errorf("expected a warning, got %q", logs.String())
	}
}

func TestSourceFailureIsLogged(t *testing.T) {
	var logs bytes.Buffer
	failing := SourceFunc(func([]byte) error { return errors.New("device gone") })
	g, _ := NewGenerator(failing, WithLogger(slog.New(slog.NewTextHandler(&logs, nil))))

	if _, err := g.Generate(); !errors.Is(err, ErrSourceFailure) {
		t.Fatalf("error = %v, want ErrSourceFailure", err)
	}
	if !strings.Contains(logs.String(), "device gone") {
		t.Errorf("expected cause in log output, got %q", logs.String())
	}
}

func TestGeneratorRecordsMetrics(t *testing.T) {
	m := metrics.NewMetrics("test")
	src := &sequenceSource{seq: []byte{2, 255, 3, 7, 7, 7, 7, 7, 0, 1}}
	g, err := NewGenerator(src, WithAlphabet("abcde"), WithSize(4), WithMetrics(m))
	if err != nil {
		t.Fatalf("NewGenerator: %v", err)
	}

	id, err := g.Generate()
	if err != nil || id != "adca" {
		t.Fatalf("Generate() = %q, %v", id, err)
	}
	if got := testutil.ToFloat64(m.Generated.WithLabelValues("ok")); got != 1 {
		t.Errorf("ok count = %v, want 1", got)
	}
	// Two batches of 9 bytes; first batch rejects 6, second rejects none before filling.
	if got := testutil.ToFloat64(m.RandomBytes); got != 18 {
		t.Errorf("random bytes = %v, want 18", got)
	}
	if got := testutil.ToFloat64(m.RejectedBytes); got != 6 {
		t.Errorf("rejected bytes = %v, want 6", got)
	}

	if _, err := g.GenerateWithSize(0); err == nil {
		t.Fatalf("expected error for size 0")
	}
	if got := testutil.ToFloat64(m.Generated.WithLabelValues("error")); got != 1 {
		t.Errorf("error count = %v, want 1", got)
	}
}

func TestNewFromConfig(t *testing.T) {
	cfg := config.GeneratorConfig{
		Alphabet:  "0123456789abcdef",
		Size:      32,
		Source:    SourceChaCha20,
		Seed:      "fixture",
		MaxRounds: 10,
	}
	a, err := NewFromConfig(cfg)
	if err != nil {
		t.Fatalf("NewFromConfig: %v", err)
	}
	b, _ := NewFromConfig(cfg)

	idA, _ := a.Generate()
	idB, _ := b.Generate()
	if idA != idB {
		t.Errorf("seeded generators diverged: %q vs %q", idA, idB)
	}
	if len(idA) != 32 || strings.Trim(idA, cfg.Alphabet) != "" {
		t.Errorf("unexpected id %q", idA)
	}
}

func TestNewSource(t *testing.T) {
	for _, name := range []string{"", SourceCrypto, SourceChaCha20, SourcePCG} {
		src, err := NewSource(config.GeneratorConfig{Source: name})
		if err != nil {
			t.Fatalf("NewSource(%q): %v", name, err)
		}
		if _, err := Generate(src, DefaultAlphabet, DefaultSize); err != nil {
			t.Errorf("Generate with %q source: %v", name, err)
		}
	}

	_, err := NewSource(config.GeneratorConfig{Source: "dice"})
	if !errors.Is(err, ErrUnknownSource) {
		t.Errorf("error = %v, want ErrUnknownSource", err)
	}
	if _, err := NewFromConfig(config.GeneratorConfig{Source: "dice"}); !errors.Is(err, ErrUnknownSource) {
		t.Errorf("NewFromConfig error = %v, want ErrUnknownSource", err)
	}
}

func TestGenerateAsync(t *testing.T) {
	g, _ := NewGenerator(CryptoSource{}, WithAlphabet("ab"), WithSize(8))
	ctx := context.Background()

	futures := []struct {
		name string
		size int
		get  func() (string, error)
	}{
		{"GenerateAsync", 8, func() (string, error) { return g.GenerateAsync(ctx).Get(ctx) }},
		{"GenerateWithAlphabetAsync", 8, func() (string, error) { return g.GenerateWithAlphabetAsync(ctx, "cd").Get(ctx) }},
		{"GenerateWithSizeAsync", 3, func() (string, error) { return g.GenerateWithSizeAsync(ctx, 3).Get(ctx) }},
		{"GenerateWithAsync", 5, func() (string, error) { return g.GenerateWithAsync(ctx, "e", 5).Get(ctx) }},
	}
	for _, f := range futures {
		id, err := f.get()
		if err != nil {
			t.Fatalf("%s: %v", f.name, err)
		}
		if len(id) != f.size {
			t.Errorf("%s: len(id) = %d, want %d", f.name, len(id), f.size)
		}
	}

	if _, err := g.GenerateWithSizeAsync(ctx, 0).Get(ctx); !errors.Is(err, ErrInvalidSize) {
		t.Errorf("async error = %v, want ErrInvalidSize", err)
	}
}

func TestGenerateAsyncCanceledContextSkipsSource(t *testing.T) {
	src := &countingSource{}
	g, _ := NewGenerator(src)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := g.GenerateAsync(ctx).Get(context.Background())
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("error = %v, want context.Canceled", err)
	}
	if src.calls != 0 {
		t.Errorf("source was read %d times", src.calls)
	}
}

func TestGenerateBatch(t *testing.T) {
	g, _ := NewGenerator(CryptoSource{})

	ids, err := g.GenerateBatch(context.Background(), 200, 8)
	if err != nil {
		t.Fatalf("GenerateBatch: %v", err)
	}
	if len(ids) != 200 {
		t.Fatalf("len(ids) = %d, want 200", len(ids))
	}
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if len(id) != DefaultSize {
			t.Errorf("len(%q) = %d", id, len(id))
		}
		seen[id] = struct{}{}
	}
	if len(seen) != len(ids) {
		t.Errorf("duplicate ids in batch")
	}
}

func TestGenerateBatchWithLockedSeededSource(t *testing.T) {
	src, _ := NewChaCha20Source([]byte("batch"))
	g, _ := NewGenerator(Locked(src), WithSize(10))

	ids, err := g.GenerateBatch(context.Background(), 50, 0)
	if err != nil {
		t.Fatalf("GenerateBatch: %v", err)
	}
	if len(ids) != 50 {
		t.Errorf("len(ids) = %d, want 50", len(ids))
	}
}

func TestGenerateBatchErrors(t *testing.T) {
	g, _ := NewGenerator(CryptoSource{})

	if _, err := g.GenerateBatch(context.Background(), 0, 4); !errors.Is(err, ErrInvalidCount) {
		t.Errorf("error = %v, want ErrInvalidCount", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := g.GenerateBatch(ctx, 10, 2); !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}

	failing, _ := NewGenerator(outOfRange, WithAlphabet("abcde"), WithMaxRounds(1))
	if _, err := failing.GenerateBatch(context.Background(), 5, 2); !errors.Is(err, ErrRandomnessExhausted) {
		t.Errorf("error = %v, want ErrRandomnessExhausted", err)
	}
}

func TestDefaultEntryPoints(t *testing.T) {
	if Default() != Default() {
		t.Fatalf("Default() must return the same generator")
	}

	id, err := GenID()
	if err != nil || len(id) != DefaultSize {
		t.Fatalf("GenID() = %q, %v", id, err)
	}
	if id, _ := GenIDWithAlphabet("01"); strings.Trim(id, "01") != "" || len(id) != DefaultSize {
		t.Errorf("GenIDWithAlphabet() = %q", id)
	}
	if id, _ := GenIDWithSize(10); len(id) != 10 {
		t.Errorf("GenIDWithSize() = %q", id)
	}
	if id, _ := GenIDWith("a", 5); id != "aaaaa" {
		t.Errorf("GenIDWith() = %q, want aaaaa", id)
	}

	ctx := context.Background()
	if id, err := GenIDAsync(ctx).Get(ctx); err != nil || len(id) != DefaultSize {
		t.Errorf("GenIDAsync() = %q, %v", id, err)
	}
	if id, _ := GenIDWithAlphabetAsync(ctx, "z").Get(ctx); id != strings.Repeat("z", DefaultSize) {
		t.Errorf("GenIDWithAlphabetAsync() = %q", id)
	}
	if id, _ := GenIDWithSizeAsync(ctx, 4).Get(ctx); len(id) != 4 {
		t.Errorf("GenIDWithSizeAsync() = %q", id)
	}
	if id, _ := GenIDWithAsync(ctx, "b", 2).Get(ctx); id != "bb" {
		t.Errorf("GenIDWithAsync() = %q", id)
	}

	// Default 已初始化，Init 不再生效。
	if err := Init(config.GeneratorConfig{Source: "dice"}); err != nil {
		t.Errorf("Init after Default should be a no-op, got %v", err)
	}
}

func TestConcurrentDefaultUse(t *testing.T) {
	var wg sync.WaitGroup
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := GenID(); err != nil {
				t.Errorf("GenID: %v", err)
			}
		}()
	}
	wg.Wait()
}
