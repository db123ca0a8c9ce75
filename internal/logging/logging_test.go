package logging

import (
	"context"
	"log/slog"
	"testing"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Leveler{
		"debug":   slog.LevelDebug,
		"info":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"bogus":   slog.LevelInfo,
	}
	for input, want := range cases {
		if got := parseLevel(input); got != want {
			t.Fatalf("parseLevel(%q) = %v, want %v", input, got, want)
		}
	}
}

func TestNoopLoggerIsInert(t *testing.T) {
	log := Noop()
	ctx := context.Background()
	log.Debug(ctx, "msg")
	log.Info(ctx, "msg", String("k", "v"))
	log.Warn(ctx, "msg", Int("n", 1))
	log.Error(ctx, "msg", Float64("f", 1.5))

	if derived := log.With(String("k", "v")); derived == nil {
		t.Fatal("With returned nil")
	}
}

func TestNewProducesUsableLogger(t *testing.T) {
	for _, format := range []string{"json", "text", ""} {
		log := New(Config{Level: "debug", Format: format})
		if log == nil {
			t.Fatalf("New(%q) returned nil", format)
		}
		log.With(String("component", "test")).Info(context.Background(), "hello", Any("x", 1))
	}
}
