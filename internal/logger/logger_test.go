package logger

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zapcore.Level
	}{
		{"debug", zapcore.DebugLevel},
		{"INFO", zapcore.InfoLevel},
		{"warn", zapcore.WarnLevel},
		{"error", zapcore.ErrorLevel},
		{"bogus", zapcore.InfoLevel},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestInit(t *testing.T) {
	if err := Init("debug", "console"); err != nil {
		t.Fatalf("Init console: %v", err)
	}
	if err := Init("info", "json"); err != nil {
		t.Fatalf("Init json: %v", err)
	}
}

func TestLevelFiltering(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	set(zap.New(core))
	defer set(zap.NewNop())

	Debug("hidden %d", 1)
	Info("hidden %d", 2)
	Warn("rate limited for %s", "BTC")
	Error("persist coins: %v", "boom")

	entries := logs.All()
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries at warn+, got %d", len(entries))
	}
	if entries[0].Message != "rate limited for BTC" {
		t.Errorf("unexpected message %q", entries[0].Message)
	}
}
