package logging

import (
	"log/slog"
	"testing"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"info":    slog.LevelInfo,
		"WARN":    slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for input, want := range cases {
		if got := parseLevel(input); got != want {
			t.Errorf("parseLevel(%q) = %v, want %v", input, got, want)
		}
	}
}

func TestComponentNilSafe(t *testing.T) {
	var l *Logger
	child := l.Component("tracking")
	if child == nil || child.Logger == nil {
		t.Fatal("expected usable logger from nil receiver")
	}
}

func TestNewTextFormat(t *testing.T) {
	l := New("debug", "text")
	if l == nil || l.Logger == nil {
		t.Fatal("expected logger")
	}
	if !l.Enabled(nil, slog.LevelDebug) {
		t.Error("expected debug level to be enabled")
	}
}
