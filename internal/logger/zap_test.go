package logger

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestToZapLevel(t *testing.T) {
	cases := map[string]zapcore.Level{
		DebugLevel: zapcore.DebugLevel,
		InfoLevel:  zapcore.InfoLevel,
		WarnLevel:  zapcore.WarnLevel,
		ErrorLevel: zapcore.ErrorLevel,
		"verbose":  zapcore.InfoLevel,
		"":         zapcore.InfoLevel,
	}
	for in, want := range cases {
		if got := toZapLevel(in); got != want {
			t.Fatalf("toZapLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestNewCore_RespectsLevel(t *testing.T) {
	for _, format := range []string{ConsoleFormat, JSONFormat} {
		core := newCore(zapcore.WarnLevel, format)
		if core.Enabled(zapcore.InfoLevel) {
			t.Fatalf("%s core must not log info at warn level", format)
		}
		if !core.Enabled(zapcore.ErrorLevel) {
			t.Fatalf("%s core must log errors at warn level", format)
		}
	}
}

func TestGet_ReturnsSingleton(t *testing.T) {
	a := Get(DebugLevel)
	b := Init(ErrorLevel, JSONFormat)
	if a != b {
		t.Fatalf("expected the same logger instance")
	}
}

func TestNop(t *testing.T) {
	// must not panic
	Nop().Infow("ignored", "k", "v")
}
