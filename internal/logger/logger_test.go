package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]zapcore.Level{
		"debug": zap.DebugLevel,
		"info":  zap.InfoLevel,
		"warn":  zap.WarnLevel,
		"error": zap.ErrorLevel,
		"":      zap.ErrorLevel,
		"loud":  zap.ErrorLevel,
	}
	for in, want := range tests {
		if got := parseLevel(in); got != want {
			t.Errorf("parseLevel(%q) = %s, want %s", in, got, want)
		}
	}
}

func TestNew_WritesRotatedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pillulu.log")
	log, err := New("info", path)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	log.Info("snapshot loaded", zap.Int("medications", 3))
	log.Debug("hidden at info")
	_ = log.Sync()

	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	out := string(b)
	if !strings.Contains(out, `"msg":"snapshot loaded"`) || !strings.Contains(out, `"medications":3`) {
		t.Fatalf("missing entry in %q", out)
	}
	if strings.Contains(out, "hidden at info") {
		t.Fatalf("debug entry written at info level")
	}
	if !strings.Contains(out, `"ts":`) {
		t.Fatalf("want ts key, got %q", out)
	}
}
