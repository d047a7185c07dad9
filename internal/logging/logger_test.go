package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mikey/phishguard/internal/config"
	"go.uber.org/zap/zapcore"
)

func TestNewWritesServiceField(t *testing.T) {
	path := filepath.Join(t.TempDir(), "phishguard.log")

	logger, err := New(config.LoggingConfig{Level: "warn", Format: "json", Output: path}, "phishguard")
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	logger.Info("below level")
	logger.Warn("history store unavailable")
	_ = logger.Sync()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read log: %v", err)
	}
	out := string(data)
	if !strings.Contains(out, "history store unavailable") || !strings.Contains(out, `"service":"phishguard"`) {
		t.Errorf("unexpected log output %q", out)
	}
	if strings.Contains(out, "below level") {
		t.Errorf("info entry written at warn level: %q", out)
	}
}

func TestNewUnknownLevelFallsBackToInfo(t *testing.T) {
	logger, err := New(config.LoggingConfig{Level: "chatty", Format: "console", Output: "stderr"}, "phishguard")
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if logger.Core().Enabled(zapcore.DebugLevel) || !logger.Core().Enabled(zapcore.InfoLevel) {
		t.Error("expected info level")
	}
}

func TestInitConsoleLogger(t *testing.T) {
	tests := []struct {
		verbose bool
		debug   bool
	}{
		{verbose: false, debug: false},
		{verbose: true, debug: true},
	}

	for _, tt := range tests {
		logger, err := InitConsoleLogger(tt.verbose, false)
		if err != nil {
			t.Fatalf("InitConsoleLogger(%v) failed: %v", tt.verbose, err)
		}
		if got := logger.Core().Enabled(zapcore.DebugLevel); got != tt.debug {
			t.Errorf("InitConsoleLogger(%v) debug enabled = %v, want %v", tt.verbose, got, tt.debug)
		}
	}
}
