package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestOptionsDefaults(t *testing.T) {
	got := Options{MaxBackups: 2}.withDefaults()
	if got.Dir != "logs" || got.Filename != "adstatus.log" {
		t.Fatalf("unexpected default path: %s/%s", got.Dir, got.Filename)
	}
	if got.MaxSizeMB != 100 || got.MaxBackups != 2 || got.MaxAgeDays != 30 {
		t.Fatalf("unexpected rotation defaults: %+v", got)
	}
}

func TestParseLevel(t *testing.T) {
	if parseLevel("", false) != zapcore.InfoLevel || parseLevel("", true) != zapcore.DebugLevel {
		t.Fatalf("empty level should follow mode")
	}
	if parseLevel("warn", true) != zapcore.WarnLevel {
		t.Fatalf("explicit level should win")
	}
	if parseLevel("loud", false) != zapcore.InfoLevel {
		t.Fatalf("unknown level should fall back to info")
	}
}

func TestReleaseWritesJSONEvent(t *testing.T) {
	dir := t.TempDir()
	log := New("release", Options{Dir: dir, Filename: "release.log"})
	log.Sugar().Infow("proof_settled", "proof_id", 7)
	log.Sugar().Debugw("proof_debug_hidden")
	_ = log.Sync()

	content, err := os.ReadFile(filepath.Join(dir, "release.log"))
	if err != nil {
		t.Fatalf("read release log failed: %v", err)
	}
	text := string(content)
	if !strings.Contains(text, `"event":"proof_settled"`) || !strings.Contains(text, `"service":"adstatus"`) {
		t.Fatalf("unexpected log line: %s", text)
	}
	if strings.Contains(text, "proof_debug_hidden") {
		t.Fatalf("debug event should be filtered in release mode")
	}
}

func TestDebugModeSkipsFile(t *testing.T) {
	dir := t.TempDir()
	log := New("debug", Options{Dir: dir, Filename: "debug.log"})
	log.Info("debug-log-test")
	_ = log.Sync()

	if _, err := os.Stat(filepath.Join(dir, "debug.log")); !os.IsNotExist(err) {
		t.Fatalf("debug mode should not create log file")
	}
}
