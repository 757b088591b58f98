package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"

	"vibe-transcode-service/pkg/config"
)

func TestNewLoggerHonoursLevelAndFormat(t *testing.T) {
	cfg := &config.Config{Log: config.LogConfig{Level: "warn", Format: "json"}}
	l := NewLogger(cfg)
	if l.Raw().GetLevel() != logrus.WarnLevel {
		t.Fatalf("expected warn level, got %s", l.Raw().GetLevel())
	}

	var buf bytes.Buffer
	l.Raw().SetOutput(&buf)
	l.Infof("dropped")
	l.WithFields(map[string]interface{}{"job_id": "vibe_1"}).Warn("kept")

	out := strings.TrimSpace(buf.String())
	if strings.Contains(out, "dropped") {
		t.Fatalf("info line should be filtered at warn level: %s", out)
	}
	var line map[string]interface{}
	if err := json.Unmarshal([]byte(out), &line); err != nil {
		t.Fatalf("expected json line, got %q: %v", out, err)
	}
	if line["job_id"] != "vibe_1" || line["msg"] != "kept" {
		t.Fatalf("unexpected log line: %v", line)
	}
}

func TestNewLoggerFallsBackOnBadLevel(t *testing.T) {
	l := NewLogger(&config.Config{Log: config.LogConfig{Level: "loud"}})
	if l.Raw().GetLevel() != logrus.InfoLevel {
		t.Fatalf("expected info fallback, got %s", l.Raw().GetLevel())
	}
}

func TestPackageHelpersUseGlobalLogger(t *testing.T) {
	l := NewLogger(nil)
	var buf bytes.Buffer
	l.Raw().SetOutput(&buf)
	SetGlobalLogger(l)

	Info("workspace allocated", map[string]interface{}{"folder": "vibe_42"})
	if !strings.Contains(buf.String(), "folder=vibe_42") {
		t.Fatalf("expected field in output, got %q", buf.String())
	}
}
