package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestBuildWritesJSON(t *testing.T) {
	var buf bytes.Buffer
	l, err := build(Options{Level: "info", Service: "funnel"}, &buf)
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	l.Debug("hidden")
	l.Info("visible")
	_ = l.Sync()

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected 1 line (debug filtered), got %d: %q", len(lines), buf.String())
	}

	var entry map[string]interface{}
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("not JSON: %v", err)
	}
	if entry["msg"] != "visible" || entry["service"] != "funnel" {
		t.Errorf("unexpected entry: %v", entry)
	}
}

func TestBuildRollingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "funnel.log")
	var buf bytes.Buffer
	l, err := build(Options{Level: "bogus", Path: path}, &buf)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	l.Info("to file")
	_ = l.Sync()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(data), "to file") {
		t.Errorf("log file missing entry: %q", data)
	}
}
