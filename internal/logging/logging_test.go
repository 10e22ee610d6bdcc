package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func upgrade(t *testing.T, mgr *Manager, opts FileOptions) string {
	t.Helper()
	if opts.Path == "" {
		opts.Path = filepath.Join(t.TempDir(), "nested", "test.log")
	}
	if err := mgr.Upgrade(opts); err != nil {
		t.Fatalf("Upgrade() error = %v", err)
	}
	return opts.Path
}

func readLines(t *testing.T, path string) []map[string]any {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read log file: %v", err)
	}
	var entries []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(string(content)), "\n") {
		if line == "" {
			continue
		}
		var entry map[string]any
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			t.Fatalf("log line is not valid JSON: %v\n%s", err, line)
		}
		entries = append(entries, entry)
	}
	return entries
}

func TestManager_Logger_Stable(t *testing.T) {
	mgr := newManager(&bytes.Buffer{})
	defer func() { _ = mgr.Close() }()

	before := mgr.Logger()
	upgrade(t, mgr, FileOptions{Level: slog.LevelInfo})
	if before != mgr.Logger() {
		t.Error("Logger() should return the same instance across Upgrade")
	}
}

func TestManager_Upgrade_WritesJSONAndText(t *testing.T) {
	var stderr bytes.Buffer
	mgr := newManager(&stderr)
	defer func() { _ = mgr.Close() }()

	path := upgrade(t, mgr, FileOptions{Level: slog.LevelInfo, MaxSizeMB: 1, RunID: "run-1"})
	mgr.Logger().With("component", "disassembler").Info("disassembled document", "files", 3)

	entries := readLines(t, path)
	if len(entries) != 1 {
		t.Fatalf("log entries = %d, want 1", len(entries))
	}
	e := entries[0]
	if e["msg"] != "disassembled document" || e["component"] != "disassembler" || e["run_id"] != "run-1" {
		t.Errorf("entry = %v", e)
	}
	if n, ok := e["files"].(float64); !ok || n != 3 {
		t.Errorf("files = %v, want 3", e["files"])
	}
	if !strings.Contains(stderr.String(), "msg=\"disassembled document\"") {
		t.Errorf("stderr should carry the text record, got %q", stderr.String())
	}
}

func TestManager_LevelFiltering(t *testing.T) {
	mgr := newManager(&bytes.Buffer{})
	defer func() { _ = mgr.Close() }()

	path := upgrade(t, mgr, FileOptions{Level: slog.LevelWarn})
	mgr.Logger().Info("hidden")
	mgr.Logger().Warn("shown")
	mgr.SetLevel(slog.LevelDebug)
	mgr.Logger().Debug("now shown")

	entries := readLines(t, path)
	if len(entries) != 2 || entries[0]["msg"] != "shown" || entries[1]["msg"] != "now shown" {
		t.Errorf("entries = %v", entries)
	}
}

func TestManager_Upgrade_Errors(t *testing.T) {
	mgr := newManager(&bytes.Buffer{})
	defer func() { _ = mgr.Close() }()

	if err := mgr.Upgrade(FileOptions{Path: t.TempDir()}); err == nil {
		t.Error("Upgrade() should fail when the path is a directory")
	}
}

func TestManager_Close(t *testing.T) {
	mgr := newManager(&bytes.Buffer{})
	upgrade(t, mgr, FileOptions{Level: slog.LevelInfo})

	if err := mgr.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
	if err := mgr.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
}

func TestSwappableHandler_Swap(t *testing.T) {
	var first, second bytes.Buffer
	sh := NewSwappableHandler(slog.NewTextHandler(&first, nil))
	logger := slog.New(sh)

	logger.Info("one")
	sh.Swap(slog.NewJSONHandler(&second, nil))
	logger.Info("two")

	if !strings.Contains(first.String(), "one") || strings.Contains(first.String(), "two") {
		t.Errorf("first handler output = %q", first.String())
	}
	if !strings.Contains(second.String(), `"msg":"two"`) {
		t.Errorf("second handler output = %q", second.String())
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in     string
		want   slog.Level
		wantOK bool
	}{
		{"debug", slog.LevelDebug, true},
		{"INFO", slog.LevelInfo, true},
		{"warn", slog.LevelWarn, true},
		{"warning", slog.LevelWarn, true},
		{" error ", slog.LevelError, true},
		{"verbose", DefaultLevel, false},
		{"", DefaultLevel, false},
	}
	for _, tt := range tests {
		got, ok := ParseLevel(tt.in)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("ParseLevel(%q) = %v, %v; want %v, %v", tt.in, got, ok, tt.want, tt.wantOK)
		}
	}
	if got := ParseLevelOrDefault("nope"); got != DefaultLevel {
		t.Errorf("ParseLevelOrDefault(nope) = %v, want %v", got, DefaultLevel)
	}
}
