package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewWritesConsoleAndFile(t *testing.T) {
	var console bytes.Buffer
	path := filepath.Join(t.TempDir(), "logs", "engage.log")
	log, closeFn, err := New(Options{Level: "info", File: path, Stderr: &console})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	log.Info("pipeline finished", "r2", 0.5)
	log.Debug("hidden")
	if err := closeFn(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if !strings.Contains(console.String(), "pipeline finished") {
		t.Fatalf("console missing record: %q", console.String())
	}
	if strings.Contains(console.String(), "hidden") {
		t.Fatalf("debug record leaked at info level: %q", console.String())
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(b), "r2=0.5") {
		t.Fatalf("file missing record: %q", string(b))
	}
}

func TestParseLevel(t *testing.T) {
	for _, s := range []string{"", "debug", "INFO", "warning", "error"} {
		if _, err := ParseLevel(s); err != nil {
			t.Fatalf("ParseLevel(%q): %v", s, err)
		}
	}
	if _, err := ParseLevel("loud"); err == nil {
		t.Fatalf("expected error for unknown level")
	}
}

func TestOrDiscard(t *testing.T) {
	if OrDiscard(nil) == nil {
		t.Fatalf("expected non-nil logger")
	}
}
