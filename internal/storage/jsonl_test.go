package storage

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestJsonlStorageAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "results.jsonl")
	sink := NewJsonlStorage(path)

	if err := sink.Put(map[string]int{"a": 1}); err != nil {
		t.Fatalf("first put: %v", err)
	}
	if err := sink.Put(map[string]int{"b": 2}, map[string]int{"c": 3}); err != nil {
		t.Fatalf("second put: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d: %q", len(lines), raw)
	}
	if lines[2] != `{"c":3}` {
		t.Fatalf("unexpected line: %s", lines[2])
	}
}

func TestJsonlWriter(t *testing.T) {
	var buf bytes.Buffer
	sink := NewJsonlWriter(&buf)
	if err := sink.Put(struct {
		Status string `json:"status"`
	}{"ok"}); err != nil {
		t.Fatalf("put: %v", err)
	}
	if buf.String() != "{\"status\":\"ok\"}\n" {
		t.Fatalf("unexpected output: %q", buf.String())
	}
}
