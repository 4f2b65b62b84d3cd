package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewWritesBothConsoleAndJSON(t *testing.T) {
	dir := t.TempDir()
	var console bytes.Buffer

	log, err := New(dir, &console)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	log.Info("agent started", "version", 3)

	if !strings.Contains(console.String(), "agent started") {
		t.Errorf("expected console output to contain message, got %q", console.String())
	}

	body, err := os.ReadFile(filepath.Join(dir, "agent.json"))
	if err != nil {
		t.Fatalf("read json log: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(body)), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected exactly one json line, got %d", len(lines))
	}
	var rec map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &rec); err != nil {
		t.Fatalf("unmarshal json line: %v", err)
	}
	if rec["msg"] != "agent started" {
		t.Errorf("expected msg field, got %+v", rec)
	}
}

func TestFanoutHandlerToleratesOneHandlerFailing(t *testing.T) {
	var console bytes.Buffer
	// The JSON handler's writer fails every write; the fanout must still
	// deliver the record to the console handler after it.
	h := &FanoutHandler{handlers: []slog.Handler{
		slog.NewJSONHandler(failingWriter{}, nil),
		NewConsoleHandler(&console),
	}}
	slog.New(h).Info("still delivered")

	if !strings.Contains(console.String(), "still delivered") {
		t.Errorf("expected console handler to receive the record, got %q", console.String())
	}
}

// failingWriter rejects every write.
type failingWriter struct{}

func (failingWriter) Write(p []byte) (int, error) { return 0, errors.New("write failed") }
