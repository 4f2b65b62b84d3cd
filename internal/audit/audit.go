// Package audit implements a JSON-lines trail of apply decisions,
// independent of the sqlite-backed history store: a flat append-only
// file meant to be tailed or shipped off-device, never queried back by
// the agent itself.
package audit

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Entry is one line of the audit trail.
type Entry struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Version   uint32    `json:"version"`
	Action    string    `json:"action"` // "apply"
	Outcome   string    `json:"outcome"` // "success" or "failure"
}

// Logger appends Entry lines to a single file, guarded by a mutex since
// it may be written from the Worker goroutine and read back through
// Recent concurrently.
type Logger struct {
	mu     sync.Mutex
	file   *os.File
	path   string
	logger *slog.Logger
}

// Open opens (creating if necessary) the audit log at path.
func Open(path string, logger *slog.Logger) (*Logger, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}
	return &Logger{file: f, path: path, logger: logger}, nil
}

// RecordApply appends one entry for an apply attempt. It satisfies
// apply.Recorder. A failure to write is logged but never returned, since
// the audit trail is advisory and must never block the apply decision.
func (l *Logger) RecordApply(version uint32, succeeded bool) {
	outcome := "success"
	if !succeeded {
		outcome = "failure"
	}
	entry := Entry{
		ID:        uuid.New().String(),
		Timestamp: time.Now(),
		Version:   version,
		Action:    "apply",
		Outcome:   outcome,
	}

	body, err := json.Marshal(entry)
	if err != nil {
		l.logger.Error("audit: marshal entry failed", "error", err)
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if _, err := l.file.Write(append(body, '\n')); err != nil {
		l.logger.Error("audit: write entry failed", "error", err)
	}
}

// Close releases the underlying file handle.
func (l *Logger) Close() error {
	return l.file.Close()
}

// Recent reads up to limit entries from the tail of the log, most recent
// first. Malformed lines are skipped rather than failing the whole read.
func (l *Logger) Recent(limit int) []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()

	content, err := os.ReadFile(l.path)
	if err != nil {
		return nil
	}

	lines := strings.Split(string(content), "\n")
	var entries []Entry
	for i := len(lines) - 1; i >= 0; i-- {
		line := strings.TrimSpace(lines[i])
		if line == "" {
			continue
		}
		var e Entry
		if err := json.Unmarshal([]byte(line), &e); err == nil {
			entries = append(entries, e)
		}
		if len(entries) >= limit {
			break
		}
	}
	return entries
}
