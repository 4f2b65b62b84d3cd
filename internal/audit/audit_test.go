package audit

import (
	"io"
	"log/slog"
	"path/filepath"
	"testing"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRecordApplyThenRecent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.log")
	l, err := Open(path, testLogger())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer l.Close()

	l.RecordApply(3, true)
	l.RecordApply(4, false)

	entries := l.Recent(10)
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Version != 4 || entries[0].Outcome != "failure" {
		t.Errorf("expected most recent entry to be version 4/failure, got %+v", entries[0])
	}
	if entries[1].Version != 3 || entries[1].Outcome != "success" {
		t.Errorf("expected oldest entry to be version 3/success, got %+v", entries[1])
	}
}

func TestRecentLimitsResults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.log")
	l, err := Open(path, testLogger())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer l.Close()

	for i := uint32(1); i <= 5; i++ {
		l.RecordApply(i, true)
	}

	entries := l.Recent(2)
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Version != 5 || entries[1].Version != 4 {
		t.Errorf("expected versions [5,4], got [%d,%d]", entries[0].Version, entries[1].Version)
	}
}

func TestRecentOnEmptyLogReturnsNil(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.log")
	l, err := Open(path, testLogger())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer l.Close()

	if entries := l.Recent(10); len(entries) != 0 {
		t.Errorf("expected no entries, got %d", len(entries))
	}
}
