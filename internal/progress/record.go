// Package progress implements the power-fail-safe ProgressRecord: a tiny
// JSON document persisted on a host-provided mutable file, tracking
// whether a partial or completed OTA image is present on the device.
package progress

import (
	"encoding/json"
	"fmt"
	"io"
)

// HostFile is the persistent-mutable-file capability the ProgressRecord is
// built on (spec.md §6): a small region of storage, outside the flash
// filesystem, that survives reboots. Implementations need not support
// concurrent access — the Worker is the sole owner.
type HostFile interface {
	io.ReaderAt
	io.WriterAt
	// Truncate shrinks or clears the file; Size reports its current length.
	Truncate(size int64) error
	Size() (int64, error)
}

const maxRecordLen = 50

// record is the on-disk shape: exactly one of Downloading or Completed is
// populated in any record this package writes, but both fields are kept so
// reads tolerate either key being present.
type record struct {
	Downloading uint32 `json:"Downloading,omitempty"`
	Completed   uint32 `json:"Completed,omitempty"`
}

// Record wraps a HostFile with the read/write semantics spec.md §4.3
// requires: write rewinds and overwrites in place; read tolerates an
// absent, empty, or unparseable file by reporting "no prior progress".
type Record struct {
	file HostFile
}

// New wraps file as a ProgressRecord.
func New(file HostFile) *Record {
	return &Record{file: file}
}

// Write persists {"Completed":version} when done is true, otherwise
// {"Downloading":version}. The file is truncated to the new record's
// length so no trailing bytes from a longer previous record survive.
func (r *Record) Write(version uint32, done bool) error {
	var body string
	if done {
		body = fmt.Sprintf(`{"Completed":%d}`, version)
	} else {
		body = fmt.Sprintf(`{"Downloading":%d}`, version)
	}
	if len(body) > maxRecordLen {
		return fmt.Errorf("progress: record exceeds %d bytes", maxRecordLen)
	}
	if err := r.file.Truncate(int64(len(body))); err != nil {
		return err
	}
	if _, err := r.file.WriteAt([]byte(body), 0); err != nil {
		return err
	}
	return nil
}

// Read returns (version, hasPartial). hasPartial is true when the record
// is {"Downloading":V} with V > 0; it is false for {"Completed":V} with
// V > 0. Any parse failure, read error, or empty file yields (0, false)
// without propagating an error — the record is advisory, and its loss
// costs at most a redundant re-download.
func (r *Record) Read() (version uint32, hasPartial bool) {
	size, err := r.file.Size()
	if err != nil || size <= 0 {
		return 0, false
	}

	buf := make([]byte, size)
	if _, err := r.file.ReadAt(buf, 0); err != nil && err != io.EOF {
		return 0, false
	}

	var rec record
	if err := json.Unmarshal(buf, &rec); err != nil {
		return 0, false
	}

	if rec.Downloading != 0 {
		return rec.Downloading, true
	}
	if rec.Completed != 0 {
		return rec.Completed, false
	}
	return 0, false
}
