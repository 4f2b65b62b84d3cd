// Package history is the supplemental, queryable, never-authoritative
// record of past OTA attempts. The ProgressRecord remains the single
// source of truth the Worker reasons from; history exists for
// diagnostics only.
package history

import (
	"time"

	"gorm.io/gorm"
)

// Attempt is one row per recorded OTA attempt. The agent itself writes
// one row per Apply call, through RecordApply.
type Attempt struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	Version          uint32    `gorm:"index" json:"version"`
	Outcome          string    `json:"outcome"` // "applied", "error", "interrupted"
	ErrorKind        string    `json:"error_kind"`
	BytesTransferred int64     `json:"bytes_transferred"`
	StartedAt        time.Time `json:"started_at"`
	FinishedAt       time.Time `json:"finished_at"`
}

// TableName pins the table name independent of Go naming conventions, in
// case Attempt is ever renamed.
func (Attempt) TableName() string {
	return "attempts"
}

// Store wraps a *gorm.DB scoped to the Attempt model.
type Store struct {
	db *gorm.DB
}

// NewStore wires db (expected already opened by the caller) and runs the
// Attempt migration.
func NewStore(db *gorm.DB) (*Store, error) {
	if err := db.AutoMigrate(&Attempt{}); err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

// Append inserts one Attempt row.
func (s *Store) Append(a Attempt) error {
	return s.db.Create(&a).Error
}

// RecordApply satisfies apply.Recorder: it appends a coarse Attempt row
// summarizing the outcome of one Apply call. Byte-accounting for the
// download phase is not available at the apply step, so BytesTransferred
// is left at zero here; a richer caller may use Append directly instead.
func (s *Store) RecordApply(version uint32, succeeded bool) {
	outcome := "applied"
	errorKind := "none"
	if !succeeded {
		outcome = "error"
		errorKind = "mcu_download"
	}
	now := time.Now()
	_ = s.Append(Attempt{
		Version:    version,
		Outcome:    outcome,
		ErrorKind:  errorKind,
		StartedAt:  now,
		FinishedAt: now,
	})
}

// Recent returns the most recent limit attempts, newest first.
func (s *Store) Recent(limit int) ([]Attempt, error) {
	var attempts []Attempt
	err := s.db.Order("id desc").Limit(limit).Find(&attempts).Error
	return attempts, err
}

// ForVersion returns every recorded attempt for a given firmware version,
// oldest first.
func (s *Store) ForVersion(version uint32) ([]Attempt, error) {
	var attempts []Attempt
	err := s.db.Where("version = ?", version).Order("id asc").Find(&attempts).Error
	return attempts, err
}
