// Package otastate implements the State Publisher: a thread-safe
// observable {status, error, applied_version} snapshot that callers
// outside the Worker can read without affecting its decisions.
package otastate

import (
	"sync"

	"otaagent/internal/otatypes"
)

// Snapshot is a point-in-time copy of the published state.
type Snapshot struct {
	Status         otatypes.Status
	Error          otatypes.ErrorKind
	AppliedVersion uint32
}

// Publisher guards Snapshot behind a short critical section. The zero
// value is not ready for use; construct with New.
type Publisher struct {
	mu       sync.Mutex
	snapshot Snapshot
}

// New returns a Publisher in its initial state: Invalid/None/0.
func New() *Publisher {
	return &Publisher{
		snapshot: Snapshot{
			Status: otatypes.StatusInvalid,
			Error:  otatypes.ErrNone,
		},
	}
}

// Set overwrites status and error.
func (p *Publisher) Set(status otatypes.Status, err otatypes.ErrorKind) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.snapshot.Status = status
	p.snapshot.Error = err
}

// Get returns a copy of the current status and error.
func (p *Publisher) Get() (otatypes.Status, otatypes.ErrorKind) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.snapshot.Status, p.snapshot.Error
}

// SetAppliedVersion records the last version successfully pushed to the
// ExtMCU. Applied-version is monotonic for the life of the process: the
// Worker never calls this with a value smaller than the current one.
func (p *Publisher) SetAppliedVersion(v uint32) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if v > p.snapshot.AppliedVersion {
		p.snapshot.AppliedVersion = v
	}
}

// GetAppliedVersion returns the last applied version.
func (p *Publisher) GetAppliedVersion() uint32 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.snapshot.AppliedVersion
}

// Snapshot returns a full copy of the published state in one critical
// section, for observers (e.g. the control API) that want a consistent
// view of all three fields at once.
func (p *Publisher) Snapshot() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.snapshot
}
