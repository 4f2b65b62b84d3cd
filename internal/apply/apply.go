// Package apply implements the Apply Coordinator: the final step of an
// OTA attempt, which pushes a verified image into the attached ExtMCU
// and publishes the outcome.
package apply

import (
	"log/slog"

	"otaagent/internal/extmcu"
	"otaagent/internal/otastate"
	"otaagent/internal/otatypes"
)

// Recorder is the subset of history/audit logging the Coordinator needs.
// Both internal/history and internal/audit satisfy it; a nil Recorder is
// valid and simply means "don't record".
type Recorder interface {
	RecordApply(version uint32, succeeded bool)
}

// Coordinator drives the ExtMCU push for a verified image and reflects
// the result through a Publisher.
type Coordinator struct {
	mcu       extmcu.Transport
	publisher *otastate.Publisher
	logger    *slog.Logger
	recorders []Recorder
}

// New returns a Coordinator pushing images through mcu and reporting
// state through publisher. Additional recorders (history, audit) are
// best-effort: a recorder failing to persist never fails the apply.
func New(mcu extmcu.Transport, publisher *otastate.Publisher, logger *slog.Logger, recorders ...Recorder) *Coordinator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Coordinator{mcu: mcu, publisher: publisher, logger: logger, recorders: recorders}
}

// Apply pushes version's image to the ExtMCU. On success it publishes
// StatusApplied and advances the monotonic applied-version counter; on
// failure it publishes StatusError/ErrMcuDownload and leaves the applied
// version untouched, so a later retry from a fresh download is still
// possible.
func (c *Coordinator) Apply(version uint32) error {
	c.publisher.Set(otatypes.StatusApplying, otatypes.ErrNone)
	c.logger.Info("applying image to extmcu", "version", version)

	ok, err := c.mcu.Download()
	if err != nil || !ok {
		c.logger.Error("extmcu apply failed", "version", version, "error", err)
		c.publisher.Set(otatypes.StatusError, otatypes.ErrMcuDownload)
		c.record(version, false)
		if err != nil {
			return err
		}
		return errApplyRejected
	}

	c.publisher.Set(otatypes.StatusApplied, otatypes.ErrNone)
	c.publisher.SetAppliedVersion(version)
	c.record(version, true)
	c.logger.Info("image applied", "version", version)
	return nil
}

func (c *Coordinator) record(version uint32, ok bool) {
	for _, r := range c.recorders {
		if r == nil {
			continue
		}
		r.RecordApply(version, ok)
	}
}

type applyError string

func (e applyError) Error() string { return string(e) }

const errApplyRejected = applyError("extmcu rejected the image")
