// Package notice validates incoming update notices from the cloud control
// plane and hands well-formed ones to the request queue.
package notice

import (
	"log/slog"
	"strconv"

	"otaagent/internal/otaqueue"
	"otaagent/internal/otatypes"
)

// Intake parses and enqueues update notices. It never blocks and never
// surfaces an error to the caller: notices are re-delivered by the control
// plane, so a malformed or dropped one is re-announced on the next
// reconnect.
type Intake struct {
	queue  *otaqueue.Queue
	logger *slog.Logger
}

// New returns an Intake that enqueues accepted notices on q.
func New(q *otaqueue.Queue, logger *slog.Logger) *Intake {
	return &Intake{queue: q, logger: logger}
}

// Submit parses a key-value notice record. It rejects silently (no
// enqueue, no error) if version, size, url, sas, or sha256 is missing,
// zero, or empty. Safe to call from any goroutine.
func (in *Intake) Submit(fields map[string]string) {
	version, err := parseUint32(fields["version"])
	if err != nil || version == 0 {
		in.logger.Debug("notice dropped: missing or zero version")
		return
	}
	size, err := parseUint32(fields["size"])
	if err != nil || size == 0 {
		in.logger.Debug("notice dropped: missing or zero size", "version", version)
		return
	}
	url := fields["url"]
	sas := fields["sas"]
	sha := fields["sha256"]
	if url == "" || sas == "" || sha == "" {
		in.logger.Debug("notice dropped: missing url/sas/sha256", "version", version)
		return
	}

	req := otatypes.UpdateRequest{
		Version:   version,
		Size:      size,
		URL:       url,
		SAS:       sas,
		SHA256Hex: sha,
	}
	if err := req.Validate(); err != nil {
		in.logger.Debug("notice dropped: failed validation", "error", err)
		return
	}

	in.queue.Enqueue(req)
	in.logger.Info("notice accepted", "version", version, "size", size)
}

func parseUint32(s string) (uint32, error) {
	if s == "" {
		return 0, strconv.ErrSyntax
	}
	v, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, err
	}
	return uint32(v), nil
}
