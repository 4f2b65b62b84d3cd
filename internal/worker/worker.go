// Package worker implements the OTA Worker: the single long-lived
// cooperative loop that drains the request queue and drives each
// request through open-image, progress-read, download, verify, and
// apply.
package worker

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"otaagent/internal/apply"
	"otaagent/internal/extmcu"
	"otaagent/internal/flashfs"
	"otaagent/internal/httpdl"
	"otaagent/internal/otaqueue"
	"otaagent/internal/otastate"
	"otaagent/internal/otatypes"
	"otaagent/internal/preflight"
	"otaagent/internal/progress"
	"otaagent/internal/verify"
)

// ImagePath is the fixed path, within the mounted flash filesystem, the
// Worker downloads and verifies every image at.
const ImagePath = "ota.bin"

// Worker owns the ProgressRecord and ImageFile exclusively for the
// duration of one loop iteration (spec.md §5). There is exactly one
// Worker per agent process.
type Worker struct {
	queue     *otaqueue.Queue
	rec       *progress.Record
	fs        flashfs.Filesystem
	dl        *httpdl.Client
	mcu       extmcu.Transport
	applier   *apply.Coordinator
	publisher *otastate.Publisher
	logger    *slog.Logger

	// diskDir is the directory preflight.CheckDiskSpace inspects before a
	// download begins. On a real flash-backed Filesystem this would be a
	// mount point; on the local-disk stand-in it is the same directory
	// flashfs.Local writes to.
	diskDir string
}

// New assembles a Worker from its collaborators. logger defaults to
// slog.Default() when nil.
func New(queue *otaqueue.Queue, rec *progress.Record, fs flashfs.Filesystem, dl *httpdl.Client, mcu extmcu.Transport, applier *apply.Coordinator, publisher *otastate.Publisher, diskDir string, logger *slog.Logger) *Worker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Worker{
		queue:     queue,
		rec:       rec,
		fs:        fs,
		dl:        dl,
		mcu:       mcu,
		applier:   applier,
		publisher: publisher,
		diskDir:   diskDir,
		logger:    logger,
	}
}

// Run drains the queue until ctx is cancelled. Cancellation is checked
// before and after the blocking dequeue and again before a download
// starts; an in-flight download is aborted by cancelling the context
// passed to the HTTP client. Dequeue itself does not observe ctx, so a
// Run that is waiting on an empty queue returns only after the next
// request arrives.
func (w *Worker) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		req := w.queue.Dequeue()
		if ctx.Err() != nil {
			return
		}
		w.processOne(ctx, req)
	}
}

// action is the decision made after reading the progress record, per the
// state diagram in spec.md §4.8.
type action int

const (
	actionFresh action = iota
	actionResume
	actionSkipToVerify
	actionSkip
)

func (w *Worker) processOne(ctx context.Context, req otatypes.UpdateRequest) {
	log := w.logger.With("version", req.Version)

	file, err := w.fs.Open(ImagePath)
	if err != nil {
		log.Error("open image failed", "error_kind", otatypes.ErrIO, "error", err)
		w.publisher.Set(otatypes.StatusError, otatypes.ErrIO)
		return
	}
	defer file.Close()

	localVersion, hasPartial := w.rec.Read()

	act, resumeOffset, err := w.decide(file, req, localVersion, hasPartial)
	if err != nil {
		log.Error("progress decision failed", "error_kind", otatypes.ErrIO, "error", err)
		w.publisher.Set(otatypes.StatusError, otatypes.ErrIO)
		return
	}

	switch act {
	case actionSkip:
		log.Info("skipping notice", "local_version", localVersion, "has_partial", hasPartial)
		return
	case actionFresh:
		if err := file.Truncate(0); err != nil {
			log.Error("truncate for fresh download failed", "error_kind", otatypes.ErrIO, "error", err)
			w.publisher.Set(otatypes.StatusError, otatypes.ErrIO)
			return
		}
		if err := w.rec.Write(req.Version, false); err != nil {
			log.Warn("writing downloading record failed", "error", err)
		}
		resumeOffset = 0
	case actionSkipToVerify:
		// The file is already exactly req.Size bytes long; a previous run
		// must have crashed between finishing the transfer and recording
		// completion. Fall straight through to VERIFY.
	case actionResume:
		if _, err := file.Seek(resumeOffset, io.SeekStart); err != nil {
			log.Error("seek to resume offset failed", "error_kind", otatypes.ErrIO, "error", err)
			w.publisher.Set(otatypes.StatusError, otatypes.ErrIO)
			return
		}
	}

	if act == actionFresh || act == actionResume {
		if ctx.Err() != nil {
			return
		}
		if err := preflight.CheckDiskSpace(w.diskDir, int64(req.Size)-resumeOffset); err != nil {
			log.Error("preflight disk space check failed", "error_kind", otatypes.ErrIO, "error", err)
			w.publisher.Set(otatypes.StatusError, otatypes.ErrIO)
			return
		}
		// A fresh download writes the same Downloading record a second time
		// here, after preflight; the first write follows the truncate above,
		// so a preflight failure still leaves that record in place.
		if act == actionFresh {
			if err := w.rec.Write(req.Version, false); err != nil {
				log.Warn("writing downloading record failed", "error", err)
			}
		}

		w.publisher.Set(otatypes.StatusDownloading, otatypes.ErrNone)
		outcome, dlErr := w.dl.Get(ctx, req.EffectiveURL(), resumeOffset, file)
		switch outcome {
		case httpdl.Ok:
			// fall through to verify
		case httpdl.Timeout:
			log.Warn("download timed out", "error_kind", otatypes.ErrTimeout, "error", dlErr)
			w.publisher.Set(otatypes.StatusInterrupted, otatypes.ErrTimeout)
			return
		case httpdl.HTTPError:
			log.Warn("download http error", "error_kind", otatypes.ErrHTTP, "error", dlErr)
			w.publisher.Set(otatypes.StatusInterrupted, otatypes.ErrHTTP)
			return
		case httpdl.Cancelled:
			log.Info("download cancelled by shutdown signal")
			return
		default: // httpdl.WriteError
			log.Error("download write error", "error_kind", otatypes.ErrIO, "error", dlErr)
			w.publisher.Set(otatypes.StatusError, otatypes.ErrIO)
			return
		}
	}

	result, _, verr := verify.Image(file, req.SHA256Hex)
	if verr != nil {
		log.Error("verify failed with i/o error", "error_kind", otatypes.ErrIO, "error", verr)
		w.publisher.Set(otatypes.StatusError, otatypes.ErrIO)
		return
	}
	if result != verify.Pass {
		if err := file.Truncate(0); err != nil {
			log.Warn("truncating corrupt image failed", "error", err)
		}
		log.Error("verification failed", "error_kind", otatypes.ErrVerify)
		w.publisher.Set(otatypes.StatusError, otatypes.ErrVerify)
		return
	}

	if err := w.rec.Write(req.Version, true); err != nil {
		log.Warn("writing completed record failed", "error", err)
	}

	// Defensive reload: trust only what is now durably on the record, not
	// the in-memory req, when deciding whether to apply.
	finalVersion, stillPartial := w.rec.Read()
	if stillPartial || finalVersion == 0 {
		return
	}

	mcuVersion, err := w.mcu.GetVersion()
	if err != nil {
		log.Error("extmcu version query failed", "error_kind", otatypes.ErrMcuDownload, "error", err)
		w.publisher.Set(otatypes.StatusError, otatypes.ErrMcuDownload)
		return
	}
	if mcuVersion >= finalVersion {
		return
	}

	if err := w.applier.Apply(finalVersion); err != nil {
		log.Error("apply failed", "error_kind", otatypes.ErrMcuDownload, "error", err)
		return
	}
}

// decide implements the branch table in spec.md §4.8: given the progress
// record just read and the freshly-dequeued request, it returns which
// action the Worker should take and, for actionResume, the byte offset to
// resume from.
func (w *Worker) decide(file flashfs.File, req otatypes.UpdateRequest, localVersion uint32, hasPartial bool) (action, int64, error) {
	switch {
	case localVersion == 0:
		// no_record: nothing on disk for any version.
		return actionFresh, 0, nil

	case hasPartial:
		switch {
		case localVersion > req.Version:
			return actionSkip, 0, nil
		case localVersion < req.Version:
			return actionFresh, 0, nil
		default:
			size, err := file.Size()
			if err != nil {
				return actionSkip, 0, fmt.Errorf("worker: stat partial image: %w", err)
			}
			switch {
			case size == int64(req.Size):
				return actionSkipToVerify, 0, nil
			case size > int64(req.Size):
				// Locally corrupt: larger than the expected image. Leave
				// the record untouched and emit no error, per spec.
				return actionSkip, 0, nil
			default:
				return actionResume, size, nil
			}
		}

	default:
		// completed: the record says this version (or a later one) was
		// already fully downloaded and verified.
		if localVersion >= req.Version {
			return actionSkip, 0, nil
		}
		return actionFresh, 0, nil
	}
}
