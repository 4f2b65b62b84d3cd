// Command otaagentd runs the OTA update agent: it mounts the local
// image store, opens the progress record and history database, then
// drives the Worker until a shutdown signal arrives.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"otaagent/internal/apply"
	"otaagent/internal/audit"
	"otaagent/internal/config"
	"otaagent/internal/controlapi"
	"otaagent/internal/extmcu"
	"otaagent/internal/flashfs"
	"otaagent/internal/history"
	"otaagent/internal/httpdl"
	"otaagent/internal/logger"
	"otaagent/internal/notice"
	"otaagent/internal/otaqueue"
	"otaagent/internal/otastate"
	"otaagent/internal/progress"
	"otaagent/internal/selfupdate"
	"otaagent/internal/worker"
)

// agentVersion is the otaagentd binary's own release tag, compared against
// selfupdateOwner/selfupdateRepo's latest release channel. Unrelated to the
// ExtMCU firmware version the Worker manages.
const (
	agentVersion    = "v1.0.0"
	selfupdateOwner = "acme"
	selfupdateRepo  = "otaagent"
)

func main() {
	dataDir := flag.String("data-dir", "/var/lib/otaagent", "directory for the image store, database, and logs")
	progressPath := flag.String("progress-file", "", "path to the persistent-mutable progress record file (default: <data-dir>/progress.json)")
	flag.Parse()

	if err := run(*dataDir, *progressPath); err != nil {
		fmt.Fprintln(os.Stderr, "otaagentd:", err)
		os.Exit(1)
	}
}

func run(dataDir, progressPath string) error {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	log, err := logger.New(filepath.Join(dataDir, "logs"), os.Stdout)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	db, err := gorm.Open(sqlite.Open(filepath.Join(dataDir, "otaagent.db")), &gorm.Config{})
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}

	cfgStore, err := config.NewStore(db)
	if err != nil {
		return fmt.Errorf("init config store: %w", err)
	}
	cfg := config.NewManager(cfgStore)

	historyStore, err := history.NewStore(db)
	if err != nil {
		return fmt.Errorf("init history store: %w", err)
	}

	auditLogger, err := audit.Open(filepath.Join(dataDir, "audit.log"), log)
	if err != nil {
		return fmt.Errorf("open audit log: %w", err)
	}
	defer auditLogger.Close()

	if progressPath == "" {
		progressPath = filepath.Join(dataDir, "progress.json")
	}
	hostFile, err := progress.OpenLocalHostFile(progressPath)
	if err != nil {
		return fmt.Errorf("open progress record: %w", err)
	}
	defer hostFile.Close()
	rec := progress.New(hostFile)

	imageDir := filepath.Join(dataDir, "images")
	if err := os.MkdirAll(imageDir, 0o755); err != nil {
		return fmt.Errorf("create image dir: %w", err)
	}
	fs := flashfs.NewLocal(imageDir)
	if err := fs.Mount(); err != nil {
		log.Warn("mount failed, formatting and retrying once", "error", err)
		if err := fs.Format(); err != nil {
			return fmt.Errorf("format image store: %w", err)
		}
		if err := fs.Mount(); err != nil {
			return fmt.Errorf("mount image store after format: %w", err)
		}
	}

	certPath := cfg.CertPath()
	if !filepath.IsAbs(certPath) {
		if exe, err := os.Executable(); err == nil {
			certPath = filepath.Join(filepath.Dir(exe), certPath)
		}
	}
	dl, err := httpdl.NewClient(certPath)
	if err != nil {
		return fmt.Errorf("init download client: %w", err)
	}
	if ua := cfg.UserAgent(); ua != "" {
		dl.SetUserAgent(ua)
	}

	mcu := extmcu.NewFake(0, true)
	if err := mcu.Init(); err != nil {
		return fmt.Errorf("init extmcu transport: %w", err)
	}

	publisher := otastate.New()
	applier := apply.New(mcu, publisher, log, historyStore, auditLogger)

	queue := otaqueue.New()
	w := worker.New(queue, rec, fs, dl, mcu, applier, publisher, imageDir, log)

	intake := notice.New(queue, log)
	api := controlapi.New(publisher, queue, intake, log)
	if err := api.Start(cfg.ControlAddr()); err != nil {
		return fmt.Errorf("start control api: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	checker := selfupdate.NewChecker(selfupdateOwner, selfupdateRepo)
	go runSelfUpdateChecks(ctx, checker, log)

	log.Info("otaagentd starting", "data_dir", dataDir, "control_addr", cfg.ControlAddr())
	go w.Run(ctx)
	<-ctx.Done()
	log.Info("otaagentd stopped")
	return nil
}

// runSelfUpdateChecks polls the agent binary's own release channel on a
// fixed interval until ctx is cancelled. Failures are logged, never fatal —
// a release-check outage must not affect the OTA state machine.
func runSelfUpdateChecks(ctx context.Context, checker *selfupdate.Checker, log *slog.Logger) {
	const interval = 6 * time.Hour
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		rel, err := checker.CheckForUpdate(ctx, agentVersion)
		if err != nil {
			log.Warn("self-update check failed", "error", err)
		} else if rel != nil {
			log.Info("otaagentd release differs from running version", "tag", rel.TagName, "url", rel.HTMLURL)
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
