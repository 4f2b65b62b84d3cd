package config

import (
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	store, err := NewStore(db)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	return NewManager(store)
}

func TestDefaultsWhenUnset(t *testing.T) {
	m := newTestManager(t)
	if got := m.CertPath(); got != defaultCertPath {
		t.Errorf("expected default cert path %q, got %q", defaultCertPath, got)
	}
	if got := m.PollInterval(); got != defaultPollInterval {
		t.Errorf("expected default poll interval %v, got %v", defaultPollInterval, got)
	}
	if m.AllowDowngrade() {
		t.Error("expected AllowDowngrade to default to false")
	}
	if got := m.ControlAddr(); got != defaultControlAddr {
		t.Errorf("expected default control addr %q, got %q", defaultControlAddr, got)
	}
}

func TestSetThenGetOverridesDefault(t *testing.T) {
	m := newTestManager(t)

	if err := m.SetCertPath("/etc/otaagent/root.pem"); err != nil {
		t.Fatalf("set cert path: %v", err)
	}
	if got := m.CertPath(); got != "/etc/otaagent/root.pem" {
		t.Errorf("expected overridden cert path, got %q", got)
	}

	if err := m.SetPollInterval(90 * time.Second); err != nil {
		t.Fatalf("set poll interval: %v", err)
	}
	if got := m.PollInterval(); got != 90*time.Second {
		t.Errorf("expected 90s poll interval, got %v", got)
	}

	if err := m.SetAllowDowngrade(true); err != nil {
		t.Fatalf("set allow downgrade: %v", err)
	}
	if !m.AllowDowngrade() {
		t.Error("expected AllowDowngrade to be true after SetAllowDowngrade(true)")
	}
}

func TestFactoryResetRestoresDefaults(t *testing.T) {
	m := newTestManager(t)
	m.SetCertPath("/custom/path.pem")
	m.SetAllowDowngrade(true)

	if err := m.FactoryReset(); err != nil {
		t.Fatalf("factory reset: %v", err)
	}
	if got := m.CertPath(); got != defaultCertPath {
		t.Errorf("expected cert path reset to default, got %q", got)
	}
	if m.AllowDowngrade() {
		t.Error("expected AllowDowngrade reset to false")
	}
}
