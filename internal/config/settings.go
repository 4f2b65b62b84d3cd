package config

import (
	"strconv"
	"time"
)

// Keys for AppSettings in the database.
const (
	KeyCertPath         = "cert_path"
	KeyPollIntervalSecs = "poll_interval_seconds"
	KeyAllowDowngrade   = "allow_downgrade"
	KeyUserAgent        = "user_agent"
	KeyControlAddr      = "control_addr"
)

const (
	defaultCertPath     = "certs/root.pem"
	defaultPollInterval = 30 * time.Second
	defaultControlAddr  = ":8088"
)

// Manager exposes typed accessors over the raw string Store, with
// defaults matching spec.md's resolve_in_image_package and watchdog
// constants where applicable.
type Manager struct {
	store *Store
}

// NewManager wraps store.
func NewManager(store *Store) *Manager {
	return &Manager{store: store}
}

// CertPath returns the CA bundle path. A relative path (the default
// included) is resolved by cmd/otaagentd against the directory holding
// the agent binary, its read-only image package.
func (m *Manager) CertPath() string {
	if v, ok := m.store.GetString(KeyCertPath); ok && v != "" {
		return v
	}
	return defaultCertPath
}

// SetCertPath overrides the CA bundle path.
func (m *Manager) SetCertPath(path string) error {
	return m.store.SetString(KeyCertPath, path)
}

// PollInterval returns the stored poll interval, or 30 seconds when unset
// or invalid. No other package of the agent reads this setting; it is
// unrelated to the low-speed watchdog's fixed 30-second stall window.
func (m *Manager) PollInterval() time.Duration {
	v, ok := m.store.GetString(KeyPollIntervalSecs)
	if !ok {
		return defaultPollInterval
	}
	secs, err := strconv.Atoi(v)
	if err != nil || secs <= 0 {
		return defaultPollInterval
	}
	return time.Duration(secs) * time.Second
}

// SetPollInterval stores a new poll interval.
func (m *Manager) SetPollInterval(d time.Duration) error {
	return m.store.SetString(KeyPollIntervalSecs, strconv.Itoa(int(d.Seconds())))
}

// AllowDowngrade reports whether the Worker's no-downgrade rule
// (spec.md §4.8) should be relaxed. The default, false, matches the
// spec's default behavior; spec.md explicitly calls this out as "an
// extension point... for policies that allow rollback" rather than a
// required behavior, so the Worker does not consult this flag directly —
// it is surfaced here for an operator-facing policy layer to use.
func (m *Manager) AllowDowngrade() bool {
	v, ok := m.store.GetString(KeyAllowDowngrade)
	return ok && v == "true"
}

// SetAllowDowngrade stores the downgrade policy flag.
func (m *Manager) SetAllowDowngrade(allow bool) error {
	val := "false"
	if allow {
		val = "true"
	}
	return m.store.SetString(KeyAllowDowngrade, val)
}

// UserAgent returns a custom HTTP User-Agent override, or "" to let
// internal/httpdl use its built-in default.
func (m *Manager) UserAgent() string {
	v, _ := m.store.GetString(KeyUserAgent)
	return v
}

// SetUserAgent stores a custom User-Agent string.
func (m *Manager) SetUserAgent(ua string) error {
	return m.store.SetString(KeyUserAgent, ua)
}

// ControlAddr is the listen address for internal/controlapi.
func (m *Manager) ControlAddr() string {
	if v, ok := m.store.GetString(KeyControlAddr); ok && v != "" {
		return v
	}
	return defaultControlAddr
}

// SetControlAddr overrides the control API listen address.
func (m *Manager) SetControlAddr(addr string) error {
	return m.store.SetString(KeyControlAddr, addr)
}

// FactoryReset clears every known setting, causing getters to fall back
// to their defaults.
func (m *Manager) FactoryReset() error {
	for _, key := range []string{
		KeyCertPath,
		KeyPollIntervalSecs,
		KeyAllowDowngrade,
		KeyUserAgent,
		KeyControlAddr,
	} {
		if err := m.store.Delete(key); err != nil {
			return err
		}
	}
	return nil
}
