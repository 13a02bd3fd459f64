package config

import "time"

// SweepConfig controls the periodic jobs run by the scheduler.  The lease
// prefix namespaces the Redis keys used to keep replicas from sweeping at
// the same instant.
type SweepConfig struct {
	HoldInterval     time.Duration
	NoShowInterval   time.Duration
	SettingsInterval time.Duration
	LeasePrefix      string
}

// LoadSweepConfig returns the sweep cadence.  The hold sweep runs every
// minute and the no-show sweep every five minutes unless overridden.
func LoadSweepConfig() SweepConfig {
	cfg := SweepConfig{
		HoldInterval:     envDur("HOLD_SWEEP_INTERVAL", time.Minute),
		NoShowInterval:   envDur("NO_SHOW_SWEEP_INTERVAL", 5*time.Minute),
		SettingsInterval: envDur("SETTINGS_REFRESH_INTERVAL", time.Minute),
		LeasePrefix:      envStr("SWEEP_LEASE_PREFIX", "sweep"),
	}
	if cfg.HoldInterval <= 0 {
		cfg.HoldInterval = time.Minute
	}
	if cfg.NoShowInterval <= 0 {
		cfg.NoShowInterval = 5 * time.Minute
	}
	if cfg.SettingsInterval <= 0 {
		cfg.SettingsInterval = time.Minute
	}
	return cfg
}
