package config

import "time"

// FirstRunConfig contains configuration for first-run startup orchestration.
type FirstRunConfig struct {
	// Enabled toggles the first-run orchestration service.
	Enabled bool `env:"ENABLED" envDefault:"true"`

	// ProbeInterval is the delay between TVHeadend process/health probes.
	ProbeInterval time.Duration `env:"PROBE_INTERVAL" envDefault:"5s"`

	// FinalizeDelay is the settle delay between a healthy ping and
	// finalizing first-run settings.
	FinalizeDelay time.Duration `env:"FINALIZE_DELAY" envDefault:"1s"`
}

// Sanitize applies guardrails to first-run configuration values.
func (c *FirstRunConfig) Sanitize() {
	if c.ProbeInterval <= 0 {
		c.ProbeInterval = 5 * time.Second
	}
	if c.FinalizeDelay < 0 {
		c.FinalizeDelay = time.Second
	}
}
