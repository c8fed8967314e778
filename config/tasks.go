package config

import "time"

// TasksConfig contains configuration for the background-task poller.
type TasksConfig struct {
	// Enabled toggles the poller service.
	Enabled bool `env:"ENABLED" envDefault:"true"`

	// WaitBudget is the server-directed long-poll wait budget, in whole
	// seconds on the wire.
	WaitBudget time.Duration `env:"WAIT_BUDGET" envDefault:"25s"`

	// RearmDelay is the pause between a completed poll and the next one.
	RearmDelay time.Duration `env:"REARM_DELAY" envDefault:"250ms"`

	// UnauthorizedBackoff is the pause applied after an unauthorized
	// response before polling resumes.
	UnauthorizedBackoff time.Duration `env:"UNAUTHORIZED_BACKOFF" envDefault:"5s"`
}

// Sanitize applies guardrails to poller configuration values.
func (c *TasksConfig) Sanitize() {
	if c.WaitBudget < time.Second {
		c.WaitBudget = 25 * time.Second
	}
	if c.RearmDelay <= 0 {
		c.RearmDelay = 250 * time.Millisecond
	}
	if c.UnauthorizedBackoff <= 0 {
		c.UnauthorizedBackoff = 5 * time.Second
	}
}
