package config

import (
	"os"
	"strings"
)

// AppConfig is the main application configuration struct that composes
// domain-specific configuration from separate files.
//
// Configuration is loaded from environment variables using the
// github.com/caarlos0/env library. See individual domain config
// files for details on available environment variables:
//   - authority.go: Backend authority client configuration
//   - storage.go: Client-state storage configuration
//   - gateway.go: Gateway HTTP server configuration
//   - tasks.go: Background-task poller configuration
//   - firstrun.go: First-run orchestration configuration
type AppConfig struct {
	// IsDev controls development mode behavior (verbose logging, relaxed
	// timeouts). Set DEV=true or NODE_ENV=development for development mode.
	IsDev bool `env:"DEV" envDefault:"false"`

	// AppURL is the externally visible URL of this frontend. It is reported
	// to the authority during first-run finalization.
	AppURL string `env:"APP_URL" envDefault:"http://localhost:9985"`

	// Authority client configuration
	Authority AuthorityConfig `envPrefix:"AUTHORITY_"`

	// Client-state storage configuration
	Storage StorageConfig `envPrefix:"STORAGE_"`

	// Gateway HTTP server configuration
	Gateway GatewayConfig `envPrefix:"GATEWAY_"`

	// Background-task poller configuration
	Tasks TasksConfig `envPrefix:"TASKS_"`

	// First-run orchestration configuration
	FirstRun FirstRunConfig `envPrefix:"FIRST_RUN_"`
}

// Sanitize applies guardrails to configuration values loaded from env.
// This should be called after loading configuration from environment variables.
func (c *AppConfig) Sanitize() {
	c.Authority.Sanitize()
	c.Storage.Sanitize()
	c.Gateway.Sanitize()
	c.Tasks.Sanitize()
	c.FirstRun.Sanitize()

	// Check NODE_ENV for dev mode
	c.detectDevMode()
}

// detectDevMode checks both DEV and NODE_ENV environment variables.
// This is called by Sanitize() to ensure IsDev is set correctly.
// NODE_ENV is checked as a fallback (common in frontend tooling).
func (c *AppConfig) detectDevMode() {
	if !c.IsDev {
		nodeEnv := strings.ToLower(os.Getenv("NODE_ENV"))
		c.IsDev = nodeEnv == "development" || nodeEnv == "dev"
	}
}
