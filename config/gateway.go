package config

import "time"

// GatewayConfig contains configuration for the gateway HTTP server.
type GatewayConfig struct {
	// Addr is the listen address for the gateway server.
	Addr string `env:"ADDR" envDefault:":9985"`

	// ReadHeaderTimeout bounds how long the server waits for request headers.
	ReadHeaderTimeout time.Duration `env:"READ_HEADER_TIMEOUT" envDefault:"10s"`

	// ShutdownTimeout bounds graceful shutdown on teardown.
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

// Sanitize applies guardrails to gateway configuration values.
func (c *GatewayConfig) Sanitize() {
	if c.Addr == "" {
		c.Addr = ":9985"
	}
	if c.ReadHeaderTimeout <= 0 {
		c.ReadHeaderTimeout = 10 * time.Second
	}
	if c.ShutdownTimeout <= 0 {
		c.ShutdownTimeout = 10 * time.Second
	}
}
