package config

import "time"

// Default guardrail values for the authority client. The refresh lead window
// and check freshness TTL mirror the values the UI has always shipped with.
const (
	defaultAuthorityTimeout   = 30 * time.Second
	defaultRefreshLeadWindow  = 2 * time.Minute
	defaultCheckFreshnessTTL  = 15 * time.Second
	defaultHealthProbeTimeout = 4 * time.Second
)

// AuthorityConfig contains configuration for the backend authority client.
type AuthorityConfig struct {
	// BaseURL is the base URL of the backend authority, including the
	// /tic-api mount point.
	BaseURL string `env:"BASE_URL" envDefault:"http://localhost:9985/tic-api"`

	// RequestTimeout bounds ordinary (non long-poll) authority requests.
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT" envDefault:"30s"`

	// HealthProbeTimeout bounds health/status pings (single-digit seconds).
	HealthProbeTimeout time.Duration `env:"HEALTH_PROBE_TIMEOUT" envDefault:"4s"`

	// RefreshLeadWindow is how close to token expiry a non-forced
	// authentication check will transparently refresh the session first.
	RefreshLeadWindow time.Duration `env:"REFRESH_LEAD_WINDOW" envDefault:"2m"`

	// CheckFreshnessTTL is the debounce window within which a prior
	// successful validation short-circuits a new authentication check.
	CheckFreshnessTTL time.Duration `env:"CHECK_FRESHNESS_TTL" envDefault:"15s"`
}

// Sanitize applies guardrails to authority configuration values.
func (c *AuthorityConfig) Sanitize() {
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = defaultAuthorityTimeout
	}
	if c.HealthProbeTimeout <= 0 {
		c.HealthProbeTimeout = defaultHealthProbeTimeout
	}
	if c.RefreshLeadWindow <= 0 {
		c.RefreshLeadWindow = defaultRefreshLeadWindow
	}
	if c.CheckFreshnessTTL <= 0 {
		c.CheckFreshnessTTL = defaultCheckFreshnessTTL
	}
}
