package config

import (
	"fmt"
	"strings"
)

// StorageBackend selects the persistence backend for client state.
type StorageBackend string

const (
	// StorageBackendMemory keeps client state in memory only (state does not
	// survive a restart; useful for tests and ephemeral sessions).
	StorageBackendMemory StorageBackend = "memory"
	// StorageBackendFile persists client state to a local JSON file.
	StorageBackendFile StorageBackend = "file"
	// StorageBackendRedis persists client state to Redis (shared kiosk
	// deployments).
	StorageBackendRedis StorageBackend = "redis"
)

// UnmarshalText implements encoding.TextUnmarshaler for StorageBackend.
func (b *StorageBackend) UnmarshalText(text []byte) error {
	v := strings.ToLower(string(text))
	switch v {
	case "memory", "file", "redis":
		*b = StorageBackend(v)
		return nil
	default:
		return fmt.Errorf("invalid StorageBackend: %q (valid options: memory, file, redis)", v)
	}
}

// RedisConfig contains Redis connection settings for the redis storage
// backend.
type RedisConfig struct {
	Addr     string `env:"ADDR"     envDefault:"localhost:6379"`
	Password string `env:"PASSWORD" envDefault:""`
	DB       int    `env:"DB"       envDefault:"0"`
}

// StorageConfig contains configuration for the client-state store.
type StorageConfig struct {
	// Backend determines which persistence backend to use.
	Backend StorageBackend `env:"BACKEND" envDefault:"file"`

	// FilePath is the state file location for the file backend.
	FilePath string `env:"FILE_PATH" envDefault:"tic-ui-state.json"`

	// KeyPrefix namespaces all persisted entries.
	KeyPrefix string `env:"KEY_PREFIX" envDefault:"tic_ui:"`

	// Redis connection settings (used when Backend=redis).
	Redis RedisConfig `envPrefix:"REDIS_"`
}

// Sanitize applies guardrails to storage configuration values.
func (c *StorageConfig) Sanitize() {
	if c.Backend == "" {
		c.Backend = StorageBackendFile
	}
	if c.FilePath == "" {
		c.FilePath = "tic-ui-state.json"
	}
}
