// Package config provides unified configuration for the plume API server.
//
// Configuration is loaded with a layered approach:
//  1. Built-in defaults
//  2. YAML config file (discovered or explicitly specified)
//  3. Environment variable overrides (PLUME_ prefix)
//  4. File reference resolution (_file suffix fields)
//  5. Validation
package config

import "time"

// Config holds all configuration for the plume API server.
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Storage       StorageConfig       `yaml:"storage"`
	Auth          AuthConfig          `yaml:"auth"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// ObservabilityConfig holds monitoring and instrumentation settings.
type ObservabilityConfig struct {
	Metrics MetricsConfig `yaml:"metrics"`
}

// MetricsConfig holds Prometheus metrics endpoint settings.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"` // default: true
	Path    string `yaml:"path"`    // default: "/metrics"
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         int           `yaml:"port"`          // default: 8080
	ReadTimeout  time.Duration `yaml:"read_timeout"`  // default: 30s
	WriteTimeout time.Duration `yaml:"write_timeout"` // default: 30s
}

// StorageConfig holds persistence settings.
type StorageConfig struct {
	Type     string         `yaml:"type"` // "memory" or "postgres", default: "memory"
	Postgres PostgresConfig `yaml:"postgres"`
}

// PostgresConfig holds PostgreSQL-specific settings.
type PostgresConfig struct {
	DSN             string        `yaml:"dsn"`
	DSNFile         string        `yaml:"dsn_file"`          // _file variant for dsn
	MaxConns        int32         `yaml:"max_conns"`         // default: 25
	MinConns        int32         `yaml:"min_conns"`         // default: 5
	MaxConnLifetime time.Duration `yaml:"max_conn_lifetime"` // default: 5m
	AcquireTimeout  time.Duration `yaml:"acquire_timeout"`   // default: 5s
	MigrateOnStart  bool          `yaml:"migrate_on_start"`  // default: false
}

// AuthConfig holds authentication and password hashing settings.
type AuthConfig struct {
	Secret     string `yaml:"secret"`      // token signing secret, required
	SecretFile string `yaml:"secret_file"` // _file variant for secret

	// TokenTTL bounds the lifetime of issued tokens. Zero means tokens
	// never expire.
	TokenTTL time.Duration `yaml:"token_ttl"`

	// LoginIdentifier selects which user field a login matches against:
	// "email", "username", or "both". Default: "email".
	LoginIdentifier string `yaml:"login_identifier"`

	// BcryptCost is the work factor for password hashing. Zero selects
	// the bcrypt default.
	BcryptCost int `yaml:"bcrypt_cost"`
}

// Defaults returns a Config with all default values filled in.
func Defaults() Config {
	return Config{
		Server: ServerConfig{
			Port:         8080,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		Storage: StorageConfig{
			Type: "memory",
			Postgres: PostgresConfig{
				MaxConns:        25,
				MinConns:        5,
				MaxConnLifetime: 5 * time.Minute,
				AcquireTimeout:  5 * time.Second,
			},
		},
		Auth: AuthConfig{
			LoginIdentifier: "email",
		},
		Observability: ObservabilityConfig{
			Metrics: MetricsConfig{
				Enabled: true,
				Path:    "/metrics",
			},
		},
	}
}
