package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// YAMLConfig represents the top-level gatehouse configuration file.
type YAMLConfig struct {
	Server  ServerConfig  `yaml:"server"`
	Auth    AuthConfig    `yaml:"auth"`
	Session SessionConfig `yaml:"session"`
	Logging LoggingConfig `yaml:"logging"`
}

// ServerConfig controls the HTTP server behavior.
type ServerConfig struct {
	Host            string     `yaml:"host"`
	Port            int        `yaml:"port"`
	ShutdownTimeout string     `yaml:"shutdown_timeout"`
	CORS            CORSConfig `yaml:"cors"`
}

// CORSConfig controls cross-origin resource sharing settings.
type CORSConfig struct {
	Origins []string `yaml:"origins"`
	Methods []string `yaml:"methods"`
}

// AuthConfig controls authentication and authorization settings.
type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret"`
	JWTExpiry string `yaml:"jwt_expiry"`

	// Superadmins is the comma-separated root-of-trust list of superadmin
	// email addresses. Entries are trimmed, lower-cased, and de-duplicated
	// at startup.
	Superadmins string `yaml:"superadmins"`

	// LoginRatePerMinute limits login attempts per client IP.
	LoginRatePerMinute int `yaml:"login_rate_per_minute"`
}

// SessionConfig controls the inactivity timeout applied to admin sessions.
type SessionConfig struct {
	// IdleTimeout is the total inactivity budget before hard logout.
	IdleTimeout string `yaml:"idle_timeout"`
	// WarningDuration is how long the pre-logout warning is shown; the
	// warning fires at IdleTimeout - WarningDuration of inactivity.
	WarningDuration string `yaml:"warning_duration"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// LoadYAML reads and parses a gatehouse configuration file.
func LoadYAML(path string) (*YAMLConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var cfg YAMLConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}
	return &cfg, nil
}

// ParseDuration parses a duration string, returning fallback for empty or
// malformed values.
func ParseDuration(s string, fallback time.Duration) time.Duration {
	if s == "" {
		return fallback
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}

// ExampleYAML returns a commented starter configuration file.
func ExampleYAML() string {
	return `# Gatehouse configuration
server:
  host: 0.0.0.0
  port: 8080
  shutdown_timeout: 30s
  cors:
    origins: ["*"]

auth:
  # Change this in production. Also settable via GATEHOUSE_AUTH_JWT_SECRET.
  jwt_secret: ""
  jwt_expiry: 24h
  # Comma-separated root-of-trust superadmin emails.
  superadmins: ""
  login_rate_per_minute: 10

session:
  idle_timeout: 30m
  warning_duration: 5m

logging:
  level: info
  format: text
`
}
