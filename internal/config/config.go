// Package config loads the application configuration from a YAML file with
// environment overrides for deployment-specific values.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigPath is used when no path is given.
const DefaultConfigPath = "config.yaml"

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Host string `yaml:"host"` // Bind address, empty for all interfaces.
	Port int    `yaml:"port"` // Listen port.
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string {
	port := s.Port
	if port == 0 {
		port = 8318
	}
	return fmt.Sprintf("%s:%d", s.Host, port)
}

// DatabaseConfig configures the database connection.
type DatabaseConfig struct {
	DSN string `yaml:"dsn"` // SQLite path or PostgreSQL DSN.
}

// RedisConfig configures the optional shared configuration cache.
type RedisConfig struct {
	Addr     string `yaml:"addr"`     // host:port, empty disables Redis.
	Password string `yaml:"password"` // Optional password.
	DB       int    `yaml:"db"`       // Logical database index.
}

// JWTConfig configures operator token signing.
type JWTConfig struct {
	Secret        string `yaml:"secret"`         // HMAC signing secret.
	ExpiryMinutes int    `yaml:"expiry-minutes"` // Token lifetime in minutes.
}

// Expiry returns the token lifetime, defaulting to 12 hours.
func (j JWTConfig) Expiry() time.Duration {
	if j.ExpiryMinutes <= 0 {
		return 12 * time.Hour
	}
	return time.Duration(j.ExpiryMinutes) * time.Minute
}

// LoggingConfig configures structured logging output.
type LoggingConfig struct {
	Level      string `yaml:"level"`       // logrus level name.
	File       string `yaml:"file"`        // Log file path, empty for stdout only.
	MaxSizeMB  int    `yaml:"max-size"`    // Rotate after this size.
	MaxBackups int    `yaml:"max-backups"` // Rotated files to keep.
	MaxAgeDays int    `yaml:"max-age"`     // Days to keep rotated files.
}

// Config is the root application configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	JWT      JWTConfig      `yaml:"jwt"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// ResolveConfigPath falls back to the default path when none is given.
func ResolveConfigPath(path string) string {
	if strings.TrimSpace(path) == "" {
		return DefaultConfigPath
	}
	return path
}

// Load reads the configuration file and applies environment overrides.
// A missing file is not an error; overrides and defaults still apply.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, errRead := os.ReadFile(ResolveConfigPath(path))
	if errRead != nil {
		if !os.IsNotExist(errRead) {
			return nil, fmt.Errorf("config: read %s: %w", path, errRead)
		}
	} else if errDecode := yaml.Unmarshal(data, cfg); errDecode != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, errDecode)
	}

	applyEnvOverrides(cfg)
	applyDefaults(cfg)

	if cfg.JWT.Secret == "" {
		return nil, fmt.Errorf("config: jwt secret is required (set jwt.secret or SALESCRM_JWT_SECRET)")
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("SALESCRM_DSN"); v != "" {
		cfg.Database.DSN = v
	}
	if v := os.Getenv("SALESCRM_JWT_SECRET"); v != "" {
		cfg.JWT.Secret = v
	}
	if v := os.Getenv("SALESCRM_REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("SALESCRM_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("SALESCRM_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Database.DSN == "" {
		cfg.Database.DSN = "salescrm.db"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8318
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
}
