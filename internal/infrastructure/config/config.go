package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for Taskforge Core.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Security SecurityConfig `yaml:"security"`
	Events   EventsConfig   `yaml:"events"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// ServerConfig contains HTTP API server settings.
type ServerConfig struct {
	Host     string              `yaml:"host"`
	Port     int                 `yaml:"port"`
	TLS      TLSConfig           `yaml:"tls"`
	Timeouts ServerTimeoutConfig `yaml:"timeouts"`
	CORS     CORSConfig          `yaml:"cors"`
}

// TLSConfig contains TLS certificate settings.
type TLSConfig struct {
	Enabled  bool   `yaml:"enabled"`
	CertFile string `yaml:"cert_file"`
	KeyFile  string `yaml:"key_file"`
}

// ServerTimeoutConfig contains HTTP timeout settings (seconds).
type ServerTimeoutConfig struct {
	Read  int `yaml:"read"`
	Write int `yaml:"write"`
	Idle  int `yaml:"idle"`
}

// CORSConfig contains Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
	AllowedMethods []string `yaml:"allowed_methods"`
	AllowedHeaders []string `yaml:"allowed_headers"`
}

// DatabaseConfig contains SQLite database settings.
type DatabaseConfig struct {
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
}

// SecurityConfig contains security settings.
type SecurityConfig struct {
	JWT JWTConfig `yaml:"jwt"`
}

// JWTConfig contains JWT token settings.
//
// Tokens are signed with an RSA key pair generated at process start, so there
// is no signing secret here. TokenTTL bounds both the embedded expiry claim
// and the session cookie's Max-Age.
type JWTConfig struct {
	// Issuer is the iss claim placed in every token.
	Issuer string `yaml:"issuer"`

	// TokenTTL is the token and cookie lifetime in minutes.
	TokenTTL int `yaml:"token_ttl"`
}

// EventsConfig contains settings for the optional MQTT event publisher.
// When disabled, notification fan-out happens over WebSocket only.
type EventsConfig struct {
	MQTT MQTTConfig `yaml:"mqtt"`
}

// MQTTConfig contains MQTT broker connection settings.
type MQTTConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TLS      bool   `yaml:"tls"`
	ClientID string `yaml:"client_id"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	QoS      int    `yaml:"qos"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: TASKFORGE_SECTION_KEY
// For example: TASKFORGE_DATABASE_PATH, TASKFORGE_SERVER_PORT
//
// Parameters:
//   - path: Path to the YAML configuration file
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: If file cannot be read, parsed, or validation fails
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// Default returns a Config with sensible defaults.
// Used directly when no config file is present.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
			Timeouts: ServerTimeoutConfig{
				Read:  30,
				Write: 30,
				Idle:  60,
			},
		},
		Database: DatabaseConfig{
			Path:        "./data/taskforge.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		Security: SecurityConfig{
			JWT: JWTConfig{
				Issuer:   "self",
				TokenTTL: 15,
			},
		},
		Events: EventsConfig{
			MQTT: MQTTConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "taskforge-core",
				QoS:      1,
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: TASKFORGE_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	// Server
	if v := os.Getenv("TASKFORGE_SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("TASKFORGE_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}

	// Database
	if v := os.Getenv("TASKFORGE_DATABASE_PATH"); v != "" {
		cfg.Database.Path = v
	}

	// Security
	if v := os.Getenv("TASKFORGE_JWT_TOKEN_TTL"); v != "" {
		if ttl, err := strconv.Atoi(v); err == nil {
			cfg.Security.JWT.TokenTTL = ttl
		}
	}

	// MQTT events
	if v := os.Getenv("TASKFORGE_MQTT_HOST"); v != "" {
		cfg.Events.MQTT.Host = v
	}
	if v := os.Getenv("TASKFORGE_MQTT_USERNAME"); v != "" {
		cfg.Events.MQTT.Username = v
	}
	if v := os.Getenv("TASKFORGE_MQTT_PASSWORD"); v != "" {
		cfg.Events.MQTT.Password = v
	}

	// Logging
	if v := os.Getenv("TASKFORGE_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}

// Validation bounds.
const (
	maxPort = 65535
	maxQoS  = 2
)

// Validate checks the configuration for invalid or inconsistent values.
//
// Returns:
//   - error: Describing the first validation failure, nil if valid
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > maxPort {
		return fmt.Errorf("server.port must be 1-%d, got %d", maxPort, c.Server.Port)
	}

	if c.Server.TLS.Enabled {
		if c.Server.TLS.CertFile == "" || c.Server.TLS.KeyFile == "" {
			return fmt.Errorf("server.tls requires cert_file and key_file when enabled")
		}
	}

	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}
	if c.Database.BusyTimeout < 0 {
		return fmt.Errorf("database.busy_timeout must not be negative, got %d", c.Database.BusyTimeout)
	}

	if c.Security.JWT.Issuer == "" {
		return fmt.Errorf("security.jwt.issuer is required")
	}
	if c.Security.JWT.TokenTTL <= 0 {
		return fmt.Errorf("security.jwt.token_ttl must be positive, got %d", c.Security.JWT.TokenTTL)
	}

	if c.Events.MQTT.Enabled {
		if c.Events.MQTT.Host == "" {
			return fmt.Errorf("events.mqtt.host is required when MQTT is enabled")
		}
		if c.Events.MQTT.Port < 1 || c.Events.MQTT.Port > maxPort {
			return fmt.Errorf("events.mqtt.port must be 1-%d, got %d", maxPort, c.Events.MQTT.Port)
		}
		if c.Events.MQTT.QoS < 0 || c.Events.MQTT.QoS > maxQoS {
			return fmt.Errorf("events.mqtt.qos must be 0-%d, got %d", maxQoS, c.Events.MQTT.QoS)
		}
	}

	return nil
}
