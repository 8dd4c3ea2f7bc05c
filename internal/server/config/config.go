// Package config handles configuration for the server component: defaults,
// an optional JSON file, environment variables and command-line flags, applied
// in that order.
package config

import "time"

// Config holds runtime settings for the string editor server.
//
// Fields:
//   - EndpointAddrHTTP: bind address of the JSON API.
//   - EndpointAddrGRPC: bind address of the gRPC health endpoint.
//   - DatabasePath: SQLite database file; its directory is created on start.
//   - PasswordMinLength: minimum length of new passwords.
//   - LogLevel: debug, info, warn or error.
//   - ShutdownTimeout: grace period for in-flight requests on stop.
type Config struct {
	EndpointAddrHTTP  string        `env:"STRING_EDITOR_HTTP_ADDR"`
	EndpointAddrGRPC  string        `env:"STRING_EDITOR_GRPC_ADDR"`
	DatabasePath      string        `env:"STRING_EDITOR_DB_PATH"`
	PasswordMinLength int           `env:"STRING_EDITOR_PASSWORD_MIN_LENGTH"`
	LogLevel          string        `env:"STRING_EDITOR_LOG_LEVEL"`
	ShutdownTimeout   time.Duration `env:"STRING_EDITOR_SHUTDOWN_TIMEOUT"`
}

// Defaults shared with the admin tool.
const (
	DefaultDatabasePath      = "data/string_editor.db"
	DefaultPasswordMinLength = 6
)

// LoadDefaults populates Config with development defaults.
func (c *Config) LoadDefaults() {
	c.EndpointAddrHTTP = ":8080"
	c.EndpointAddrGRPC = ":50051"
	c.DatabasePath = DefaultDatabasePath
	c.PasswordMinLength = DefaultPasswordMinLength
	c.LogLevel = "info"
	c.ShutdownTimeout = 5 * time.Second
}

// LoadConfig builds a Config by applying defaults, then overlaying values
// from an optional JSON file, the environment and finally command-line flags.
func LoadConfig() (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	if err := parseEnv(cfg); err != nil {
		return nil, err
	}
	parseFlags(cfg)
	return cfg, nil
}
