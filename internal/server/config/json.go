package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/deferscky/stringeditor/internal/flagx"
)

// Duration accepts both "1s"-style strings and integer nanoseconds in JSON.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	switch val := v.(type) {
	case float64:
		d.Duration = time.Duration(val)
		return nil
	case string:
		parsed, err := time.ParseDuration(val)
		if err != nil {
			return err
		}
		d.Duration = parsed
		return nil
	}
	return fmt.Errorf("invalid duration %s", string(b))
}

// JsonConfig mirrors Config for decoding. Pointer fields tell "absent" apart
// from zero, so a partial file only overrides what it names.
type JsonConfig struct {
	EndpointAddrHTTP  *string   `json:"endpoint_addr_http"`
	EndpointAddrGRPC  *string   `json:"endpoint_addr_grpc"`
	DatabasePath      *string   `json:"database_path"`
	PasswordMinLength *int      `json:"password_min_length"`
	LogLevel          *string   `json:"log_level"`
	ShutdownTimeout   *Duration `json:"shutdown_timeout"`
}

// parseJson overlays values from the file named by -c / -config. Without the
// flag nothing is loaded. An unreadable file or invalid JSON panics.
func parseJson(config *Config) {
	jsonConfigFile := flagx.ConfigFile(os.Args[1:])

	// nothing to load
	if jsonConfigFile == "" {
		return
	}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	if c.EndpointAddrHTTP != nil {
		config.EndpointAddrHTTP = *c.EndpointAddrHTTP
	}
	if c.EndpointAddrGRPC != nil {
		config.EndpointAddrGRPC = *c.EndpointAddrGRPC
	}
	if c.DatabasePath != nil {
		config.DatabasePath = *c.DatabasePath
	}
	if c.PasswordMinLength != nil {
		config.PasswordMinLength = *c.PasswordMinLength
	}
	if c.LogLevel != nil {
		config.LogLevel = *c.LogLevel
	}
	if c.ShutdownTimeout != nil {
		config.ShutdownTimeout = c.ShutdownTimeout.Duration
	}
}
