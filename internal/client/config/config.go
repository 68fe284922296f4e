// Package config holds the settings of the userdir CLI: defaults, an
// optional JSON file and command-line flags, applied in that order.
package config

import "time"

// Config holds runtime settings for the userdir CLI.
//
// Fields:
//   - ServerEndpointAddr: base URL of the REST API.
//   - OnlineCheckInterval: how often the client probes /healthz.
//   - RequestTimeout: upper bound for one API call.
type Config struct {
	ServerEndpointAddr  string
	OnlineCheckInterval time.Duration
	RequestTimeout      time.Duration
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerEndpointAddr = "http://127.0.0.1:8080"
	c.OnlineCheckInterval = 3 * time.Second
	c.RequestTimeout = 5 * time.Second
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present).
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
