package config

import "time"

// Config holds runtime settings for the marksync client.
//
// Durations: ProbeTimeout bounds one health probe, ProbeInterval is the idle
// re-probe period, SettleDelay is the pause after a connectivity transition
// before trusting it, SchoolsRefreshInterval gates the schools snapshot.
type Config struct {
	ServerBaseURL          string
	DatabasePath           string
	ProbeTimeout           time.Duration
	ProbeInterval          time.Duration
	SettleDelay            time.Duration
	SchoolsRefreshInterval time.Duration
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerBaseURL = "http://127.0.0.1:8080"
	c.DatabasePath = "marksync.db"
	c.ProbeTimeout = 3 * time.Second
	c.ProbeInterval = 30 * time.Second
	c.SettleDelay = 1500 * time.Millisecond
	c.SchoolsRefreshInterval = 24 * time.Hour
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present). Later sources take
// precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
