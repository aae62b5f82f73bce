package config

import (
	"encoding/json"
	"os"

	"github.com/dkrivenko/marksync/internal/flagx"
	"github.com/dkrivenko/marksync/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. It relies on
// timex.Duration so JSON can specify intervals either as strings like "3s"
// or as integer nanoseconds.
type JsonConfig struct {
	ServerBaseURL          string          `json:"server_base_url"`
	DatabasePath           string          `json:"database_path"`
	ProbeTimeout           *timex.Duration `json:"probe_timeout"`
	ProbeInterval          *timex.Duration `json:"probe_interval"`
	SettleDelay            *timex.Duration `json:"settle_delay"`
	SchoolsRefreshInterval *timex.Duration `json:"schools_refresh_interval"`
}

// parseJson overlays Config with values loaded from the JSON file named by
// the -c/-config flag. Absent file means no overlay; absent fields keep
// their current values.
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	var jc JsonConfig

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	if jc.ServerBaseURL != "" {
		cfg.ServerBaseURL = jc.ServerBaseURL
	}
	if jc.DatabasePath != "" {
		cfg.DatabasePath = jc.DatabasePath
	}
	if jc.ProbeTimeout != nil {
		cfg.ProbeTimeout = jc.ProbeTimeout.Duration
	}
	if jc.ProbeInterval != nil {
		cfg.ProbeInterval = jc.ProbeInterval.Duration
	}
	if jc.SettleDelay != nil {
		cfg.SettleDelay = jc.SettleDelay.Duration
	}
	if jc.SchoolsRefreshInterval != nil {
		cfg.SchoolsRefreshInterval = jc.SchoolsRefreshInterval.Duration
	}
}
