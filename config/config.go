// Package config loads the dashboard configuration from defaults, an optional
// YAML file and environment variables.
package config

import (
	"errors"
	"os"
	"strings"
	"time"

	"github.com/healthviz/patientdash/consts"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	envPrefix  = "DASHBOARD_"
	envFileVar = "DASHBOARD_CONFIG"
)

type Config struct {
	// Port the server listens on.
	Port string `koanf:"port"`

	// DataFolder holds the patients database and the exported chart data.
	DataFolder string `koanf:"data_folder"`

	// UpstreamURL is the base URL of the patients API the dashboard reads from.
	UpstreamURL string `koanf:"upstream_url"`

	FetchTimeout time.Duration `koanf:"fetch_timeout"`

	// DefaultLimit is the number of diseases charted until the user picks another.
	DefaultLimit int `koanf:"default_limit"`

	// DefaultGender is the initial gender filter; "All" disables filtering.
	DefaultGender string `koanf:"default_gender"`

	// MapEnabled renders the patient map alongside the chart.
	MapEnabled bool `koanf:"map_enabled"`

	// APIKey protects /api/chart when set.
	APIKey string `koanf:"api_key"`
}

func Default() *Config {
	return &Config{
		Port:          consts.DefaultPort,
		DataFolder:    ".",
		UpstreamURL:   consts.DefaultUpstream,
		FetchTimeout:  consts.FetchTimeout,
		DefaultLimit:  consts.DefaultDiseaseLimit,
		DefaultGender: "All",
		MapEnabled:    true,
	}
}

// Load layers, from low to high precedence: defaults, the YAML file named by
// DASHBOARD_CONFIG, the legacy PORT and DATA_FOLDER variables, and DASHBOARD_* variables.
func Load() (*Config, error) {
	k := koanf.New(".")

	if path := os.Getenv(envFileVar); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, err
		}
	}

	// PORT and DATA_FOLDER predate the prefixed variables.
	legacy := env.Provider("", ".", func(s string) string {
		switch s {
		case "PORT", "DATA_FOLDER":
			return strings.ToLower(s)
		}
		return ""
	})
	if err := k.Load(legacy, nil); err != nil {
		return nil, err
	}

	// DASHBOARD_UPSTREAM_URL -> upstream_url
	prefixed := env.Provider(envPrefix, ".", func(s string) string {
		if s == envFileVar {
			return ""
		}
		return strings.ToLower(strings.TrimPrefix(s, envPrefix))
	})
	if err := k.Load(prefixed, nil); err != nil {
		return nil, err
	}

	cfg := *Default()
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.Port == "" {
		return errors.New("port must not be empty")
	}
	if c.UpstreamURL == "" {
		return errors.New("upstream_url must not be empty")
	}
	if c.DefaultLimit < 1 {
		return errors.New("default_limit must be at least 1")
	}
	if c.FetchTimeout <= 0 {
		return errors.New("fetch_timeout must be positive")
	}
	return nil
}
