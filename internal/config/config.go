package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/2beens/fitstats/pkg/googlefit"
	"github.com/2beens/fitstats/pkg/googlefit/auth"

	"github.com/BurntSushi/toml"
)

type Config struct {
	// logging
	LogLevel      string `toml:"log_level"`
	LogsPath      string `toml:"logs_path"`
	LogToStdout   bool   `toml:"log_to_stdout"`
	LogFormatJSON bool   `toml:"log_format_json"`
	// google fit
	CredentialsFile string   `toml:"credentials_file"`
	AuthScopes      []string `toml:"auth_scopes"`
	CallbackAddr    string   `toml:"callback_addr"`
	RollingDays     int      `toml:"rolling_days"`
	// in bytes, 0 disables the response cache
	ResponseCacheSize int `toml:"response_cache_size"`
	// telemetry
	MetricsNamespace string `toml:"metrics_namespace"`
	// empty disables writing metrics on exit
	MetricsTextfile  string `toml:"metrics_textfile"`
	HoneycombEnabled bool   `toml:"honeycomb_enabled"`
	// DSN comes from SENTRY_DSN
	SentryEnabled bool `toml:"sentry_enabled"`
}

type Toml struct {
	Development *Config `toml:"development"`
	Production  *Config `toml:"production"`
}

func (t *Toml) Get(env string) (*Config, error) {
	var cfg *Config
	switch strings.ToLower(env) {
	case "dev", "development":
		cfg = t.Development
	case "prod", "production":
		cfg = t.Production
	default:
		return nil, fmt.Errorf("unknown env: %s", env)
	}
	if cfg == nil {
		return nil, fmt.Errorf("no config section for env: %s", env)
	}
	return cfg, nil
}

// Load reads the TOML file at path and returns the section for env, with defaults applied.
func Load(env, path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path not set")
	}

	var t Toml
	if _, err := toml.DecodeFile(path, &t); err != nil {
		return nil, fmt.Errorf("decode config file %s: %w", path, err)
	}

	cfg, err := t.Get(env)
	if err != nil {
		return nil, err
	}

	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.CredentialsFile == "" {
		c.CredentialsFile = googlefit.DefaultCredentialsFile
	}
	if len(c.AuthScopes) == 0 {
		c.AuthScopes = googlefit.DefaultScopes()
	}
	if c.CallbackAddr == "" {
		c.CallbackAddr = auth.DefaultCallbackAddr
	}
	if c.RollingDays <= 0 {
		c.RollingDays = googlefit.DefaultRollingDays
	}
	if c.MetricsNamespace == "" {
		c.MetricsNamespace = "fitstats"
	}
}
