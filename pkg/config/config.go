// Package config loads the depviz client configuration from a TOML file,
// with environment-variable overrides for the analysis server address.
package config

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/vinay-asish/Code-Dependency-Visualizer/pkg/errors"
)

// DefaultServer is the analysis server used when nothing is configured.
const DefaultServer = "http://127.0.0.1:8000"

// envServer overrides the configured server address when set.
const envServer = "DEPVIZ_SERVER"

// Config holds the depviz client configuration.
type Config struct {
	// Server is the base URL of the analysis service.
	Server string `toml:"server"`

	View  ViewConfig  `toml:"view"`
	Cache CacheConfig `toml:"cache"`
}

// ViewConfig holds the default filter toggles for the render panel.
type ViewConfig struct {
	ShowExternal bool `toml:"show_external"`
	ShowInits    bool `toml:"show_inits"`
}

// CacheConfig controls the analysis response cache.
type CacheConfig struct {
	Enabled  bool `toml:"enabled"`
	TTLHours int  `toml:"ttl_hours"`
}

// Default returns the default configuration: externals shown, init markers
// hidden, caching on with a 24h TTL.
func Default() *Config {
	return &Config{
		Server: DefaultServer,
		View:   ViewConfig{ShowExternal: true, ShowInits: false},
		Cache:  CacheConfig{Enabled: true, TTLHours: 24},
	}
}

// Path returns the config file location, honoring XDG_CONFIG_HOME.
func Path() (string, error) {
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, "depviz", "config.toml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "depviz", "config.toml"), nil
}

// Load reads the configuration file if it exists and applies environment
// overrides. A missing file yields the defaults, not an error.
func Load() (*Config, error) {
	path, err := Path()
	if err != nil {
		return applyEnv(Default()), nil
	}
	return LoadFile(path)
}

// LoadFile reads configuration from an explicit path, applying defaults for
// absent keys and environment overrides on top.
func LoadFile(path string) (*Config, error) {
	cfg := Default()
	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse %s", path)
		}
	}
	return applyEnv(cfg), nil
}

func applyEnv(cfg *Config) *Config {
	if server := os.Getenv(envServer); server != "" {
		cfg.Server = server
	}
	if cfg.Server == "" {
		cfg.Server = DefaultServer
	}
	return cfg
}
