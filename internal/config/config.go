// # internal/config/config.go
package config

import (
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Paths         []string      `toml:"paths"`
	Exclude       Exclude       `toml:"exclude"`
	Wildcards     Wildcards     `toml:"wildcards"`
	Cache         Cache         `toml:"cache"`
	Watch         Watch         `toml:"watch"`
	Observability Observability `toml:"observability"`
}

type Exclude struct {
	Dirs  []string `toml:"dirs"`
	Files []string `toml:"files"`
}

type Wildcards struct {
	// Force keeps unexpandable wildcard imports in place instead of
	// deferring the source until its module has been indexed.
	Force bool `toml:"force"`
}

type Cache struct {
	Path string `toml:"path"` // empty disables the on-disk error cache
}

type Watch struct {
	Debounce time.Duration `toml:"debounce"`
	Rate     float64       `toml:"rate"` // re-analysis runs per second
	Burst    int           `toml:"burst"`
}

type Observability struct {
	Listen       string `toml:"listen"` // empty disables the metrics server
	OTLPEndpoint string `toml:"otlp_endpoint"`
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if _, err := toml.Decode(string(data), &cfg); err != nil {
		return nil, err
	}
	applyDefaults(&cfg)
	return &cfg, nil
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

func applyDefaults(cfg *Config) {
	if len(cfg.Paths) == 0 {
		cfg.Paths = []string{"."}
	}
	if cfg.Watch.Debounce == 0 {
		cfg.Watch.Debounce = 500 * time.Millisecond
	}
	if cfg.Watch.Rate == 0 {
		cfg.Watch.Rate = 2.0
	}
	if cfg.Watch.Burst == 0 {
		cfg.Watch.Burst = 1
	}
}
