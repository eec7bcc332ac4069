// # internal/config/config.go
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

type Config struct {
	CratePath string    `toml:"crate_path"`
	Exclude   Exclude   `toml:"exclude"`
	Extract   Extract   `toml:"extract"`
	Watch     Watch     `toml:"watch"`
	Output    Output    `toml:"output"`
	Telemetry Telemetry `toml:"telemetry"`
}

type Exclude struct {
	Dirs  []string `toml:"dirs"`
	Files []string `toml:"files"`
}

type Extract struct {
	// Workers is the number of entry points processed concurrently.
	// Zero means one worker per CPU.
	Workers int `toml:"workers"`
}

type Watch struct {
	Enabled  bool          `toml:"enabled"`
	Debounce time.Duration `toml:"debounce"`
	// RescansPerMinute caps how often file events trigger a full re-run.
	RescansPerMinute int `toml:"rescans_per_minute"`
}

type Output struct {
	Dir        string `toml:"dir"`
	Dump       bool   `toml:"dump"`
	DOT        bool   `toml:"dot"`
	Report     string `toml:"report"`
	SnapshotDB string `toml:"snapshot_db"`
}

type Telemetry struct {
	OTLPEndpoint string `toml:"otlp_endpoint"`
	MetricsAddr  string `toml:"metrics_addr"`
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

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the configuration used when no config file is given.
func Default(cratePath string) *Config {
	cfg := &Config{CratePath: cratePath}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.CratePath == "" {
		c.CratePath = "."
	}
	if c.Output.Dir == "" {
		c.Output.Dir = "focal-out"
	}
	if c.Watch.Debounce == 0 {
		c.Watch.Debounce = 500 * time.Millisecond
	}
	if c.Watch.RescansPerMinute == 0 {
		c.Watch.RescansPerMinute = 12
	}
	if len(c.Exclude.Dirs) == 0 {
		c.Exclude.Dirs = []string{".git", "target"}
	}
}

func (c *Config) Validate() error {
	if c.Extract.Workers < 0 {
		return fmt.Errorf("extract.workers must not be negative, got %d", c.Extract.Workers)
	}
	if c.Watch.Debounce < 0 {
		return fmt.Errorf("watch.debounce must not be negative, got %v", c.Watch.Debounce)
	}
	if c.Watch.RescansPerMinute < 0 {
		return fmt.Errorf("watch.rescans_per_minute must not be negative, got %d", c.Watch.RescansPerMinute)
	}
	return nil
}
