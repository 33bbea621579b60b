// Package gwconfig loads the YAML configuration file shared by the
// scheduler and the mo-broker and holds the PID lockfile that keeps two
// instances of the same broker from running at once.
package gwconfig

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds every key spec.md §6 names for both brokers. Fields
// irrelevant to a given broker are simply left at their zero value.
type Config struct {
	ID      uint32 `yaml:"id"`
	Debug   bool   `yaml:"debug"`
	Listen  string `yaml:"listen"`
	Port    int    `yaml:"port"`
	Timeout int    `yaml:"timeout"`
	LogFile string `yaml:"log_file"`
	Ac      string `yaml:"ac"`

	// MetricsAddr, if set, exposes the internal Prometheus /metrics
	// endpoint (SPEC_FULL.md §4.10). Empty disables it.
	MetricsAddr string `yaml:"metrics_addr"`

	// mo-broker only.
	RedisHost     string `yaml:"redis_host"`
	RedisPort     int    `yaml:"redis_port"`
	RedisPassword string `yaml:"redis_password"`
	RedisDB       int    `yaml:"redis_db"`

	// scheduler only.
	DbHost     string `yaml:"db_host"`
	DbPort     int    `yaml:"db_port"`
	DbUser     string `yaml:"db_user"`
	DbPassword string `yaml:"db_password"`
	DbName     string `yaml:"db_name"`
}

// Load reads and parses filename, filling in defaults for anything left
// unset. A missing or unparseable file is a startup failure (spec.md
// §7); a missing individual key is not, and falls back to a sane
// default instead.
func Load(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("gwconfig: read config file: %w", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("gwconfig: parse config file: %w", err)
	}

	applyDefaults(cfg)
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Listen == "" {
		cfg.Listen = "0.0.0.0"
	}
	if cfg.Port == 0 {
		cfg.Port = 6000
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30
	}
	if cfg.RedisHost == "" {
		cfg.RedisHost = "localhost"
	}
	if cfg.RedisPort == 0 {
		cfg.RedisPort = 6379
	}
	if cfg.DbHost == "" {
		cfg.DbHost = "localhost"
	}
	if cfg.DbPort == 0 {
		cfg.DbPort = 5432
	}
}
