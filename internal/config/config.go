package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	API struct {
		BaseURL string `yaml:"base_url"`
		Timeout string `yaml:"timeout"`
	} `yaml:"api"`
	Store struct {
		Backend string `yaml:"backend"` // file (default), redis, sqlite
		Dir     string `yaml:"dir"`
		Sqlite  struct {
			Path string `yaml:"path"`
		} `yaml:"sqlite"`
		Redis struct {
			Addr     string `yaml:"addr"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
			TTL      string `yaml:"ttl"`
		} `yaml:"redis"`
	} `yaml:"store"`
	Attempt struct {
		Debounce string `yaml:"debounce"`
	} `yaml:"attempt"`
	Explain struct {
		Interval string `yaml:"interval"`
		MaxPolls int    `yaml:"max_polls"`
	} `yaml:"explain"`
	Quiz struct {
		TTL string `yaml:"ttl"`
	} `yaml:"quiz"`
}

// Load reads YAML config from path. A missing file yields a zero Config so the
// CLI can run on flags and defaults alone.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Duration parses a duration string or returns the fallback if empty or invalid.
func Duration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
