// Package config handles the YAML run-configuration used for scripted and
// daemon runs, where the interactive menu and the settings document are
// bypassed.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level run configuration.
type Config struct {
	URL             string        `yaml:"url"`
	RefreshInterval time.Duration `yaml:"refresh_interval"`
	Buttons         []int         `yaml:"buttons"`
	Browser         BrowserConfig `yaml:"browser"`
	Sinks           []SinkConfig  `yaml:"sinks"`
	Listen          string        `yaml:"listen"`
	HistoryPath     string        `yaml:"history_path"`
}

// BrowserConfig controls the Chrome driver; Static switches the run to the
// HTTP-only driver instead.
type BrowserConfig struct {
	Remote           string   `yaml:"remote"`
	Headless         bool     `yaml:"headless"`
	Static           bool     `yaml:"static"`
	ResourceBlocking []string `yaml:"resource_blocking"`
}

// SinkConfig defines a notification backend.
type SinkConfig struct {
	Type     string `yaml:"type"` // console | telegram | webhook
	URL      string `yaml:"url"`  // for webhook
	BotToken string `yaml:"bot_token"`
	ChatID   string `yaml:"chat_id"`
}

// LoadFile reads a YAML run-configuration file.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ApplyDefaults fills unset fields.
func (c *Config) ApplyDefaults() {
	if c.RefreshInterval <= 0 {
		c.RefreshInterval = 5 * time.Second
	}
	if len(c.Sinks) == 0 {
		c.Sinks = []SinkConfig{{Type: "console"}}
	}
	if !c.Browser.Static && c.Browser.Remote == "" {
		// Daemon runs have nobody watching a window.
		c.Browser.Headless = true
	}
}

// Validate rejects configurations that cannot start a run.
func (c *Config) Validate() error {
	if c.URL == "" {
		return fmt.Errorf("config: url is required")
	}
	if len(c.Buttons) == 0 {
		return fmt.Errorf("config: at least one button index is required")
	}
	seen := make(map[int]bool, len(c.Buttons))
	for _, b := range c.Buttons {
		if b < 0 {
			return fmt.Errorf("config: button index %d is negative", b)
		}
		if seen[b] {
			return fmt.Errorf("config: button index %d listed twice", b)
		}
		seen[b] = true
	}
	return nil
}
