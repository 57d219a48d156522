package watch

import (
	"github.com/buttonwatch/buttonwatch/watch/internal/config"
)

// RunConfig is the YAML configuration for scripted and daemon runs.
type RunConfig = config.Config

// BrowserRunConfig selects and tunes the page driver for a run.
type BrowserRunConfig = config.BrowserConfig

// SinkRunConfig defines one notification backend of a run.
type SinkRunConfig = config.SinkConfig

// LoadRunConfig reads, defaults, and validates a YAML run configuration.
func LoadRunConfig(path string) (*RunConfig, error) {
	return config.LoadFile(path)
}
