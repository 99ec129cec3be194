package config

import (
	"time"

	"industrymap/internal/bse"
	"industrymap/internal/nse"
)

// Default values for optional configuration fields.
const (
	DefaultStorePath       = "out/industry_data.json"
	DefaultFrequency       = "weekly"
	DefaultHTTPTimeout     = 30 * time.Second
	DefaultCheckpointEvery = 50
	DefaultPacing          = 100 * time.Millisecond
)

func (c *Config) applyDefaults() {
	if c.Store.Path == "" {
		c.Store.Path = DefaultStorePath
	}
	if c.Frequency == "" {
		c.Frequency = DefaultFrequency
	}

	// Endpoint defaults
	if c.NSE.BaseURL == "" {
		c.NSE.BaseURL = nse.DefaultBaseURL
	}
	if c.NSE.ArchivesURL == "" {
		c.NSE.ArchivesURL = nse.DefaultArchivesURL
	}
	if c.BSE.BaseURL == "" {
		c.BSE.BaseURL = bse.DefaultBaseURL
	}

	if c.HTTP.Timeout == 0 {
		c.HTTP.Timeout = DefaultHTTPTimeout
	}

	// Engine defaults
	if c.Sync.CheckpointEvery == 0 {
		c.Sync.CheckpointEvery = DefaultCheckpointEvery
	}
	if c.Sync.Pacing == 0 {
		c.Sync.Pacing = DefaultPacing
	}
}
