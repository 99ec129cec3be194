package config

import "time"

// Config is the root configuration for the industry mapper.
type Config struct {
	Store     StoreConfig `yaml:"store"`
	Frequency string      `yaml:"frequency"` // daily, weekly, or monthly
	NSE       NSEConfig   `yaml:"nse"`
	BSE       BSEConfig   `yaml:"bse"`
	HTTP      HTTPConfig  `yaml:"http"`
	Sync      SyncConfig  `yaml:"sync"`
}

// StoreConfig locates the durable classification store.
type StoreConfig struct {
	Path string `yaml:"path"`
}

// NSEConfig holds NSE endpoint settings.
type NSEConfig struct {
	BaseURL     string `yaml:"base_url"`
	ArchivesURL string `yaml:"archives_url"`
}

// BSEConfig holds BSE endpoint settings.
type BSEConfig struct {
	BaseURL string `yaml:"base_url"`
}

// HTTPConfig holds shared HTTP client settings.
type HTTPConfig struct {
	Timeout time.Duration `yaml:"timeout"`
}

// SyncConfig holds engine tuning.
type SyncConfig struct {
	CheckpointEvery int           `yaml:"checkpoint_every"`
	Pacing          time.Duration `yaml:"pacing"`
}
