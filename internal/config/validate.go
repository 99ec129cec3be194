package config

import "errors"

// Validate checks that all required fields are set and values are valid.
func (c *Config) Validate() error {
	if c.Store.Path == "" {
		return errors.New("store.path is required")
	}

	switch c.Frequency {
	case "daily", "weekly", "monthly":
	default:
		return errors.New("frequency must be one of daily, weekly, monthly")
	}

	if c.NSE.BaseURL == "" {
		return errors.New("nse.base_url is required")
	}
	if c.NSE.ArchivesURL == "" {
		return errors.New("nse.archives_url is required")
	}
	if c.BSE.BaseURL == "" {
		return errors.New("bse.base_url is required")
	}

	if c.HTTP.Timeout <= 0 {
		return errors.New("http.timeout must be positive")
	}

	if c.Sync.CheckpointEvery < 1 {
		return errors.New("sync.checkpoint_every must be >= 1")
	}
	if c.Sync.Pacing < 0 {
		return errors.New("sync.pacing must not be negative")
	}

	return nil
}
