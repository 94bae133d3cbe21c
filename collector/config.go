package collector

import (
	"errors"
	"time"
)

type Config struct {
	// Compact moves every surviving string and rewrites the table slots
	// and roots to the new copies.
	Compact bool

	// SlowPause is the pause length above which a collection is logged as
	// a warning. 0 disables the warning.
	SlowPause time.Duration
}

func DefaultConfig() *Config {
	return &Config{
		Compact:   false,
		SlowPause: 50 * time.Millisecond,
	}
}

func (this *Config) Validate() error {
	if this.SlowPause < 0 {
		return errors.New("collector SlowPause must not be negative")
	}

	return nil
}
