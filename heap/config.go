package heap

import (
	"errors"
)

type Config struct {
	// Limit caps the bytes held by live objects. 0 means unlimited.
	Limit int64
}

func DefaultConfig() *Config {
	return &Config{}
}

func (this *Config) Validate() error {
	if this.Limit < 0 {
		return errors.New("heap Limit can not be negative")
	}

	return nil
}
