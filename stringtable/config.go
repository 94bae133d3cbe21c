package stringtable

import (
	"errors"

	"github.com/rcrowley/go-metrics"
)

type Config struct {
	// InitialCapacity is rounded up to a power of two.
	InitialCapacity int

	// MinCapacity is the floor for any rehash, growing or shrinking.
	MinCapacity int

	// MaxLoadFactor bounds (elements + tombstones) / capacity.
	MaxLoadFactor float64

	GrowthFactor int

	// Registry receives the table metrics. A private registry is used if nil.
	Registry metrics.Registry
}

func DefaultConfig() *Config {
	return &Config{
		InitialCapacity: defaultInitialCapacity,
		MinCapacity:     defaultMinCapacity,
		MaxLoadFactor:   defaultMaxLoadFactor,
		GrowthFactor:    defaultGrowthFactor,
	}
}

func (this *Config) Validate() error {
	if this.InitialCapacity <= 0 || this.InitialCapacity > maxCapacity {
		return errors.New("stringtable InitialCapacity out of range")
	}

	if this.MinCapacity <= 0 || this.MinCapacity > maxCapacity {
		return errors.New("stringtable MinCapacity out of range")
	}

	if this.MaxLoadFactor <= 0 || this.MaxLoadFactor > maxLoadFactorLimit {
		return errors.New("stringtable MaxLoadFactor must be in (0, 0.75]")
	}

	if this.GrowthFactor < 2 {
		return errors.New("stringtable GrowthFactor must be at least 2")
	}

	// a rehashed table must have room for the element that triggered it
	if this.MaxLoadFactor*float64(this.GrowthFactor) < 1 {
		return errors.New("stringtable MaxLoadFactor * GrowthFactor must be at least 1")
	}

	return nil
}
