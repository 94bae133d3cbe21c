package stringtable

const (
	defaultInitialCapacity = 2048
	defaultMinCapacity     = 2048
	defaultMaxLoadFactor   = 2.0 / 3
	defaultGrowthFactor    = 2

	maxLoadFactorLimit = 0.75
	maxCapacity        = 1 << 30
)
