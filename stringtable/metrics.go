package stringtable

import (
	"github.com/rcrowley/go-metrics"
)

type tableMetrics struct {
	Hit     metrics.Counter
	Miss    metrics.Counter
	Insert  metrics.Counter
	Grow    metrics.Counter
	Removed metrics.Counter
	Rehash  metrics.Timer
}

func newTableMetrics(r metrics.Registry, t *StringTable) *tableMetrics {
	if r == nil {
		r = metrics.NewRegistry()
	}

	this := &tableMetrics{
		Hit:     metrics.GetOrRegisterCounter("stringtable.lookup.hit", r),  // lock-free hits
		Miss:    metrics.GetOrRegisterCounter("stringtable.lookup.miss", r), // went to the writer lock
		Insert:  metrics.GetOrRegisterCounter("stringtable.insert", r),      // new canonical strings
		Grow:    metrics.GetOrRegisterCounter("stringtable.grow", r),        // rehashes
		Removed: metrics.GetOrRegisterCounter("stringtable.removed", r),     // cleared by the collector
		Rehash:  metrics.GetOrRegisterTimer("stringtable.rehash", r),        // in ns
	}

	r.GetOrRegister("stringtable.capacity", metrics.NewFunctionalGauge(func() int64 {
		return int64(t.Capacity())
	}))
	r.GetOrRegister("stringtable.elements", metrics.NewFunctionalGauge(func() int64 {
		return int64(t.NumberOfElements())
	}))

	return this
}
