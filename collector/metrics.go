package collector

import (
	"github.com/rcrowley/go-metrics"
)

type gcMetrics struct {
	Cycles  metrics.Counter
	Cleared metrics.Counter
	Moved   metrics.Counter
	Freed   metrics.Counter
	Pause   metrics.Timer
}

func newGcMetrics(r metrics.Registry) *gcMetrics {
	if r == nil {
		r = metrics.NewRegistry()
	}

	return &gcMetrics{
		Cycles:  metrics.GetOrRegisterCounter("gc.cycles", r),
		Cleared: metrics.GetOrRegisterCounter("gc.cleared", r), // table entries
		Moved:   metrics.GetOrRegisterCounter("gc.moved", r),
		Freed:   metrics.GetOrRegisterCounter("gc.freed", r), // heap objects
		Pause:   metrics.GetOrRegisterTimer("gc.pause", r),
	}
}
