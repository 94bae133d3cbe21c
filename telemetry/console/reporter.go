// Package console is a telemetry reporter that logs every metric.
package console

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/funkygao/strtab/telemetry"
	"github.com/rcrowley/go-metrics"
	log "github.com/sirupsen/logrus"
)

var _ telemetry.Reporter = &reporter{}

type reporter struct {
	r        metrics.Registry
	interval time.Duration

	quit chan struct{}
	wg   sync.WaitGroup

	// logf is where lines go, log.Info by default
	logf func(format string, args ...interface{})
}

func New(r metrics.Registry, interval time.Duration) *reporter {
	return &reporter{
		r:        r,
		interval: interval,
		quit:     make(chan struct{}),
		logf:     log.Infof,
	}
}

func (this *reporter) Name() string {
	return "console"
}

func (this *reporter) Start() error {
	if this.interval <= 0 {
		return fmt.Errorf("console: invalid interval %s", this.interval)
	}

	this.wg.Add(1)
	go this.run()
	return nil
}

// Stop emits a final report and waits for the reporter goroutine.
func (this *reporter) Stop() {
	close(this.quit)
	this.wg.Wait()
}

func (this *reporter) run() {
	defer this.wg.Done()

	ticker := time.NewTicker(this.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			this.Flush()

		case <-this.quit:
			this.Flush()
			return
		}
	}
}

// Flush logs every metric once, sorted by name.
func (this *reporter) Flush() {
	sortedNames := make([]string, 0, 64)
	metricsMap := make(map[string]interface{}, 64)
	this.r.Each(func(name string, i interface{}) {
		metricsMap[name] = i
		sortedNames = append(sortedNames, name)
	})

	sort.Strings(sortedNames)
	for _, name := range sortedNames {
		switch metric := metricsMap[name].(type) {
		case metrics.Counter:
			this.logf("cnter %s: count: %d", name, metric.Count())

		case metrics.Gauge:
			this.logf("gauge %s: value: %d", name, metric.Value())

		case metrics.GaugeFloat64:
			this.logf("gauge %s: value: %f", name, metric.Value())

		case metrics.Histogram:
			h := metric.Snapshot()
			ps := h.Percentiles([]float64{0.5, 0.95, 0.99})
			this.logf("histg %s: count: %d min: %d max: %d mean: %.2f median: %.2f 95%%: %.2f 99%%: %.2f",
				name, h.Count(), h.Min(), h.Max(), h.Mean(), ps[0], ps[1], ps[2])

		case metrics.Meter:
			m := metric.Snapshot()
			this.logf("meter %s: count: %d 1-min: %.2f mean: %.2f",
				name, m.Count(), m.Rate1(), m.RateMean())

		case metrics.Timer:
			t := metric.Snapshot()
			ps := t.Percentiles([]float64{0.5, 0.95, 0.99})
			this.logf("timer %s: count: %d min: %s max: %s mean: %s median: %s 95%%: %s 99%%: %s",
				name, t.Count(),
				time.Duration(t.Min()), time.Duration(t.Max()), time.Duration(t.Mean()),
				time.Duration(ps[0]), time.Duration(ps[1]), time.Duration(ps[2]))
		}
	}
}
