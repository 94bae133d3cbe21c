// Package influxdb is a telemetry reporter that writes a metrics registry
// to InfluxDB 1.x.
package influxdb

import (
	"sync"
	"time"

	"github.com/eapache/go-resiliency/breaker"
	"github.com/funkygao/strtab/telemetry"
	client "github.com/influxdata/influxdb1-client/v2"
	"github.com/pkg/errors"
	"github.com/rcrowley/go-metrics"
	log "github.com/sirupsen/logrus"
)

var _ telemetry.Reporter = &reporter{}

type reporter struct {
	cf     *Config
	reg    metrics.Registry
	client client.Client

	// 3 failed flushes open it, 1 success closes it again
	breaker *breaker.Breaker

	quit chan struct{}
	wg   sync.WaitGroup
}

func New(r metrics.Registry, cf *Config) *reporter {
	return &reporter{
		reg:     r,
		cf:      cf,
		breaker: breaker.New(3, 1, 10*cf.Interval),
		quit:    make(chan struct{}),
	}
}

func (*reporter) Name() string {
	return "influxdb"
}

func (this *reporter) makeClient() (err error) {
	this.client, err = client.NewHTTPClient(client.HTTPConfig{
		Addr:     this.cf.Addr,
		Username: this.cf.Username,
		Password: this.cf.Password,
		Timeout:  5 * time.Second,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	if _, _, err = this.client.Ping(0); err != nil {
		this.client.Close()
		this.client = nil // to trigger retry
		return errors.Wrap(err, "influxdb ping")
	}

	return nil
}

// Start connects and then writes the registry every interval in the
// background. It fails if InfluxDB is not reachable at start.
func (this *reporter) Start() error {
	if err := this.cf.Validate(); err != nil {
		return err
	}

	if err := this.makeClient(); err != nil {
		return err
	}

	this.wg.Add(1)
	go this.run()
	return nil
}

// Stop writes the registry one last time.
func (this *reporter) Stop() {
	close(this.quit)
	this.wg.Wait()

	if this.client != nil {
		this.client.Close()
	}
}

func (this *reporter) run() {
	defer this.wg.Done()

	ticker := time.NewTicker(this.cf.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-this.quit:
			this.Flush()
			return

		case <-ticker.C:
			this.Flush()
		}
	}
}

// Flush writes the current registry, reconnecting first if the previous
// write failed. While InfluxDB keeps failing, flushes are skipped.
func (this *reporter) Flush() {
	err := this.breaker.Run(this.flush)
	switch err {
	case nil:

	case breaker.ErrBreakerOpen:
		log.Debug("influxdb circuit open, flush skipped")

	default:
		log.Errorf("influxdb: %v", err)
	}
}

func (this *reporter) flush() error {
	if this.client == nil {
		log.Warn("influxdb write while connection lost, retry...")

		if err := this.makeClient(); err != nil {
			return errors.Wrap(err, "connect retry")
		}
		log.Info("influxdb connect retry ok")
	}

	pts, err := this.export(time.Now())
	if err != nil {
		return errors.Wrap(err, "export")
	}

	bp, _ := client.NewBatchPoints(client.BatchPointsConfig{
		Database:  this.cf.Database,
		Precision: "s",
	})
	bp.AddPoints(pts)
	if err := this.client.Write(bp); err != nil {
		// reconnect in next round
		this.client.Close()
		this.client = nil
		return errors.Wrap(err, "write")
	}

	return nil
}

func (this *reporter) export(now time.Time) (pts []*client.Point, err error) {
	tags := map[string]string{
		"host": this.cf.Hostname,
	}

	add := func(measurement string, fields map[string]interface{}) {
		if err != nil {
			return
		}

		var pt *client.Point
		if pt, err = client.NewPoint(measurement, tags, fields, now); err == nil {
			pts = append(pts, pt)
		}
	}

	this.reg.Each(func(name string, i interface{}) {
		switch m := i.(type) {
		case metrics.Counter:
			add(name+".count", map[string]interface{}{
				"value": m.Count(),
			})

		case metrics.Gauge:
			add(name+".gauge", map[string]interface{}{
				"value": m.Value(),
			})

		case metrics.GaugeFloat64:
			add(name+".gauge", map[string]interface{}{
				"value": m.Value(),
			})

		case metrics.Histogram:
			h := m.Snapshot()
			ps := h.Percentiles([]float64{0.5, 0.95, 0.99})
			add(name+".histogram", map[string]interface{}{
				"count": h.Count(),
				"max":   h.Max(),
				"mean":  h.Mean(),
				"min":   h.Min(),
				"p50":   ps[0],
				"p95":   ps[1],
				"p99":   ps[2],
			})

		case metrics.Timer:
			t := m.Snapshot()
			ps := t.Percentiles([]float64{0.5, 0.95, 0.99})
			add(name+".timer", map[string]interface{}{
				"count":    t.Count(),
				"max":      t.Max(),
				"mean":     t.Mean(),
				"min":      t.Min(),
				"p50":      ps[0],
				"p95":      ps[1],
				"p99":      ps[2],
				"m1":       t.Rate1(),
				"meanrate": t.RateMean(),
			})

		case metrics.Meter:
			s := m.Snapshot()
			add(name+".meter", map[string]interface{}{
				"count": s.Count(),
				"m1":    s.Rate1(),
				"mean":  s.RateMean(),
			})
		}
	})

	return
}
