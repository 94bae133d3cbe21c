// Package collector is a stop-the-world mark/sweep collector for the
// string heap. The string table holds its entries weakly: an interned
// string survives only while a root, or a root's thin forwarding, still
// reaches it.
package collector

import (
	"time"

	"github.com/funkygao/strtab/heap"
	"github.com/funkygao/strtab/safepoint"
	"github.com/funkygao/strtab/stringtable"
	"github.com/rcrowley/go-metrics"
	log "github.com/sirupsen/logrus"
)

// Stats describes one collection.
type Stats struct {
	Epoch   uint64
	Marked  int
	Moved   int
	Cleared int
	Dropped int
	Freed   int
	Pause   time.Duration
}

type Collector struct {
	cfg   *Config
	heap  *heap.Heap
	table *stringtable.StringTable
	coord *safepoint.Coordinator
	roots *Roots

	metrics *gcMetrics
}

// New panics on an invalid config. A nil registry keeps the metrics private.
func New(cfg *Config, h *heap.Heap, table *stringtable.StringTable,
	coord *safepoint.Coordinator, roots *Roots, registry metrics.Registry) *Collector {
	if err := cfg.Validate(); err != nil {
		panic(err)
	}

	return &Collector{
		cfg:     cfg,
		heap:    h,
		table:   table,
		coord:   coord,
		roots:   roots,
		metrics: newGcMetrics(registry),
	}
}

// Collect stops the world and runs a full collection. It must not be
// called by a goroutine that is inside the coordinator's Enter/Leave.
func (c *Collector) Collect() (stats Stats) {
	c.coord.StopTheWorld(func(tok *safepoint.Token) {
		start := time.Now()
		stats.Epoch = tok.Epoch()

		stats.Marked = c.mark()
		if c.cfg.Compact {
			stats.Moved = c.compact(tok)
		}

		stats.Cleared = c.table.IterateElements(tok, stringtable.VisitorFunc(survivor))
		c.table.NotifyElementsRemoved(tok, stats.Cleared)
		stats.Dropped = c.table.DropOldData(tok)
		stats.Freed = c.heap.Sweep(tok)

		stats.Pause = time.Since(start)
		c.metrics.Pause.Update(stats.Pause)
	})

	c.metrics.Cycles.Inc(1)
	c.metrics.Cleared.Inc(int64(stats.Cleared))
	c.metrics.Moved.Inc(int64(stats.Moved))
	c.metrics.Freed.Inc(int64(stats.Freed))

	if c.cfg.SlowPause > 0 && stats.Pause > c.cfg.SlowPause {
		log.Warnf("gc#%d: slow pause %s", stats.Epoch, stats.Pause)
	}
	log.Debugf("gc#%d: marked %d moved %d cleared %d dropped %d freed %d in %s",
		stats.Epoch, stats.Marked, stats.Moved, stats.Cleared, stats.Dropped, stats.Freed, stats.Pause)

	return
}

func (c *Collector) mark() (marked int) {
	c.roots.each(func(h *Handle) {
		s := h.Get()
		if s.Mark() {
			marked++
		}
		if to := s.Thin(); to != nil && to.Mark() {
			marked++
		}
	})

	return
}

// compact moves every marked root and thin target, then points the roots
// and the thin forwardings of the copies at the new objects.
func (c *Collector) compact(tok *safepoint.Token) (moved int) {
	evacuate := func(s *heap.String) *heap.String {
		if to := s.Forwarded(); to != nil {
			return to
		}

		moved++
		return c.heap.Evacuate(tok, s)
	}

	c.roots.each(func(h *Handle) {
		s := evacuate(h.Get())
		if to := s.Thin(); to != nil {
			s.MakeThin(evacuate(to))
		}
		h.Set(s)
	})

	return
}

// survivor is the table visitor: dead entries are cleared, moved entries
// are replaced by their copy.
func survivor(s *heap.String) *heap.String {
	if !s.IsMarked() {
		return nil
	}

	if to := s.Forwarded(); to != nil {
		return to
	}

	return s
}
