package collector

import (
	"fmt"
	"io/ioutil"
	"sync"
	"testing"

	"github.com/bmizerany/assert"
	"github.com/funkygao/strtab/heap"
	"github.com/funkygao/strtab/safepoint"
	"github.com/funkygao/strtab/stringtable"
	"github.com/rcrowley/go-metrics"
	log "github.com/sirupsen/logrus"
)

func init() {
	log.SetOutput(ioutil.Discard)
}

type world struct {
	heap  *heap.Heap
	table *stringtable.StringTable
	coord *safepoint.Coordinator
	roots *Roots
	gc    *Collector
}

func newWorld(compact bool) *world {
	w := &world{
		heap:  heap.New(heap.DefaultConfig()),
		table: stringtable.New(&stringtable.Config{InitialCapacity: 8, MinCapacity: 8, MaxLoadFactor: 0.5, GrowthFactor: 2}),
		coord: safepoint.New(),
		roots: NewRoots(),
	}

	cfg := DefaultConfig()
	cfg.Compact = compact
	w.gc = New(cfg, w.heap, w.table, w.coord, w.roots, nil)
	return w
}

func (w *world) intern(t *testing.T, content string) *heap.String {
	s, err := w.table.LookupKey(stringtable.NewBytesKey(w.heap, []byte(content)))
	assert.Equal(t, nil, err)
	return s
}

func (w *world) existing(content string) (*heap.String, bool) {
	return w.table.LookupExisting(stringtable.NewBytesKey(w.heap, []byte(content)))
}

func TestConfigValidate(t *testing.T) {
	assert.Equal(t, nil, DefaultConfig().Validate())
	cfg := DefaultConfig()
	cfg.SlowPause = -1
	assert.NotEqual(t, nil, cfg.Validate())
}

func TestUnreachableEntriesAreCleared(t *testing.T) {
	w := newWorld(false)

	kept := w.intern(t, "kept")
	w.roots.Add(kept)
	w.intern(t, "garbage1")
	w.intern(t, "garbage2")
	assert.Equal(t, 3, w.table.NumberOfElements())

	stats := w.gc.Collect()
	assert.Equal(t, 2, stats.Cleared)
	assert.Equal(t, 2, stats.Freed)
	assert.Equal(t, 0, stats.Moved)
	assert.Equal(t, uint64(1), stats.Epoch)

	assert.Equal(t, 1, w.table.NumberOfElements())
	assert.Equal(t, 2, w.table.NumberOfDeleted())
	assert.Equal(t, 1, w.heap.Objects())

	s, ok := w.existing("kept")
	assert.Equal(t, true, ok)
	assert.T(t, s == kept)
	assert.Equal(t, false, s.IsMarked())

	_, ok = w.existing("garbage1")
	assert.Equal(t, false, ok)

	// interning dead content again creates a fresh canonical string
	again := w.intern(t, "garbage1")
	assert.Equal(t, "garbage1", again.String())
	assert.Equal(t, 2, w.table.NumberOfElements())
}

func TestRemovedRootDies(t *testing.T) {
	w := newWorld(false)
	h := w.roots.Add(w.intern(t, "temp"))
	w.gc.Collect()
	_, ok := w.existing("temp")
	assert.Equal(t, true, ok)

	w.roots.Remove(h)
	assert.Equal(t, 0, w.roots.Len())
	stats := w.gc.Collect()
	assert.Equal(t, 1, stats.Cleared)
	_, ok = w.existing("temp")
	assert.Equal(t, false, ok)
}

func TestThinTargetStaysAlive(t *testing.T) {
	w := newWorld(false)

	canonical := w.intern(t, "shared")
	dup, _ := w.heap.AllocateString("shared")
	c, err := w.table.LookupString(dup)
	assert.Equal(t, nil, err)
	assert.T(t, c == canonical)

	// only the thin string is rooted
	w.roots.Add(dup)
	stats := w.gc.Collect()
	assert.Equal(t, 0, stats.Cleared)
	assert.Equal(t, 2, stats.Marked)

	s, ok := w.existing("shared")
	assert.Equal(t, true, ok)
	assert.T(t, s == canonical)
}

func TestCompactionRewritesTableAndRoots(t *testing.T) {
	w := newWorld(true)

	old := w.intern(t, "moving")
	h := w.roots.Add(old)
	dup, _ := w.heap.AllocateString("moving")
	w.table.LookupString(dup)
	th := w.roots.Add(dup)

	stats := w.gc.Collect()
	assert.Equal(t, 2, stats.Moved)
	assert.Equal(t, 0, stats.Cleared)
	assert.Equal(t, 2, stats.Freed)

	moved := h.Get()
	assert.T(t, moved != old)
	assert.Equal(t, "moving", moved.String())
	assert.Equal(t, true, moved.IsInternalized())
	assert.Equal(t, old.HashField(), moved.HashField())

	// the table hands out the copy from now on
	assert.T(t, w.intern(t, "moving") == moved)

	// the thin copy forwards to the moved canonical string
	assert.T(t, th.Get() != dup)
	assert.T(t, th.Get().Thin() == moved)
	c, _ := w.table.LookupString(th.Get())
	assert.T(t, c == moved)

	assert.Equal(t, 2, w.heap.Objects())
}

func TestCollectDropsRetiredStorages(t *testing.T) {
	w := newWorld(false)
	for i := 0; i < 50; i++ {
		w.roots.Add(w.intern(t, fmt.Sprintf("r%d", i)))
	}

	stats := w.gc.Collect()
	assert.T(t, stats.Dropped >= 2)
	assert.Equal(t, 0, w.gc.Collect().Dropped)
}

func TestMetrics(t *testing.T) {
	w := newWorld(false)
	r := metrics.NewRegistry()
	w.gc = New(DefaultConfig(), w.heap, w.table, w.coord, w.roots, r)

	w.intern(t, "a")
	w.intern(t, "b")
	w.gc.Collect()
	w.gc.Collect()

	assert.Equal(t, int64(2), r.Get("gc.cycles").(metrics.Counter).Count())
	assert.Equal(t, int64(2), r.Get("gc.cleared").(metrics.Counter).Count())
	assert.Equal(t, int64(2), r.Get("gc.pause").(metrics.Timer).Count())
}

func TestMutatorsAndCollections(t *testing.T) {
	w := newWorld(true)

	const (
		mutators = 4
		rounds   = 300
		keys     = 64
	)

	var wg sync.WaitGroup
	handles := make([][]*Handle, mutators)
	for m := 0; m < mutators; m++ {
		wg.Add(1)
		go func(m int) {
			defer wg.Done()

			w.coord.Enter()
			defer w.coord.Leave()

			for i := 0; i < rounds; i++ {
				content := fmt.Sprintf("k%d", (i*(m+1))%keys)
				s, err := w.table.LookupKey(stringtable.NewBytesKey(w.heap, []byte(content)))
				if err != nil {
					panic(err)
				}
				if i%10 == 0 {
					handles[m] = append(handles[m], w.roots.Add(s))
				}
				w.coord.Safepoint()
			}
		}(m)
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	collections := 0
loop:
	for {
		select {
		case <-done:
			break loop
		default:
			w.gc.Collect()
			collections++
		}
	}
	w.gc.Collect()

	assert.T(t, collections > 0)

	// every rooted string is still the canonical one for its content
	for _, hs := range handles {
		for _, h := range hs {
			s, ok := w.existing(h.Get().String())
			assert.Equal(t, true, ok)
			assert.T(t, s == h.Get(), s.String())
		}
	}
}
