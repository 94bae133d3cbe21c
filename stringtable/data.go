package stringtable

import (
	"math/bits"
	"sync/atomic"
	"unsafe"

	"github.com/funkygao/strtab/arrayindex"
	"github.com/funkygao/strtab/heap"
)

// deletedElement marks a tombstone slot. A nil slot is empty.
var deletedElement = new(heap.String)

// data is one generation of the table storage: an open-addressed slot
// array probed with triangular steps.
//
// Slots are written with atomic stores so that lock-free readers see
// either the old or the new entry. The counters are only touched with the
// writer lock held.
type data struct {
	capacity  int
	threshold int

	numberOfElements int
	numberOfDeleted  int

	slots []atomic.Pointer[heap.String]
}

func newData(capacity int, maxLoadFactor float64) *data {
	if capacity&(capacity-1) != 0 {
		panic("stringtable: capacity must be a power of two")
	}

	return &data{
		capacity:  capacity,
		threshold: int(float64(capacity) * maxLoadFactor),
		slots:     make([]atomic.Pointer[heap.String], capacity),
	}
}

func nextPowerOfTwo(n int) int {
	if n <= 1 {
		return 1
	}

	return 1 << bits.Len(uint(n-1))
}

func computeCapacity(atLeast int, cfg *Config) int {
	need := atLeast * cfg.GrowthFactor
	if need < cfg.MinCapacity {
		need = cfg.MinCapacity
	}

	capacity := nextPowerOfTwo(need)
	if capacity > maxCapacity {
		panic("stringtable: capacity overflow")
	}

	return capacity
}

func firstProbe(hashField uint32, mask int) int {
	return int(hashField>>arrayindex.HashShift) & mask
}

func nextProbe(last, n, mask int) int {
	return (last + n) & mask
}

func matches(e *heap.String, key Key, hashField uint32) bool {
	return e.HashField() == hashField && e.Len() == key.Length() && key.IsMatch(e)
}

func (d *data) hasSufficientCapacityToAdd(additional int) bool {
	return d.numberOfElements+d.numberOfDeleted+additional <= d.threshold
}

// findEntry returns the canonical string matching key, or nil. It is safe
// to call without the writer lock.
func (d *data) findEntry(key Key, hashField uint32) *heap.String {
	mask := d.capacity - 1
	entry := firstProbe(hashField, mask)
	for n := 1; n <= d.capacity; n++ {
		e := d.slots[entry].Load()
		if e == nil {
			return nil
		}

		if e != deletedElement && matches(e, key, hashField) {
			return e
		}

		entry = nextProbe(entry, n, mask)
	}

	return nil
}

// findInsertionEntry returns either the slot holding a match, or the slot
// a new entry should take: the first tombstone on the probe sequence if
// there was one, otherwise the terminating empty slot.
func (d *data) findInsertionEntry(key Key, hashField uint32) (entry int, existing *heap.String) {
	mask := d.capacity - 1
	insertion := -1
	entry = firstProbe(hashField, mask)
	for n := 1; n <= d.capacity; n++ {
		e := d.slots[entry].Load()
		switch {
		case e == nil:
			if insertion < 0 {
				insertion = entry
			}
			return insertion, nil

		case e == deletedElement:
			if insertion < 0 {
				insertion = entry
			}

		case matches(e, key, hashField):
			return entry, e
		}

		entry = nextProbe(entry, n, mask)
	}

	if insertion < 0 {
		panic(ErrTableFull)
	}

	return insertion, nil
}

func (d *data) add(entry int, s *heap.String) {
	switch d.slots[entry].Load() {
	case nil:
	case deletedElement:
		d.numberOfDeleted--
	default:
		panic("stringtable: overwriting a live entry")
	}

	d.slots[entry].Store(s)
	d.numberOfElements++
}

// rehashInto copies every live entry into dst, which nobody reads yet.
func (d *data) rehashInto(dst *data) {
	mask := dst.capacity - 1
	for i := range d.slots {
		e := d.slots[i].Load()
		if e == nil || e == deletedElement {
			continue
		}

		entry := firstProbe(e.HashField(), mask)
		for n := 1; dst.slots[entry].Load() != nil; n++ {
			entry = nextProbe(entry, n, mask)
		}

		dst.slots[entry].Store(e)
		dst.numberOfElements++
	}
}

// iterate hands every live entry to v and applies its verdict. It returns
// the number of entries turned into tombstones; the counters are left for
// NotifyElementsRemoved.
func (d *data) iterate(v Visitor) (cleared int) {
	for i := range d.slots {
		e := d.slots[i].Load()
		if e == nil || e == deletedElement {
			continue
		}

		switch keep := v.VisitString(e); {
		case keep == nil:
			d.slots[i].Store(deletedElement)
			cleared++

		case keep != e:
			if keep.HashField() != e.HashField() {
				panic(ErrHashMismatch)
			}
			d.slots[i].Store(keep)
		}
	}

	return
}

func (d *data) memoryUsage() int {
	return int(unsafe.Sizeof(*d)) + d.capacity*int(unsafe.Sizeof(atomic.Pointer[heap.String]{}))
}
