package stringtable

import (
	"testing"

	"github.com/bmizerany/assert"
	"github.com/funkygao/strtab/arrayindex"
	"github.com/funkygao/strtab/heap"
)

// fakeKey has a hash field chosen by the test, to force collisions.
type fakeKey struct {
	keyBase
	alloc   Allocator
	content string
}

func newFakeKey(alloc Allocator, hash uint32, content string) *fakeKey {
	return &fakeKey{
		keyBase: keyBase{hashField: hash<<arrayindex.HashShift | arrayindex.NotIndexBit, length: len(content)},
		alloc:   alloc,
		content: content,
	}
}

func (k *fakeKey) IsMatch(s *heap.String) bool {
	return s.EqualsString(k.content)
}

func (k *fakeKey) Materialize() (*heap.String, error) {
	return k.alloc.AllocateInternalized(k.hashField, []byte(k.content))
}

func insertInto(t *testing.T, d *data, k Key) (int, *heap.String) {
	entry, existing := d.findInsertionEntry(k, k.HashField())
	assert.T(t, existing == nil)
	s, err := k.Materialize()
	assert.Equal(t, nil, err)
	d.add(entry, s)
	return entry, s
}

func TestNextPowerOfTwo(t *testing.T) {
	assert.Equal(t, 1, nextPowerOfTwo(0))
	assert.Equal(t, 1, nextPowerOfTwo(1))
	assert.Equal(t, 2, nextPowerOfTwo(2))
	assert.Equal(t, 4, nextPowerOfTwo(3))
	assert.Equal(t, 2048, nextPowerOfTwo(2048))
	assert.Equal(t, 4096, nextPowerOfTwo(2049))
}

func TestComputeCapacity(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, 2048, computeCapacity(1, cfg))
	assert.Equal(t, 4096, computeCapacity(1500, cfg))

	cfg.MinCapacity = 8
	cfg.GrowthFactor = 4
	assert.Equal(t, 8, computeCapacity(1, cfg))
	assert.Equal(t, 64, computeCapacity(9, cfg))
}

func TestProbeSequenceVisitsEverySlot(t *testing.T) {
	for _, capacity := range []int{1, 2, 8, 64, 1024} {
		mask := capacity - 1
		seen := make(map[int]bool, capacity)
		entry := firstProbe(12345<<arrayindex.HashShift, mask)
		for n := 1; n <= capacity; n++ {
			seen[entry] = true
			entry = nextProbe(entry, n, mask)
		}
		assert.Equal(t, capacity, len(seen))
	}
}

func TestTombstoneDoesNotTerminateLookup(t *testing.T) {
	h := heap.New(heap.DefaultConfig())
	d := newData(8, 0.75)

	a := newFakeKey(h, 3, "a")
	b := newFakeKey(h, 3, "b")
	c := newFakeKey(h, 3, "c")

	entryA, _ := insertInto(t, d, a)
	entryB, sb := insertInto(t, d, b)
	assert.Equal(t, 3, entryA)
	assert.Equal(t, 4, entryB)

	d.slots[entryA].Store(deletedElement)
	d.numberOfElements--
	d.numberOfDeleted++

	assert.T(t, d.findEntry(a, a.HashField()) == nil)
	assert.T(t, d.findEntry(b, b.HashField()) == sb)

	// the first tombstone on the sequence is the preferred insertion point
	entry, existing := d.findInsertionEntry(c, c.HashField())
	assert.T(t, existing == nil)
	assert.Equal(t, entryA, entry)

	_, sc := insertInto(t, d, c)
	assert.Equal(t, 0, d.numberOfDeleted)
	assert.Equal(t, 2, d.numberOfElements)
	assert.T(t, d.findEntry(c, c.HashField()) == sc)
}

func TestFindInsertionEntryReturnsMatch(t *testing.T) {
	h := heap.New(heap.DefaultConfig())
	d := newData(8, 0.75)

	_, s := insertInto(t, d, newFakeKey(h, 5, "x"))
	entry, existing := d.findInsertionEntry(newFakeKey(h, 5, "x"), newFakeKey(h, 5, "x").HashField())
	assert.T(t, existing == s)
	assert.Equal(t, 5, entry)

	// same hash, different content
	_, existing = d.findInsertionEntry(newFakeKey(h, 5, "y"), newFakeKey(h, 5, "y").HashField())
	assert.T(t, existing == nil)
}

func TestRehashDropsTombstones(t *testing.T) {
	h := heap.New(heap.DefaultConfig())
	d := newData(8, 0.75)

	var live []*heap.String
	for i, content := range []string{"a", "b", "c", "d"} {
		entry, s := insertInto(t, d, newFakeKey(h, uint32(i), content))
		if i%2 == 0 {
			d.slots[entry].Store(deletedElement)
			d.numberOfElements--
			d.numberOfDeleted++
			continue
		}
		live = append(live, s)
	}

	nd := newData(16, 0.75)
	d.rehashInto(nd)
	assert.Equal(t, 2, nd.numberOfElements)
	assert.Equal(t, 0, nd.numberOfDeleted)
	for _, s := range live {
		assert.T(t, nd.findEntry(NewStringKey(s), s.HashField()) == s)
	}
}

func TestHasSufficientCapacityToAdd(t *testing.T) {
	d := newData(8, 0.5)
	assert.Equal(t, 4, d.threshold)
	d.numberOfElements = 2
	d.numberOfDeleted = 1
	assert.Equal(t, true, d.hasSufficientCapacityToAdd(1))
	assert.Equal(t, false, d.hasSufficientCapacityToAdd(2))
}

func TestNewDataRejectsOddCapacity(t *testing.T) {
	defer func() {
		assert.NotEqual(t, nil, recover())
	}()
	newData(12, 0.5)
}
