package stringtable

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/funkygao/strtab/heap"
	"github.com/funkygao/strtab/safepoint"
	log "github.com/sirupsen/logrus"
)

// StringTable owns the canonical string for every interned content.
type StringTable struct {
	cfg *Config

	// data is the published storage. Readers load it once per lookup.
	data atomic.Pointer[data]

	// writeMu serializes insertion and growth, and guards retired.
	writeMu sync.Mutex

	// retired storages may still be probed by readers that loaded them
	// before a rehash; they are released by DropOldData.
	retired []*data

	// mirrors of the current storage's counts, readable without writeMu
	elements atomic.Int64
	deleted  atomic.Int64

	metrics *tableMetrics
}

// New creates an empty table. It panics on an invalid config.
func New(cfg *Config) *StringTable {
	if err := cfg.Validate(); err != nil {
		panic(err)
	}

	t := &StringTable{cfg: cfg}
	t.data.Store(newData(nextPowerOfTwo(cfg.InitialCapacity), cfg.MaxLoadFactor))
	t.metrics = newTableMetrics(cfg.Registry, t)
	return t
}

func (t *StringTable) Capacity() int {
	return t.data.Load().capacity
}

func (t *StringTable) NumberOfElements() int {
	return int(t.elements.Load())
}

func (t *StringTable) NumberOfDeleted() int {
	return int(t.deleted.Load())
}

// syncCounts publishes the counts of d. The caller must hold writeMu.
func (t *StringTable) syncCounts(d *data) {
	t.elements.Store(int64(d.numberOfElements))
	t.deleted.Store(int64(d.numberOfDeleted))
}

func hashFieldOf(key Key) uint32 {
	hashField := key.HashField()
	if hashField == 0 {
		panic(ErrHashNotComputed)
	}

	return hashField
}

// LookupKey returns the canonical string for key, inserting the string
// materialized by key if there is none yet.
func (t *StringTable) LookupKey(key Key) (*heap.String, error) {
	hashField := hashFieldOf(key)

	if s := t.data.Load().findEntry(key, hashField); s != nil {
		t.metrics.Hit.Inc(1)
		return s, nil
	}

	t.metrics.Miss.Inc(1)

	t.writeMu.Lock()
	defer t.writeMu.Unlock()

	// another writer may have inserted the same content meanwhile
	d := t.data.Load()
	entry, existing := d.findInsertionEntry(key, hashField)
	if existing != nil {
		return existing, nil
	}

	// running out of memory must leave the table as it was, so allocate
	// before growing
	s, err := key.Materialize()
	if err != nil {
		return nil, err
	}

	if s.HashField() != hashField {
		panic(ErrHashMismatch)
	}

	if nd := t.ensureCapacity(1); nd != d {
		d = nd
		entry, _ = d.findInsertionEntry(key, hashField)
	}

	s.MarkInternalized()
	d.add(entry, s)
	t.syncCounts(d)
	t.metrics.Insert.Inc(1)
	return s, nil
}

// LookupString interns an existing string. If an equal canonical string
// already exists it is returned and s is made to forward to it; otherwise
// s itself becomes canonical.
func (t *StringTable) LookupString(s *heap.String) (*heap.String, error) {
	if s.IsInternalized() {
		return s, nil
	}

	if c := s.Thin(); c != nil {
		return c, nil
	}

	c, err := t.LookupKey(NewStringKey(s))
	if err != nil {
		return nil, err
	}

	s.MakeThin(c)
	return c, nil
}

// LookupExisting returns the canonical string for key without inserting.
func (t *StringTable) LookupExisting(key Key) (*heap.String, bool) {
	s := t.data.Load().findEntry(key, hashFieldOf(key))
	return s, s != nil
}

// EnsureCapacity grows the table ahead of a bulk insert of additional
// strings, e.g. when loading a snapshot.
func (t *StringTable) EnsureCapacity(additional int) {
	t.writeMu.Lock()
	defer t.writeMu.Unlock()

	t.ensureCapacity(additional)
}

// ForEach calls fn with every canonical string. Insertions wait until it
// returns, so fn must not intern.
func (t *StringTable) ForEach(fn func(s *heap.String)) {
	t.writeMu.Lock()
	defer t.writeMu.Unlock()

	d := t.data.Load()
	for i := range d.slots {
		if e := d.slots[i].Load(); e != nil && e != deletedElement {
			fn(e)
		}
	}
}

// ensureCapacity makes room for additional entries, rehashing into a new
// storage if needed, and returns the storage to insert into. The caller
// must hold writeMu.
func (t *StringTable) ensureCapacity(additional int) *data {
	d := t.data.Load()
	if d.hasSufficientCapacityToAdd(additional) {
		return d
	}

	start := time.Now()
	nd := newData(computeCapacity(d.numberOfElements+additional, t.cfg), t.cfg.MaxLoadFactor)
	d.rehashInto(nd)

	t.data.Store(nd)
	t.retired = append(t.retired, d)
	t.syncCounts(nd)

	t.metrics.Grow.Inc(1)
	t.metrics.Rehash.UpdateSince(start)
	log.Debugf("stringtable: rehash %d -> %d slots, %d elements, %d tombstones dropped, %d retired",
		d.capacity, nd.capacity, nd.numberOfElements, d.numberOfDeleted, len(t.retired))

	return nd
}

// IterateElements passes every live entry of the current storage to v,
// applying its verdict in place. It returns how many entries v reported
// dead; the caller reports them through NotifyElementsRemoved.
//
// The world must be stopped.
func (t *StringTable) IterateElements(tok *safepoint.Token, v Visitor) int {
	safepoint.Check(tok)

	t.writeMu.Lock()
	defer t.writeMu.Unlock()

	return t.data.Load().iterate(v)
}

// NotifyElementsRemoved accounts for count entries that were turned into
// tombstones behind the table's back. The world must be stopped.
func (t *StringTable) NotifyElementsRemoved(tok *safepoint.Token, count int) {
	safepoint.Check(tok)

	t.writeMu.Lock()
	defer t.writeMu.Unlock()

	d := t.data.Load()
	if count < 0 || count > d.numberOfElements {
		panic("stringtable: removed element count out of range")
	}

	d.numberOfElements -= count
	d.numberOfDeleted += count
	t.syncCounts(d)
	t.metrics.Removed.Inc(int64(count))
}

// DropOldData releases retired storages and returns how many there were.
// The world must be stopped, so no reader can still be probing them.
func (t *StringTable) DropOldData(tok *safepoint.Token) int {
	safepoint.Check(tok)

	t.writeMu.Lock()
	defer t.writeMu.Unlock()

	n := len(t.retired)
	for i := range t.retired {
		t.retired[i] = nil
	}
	t.retired = t.retired[:0]

	if n > 0 {
		log.Debugf("stringtable: dropped %d retired storages", n)
	}

	return n
}
