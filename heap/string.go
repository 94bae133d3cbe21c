package heap

import (
	"sync/atomic"

	"github.com/funkygao/strtab/arrayindex"
)

const (
	flagInternalized uint32 = 1 << iota
	flagMarked
)

// String is a heap string object. Content is immutable; the hash field is
// computed on first use and then never changes.
type String struct {
	content   string
	serial    uint64
	hashField atomic.Uint32
	flags     atomic.Uint32

	// thin forwards a non-canonical string to its canonical equal.
	thin atomic.Pointer[String]

	// forward points at the copy made when the collector moved this object.
	forward atomic.Pointer[String]
}

func (s *String) Len() int {
	return len(s.content)
}

func (s *String) String() string {
	return s.content
}

// Serial is the allocation sequence number, unique per heap.
func (s *String) Serial() uint64 {
	return s.serial
}

func (s *String) Equals(b []byte) bool {
	return s.content == string(b)
}

func (s *String) EqualsString(other string) bool {
	return s.content == other
}

// HashField returns the hash field, computing it if needed.
func (s *String) HashField() uint32 {
	if f := s.hashField.Load(); f != 0 {
		return f
	}

	f := ComputeHashFieldString(s.content)
	s.hashField.Store(f)
	return f
}

// RawHashField returns the hash field without computing it; 0 if unset.
func (s *String) RawHashField() uint32 {
	return s.hashField.Load()
}

func (s *String) Hash() uint32 {
	return s.HashField() >> arrayindex.HashShift
}

// ArrayIndex returns the index cached in the hash field, if any.
func (s *String) ArrayIndex() (uint32, bool) {
	v, _, ok := arrayindex.DecodeHashField(s.HashField())
	return v, ok
}

func (s *String) IsInternalized() bool {
	return s.flags.Load()&flagInternalized != 0
}

// MarkInternalized flags s as the canonical object for its content.
// Only the string table may call it.
func (s *String) MarkInternalized() {
	s.HashField()
	s.setFlag(flagInternalized)
}

// Thin returns the canonical string this one forwards to, or nil.
func (s *String) Thin() *String {
	return s.thin.Load()
}

// MakeThin forwards s to canonical. Internalized strings never become thin.
func (s *String) MakeThin(canonical *String) {
	if s == canonical || s.IsInternalized() {
		return
	}

	s.thin.Store(canonical)
}

// Forwarded returns where the collector moved s, or nil.
func (s *String) Forwarded() *String {
	return s.forward.Load()
}

// Mark sets the mark bit and reports whether it was clear before.
func (s *String) Mark() bool {
	for {
		old := s.flags.Load()
		if old&flagMarked != 0 {
			return false
		}
		if s.flags.CompareAndSwap(old, old|flagMarked) {
			return true
		}
	}
}

func (s *String) IsMarked() bool {
	return s.flags.Load()&flagMarked != 0
}

func (s *String) setFlag(f uint32) {
	for {
		old := s.flags.Load()
		if old&f == f || s.flags.CompareAndSwap(old, old|f) {
			return
		}
	}
}

func (s *String) clearFlag(f uint32) {
	for {
		old := s.flags.Load()
		if old&f == 0 || s.flags.CompareAndSwap(old, old&^f) {
			return
		}
	}
}
