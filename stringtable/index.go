package stringtable

import (
	"github.com/funkygao/strtab/arrayindex"
	"github.com/funkygao/strtab/heap"
)

type ResultKind uint8

const (
	NotFound ResultKind = iota
	Index
	Canonical
)

func (k ResultKind) String() string {
	switch k {
	case Index:
		return "index"
	case Canonical:
		return "canonical"
	default:
		return "not-found"
	}
}

// Result is either an array index sentinel or a canonical string.
type Result struct {
	Kind   ResultKind
	Index  arrayindex.Sentinel
	String *heap.String
}

func indexResult(v uint32) Result {
	return Result{Kind: Index, Index: arrayindex.Encode(v)}
}

func canonicalResult(s *heap.String) Result {
	return Result{Kind: Canonical, String: s}
}

// Internalize returns the index sentinel if b spells an array index, and
// the canonical string for b otherwise.
func (t *StringTable) Internalize(alloc Allocator, b []byte) (Result, error) {
	if v, ok := arrayindex.Parse(b); ok {
		return indexResult(v), nil
	}

	s, err := t.LookupKey(NewBytesKey(alloc, b))
	if err != nil {
		return Result{}, err
	}

	return canonicalResult(s), nil
}

// TryStringToIndexOrLookupExisting never inserts. It returns the index
// sentinel if s spells an array index, the canonical string equal to s if
// one exists, and NotFound otherwise.
func (t *StringTable) TryStringToIndexOrLookupExisting(s *heap.String) Result {
	if v, ok := s.ArrayIndex(); ok {
		return indexResult(v)
	}

	if s.IsInternalized() {
		return canonicalResult(s)
	}

	if c := s.Thin(); c != nil {
		return canonicalResult(c)
	}

	// indices too long to be cached in the hash field
	if s.Len() > arrayindex.MaxCachedLength && s.Len() <= arrayindex.MaxLength {
		if v, ok := arrayindex.ParseString(s.String()); ok {
			return indexResult(v)
		}
	}

	c, ok := t.LookupExisting(NewStringKey(s))
	if !ok {
		return Result{Kind: NotFound}
	}

	s.MakeThin(c)
	return canonicalResult(c)
}
