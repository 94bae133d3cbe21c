package stringtable

import (
	"github.com/funkygao/strtab/heap"
)

// Key describes a string that may not exist as a heap object yet. It can
// be compared against canonical strings without allocating, and only
// allocates through Materialize when the table decides to insert it.
//
// Keys are transient: the table never keeps one past the lookup call.
type Key interface {
	// HashField must be non-zero.
	HashField() uint32
	Length() int
	IsMatch(s *heap.String) bool

	// Materialize returns the canonical object for the key content. It is
	// called at most once per lookup, with the writer lock held.
	Materialize() (*heap.String, error)
}

// Allocator is the part of the string heap that keys need.
type Allocator interface {
	AllocateInternalized(hashField uint32, parts ...[]byte) (*heap.String, error)
}

type keyBase struct {
	hashField uint32
	length    int
}

func (k *keyBase) HashField() uint32 {
	if k.hashField == 0 {
		panic(ErrHashNotComputed)
	}

	return k.hashField
}

func (k *keyBase) Length() int {
	return k.length
}

// BytesKey looks up raw bytes, e.g. a property name read by the parser.
type BytesKey struct {
	keyBase
	alloc   Allocator
	content []byte
}

func NewBytesKey(alloc Allocator, b []byte) *BytesKey {
	return &BytesKey{
		keyBase: keyBase{hashField: heap.ComputeHashField(b), length: len(b)},
		alloc:   alloc,
		content: b,
	}
}

func (k *BytesKey) IsMatch(s *heap.String) bool {
	return s.Equals(k.content)
}

func (k *BytesKey) Materialize() (*heap.String, error) {
	return k.alloc.AllocateInternalized(k.hashField, k.content)
}

// StringKey looks up an existing heap string. On a miss that very object
// becomes canonical, nothing is allocated.
type StringKey struct {
	keyBase
	s *heap.String
}

func NewStringKey(s *heap.String) *StringKey {
	return &StringKey{
		keyBase: keyBase{hashField: s.HashField(), length: s.Len()},
		s:       s,
	}
}

func (k *StringKey) IsMatch(s *heap.String) bool {
	return s == k.s || s.EqualsString(k.s.String())
}

func (k *StringKey) Materialize() (*heap.String, error) {
	return k.s, nil
}

// ConsKey looks up the concatenation left+right without building it.
type ConsKey struct {
	keyBase
	alloc       Allocator
	left, right []byte
}

func NewConsKey(alloc Allocator, left, right []byte) *ConsKey {
	return &ConsKey{
		keyBase: keyBase{
			hashField: heap.ComputeHashFieldConcat(left, right),
			length:    len(left) + len(right),
		},
		alloc: alloc,
		left:  left,
		right: right,
	}
}

func (k *ConsKey) IsMatch(s *heap.String) bool {
	c := s.String()
	if len(c) != k.length {
		return false
	}

	n := len(k.left)
	return c[:n] == string(k.left) && c[n:] == string(k.right)
}

func (k *ConsKey) Materialize() (*heap.String, error) {
	return k.alloc.AllocateInternalized(k.hashField, k.left, k.right)
}

// SubstringKey looks up s[from:from+length].
type SubstringKey struct {
	keyBase
	alloc Allocator
	sub   string
}

func NewSubstringKey(alloc Allocator, s *heap.String, from, length int) *SubstringKey {
	if from < 0 || length < 0 || from+length > s.Len() {
		panic("stringtable: substring out of range")
	}

	sub := s.String()[from : from+length]
	return &SubstringKey{
		keyBase: keyBase{hashField: heap.ComputeHashFieldString(sub), length: length},
		alloc:   alloc,
		sub:     sub,
	}
}

func (k *SubstringKey) IsMatch(s *heap.String) bool {
	return s.EqualsString(k.sub)
}

func (k *SubstringKey) Materialize() (*heap.String, error) {
	return k.alloc.AllocateInternalized(k.hashField, []byte(k.sub))
}
