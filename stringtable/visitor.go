package stringtable

import (
	"github.com/funkygao/strtab/heap"
)

// Visitor is how the collector sees table entries at a safepoint.
type Visitor interface {
	// VisitString returns what the slot must hold from now on: s itself
	// if it is alive, the copy s was moved to, or nil if s is dead.
	VisitString(s *heap.String) *heap.String
}

type VisitorFunc func(s *heap.String) *heap.String

func (f VisitorFunc) VisitString(s *heap.String) *heap.String {
	return f(s)
}
