package collector

import (
	"sync"
	"sync/atomic"

	"github.com/funkygao/strtab/heap"
)

// Handle is a strong reference to a string. The collector updates it when
// the string moves, so always reload through Get.
type Handle struct {
	s atomic.Pointer[heap.String]
}

func (h *Handle) Get() *heap.String {
	return h.s.Load()
}

func (h *Handle) Set(s *heap.String) {
	h.s.Store(s)
}

// Roots is the set of handles that keep strings alive.
type Roots struct {
	mu      sync.Mutex
	handles map[*Handle]struct{}
}

func NewRoots() *Roots {
	return &Roots{handles: make(map[*Handle]struct{})}
}

func (r *Roots) Add(s *heap.String) *Handle {
	h := &Handle{}
	h.Set(s)

	r.mu.Lock()
	r.handles[h] = struct{}{}
	r.mu.Unlock()
	return h
}

func (r *Roots) Remove(h *Handle) {
	r.mu.Lock()
	delete(r.handles, h)
	r.mu.Unlock()
}

func (r *Roots) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.handles)
}

func (r *Roots) each(fn func(h *Handle)) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for h := range r.handles {
		if h.Get() != nil {
			fn(h)
		}
	}
}
