// Package heap is the string heap: it allocates string objects, accounts
// for their memory and lets the collector move and free them.
package heap

import (
	"sync"
	"sync/atomic"

	"github.com/funkygao/strtab/safepoint"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// objectHeader approximates the per-object overhead charged to Limit.
const objectHeader = 48

type Heap struct {
	cfg *Config

	mu      sync.Mutex
	objects map[*String]struct{}

	used   atomic.Int64
	serial atomic.Uint64
}

func New(cfg *Config) *Heap {
	return &Heap{
		cfg:     cfg,
		objects: make(map[*String]struct{}, 1<<10),
	}
}

func sizeOf(n int) int64 {
	return int64(n) + objectHeader
}

// Used is the number of bytes charged to live objects.
func (h *Heap) Used() int64 {
	return h.used.Load()
}

// Objects is the number of objects the heap currently tracks.
func (h *Heap) Objects() int {
	h.mu.Lock()
	defer h.mu.Unlock()

	return len(h.objects)
}

func (h *Heap) reserve(n int) error {
	size := sizeOf(n)
	if used := h.used.Add(size); h.cfg.Limit > 0 && used > h.cfg.Limit {
		h.used.Add(-size)
		log.Warnf("heap: %d bytes requested, %d/%d in use", size, used-size, h.cfg.Limit)
		return errors.WithStack(ErrOutOfMemory)
	}

	return nil
}

func (h *Heap) track(content string) *String {
	s := &String{
		content: content,
		serial:  h.serial.Add(1),
	}

	h.mu.Lock()
	h.objects[s] = struct{}{}
	h.mu.Unlock()
	return s
}

// Allocate copies b into a new, not yet internalized, string.
func (h *Heap) Allocate(b []byte) (*String, error) {
	if err := h.reserve(len(b)); err != nil {
		return nil, err
	}

	return h.track(string(b)), nil
}

func (h *Heap) AllocateString(s string) (*String, error) {
	if err := h.reserve(len(s)); err != nil {
		return nil, err
	}

	return h.track(s), nil
}

// AllocateInternalized allocates the canonical object for content parts
// joined together. hashField must be the hash field of that content.
func (h *Heap) AllocateInternalized(hashField uint32, parts ...[]byte) (*String, error) {
	n := 0
	for _, p := range parts {
		n += len(p)
	}

	if err := h.reserve(n); err != nil {
		return nil, err
	}

	buf := make([]byte, 0, n)
	for _, p := range parts {
		buf = append(buf, p...)
	}

	s := h.track(string(buf))
	s.hashField.Store(hashField)
	s.setFlag(flagInternalized)
	return s, nil
}

// Evacuate moves s to a fresh object and leaves a forwarding pointer
// behind. Moving an already moved object returns the existing copy.
// Evacuation is never refused for lack of memory.
func (h *Heap) Evacuate(tok *safepoint.Token, s *String) *String {
	safepoint.Check(tok)

	if to := s.Forwarded(); to != nil {
		return to
	}

	h.used.Add(sizeOf(len(s.content)))
	to := h.track(s.content)
	to.hashField.Store(s.hashField.Load())
	to.flags.Store(s.flags.Load())
	to.thin.Store(s.thin.Load())
	s.forward.Store(to)
	return to
}

// Sweep frees every object that is unmarked or has been moved, and clears
// the mark bit on survivors. It returns the number of objects freed.
func (h *Heap) Sweep(tok *safepoint.Token) int {
	safepoint.Check(tok)

	h.mu.Lock()
	defer h.mu.Unlock()

	freed := 0
	for s := range h.objects {
		if s.IsMarked() && s.Forwarded() == nil {
			s.clearFlag(flagMarked)
			continue
		}

		delete(h.objects, s)
		h.used.Add(-sizeOf(len(s.content)))
		freed++
	}

	log.Debugf("heap: swept %d objects, %d live, %d bytes", freed, len(h.objects), h.used.Load())
	return freed
}
