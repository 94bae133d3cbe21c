// Package safepoint provides the stop-the-world rendezvous between mutator
// goroutines and the collector.
//
// Mutators bracket their work with Enter/Leave and poll Safepoint from
// long loops. StopTheWorld waits until no mutator is inside such a bracket,
// then hands the callback a Token. Operations that are only legal while the
// world is stopped demand that token and check it.
package safepoint

import (
	"errors"
	"sync"
	"sync/atomic"
)

// ErrNotAtSafepoint is the panic value raised when a world-stopped
// operation is invoked without an active token.
var ErrNotAtSafepoint = errors.New("safepoint: world is not stopped")

// Token proves that the world is stopped. It is only valid for the
// duration of the StopTheWorld callback that received it.
type Token struct {
	epoch  uint64
	active atomic.Bool
}

// Active reports whether the token still stands for a stopped world.
func (t *Token) Active() bool {
	return t != nil && t.active.Load()
}

// Epoch is the sequence number of the stop-the-world pause.
func (t *Token) Epoch() uint64 {
	return t.epoch
}

// Check panics with ErrNotAtSafepoint unless the token is active.
func Check(t *Token) {
	if !t.Active() {
		panic(ErrNotAtSafepoint)
	}
}

type Coordinator struct {
	world sync.RWMutex

	// serializes collectors so that one pause owns the world at a time
	pauseMu sync.Mutex

	epoch   atomic.Uint64
	running atomic.Int64
}

func New() *Coordinator {
	return &Coordinator{}
}

// Enter registers the caller as a running mutator, blocking while the
// world is stopped.
func (c *Coordinator) Enter() {
	c.world.RLock()
	c.running.Add(1)
}

// Leave parks the calling mutator.
func (c *Coordinator) Leave() {
	c.running.Add(-1)
	c.world.RUnlock()
}

// Safepoint lets a pending StopTheWorld proceed. Must be called between
// Enter and Leave.
func (c *Coordinator) Safepoint() {
	c.Leave()
	c.Enter()
}

// Run executes fn as a running mutator.
func (c *Coordinator) Run(fn func()) {
	c.Enter()
	defer c.Leave()

	fn()
}

// Running is the number of mutators currently inside Enter/Leave.
func (c *Coordinator) Running() int64 {
	return c.running.Load()
}

// Epochs is the number of completed stop-the-world pauses.
func (c *Coordinator) Epochs() uint64 {
	return c.epoch.Load()
}

// StopTheWorld waits for every mutator to reach a safepoint, runs fn with
// an active token and resumes the world. The token is revoked once fn
// returns, so stashing it gains nothing.
//
// Calling StopTheWorld from inside Enter/Leave deadlocks.
func (c *Coordinator) StopTheWorld(fn func(tok *Token)) {
	c.pauseMu.Lock()
	defer c.pauseMu.Unlock()

	c.world.Lock()
	defer c.world.Unlock()

	tok := &Token{epoch: c.epoch.Add(1)}
	tok.active.Store(true)
	defer tok.active.Store(false)

	fn(tok)
}
