package safepoint

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bmizerany/assert"
)

func TestTokenOnlyActiveInsidePause(t *testing.T) {
	c := New()
	var kept *Token
	c.StopTheWorld(func(tok *Token) {
		assert.Equal(t, true, tok.Active())
		assert.Equal(t, uint64(1), tok.Epoch())
		Check(tok)
		kept = tok
	})

	assert.Equal(t, false, kept.Active())
	assert.Equal(t, uint64(1), c.Epochs())

	var nilToken *Token
	assert.Equal(t, false, nilToken.Active())
}

func TestCheckPanicsOutsidePause(t *testing.T) {
	assert.Panic(t, ErrNotAtSafepoint, func() {
		Check(nil)
	})

	c := New()
	var kept *Token
	c.StopTheWorld(func(tok *Token) { kept = tok })
	assert.Panic(t, ErrNotAtSafepoint, func() {
		Check(kept)
	})
}

func TestStopTheWorldWaitsForMutators(t *testing.T) {
	c := New()
	var inside int32
	entered := make(chan struct{})
	release := make(chan struct{})

	go c.Run(func() {
		atomic.StoreInt32(&inside, 1)
		close(entered)
		<-release
		atomic.StoreInt32(&inside, 0)
	})

	<-entered
	assert.Equal(t, int64(1), c.Running())

	stopped := make(chan struct{})
	go func() {
		c.StopTheWorld(func(tok *Token) {
			assert.Equal(t, int32(0), atomic.LoadInt32(&inside))
			assert.Equal(t, int64(0), c.Running())
		})
		close(stopped)
	}()

	select {
	case <-stopped:
		t.Fatal("world stopped while a mutator was running")
	case <-time.After(50 * time.Millisecond):
	}

	close(release)
	<-stopped
}

func TestSafepointPollLetsCollectorIn(t *testing.T) {
	c := New()
	var stop int32
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			c.Enter()
			defer c.Leave()
			for atomic.LoadInt32(&stop) == 0 {
				c.Safepoint()
			}
		}()
	}

	for i := 0; i < 10; i++ {
		c.StopTheWorld(func(tok *Token) {
			assert.Equal(t, int64(0), c.Running())
		})
	}

	atomic.StoreInt32(&stop, 1)
	wg.Wait()
	assert.Equal(t, uint64(10), c.Epochs())
}
