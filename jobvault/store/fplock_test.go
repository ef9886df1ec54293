package store

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFPLocksSerializesSameKey(t *testing.T) {
	locks := newFPLocks()

	var mu sync.Mutex
	var inside int
	var maxInside int

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release := locks.acquire("same")
			defer release()

			mu.Lock()
			inside++
			if inside > maxInside {
				maxInside = inside
			}
			mu.Unlock()

			mu.Lock()
			inside--
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, maxInside, "at most one holder per key")
	assert.Empty(t, locks.held, "lock entries are reclaimed after release")
}

func TestFPLocksIndependentKeys(t *testing.T) {
	locks := newFPLocks()

	releaseA := locks.acquire("a")
	// A different key must not block.
	releaseB := locks.acquire("b")
	releaseB()
	releaseA()

	assert.Empty(t, locks.held)
}
