package store

import "sync"

// fpLocks is a reference-counted mutex table keyed by fingerprint digest.
// It serializes the read-decide-write sequences that the backing store
// does not make atomic (duplicate registration, result replacement).
type fpLocks struct {
	mu   sync.Mutex
	held map[string]*fpLock
}

type fpLock struct {
	mu   sync.Mutex
	refs int
}

func newFPLocks() *fpLocks {
	return &fpLocks{held: make(map[string]*fpLock)}
}

// acquire blocks until the lock for key is held and returns the release
// function. Lock entries are dropped once the last holder releases.
func (l *fpLocks) acquire(key string) func() {
	l.mu.Lock()
	entry, ok := l.held[key]
	if !ok {
		entry = &fpLock{}
		l.held[key] = entry
	}
	entry.refs++
	l.mu.Unlock()

	entry.mu.Lock()
	return func() {
		entry.mu.Unlock()
		l.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(l.held, key)
		}
		l.mu.Unlock()
	}
}
