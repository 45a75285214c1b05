// Package lock implements a process-local, reentrant advisory lock keyed by
// (entityType, entityId), per spec.md §5. It serializes same-entity writes
// within a process; it is not a distributed transaction mechanism.
package lock

import (
	"fmt"
	"sync"
)

// Registry holds one mutex per entity key, created lazily on first use and
// never removed (the working set of distinct entities is small relative to
// process lifetime).
type Registry struct {
	mu    sync.Mutex
	locks map[string]*reentrantMutex
}

// NewRegistry builds an empty lock Registry.
func NewRegistry() *Registry {
	return &Registry{locks: make(map[string]*reentrantMutex)}
}

// reentrantMutex allows the same logical "holder" (identified by a token the
// caller threads through nested calls, see Handle) to re-acquire the lock
// without blocking. The tools acquire once per entity with a fresh token,
// and cascade application takes no locks.
type reentrantMutex struct {
	cond   *sync.Cond
	holder string
	held   bool
	depth  int
}

func newReentrantMutex() *reentrantMutex {
	return &reentrantMutex{cond: sync.NewCond(&sync.Mutex{})}
}

// Handle releases the lock (or decrements the reentrancy depth) when done.
type Handle struct {
	release func()
}

// Release unlocks the entity, or is a no-op past the first call.
func (h Handle) Release() {
	if h.release != nil {
		h.release()
	}
}

// Acquire locks (entityType, entityID) for holderToken. Calls from the same
// holderToken nest without blocking; calls from a different token block
// until the holder releases down to depth zero.
func (r *Registry) Acquire(entityType, entityID, holderToken string) Handle {
	key := fmt.Sprintf("%s:%s", entityType, entityID)

	r.mu.Lock()
	m, ok := r.locks[key]
	if !ok {
		m = newReentrantMutex()
		r.locks[key] = m
	}
	r.mu.Unlock()

	return m.lock(holderToken)
}

func (m *reentrantMutex) lock(holderToken string) Handle {
	m.cond.L.Lock()
	for m.held && m.holder != holderToken {
		m.cond.Wait()
	}
	m.held = true
	m.holder = holderToken
	m.depth++
	m.cond.L.Unlock()

	var once sync.Once
	return Handle{release: func() {
		once.Do(func() {
			m.cond.L.Lock()
			m.depth--
			if m.depth <= 0 {
				m.held = false
				m.holder = ""
				m.depth = 0
				m.cond.Broadcast()
			}
			m.cond.L.Unlock()
		})
	}}
}
