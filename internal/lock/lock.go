// Package lock serializes assignment writes per locomotive so the
// check-then-insert conflict test cannot be raced by a concurrent writer.
package lock

import (
	"context"
	"fmt"
	"sync"
)

// Locker hands out exclusive locks keyed by locomotive id.
type Locker interface {
	// Lock blocks until the key is held or ctx is done. The returned
	// function releases it and is safe to call more than once.
	Lock(ctx context.Context, locomotiveID int64) (func(), error)
}

// Key is the lock name shared by all backends.
func Key(locomotiveID int64) string {
	return fmt.Sprintf("locks:locomotive:%d", locomotiveID)
}

type entry struct {
	ch   chan struct{}
	refs int
}

// MemoryLocker is an in-process Locker. Entries are dropped once unused.
type MemoryLocker struct {
	mu      sync.Mutex
	entries map[int64]*entry
}

// NewMemoryLocker creates an empty in-process locker.
func NewMemoryLocker() *MemoryLocker {
	return &MemoryLocker{entries: make(map[int64]*entry)}
}

// Lock implements Locker.
func (m *MemoryLocker) Lock(ctx context.Context, locomotiveID int64) (func(), error) {
	m.mu.Lock()
	e, ok := m.entries[locomotiveID]
	if !ok {
		e = &entry{ch: make(chan struct{}, 1)}
		m.entries[locomotiveID] = e
	}
	e.refs++
	m.mu.Unlock()

	select {
	case e.ch <- struct{}{}:
	case <-ctx.Done():
		m.release(locomotiveID, e)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-e.ch
			m.release(locomotiveID, e)
		})
	}, nil
}

func (m *MemoryLocker) release(locomotiveID int64, e *entry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e.refs--
	if e.refs == 0 {
		delete(m.entries, locomotiveID)
	}
}

// held reports how many keys currently have waiters or holders.
func (m *MemoryLocker) held() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}
