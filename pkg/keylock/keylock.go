package keylock

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrTimeout is returned when a lock could not be acquired within the
// configured wait. Callers treat it as a transient busy condition.
var ErrTimeout = errors.New("keylock: acquisition timed out")

// Table provides per-key mutual exclusion with bounded acquisition. Locks
// for distinct keys are fully independent; acquisition never blocks longer
// than the configured wait or the caller's context, whichever ends first.
type Table struct {
	mu      sync.Mutex
	entries map[string]*entry
	maxWait time.Duration
}

type entry struct {
	sem  chan struct{}
	refs int
}

// New creates a lock table. maxWait bounds every acquisition; a
// non-positive value falls back to 5 seconds.
func New(maxWait time.Duration) *Table {
	if maxWait <= 0 {
		maxWait = 5 * time.Second
	}
	return &Table{
		entries: make(map[string]*entry),
		maxWait: maxWait,
	}
}

// Acquire takes the lock for key, returning a release function. It fails
// with ErrTimeout when the wait elapses and with ctx.Err() when the context
// ends first. The release function is idempotent.
func (t *Table) Acquire(ctx context.Context, key string) (func(), error) {
	t.mu.Lock()
	e, ok := t.entries[key]
	if !ok {
		e = &entry{sem: make(chan struct{}, 1)}
		t.entries[key] = e
	}
	e.refs++
	t.mu.Unlock()

	timer := time.NewTimer(t.maxWait)
	defer timer.Stop()

	select {
	case e.sem <- struct{}{}:
		var once sync.Once
		release := func() {
			once.Do(func() {
				<-e.sem
				t.drop(key, e)
			})
		}
		return release, nil
	case <-timer.C:
		t.drop(key, e)
		return nil, ErrTimeout
	case <-ctx.Done():
		t.drop(key, e)
		return nil, ctx.Err()
	}
}

// drop releases one reference to the key's entry and removes it from the
// table once nobody holds or waits on it.
func (t *Table) drop(key string, e *entry) {
	t.mu.Lock()
	e.refs--
	if e.refs <= 0 {
		delete(t.entries, key)
	}
	t.mu.Unlock()
}

// Len reports how many keys currently have holders or waiters.
func (t *Table) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}
