package services

import "sync"

type pairKey struct{ lo, hi uint }

func newPairKey(a, b uint) pairKey {
	if a > b {
		a, b = b, a
	}
	return pairKey{lo: a, hi: b}
}

type pairLock struct {
	mu   sync.Mutex
	refs int
}

// pairLocks serializes operations per unordered user pair. Entries are
// reference counted and dropped when the last holder unlocks.
type pairLocks struct {
	mu    sync.Mutex
	locks map[pairKey]*pairLock
}

func newPairLocks() *pairLocks {
	return &pairLocks{locks: make(map[pairKey]*pairLock)}
}

// Lock blocks until the pair is free and returns its unlock func.
func (p *pairLocks) Lock(a, b uint) func() {
	key := newPairKey(a, b)

	p.mu.Lock()
	l, ok := p.locks[key]
	if !ok {
		l = &pairLock{}
		p.locks[key] = l
	}
	l.refs++
	p.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()

		p.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(p.locks, key)
		}
		p.mu.Unlock()
	}
}

func (p *pairLocks) size() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.locks)
}
