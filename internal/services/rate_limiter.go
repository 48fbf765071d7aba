package services

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const limiterPruneInterval = 10 * time.Minute

// actorLimiter keeps one token bucket per actor. A zero count disables it.
type actorLimiter struct {
	mu        sync.Mutex
	limit     rate.Limit
	burst     int
	buckets   map[uint]*rate.Limiter
	lastPrune time.Time
}

// newActorLimiter allows count actions per window, refilled continuously.
func newActorLimiter(count int, window time.Duration) *actorLimiter {
	l := &actorLimiter{buckets: make(map[uint]*rate.Limiter), lastPrune: time.Now()}
	if count > 0 && window > 0 {
		l.limit = rate.Every(window / time.Duration(count))
		l.burst = count
	}
	return l
}

func (l *actorLimiter) Allow(actorID uint) bool {
	if l.burst == 0 {
		return true
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if time.Since(l.lastPrune) > limiterPruneInterval {
		l.prune()
	}
	b, ok := l.buckets[actorID]
	if !ok {
		b = rate.NewLimiter(l.limit, l.burst)
		l.buckets[actorID] = b
	}
	return b.Allow()
}

// prune drops full buckets; a fresh bucket behaves identically.
func (l *actorLimiter) prune() {
	for id, b := range l.buckets {
		if b.Tokens() >= float64(l.burst) {
			delete(l.buckets, id)
		}
	}
	l.lastPrune = time.Now()
}
