// internal/ads/lock.go
package ads

import (
	"sync"
	"time"
)

const defaultLockTTL = 120 * time.Second

// LockGuard hands out short-lived advisory locks keyed by build and
// action, so a double-clicked "create in Meta" cannot submit the same
// build twice. Locks expire on their own after the TTL in case a
// holder dies mid-call.
type LockGuard struct {
	ttl   time.Duration
	clock Clock

	mu   sync.Mutex
	held map[string]time.Time
}

// NewLockGuard creates a guard. Non-positive ttl uses the 120 second
// default; nil clock uses real time.
func NewLockGuard(ttl time.Duration, clock Clock) *LockGuard {
	if ttl <= 0 {
		ttl = defaultLockTTL
	}
	if clock == nil {
		clock = realClock{}
	}
	return &LockGuard{
		ttl:   ttl,
		clock: clock,
		held:  make(map[string]time.Time),
	}
}

// Acquire takes the lock for buildID+action. It returns false if a
// live lock is already held.
func (g *LockGuard) Acquire(buildID, action string) bool {
	key := buildID + ":" + action
	now := g.clock.Now()

	g.mu.Lock()
	defer g.mu.Unlock()

	if expiry, ok := g.held[key]; ok && expiry.After(now) {
		return false
	}
	g.held[key] = now.Add(g.ttl)
	return true
}

// Release frees the lock for buildID+action.
func (g *LockGuard) Release(buildID, action string) {
	key := buildID + ":" + action
	g.mu.Lock()
	delete(g.held, key)
	g.mu.Unlock()
}
