package gate

import (
	"context"
	"sync"
	"time"
)

// CachedResolver memoizes another Resolver for ttl.
type CachedResolver struct {
	inner Resolver
	ttl   time.Duration
	now   func() time.Time

	mu      sync.RWMutex
	entries map[uint]cached
}

type cached struct {
	profile Profile
	expires time.Time
}

func NewCachedResolver(inner Resolver, ttl time.Duration) *CachedResolver {
	return &CachedResolver{inner: inner, ttl: ttl, now: time.Now, entries: map[uint]cached{}}
}

// WithClock replaces the time source, for tests.
func (r *CachedResolver) WithClock(now func() time.Time) *CachedResolver {
	r.now = now
	return r
}

func (r *CachedResolver) Resolve(ctx context.Context, userID uint) (Profile, error) {
	now := r.now()
	r.mu.RLock()
	e, ok := r.entries[userID]
	r.mu.RUnlock()
	if ok && now.Before(e.expires) {
		return e.profile, nil
	}
	p, err := r.inner.Resolve(ctx, userID)
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	r.entries[userID] = cached{profile: p, expires: now.Add(r.ttl)}
	r.mu.Unlock()
	return p, nil
}

// Invalidate drops one user, e.g. after a profile reassignment.
func (r *CachedResolver) Invalidate(userID uint) {
	r.mu.Lock()
	delete(r.entries, userID)
	r.mu.Unlock()
}

// InvalidateAll drops everything, e.g. after permissions of a profile change.
func (r *CachedResolver) InvalidateAll() {
	r.mu.Lock()
	r.entries = map[uint]cached{}
	r.mu.Unlock()
}
