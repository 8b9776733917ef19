package policy

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Reader is the raw policy source the cache wraps. *Store implements it.
type Reader interface {
	TitleFilter(ctx context.Context) (TitleFilterPolicy, error)
	Technology(ctx context.Context) (TechnologyPolicy, error)
	StopList(ctx context.Context) (StopList, error)
	CandidateProfile(ctx context.Context) (CandidateProfile, error)
}

// Cached wraps a Reader with a per-policy TTL cache and permissive-default
// fallback. Stale-but-valid data is acceptable; a missing policy is not —
// a read failure yields the defaults plus a warning, never an error.
//
// Cached is the explicitly injected policy dependency every pipeline stage
// receives; there is no package-level policy state.
type Cached struct {
	src Reader
	ttl time.Duration
	log *zap.Logger

	mu      sync.Mutex
	entries map[string]cacheEntry
}

type cacheEntry struct {
	value     any
	fetchedAt time.Time
}

// NewCached wraps src with the given TTL.
func NewCached(src Reader, ttl time.Duration, log *zap.Logger) *Cached {
	return &Cached{
		src:     src,
		ttl:     ttl,
		log:     log,
		entries: make(map[string]cacheEntry),
	}
}

// TitleFilter returns the cached title filter policy, falling back to
// DefaultTitleFilter on read failure.
func (c *Cached) TitleFilter(ctx context.Context) TitleFilterPolicy {
	return cached(c, nameTitleFilter, DefaultTitleFilter, func() (TitleFilterPolicy, error) {
		return c.src.TitleFilter(ctx)
	})
}

// Technology returns the cached technology policy, falling back to
// DefaultTechnology on read failure.
func (c *Cached) Technology(ctx context.Context) TechnologyPolicy {
	return cached(c, nameTechnology, DefaultTechnology, func() (TechnologyPolicy, error) {
		return c.src.Technology(ctx)
	})
}

// StopList returns the cached stop list, falling back to DefaultStopList on
// read failure.
func (c *Cached) StopList(ctx context.Context) StopList {
	return cached(c, nameStopList, DefaultStopList, func() (StopList, error) {
		return c.src.StopList(ctx)
	})
}

// CandidateProfile returns the cached candidate profile, falling back to
// DefaultProfile on read failure.
func (c *Cached) CandidateProfile(ctx context.Context) CandidateProfile {
	return cached(c, nameProfile, DefaultProfile, func() (CandidateProfile, error) {
		return c.src.CandidateProfile(ctx)
	})
}

// cached serves name from the cache when fresh, refreshing through fetch
// otherwise. On fetch failure it serves the previous value if one exists
// (stale-but-valid), else the defaults.
func cached[T any](c *Cached, name string, defaults func() T, fetch func() (T, error)) T {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[name]
	if ok && time.Since(entry.fetchedAt) < c.ttl {
		return entry.value.(T)
	}

	value, err := fetch()
	if err != nil {
		c.log.Warn("policy read failed, using fallback",
			zap.String("policy", name),
			zap.Bool("stale_available", ok),
			zap.Error(err),
		)
		if ok {
			return entry.value.(T)
		}
		return defaults()
	}

	c.entries[name] = cacheEntry{value: value, fetchedAt: time.Now()}
	return value
}
