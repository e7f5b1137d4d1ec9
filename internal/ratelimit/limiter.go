package ratelimit

import (
	"sync"
	"time"
)

// Config bounds admissions for one key: at most Max within each Window.
type Config struct {
	Window time.Duration
	Max    int
}

// Result reports the outcome of an admission check.
type Result struct {
	Allowed   bool
	Remaining int
	ResetIn   time.Duration
}

// Store holds rate-limit windows. Implementations must be safe for
// concurrent use. The in-process MemoryStore is the default; the interface
// exists so a shared external store can replace it for multi-instance
// deployments.
type Store interface {
	// Hit records a request for key and returns the current count and the
	// window reset time. A new window starting at now+window is opened when
	// none exists or the previous one has expired.
	Hit(key string, window time.Duration) (count int, resetAt time.Time)
}

type entry struct {
	count   int
	resetAt time.Time
}

// MemoryStore is a mutex-guarded map of rate-limit windows. Entries are
// pruned lazily once the map grows past maxEntries, so memory stays bounded
// even when callers rotate keys.
type MemoryStore struct {
	mu         sync.Mutex
	entries    map[string]*entry
	maxEntries int
}

const defaultMaxEntries = 4096

// NewMemoryStore creates a MemoryStore. maxEntries <= 0 uses the default cap.
func NewMemoryStore(maxEntries int) *MemoryStore {
	if maxEntries <= 0 {
		maxEntries = defaultMaxEntries
	}
	return &MemoryStore{
		entries:    make(map[string]*entry),
		maxEntries: maxEntries,
	}
}

func (s *MemoryStore) Hit(key string, window time.Duration) (int, time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()

	if len(s.entries) >= s.maxEntries {
		s.prune(now)
	}

	e, ok := s.entries[key]
	if !ok || !now.Before(e.resetAt) {
		e = &entry{count: 1, resetAt: now.Add(window)}
		s.entries[key] = e
		return e.count, e.resetAt
	}

	e.count++
	return e.count, e.resetAt
}

// prune drops expired windows; if everything is live it evicts arbitrary
// entries until under the cap. Caller must hold the mutex.
func (s *MemoryStore) prune(now time.Time) {
	for k, e := range s.entries {
		if !now.Before(e.resetAt) {
			delete(s.entries, k)
		}
	}
	for len(s.entries) >= s.maxEntries {
		for k := range s.entries {
			delete(s.entries, k)
			break
		}
	}
}

// Len reports the number of tracked windows.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Limiter admits or rejects work keyed by string, using a fixed-window
// counter. Bursts straddling a window boundary can briefly exceed the
// nominal rate; that is an accepted property of the fixed-window scheme.
type Limiter struct {
	store Store
}

// NewLimiter creates a Limiter over the given store.
func NewLimiter(store Store) *Limiter {
	return &Limiter{store: store}
}

// Check records one request for key and reports whether it is admitted.
// It never fails: absence of rate-limit state means allow.
func (l *Limiter) Check(key string, cfg Config) Result {
	count, resetAt := l.store.Hit(key, cfg.Window)

	remaining := cfg.Max - count
	if remaining < 0 {
		remaining = 0
	}

	resetIn := time.Until(resetAt)
	if resetIn < 0 {
		resetIn = 0
	}

	return Result{
		Allowed:   count <= cfg.Max,
		Remaining: remaining,
		ResetIn:   resetIn,
	}
}
