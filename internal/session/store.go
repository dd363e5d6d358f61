// Package session keeps per-player state in memory, keyed by session ID.
//
// A Store holds one value per session. Update runs a mutation while holding
// that session's lock, so concurrent requests from the same player are applied
// one at a time while different players never block each other.
//
// Sessions are removed after 24 hours of inactivity by a background goroutine
// that runs every hour. If the number of sessions reaches MaxSessions, the
// least recently used session is evicted to make room.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/hurricanerix/infiltrate/internal/logging"
)

const (
	// InactivityTimeout is how long a session can be inactive before cleanup.
	InactivityTimeout = 24 * time.Hour

	// CleanupInterval is how often to run cleanup.
	CleanupInterval = 1 * time.Hour

	// MaxSessions is the maximum number of sessions before LRU eviction.
	MaxSessions = 10000
)

// entry tracks a session value and its last activity time.
// mu guards value and removed; lastActivity is guarded by the Store lock.
type entry[T any] struct {
	mu           sync.Mutex
	value        T
	removed      bool
	lastActivity time.Time
}

// Store provides thread-safe storage of session values.
type Store[T any] struct {
	mu       sync.RWMutex
	entries  map[string]*entry[T]
	newValue func() T
	logger   *logging.Logger

	maxEntries int
	now        func() time.Time

	cancelCleanup context.CancelFunc
	cleanupDone   chan struct{}
}

// NewStore creates an empty Store. newValue builds the state of a session
// seen for the first time. It starts a background goroutine that periodically
// removes inactive sessions; call Shutdown to stop it.
func NewStore[T any](newValue func() T, logger *logging.Logger) *Store[T] {
	if logger == nil {
		logger = logging.Discard()
	}

	ctx, cancel := context.WithCancel(context.Background())

	s := &Store[T]{
		entries:       make(map[string]*entry[T]),
		newValue:      newValue,
		logger:        logger,
		maxEntries:    MaxSessions,
		now:           time.Now,
		cancelCleanup: cancel,
		cleanupDone:   make(chan struct{}),
	}

	go s.cleanupLoop(ctx)

	return s
}

// Update applies fn to the value of session id and returns the result.
// A missing session is created first. fn runs with the session locked, so
// it must not call back into the Store for the same id.
func (s *Store[T]) Update(id string, fn func(*T)) T {
	for {
		e := s.getOrCreate(id)

		e.mu.Lock()
		if e.removed {
			// Evicted or cleaned up before we got the lock; a fresh entry
			// takes its place.
			e.mu.Unlock()
			continue
		}
		fn(&e.value)
		v := e.value
		e.mu.Unlock()
		return v
	}
}

// Get returns a copy of the value of session id.
// It does not create the session or count as activity.
func (s *Store[T]) Get(id string) (T, bool) {
	s.mu.RLock()
	e, ok := s.entries[id]
	s.mu.RUnlock()
	if !ok {
		var zero T
		return zero, false
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	return e.value, true
}

// Delete removes the session with the given ID.
// If the session doesn't exist, this is a no-op.
func (s *Store[T]) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.entries[id]; ok {
		s.remove(id, e)
	}
}

// Count returns the number of stored sessions.
func (s *Store[T]) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Shutdown stops the cleanup goroutine and waits for it to finish.
func (s *Store[T]) Shutdown() {
	if s.cancelCleanup != nil {
		s.cancelCleanup()
		<-s.cleanupDone
	}
}

// getOrCreate returns the entry for id, creating it if needed, and marks it
// as active.
func (s *Store[T]) getOrCreate(id string) *entry[T] {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.entries[id]; ok {
		e.lastActivity = now
		return e
	}

	if len(s.entries) >= s.maxEntries {
		s.evictLRU()
	}

	e := &entry[T]{
		value:        s.newValue(),
		lastActivity: now,
	}
	s.entries[id] = e
	return e
}

// cleanupLoop runs periodically to remove inactive sessions.
func (s *Store[T]) cleanupLoop(ctx context.Context) {
	defer close(s.cleanupDone)

	ticker := time.NewTicker(CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.cleanupInactive()
		}
	}
}

// cleanupInactive removes sessions that have been inactive for too long.
func (s *Store[T]) cleanupInactive() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	removed := 0

	for id, e := range s.entries {
		if now.Sub(e.lastActivity) > InactivityTimeout {
			s.remove(id, e)
			removed++
		}
	}

	if removed > 0 {
		s.logger.Info("Cleaned up %d inactive sessions (total: %d)", removed, len(s.entries))
	}
}

// evictLRU removes the least recently used session.
// Must be called with s.mu held for writing.
func (s *Store[T]) evictLRU() {
	var oldestID string
	var oldest *entry[T]

	for id, e := range s.entries {
		if oldest == nil || e.lastActivity.Before(oldest.lastActivity) {
			oldestID = id
			oldest = e
		}
	}

	if oldest != nil {
		oldestTime := oldest.lastActivity
		s.remove(oldestID, oldest)
		s.logger.Debug("Evicted LRU session %s (inactive for %v)", oldestID, s.now().Sub(oldestTime))
	}
}

// remove detaches e from the store. It waits for any Update running on e, so
// that Update sees removed and retries on a fresh entry.
// Must be called with s.mu held for writing.
func (s *Store[T]) remove(id string, e *entry[T]) {
	e.mu.Lock()
	e.removed = true
	e.mu.Unlock()
	delete(s.entries, id)
}
