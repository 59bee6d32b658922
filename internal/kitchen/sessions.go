package kitchen

import (
	"sync"
	"time"
)

// Registry bounds used by NewSessions.
const (
	DefaultMaxSessions = 1000
	DefaultSessionIdle = 24 * time.Hour
)

// RemoteFactory returns the backend for a user. accessToken is the user's
// bearer token when the backend enforces row-level security, else empty.
type RemoteFactory func(u User, accessToken string) RemoteStore

// Sessions keeps one Store per signed-in user for servers that handle many
// users at once.
type Sessions struct {
	factory RemoteFactory
	opts    []Option
	max     int
	idle    time.Duration
	now     func() time.Time

	mu     sync.Mutex
	stores map[string]*sessionEntry
}

type sessionEntry struct {
	store    *Store
	token    string
	lastUsed time.Time
}

// NewSessions creates a registry. opts are applied to every Store it builds.
func NewSessions(factory RemoteFactory, opts ...Option) *Sessions {
	return &Sessions{
		factory: factory,
		opts:    opts,
		max:     DefaultMaxSessions,
		idle:    DefaultSessionIdle,
		now:     time.Now,
		stores:  make(map[string]*sessionEntry),
	}
}

// WithLimits changes how many users are kept and how long an unused Store
// survives. Zero values keep the current setting.
func (s *Sessions) WithLimits(maxUsers int, idle time.Duration) *Sessions {
	s.mu.Lock()
	defer s.mu.Unlock()
	if maxUsers > 0 {
		s.max = maxUsers
	}
	if idle > 0 {
		s.idle = idle
	}
	return s
}

// For returns the user's Store, creating it on first use. A new access
// token replaces the Store, since its backend is bound to the old token;
// the replacement keeps the active chat session.
func (s *Sessions) For(u User, accessToken string) *Store {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.pruneIdleLocked(now)

	e, ok := s.stores[u.ID]
	if ok && e.token == accessToken {
		e.lastUsed = now
		return e.store
	}

	opts := append(append([]Option{}, s.opts...), WithUser(u))
	if ok {
		if id := e.store.SessionID(); id != "" {
			opts = append(opts, WithSessionID(id))
		}
	}
	store := NewStore(s.factory(u, accessToken), opts...)
	s.stores[u.ID] = &sessionEntry{store: store, token: accessToken, lastUsed: now}
	s.evictOverflowLocked(u.ID)
	return store
}

func (s *Sessions) pruneIdleLocked(now time.Time) {
	for id, e := range s.stores {
		if now.Sub(e.lastUsed) > s.idle {
			delete(s.stores, id)
		}
	}
}

// evictOverflowLocked drops least recently used Stores until the registry
// fits, never the one just handed out.
func (s *Sessions) evictOverflowLocked(keep string) {
	for len(s.stores) > s.max {
		oldest := ""
		var oldestAt time.Time
		for id, e := range s.stores {
			if id == keep {
				continue
			}
			if oldest == "" || e.lastUsed.Before(oldestAt) {
				oldest, oldestAt = id, e.lastUsed
			}
		}
		if oldest == "" {
			return
		}
		delete(s.stores, oldest)
	}
}

// Forget drops a user's Store.
func (s *Sessions) Forget(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.stores[userID]; ok {
		e.store.SignOut()
		delete(s.stores, userID)
	}
}

// Len reports how many users have a Store.
func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.stores)
}
