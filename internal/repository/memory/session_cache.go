package memory

import (
	"sync"
	"time"

	"campus-qa-be/pkg/store"

	"github.com/patrickmn/go-cache"
)

// SessionCache is the in-memory mirror of persisted sessions plus the
// per-session locks that serialize concurrent turns on one session id.
type SessionCache struct {
	cache *cache.Cache

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewSessionCache() *SessionCache {
	// Default expiration of 1 hour, expired entries purged every 10 minutes
	c := cache.New(1*time.Hour, 10*time.Minute)
	return &SessionCache{
		cache: c,
		locks: make(map[string]*sync.Mutex),
	}
}

func (r *SessionCache) Save(session *store.Session) {
	r.cache.Set(session.SessionID, session, cache.DefaultExpiration)
}

func (r *SessionCache) Get(sessionID string) (*store.Session, bool) {
	if x, found := r.cache.Get(sessionID); found {
		return x.(*store.Session), true
	}
	return nil, false
}

func (r *SessionCache) Delete(sessionID string) {
	r.cache.Delete(sessionID)
}

// Lock returns the mutex guarding one session id, creating it on first use.
// History ordering within a session depends on holding this for the whole
// turn; locks are never removed, sessions are few per process.
func (r *SessionCache) Lock(sessionID string) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.locks[sessionID]
	if !ok {
		l = &sync.Mutex{}
		r.locks[sessionID] = l
	}
	return l
}
