package cart

import (
	"context"
	"strings"
	"sync"

	"github.com/angelmondragon/warung-pos/pkg/logger"
)

// GuestSession is used when a request carries no user id.
const GuestSession = "guest"

// StorageFactory returns the persistence slot for a session.
type StorageFactory func(sessionID string) Storage

// Registry hands out one Store per session, loading it from storage on first use.
type Registry struct {
	mu      sync.Mutex
	stores  map[string]*Store
	factory StorageFactory
	logg    *logger.Logger
}

// NewRegistry builds a registry. A nil factory keeps every cart in memory.
func NewRegistry(factory StorageFactory, logg *logger.Logger) *Registry {
	return &Registry{
		stores:  make(map[string]*Store),
		factory: factory,
		logg:    logg,
	}
}

// NewRedisRegistry persists every session cart in redis.
func NewRedisRegistry(kv kvStore, logg *logger.Logger) *Registry {
	return NewRegistry(func(sessionID string) Storage {
		return NewRedisStorage(kv, sessionID)
	}, logg)
}

// Get returns the cart for sessionID. An unreadable slot is logged and the
// session starts with an empty cart. Storage is read outside the lock; when
// two callers race on a new session the first inserted store wins.
//
// Loaded carts are cached for the life of the process and never re-read, so
// only one API replica may serve a given session.
func (r *Registry) Get(ctx context.Context, sessionID string) *Store {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		sessionID = GuestSession
	}

	r.mu.Lock()
	st, ok := r.stores[sessionID]
	r.mu.Unlock()
	if ok {
		return st
	}

	var storage Storage
	if r.factory != nil {
		storage = r.factory(sessionID)
	}
	loaded := NewStore(storage, r.logg)
	if err := loaded.Load(ctx); err != nil && r.logg != nil {
		logCtx := r.logg.WithSessionID(ctx, sessionID)
		r.logg.Warn(r.logg.WithField(logCtx, "error", err.Error()), "cart restore failed, starting empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if st, ok := r.stores[sessionID]; ok {
		return st
	}
	r.stores[sessionID] = loaded
	return loaded
}

// Forget drops the in-process cart so the next Get reloads it from storage.
func (r *Registry) Forget(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.stores, sessionID)
}
