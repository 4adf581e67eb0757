package cache

import "sync"

// Registry hands out one Store per user. It replaces the original design's
// ambient process-wide email list with an explicit, injectable object: the
// registry is created once at server construction and passed to whoever
// needs cache access.
type Registry struct {
	mu        sync.Mutex
	stores    map[string]*Store
	newLoader func(userID string) Loader
}

func NewRegistry(newLoader func(userID string) Loader) *Registry {
	return &Registry{
		stores:    make(map[string]*Store),
		newLoader: newLoader,
	}
}

// ForUser returns the user's store, creating it on first use.
func (r *Registry) ForUser(userID string) *Store {
	r.mu.Lock()
	defer r.mu.Unlock()

	store, ok := r.stores[userID]
	if !ok {
		store = NewStore(r.newLoader(userID))
		r.stores[userID] = store
	}
	return store
}

// Remove drops a user's store, clearing it first. Called on logout.
func (r *Registry) Remove(userID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if store, ok := r.stores[userID]; ok {
		store.Clear()
		delete(r.stores, userID)
	}
}
