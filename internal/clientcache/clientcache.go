// Package clientcache is the process-local client_id -> Client mapping
// used by the basic authorizer. It is authoritative only insofar as no
// rotation has occurred since the entry was loaded; eviction is driven
// by the rotation event fan-out in internal/events.
package clientcache

import (
	"sync"

	"github.com/authcore-dev/authd/internal/store"
)

// Cache is a concurrent client_id -> Client map. It is never held
// across an I/O call — callers populate it after a store read and
// evict it on event receipt.
type Cache struct {
	mu      sync.RWMutex
	clients map[string]store.Client
}

// New returns an empty cache.
func New() *Cache {
	return &Cache{clients: make(map[string]store.Client)}
}

// Get returns the cached client and true, or a zero value and false on
// a miss.
func (c *Cache) Get(clientID string) (store.Client, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	cl, ok := c.clients[clientID]
	return cl, ok
}

// Set populates the cache on a miss, after the caller has loaded the
// client from the store.
func (c *Cache) Set(client store.Client) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.clients[client.ID] = client
}

// Evict removes a client entry, forcing the next lookup to reload from
// the store. Called on receipt of a client.secret.rotated event.
func (c *Cache) Evict(clientID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.clients, clientID)
}

// Len reports the number of cached entries. Intended for tests and
// diagnostics.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.clients)
}
