package performance

import (
	"sync"

	"github.com/bobmcallan/carteira/internal/models"
)

// PositionCache holds loaded positions per user between requests. It is
// owned by the caller and shared with every service that mutates purchases,
// which must call Invalidate after each change.
//
// Every invalidation moves the user to a new generation. A loader takes the
// generation from Get before reading the store and hands it back to Set, so
// a read that raced a mutation is discarded instead of cached.
type PositionCache struct {
	mu      sync.RWMutex
	entries map[string][]models.Position
	gens    map[string]uint64
	counter uint64
	floor   uint64
}

// NewPositionCache creates an empty cache.
func NewPositionCache() *PositionCache {
	return &PositionCache{
		entries: make(map[string][]models.Position),
		gens:    make(map[string]uint64),
	}
}

func (c *PositionCache) generation(userID string) uint64 {
	return max(c.gens[userID], c.floor)
}

// Get returns a copy of the cached positions for a user and the user's
// current generation, which is also returned on a miss.
func (c *PositionCache) Get(userID string) ([]models.Position, uint64, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	gen := c.generation(userID)
	positions, ok := c.entries[userID]
	if !ok {
		return nil, gen, false
	}
	out := make([]models.Position, len(positions))
	copy(out, positions)
	return out, gen, true
}

// Set caches positions loaded under gen. It reports false, storing nothing,
// when the user was invalidated since gen was read.
func (c *PositionCache) Set(userID string, gen uint64, positions []models.Position) bool {
	stored := make([]models.Position, len(positions))
	copy(stored, positions)
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.generation(userID) != gen {
		return false
	}
	c.entries[userID] = stored
	return true
}

// Invalidate drops the cached positions for a user.
func (c *PositionCache) Invalidate(userID string) {
	c.mu.Lock()
	c.counter++
	c.gens[userID] = c.counter
	delete(c.entries, userID)
	c.mu.Unlock()
}

// InvalidateAll empties the cache.
func (c *PositionCache) InvalidateAll() {
	c.mu.Lock()
	c.counter++
	c.floor = c.counter
	c.entries = make(map[string][]models.Position)
	c.gens = make(map[string]uint64)
	c.mu.Unlock()
}
