package words

import (
	"context"
	"math/rand/v2"
	"sync"
)

// Cache stores generated batches keyed by theme.
type Cache interface {
	// Pop removes and returns one random pair for theme. The theme's entry
	// disappears once its last pair has been taken.
	Pop(ctx context.Context, theme string) (Pair, bool, error)

	// Store replaces the batch held for theme.
	Store(ctx context.Context, theme string, batch []Pair) error
}

// MemoryCache keeps batches for the lifetime of the process.
type MemoryCache struct {
	mu      sync.Mutex
	batches map[string][]Pair
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		batches: make(map[string][]Pair),
	}
}

func (c *MemoryCache) Pop(_ context.Context, theme string) (Pair, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	batch := c.batches[theme]
	if len(batch) == 0 {
		return Pair{}, false, nil
	}

	i := rand.IntN(len(batch))
	p := batch[i]

	batch[i] = batch[len(batch)-1]
	batch = batch[:len(batch)-1]

	if len(batch) == 0 {
		delete(c.batches, theme)
	} else {
		c.batches[theme] = batch
	}

	return p, true, nil
}

func (c *MemoryCache) Store(_ context.Context, theme string, batch []Pair) error {
	if len(batch) == 0 {
		return nil
	}

	stored := make([]Pair, len(batch))
	copy(stored, batch)

	c.mu.Lock()
	c.batches[theme] = stored
	c.mu.Unlock()

	return nil
}

// Len returns the number of pairs left for theme.
func (c *MemoryCache) Len(theme string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.batches[theme])
}
