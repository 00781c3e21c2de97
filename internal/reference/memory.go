package reference

import (
	"context"
	"sync"

	"customs-clearance/internal/domain"
)

// MemoryCounter keeps sequences in process memory. Suitable for a single API
// instance and for tests.
type MemoryCounter struct {
	mu        sync.Mutex
	sequences map[string]int64
}

func NewMemoryCounter() *MemoryCounter {
	return &MemoryCounter{sequences: make(map[string]int64)}
}

func (c *MemoryCounter) Next(ctx context.Context, transactionType domain.TransactionType, year string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	key := string(transactionType) + year
	c.sequences[key]++
	return c.sequences[key], nil
}
