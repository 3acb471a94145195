package cache

import (
	"context"
	"sync"

	"github.com/google/uuid"

	syncapp "github.com/crosslist/backend/internal/application/sync"
)

// MemoryProductLocker is an in-process product lock for single-instance
// deployments. Locks are plain map entries guarded by one mutex; lock
// hold times are short (one reconciliation), so contention on the outer
// mutex is not a concern.
type MemoryProductLocker struct {
	mu   sync.Mutex
	held map[uuid.UUID]bool
}

// NewMemoryProductLocker creates an in-process product locker
func NewMemoryProductLocker() *MemoryProductLocker {
	return &MemoryProductLocker{
		held: make(map[uuid.UUID]bool),
	}
}

// TryLock attempts to acquire the lock for a product without blocking
func (l *MemoryProductLocker) TryLock(ctx context.Context, productID uuid.UUID) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.held[productID] {
		return false, nil
	}
	l.held[productID] = true
	return true, nil
}

// Unlock releases the lock for a product. Unlocking a product that is
// not locked is a no-op.
func (l *MemoryProductLocker) Unlock(ctx context.Context, productID uuid.UUID) error {
	l.mu.Lock()
	delete(l.held, productID)
	l.mu.Unlock()
	return nil
}

// Ensure MemoryProductLocker implements the locker port
var _ syncapp.ProductLocker = (*MemoryProductLocker)(nil)
