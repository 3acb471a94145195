package sync

import (
	"context"

	"github.com/google/uuid"
)

// ProductLocker guarantees at-most-one in-flight reconciliation per product.
// Implementations live in the infrastructure layer: an in-process keyed
// mutex for single-instance deployments and a Redis lease lock when several
// instances share the ledger.
type ProductLocker interface {
	// TryLock attempts to acquire the lock for a product without blocking.
	// Returns false when another reconciliation holds it.
	TryLock(ctx context.Context, productID uuid.UUID) (bool, error)

	// Unlock releases the lock for a product
	Unlock(ctx context.Context, productID uuid.UUID) error
}
