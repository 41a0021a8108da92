package repository

import (
	"context"

	"github.com/Mtaasisi/POS-sub013/internal/domain"
)

// SessionRepository defines the interface for transaction snapshot persistence.
type SessionRepository interface {
	// Create inserts a new transaction snapshot into the store.
	Create(ctx context.Context, txn *domain.Transaction) error

	// Get retrieves a transaction snapshot by its unique identifier.
	Get(ctx context.Context, id string) (*domain.Transaction, error)

	// Update replaces an existing transaction snapshot in the store.
	Update(ctx context.Context, txn *domain.Transaction) error

	// Delete removes a transaction snapshot from the store.
	Delete(ctx context.Context, id string) error
}
