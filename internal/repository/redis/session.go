package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Mtaasisi/POS-sub013/internal/domain"
	apperrors "github.com/Mtaasisi/POS-sub013/pkg/errors"
)

const keyPrefix = "pos:txn:"

// SessionRepository implements repository.SessionRepository using Redis.
// Snapshots live under a TTL so abandoned registers do not accumulate.
type SessionRepository struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSessionRepository creates a new Redis-backed session repository.
func NewSessionRepository(client *redis.Client, ttl time.Duration) *SessionRepository {
	return &SessionRepository{
		client: client,
		ttl:    ttl,
	}
}

// Create inserts a new transaction snapshot. An existing snapshot with the
// same ID is a conflict.
func (r *SessionRepository) Create(ctx context.Context, txn *domain.Transaction) error {
	key := keyPrefix + txn.ID

	data, err := json.Marshal(txn)
	if err != nil {
		return fmt.Errorf("marshal transaction: %w", err)
	}

	ok, err := r.client.SetNX(ctx, key, data, r.ttl).Result()
	if err != nil {
		return fmt.Errorf("redis setnx transaction: %w", err)
	}
	if !ok {
		return apperrors.Conflict("transaction already exists")
	}

	return nil
}

// Get retrieves a transaction snapshot by ID.
func (r *SessionRepository) Get(ctx context.Context, id string) (*domain.Transaction, error) {
	key := keyPrefix + id

	data, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, apperrors.NotFound("transaction", id)
		}
		return nil, fmt.Errorf("redis get transaction: %w", err)
	}

	var txn domain.Transaction
	if err := json.Unmarshal(data, &txn); err != nil {
		return nil, fmt.Errorf("unmarshal transaction: %w", err)
	}

	return &txn, nil
}

// Update replaces an existing transaction snapshot and refreshes its TTL.
func (r *SessionRepository) Update(ctx context.Context, txn *domain.Transaction) error {
	key := keyPrefix + txn.ID

	data, err := json.Marshal(txn)
	if err != nil {
		return fmt.Errorf("marshal transaction: %w", err)
	}

	ok, err := r.client.SetXX(ctx, key, data, r.ttl).Result()
	if err != nil {
		return fmt.Errorf("redis setxx transaction: %w", err)
	}
	if !ok {
		return apperrors.NotFound("transaction", txn.ID)
	}

	return nil
}

// Delete removes a transaction snapshot. Deleting an absent snapshot is not
// an error.
func (r *SessionRepository) Delete(ctx context.Context, id string) error {
	key := keyPrefix + id

	if err := r.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis del transaction: %w", err)
	}

	return nil
}
