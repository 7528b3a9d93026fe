package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ariefcatur/go-chat-orders/internal/redisx"
	"github.com/redis/go-redis/v9"
)

type RedisPendingStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisPendingStore(client *redis.Client, ttl time.Duration) *RedisPendingStore {
	return &RedisPendingStore{client: client, ttl: ttl}
}

func (r *RedisPendingStore) Save(ctx context.Context, tx PendingTransaction) error {
	b, err := json.Marshal(tx)
	if err != nil {
		return fmt.Errorf("marshal pending tx: %w", err)
	}
	if err := r.client.Set(ctx, pendingKey(tx.Reference), b, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set pending tx: %w", err)
	}
	return nil
}

func (r *RedisPendingStore) Get(ctx context.Context, reference string) (PendingTransaction, error) {
	data, err := r.client.Get(ctx, pendingKey(reference)).Bytes()
	if errors.Is(err, redis.Nil) {
		return PendingTransaction{}, ErrUnknownReference
	}
	if err != nil {
		return PendingTransaction{}, fmt.Errorf("redis get pending tx: %w", err)
	}
	var tx PendingTransaction
	if err := json.Unmarshal(data, &tx); err != nil {
		return PendingTransaction{}, fmt.Errorf("unmarshal pending tx: %w", err)
	}
	return tx, nil
}

func (r *RedisPendingStore) Delete(ctx context.Context, reference string) error {
	if err := r.client.Del(ctx, pendingKey(reference)).Err(); err != nil {
		return fmt.Errorf("redis delete pending tx: %w", err)
	}
	return nil
}

func pendingKey(reference string) string { return fmt.Sprintf(redisx.KeyPendingTx, reference) }
