package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/greendefi-labs/escrow-backend/internal/escrow/domain"
)

const (
	projectKeyPrefix = "escrow:project:" // JSON snapshot: escrow:project:{id}
	projectCountKey  = "escrow:projects:count"
	eventChannel     = "escrow:events" // Pub/Sub channel for ledger events
)

// SnapshotCache mirrors committed project state into Redis and publishes
// ledger events for external subscribers. It is a read model only; the
// in-memory Ledger stays authoritative. A nil *SnapshotCache is a no-op
// so the service runs without Redis in tests and local setups.
type SnapshotCache struct {
	client *redis.Client
}

func NewSnapshotCache(client *redis.Client) *SnapshotCache {
	return &SnapshotCache{client: client}
}

// Store writes the project snapshot and the running count in one
// pipeline.
func (c *SnapshotCache) Store(ctx context.Context, p *domain.Project, count uint64) error {
	if c == nil || c.client == nil {
		return nil
	}

	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal project snapshot: %w", err)
	}

	pipe := c.client.Pipeline()
	pipe.Set(ctx, c.projectKey(p.ID), data, 0)
	pipe.Set(ctx, projectCountKey, count, 0)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("store project snapshot: %w", err)
	}
	return nil
}

// Load reads a cached snapshot; domain.ErrNotFound when absent.
func (c *SnapshotCache) Load(ctx context.Context, id uint64) (*domain.Project, error) {
	if c == nil || c.client == nil {
		return nil, domain.ErrNotFound
	}

	data, err := c.client.Get(ctx, c.projectKey(id)).Result()
	if err == redis.Nil {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load project snapshot: %w", err)
	}

	var p domain.Project
	if err := json.Unmarshal([]byte(data), &p); err != nil {
		return nil, fmt.Errorf("unmarshal project snapshot: %w", err)
	}
	return &p, nil
}

// Publish emits a committed ledger event on the shared channel.
// Publish failures are the subscriber's loss, not the ledger's: callers
// log and move on.
func (c *SnapshotCache) Publish(ctx context.Context, ev domain.Event) error {
	if c == nil || c.client == nil {
		return nil
	}

	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if err := c.client.Publish(ctx, eventChannel, data).Err(); err != nil {
		return fmt.Errorf("publish event: %w", err)
	}
	return nil
}

func (c *SnapshotCache) projectKey(id uint64) string {
	return fmt.Sprintf("%s%d", projectKeyPrefix, id)
}
