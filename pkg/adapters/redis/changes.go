package redis

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	backend "github.com/redis/go-redis/v9"

	"github.com/aretw0/canopy/pkg/domain"
)

// ChangeStore implements ports.ChangeStore with one Redis list per session.
type ChangeStore struct {
	client *backend.Client
	prefix string
	ttl    time.Duration
}

// NewChangeStore creates a change store. A zero ttl keeps logs until cleared.
func NewChangeStore(client *backend.Client, prefix string, ttl time.Duration) *ChangeStore {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &ChangeStore{client: client, prefix: prefix, ttl: ttl}
}

func (s *ChangeStore) key(sessionID string) string {
	return s.prefix + "changes:" + sessionID
}

// Append pushes the change at the tail of the session's list.
func (s *ChangeStore) Append(ctx context.Context, sessionID string, change domain.PendingChange) error {
	data, err := json.Marshal(change)
	if err != nil {
		return fmt.Errorf("failed to marshal change: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.RPush(ctx, s.key(sessionID), data)
	if s.ttl > 0 {
		pipe.Expire(ctx, s.key(sessionID), s.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to append change: %w", err)
	}
	return nil
}

// List returns the session's changes, oldest first.
func (s *ChangeStore) List(ctx context.Context, sessionID string) ([]domain.PendingChange, error) {
	raw, err := s.client.LRange(ctx, s.key(sessionID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list changes: %w", err)
	}

	out := make([]domain.PendingChange, 0, len(raw))
	for _, item := range raw {
		dec := json.NewDecoder(bytes.NewReader([]byte(item)))
		dec.UseNumber()
		var c domain.PendingChange
		if err := dec.Decode(&c); err != nil {
			return nil, fmt.Errorf("failed to unmarshal change: %w", err)
		}
		out = append(out, c)
	}
	return out, nil
}

// Len returns the length of the session's list.
func (s *ChangeStore) Len(ctx context.Context, sessionID string) (int, error) {
	n, err := s.client.LLen(ctx, s.key(sessionID)).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to count changes: %w", err)
	}
	return int(n), nil
}

// Clear deletes the session's list.
func (s *ChangeStore) Clear(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, s.key(sessionID)).Err(); err != nil {
		return fmt.Errorf("failed to clear changes: %w", err)
	}
	return nil
}
