// Package cache holds redis-backed stores for short-lived state.
package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const panelTokenPrefix = "panel:token:"

// ErrTokenNotCached is returned when no valid token is stored for the panel.
var ErrTokenNotCached = errors.New("panel token not cached")

// PanelTokenStore caches upstream panel access tokens with a TTL shorter than
// the panel's session lifetime, so the client re-logs-in before tokens go
// stale instead of discovering it with a 401.
type PanelTokenStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewPanelTokenStore(client *redis.Client, ttl time.Duration) *PanelTokenStore {
	if ttl <= 0 {
		ttl = 50 * time.Minute
	}
	return &PanelTokenStore{client: client, ttl: ttl}
}

func (s *PanelTokenStore) Get(ctx context.Context, panelID uint) (string, error) {
	token, err := s.client.Get(ctx, panelTokenKey(panelID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrTokenNotCached
	}
	if err != nil {
		return "", fmt.Errorf("failed to read panel token: %w", err)
	}
	return token, nil
}

func (s *PanelTokenStore) Set(ctx context.Context, panelID uint, token string) error {
	if err := s.client.Set(ctx, panelTokenKey(panelID), token, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store panel token: %w", err)
	}
	return nil
}

func (s *PanelTokenStore) Delete(ctx context.Context, panelID uint) error {
	if err := s.client.Del(ctx, panelTokenKey(panelID)).Err(); err != nil {
		return fmt.Errorf("failed to delete panel token: %w", err)
	}
	return nil
}

func panelTokenKey(panelID uint) string {
	return panelTokenPrefix + strconv.FormatUint(uint64(panelID), 10)
}
