package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var (
	// ErrCacheMiss indicates no usable entry is stored for the window.
	ErrCacheMiss = errors.New("cache miss")

	// ErrInvalidEntry indicates a stored window could not be used as a page.
	ErrInvalidEntry = errors.New("invalid cache entry")
)

// Manager stores decoded team windows in Redis, one key per window.
type Manager struct {
	redis  *redis.Client
	logger zerolog.Logger
}

// NewManager returns a Manager on top of redisClient.
func NewManager(redisClient *redis.Client) *Manager {
	if redisClient == nil {
		panic("redis client cannot be nil")
	}
	return &Manager{
		redis:  redisClient,
		logger: log.With().Str("component", "cache").Logger(),
	}
}

// Get returns the stored page for key. A missing or expired window is
// ErrCacheMiss. A window holding more teams than its limit is
// ErrInvalidEntry and is removed, since the accumulator would count the
// extra teams towards the next offset.
func (m *Manager) Get(ctx context.Context, key WindowKey) (*Entry, error) {
	raw, err := m.redis.Get(ctx, key.String()).Bytes()
	switch {
	case errors.Is(err, redis.Nil):
		CacheMisses.Inc()
		return nil, ErrCacheMiss
	case err != nil:
		CacheErrors.WithLabelValues("get").Inc()
		return nil, fmt.Errorf("read window %d+%d: %w", key.Offset, key.Limit, err)
	}

	var entry Entry
	if err := json.Unmarshal(raw, &entry); err != nil {
		CacheErrors.WithLabelValues("get").Inc()
		return nil, fmt.Errorf("%w: window %d+%d: %v", ErrInvalidEntry, key.Offset, key.Limit, err)
	}
	if key.Limit > 0 && len(entry.Teams) > key.Limit {
		CacheErrors.WithLabelValues("get").Inc()
		_ = m.Delete(ctx, key)
		return nil, fmt.Errorf("%w: window %d+%d holds %d teams", ErrInvalidEntry, key.Offset, key.Limit, len(entry.Teams))
	}

	if entry.IsExpired() {
		_ = m.Delete(ctx, key)
		CacheMisses.Inc()
		return nil, ErrCacheMiss
	}

	CacheHits.Inc()
	m.logger.Debug().
		Int("offset", key.Offset).
		Int("limit", key.Limit).
		Int("teams", len(entry.Teams)).
		Time("cached_at", entry.CachedAt).
		Msg("Window served from cache")
	return &entry, nil
}

// Set stores entry under key until entry.Expires.
//
// Empty windows are never stored: an empty page is how a run learns it has
// reached the end of the upstream list, and a later run must see the teams
// that were added there since.
func (m *Manager) Set(ctx context.Context, key WindowKey, entry *Entry) error {
	if entry == nil {
		return fmt.Errorf("cache entry cannot be nil")
	}
	if len(entry.Teams) == 0 {
		return nil
	}

	// no-store and past Expires both end up here
	ttl := entry.TTL()
	if ttl <= 0 {
		return nil
	}

	raw, err := json.Marshal(entry)
	if err != nil {
		CacheErrors.WithLabelValues("set").Inc()
		return fmt.Errorf("encode window %d+%d: %w", key.Offset, key.Limit, err)
	}

	if err := m.redis.Set(ctx, key.String(), raw, ttl).Err(); err != nil {
		CacheErrors.WithLabelValues("set").Inc()
		return fmt.Errorf("store window %d+%d: %w", key.Offset, key.Limit, err)
	}

	m.logger.Debug().
		Int("offset", key.Offset).
		Int("limit", key.Limit).
		Int("teams", len(entry.Teams)).
		Dur("ttl", ttl).
		Msg("Window cached")
	return nil
}

// Delete drops the stored page for key, if any.
func (m *Manager) Delete(ctx context.Context, key WindowKey) error {
	if err := m.redis.Del(ctx, key.String()).Err(); err != nil {
		CacheErrors.WithLabelValues("delete").Inc()
		return fmt.Errorf("delete window %d+%d: %w", key.Offset, key.Limit, err)
	}
	return nil
}
