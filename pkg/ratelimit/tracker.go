package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

var (
	quotaAvailable = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "fut_quota_available",
		Help: "Requests available in the current upstream quota window",
	})

	quotaLowTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fut_quota_low_total",
		Help: "Total number of responses that reported a low upstream quota",
	})
)

// Tracker records the upstream quota reported on every response.
type Tracker struct {
	redis  *redis.Client
	logger zerolog.Logger
}

// NewTracker creates a new quota tracker.
func NewTracker(redisClient *redis.Client, logger zerolog.Logger) *Tracker {
	return &Tracker{
		redis:  redisClient,
		logger: logger,
	}
}

// GetState returns the quota state stored in Redis, or a default healthy
// state if nothing has been recorded yet.
func (t *Tracker) GetState(ctx context.Context) (*State, error) {
	available, err := t.redis.Get(ctx, RedisKeyAvailable).Int()
	if errors.Is(err, redis.Nil) {
		t.logger.Debug().Msg("No quota state in Redis, assuming healthy")
		now := time.Now()
		return &State{
			Available:  DefaultAvailable,
			ResetAt:    now.Add(time.Minute),
			LastUpdate: now,
			IsHealthy:  true,
		}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get available: %w", err)
	}

	resetTimestamp, err := t.redis.Get(ctx, RedisKeyResetTimestamp).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("get reset timestamp: %w", err)
	}

	lastUpdate, err := t.redis.Get(ctx, RedisKeyLastUpdate).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("get last update: %w", err)
	}

	state := &State{
		Available:  available,
		ResetAt:    time.Unix(resetTimestamp, 0),
		LastUpdate: time.Unix(lastUpdate, 0),
	}
	state.UpdateHealth()

	return state, nil
}

// UpdateFromHeaders parses the quota headers and stores the state in Redis.
// It returns nil state and nil error when the response carries no quota.
func (t *Tracker) UpdateFromHeaders(ctx context.Context, headers http.Header) (*State, error) {
	availableStr := headers.Get(HeaderAvailable)
	if availableStr == "" {
		return nil, nil
	}

	available, err := parseIntHeader(availableStr)
	if err != nil {
		return nil, fmt.Errorf("parse %s header: %w", HeaderAvailable, err)
	}

	now := time.Now()
	state := &State{
		Available:  available,
		ResetAt:    now.Add(time.Minute),
		LastUpdate: now,
	}

	if resetStr := headers.Get(HeaderReset); resetStr != "" {
		resetSeconds, err := parseIntHeader(resetStr)
		if err != nil {
			return nil, fmt.Errorf("parse %s header: %w", HeaderReset, err)
		}
		state.ResetAt = now.Add(time.Duration(resetSeconds) * time.Second)
	}
	state.UpdateHealth()

	pipe := t.redis.Pipeline()
	pipe.Set(ctx, RedisKeyAvailable, state.Available, 0)
	pipe.Set(ctx, RedisKeyResetTimestamp, state.ResetAt.Unix(), 0)
	pipe.Set(ctx, RedisKeyLastUpdate, state.LastUpdate.Unix(), 0)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("store quota state in redis: %w", err)
	}

	quotaAvailable.Set(float64(state.Available))

	if state.IsLow() {
		quotaLowTotal.Inc()
		t.logger.Warn().
			Int("available", state.Available).
			Dur("reset_in", state.TimeUntilReset()).
			Msg("Upstream quota low")
	} else {
		t.logger.Debug().
			Int("available", state.Available).
			Time("reset_at", state.ResetAt).
			Msg("Upstream quota updated")
	}

	return state, nil
}

func parseIntHeader(value string) (int, error) {
	return strconv.Atoi(value)
}
