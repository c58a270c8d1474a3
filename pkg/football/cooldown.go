package football

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	// DefaultCooldownDuration is how long the client waits after a 429.
	DefaultCooldownDuration = 60 * time.Second

	// DefaultCooldownTick is the countdown logging interval.
	DefaultCooldownTick = time.Second
)

var (
	cooldownsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fut_cooldowns_total",
		Help: "Total number of rate-limit cooldowns started",
	})

	cooldownSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "fut_cooldown_seconds",
		Help:    "Time actually spent waiting in rate-limit cooldowns",
		Buckets: []float64{1, 5, 15, 30, 60, 120},
	})
)

// Cooldown suspends the caller after a rate-limited response.
type Cooldown interface {
	Wait(ctx context.Context) error
}

// CooldownFunc adapts a function to the Cooldown interface.
type CooldownFunc func(ctx context.Context) error

// Wait calls f(ctx).
func (f CooldownFunc) Wait(ctx context.Context) error {
	return f(ctx)
}

// FixedCooldown waits a fixed duration on every call. There is no jitter
// and no growth between calls.
type FixedCooldown struct {
	// Duration is the full wait.
	Duration time.Duration

	// Tick is the interval between countdown log lines.
	Tick time.Duration

	logger zerolog.Logger
}

// NewFixedCooldown returns a cooldown of the given duration. Non-positive
// values fall back to the defaults.
func NewFixedCooldown(duration, tick time.Duration) *FixedCooldown {
	if duration <= 0 {
		duration = DefaultCooldownDuration
	}
	if tick <= 0 {
		tick = DefaultCooldownTick
	}
	return &FixedCooldown{
		Duration: duration,
		Tick:     tick,
		logger:   log.With().Str("component", "cooldown").Logger(),
	}
}

// Wait blocks for Duration, logging the time left every Tick.
// It returns early with ErrCooldownCancelled when ctx ends.
func (c *FixedCooldown) Wait(ctx context.Context) error {
	duration, tick := c.Duration, c.Tick
	if duration <= 0 {
		duration = DefaultCooldownDuration
	}
	if tick <= 0 || tick > duration {
		tick = duration
	}

	cooldownsTotal.Inc()
	start := time.Now()
	defer func() {
		cooldownSeconds.Observe(time.Since(start).Seconds())
	}()

	deadline := time.NewTimer(duration)
	defer deadline.Stop()
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	c.logger.Info().Dur("cooldown", duration).Msg("Rate limited, waiting before retry")

	for {
		select {
		case <-ctx.Done():
			c.logger.Warn().
				Dur("waited", time.Since(start)).
				Msg("Cooldown interrupted")
			return fmt.Errorf("%w: %w", ErrCooldownCancelled, ctx.Err())
		case <-deadline.C:
			c.logger.Info().Msg("Retrying now")
			return nil
		case <-ticker.C:
			left := duration - time.Since(start)
			if left > 0 {
				c.logger.Debug().
					Int("seconds_left", int(left.Round(time.Second).Seconds())).
					Msg("Retrying in")
			}
		}
	}
}
