// Package ratelimit tracks the football-data.org request quota.
// It reads the X-Requests-Available-Minute and X-RequestCounter-Reset
// response headers and keeps the latest state in Redis so that every
// seeding process sharing an API key sees the same quota.
package ratelimit

import (
	"time"
)

// Redis keys for quota state storage.
const (
	RedisKeyAvailable      = "fut:quota:available"
	RedisKeyResetTimestamp = "fut:quota:reset_timestamp"
	RedisKeyLastUpdate     = "fut:quota:last_update"
)

// Response headers carrying the quota.
const (
	HeaderAvailable = "X-Requests-Available-Minute"
	HeaderReset     = "X-RequestCounter-Reset"
)

const (
	// QuotaThresholdLow marks the quota as low. The free tier allows
	// 10 requests per minute, so two left means the next window will
	// likely be answered with 429.
	QuotaThresholdLow = 2

	// DefaultAvailable is assumed until the first response is seen.
	DefaultAvailable = 10
)

// State is the last known request quota.
type State struct {
	// Available is the number of requests left in the current minute.
	Available int `json:"available"`

	// ResetAt is when the request counter resets.
	ResetAt time.Time `json:"reset_at"`

	// LastUpdate is when this state was recorded.
	LastUpdate time.Time `json:"last_update"`

	// IsHealthy is true while Available >= QuotaThresholdLow.
	IsHealthy bool `json:"is_healthy"`
}

// IsStale returns true if the state is older than maxAge.
func (s *State) IsStale(maxAge time.Duration) bool {
	return time.Since(s.LastUpdate) > maxAge
}

// IsExhausted returns true if no request is left before the reset.
func (s *State) IsExhausted() bool {
	return s.Available <= 0
}

// IsLow returns true if the quota is below QuotaThresholdLow.
func (s *State) IsLow() bool {
	return s.Available < QuotaThresholdLow
}

// TimeUntilReset returns the duration until the counter resets, or 0.
func (s *State) TimeUntilReset() time.Duration {
	d := time.Until(s.ResetAt)
	if d < 0 {
		return 0
	}
	return d
}

// UpdateHealth recomputes IsHealthy from Available.
func (s *State) UpdateHealth() {
	s.IsHealthy = !s.IsLow()
}
