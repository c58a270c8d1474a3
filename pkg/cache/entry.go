// Package cache keeps decoded upstream team windows in Redis so that a
// seeding run repeated after a failure does not spend request quota on
// windows it already fetched.
package cache

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Sternrassler/fut-api/pkg/teams"
)

// DefaultTTL is used when the upstream response carries no freshness headers.
const DefaultTTL = 24 * time.Hour

// Entry is one cached window.
type Entry struct {
	Teams []teams.Team `json:"teams"`

	// Expires is when the entry becomes stale
	Expires time.Time `json:"expires"`

	// CachedAt is when the window was fetched
	CachedAt time.Time `json:"cached_at"`
}

// NewEntry builds an entry for a decoded window, taking the expiry from
// Cache-Control max-age or Expires and falling back to fallback.
func NewEntry(list []teams.Team, headers http.Header, fallback time.Duration) *Entry {
	now := time.Now()
	return &Entry{
		Teams:    list,
		Expires:  parseExpires(headers, now, fallback),
		CachedAt: now,
	}
}

// IsExpired returns true if the entry has expired.
func (e *Entry) IsExpired() bool {
	return time.Now().After(e.Expires)
}

// TTL returns the time until expiration, or 0.
func (e *Entry) TTL() time.Duration {
	ttl := time.Until(e.Expires)
	if ttl < 0 {
		return 0
	}
	return ttl
}

func parseExpires(headers http.Header, now time.Time, fallback time.Duration) time.Time {
	if fallback <= 0 {
		fallback = DefaultTTL
	}
	if headers == nil {
		return now.Add(fallback)
	}

	for _, directive := range strings.Split(headers.Get("Cache-Control"), ",") {
		directive = strings.TrimSpace(directive)
		if directive == "no-store" || directive == "no-cache" {
			return now
		}
		if v, ok := strings.CutPrefix(directive, "max-age="); ok {
			if seconds, err := strconv.Atoi(v); err == nil && seconds >= 0 {
				return now.Add(time.Duration(seconds) * time.Second)
			}
		}
	}

	if expiresStr := headers.Get("Expires"); expiresStr != "" {
		expires, err := http.ParseTime(expiresStr)
		if err != nil {
			return now.Add(fallback)
		}
		if expires.Before(now) {
			return now
		}
		return expires
	}

	return now.Add(fallback)
}
