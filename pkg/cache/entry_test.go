package cache

import (
	"net/http"
	"testing"
	"time"

	"github.com/Sternrassler/fut-api/pkg/teams"
)

func TestEntry_IsExpired(t *testing.T) {
	fresh := &Entry{Expires: time.Now().Add(time.Minute)}
	if fresh.IsExpired() {
		t.Error("fresh entry should not be expired")
	}
	if fresh.TTL() <= 0 {
		t.Errorf("TTL() = %v, want > 0", fresh.TTL())
	}

	stale := &Entry{Expires: time.Now().Add(-time.Minute)}
	if !stale.IsExpired() {
		t.Error("stale entry should be expired")
	}
	if stale.TTL() != 0 {
		t.Errorf("TTL() = %v, want 0", stale.TTL())
	}
}

func TestNewEntry_Expiry(t *testing.T) {
	list := []teams.Team{{ID: 1, Crest: "a.png"}}

	tests := []struct {
		name     string
		headers  http.Header
		fallback time.Duration
		minTTL   time.Duration
		maxTTL   time.Duration
	}{
		{
			name:     "no headers uses fallback",
			headers:  nil,
			fallback: time.Hour,
			minTTL:   59 * time.Minute,
			maxTTL:   time.Hour,
		},
		{
			name:     "zero fallback uses default",
			headers:  http.Header{},
			fallback: 0,
			minTTL:   DefaultTTL - time.Minute,
			maxTTL:   DefaultTTL,
		},
		{
			name:     "max-age wins",
			headers:  http.Header{"Cache-Control": []string{"public, max-age=120"}},
			fallback: time.Hour,
			minTTL:   110 * time.Second,
			maxTTL:   120 * time.Second,
		},
		{
			name:     "no-store is not cached",
			headers:  http.Header{"Cache-Control": []string{"no-store"}},
			fallback: time.Hour,
			minTTL:   0,
			maxTTL:   0,
		},
		{
			name:     "expires header",
			headers:  http.Header{"Expires": []string{time.Now().Add(10 * time.Minute).UTC().Format(http.TimeFormat)}},
			fallback: time.Hour,
			minTTL:   8 * time.Minute,
			maxTTL:   10 * time.Minute,
		},
		{
			name:     "unparsable expires uses fallback",
			headers:  http.Header{"Expires": []string{"tomorrow"}},
			fallback: 2 * time.Hour,
			minTTL:   119 * time.Minute,
			maxTTL:   2 * time.Hour,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entry := NewEntry(list, tt.headers, tt.fallback)
			ttl := entry.TTL()
			if ttl < tt.minTTL || ttl > tt.maxTTL {
				t.Errorf("TTL() = %v, want between %v and %v", ttl, tt.minTTL, tt.maxTTL)
			}
			if len(entry.Teams) != 1 {
				t.Errorf("Teams length = %d, want 1", len(entry.Teams))
			}
		})
	}
}
