// Package testutil provides testing utilities for the football-data client
// and the ingestion pipeline.
package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"

	"github.com/Sternrassler/fut-api/pkg/teams"
)

// RequestedWindow is one limit/offset pair seen by the mock.
type RequestedWindow struct {
	Limit  int
	Offset int
}

type failure struct {
	status int
	body   string
	once   bool
}

// MockFootball is an httptest server that serves GET /teams from an
// in-memory list, like football-data.org does.
type MockFootball struct {
	server *httptest.Server
	mu     sync.Mutex

	teams     []teams.Team
	pageSize  int
	failures  map[int]*failure
	available int
	reset     int

	requests          []RequestedWindow
	lastRequestHeader http.Header
}

// NewMockFootball creates a mock serving the given teams.
func NewMockFootball(list []teams.Team) *MockFootball {
	mock := &MockFootball{
		teams:     list,
		failures:  make(map[int]*failure),
		available: -1,
	}
	mock.server = httptest.NewServer(http.HandlerFunc(mock.handle))
	return mock
}

// URL returns the mock server base URL.
func (m *MockFootball) URL() string {
	return m.server.URL
}

// Close shuts down the mock server.
func (m *MockFootball) Close() {
	m.server.Close()
}

// SetPageSize caps every page at n teams regardless of the requested limit.
func (m *MockFootball) SetPageSize(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pageSize = n
}

// SetQuota makes every response carry the quota headers.
func (m *MockFootball) SetQuota(available, resetSeconds int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.available = available
	m.reset = resetSeconds
}

// RateLimitOnce answers the next request at offset with 429.
func (m *MockFootball) RateLimitOnce(offset int) {
	m.FailOnce(offset, http.StatusTooManyRequests, `{"message":"You reached your request limit. Wait 60 seconds.","errorCode":429}`)
}

// FailOnce answers the next request at offset with status and body.
func (m *MockFootball) FailOnce(offset, status int, body string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures[offset] = &failure{status: status, body: body, once: true}
}

// FailAlways answers every request at offset with status and body.
func (m *MockFootball) FailAlways(offset, status int, body string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures[offset] = &failure{status: status, body: body}
}

// Requests returns the windows requested so far, in order.
func (m *MockFootball) Requests() []RequestedWindow {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]RequestedWindow, len(m.requests))
	copy(out, m.requests)
	return out
}

// RequestCount returns the number of requests made to the server.
func (m *MockFootball) RequestCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}

// LastRequestHeader returns the headers of the most recent request.
func (m *MockFootball) LastRequestHeader() http.Header {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastRequestHeader
}

func (m *MockFootball) handle(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/teams" {
		http.Error(w, `{"message":"not found"}`, http.StatusNotFound)
		return
	}

	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil {
		http.Error(w, `{"message":"bad limit"}`, http.StatusBadRequest)
		return
	}
	offset, err := strconv.Atoi(r.URL.Query().Get("offset"))
	if err != nil {
		http.Error(w, `{"message":"bad offset"}`, http.StatusBadRequest)
		return
	}

	m.mu.Lock()
	m.requests = append(m.requests, RequestedWindow{Limit: limit, Offset: offset})
	m.lastRequestHeader = r.Header.Clone()

	if m.available >= 0 {
		w.Header().Set("X-Requests-Available-Minute", strconv.Itoa(m.available))
		w.Header().Set("X-RequestCounter-Reset", strconv.Itoa(m.reset))
	}

	if f, ok := m.failures[offset]; ok {
		if f.once {
			delete(m.failures, offset)
		}
		m.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(f.status)
		w.Write([]byte(f.body))
		return
	}

	page := m.page(limit, offset)
	m.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"count":   len(page),
		"filters": map[string]int{"limit": limit, "offset": offset},
		"teams":   page,
	})
}

func (m *MockFootball) page(limit, offset int) []teams.Team {
	if m.pageSize > 0 {
		limit = m.pageSize
	}
	if offset >= len(m.teams) {
		return []teams.Team{}
	}
	end := offset + limit
	if end > len(m.teams) {
		end = len(m.teams)
	}
	return m.teams[offset:end]
}

// GenerateTeams builds n teams with upstream ids 1..n. Teams for which
// valid(i) is false get an empty crest.
func GenerateTeams(n int, valid func(i int) bool) []teams.Team {
	list := make([]teams.Team, n)
	for i := range list {
		list[i] = teams.Team{
			ID:   int64(i + 1),
			Name: fmt.Sprintf("Team %d FC", i+1),
		}
		if valid == nil || valid(i) {
			list[i].Crest = fmt.Sprintf("https://crests.football-data.org/%d.png", i+1)
		}
	}
	return list
}

// AllValid marks every team as valid.
func AllValid(int) bool { return true }

// EveryOther marks even-indexed teams as valid.
func EveryOther(i int) bool { return i%2 == 0 }
