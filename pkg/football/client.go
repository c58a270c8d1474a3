// Package football provides the football-data.org teams client used by the
// ingestion pipeline: limit/offset windows, response classification, and a
// single cooldown-and-retry on rate limiting.
package football

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Sternrassler/fut-api/pkg/cache"
	"github.com/Sternrassler/fut-api/pkg/ratelimit"
	"github.com/Sternrassler/fut-api/pkg/teams"
)

const (
	// DefaultBaseURL is the football-data.org v4 API.
	DefaultBaseURL = "https://api.football-data.org/v4"

	// AuthHeader carries the API key.
	AuthHeader = "X-Auth-Token"

	teamsEndpoint      = "/teams"
	defaultHTTPTimeout = 30 * time.Second
)

// Prometheus metrics for upstream requests.
var (
	upstreamRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fut_upstream_requests_total",
		Help: "Total upstream window requests by status",
	}, []string{"status"})

	upstreamRequestDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "fut_upstream_request_duration_seconds",
		Help:    "Upstream window request duration in seconds",
		Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10},
	})

	upstreamErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fut_upstream_errors_total",
		Help: "Total upstream failures by class",
	}, []string{"class"})

	upstreamRetriesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fut_upstream_retries_total",
		Help: "Total number of windows retried after a rate-limit cooldown",
	})
)

// Client fetches team windows from football-data.org.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	cooldown   Cooldown
	cache      *cache.Manager
	cacheTTL   time.Duration
	quota      *ratelimit.Tracker
	logger     zerolog.Logger
}

// Config holds the client configuration.
type Config struct {
	// BaseURL of the API, e.g. https://api.football-data.org/v4
	BaseURL string

	// APIKey is sent as X-Auth-Token (REQUIRED)
	APIKey string

	// HTTPClient overrides the default client (30s timeout)
	HTTPClient *http.Client

	// Cooldown runs after a 429, before the one retry
	Cooldown Cooldown

	// Cache stores successful windows (optional)
	Cache    *cache.Manager
	CacheTTL time.Duration

	// Quota records the request quota headers (optional)
	Quota *ratelimit.Tracker
}

// DefaultConfig returns a configuration for the public API with a 60 second cooldown.
func DefaultConfig(apiKey string) Config {
	return Config{
		BaseURL:  DefaultBaseURL,
		APIKey:   apiKey,
		Cooldown: NewFixedCooldown(DefaultCooldownDuration, DefaultCooldownTick),
		CacheTTL: cache.DefaultTTL,
	}
}

// New creates a new football-data client.
func New(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("api key is required")
	}

	baseURL := strings.TrimSuffix(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid base url %q", cfg.BaseURL)
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultHTTPTimeout}
	}

	cooldown := cfg.Cooldown
	if cooldown == nil {
		cooldown = NewFixedCooldown(DefaultCooldownDuration, DefaultCooldownTick)
	}

	return &Client{
		httpClient: httpClient,
		baseURL:    baseURL,
		apiKey:     cfg.APIKey,
		cooldown:   cooldown,
		cache:      cfg.Cache,
		cacheTTL:   cfg.CacheTTL,
		quota:      cfg.Quota,
		logger:     log.With().Str("component", "football-client").Logger(),
	}, nil
}

// teamsResponse is the body of GET /teams.
type teamsResponse struct {
	Teams []teams.Team `json:"teams"`
}

// FetchWindow requests one window of teams.
//
// An empty slice with a nil error means upstream has no more teams. A 429
// triggers one cooldown and one retry of the same window; the retry's outcome
// is returned as-is. Every other failure is logged and returned as *APIError.
func (c *Client) FetchWindow(ctx context.Context, w Window) ([]teams.Team, error) {
	if err := w.Validate(); err != nil {
		return nil, err
	}

	key := cache.WindowKey{Endpoint: teamsEndpoint, Limit: w.Limit, Offset: w.Offset}
	if c.cache != nil {
		entry, err := c.cache.Get(ctx, key)
		switch {
		case err == nil:
			c.logger.Debug().Stringer("window", w).Int("teams", len(entry.Teams)).Msg("Window served from cache")
			return entry.Teams, nil
		case !errors.Is(err, cache.ErrCacheMiss):
			c.logger.Warn().Err(err).Stringer("window", w).Msg("Cache get error")
		}
	}

	list, headers, err := c.fetch(ctx, w)
	var apiErr *APIError
	if errors.As(err, &apiErr) && shouldRetry(apiErr.Class) {
		c.logger.Warn().
			Stringer("window", w).
			Int("status", apiErr.StatusCode).
			Msg("Too many requests, cooling down")

		if waitErr := c.cooldown.Wait(ctx); waitErr != nil {
			return nil, waitErr
		}

		upstreamRetriesTotal.Inc()
		c.logger.Info().Stringer("window", w).Msg("Retrying window")
		list, headers, err = c.fetch(ctx, w)
	}

	if err != nil {
		event := c.logger.Error().Err(err).Int("limit", w.Limit).Int("offset", w.Offset)
		if errors.As(err, &apiErr) {
			event = event.Int("status", apiErr.StatusCode).Str("error_class", string(apiErr.Class))
		}
		event.Msg("Error fetching team data")
		return nil, err
	}

	if c.cache != nil && len(list) > 0 {
		if err := c.cache.Set(ctx, key, cache.NewEntry(list, headers, c.cacheTTL)); err != nil {
			c.logger.Warn().Err(err).Stringer("window", w).Msg("Failed to cache window")
		}
	}

	return list, nil
}

// fetch performs one GET /teams request without retrying.
func (c *Client) fetch(ctx context.Context, w Window) ([]teams.Team, http.Header, error) {
	req, err := c.buildRequest(ctx, w)
	if err != nil {
		return nil, nil, fmt.Errorf("create request: %w", err)
	}

	c.logger.Debug().Str("url", req.URL.String()).Msg("Requesting window")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	upstreamRequestDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, nil, ctxErr
		}
		upstreamErrorsTotal.WithLabelValues(string(ErrorClassNetwork)).Inc()
		upstreamRequestsTotal.WithLabelValues("network_error").Inc()
		return nil, nil, &APIError{
			Window:  w,
			Class:   ErrorClassNetwork,
			Message: "request failed",
			Err:     err,
		}
	}
	defer resp.Body.Close()

	upstreamRequestsTotal.WithLabelValues(strconv.Itoa(resp.StatusCode)).Inc()

	if c.quota != nil {
		if _, err := c.quota.UpdateFromHeaders(ctx, resp.Header); err != nil {
			c.logger.Warn().Err(err).Msg("Failed to update quota from headers")
		}
	}

	if class := classifyStatus(resp.StatusCode); class != "" {
		upstreamErrorsTotal.WithLabelValues(string(class)).Inc()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		message := strings.TrimSpace(string(body))
		if message == "" {
			message = resp.Status
		}
		return nil, resp.Header, &APIError{
			Window:     w,
			StatusCode: resp.StatusCode,
			Class:      class,
			Message:    message,
		}
	}

	var payload teamsResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		upstreamErrorsTotal.WithLabelValues(string(ErrorClassDecode)).Inc()
		return nil, resp.Header, &APIError{
			Window:     w,
			StatusCode: resp.StatusCode,
			Class:      ErrorClassDecode,
			Message:    "malformed teams body",
			Err:        err,
		}
	}

	return payload.Teams, resp.Header, nil
}

func (c *Client) buildRequest(ctx context.Context, w Window) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+teamsEndpoint, nil)
	if err != nil {
		return nil, err
	}

	q := req.URL.Query()
	q.Set("limit", strconv.Itoa(w.Limit))
	q.Set("offset", strconv.Itoa(w.Offset))
	req.URL.RawQuery = q.Encode()

	req.Header.Set(AuthHeader, c.apiKey)
	req.Header.Set("Accept", "application/json")

	return req, nil
}

// classifyStatus returns the failure class of a status code, or "" for 2xx.
func classifyStatus(status int) ErrorClass {
	switch {
	case status >= 200 && status < 300:
		return ""
	case status == http.StatusTooManyRequests:
		return ErrorClassRateLimit
	case status >= 500:
		return ErrorClassServer
	default:
		return ErrorClassClient
	}
}

// Close releases idle connections.
func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}
