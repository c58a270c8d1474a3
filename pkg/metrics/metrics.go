// Package metrics exposes the Prometheus registry used by the seeder.
// All metrics are defined in their respective packages (football, cache,
// ratelimit, ingest, store, seed) and registered via promauto.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

// Path is where the metrics handler is mounted.
const Path = "/metrics"

// Registry is the default Prometheus registry all packages register with.
var Registry = prometheus.DefaultRegisterer

// Handler returns the Prometheus scrape handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// NewServer returns an HTTP server exposing Handler at Path and a /health endpoint.
func NewServer(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle(Path, Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	return &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
}

// Serve runs a metrics server on addr until ctx is done.
func Serve(ctx context.Context, addr string) error {
	srv := NewServer(addr)
	logger := log.With().Str("component", "metrics").Logger()

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", addr).Msg("Serving metrics")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// Metrics Documentation
//
// Upstream Metrics (pkg/football):
//   - fut_upstream_requests_total{status} (Counter): Window requests by HTTP status
//   - fut_upstream_request_duration_seconds (Histogram): Request duration
//   - fut_upstream_errors_total{class} (Counter): Failures by class (client, server, rate_limit, network, decode)
//   - fut_upstream_retries_total (Counter): Windows retried after a cooldown
//   - fut_cooldowns_total (Counter): Rate-limit cooldowns started
//   - fut_cooldown_seconds (Histogram): Time spent cooling down
//
// Quota Metrics (pkg/ratelimit):
//   - fut_quota_available (Gauge): Requests left in the current minute
//   - fut_quota_low_total (Counter): Responses reporting a low quota
//
// Cache Metrics (pkg/cache):
//   - fut_cache_hits_total (Counter): Windows served from Redis
//   - fut_cache_misses_total (Counter): Cache misses
//   - fut_cache_errors_total{operation} (Counter): Cache operation errors
//
// Ingestion Metrics (pkg/ingest):
//   - fut_ingest_windows_total (Counter): Windows fetched
//   - fut_ingest_teams_total{result} (Counter): Teams seen, valid or invalid
//   - fut_ingest_remaining (Gauge): Valid teams still needed by the current run
//
// Store Metrics (pkg/store):
//   - fut_store_inserted_total (Counter): Rows inserted
//   - fut_store_errors_total{operation} (Counter): Store errors (count, insert, get)
//
// Seeding Metrics (pkg/seed):
//   - fut_seed_runs_total{outcome} (Counter): Runs by outcome (ok, failed, cancelled)
//   - fut_seed_run_duration_seconds (Histogram): Successful run duration
//
// Example Prometheus Queries:
//
//   # Share of upstream teams without a crest
//   rate(fut_ingest_teams_total{result="invalid"}[1h]) / rate(fut_ingest_teams_total[1h])
//
//   # Rate limiting
//   increase(fut_cooldowns_total[1h])
//
//   # P95 upstream latency
//   histogram_quantile(0.95, rate(fut_upstream_request_duration_seconds_bucket[5m]))
