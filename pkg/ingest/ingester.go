package ingest

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Sternrassler/fut-api/pkg/football"
	"github.com/Sternrassler/fut-api/pkg/teams"
)

// DefaultMaxWindows bounds the number of windows of one run.
const DefaultMaxWindows = 10_000

// maxPrealloc caps the result capacity reserved up front. The target is
// caller input and may be far larger than what upstream holds.
const maxPrealloc = 1024

var (
	ingestWindowsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fut_ingest_windows_total",
		Help: "Total number of windows fetched by the ingester",
	})

	ingestTeamsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fut_ingest_teams_total",
		Help: "Total number of fetched teams by validity",
	}, []string{"result"})

	ingestRemaining = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "fut_ingest_remaining",
		Help: "Valid teams still needed by the current run",
	})
)

// WindowFetcher fetches one window of teams. An empty slice means upstream
// is exhausted.
type WindowFetcher interface {
	FetchWindow(ctx context.Context, w football.Window) ([]teams.Team, error)
}

// Config holds ingester configuration.
type Config struct {
	// MaxWindows stops a run after this many windows even if the target
	// has not been reached. Guards against an upstream that keeps returning
	// pages without valid teams.
	MaxWindows int
}

// DefaultConfig returns the default ingester configuration.
func DefaultConfig() Config {
	return Config{
		MaxWindows: DefaultMaxWindows,
	}
}

// Ingester drives the accumulation loop.
type Ingester struct {
	fetcher WindowFetcher
	config  Config
	logger  zerolog.Logger
}

// NewIngester creates a new ingester.
func NewIngester(fetcher WindowFetcher, config Config) *Ingester {
	if config.MaxWindows <= 0 {
		config.MaxWindows = DefaultMaxWindows
	}

	return &Ingester{
		fetcher: fetcher,
		config:  config,
		logger:  log.With().Str("component", "ingester").Logger(),
	}
}

// Ingest collects up to target valid teams starting at offset.
// The result never exceeds target and keeps upstream order.
func (in *Ingester) Ingest(ctx context.Context, target, offset int) ([]teams.Team, error) {
	if target <= 0 {
		return []teams.Team{}, nil
	}
	if offset < 0 {
		offset = 0
	}

	start := time.Now()
	result := make([]teams.Team, 0, min(target, maxPrealloc))
	remaining := target
	window := football.Window{Limit: remaining, Offset: offset}
	windows := 0

	ingestRemaining.Set(float64(remaining))
	defer ingestRemaining.Set(0)

	in.logger.Info().
		Int("target", target).
		Int("offset", offset).
		Msg("Querying teams")

	for remaining > 0 {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		if windows >= in.config.MaxWindows {
			in.logger.Warn().
				Int("windows", windows).
				Int("remaining", remaining).
				Int("offset", window.Offset).
				Msg("Window limit reached, stopping run")
			break
		}

		page, err := in.fetcher.FetchWindow(ctx, window)
		windows++
		ingestWindowsTotal.Inc()

		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return result, ctxErr
			}
			in.logger.Warn().
				Err(err).
				Stringer("window", window).
				Msg("Window failed, treating as end of data")
			break
		}

		if len(page) == 0 {
			in.logger.Info().
				Stringer("window", window).
				Msg("Upstream exhausted")
			break
		}

		valid := teams.FilterValid(page)
		ingestTeamsTotal.WithLabelValues("invalid").Add(float64(len(page) - len(valid)))
		// Upstream may ignore the limit; never hand out more than asked for.
		if len(valid) > remaining {
			valid = valid[:remaining]
		}
		ingestTeamsTotal.WithLabelValues("valid").Add(float64(len(valid)))

		result = append(result, valid...)
		remaining -= len(valid)
		ingestRemaining.Set(float64(remaining))

		in.logger.Info().
			Int("fetched", len(page)).
			Int("added", len(valid)).
			Int("remaining", remaining).
			Int("offset", window.Offset).
			Msg("Window processed")

		window = window.Next(len(page), remaining)
	}

	in.logger.Info().
		Int("target", target).
		Int("collected", len(result)).
		Int("windows", windows).
		Int("next_offset", window.Offset).
		Dur("duration", time.Since(start)).
		Msg("Ingestion complete")

	return result, nil
}
