// Package seed runs seeding jobs: read how many teams the store already
// holds, ingest that many positions further into the upstream list, and
// persist the valid teams in one batch.
package seed

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Sternrassler/fut-api/pkg/teams"
)

// DefaultAmount is the number of valid teams one run asks for.
const DefaultAmount = 1000

var (
	seedRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fut_seed_runs_total",
		Help: "Total number of seeding runs by outcome",
	}, []string{"outcome"})

	seedRunDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "fut_seed_run_duration_seconds",
		Help:    "Seeding run duration in seconds",
		Buckets: []float64{1, 5, 15, 60, 300, 900, 3600},
	})
)

// TeamStore is the sink a run reads its offset from and writes to.
type TeamStore interface {
	Count(ctx context.Context) (int, error)
	InsertTeams(ctx context.Context, list []teams.Team) (int, error)
}

// TeamIngester collects valid teams from upstream.
type TeamIngester interface {
	Ingest(ctx context.Context, target, offset int) ([]teams.Team, error)
}

// Result summarises one run.
type Result struct {
	RunID       string
	StartOffset int
	Requested   int
	Fetched     int
	Persisted   int
	Duration    time.Duration
}

// MarshalZerologObject implements zerolog.LogObjectMarshaler.
func (r Result) MarshalZerologObject(e *zerolog.Event) {
	e.Str("run_id", r.RunID).
		Int("start_offset", r.StartOffset).
		Int("requested", r.Requested).
		Int("fetched", r.Fetched).
		Int("persisted", r.Persisted).
		Dur("duration", r.Duration)
}

// Seeder runs seeding jobs.
type Seeder struct {
	store    TeamStore
	ingester TeamIngester
	logger   zerolog.Logger
}

// NewSeeder creates a new seeder.
func NewSeeder(store TeamStore, ingester TeamIngester) *Seeder {
	return &Seeder{
		store:    store,
		ingester: ingester,
		logger:   log.With().Str("component", "seeder").Logger(),
	}
}

// Run performs one seeding run for amount valid teams.
//
// The run starts at the upstream position equal to the number of stored
// teams. An amount <= 0 does nothing. Store failures are returned unretried;
// upstream failures only shorten the batch.
func (s *Seeder) Run(ctx context.Context, amount int) (Result, error) {
	start := time.Now()
	result := Result{
		RunID:     uuid.NewString(),
		Requested: amount,
	}
	logger := s.logger.With().Str("run_id", result.RunID).Logger()

	if amount <= 0 {
		logger.Info().Int("amount", amount).Msg("Nothing to seed")
		return result, nil
	}

	offset, err := s.store.Count(ctx)
	if err != nil {
		seedRunsTotal.WithLabelValues("failed").Inc()
		return result, fmt.Errorf("read starting offset: %w", err)
	}
	result.StartOffset = offset

	logger.Info().
		Int("amount", amount).
		Int("offset", offset).
		Msg("Seeding run started")

	list, err := s.ingester.Ingest(ctx, amount, offset)
	result.Fetched = len(list)
	if err != nil {
		seedRunsTotal.WithLabelValues("cancelled").Inc()
		result.Duration = time.Since(start)
		return result, fmt.Errorf("ingest teams: %w", err)
	}

	persisted, err := s.store.InsertTeams(ctx, teams.StripIDs(list))
	result.Duration = time.Since(start)
	if err != nil {
		seedRunsTotal.WithLabelValues("failed").Inc()
		return result, fmt.Errorf("persist teams: %w", err)
	}
	result.Persisted = persisted

	seedRunsTotal.WithLabelValues("ok").Inc()
	seedRunDuration.Observe(result.Duration.Seconds())
	logger.Info().EmbedObject(result).Msg("Seeding run complete")

	return result, nil
}
