package seed

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Runner runs one seeding job.
type Runner interface {
	Run(ctx context.Context, amount int) (Result, error)
}

// Scheduler runs a seeding job on a cron schedule. A tick that fires while
// the previous run is still going is skipped.
type Scheduler struct {
	c      *cron.Cron
	spec   string
	runner Runner
	amount int
	logger zerolog.Logger
}

// NewScheduler parses spec (standard 5-field or descriptor such as
// "@every 6h") and prepares a scheduler that is not yet started.
func NewScheduler(spec string, runner Runner, amount int) (*Scheduler, error) {
	if _, err := cron.ParseStandard(spec); err != nil {
		return nil, fmt.Errorf("invalid seed schedule %q: %w", spec, err)
	}

	logger := log.With().Str("component", "scheduler").Logger()
	s := &Scheduler{
		spec:   spec,
		runner: runner,
		amount: amount,
		logger: logger,
	}

	cronLogger := cron.PrintfLogger(&s.logger)
	s.c = cron.New(
		cron.WithLogger(cronLogger),
		cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger)),
	)

	return s, nil
}

// Run starts the schedule and blocks until ctx is done. It waits for a run in
// progress to finish before returning.
func (s *Scheduler) Run(ctx context.Context) error {
	if _, err := s.c.AddFunc(s.spec, func() { s.tick(ctx) }); err != nil {
		return fmt.Errorf("schedule seed job: %w", err)
	}

	s.logger.Info().Str("schedule", s.spec).Int("amount", s.amount).Msg("Starting scheduler")
	s.c.Start()

	<-ctx.Done()

	s.logger.Info().Msg("Stopping scheduler")
	<-s.c.Stop().Done()
	return nil
}

func (s *Scheduler) tick(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}

	s.logger.Info().Msg("Scheduler tick: running seed job")
	result, err := s.runner.Run(ctx, s.amount)
	if err != nil {
		s.logger.Error().Err(err).EmbedObject(result).Msg("Scheduled seeding run failed")
		return
	}
	s.logger.Info().Int("persisted", result.Persisted).Msg("Scheduled seeding run done")
}
