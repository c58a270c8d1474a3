// Command fut-seed fills the teams table from football-data.org.
//
// Each run continues where the table ends: it reads the number of stored
// teams, walks the upstream list from that position and inserts up to
// SEED_AMOUNT teams that have a crest. With SEED_SCHEDULE set the command
// keeps running and seeds on that cron schedule instead of once.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/Sternrassler/fut-api/pkg/cache"
	"github.com/Sternrassler/fut-api/pkg/config"
	"github.com/Sternrassler/fut-api/pkg/football"
	"github.com/Sternrassler/fut-api/pkg/ingest"
	"github.com/Sternrassler/fut-api/pkg/logging"
	"github.com/Sternrassler/fut-api/pkg/metrics"
	"github.com/Sternrassler/fut-api/pkg/ratelimit"
	"github.com/Sternrassler/fut-api/pkg/seed"
	"github.com/Sternrassler/fut-api/pkg/store"
)

// quotaStaleAfter bounds how old a stored quota may be to be reported.
// football-data.org resets its counter every minute.
const quotaStaleAfter = time.Minute

func main() {
	logging.Setup(logging.DefaultConfig())

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logCfg := logging.DefaultConfig()
	logCfg.Level = logging.LogLevel(cfg.Logging.Level)
	logCfg.Pretty = cfg.Logging.Pretty
	logging.Setup(logCfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	if err := run(ctx, cfg); err != nil {
		log.Error().Err(err).Msg("Seeding failed")
		stop()
		os.Exit(1)
	}
	stop()
}

func run(ctx context.Context, cfg *config.Config) error {
	if cfg.Server.MetricsAddr != "" {
		go func() {
			if err := metrics.Serve(ctx, cfg.Server.MetricsAddr); err != nil {
				log.Error().Err(err).Str("addr", cfg.Server.MetricsAddr).Msg("Metrics server failed")
			}
		}()
	}

	st, err := store.Open(ctx, store.Config{
		DSN:      cfg.Database.URL,
		MaxConns: cfg.Database.MaxConns,
	})
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()
	log.Info().Msg("Connected to Postgres")

	redisClient, err := connectRedis(ctx, cfg)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	var quota *ratelimit.Tracker
	if redisClient != nil {
		quota = ratelimit.NewTracker(redisClient, logging.NewLogger("quota"))
		reportQuota(ctx, quota)
	}

	client, err := newFootballClient(cfg, redisClient, quota)
	if err != nil {
		return fmt.Errorf("create football client: %w", err)
	}
	defer client.Close()

	ingester := ingest.NewIngester(client, ingest.Config{MaxWindows: cfg.Seed.MaxWindows})
	seeder := seed.NewSeeder(st, ingester)

	if cfg.Seed.Schedule != "" {
		scheduler, err := seed.NewScheduler(cfg.Seed.Schedule, seeder, cfg.Seed.Amount)
		if err != nil {
			return err
		}
		return scheduler.Run(ctx)
	}

	result, err := seeder.Run(ctx, cfg.Seed.Amount)
	if err != nil {
		return err
	}
	log.Info().EmbedObject(result).Msg("Finished populating the database")
	return nil
}

// connectRedis returns nil when Redis is not configured.
func connectRedis(ctx context.Context, cfg *config.Config) (*redis.Client, error) {
	opts, err := cfg.RedisOptions()
	if err != nil || opts == nil {
		return nil, err
	}

	redisClient := redis.NewClient(opts)
	if err := redisClient.Ping(ctx).Err(); err != nil {
		redisClient.Close()
		return nil, fmt.Errorf("connect to redis at %s: %w", opts.Addr, err)
	}
	log.Info().Str("addr", opts.Addr).Msg("Connected to Redis")

	return redisClient, nil
}

// reportQuota logs the quota left by earlier processes sharing the API key.
// It returns nil when nothing trustworthy is stored.
func reportQuota(ctx context.Context, tracker *ratelimit.Tracker) *ratelimit.State {
	state, err := tracker.GetState(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to read stored quota")
		return nil
	}
	if state.IsStale(quotaStaleAfter) {
		log.Info().Time("last_update", state.LastUpdate).Msg("Stored quota is stale, ignoring")
		return nil
	}

	event := log.Info()
	if state.IsExhausted() {
		event = log.Warn()
	}
	event.Int("available", state.Available).
		Bool("exhausted", state.IsExhausted()).
		Dur("reset_in", state.TimeUntilReset()).
		Msg("Upstream quota at start")

	return state
}

// newFootballClient builds the upstream client. A non-nil Redis client
// enables the window cache; a non-nil tracker records quota headers.
func newFootballClient(cfg *config.Config, redisClient *redis.Client, quota *ratelimit.Tracker) (*football.Client, error) {
	fc := football.DefaultConfig(cfg.Football.APIKey)
	fc.BaseURL = cfg.Football.BaseURL
	fc.Cooldown = football.NewFixedCooldown(cfg.Football.Cooldown, football.DefaultCooldownTick)

	if redisClient != nil {
		fc.Cache = cache.NewManager(redisClient)
	}
	fc.Quota = quota

	return football.New(fc)
}
