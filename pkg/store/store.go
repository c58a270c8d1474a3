// Package store persists team records in Postgres.
//
// The teams table is managed outside this module:
//
//	CREATE TABLE teams (
//	    id           SERIAL PRIMARY KEY,
//	    name         TEXT NOT NULL,
//	    short_name   TEXT,
//	    tla          TEXT,
//	    crest        TEXT NOT NULL,
//	    address      TEXT,
//	    website      TEXT,
//	    founded      INTEGER,
//	    club_colors  TEXT,
//	    venue        TEXT,
//	    last_updated TIMESTAMPTZ
//	);
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Sternrassler/fut-api/pkg/teams"
)

// ErrTeamNotFound is returned by GetTeam when no row has the requested id.
var ErrTeamNotFound = errors.New("team not found")

// DefaultMaxConns is the pool size used when Config.MaxConns is not set.
const DefaultMaxConns = 4

var (
	storeInsertedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fut_store_inserted_total",
		Help: "Total number of team rows inserted",
	})

	storeErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fut_store_errors_total",
		Help: "Total number of store errors by operation",
	}, []string{"operation"})
)

const (
	countTeamsSQL = `SELECT COUNT(*) FROM teams`

	insertTeamSQL = `INSERT INTO teams
		(name, short_name, tla, crest, address, website, founded, club_colors, venue, last_updated)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	selectTeamSQL = `SELECT id, name, short_name, tla, crest, address, website, founded, club_colors, venue, last_updated
		FROM teams WHERE id = $1`
)

// Config holds the connection settings.
type Config struct {
	// DSN is a postgres:// URL or key/value connection string (REQUIRED)
	DSN string

	// MaxConns caps the pool size (default 4)
	MaxConns int32

	// SimpleProtocol disables prepared statements, for use behind PgBouncer.
	SimpleProtocol bool
}

// Store is a Postgres-backed team store.
type Store struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// Open parses the configuration and connects a pool.
// The connection is verified with a ping.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("database dsn is required")
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse database dsn: %w", err)
	}
	if cfg.MaxConns <= 0 {
		cfg.MaxConns = DefaultMaxConns
	}
	poolCfg.MaxConns = cfg.MaxConns
	if cfg.SimpleProtocol {
		poolCfg.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeSimpleProtocol
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return New(pool), nil
}

// New wraps an existing pool.
func New(pool *pgxpool.Pool) *Store {
	if pool == nil {
		panic("pgx pool cannot be nil")
	}

	return &Store{
		pool:   pool,
		logger: log.With().Str("component", "store").Logger(),
	}
}

// Count returns the number of stored teams.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int64
	if err := s.pool.QueryRow(ctx, countTeamsSQL).Scan(&n); err != nil {
		storeErrorsTotal.WithLabelValues("count").Inc()
		return 0, fmt.Errorf("count teams: %w", err)
	}
	return int(n), nil
}

// InsertTeams writes all teams in one transaction and returns the number of
// rows inserted. Upstream ids are never written; the table assigns its own.
// Either every row is committed or none is.
func (s *Store) InsertTeams(ctx context.Context, list []teams.Team) (int, error) {
	if len(list) == 0 {
		return 0, nil
	}

	start := time.Now()
	inserted := 0

	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for _, t := range list {
			batch.Queue(insertTeamSQL,
				t.Name, t.ShortName, t.TLA, t.Crest, t.Address,
				t.Website, t.Founded, t.ClubColors, t.Venue, t.LastUpdated,
			)
		}

		br := tx.SendBatch(ctx, batch)
		for i := range list {
			tag, err := br.Exec()
			if err != nil {
				_ = br.Close()
				return fmt.Errorf("insert team %d (%s): %w", i, list[i].Name, err)
			}
			inserted += int(tag.RowsAffected())
		}
		return br.Close()
	})
	if err != nil {
		storeErrorsTotal.WithLabelValues("insert").Inc()
		return 0, fmt.Errorf("insert teams: %w", err)
	}

	storeInsertedTotal.Add(float64(inserted))
	s.logger.Info().
		Int("rows", inserted).
		Dur("duration", time.Since(start)).
		Msg("Teams inserted")

	return inserted, nil
}

// GetTeam returns the team stored under id.
func (s *Store) GetTeam(ctx context.Context, id int64) (teams.Team, error) {
	var t teams.Team
	err := s.pool.QueryRow(ctx, selectTeamSQL, id).Scan(
		&t.ID, &t.Name, &t.ShortName, &t.TLA, &t.Crest, &t.Address,
		&t.Website, &t.Founded, &t.ClubColors, &t.Venue, &t.LastUpdated,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return teams.Team{}, ErrTeamNotFound
	}
	if err != nil {
		storeErrorsTotal.WithLabelValues("get").Inc()
		return teams.Team{}, fmt.Errorf("get team %d: %w", id, err)
	}
	return t, nil
}

// Close closes the pool.
func (s *Store) Close() {
	s.pool.Close()
}
