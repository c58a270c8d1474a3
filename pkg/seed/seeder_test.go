package seed

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/Sternrassler/fut-api/internal/testutil"
	"github.com/Sternrassler/fut-api/pkg/football"
	"github.com/Sternrassler/fut-api/pkg/ingest"
	"github.com/Sternrassler/fut-api/pkg/teams"
)

// memoryStore is an in-memory TeamStore.
type memoryStore struct {
	mu       sync.Mutex
	rows     []teams.Team
	countErr error
	insErr   error
	inserts  int
}

func (m *memoryStore) Count(context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.countErr != nil {
		return 0, m.countErr
	}
	return len(m.rows), nil
}

func (m *memoryStore) InsertTeams(_ context.Context, list []teams.Team) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.inserts++
	if m.insErr != nil {
		return 0, m.insErr
	}
	m.rows = append(m.rows, list...)
	return len(list), nil
}

// recordingIngester returns a fixed list and records its arguments.
type recordingIngester struct {
	list   []teams.Team
	err    error
	calls  int
	target int
	offset int
}

func (r *recordingIngester) Ingest(_ context.Context, target, offset int) ([]teams.Team, error) {
	r.calls++
	r.target = target
	r.offset = offset
	return r.list, r.err
}

func TestSeeder_Run(t *testing.T) {
	store := &memoryStore{rows: make([]teams.Team, 42)}
	ing := &recordingIngester{list: testutil.GenerateTeams(3, testutil.AllValid)}
	seeder := NewSeeder(store, ing)

	result, err := seeder.Run(context.Background(), 3)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if ing.offset != 42 {
		t.Errorf("ingest offset = %d, want store count 42", ing.offset)
	}
	if ing.target != 3 {
		t.Errorf("ingest target = %d, want 3", ing.target)
	}
	if store.inserts != 1 {
		t.Errorf("InsertTeams calls = %d, want 1", store.inserts)
	}
	for i, row := range store.rows[42:] {
		if row.ID != 0 {
			t.Errorf("inserted row %d has upstream id %d", i, row.ID)
		}
	}

	if result.StartOffset != 42 || result.Requested != 3 || result.Fetched != 3 || result.Persisted != 3 {
		t.Errorf("Result = %+v", result)
	}
	if _, err := uuid.Parse(result.RunID); err != nil {
		t.Errorf("RunID %q is not a UUID: %v", result.RunID, err)
	}
}

func TestSeeder_Run_NonPositiveAmount(t *testing.T) {
	for _, amount := range []int{0, -5} {
		store := &memoryStore{}
		ing := &recordingIngester{}

		result, err := NewSeeder(store, ing).Run(context.Background(), amount)
		if err != nil {
			t.Fatalf("Run(%d) error = %v", amount, err)
		}
		if ing.calls != 0 || store.inserts != 0 {
			t.Errorf("Run(%d) did work: ingest=%d inserts=%d", amount, ing.calls, store.inserts)
		}
		if result.Persisted != 0 {
			t.Errorf("Run(%d) persisted %d", amount, result.Persisted)
		}
	}
}

func TestSeeder_Run_CountFailure(t *testing.T) {
	countErr := errors.New("connection refused")
	store := &memoryStore{countErr: countErr}
	ing := &recordingIngester{}

	_, err := NewSeeder(store, ing).Run(context.Background(), 10)
	if !errors.Is(err, countErr) {
		t.Fatalf("Run() error = %v, want %v", err, countErr)
	}
	if ing.calls != 0 {
		t.Error("ingester should not run when the offset cannot be read")
	}
}

func TestSeeder_Run_InsertFailure(t *testing.T) {
	insErr := errors.New("unique violation")
	store := &memoryStore{insErr: insErr}
	ing := &recordingIngester{list: testutil.GenerateTeams(2, testutil.AllValid)}

	result, err := NewSeeder(store, ing).Run(context.Background(), 2)
	if !errors.Is(err, insErr) {
		t.Fatalf("Run() error = %v, want %v", err, insErr)
	}
	if store.inserts != 1 {
		t.Errorf("InsertTeams calls = %d, want 1 (no retry)", store.inserts)
	}
	if result.Fetched != 2 || result.Persisted != 0 {
		t.Errorf("Result = %+v", result)
	}
}

func TestSeeder_Run_IngestCancelled(t *testing.T) {
	store := &memoryStore{}
	ing := &recordingIngester{err: context.Canceled}

	_, err := NewSeeder(store, ing).Run(context.Background(), 5)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Run() error = %v, want context.Canceled", err)
	}
	if store.inserts != 0 {
		t.Error("nothing should be persisted after cancellation")
	}
}

func TestSeeder_Run_EndToEnd(t *testing.T) {
	mock := testutil.NewMockFootball(testutil.GenerateTeams(30, testutil.EveryOther))
	defer mock.Close()

	client, err := football.New(football.Config{
		BaseURL:  mock.URL(),
		APIKey:   "test-key",
		Cooldown: football.CooldownFunc(func(context.Context) error { return nil }),
	})
	if err != nil {
		t.Fatalf("football.New() error = %v", err)
	}

	store := &memoryStore{}
	seeder := NewSeeder(store, ingest.NewIngester(client, ingest.DefaultConfig()))

	first, err := seeder.Run(context.Background(), 4)
	if err != nil {
		t.Fatalf("first Run() error = %v", err)
	}
	if first.Persisted != 4 {
		t.Fatalf("first run persisted %d, want 4", first.Persisted)
	}

	// The second run starts at the stored count, not where the first run stopped.
	second, err := seeder.Run(context.Background(), 4)
	if err != nil {
		t.Fatalf("second Run() error = %v", err)
	}
	if second.StartOffset != 4 {
		t.Errorf("second run offset = %d, want 4", second.StartOffset)
	}
	if first.RunID == second.RunID {
		t.Error("runs should have distinct ids")
	}
	if len(store.rows) != 8 {
		t.Errorf("stored %d rows, want 8", len(store.rows))
	}
	for i, row := range store.rows {
		if !teams.IsValid(row) {
			t.Errorf("row %d has no crest", i)
		}
	}
}

// countingRunner counts runs and optionally blocks.
type countingRunner struct {
	mu    sync.Mutex
	runs  int
	block time.Duration
	err   error
}

func (c *countingRunner) Run(ctx context.Context, amount int) (Result, error) {
	c.mu.Lock()
	c.runs++
	c.mu.Unlock()
	select {
	case <-time.After(c.block):
	case <-ctx.Done():
	}
	return Result{Requested: amount}, c.err
}

func (c *countingRunner) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.runs
}

func TestNewScheduler_InvalidSpec(t *testing.T) {
	for _, spec := range []string{"", "not a schedule", "61 * * * *"} {
		if _, err := NewScheduler(spec, &countingRunner{}, 10); err == nil {
			t.Errorf("NewScheduler(%q) expected error", spec)
		}
	}
}

func TestScheduler_Run(t *testing.T) {
	runner := &countingRunner{}
	s, err := NewScheduler("@every 1s", runner, 10)
	if err != nil {
		t.Fatalf("NewScheduler() error = %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2500*time.Millisecond)
	defer cancel()

	if err := s.Run(ctx); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if got := runner.count(); got < 1 {
		t.Errorf("runs = %d, want at least 1", got)
	}
}

func TestScheduler_KeepsRunningAfterFailedRun(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{name: "persistence failure", err: errors.New("insert teams: connection reset")},
		{name: "upstream failure", err: &football.APIError{StatusCode: 500, Message: "Internal Server Error"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := &countingRunner{err: tt.err}
			s, err := NewScheduler("@every 1s", runner, 10)
			if err != nil {
				t.Fatalf("NewScheduler() error = %v", err)
			}

			ctx, cancel := context.WithTimeout(context.Background(), 3500*time.Millisecond)
			defer cancel()

			if err := s.Run(ctx); err != nil {
				t.Fatalf("Run() error = %v, want nil after failed runs", err)
			}
			if got := runner.count(); got < 2 {
				t.Errorf("runs = %d, want at least 2", got)
			}
		})
	}
}

func TestScheduler_SkipsOverlappingRuns(t *testing.T) {
	// Each run outlasts the test, so only the first tick may start one.
	runner := &countingRunner{block: time.Minute}
	s, err := NewScheduler("@every 1s", runner, 10)
	if err != nil {
		t.Fatalf("NewScheduler() error = %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3500*time.Millisecond)
	defer cancel()

	if err := s.Run(ctx); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if got := runner.count(); got != 1 {
		t.Errorf("runs = %d, want 1", got)
	}
}
