package football

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestNewFixedCooldown_Defaults(t *testing.T) {
	c := NewFixedCooldown(0, 0)
	if c.Duration != DefaultCooldownDuration {
		t.Errorf("Duration = %v, want %v", c.Duration, DefaultCooldownDuration)
	}
	if c.Tick != DefaultCooldownTick {
		t.Errorf("Tick = %v, want %v", c.Tick, DefaultCooldownTick)
	}
}

func TestFixedCooldown_WaitsFullDuration(t *testing.T) {
	c := NewFixedCooldown(60*time.Millisecond, 10*time.Millisecond)

	start := time.Now()
	if err := c.Wait(context.Background()); err != nil {
		t.Fatalf("Wait() error = %v", err)
	}
	elapsed := time.Since(start)

	if elapsed < 60*time.Millisecond {
		t.Errorf("Wait() returned after %v, want at least 60ms", elapsed)
	}
	if elapsed > time.Second {
		t.Errorf("Wait() took %v, want about 60ms", elapsed)
	}
}

func TestFixedCooldown_SameDurationEveryCall(t *testing.T) {
	c := NewFixedCooldown(30*time.Millisecond, 30*time.Millisecond)

	for i := 0; i < 3; i++ {
		start := time.Now()
		if err := c.Wait(context.Background()); err != nil {
			t.Fatalf("Wait() #%d error = %v", i, err)
		}
		elapsed := time.Since(start)
		if elapsed < 30*time.Millisecond || elapsed > 500*time.Millisecond {
			t.Errorf("Wait() #%d took %v, want about 30ms", i, elapsed)
		}
	}
}

func TestFixedCooldown_TickLongerThanDuration(t *testing.T) {
	c := NewFixedCooldown(20*time.Millisecond, time.Hour)

	start := time.Now()
	if err := c.Wait(context.Background()); err != nil {
		t.Fatalf("Wait() error = %v", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("Wait() took %v, tick should be clamped to duration", elapsed)
	}
}

func TestFixedCooldown_ContextCancelled(t *testing.T) {
	c := NewFixedCooldown(time.Minute, 10*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := c.Wait(ctx)
	if !errors.Is(err, ErrCooldownCancelled) {
		t.Errorf("Wait() error = %v, want ErrCooldownCancelled", err)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Wait() error = %v, want it to wrap context.DeadlineExceeded", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("Wait() took %v after cancellation", elapsed)
	}
}

func TestCooldownFunc(t *testing.T) {
	calls := 0
	var c Cooldown = CooldownFunc(func(context.Context) error {
		calls++
		return nil
	})

	if err := c.Wait(context.Background()); err != nil {
		t.Fatalf("Wait() error = %v", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}
