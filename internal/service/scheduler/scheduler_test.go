package scheduler

import (
	"context"
	"errors"
	"testing"
	"testing/synctest"
	"time"

	"github.com/stretchr/testify/require"
)

func counter(n *int) func(context.Context) error {
	return func(context.Context) error {
		*n++
		return nil
	}
}

func TestTick_DueAndOrder(t *testing.T) {
	t.Parallel()

	var order []string

	record := func(name string) func(context.Context) error {
		return func(context.Context) error {
			order = append(order, name)
			return nil
		}
	}

	s := New([]*Task{
		{Name: "sense", Interval: 3000, Action: record("sense")},
		{Name: "commands", Interval: 3000, Action: record("commands")},
		{Name: "telemetry", Interval: 30000, Action: record("telemetry")},
	})

	require.Empty(t, s.Tick(context.Background(), 2999))
	require.Equal(t, []string{"sense", "commands"}, s.Tick(context.Background(), 3000))
	require.Empty(t, s.Tick(context.Background(), 5999))
	require.Equal(t, []string{"sense", "commands", "telemetry"}, s.Tick(context.Background(), 30000))
	require.Equal(t, []string{"sense", "commands", "sense", "commands", "telemetry"}, order)
}

func TestTick_Wraparound(t *testing.T) {
	t.Parallel()

	var runs int

	task := &Task{Name: "buzzer", Interval: 500, LastFire: 0xFFFF_FF00, Action: counter(&runs)}
	s := New([]*Task{task})

	// 256 ms before the wrap plus 243 after it is 499 ms.
	require.Empty(t, s.Tick(context.Background(), 243))
	require.Equal(t, []string{"buzzer"}, s.Tick(context.Background(), 244))
	require.Equal(t, uint32(244), task.LastFire)
	require.Equal(t, 1, runs)
}

// TestTick_TelemetryEveryTenthSense steps a 3 s task and a 30 s task from 0.
func TestTick_TelemetryEveryTenthSense(t *testing.T) {
	t.Parallel()

	var sense, telemetry int

	s := New([]*Task{
		{Name: "sense", Interval: 3000, Action: counter(&sense)},
		{Name: "telemetry", Interval: 30000, Action: counter(&telemetry)},
	})

	for now := uint32(0); now <= 300_000; now += 100 {
		s.Tick(context.Background(), now)

		if now > 0 && now%3000 == 0 {
			require.Equal(t, sense/10, telemetry, "at %d ms", now)
		}
	}

	require.Equal(t, 100, sense)
	require.Equal(t, 10, telemetry)
}

func TestTick_DisabledTaskKeepsLastFire(t *testing.T) {
	t.Parallel()

	var (
		runs    int
		enabled bool
	)

	task := &Task{
		Name:     "buzzer",
		Interval: 500,
		Action:   counter(&runs),
		Enabled:  func() bool { return enabled },
	}
	s := New([]*Task{task})

	require.Empty(t, s.Tick(context.Background(), 1000))
	require.Zero(t, task.LastFire)

	enabled = true

	require.Equal(t, []string{"buzzer"}, s.Tick(context.Background(), 1100))
	require.Equal(t, 1, runs)
}

func TestTick_ErrorDoesNotStopLaterTasks(t *testing.T) {
	t.Parallel()

	var runs int

	s := New([]*Task{
		{Name: "broken", Interval: 10, Action: func(context.Context) error { return errors.New("offline") }},
		{Name: "next", Interval: 10, Action: counter(&runs)},
	})

	require.Equal(t, []string{"broken", "next"}, s.Tick(context.Background(), 10))
	require.Equal(t, 1, runs)
}

func TestRun_FiresOnSchedule(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		var fast, slow int

		s := New([]*Task{
			{Name: "fast", Interval: 500, Action: counter(&fast)},
			{Name: "slow", Interval: 3000, Action: counter(&slow)},
		})

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)

		go func() { done <- s.Run(ctx, NewMonotonicClock()) }()

		time.Sleep(3050 * time.Millisecond)
		synctest.Wait()

		require.Equal(t, 6, fast)
		require.Equal(t, 1, slow)

		cancel()
		require.NoError(t, <-done)
	})
}

// TestRun_RecoversFromPanic makes the first action panic and checks the loop
// backs off and keeps scheduling.
func TestRun_RecoversFromPanic(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		var (
			calls int
			fired []time.Time
		)

		start := time.Now()

		s := New([]*Task{{
			Name:     "flaky",
			Interval: 1000,
			Action: func(context.Context) error {
				calls++
				fired = append(fired, time.Now())

				if calls == 1 {
					panic("sensor bus fault")
				}

				return nil
			},
		}}, WithRecoveryBackoff(5*time.Second), WithPollInterval(100*time.Millisecond))

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)

		go func() { done <- s.Run(ctx, NewMonotonicClock()) }()

		time.Sleep(6500 * time.Millisecond)
		synctest.Wait()

		require.Equal(t, 2, calls)
		// The panic at 1 s is followed by a 5 s backoff.
		require.Equal(t, time.Second, fired[0].Sub(start))
		require.Equal(t, 6*time.Second, fired[1].Sub(start))

		cancel()
		require.NoError(t, <-done)
	})
}

func TestMonotonicClock(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		clock := NewMonotonicClock()
		require.Equal(t, uint32(0), clock.Millis())

		time.Sleep(1500 * time.Millisecond)
		require.Equal(t, uint32(1500), clock.Millis())
	})

	require.Equal(t, uint32(7), ClockFunc(func() uint32 { return 7 }).Millis())
}
