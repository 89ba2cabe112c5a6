package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCronScheduler_Schedule(t *testing.T) {
	t.Run("successful schedule", func(t *testing.T) {
		scheduler := NewCronScheduler(30 * time.Second)

		ctx := context.Background()

		task := func(ctx context.Context) error {
			return nil
		}

		err := scheduler.Schedule(ctx, 5*time.Minute, task)
		assert.NoError(t, err)

		scheduler.Stop()
	})

	t.Run("consecutive fire times are one interval apart", func(t *testing.T) {
		scheduler := NewCronScheduler(30 * time.Second)

		err := scheduler.Schedule(context.Background(), 5*time.Minute, func(ctx context.Context) error {
			return nil
		})
		require.NoError(t, err)
		defer scheduler.Stop()

		entries := scheduler.cron.Entries()
		require.Len(t, entries, 1)

		base := time.Date(2026, time.March, 1, 12, 0, 30, 0, time.UTC)
		first := entries[0].Schedule.Next(base)
		second := entries[0].Schedule.Next(first)

		assert.Equal(t, 5*time.Minute, second.Sub(first))
	})

	t.Run("schedule with zero interval falls back to default", func(t *testing.T) {
		scheduler := NewCronScheduler(30 * time.Second)

		err := scheduler.Schedule(context.Background(), 0, func(ctx context.Context) error {
			return nil
		})
		assert.NoError(t, err)

		scheduler.Stop()
	})

	t.Run("failing task does not stop later ticks", func(t *testing.T) {
		scheduler := NewCronScheduler(time.Second)

		var calls int32
		task := func(ctx context.Context) error {
			atomic.AddInt32(&calls, 1)
			return errors.New("cycle failed")
		}

		// Sub-10s intervals are clamped to 10s, so drive the wrapped task
		// directly instead of waiting on the cron clock.
		wrapped := scheduler.wrapTask(context.Background(), task)
		wrapped()
		wrapped()

		assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
	})

	t.Run("task receives timeout context", func(t *testing.T) {
		scheduler := NewCronScheduler(50 * time.Millisecond)

		var deadlineSet bool
		task := func(ctx context.Context) error {
			_, deadlineSet = ctx.Deadline()
			return nil
		}

		scheduler.wrapTask(context.Background(), task)()

		assert.True(t, deadlineSet)
	})
}

func TestCronScheduler_Stop(t *testing.T) {
	scheduler := NewCronScheduler(30 * time.Second)

	err := scheduler.Schedule(context.Background(), time.Minute, func(ctx context.Context) error {
		return nil
	})
	assert.NoError(t, err)

	assert.NotPanics(t, func() {
		scheduler.Stop()
	})
}

func TestNormalizeInterval(t *testing.T) {
	testCases := []struct {
		name     string
		interval time.Duration
		expected time.Duration
	}{
		{"zero interval", 0, 5 * time.Minute},
		{"thirty seconds", 30 * time.Second, 30 * time.Second},
		{"five minutes", 5 * time.Minute, 5 * time.Minute},
		{"below minimum is clamped", 5 * time.Second, 10 * time.Second},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, normalizeInterval(tc.interval))
		})
	}
}
