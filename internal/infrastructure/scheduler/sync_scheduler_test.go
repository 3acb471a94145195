package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/crosslist/backend/internal/infrastructure/config"
)

func TestSyncScheduler_Lifecycle(t *testing.T) {
	t.Run("disabled scheduler starts as no-op", func(t *testing.T) {
		s := NewSyncScheduler(nil, nil, zap.NewNop(), config.SchedulerConfig{Enabled: false})

		require.NoError(t, s.Start(context.Background()))
		assert.False(t, s.isRunning)
		require.NoError(t, s.Stop(context.Background()))
	})

	t.Run("start is idempotent", func(t *testing.T) {
		// Zero intervals disable every loop, so nil services are never touched
		s := NewSyncScheduler(nil, nil, zap.NewNop(), config.SchedulerConfig{Enabled: true})

		require.NoError(t, s.Start(context.Background()))
		require.NoError(t, s.Start(context.Background()))
		assert.True(t, s.isRunning)

		require.NoError(t, s.Stop(context.Background()))
		assert.False(t, s.isRunning)
	})

	t.Run("stop without start is a no-op", func(t *testing.T) {
		s := NewSyncScheduler(nil, nil, zap.NewNop(), config.SchedulerConfig{Enabled: true})
		assert.NoError(t, s.Stop(context.Background()))
	})
}

func TestSyncScheduler_RunLoop(t *testing.T) {
	t.Run("executes on the interval until cancelled", func(t *testing.T) {
		s := NewSyncScheduler(nil, nil, zap.NewNop(), config.SchedulerConfig{Enabled: true})

		var runs int64
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		s.wg.Add(1)
		go s.runLoop(ctx, "test", 5*time.Millisecond, false, func(context.Context) {
			atomic.AddInt64(&runs, 1)
		})

		assert.Eventually(t, func() bool {
			return atomic.LoadInt64(&runs) >= 2
		}, time.Second, 5*time.Millisecond)

		cancel()
		s.wg.Wait()
	})

	t.Run("runs immediately when configured", func(t *testing.T) {
		s := NewSyncScheduler(nil, nil, zap.NewNop(), config.SchedulerConfig{Enabled: true})

		var runs int64
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		s.wg.Add(1)
		go s.runLoop(ctx, "test", time.Hour, true, func(context.Context) {
			atomic.AddInt64(&runs, 1)
		})

		assert.Eventually(t, func() bool {
			return atomic.LoadInt64(&runs) == 1
		}, time.Second, 5*time.Millisecond)

		cancel()
		s.wg.Wait()
	})

	t.Run("non-positive interval disables the loop", func(t *testing.T) {
		s := NewSyncScheduler(nil, nil, zap.NewNop(), config.SchedulerConfig{Enabled: true})

		ctx := context.Background()
		s.wg.Add(1)
		s.runLoop(ctx, "test", 0, false, func(context.Context) {
			t.Fatal("execute must not run")
		})
	})
}
