package scheduler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	salesapp "github.com/crosslist/backend/internal/application/sales"
	syncapp "github.com/crosslist/backend/internal/application/sync"
	"github.com/crosslist/backend/internal/infrastructure/config"
)

// SyncScheduler drives the periodic reconciliation loops: sold-item
// detection, re-sync of flagged ledger entries, and the accounting
// retry sweep. Each loop runs on its own interval; a run that overlaps
// the next tick simply delays it, the loops never run concurrently with
// themselves.
type SyncScheduler struct {
	syncService *syncapp.SyncService
	recorder    *salesapp.Recorder
	logger      *zap.Logger
	cfg         config.SchedulerConfig

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
}

// NewSyncScheduler creates the reconciliation scheduler
func NewSyncScheduler(
	syncService *syncapp.SyncService,
	recorder *salesapp.Recorder,
	logger *zap.Logger,
	cfg config.SchedulerConfig,
) *SyncScheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SyncScheduler{
		syncService: syncService,
		recorder:    recorder,
		logger:      logger,
		cfg:         cfg,
	}
}

// Start launches the reconciliation loops
func (s *SyncScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	if !s.cfg.Enabled {
		s.mu.Unlock()
		s.logger.Info("sync scheduler is disabled")
		return nil
	}
	s.isRunning = true
	s.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.wg.Add(3)
	go s.runLoop(ctx, "check_sold", s.cfg.CheckSoldInterval, s.cfg.RunCheckSoldOnStart, s.executeCheckSold)
	go s.runLoop(ctx, "sync_all", s.cfg.SyncAllInterval, false, s.executeSyncAll)
	go s.runLoop(ctx, "accounting_retry", s.cfg.AccountingRetry, false, s.executeAccountingRetry)

	s.logger.Info("sync scheduler started",
		zap.Duration("check_sold_interval", s.cfg.CheckSoldInterval),
		zap.Duration("sync_all_interval", s.cfg.SyncAllInterval),
		zap.Duration("accounting_retry_interval", s.cfg.AccountingRetry),
	)
	return nil
}

// Stop gracefully stops the scheduler, waiting for in-flight runs
func (s *SyncScheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("sync scheduler stopped gracefully")
		return nil
	case <-ctx.Done():
		s.logger.Warn("sync scheduler stop timed out")
		return ctx.Err()
	}
}

// runLoop runs one reconciliation function on a fixed interval. The
// startup delay gives platform sessions time to come up before the
// first run.
func (s *SyncScheduler) runLoop(ctx context.Context, name string, interval time.Duration, runImmediately bool, execute func(context.Context)) {
	defer s.wg.Done()

	if interval <= 0 {
		s.logger.Info("reconciliation loop disabled", zap.String("loop", name))
		return
	}

	select {
	case <-ctx.Done():
		return
	case <-time.After(s.cfg.StartupDelay):
	}

	if runImmediately {
		execute(ctx)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Debug("reconciliation loop stopping", zap.String("loop", name))
			return
		case <-ticker.C:
			execute(ctx)
		}
	}
}

// executeCheckSold runs one sold-item detection pass
func (s *SyncScheduler) executeCheckSold(ctx context.Context) {
	runCtx, cancel := context.WithTimeout(ctx, s.cfg.OperationTimeout)
	defer cancel()

	started := time.Now()
	result, err := s.syncService.CheckSold(runCtx)
	if err != nil {
		s.logger.Error("scheduled sold check failed",
			zap.Duration("duration", time.Since(started)),
			zap.Error(err))
		return
	}

	s.logger.Info("scheduled sold check completed",
		zap.Duration("duration", time.Since(started)),
		zap.Int("checked", result.Checked),
		zap.Int("sold", len(result.Sold)),
		zap.Int("skipped", len(result.SkippedProducts)),
		zap.Int("platform_errors", len(result.Errors)))
}

// executeSyncAll runs one re-sync pass over flagged ledger entries
func (s *SyncScheduler) executeSyncAll(ctx context.Context) {
	runCtx, cancel := context.WithTimeout(ctx, s.cfg.OperationTimeout)
	defer cancel()

	started := time.Now()
	result, err := s.syncService.SyncAll(runCtx)
	if err != nil {
		s.logger.Error("scheduled sync failed",
			zap.Duration("duration", time.Since(started)),
			zap.Error(err))
		return
	}

	s.logger.Info("scheduled sync completed",
		zap.Duration("duration", time.Since(started)),
		zap.Int("total", result.Total),
		zap.Int("synced", result.Synced),
		zap.Int("failed", result.Failed))
}

// executeAccountingRetry re-forwards sales the accounting sink missed
func (s *SyncScheduler) executeAccountingRetry(ctx context.Context) {
	runCtx, cancel := context.WithTimeout(ctx, s.cfg.OperationTimeout)
	defer cancel()

	synced, err := s.recorder.RetryUnsynced(runCtx)
	if err != nil {
		s.logger.Error("accounting retry sweep failed", zap.Error(err))
		return
	}
	if synced > 0 {
		s.logger.Info("accounting retry sweep completed", zap.Int("synced", synced))
	}
}
