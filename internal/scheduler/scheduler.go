// Package scheduler runs the watchlist price check on a cron schedule.
package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"github.com/wealthpath/pricewatch/internal/lock"
	applog "github.com/wealthpath/pricewatch/internal/logger"
	"github.com/wealthpath/pricewatch/internal/service"
)

// LockKey guards the all-owners batch across replicas.
const LockKey = "price-check"

// Config holds the scheduler configuration
type Config struct {
	// Schedule is a standard 5-field cron expression (e.g., "0 */6 * * *")
	Schedule string
	// Timeout is the maximum duration for a complete price check cycle
	Timeout time.Duration
	// Enabled determines if the scheduler should run
	Enabled bool
	// RunOnStart triggers one batch as soon as Start succeeds
	RunOnStart bool
}

// DefaultConfig returns the default scheduler configuration
func DefaultConfig() Config {
	return Config{
		Schedule: "0 */6 * * *",
		Timeout:  30 * time.Minute,
		Enabled:  true,
	}
}

// PriceChecker runs one check over watched items.
type PriceChecker interface {
	RunCheck(ctx context.Context, userID *uuid.UUID) ([]service.CheckOutcome, error)
}

// Scheduler manages the scheduled price check job
type Scheduler struct {
	cron    *cron.Cron
	checker PriceChecker
	locker  lock.Locker
	config  Config
	logger  *slog.Logger
	entryID cron.EntryID
}

// New creates a new Scheduler instance. A nil locker falls back to an in-process lock.
func New(cfg Config, checker PriceChecker, locker lock.Locker, logger *slog.Logger) *Scheduler {
	logger = applog.Component(logger, "scheduler")
	if locker == nil {
		locker = lock.NewMemoryLocker()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultConfig().Timeout
	}

	return &Scheduler{
		cron:    cron.New(cron.WithSeconds()),
		checker: checker,
		locker:  locker,
		config:  cfg,
		logger:  logger,
	}
}

// Start begins the scheduler
func (s *Scheduler) Start() error {
	if !s.config.Enabled {
		s.logger.Info("Scheduler is disabled, skipping start")
		return nil
	}

	// robfig/cron with seconds expects 6 fields
	schedule := "0 " + s.config.Schedule

	entryID, err := s.cron.AddFunc(schedule, func() {
		s.runCheckJob(context.Background())
	})
	if err != nil {
		return err
	}

	s.entryID = entryID
	s.cron.Start()

	s.logger.Info("Scheduler started",
		slog.String("schedule", s.config.Schedule),
		slog.Duration("timeout", s.config.Timeout),
	)

	if s.config.RunOnStart {
		s.RunNow()
	}

	return nil
}

// Stop gracefully stops the scheduler. The returned context is done once a
// running job has finished.
func (s *Scheduler) Stop() context.Context {
	s.logger.Info("Stopping scheduler...")
	return s.cron.Stop()
}

// RunNow triggers an immediate batch in the background.
func (s *Scheduler) RunNow() {
	go s.runCheckJob(context.Background())
}

// runCheckJob executes one all-owners batch if no other replica holds the lock.
// It reports whether the batch ran.
func (s *Scheduler) runCheckJob(parent context.Context) bool {
	ctx, cancel := context.WithTimeout(parent, s.config.Timeout)
	defer cancel()

	unlock, err := s.locker.TryAcquire(ctx, LockKey, s.config.Timeout+time.Minute)
	if err != nil {
		if errors.Is(err, lock.ErrNotAcquired) {
			s.logger.Info("Price check already running elsewhere, skipping")
		} else {
			s.logger.Error("Acquiring price check lock failed", slog.String("error", err.Error()))
		}
		return false
	}
	defer func() {
		// release even when the batch context has expired
		releaseCtx, releaseCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer releaseCancel()
		if err := unlock(releaseCtx); err != nil {
			s.logger.Warn("Releasing price check lock failed", slog.String("error", err.Error()))
		}
	}()

	startTime := time.Now()
	s.logger.Info("Starting scheduled price check", slog.Time("start_time", startTime))

	outcomes, err := s.checker.RunCheck(ctx, nil)
	duration := time.Since(startTime)

	if err != nil {
		s.logger.Error("Price check job failed",
			slog.String("error", err.Error()),
			slog.Int("items_checked", len(outcomes)),
			slog.Duration("duration", duration),
		)
		return true
	}

	s.logger.Info("Price check job completed",
		slog.Int("items_checked", len(outcomes)),
		slog.Duration("duration", duration),
	)
	return true
}

// GetNextRunTime returns the next scheduled run time
func (s *Scheduler) GetNextRunTime() time.Time {
	if s.entryID == 0 {
		return time.Time{}
	}
	entry := s.cron.Entry(s.entryID)
	return entry.Next
}

// GetLastRunTime returns the last run time
func (s *Scheduler) GetLastRunTime() time.Time {
	if s.entryID == 0 {
		return time.Time{}
	}
	entry := s.cron.Entry(s.entryID)
	return entry.Prev
}

// IsRunning returns true if the scheduler is running
func (s *Scheduler) IsRunning() bool {
	return s.cron != nil && len(s.cron.Entries()) > 0
}
