package persist

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	"larder/internal/logging"

	"github.com/go-co-op/gocron/v2"
	"golang.org/x/sync/errgroup"
)

const (
	defaultJanitorSchedule = "* * * * *" // every minute
	defaultJanitorParallel = 4
)

// JanitorConfig configures a Janitor.
type JanitorConfig struct {
	// Schedule is the cron expression driving the sweep. Defaults to
	// every minute.
	Schedule string

	// Parallel bounds the number of concurrent refreshes within one
	// sweep. Defaults to 4.
	Parallel int

	// Logger for structured logging. If nil, logging is disabled.
	Logger *slog.Logger
}

// Janitor re-materializes expired entries in place on a cron schedule.
// Each sweep refreshes every entry whose TTL has elapsed; per-entry
// failures are logged and the sweep continues, since a stale artifact
// that fails to refresh is still readable.
type Janitor struct {
	store     *Store
	scheduler gocron.Scheduler
	parallel  int
	logger    *slog.Logger
}

// NewJanitor creates a Janitor for store. Call Start to begin sweeping.
func NewJanitor(store *Store, cfg JanitorConfig) (*Janitor, error) {
	if cfg.Schedule == "" {
		cfg.Schedule = defaultJanitorSchedule
	}
	if cfg.Parallel <= 0 {
		cfg.Parallel = defaultJanitorParallel
	}
	logger := logging.Default(cfg.Logger).With("component", "janitor")

	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("create janitor scheduler: %w", err)
	}

	j := &Janitor{
		store:     store,
		scheduler: scheduler,
		parallel:  cfg.Parallel,
		logger:    logger,
	}

	if _, err := scheduler.NewJob(
		gocron.CronJob(cfg.Schedule, true),
		gocron.NewTask(j.runSweep),
		gocron.WithName("janitor-sweep"),
	); err != nil {
		_ = scheduler.Shutdown()
		return nil, fmt.Errorf("schedule janitor sweep: %w", err)
	}
	return j, nil
}

// Start begins executing scheduled sweeps.
func (j *Janitor) Start() {
	j.scheduler.Start()
	j.logger.Info("janitor started")
}

// Stop shuts down the scheduler and waits for a running sweep to finish.
func (j *Janitor) Stop() error {
	return j.scheduler.Shutdown()
}

func (j *Janitor) runSweep() {
	j.Sweep(context.Background())
}

// Sweep refreshes every expired entry once and returns the number
// successfully refreshed. Refreshes run concurrently, bounded by the
// configured parallelism.
func (j *Janitor) Sweep(ctx context.Context) int {
	expired := j.store.Expired()
	if len(expired) == 0 {
		return 0
	}

	var refreshed atomic.Int64
	var g errgroup.Group
	g.SetLimit(j.parallel)
	for _, tok := range expired {
		g.Go(func() error {
			if _, err := j.store.Refresh(ctx, tok); err != nil {
				j.logger.Error("sweep: refresh failed", "token", tok, "error", err)
				return nil
			}
			refreshed.Add(1)
			return nil
		})
	}
	_ = g.Wait()

	n := int(refreshed.Load())
	j.logger.Info("sweep complete", "expired", len(expired), "refreshed", n)
	return n
}
