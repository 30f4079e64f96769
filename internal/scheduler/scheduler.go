// Package scheduler runs the ledger's periodic jobs on cron schedules.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/segyhp/lending-ledger/internal/config"
)

// Jobs is the work the scheduler triggers. It is implemented in-process by
// the lending service and remotely by the admin API client.
type Jobs interface {
	// Sweep refreshes missed-payment counters and returns loans updated
	Sweep(ctx context.Context) (int, error)

	// Remind notifies borrowers with a payment due within days
	Remind(ctx context.Context, days int) (int, error)

	// Sync retries failed write-backs and returns how many are still pending
	Sync(ctx context.Context) (int, error)
}

// New creates a seconds-resolution cron evaluated in the configured timezone.
func New(cfg *config.Config) *cron.Cron {
	return cron.New(cron.WithSeconds(), cron.WithLocation(cfg.SchedulerLocation()))
}

// Register schedules the sweep, reminder and sync jobs on c.
func Register(c *cron.Cron, jobs Jobs, cfg *config.Config, log *zap.Logger) error {
	timeout := cfg.GetSchedulerAPITimeout()
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	run := func(name string, fn func(ctx context.Context) (int, error)) func() {
		return func() {
			ctx, cancel := context.WithTimeout(context.Background(), timeout)
			defer cancel()

			start := time.Now()
			n, err := fn(ctx)
			if err != nil {
				log.Error("scheduled job failed", zap.String("job", name), zap.Error(err))
				return
			}
			log.Info("scheduled job completed",
				zap.String("job", name),
				zap.Int("count", n),
				zap.Duration("duration", time.Since(start)),
			)
		}
	}

	// Daily job to refresh missed-payment counters
	if _, err := c.AddFunc(cfg.Scheduler.SweepSpec, run("sweep", jobs.Sweep)); err != nil {
		return fmt.Errorf("error scheduling sweep job: %w", err)
	}

	// Daily job to send payment reminders
	days := cfg.Scheduler.ReminderDays
	remind := func(ctx context.Context) (int, error) { return jobs.Remind(ctx, days) }
	if _, err := c.AddFunc(cfg.Scheduler.ReminderSpec, run("reminders", remind)); err != nil {
		return fmt.Errorf("error scheduling reminder job: %w", err)
	}

	// Frequent job to retry failed write-backs
	if _, err := c.AddFunc(cfg.Scheduler.SyncSpec, run("sync", jobs.Sync)); err != nil {
		return fmt.Errorf("error scheduling sync job: %w", err)
	}

	log.Info("cron jobs scheduled",
		zap.String("sweep", cfg.Scheduler.SweepSpec),
		zap.String("reminders", cfg.Scheduler.ReminderSpec),
		zap.String("sync", cfg.Scheduler.SyncSpec),
	)
	return nil
}
