package scheduler

import (
	"context"
	"time"

	"github.com/k-shtanenko/weather-stream/internal/logger"
	"github.com/robfig/cron/v3"
)

type Task func(ctx context.Context) error

type Scheduler interface {
	Schedule(ctx context.Context, interval time.Duration, task Task) error
	Stop()
}

type CronScheduler struct {
	cron    *cron.Cron
	timeout time.Duration
	logger  logger.Logger
}

func NewCronScheduler(timeout time.Duration) *CronScheduler {
	return &CronScheduler{
		cron:    cron.New(cron.WithSeconds()),
		timeout: timeout,
		logger:  logger.New("info", "development").WithField("component", "cron_scheduler"),
	}
}

func (s *CronScheduler) Schedule(ctx context.Context, interval time.Duration, task Task) error {
	interval = normalizeInterval(interval)
	s.logger.Infof("Scheduling task with interval: %v", interval)

	entryID := s.cron.Schedule(cron.Every(interval), cron.FuncJob(s.wrapTask(ctx, task)))

	s.logger.Infof("Task scheduled with entry ID: %d", entryID)

	if len(s.cron.Entries()) == 1 {
		s.cron.Start()
		s.logger.Info("Cron scheduler started")
	}

	return nil
}

// wrapTask gives each tick its own timeout and swallows task errors so a
// failed cycle never cancels the entry.
func (s *CronScheduler) wrapTask(ctx context.Context, task Task) func() {
	return func() {
		startTime := time.Now()
		s.logger.Debug("Starting scheduled task")

		taskCtx, cancel := context.WithTimeout(ctx, s.timeout)
		defer cancel()

		if err := task(taskCtx); err != nil {
			s.logger.Errorf("Task failed: %v", err)
			return
		}

		duration := time.Since(startTime)
		s.logger.Debugf("Task completed successfully in %v", duration)
	}
}

func (s *CronScheduler) Stop() {
	s.logger.Info("Stopping cron scheduler")

	ctx := s.cron.Stop()
	<-ctx.Done()

	s.logger.Info("Cron scheduler stopped")
}

// normalizeInterval falls back to five minutes when no interval is
// configured and clamps everything else to a ten second floor.
func normalizeInterval(interval time.Duration) time.Duration {
	if interval == 0 {
		return 5 * time.Minute
	}

	if interval < 10*time.Second {
		return 10 * time.Second
	}

	return interval
}
