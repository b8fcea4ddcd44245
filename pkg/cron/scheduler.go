// Package cron provides scheduled background jobs using robfig/cron.
package cron

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/FACorreiaa/expense-importer/pkg/metrics"
)

// Purger removes archived uploads created before cutoff.
type Purger interface {
	PurgeBefore(ctx context.Context, cutoff time.Time) (int, error)
}

// Scheduler manages background scheduled jobs using robfig/cron.
type Scheduler struct {
	cron      *cron.Cron
	purger    Purger
	retention time.Duration
	metrics   *metrics.Metrics
	now       func() time.Time
	logger    *slog.Logger
}

// NewScheduler creates a job scheduler that purges uploads older than retention.
func NewScheduler(purger Purger, retention time.Duration, logger *slog.Logger) *Scheduler {
	// Create cron with seconds disabled (standard 5-field format)
	c := cron.New(cron.WithLogger(cron.VerbosePrintfLogger(slog.NewLogLogger(logger.Handler(), slog.LevelDebug))))

	return &Scheduler{
		cron:      c,
		purger:    purger,
		retention: retention,
		now:       time.Now,
		logger:    logger,
	}
}

func (s *Scheduler) WithMetrics(m *metrics.Metrics) *Scheduler {
	s.metrics = m
	return s
}

// Start schedules the retention job on spec and begins running jobs.
func (s *Scheduler) Start(spec string) error {
	if _, err := s.cron.AddFunc(spec, s.purgeExpiredUploads); err != nil {
		return fmt.Errorf("invalid retention schedule %q: %w", spec, err)
	}

	s.cron.Start()
	s.logger.Info("cron scheduler started",
		slog.Int("jobs", len(s.cron.Entries())),
		slog.Duration("retention", s.retention),
	)
	return nil
}

// Stop gracefully stops all scheduled jobs.
func (s *Scheduler) Stop() context.Context {
	s.logger.Info("cron scheduler stopping")
	return s.cron.Stop()
}

// RunNow runs the retention job synchronously and returns how many uploads it removed.
func (s *Scheduler) RunNow(ctx context.Context) (int, error) {
	return s.purge(ctx)
}

func (s *Scheduler) purgeExpiredUploads() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	if _, err := s.purge(ctx); err != nil {
		s.logger.Error("failed to purge expired uploads", slog.Any("error", err))
	}
}

func (s *Scheduler) purge(ctx context.Context) (int, error) {
	cutoff := s.now().Add(-s.retention)
	removed, err := s.purger.PurgeBefore(ctx, cutoff)
	s.metrics.ObservePurge(removed)
	if err != nil {
		return removed, err
	}

	s.logger.Info("expired uploads purged",
		slog.Int("removed", removed),
		slog.Time("cutoff", cutoff),
	)
	return removed, nil
}
