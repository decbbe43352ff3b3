// Package scheduler runs margin's periodic background jobs: the portfolio
// snapshot and the index quote refresh.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"

	"github.com/robinvdvleuten/margin/config"
	"github.com/robinvdvleuten/margin/market"
	"github.com/robinvdvleuten/margin/portfolio"
)

// Jobs is the work the scheduler triggers.
type Jobs interface {
	SaveSnapshot(ctx context.Context) (*portfolio.Snapshot, error)
	RefreshQuotes(ctx context.Context) ([]market.IndexData, error)
}

// Scheduler wraps a cron instance with margin's jobs.
type Scheduler struct {
	cron   *cron.Cron
	jobs   Jobs
	logger *slog.Logger
	ctx    context.Context
	count  int
}

// New registers the jobs whose spec in cfg is non-empty.
func New(jobs Jobs, cfg config.ScheduleConfig, logger *slog.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Scheduler{
		cron:   cron.New(),
		jobs:   jobs,
		logger: logger,
		ctx:    context.Background(),
	}

	for _, job := range []struct {
		name string
		spec string
		run  func()
	}{
		{"snapshot", cfg.Snapshot, s.runSnapshot},
		{"quotes", cfg.Quotes, s.runQuotes},
	} {
		if job.spec == "" {
			logger.Debug("scheduled job disabled", "job", job.name)
			continue
		}
		if _, err := s.cron.AddFunc(job.spec, job.run); err != nil {
			return nil, fmt.Errorf("invalid %s schedule %q: %w", job.name, job.spec, err)
		}
		s.count++
	}

	return s, nil
}

// Len returns the number of registered jobs.
func (s *Scheduler) Len() int {
	return s.count
}

// Run starts the jobs and blocks until ctx is cancelled, then waits for a
// running job to finish.
func (s *Scheduler) Run(ctx context.Context) {
	s.ctx = ctx
	s.cron.Start()
	s.logger.Info("scheduler started", "jobs", s.count)

	<-ctx.Done()
	<-s.cron.Stop().Done()
}

func (s *Scheduler) runSnapshot() {
	snap, err := s.jobs.SaveSnapshot(s.ctx)
	switch {
	case errors.Is(err, portfolio.ErrNotInitialized):
		s.logger.Debug("snapshot skipped, no password set")
	case err != nil:
		s.logger.Error("snapshot failed", "error", err)
	case snap == nil:
		s.logger.Debug("snapshot skipped, portfolio is empty")
	default:
		s.logger.Info("snapshot saved", "id", snap.ID, "stock_ratio", snap.StockRatio, "bond_ratio", snap.BondRatio)
	}
}

func (s *Scheduler) runQuotes() {
	quotes, err := s.jobs.RefreshQuotes(s.ctx)
	if err != nil {
		s.logger.Warn("quote refresh failed", "error", err)
		return
	}
	s.logger.Debug("quotes refreshed", "count", len(quotes))
}
