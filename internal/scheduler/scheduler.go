// Package scheduler wires up the cron job that periodically runs the
// duplicate-match cleanup pass.
package scheduler

import (
	"context"
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/Jdubz/job-finder-worker-sub014/internal/cleanup"
)

// Scheduler wraps robfig/cron and manages the cleanup cycle.
type Scheduler struct {
	cron     *cron.Cron
	resolver *cleanup.Resolver
	spec     string // cron spec, e.g. "@every 6h"
	log      *zap.Logger
}

// New creates a Scheduler firing every intervalHours hours.
func New(resolver *cleanup.Resolver, intervalHours int, log *zap.Logger) *Scheduler {
	return &Scheduler{
		cron:     cron.New(),
		resolver: resolver,
		spec:     fmt.Sprintf("@every %dh", intervalHours),
		log:      log,
	}
}

// Start registers the job and starts the scheduler. Also runs one cleanup
// immediately so a backlog of duplicates is cleared without waiting for
// the first tick.
func (s *Scheduler) Start(ctx context.Context) error {
	_, err := s.cron.AddFunc(s.spec, func() {
		s.runCleanup(ctx)
	})
	if err != nil {
		return errors.Wrap(err, "cron.AddFunc")
	}

	s.cron.Start()
	s.log.Info("cleanup scheduler started", zap.String("spec", s.spec))

	// Run immediately on startup (non-blocking)
	go s.runCleanup(ctx)

	return nil
}

// Stop gracefully shuts down the scheduler.
func (s *Scheduler) Stop() {
	s.cron.Stop()
	s.log.Info("cleanup scheduler stopped")
}

func (s *Scheduler) runCleanup(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	report, err := s.resolver.Run(ctx)
	if err != nil {
		s.log.Error("cleanup cycle failed", zap.Error(err))
		return
	}
	s.log.Info("cleanup cycle complete",
		zap.Int("scanned", report.Scanned),
		zap.Int("duplicate_groups", report.DuplicateGroups),
		zap.Int("deleted", report.Deleted),
	)
}
