// Package dedup implements the duplicate guard run at the intake and save
// checkpoints. The guard only reads; all writes belong to the caller.
//
// The two checkpoints fail differently on store errors:
//
//   - intake fails open (error reads as "not found") so flaky storage never
//     blocks ingestion — worst case a duplicate item enters the queue and
//     the save checkpoint catches it;
//   - save fails closed (error surfaces) because a missed duplicate there
//     becomes a permanent second record.
package dedup

import (
	"context"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/Jdubz/job-finder-worker-sub014/internal/logger"
	"github.com/Jdubz/job-finder-worker-sub014/internal/match"
	"github.com/Jdubz/job-finder-worker-sub014/internal/queue"
)

// Store names reported in a Result.
const (
	StorePending = "pending"
	StoreMatches = "matches"
)

// ErrGuardUnavailable is returned by CheckSave when a store read fails and
// the duplicate state is unknown.
var ErrGuardUnavailable = errors.New("duplicate guard unavailable")

// Lookup is the single read the guard needs from each store. A miss is
// reported by the store's own not-found sentinel.
type Lookup interface {
	FindByNormalizedURL(ctx context.Context, normalizedURL string) (string, error)
}

// Result reports the outcome of a guard check.
type Result struct {
	Found      bool
	ExistingID string
	Store      string
}

// Guard checks a normalized URL against the pending queue and the
// finalized matches.
type Guard struct {
	pending   Lookup
	finalized Lookup
	log       *zap.Logger
}

// New returns a Guard over the two stores.
func New(pending, finalized Lookup, log *zap.Logger) *Guard {
	return &Guard{pending: pending, finalized: finalized, log: log}
}

// CheckIntake looks for the URL in both stores before a queue item is
// created. Best effort and non-atomic with the subsequent insert: two
// workers may both pass for the same URL, which the save checkpoint and
// the cleanup pass absorb. Store errors read as "not found".
func (g *Guard) CheckIntake(ctx context.Context, normalizedURL string) Result {
	for _, probe := range []struct {
		store string
		src   Lookup
	}{
		{StorePending, g.pending},
		{StoreMatches, g.finalized},
	} {
		id, err := probe.src.FindByNormalizedURL(ctx, normalizedURL)
		if err != nil {
			if !isNotFound(err) {
				g.log.Warn("intake guard read failed, failing open",
					zap.String("store", probe.store),
					zap.String("normalized_url", normalizedURL),
					zap.Error(err),
				)
			}
			continue
		}
		g.log.Info("duplicate detected at intake",
			logger.Category(logger.CategoryDuplicate),
			zap.String("store", probe.store),
			zap.String("existing_id", id),
			zap.String("normalized_url", normalizedURL),
		)
		return Result{Found: true, ExistingID: id, Store: probe.store}
	}
	return Result{}
}

// CheckSave looks for an existing finalized match immediately before the
// final write. A hit is not an error — the caller returns the existing ID
// as the idempotent result of the pipeline run. A store failure is an
// error: do not risk a duplicate permanent record.
func (g *Guard) CheckSave(ctx context.Context, normalizedURL string) (Result, error) {
	id, err := g.finalized.FindByNormalizedURL(ctx, normalizedURL)
	if err != nil {
		if isNotFound(err) {
			return Result{}, nil
		}
		return Result{}, errors.Wrap(errors.CombineErrors(ErrGuardUnavailable, err), "save checkpoint")
	}

	g.log.Info("duplicate detected at save",
		logger.Category(logger.CategoryDuplicate),
		zap.String("store", StoreMatches),
		zap.String("existing_id", id),
		zap.String("normalized_url", normalizedURL),
	)
	return Result{Found: true, ExistingID: id, Store: StoreMatches}, nil
}

// isNotFound treats both stores' not-found sentinels as a clean miss.
func isNotFound(err error) bool {
	return errors.Is(err, queue.ErrNotFound) || errors.Is(err, match.ErrNotFound)
}
