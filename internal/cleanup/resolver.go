// Package cleanup resolves duplicate job matches that slipped past the
// save checkpoint (guard outage, legacy data). For every group of matches
// sharing a normalized URL it keeps the most complete copy and deletes the
// rest.
package cleanup

import (
	"context"
	"strconv"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/Jdubz/job-finder-worker-sub014/internal/events"
	"github.com/Jdubz/job-finder-worker-sub014/internal/logger"
	"github.com/Jdubz/job-finder-worker-sub014/internal/match"
)

// matchStore is the slice of the match store the resolver uses.
type matchStore interface {
	ListAll(ctx context.Context) ([]match.Record, error)
	Delete(ctx context.Context, id string) error
}

// EventSink publishes observability events.
type EventSink interface {
	Publish(ctx context.Context, eventType, category string, fields map[string]string)
}

// Report summarises one resolver run.
type Report struct {
	Scanned         int
	DuplicateGroups int
	Deleted         int
}

// Resolver is the periodic duplicate-match cleanup job.
type Resolver struct {
	matches matchStore
	sink    EventSink
	log     *zap.Logger
}

// NewResolver wires a Resolver.
func NewResolver(matches matchStore, sink EventSink, log *zap.Logger) *Resolver {
	return &Resolver{matches: matches, sink: sink, log: log}
}

// Run scans all matches, groups them by normalized URL, and for each group
// with more than one record keeps the winner and deletes the rest. Groups
// of one are never touched, so a clean store makes Run a no-op and repeated
// runs converge to the same state.
func (r *Resolver) Run(ctx context.Context) (Report, error) {
	records, err := r.matches.ListAll(ctx)
	if err != nil {
		return Report{}, errors.Wrap(err, "cleanup: list matches")
	}

	report := Report{Scanned: len(records)}

	groups := make(map[string][]match.Record)
	for _, rec := range records {
		groups[rec.NormalizedURL] = append(groups[rec.NormalizedURL], rec)
	}

	for url, group := range groups {
		if len(group) < 2 {
			continue
		}
		report.DuplicateGroups++

		winner := pickWinner(group)
		for _, loser := range group {
			if loser.ID == winner.ID {
				continue
			}
			if err := r.deleteLoser(ctx, url, winner, loser); err != nil {
				// Keep going; the next run retries whatever is left.
				r.log.Error("cleanup: delete duplicate match failed",
					zap.String("match_id", loser.ID),
					zap.Error(err),
				)
				continue
			}
			report.Deleted++
		}
	}

	r.log.Info("cleanup run finished",
		zap.Int("scanned", report.Scanned),
		zap.Int("duplicate_groups", report.DuplicateGroups),
		zap.Int("deleted", report.Deleted),
	)
	return report, nil
}

func (r *Resolver) deleteLoser(ctx context.Context, url string, winner, loser match.Record) error {
	if err := r.matches.Delete(ctx, loser.ID); err != nil {
		// Already gone means another run got here first; count it done.
		if errors.Is(err, match.ErrNotFound) {
			return nil
		}
		return err
	}

	r.log.Info("duplicate match deleted",
		logger.Category(logger.CategoryDelete),
		zap.String("normalized_url", url),
		zap.String("kept_id", winner.ID),
		zap.Int("kept_completeness", winner.Completeness()),
		zap.String("deleted_id", loser.ID),
		zap.Int("deleted_completeness", loser.Completeness()),
	)
	r.sink.Publish(ctx, events.TypeMatchDeleted, logger.CategoryDelete, map[string]string{
		"normalized_url":       url,
		"kept_id":              winner.ID,
		"deleted_id":           loser.ID,
		"deleted_completeness": strconv.Itoa(loser.Completeness()),
	})
	return nil
}

// pickWinner chooses the record to keep: highest completeness, ties broken
// by the most recently updated record.
func pickWinner(group []match.Record) match.Record {
	winner := group[0]
	best := winner.Completeness()
	for _, rec := range group[1:] {
		c := rec.Completeness()
		if c > best || (c == best && rec.UpdatedAt.After(winner.UpdatedAt)) {
			winner, best = rec, c
		}
	}
	return winner
}
