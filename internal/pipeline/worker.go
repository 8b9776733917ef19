// Package pipeline runs the per-item processing loop: claim a queue item,
// gate it through the prefilters, score it, and persist the outcome as a
// terminal queue transition.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/Jdubz/job-finder-worker-sub014/internal/dedup"
	"github.com/Jdubz/job-finder-worker-sub014/internal/events"
	"github.com/Jdubz/job-finder-worker-sub014/internal/logger"
	"github.com/Jdubz/job-finder-worker-sub014/internal/match"
	"github.com/Jdubz/job-finder-worker-sub014/internal/model"
	"github.com/Jdubz/job-finder-worker-sub014/internal/policy"
	"github.com/Jdubz/job-finder-worker-sub014/internal/prefilter"
	"github.com/Jdubz/job-finder-worker-sub014/internal/queue"
	"github.com/Jdubz/job-finder-worker-sub014/internal/scoring"
)

// queueStore is the slice of the queue store a worker drives.
type queueStore interface {
	ClaimNext(ctx context.Context) (*queue.Item, error)
	MarkSuccess(ctx context.Context, id, resultMessage string) error
	MarkSkipped(ctx context.Context, id, resultMessage string) error
	MarkFailed(ctx context.Context, id, errorDetails string) error
	Requeue(ctx context.Context, id, reason string) error
}

// saveGuard is the save checkpoint of the duplicate guard.
type saveGuard interface {
	CheckSave(ctx context.Context, normalizedURL string) (dedup.Result, error)
}

// matchStore persists finalized matches.
type matchStore interface {
	InsertIfAbsent(ctx context.Context, r match.Record) (id string, created bool, err error)
}

// companyStore resolves and maintains company records.
type companyStore interface {
	Upsert(ctx context.Context, info model.CompanyInfo) (string, error)
	FindByName(ctx context.Context, name string) (id, size string, err error)
}

// policySource serves the current policies. *policy.Cached implements it.
type policySource interface {
	TitleFilter(ctx context.Context) policy.TitleFilterPolicy
	StopList(ctx context.Context) policy.StopList
	Technology(ctx context.Context) policy.TechnologyPolicy
	CandidateProfile(ctx context.Context) policy.CandidateProfile
}

// EventSink publishes observability events.
type EventSink interface {
	Publish(ctx context.Context, eventType, category string, fields map[string]string)
}

// Config holds the worker loop tunables.
type Config struct {
	// PollInterval is how long a worker sleeps after finding the queue empty.
	PollInterval time.Duration
	// ItemTimeout bounds the processing of a single item.
	ItemTimeout time.Duration
}

// Worker is one processing loop. Run several Workers concurrently for
// parallelism; the claim query keeps them from colliding.
type Worker struct {
	cfg       Config
	queue     queueStore
	guard     saveGuard
	matches   matchStore
	companies companyStore
	policies  policySource
	engine    *scoring.Engine
	sink      EventSink
	log       *zap.Logger
}

// New wires a Worker.
func New(cfg Config, q queueStore, guard saveGuard, matches matchStore,
	companies companyStore, policies policySource, engine *scoring.Engine,
	sink EventSink, log *zap.Logger) *Worker {
	return &Worker{
		cfg:       cfg,
		queue:     q,
		guard:     guard,
		matches:   matches,
		companies: companies,
		policies:  policies,
		engine:    engine,
		sink:      sink,
		log:       log,
	}
}

// Run claims and processes items until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) {
	for {
		item, err := w.queue.ClaimNext(ctx)
		switch {
		case errors.Is(err, queue.ErrNotFound):
			if !sleep(ctx, w.cfg.PollInterval) {
				return
			}
			continue
		case err != nil:
			if ctx.Err() != nil {
				return
			}
			w.log.Error("claim failed", zap.Error(err))
			if !sleep(ctx, w.cfg.PollInterval) {
				return
			}
			continue
		}

		w.process(ctx, item)

		if ctx.Err() != nil {
			return
		}
	}
}

// process runs one item under the per-item timeout. Status writes use the
// parent context so a timed-out item can still be finalised.
func (w *Worker) process(ctx context.Context, item *queue.Item) {
	itemCtx, cancel := context.WithTimeout(ctx, w.cfg.ItemTimeout)
	defer cancel()

	result, err := w.handle(itemCtx, item)

	switch {
	case err == nil:
		w.finalize(ctx, item, queue.StatusSuccess, result)

	case errors.Is(err, context.DeadlineExceeded) && itemCtx.Err() != nil && ctx.Err() == nil:
		// A timeout is transient: retry while budget remains, FAILED
		// with details "timeout" once it is spent.
		w.retry(ctx, item, errTimeout)

	case errors.HasType(err, (*skipError)(nil)):
		w.finalize(ctx, item, queue.StatusSkipped, err.Error())

	case errors.HasType(err, (*permanentError)(nil)):
		w.finalize(ctx, item, queue.StatusFailed, err.Error())

	case ctx.Err() != nil:
		// Shutting down mid-item; leave it PROCESSING for a later restart
		// pass or manual requeue.
		w.log.Warn("shutdown during item", zap.String("item_id", item.ID))

	default:
		w.retry(ctx, item, err)
	}
}

// handle dispatches on item type. Errors are classified by wrapping: a
// *skipError becomes SKIPPED, a *permanentError becomes FAILED, anything
// else is retryable.
func (w *Worker) handle(ctx context.Context, item *queue.Item) (string, error) {
	switch item.Type {
	case queue.TypeJob:
		return w.handleJob(ctx, item)
	case queue.TypeCompany:
		return w.handleCompany(ctx, item)
	default:
		return "", permanent("unknown item type: %s", item.Type)
	}
}

func (w *Worker) handleJob(ctx context.Context, item *queue.Item) (string, error) {
	var posting model.Posting
	if err := json.Unmarshal(item.RawData, &posting); err != nil {
		return "", permanent("undecodable posting payload: %v", err)
	}

	// Cheap gates first.
	if res := prefilter.EvaluateTitle(posting.Title, w.policies.TitleFilter(ctx)); !res.Pass {
		return "", skip("%s", res.Reason)
	}
	text := posting.Title + " " + posting.Description
	if res := prefilter.EvaluateStopList(posting.CompanyName, posting.URL, text, w.policies.StopList(ctx)); !res.Pass {
		return "", skip("%s", res.Reason)
	}

	pol := w.policies.Technology(ctx)
	profile := w.policies.CandidateProfile(ctx)

	extraction := scoring.Extract(posting.Title, posting.Description, pol.Vocabulary())

	companyID, companySize, err := w.companies.FindByName(ctx, posting.CompanyName)
	if err != nil {
		return "", errors.Wrap(err, "company lookup")
	}
	var company *scoring.CompanyData
	if companyID != "" {
		company = &scoring.CompanyData{ID: companyID, Size: companySize}
	}

	outcome := w.engine.Score(scoring.Input{
		Extraction:     extraction,
		JobTitle:       posting.Title,
		JobDescription: posting.Description,
		Location:       posting.Location,
		Company:        company,
	}, profile, pol)

	// Authoritative duplicate check right before the final write.
	dup, err := w.guard.CheckSave(ctx, item.NormalizedURL)
	if err != nil {
		return "", errors.Wrap(err, "save checkpoint")
	}
	if dup.Found {
		return "", skip("duplicate of %s", dup.ExistingID)
	}

	rec := match.Record{
		URL:               posting.URL,
		NormalizedURL:     item.NormalizedURL,
		CompanyName:       posting.CompanyName,
		JobTitle:          posting.Title,
		MatchScore:        outcome.Result.FinalScore,
		Scoring:           outcome.Result,
		MatchedSkills:     outcome.MatchedSkills,
		MissingSkills:     outcome.MissingSkills,
		MatchReasons:      outcome.MatchReasons,
		PotentialConcerns: outcome.PotentialConcerns,
		QueueItemID:       item.ID,
	}
	if company != nil {
		rec.CompanyID = &company.ID
	}
	if posting.Location != "" {
		rec.Location = &posting.Location
	}
	if posting.Description != "" {
		rec.Description = &posting.Description
	}

	matchID, created, err := w.matches.InsertIfAbsent(ctx, rec)
	if err != nil {
		return "", errors.Wrap(err, "save match")
	}
	if !created {
		// Lost the save race to a concurrent worker.
		return "", skip("duplicate of %s", matchID)
	}

	w.sink.Publish(ctx, events.TypeMatchCreated, logger.CategoryCreate, map[string]string{
		"match_id":       matchID,
		"normalized_url": item.NormalizedURL,
		"score":          strconv.Itoa(outcome.Result.FinalScore),
	})
	return fmt.Sprintf("matched as %s (score %d)", matchID, outcome.Result.FinalScore), nil
}

func (w *Worker) handleCompany(ctx context.Context, item *queue.Item) (string, error) {
	var info model.CompanyInfo
	if err := json.Unmarshal(item.RawData, &info); err != nil {
		return "", permanent("undecodable company payload: %v", err)
	}

	id, err := w.companies.Upsert(ctx, info)
	if err != nil {
		return "", errors.Wrap(err, "upsert company")
	}
	return fmt.Sprintf("company %s", id), nil
}

// finalize writes the terminal status and publishes the finish event. A
// finalize failure is logged, not retried: the item stays PROCESSING and
// operators can requeue it.
func (w *Worker) finalize(ctx context.Context, item *queue.Item, status queue.Status, detail string) {
	var err error
	switch status {
	case queue.StatusSuccess:
		err = w.queue.MarkSuccess(ctx, item.ID, detail)
	case queue.StatusSkipped:
		err = w.queue.MarkSkipped(ctx, item.ID, detail)
	case queue.StatusFailed:
		err = w.queue.MarkFailed(ctx, item.ID, detail)
	}
	if err != nil {
		w.log.Error("finalize failed",
			zap.String("item_id", item.ID),
			zap.String("status", string(status)),
			zap.Error(err),
		)
		return
	}

	w.sink.Publish(ctx, events.TypeItemFinished, logger.CategoryTransition, map[string]string{
		"item_id": item.ID,
		"type":    string(item.Type),
		"status":  string(status),
		"detail":  detail,
	})
}

// retry requeues after a transient failure, failing the item once the
// retry budget is spent.
func (w *Worker) retry(ctx context.Context, item *queue.Item, cause error) {
	reason := cause.Error()
	w.log.Warn("item failed, requeueing",
		zap.String("item_id", item.ID),
		zap.Int("retry_count", item.RetryCount),
		zap.Error(cause),
	)

	err := w.queue.Requeue(ctx, item.ID, reason)
	if err == nil {
		return
	}
	if errors.Is(err, queue.ErrRetriesExhausted) {
		w.finalize(ctx, item, queue.StatusFailed, reason)
		return
	}
	w.log.Error("requeue failed", zap.String("item_id", item.ID), zap.Error(err))
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// errTimeout is the retry reason and, once the budget is spent, the
// error details recorded for an item that exceeded its processing window.
var errTimeout = errors.New("timeout")

// skipError marks an outcome that should finish the item as SKIPPED.
type skipError struct{ reason string }

func (e *skipError) Error() string { return e.reason }

func skip(format string, args ...any) error {
	return &skipError{reason: fmt.Sprintf(format, args...)}
}

// permanentError marks a failure retrying cannot fix.
type permanentError struct{ reason string }

func (e *permanentError) Error() string { return e.reason }

func permanent(format string, args ...any) error {
	return &permanentError{reason: fmt.Sprintf(format, args...)}
}
