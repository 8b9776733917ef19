// Package intake accepts raw postings from source adapters (scrapers, user
// submissions, API) and turns them into queue items, running the duplicate
// guard's intake checkpoint per posting.
package intake

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/Jdubz/job-finder-worker-sub014/internal/dedup"
	"github.com/Jdubz/job-finder-worker-sub014/internal/events"
	"github.com/Jdubz/job-finder-worker-sub014/internal/logger"
	"github.com/Jdubz/job-finder-worker-sub014/internal/model"
	"github.com/Jdubz/job-finder-worker-sub014/internal/queue"
	"github.com/Jdubz/job-finder-worker-sub014/internal/urlnorm"
)

// Submission result statuses reported back to the submitter. A duplicate is
// a normal outcome, never a generic failure: the response names the
// existing record.
const (
	StatusQueued         = "queued"
	StatusAlreadyQueued  = "already_queued"
	StatusAlreadyMatched = "already_matched"
	StatusRejected       = "rejected"
)

// GuardChecker is the intake checkpoint of the duplicate guard.
type GuardChecker interface {
	CheckIntake(ctx context.Context, normalizedURL string) dedup.Result
}

// Enqueuer is the pending-store write the service needs.
type Enqueuer interface {
	Enqueue(ctx context.Context, item queue.Item) (id string, created bool, err error)
}

// EventSink publishes observability events.
type EventSink interface {
	Publish(ctx context.Context, eventType, category string, fields map[string]string)
}

// SubmissionResult describes what happened to one submitted posting.
type SubmissionResult struct {
	URL    string `json:"url"`
	Status string `json:"status"`
	ID     string `json:"id,omitempty"`
	Reason string `json:"reason,omitempty"`
}

// Report summarises one SubmitJobs call.
type Report struct {
	Added   int                `json:"added"`
	Results []SubmissionResult `json:"results"`
}

// Service is the intake entrypoint shared by every source adapter.
type Service struct {
	guard      GuardChecker
	pending    Enqueuer
	sink       EventSink
	log        *zap.Logger
	maxRetries int
}

// NewService wires the intake service.
func NewService(guard GuardChecker, pending Enqueuer, sink EventSink, log *zap.Logger, maxRetries int) *Service {
	return &Service{
		guard:      guard,
		pending:    pending,
		sink:       sink,
		log:        log,
		maxRetries: maxRetries,
	}
}

// SubmitJobs ingests a batch of postings. Malformed postings are rejected
// and counted, not fatal; duplicates are skipped with a reference to the
// existing record. Returns how many queue items were actually created.
func (s *Service) SubmitJobs(ctx context.Context, postings []model.Posting, source queue.Source, submittedBy string) (Report, error) {
	report := Report{Results: make([]SubmissionResult, 0, len(postings))}

	for _, p := range postings {
		res := s.submitJob(ctx, p, source, submittedBy)
		if res.Status == StatusQueued {
			report.Added++
		}
		report.Results = append(report.Results, res)
	}

	s.log.Info("job submission processed",
		zap.String("source", string(source)),
		zap.Int("submitted", len(postings)),
		zap.Int("added", report.Added),
	)
	return report, nil
}

func (s *Service) submitJob(ctx context.Context, p model.Posting, source queue.Source, submittedBy string) SubmissionResult {
	if reason := validatePosting(p); reason != "" {
		s.log.Warn("posting rejected at intake",
			zap.String("url", p.URL),
			zap.String("reason", reason),
		)
		return SubmissionResult{URL: p.URL, Status: StatusRejected, Reason: reason}
	}

	normalized, err := urlnorm.Normalize(p.URL)
	if err != nil {
		s.log.Warn("posting rejected at intake",
			zap.String("url", p.URL),
			zap.Error(err),
		)
		return SubmissionResult{URL: p.URL, Status: StatusRejected, Reason: "unparseable url"}
	}

	// Best-effort intake checkpoint; the save checkpoint is authoritative.
	if dup := s.guard.CheckIntake(ctx, normalized); dup.Found {
		s.sink.Publish(ctx, events.TypeDuplicateDetected, logger.CategoryDuplicate, map[string]string{
			"normalized_url": normalized,
			"existing_id":    dup.ExistingID,
			"store":          dup.Store,
			"checkpoint":     "intake",
		})
		return duplicateResult(p.URL, dup.ExistingID, dup.Store)
	}

	raw, err := json.Marshal(p)
	if err != nil {
		return SubmissionResult{URL: p.URL, Status: StatusRejected, Reason: "unencodable posting"}
	}

	id, created, err := s.pending.Enqueue(ctx, queue.Item{
		Type:          queue.TypeJob,
		URL:           p.URL,
		NormalizedURL: normalized,
		CompanyName:   p.CompanyName,
		Source:        source,
		SubmittedBy:   submittedBy,
		MaxRetries:    s.maxRetries,
		RawData:       raw,
	})
	if err != nil {
		s.log.Error("enqueue failed", zap.String("url", p.URL), zap.Error(err))
		return SubmissionResult{URL: p.URL, Status: StatusRejected, Reason: "storage error"}
	}
	if !created {
		// Lost the intake race to a concurrent worker; same outcome as a
		// guard hit.
		return duplicateResult(p.URL, id, dedup.StorePending)
	}

	return SubmissionResult{URL: p.URL, Status: StatusQueued, ID: id}
}

// SubmitCompany enqueues a company-type item. Companies have no posting
// URL; the dedup key is synthesised from the lowercased name (the careers
// URL, when present, is kept as the display URL only).
func (s *Service) SubmitCompany(ctx context.Context, info model.CompanyInfo, source queue.Source, submittedBy string) (SubmissionResult, error) {
	if strings.TrimSpace(info.Name) == "" {
		return SubmissionResult{Status: StatusRejected, Reason: "company name is required"}, nil
	}

	normalized := fmt.Sprintf("company:%s", strings.ToLower(strings.TrimSpace(info.Name)))

	if dup := s.guard.CheckIntake(ctx, normalized); dup.Found {
		return duplicateResult(info.Careers, dup.ExistingID, dup.Store), nil
	}

	raw, err := json.Marshal(info)
	if err != nil {
		return SubmissionResult{Status: StatusRejected, Reason: "unencodable company"}, nil
	}

	id, created, err := s.pending.Enqueue(ctx, queue.Item{
		Type:          queue.TypeCompany,
		URL:           info.Careers,
		NormalizedURL: normalized,
		CompanyName:   info.Name,
		Source:        source,
		SubmittedBy:   submittedBy,
		MaxRetries:    s.maxRetries,
		RawData:       raw,
	})
	if err != nil {
		return SubmissionResult{}, err
	}
	if !created {
		return duplicateResult(info.Careers, id, dedup.StorePending), nil
	}
	return SubmissionResult{URL: info.Careers, Status: StatusQueued, ID: id}, nil
}

func duplicateResult(url, existingID, store string) SubmissionResult {
	status := StatusAlreadyQueued
	reason := fmt.Sprintf("already queued as %s", existingID)
	if store == dedup.StoreMatches {
		status = StatusAlreadyMatched
		reason = fmt.Sprintf("already matched as %s", existingID)
	}
	return SubmissionResult{URL: url, Status: status, ID: existingID, Reason: reason}
}

func validatePosting(p model.Posting) string {
	switch {
	case strings.TrimSpace(p.URL) == "":
		return "url is required"
	case strings.TrimSpace(p.Title) == "":
		return "title is required"
	case strings.TrimSpace(p.CompanyName) == "":
		return "company name is required"
	}
	return ""
}
