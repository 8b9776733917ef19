package queue

import (
	"encoding/json"
	"time"
)

// ItemType tags the variant of work a queue item carries. Every consumer
// switches exhaustively on it; unknown types fail the item.
type ItemType string

const (
	TypeJob     ItemType = "job"
	TypeCompany ItemType = "company"
)

// Source records which intake adapter submitted an item.
type Source string

const (
	SourceUserSubmission Source = "user_submission"
	SourceScraper        Source = "scraper"
	SourceAPI            Source = "api"
	SourceManual         Source = "manual"
)

// Item is a unit of work awaiting processing. The store assigns ID;
// NormalizedURL is the dedup key and is unique among non-FAILED rows
// (enforced by a partial unique index on queue_items).
type Item struct {
	ID            string
	Type          ItemType
	Status        Status
	URL           string
	NormalizedURL string
	CompanyName   string
	Source        Source
	SubmittedBy   string
	RetryCount    int
	MaxRetries    int
	RawData       json.RawMessage

	CreatedAt   time.Time
	UpdatedAt   time.Time
	ProcessedAt *time.Time
	CompletedAt *time.Time

	ResultMessage *string
	ErrorDetails  *string
}
