// Package match persists finalized, scored job matches. Exactly one
// non-deleted record exists per normalized URL once the pipeline and any
// cleanup pass have completed.
package match

import (
	"encoding/json"
	"time"

	"github.com/Jdubz/job-finder-worker-sub014/internal/scoring"
)

// Record is the finalized, scored record for a posting that passed the
// pipeline. Created by the save step; destroyed or merged only by the
// conflict resolver.
type Record struct {
	ID            string
	URL           string
	NormalizedURL string
	CompanyName   string
	CompanyID     *string
	JobTitle      string

	MatchScore        int
	Scoring           scoring.Result
	MatchedSkills     []string
	MissingSkills     []string
	MatchReasons      []string
	PotentialConcerns []string

	Location    *string
	Description *string
	// Enrichment holds the resume-intake / AI enrichment payload when an
	// external enrichment step has run; nil otherwise.
	Enrichment json.RawMessage

	QueueItemID string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Completeness ranks duplicate copies of the same posting during cleanup:
// one point per populated optional field, a large bonus for carrying an
// enrichment payload, plus a tenth of the match score. Used only by the
// conflict resolver — it has no meaning outside duplicate groups.
func (r *Record) Completeness() int {
	score := 0
	if r.CompanyID != nil && *r.CompanyID != "" {
		score++
	}
	if r.Location != nil && *r.Location != "" {
		score++
	}
	if r.Description != nil && *r.Description != "" {
		score++
	}
	if len(r.MatchedSkills) > 0 {
		score++
	}
	if len(r.MatchReasons) > 0 {
		score++
	}
	if len(r.Enrichment) > 0 {
		score += 10
	}
	return score + r.MatchScore/10
}
