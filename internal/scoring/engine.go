package scoring

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/Jdubz/job-finder-worker-sub014/internal/logger"
	"github.com/Jdubz/job-finder-worker-sub014/internal/policy"
)

// Adjustment categories.
const (
	CategoryTechnology = "technology"
	CategorySkills     = "skills"
	CategorySeniority  = "seniority"
	CategoryLocation   = "location"
	CategoryCompany    = "company"
)

// Per-signal point values that are not part of the technology policy.
// Technology category values always come from the policy row.
const (
	skillPoints       = 2
	seniorityPoints   = 5
	locationPoints    = 5
	remotePoints      = 3
	companySizePoints = 3
)

// Engine computes match scores. It is a pure CPU-bound component: the only
// side effect is emitting the adjustment ledger to the structured log.
type Engine struct {
	log *zap.Logger
}

// NewEngine returns an Engine logging ledgers through log.
func NewEngine(log *zap.Logger) *Engine {
	return &Engine{log: log}
}

// Score computes the weighted, explainable score for one posting.
//
// Technology tokens are scored first, against the policy's category lists;
// every token scored there enters the exclusion set so that skill matching
// never counts the same term a second time. An empty candidate skill set
// contributes zero skill adjustments; an empty job description skips skill
// scoring entirely rather than zeroing the score.
func (e *Engine) Score(in Input, profile policy.CandidateProfile, pol policy.TechnologyPolicy) Outcome {
	base := pol.BaseScore
	var adjustments []Adjustment
	var reasons, concerns []string

	// ── Technology ─────────────────────────────────────────────
	scoredTechnologySet := make(map[string]struct{}, len(in.Extraction.Technologies))
	requiredHits := 0
	for _, tech := range in.Extraction.Technologies {
		points, kind, ok := classifyTechnology(tech, pol)
		if !ok {
			continue // token outside the policy vocabulary
		}
		scoredTechnologySet[strings.ToLower(tech)] = struct{}{}
		adjustments = append(adjustments, Adjustment{
			Category: CategoryTechnology,
			Reason:   fmt.Sprintf("%s technology: %s", kind, tech),
			Points:   points,
		})
		switch kind {
		case "required":
			requiredHits++
			reasons = append(reasons, fmt.Sprintf("uses %s", tech))
		case "preferred":
			reasons = append(reasons, fmt.Sprintf("uses %s", tech))
		case "rejected":
			concerns = append(concerns, fmt.Sprintf("rejected technology: %s", tech))
		}
	}
	if len(pol.Required) > 0 && requiredHits == 0 {
		adjustments = append(adjustments, Adjustment{
			Category: CategoryTechnology,
			Reason:   "no required technology mentioned",
			Points:   pol.MissingRequiredScore,
		})
		concerns = append(concerns, "no required technology mentioned")
	}

	// ── Skills ─────────────────────────────────────────────────
	var matched, missing []string
	if in.JobDescription != "" {
		desc := strings.ToLower(in.JobDescription)
		for _, skill := range profile.Skills {
			if !containsWord(desc, strings.ToLower(skill)) {
				missing = append(missing, skill)
				continue
			}
			matched = append(matched, skill)
			if _, already := scoredTechnologySet[strings.ToLower(skill)]; already {
				// Counted by the technology step — never double-count.
				continue
			}
			adjustments = append(adjustments, Adjustment{
				Category: CategorySkills,
				Reason:   fmt.Sprintf("skill match: %s", skill),
				Points:   skillPoints,
			})
		}
	}

	// ── Structural signals: at most one adjustment each ────────
	if adj, reason, ok := seniorityAdjustment(in.Extraction.Seniority, profile.TargetSeniority); ok {
		adjustments = append(adjustments, adj)
		if adj.Points > 0 {
			reasons = append(reasons, reason)
		} else {
			concerns = append(concerns, reason)
		}
	}
	if adj, ok := locationAdjustment(in.Location, profile.PreferredLocations); ok {
		adjustments = append(adjustments, adj)
		reasons = append(reasons, adj.Reason)
	}
	if in.Extraction.Remote && profile.RemotePreferred {
		adj := Adjustment{Category: CategoryLocation, Reason: "remote-friendly bonus", Points: remotePoints}
		adjustments = append(adjustments, adj)
		reasons = append(reasons, adj.Reason)
	}
	if in.Company != nil && profile.PreferredCompanySize != "" &&
		strings.EqualFold(in.Company.Size, profile.PreferredCompanySize) {
		adj := Adjustment{
			Category: CategoryCompany,
			Reason:   fmt.Sprintf("%s-company preference", strings.ToLower(in.Company.Size)),
			Points:   companySizePoints,
		}
		adjustments = append(adjustments, adj)
		reasons = append(reasons, adj.Reason)
	}

	// ── Sum and clamp ──────────────────────────────────────────
	total := base
	for _, a := range adjustments {
		total += a.Points
	}
	final := clamp(total, 0, 100)

	e.log.Debug("scoring ledger",
		logger.Category(logger.CategoryLedger),
		zap.String("title", in.JobTitle),
		zap.Int("base", base),
		zap.Int("final", final),
		zap.Int("adjustments", len(adjustments)),
		zap.Any("ledger", adjustments),
	)

	return Outcome{
		Result: Result{
			BaseScore:   base,
			FinalScore:  final,
			Adjustments: adjustments,
		},
		MatchedSkills:     matched,
		MissingSkills:     missing,
		MatchReasons:      reasons,
		PotentialConcerns: concerns,
	}
}

// classifyTechnology returns the point value and category name for a token.
// Membership is checked in priority order so a token listed twice scores
// only once: rejected > required > preferred > disliked.
func classifyTechnology(tech string, pol policy.TechnologyPolicy) (points int, kind string, ok bool) {
	switch {
	case containsFold(pol.Rejected, tech):
		return pol.RejectedScore, "rejected", true
	case containsFold(pol.Required, tech):
		return pol.RequiredScore, "required", true
	case containsFold(pol.Preferred, tech):
		return pol.PreferredScore, "preferred", true
	case containsFold(pol.Disliked, tech):
		return pol.DislikedScore, "disliked", true
	}
	return 0, "", false
}

func seniorityAdjustment(posting, target string) (Adjustment, string, bool) {
	if posting == "" || target == "" {
		return Adjustment{}, "", false
	}
	if strings.EqualFold(posting, target) {
		reason := fmt.Sprintf("seniority match: %s", posting)
		return Adjustment{Category: CategorySeniority, Reason: reason, Points: seniorityPoints}, reason, true
	}
	if posting == "junior" {
		reason := "junior-level posting"
		return Adjustment{Category: CategorySeniority, Reason: reason, Points: -seniorityPoints}, reason, true
	}
	return Adjustment{}, "", false
}

func locationAdjustment(location string, preferred []string) (Adjustment, bool) {
	if location == "" {
		return Adjustment{}, false
	}
	loc := strings.ToLower(location)
	for _, p := range preferred {
		if p != "" && strings.Contains(loc, strings.ToLower(p)) {
			return Adjustment{
				Category: CategoryLocation,
				Reason:   fmt.Sprintf("%s office bonus", p),
				Points:   locationPoints,
			}, true
		}
	}
	return Adjustment{}, false
}

func containsFold(list []string, s string) bool {
	for _, v := range list {
		if strings.EqualFold(v, s) {
			return true
		}
	}
	return false
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
