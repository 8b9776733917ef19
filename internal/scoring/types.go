// Package scoring computes the explainable match score for a posting.
//
// Every point change is recorded as exactly one Adjustment — there are no
// silent score mutations. The invariant
//
//	FinalScore == clamp(BaseScore + Σ Adjustments.Points, 0, 100)
//
// holds for every Result the engine produces.
package scoring

// Adjustment is one attributable point change in a Result.
type Adjustment struct {
	Category string `json:"category"`
	Reason   string `json:"reason"`
	Points   int    `json:"points"`
}

// Result is the embedded, explainable scoring output persisted with each
// job match.
type Result struct {
	BaseScore   int          `json:"baseScore"`
	FinalScore  int          `json:"finalScore"`
	Adjustments []Adjustment `json:"adjustments"`
}

// Outcome bundles the Result with the derived skill lists, reasons and
// concerns that the match record carries for downstream display.
type Outcome struct {
	Result            Result
	MatchedSkills     []string
	MissingSkills     []string
	MatchReasons      []string
	PotentialConcerns []string
}

// Extraction is the pre-computed signal set for a posting: the technology
// tokens found in its text plus structural signals. Produced by Extract,
// consumed by the engine.
type Extraction struct {
	Technologies []string
	Seniority    string
	Remote       bool
}

// CompanyData is optional company context for structural scoring.
type CompanyData struct {
	ID   string
	Size string
}

// Input is everything the engine scores from.
type Input struct {
	Extraction     Extraction
	JobTitle       string
	JobDescription string
	Location       string
	Company        *CompanyData
}
