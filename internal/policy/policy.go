// Package policy provides read access to the configurable filter and
// scoring policies. Policies are owned by an external collaborator (the
// settings UI writes them); the pipeline only ever reads.
//
// The pipeline must tolerate stale-but-valid policy data but never a
// missing policy: on any read failure the adapter falls back to the
// permissive defaults below and logs a warning.
package policy

// TitleFilterPolicy drives the prefilter's keyword gate.
type TitleFilterPolicy struct {
	RequiredKeywords []string `json:"requiredKeywords"`
	ExcludedKeywords []string `json:"excludedKeywords"`
}

// TechnologyPolicy classifies technology tokens and carries every
// per-category point value used by the scoring engine. Point values are
// configuration data, not engine constants; the defaults below are the
// documented design choice for an unset policy.
type TechnologyPolicy struct {
	Required  []string `json:"required"`
	Preferred []string `json:"preferred"`
	Disliked  []string `json:"disliked"`
	Rejected  []string `json:"rejected"`

	BaseScore            int `json:"baseScore"`
	RequiredScore        int `json:"requiredScore"`
	PreferredScore       int `json:"preferredScore"`
	DislikedScore        int `json:"dislikedScore"`
	RejectedScore        int `json:"rejectedScore"`
	MissingRequiredScore int `json:"missingRequiredScore"`
}

// Vocabulary returns every technology token the policy knows about, used by
// extraction to find technology mentions in posting text.
func (p TechnologyPolicy) Vocabulary() []string {
	vocab := make([]string, 0, len(p.Required)+len(p.Preferred)+len(p.Disliked)+len(p.Rejected))
	vocab = append(vocab, p.Required...)
	vocab = append(vocab, p.Preferred...)
	vocab = append(vocab, p.Disliked...)
	vocab = append(vocab, p.Rejected...)
	return vocab
}

// StopList excludes postings by company, keyword, or source domain before
// any scoring happens.
type StopList struct {
	ExcludedCompanies []string `json:"excludedCompanies"`
	ExcludedKeywords  []string `json:"excludedKeywords"`
	ExcludedDomains   []string `json:"excludedDomains"`
}

// CandidateProfile describes the candidate the pipeline scores against.
type CandidateProfile struct {
	Skills               []string `json:"skills"`
	TargetSeniority      string   `json:"targetSeniority"`
	PreferredLocations   []string `json:"preferredLocations"`
	RemotePreferred      bool     `json:"remotePreferred"`
	PreferredCompanySize string   `json:"preferredCompanySize"`
}

// DefaultTitleFilter is the least-restrictive fallback: nothing required,
// nothing excluded.
func DefaultTitleFilter() TitleFilterPolicy { return TitleFilterPolicy{} }

// DefaultTechnology is the fallback scoring policy: neutral midpoint base,
// modest per-token values, no vocabulary (so technology scoring is a no-op
// until a real policy is configured).
func DefaultTechnology() TechnologyPolicy {
	return TechnologyPolicy{
		BaseScore:            50,
		RequiredScore:        5,
		PreferredScore:       3,
		DislikedScore:        -3,
		RejectedScore:        -10,
		MissingRequiredScore: -15,
	}
}

// DefaultStopList excludes nothing.
func DefaultStopList() StopList { return StopList{} }

// DefaultProfile has no declared skills; skill scoring contributes zero
// adjustments against it.
func DefaultProfile() CandidateProfile { return CandidateProfile{} }
