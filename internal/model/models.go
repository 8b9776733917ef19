// Package model defines shared data structures for the matcher service.
package model

// Posting is a raw job posting handed to intake by a source adapter
// (scraper, user submission, API). It is serialised to JSON and stored in
// queue_items.raw_data (JSONB) until the pipeline processes it.
type Posting struct {
	ExternalID  string  `json:"externalId,omitempty"`
	URL         string  `json:"url"`
	Title       string  `json:"title"`
	CompanyName string  `json:"companyName"`
	Location    string  `json:"location,omitempty"`
	Description string  `json:"description,omitempty"`
	SalaryMin   float64 `json:"salaryMin,omitempty"`
	SalaryMax   float64 `json:"salaryMax,omitempty"`
	CompanySize string  `json:"companySize,omitempty"`
	PublishedAt string  `json:"publishedAt,omitempty"`
}

// CompanyInfo is the payload of a company-type queue item: a company record
// to create or refresh independently of any single posting.
type CompanyInfo struct {
	Name       string `json:"name"`
	Domain     string `json:"domain,omitempty"`
	Size       string `json:"size,omitempty"`
	About      string `json:"about,omitempty"`
	Careers    string `json:"careersUrl,omitempty"`
	Enrichment []byte `json:"enrichment,omitempty"`
}
