package models

import (
	"strings"
	"time"
)

// NameUnknown is the sentinel stored when a listing's name cannot be
// recovered. The record is still emitted: a nameless listing is still a
// listing, and downstream wants to know it exists.
const NameUnknown = "N/A"

// Lead is one extracted business record. Construct it with NewLead so that
// HasWebsite stays consistent with Website; a Lead is never mutated after
// construction.
type Lead struct {
	Name        string `json:"name"`
	Category    string `json:"category,omitempty"`
	Address     string `json:"address,omitempty"`
	Phone       string `json:"phone,omitempty"`
	Website     string `json:"website,omitempty"`
	HasWebsite  bool   `json:"has_website"`
	Rating      string `json:"rating,omitempty"`
	ReviewCount string `json:"review_count,omitempty"`
}

// NewLead builds a Lead, applying the name sentinel and deriving HasWebsite.
// HasWebsite is true iff the website value is non-empty after trimming; it is
// never set independently anywhere else.
func NewLead(name, category, address, phone, website, rating, reviewCount string) Lead {
	if strings.TrimSpace(name) == "" {
		name = NameUnknown
	}
	return Lead{
		Name:        name,
		Category:    category,
		Address:     address,
		Phone:       phone,
		Website:     website,
		HasWebsite:  strings.TrimSpace(website) != "",
		Rating:      rating,
		ReviewCount: reviewCount,
	}
}

// StoredLead is a Lead as persisted, with storage metadata attached.
type StoredLead struct {
	ID        int64     `json:"id"`
	Lead
	Source    string    `json:"source"`
	Query     string    `json:"query"`
	CreatedAt time.Time `json:"created_at"`
}

// StageDiagnostic records a non-fatal failure absorbed during one scrape
// stage, so operators can tell "zero results" from "extraction degraded".
type StageDiagnostic struct {
	Stage   string `json:"stage"` // "search", "paginate", "extract"
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ExtractionResult is the pipeline's output for one scrape invocation.
type ExtractionResult struct {
	// Records is the capped, insertion-ordered list of extracted leads.
	Records []Lead `json:"records"`

	// RecordsFound is the count of leads extracted before the cap.
	RecordsFound int `json:"records_found"`

	// Truncated is true when RecordsFound exceeded the configured cap.
	Truncated bool `json:"truncated"`

	// Diagnostics lists the stage and listing failures absorbed during the
	// run. A populated Diagnostics with zero records means the extraction
	// degraded; empty Diagnostics with zero records means a genuinely empty
	// result set.
	Diagnostics []StageDiagnostic `json:"diagnostics,omitempty"`
}

// HighPriorityCount returns how many records have no website, the leads the
// whole system exists to find.
func (r *ExtractionResult) HighPriorityCount() int {
	n := 0
	for _, rec := range r.Records {
		if !rec.HasWebsite {
			n++
		}
	}
	return n
}
