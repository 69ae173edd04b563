package models

// ScrapeRequest is the payload for POST /api/v1/scrape-leads.
type ScrapeRequest struct {
	// Query is the free-text map search, e.g. "plumbers in Manchester".
	// No structure is imposed on it; the target's own search parses it.
	Query string `json:"query" binding:"required"`

	// MaxResults caps the number of leads returned and stored.
	// Default: 20. Max: 100.
	MaxResults int `json:"max_results,omitempty" binding:"omitempty,min=1,max=100"`

	// MaxAge enables the query cache: a cached result younger than MaxAge
	// milliseconds is returned without driving a browser. Default: 0 (off).
	MaxAge int `json:"max_age,omitempty" binding:"omitempty,min=0"`
}

// Defaults applies default values to unset fields.
func (r *ScrapeRequest) Defaults() {
	if r.MaxResults == 0 {
		r.MaxResults = 20
	}
}
