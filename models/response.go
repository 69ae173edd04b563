package models

// ScrapeResponse is the response for POST /api/v1/scrape-leads.
type ScrapeResponse struct {
	// Success indicates whether the scrape invocation completed. A scrape
	// that found nothing is still a success; absence of data is not a fault.
	Success bool `json:"success"`

	// LeadsAdded is the number of records extracted and appended to storage.
	LeadsAdded int `json:"leads_added"`

	// HighPriority is the number of added records with has_website=false.
	HighPriority int `json:"high_priority"`

	// Truncated is true when more listings were found than the result cap.
	Truncated bool `json:"truncated"`

	// Diagnostics lists non-fatal failures absorbed during the run.
	Diagnostics []StageDiagnostic `json:"diagnostics,omitempty"`

	// CacheStatus indicates whether the result was served from cache.
	// Values: "hit", "miss", or empty (caching not requested).
	CacheStatus string `json:"cache_status,omitempty"`

	// Timing provides duration breakdowns for the operation.
	Timing TimingInfo `json:"timing"`

	// Error is populated only when Success is false.
	Error *ErrorDetail `json:"error,omitempty"`
}

// LeadsResponse is the response for GET /api/v1/leads.
type LeadsResponse struct {
	Success bool         `json:"success"`
	Count   int          `json:"count"`
	Leads   []StoredLead `json:"leads"`
	Error   *ErrorDetail `json:"error,omitempty"`
}

// TimingInfo breaks down the time spent in each phase.
type TimingInfo struct {
	// TotalMs is the end-to-end duration in milliseconds.
	TotalMs int64 `json:"total_ms"`

	// ScrapeMs is the time spent driving the browser session.
	ScrapeMs int64 `json:"scrape_ms"`

	// StoreMs is the time spent appending leads to storage.
	StoreMs int64 `json:"store_ms"`
}

// HealthResponse is the response for GET /api/v1/health.
type HealthResponse struct {
	Status  string `json:"status"` // "healthy" or "degraded"
	Uptime  string `json:"uptime"`
	Version string `json:"version"`
}
