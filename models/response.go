package models

// ScrapeResponse is the mode=json response for POST /api/v1/scrape.
type ScrapeResponse struct {
	// Success indicates whether the scrape authenticated and extracted
	// at least one view.
	Success bool `json:"success"`

	// Data is the aggregated scrape result. Present only on success.
	Data *ScrapeResult `json:"data,omitempty"`

	// Timing is the end-to-end duration breakdown.
	Timing TimingInfo `json:"timing"`

	// Error is populated only when Success is false.
	Error *ErrorDetail `json:"error,omitempty"`
}

// SaveResponse is the mode=save response: the data itself stays on disk.
type SaveResponse struct {
	Success  bool         `json:"success"`
	Message  string       `json:"message,omitempty"`
	Filename string       `json:"filename,omitempty"`
	Error    *ErrorDetail `json:"error,omitempty"`
}

// TimingInfo breaks down the time spent in each phase.
type TimingInfo struct {
	// TotalMs is the end-to-end duration in milliseconds.
	TotalMs int64 `json:"total_ms"`

	// AuthMs is the time spent launching and authenticating.
	AuthMs int64 `json:"auth_ms,omitempty"`

	// ExtractionMs is the time spent running the extraction pipeline.
	ExtractionMs int64 `json:"extraction_ms,omitempty"`
}

// HealthResponse is the response for GET /api/v1/health.
type HealthResponse struct {
	Status  string    `json:"status"` // "healthy"
	Uptime  string    `json:"uptime"`
	Scraper GateStats `json:"scraper"`
	Version string    `json:"version"`
}

// GateStats reports the state of the single-session scrape gate.
type GateStats struct {
	Busy    bool `json:"busy"`
	Waiting int  `json:"waiting"`
}
