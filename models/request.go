package models

import "strings"

// Output modes for POST /api/v1/scrape.
const (
	ModeJSON = "json"
	ModeSave = "save"
)

// ScrapeRequest is the payload for POST /api/v1/scrape.
type ScrapeRequest struct {
	// Identifier is the portal login ID. Required.
	Identifier string `json:"identifier" binding:"required"`

	// Password is the portal password. Required.
	Password string `json:"password" binding:"required"`

	// SecurityCode is the third login field (the portal's one-time /
	// security code). Required.
	SecurityCode string `json:"securityCode" binding:"required"`

	// Mode controls the result envelope.
	// "json" (default): return the extracted data inline.
	// "save": persist the result to disk and return only the filename.
	Mode string `json:"mode,omitempty" binding:"omitempty,oneof=json save"`
}

// Defaults applies default values to unset fields.
func (r *ScrapeRequest) Defaults() {
	if r.Mode == "" {
		r.Mode = ModeJSON
	}
}

// Validate checks the request without any framework help, so the "no browser
// work before validation" property holds for every caller, not just gin.
func (r *ScrapeRequest) Validate() *ScrapeError {
	var missing []string
	if strings.TrimSpace(r.Identifier) == "" {
		missing = append(missing, "identifier")
	}
	if strings.TrimSpace(r.Password) == "" {
		missing = append(missing, "password")
	}
	if strings.TrimSpace(r.SecurityCode) == "" {
		missing = append(missing, "securityCode")
	}
	if len(missing) > 0 {
		return NewScrapeError(ErrCodeInvalidInput,
			"missing required field(s): "+strings.Join(missing, ", "), nil)
	}
	if r.Mode != "" && r.Mode != ModeJSON && r.Mode != ModeSave {
		return NewScrapeError(ErrCodeInvalidInput,
			"mode must be \"json\" or \"save\"", nil)
	}
	return nil
}

// Credentials returns the login credentials carried by the request.
func (r *ScrapeRequest) Credentials() Credentials {
	return Credentials{
		Identifier:   r.Identifier,
		Password:     r.Password,
		SecurityCode: r.SecurityCode,
	}
}

// Credentials is the login triple. Values are opaque, never logged in
// cleartext and never persisted beyond the scrape that used them.
type Credentials struct {
	Identifier   string
	Password     string
	SecurityCode string
}

// MaskedIdentifier keeps the last three characters for log correlation.
func (c Credentials) MaskedIdentifier() string {
	if len(c.Identifier) <= 3 {
		return "***"
	}
	return "***" + c.Identifier[len(c.Identifier)-3:]
}
