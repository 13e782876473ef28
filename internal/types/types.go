// Package types provides common type definitions for the cellar tracker system.
package types

import "fmt"

// UserRole represents the access level of a user account
type UserRole string

const (
	// RoleMember represents a standard account managing its own cellar
	RoleMember UserRole = "member"
	// RoleAdmin represents an administrative account with access to batch operations
	RoleAdmin UserRole = "admin"
)

// WineType represents the broad style category of a wine
type WineType string

const (
	// WineTypeRed represents red wines
	WineTypeRed WineType = "red"
	// WineTypeWhite represents white wines
	WineTypeWhite WineType = "white"
	// WineTypeRose represents rosé wines
	WineTypeRose WineType = "rose"
	// WineTypeSparkling represents sparkling wines
	WineTypeSparkling WineType = "sparkling"
	// WineTypeDessert represents dessert and fortified wines
	WineTypeDessert WineType = "dessert"
)

// CandidateOutcome represents the result of processing one enrichment candidate
type CandidateOutcome string

const (
	// OutcomeEnriched means the candidate was patched with external data
	OutcomeEnriched CandidateOutcome = "enriched"
	// OutcomeSkipped means no applicable work existed for the candidate
	OutcomeSkipped CandidateOutcome = "skipped"
	// OutcomeFailed means the patch write failed
	OutcomeFailed CandidateOutcome = "failed"
)

// ServiceError represents a structured error response
type ServiceError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

func (e *ServiceError) Error() string {
	return e.Message
}

// EnrichmentError records a per-wine persistence failure during a sweep
type EnrichmentError struct {
	WineID string `json:"wineId"`
	Error  string `json:"error"`
}

// MaxRecordedErrors bounds the error list carried in a BatchProgress
const MaxRecordedErrors = 50

// BatchProgress accumulates per-candidate outcomes over one enrichment sweep.
// It is request-scoped: created at sweep start, discarded after the response
// is sent. No progress survives the request.
type BatchProgress struct {
	Total     int               `json:"total"`
	Processed int               `json:"processed"`
	Enriched  int               `json:"enriched"`
	Failed    int               `json:"failed"`
	Skipped   int               `json:"skipped"`
	Errors    []EnrichmentError `json:"errors"`
}

// Record applies one candidate outcome to the progress counters. Processed
// moves exactly once per candidate; exactly one outcome counter moves with it.
func (p *BatchProgress) Record(outcome CandidateOutcome, wineID string, err error) {
	p.Processed++
	switch outcome {
	case OutcomeEnriched:
		p.Enriched++
	case OutcomeFailed:
		p.Failed++
		if len(p.Errors) < MaxRecordedErrors {
			msg := ""
			if err != nil {
				msg = err.Error()
			}
			p.Errors = append(p.Errors, EnrichmentError{WineID: wineID, Error: msg})
		}
	default:
		p.Skipped++
	}
}

// SuccessRate formats enriched/total as a percentage string, e.g. "33.3%".
// Skipped candidates count against the rate; this matches the existing
// product display behavior.
func (p *BatchProgress) SuccessRate() string {
	if p.Total == 0 {
		return "0.0%"
	}
	return fmt.Sprintf("%.1f%%", float64(p.Enriched)/float64(p.Total)*100)
}
