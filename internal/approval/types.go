package approval

import "apflow/pkg/models"

// Request is the scheduler input document.
type Request struct {
	Invoice          models.Invoice         `json:"invoice"`
	MatchSummary     models.MatchSummary    `json:"match_summary"`
	Policy           Policy                 `json:"policy"`
	PaymentTermsDays *int                   `json:"payment_terms_days,omitempty" validate:"omitempty,gte=0"`
	Metadata         map[string]interface{} `json:"metadata,omitempty"`
}

// Policy is the approval policy supplied with a request. Unset fields fall
// back to the scheduler defaults.
type Policy struct {
	VarianceThreshold *float64 `json:"variance_threshold,omitempty" validate:"omitempty,gte=0"`
	RequiredStatus    string   `json:"required_status,omitempty"`
}

// Defaults are the policy values used when a request leaves them out.
type Defaults struct {
	PaymentTermsDays  int
	RequiredStatus    models.MatchStatus
	VarianceThreshold float64
}

// DefaultPolicy returns net-14 terms, status "matched" and zero variance.
func DefaultPolicy() Defaults {
	return Defaults{
		PaymentTermsDays:  14,
		RequiredStatus:    models.StatusMatched,
		VarianceThreshold: 0,
	}
}

// Result is the scheduler output document.
type Result struct {
	InvoiceNumber string `json:"invoice_number"`
	Currency      string `json:"currency"`
	models.ApprovalDecision
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}
