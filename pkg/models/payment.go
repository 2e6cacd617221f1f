package models

// Decision is the approval outcome for one invoice.
type Decision string

const (
	DecisionApproved    Decision = "approved"
	DecisionNeedsReview Decision = "needs_review"
)

// ApprovalDecision says whether an invoice may be paid, how much, and when.
// Reasons is empty if and only if Decision is approved.
type ApprovalDecision struct {
	Decision             Decision     `json:"decision"`
	Reasons              []string     `json:"reasons"`
	ScheduledPaymentDate string       `json:"scheduled_payment_date"`
	PayAmount            float64      `json:"pay_amount"`
	MatchSummary         MatchSummary `json:"match_summary"`
	Checklist            []string     `json:"checklist"`
}

// PaymentRecord is one payment instruction in an export batch.
// Field order here is the canonical hashing order.
type PaymentRecord struct {
	VendorID       string  `json:"vendor_id"`
	InvoiceID      string  `json:"invoice_id"`
	CreditorName   string  `json:"creditor_name"`
	IBAN           string  `json:"iban"`
	BIC            string  `json:"bic,omitempty"`
	Amount         float64 `json:"amount"`
	Currency       string  `json:"currency"`
	ExecutionDate  string  `json:"execution_date"`
	RemittanceText string  `json:"remittance_text"`
}

// PaymentExportBatch is a sealed, canonically ordered set of payments.
type PaymentExportBatch struct {
	ExportBatchID    string                 `json:"export_batch_id" validate:"notblank"`
	ExportFormat     string                 `json:"export_format"`
	Payments         []PaymentRecord        `json:"payments"`
	ExportHash       string                 `json:"export_hash" validate:"notblank"`
	TotalsByCurrency map[string]float64     `json:"totals_by_currency"`
	Metadata         map[string]interface{} `json:"metadata,omitempty"`
}
