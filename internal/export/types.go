package export

import "errors"

// ErrHashMismatch is returned by Verify when a batch's payments no longer hash
// to its export_hash.
var ErrHashMismatch = errors.New("export hash mismatch")

// Request is the exporter input document.
type Request struct {
	ExportBatchID string                 `json:"export_batch_id,omitempty"`
	Invoices      []InvoiceInput         `json:"invoices" validate:"required,min=1,dive"`
	Metadata      map[string]interface{} `json:"metadata,omitempty"`
}

// InvoiceInput is one approved invoice to pay.
type InvoiceInput struct {
	VendorID       string   `json:"vendor_id" validate:"notblank"`
	InvoiceID      string   `json:"invoice_id" validate:"notblank"`
	CreditorName   string   `json:"creditor_name,omitempty"`
	IBAN           string   `json:"iban" validate:"notblank"`
	BIC            string   `json:"bic,omitempty"`
	Amount         *float64 `json:"amount" validate:"required,gte=0"`
	Currency       string   `json:"currency" validate:"notblank"`
	ExecutionDate  string   `json:"execution_date" validate:"required,datetime=2006-01-02"`
	RemittanceText string   `json:"remittance_text,omitempty"`
}
