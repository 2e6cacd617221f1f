package intake

import "apflow/pkg/models"

// Request is a raw invoice submission as received from an upstream system.
// Numeric line fields accept JSON numbers or numeric strings; missing means 0.
type Request struct {
	Vendor         VendorInput            `json:"vendor"`
	InvoiceNumber  string                 `json:"invoice_number" validate:"notblank"`
	InvoiceDate    string                 `json:"invoice_date" validate:"notblank"`
	DueDate        string                 `json:"due_date,omitempty"`
	Currency       string                 `json:"currency" validate:"notblank"`
	LineItems      []LineItemInput        `json:"line_items" validate:"required,min=1"`
	IdempotencyKey string                 `json:"idempotency_key,omitempty"`
	Attachments    []models.Attachment    `json:"attachments,omitempty" validate:"omitempty,dive"`
	Timezone       string                 `json:"timezone,omitempty"`
	DeclaredTotals *DeclaredTotals        `json:"declared_totals,omitempty"`
	Metadata       map[string]interface{} `json:"metadata,omitempty"`
}

// VendorInput is the vendor block of a submission.
type VendorInput struct {
	Name    string `json:"name" validate:"notblank"`
	VATID   string `json:"vat_id,omitempty"`
	Address string `json:"address,omitempty"`
}

// LineItemInput is one raw line; derived fields are never read from input.
type LineItemInput struct {
	SKU         string      `json:"sku,omitempty"`
	Description string      `json:"description,omitempty"`
	Quantity    interface{} `json:"quantity,omitempty"`
	UnitPrice   interface{} `json:"unit_price,omitempty"`
	VATRate     interface{} `json:"vat_rate,omitempty"`
	AccountCode string      `json:"account_code,omitempty"`
	Notes       string      `json:"notes,omitempty"`
}

// DeclaredTotals are the totals printed on the invoice, if the submitter
// extracted them. They are cross-checked but never used as the amount due.
type DeclaredTotals struct {
	Subtotal   *float64 `json:"subtotal,omitempty"`
	VATTotal   *float64 `json:"vat_total,omitempty"`
	GrandTotal *float64 `json:"grand_total,omitempty"`
}

// Result is the intake stage result document.
type Result struct {
	OK             bool                   `json:"ok"`
	InvoiceNumber  string                 `json:"invoice_number"`
	Currency       string                 `json:"currency"`
	IdempotencyKey string                 `json:"idempotency_key"`
	Totals         models.Totals          `json:"totals"`
	LineItems      []models.LineItem      `json:"line_items"`
	Warnings       []string               `json:"warnings,omitempty"`
	Metadata       map[string]interface{} `json:"metadata,omitempty"`
}

// LineEvidence records how one line's amounts were derived.
type LineEvidence struct {
	Index     int     `json:"index"`
	Quantity  float64 `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
	VATRate   float64 `json:"vat_rate"`
	LineTotal float64 `json:"line_total"`
	VATAmount float64 `json:"vat_amount"`
}

// Evidence is the audit record of the derived amounts.
type Evidence struct {
	InvoiceNumber  string          `json:"invoice_number"`
	IdempotencyKey string          `json:"idempotency_key"`
	KeyDerived     bool            `json:"idempotency_key_derived"`
	LineTotals     []LineEvidence  `json:"line_totals"`
	Totals         models.Totals   `json:"totals"`
	DeclaredTotals *DeclaredTotals `json:"declared_totals,omitempty"`
	Warnings       []string        `json:"warnings,omitempty"`
}

// Outcome bundles everything intake emits for one submission.
type Outcome struct {
	Result   Result
	Invoice  models.Invoice
	Evidence Evidence
}
