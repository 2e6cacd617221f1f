package models

// Vendor identifies the party that issued an invoice.
type Vendor struct {
	Name    string `json:"name" validate:"notblank"`
	VATID   string `json:"vat_id,omitempty"`
	Address string `json:"address,omitempty"`
}

// LineItem is one normalized invoice line. LineTotal and VATAmount are derived:
// line_total = round2(quantity * unit_price), vat_amount = round2(line_total * vat_rate / 100).
type LineItem struct {
	SKU         string  `json:"sku,omitempty"`
	Description string  `json:"description,omitempty"`
	Quantity    float64 `json:"quantity" validate:"gte=0"`
	UnitPrice   float64 `json:"unit_price"`
	VATRate     float64 `json:"vat_rate" validate:"gte=0"` // percent
	AccountCode string  `json:"account_code,omitempty"`
	Notes       string  `json:"notes,omitempty"`

	LineTotal float64 `json:"line_total"`
	VATAmount float64 `json:"vat_amount"`
}

// Totals are the aggregate amounts of an invoice.
type Totals struct {
	Subtotal   float64 `json:"subtotal"`
	VATTotal   float64 `json:"vat_total"`
	GrandTotal float64 `json:"grand_total"`
}

// Attachment references a supporting file (scan, delivery note).
type Attachment struct {
	Name      string `json:"name" validate:"notblank"`
	URI       string `json:"uri,omitempty"`
	MediaType string `json:"media_type,omitempty"`
}

// Invoice is a vendor invoice after intake normalization.
// Dates are calendar dates (YYYY-MM-DD) with no time component.
type Invoice struct {
	Vendor         Vendor       `json:"vendor"`
	InvoiceNumber  string       `json:"invoice_number" validate:"notblank"`
	InvoiceDate    string       `json:"invoice_date" validate:"required,datetime=2006-01-02"`
	DueDate        string       `json:"due_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Currency       string       `json:"currency" validate:"required,iso4217"`
	LineItems      []LineItem   `json:"line_items" validate:"required,min=1,dive"`
	ComputedTotals Totals       `json:"computed_totals"`
	IdempotencyKey string       `json:"idempotency_key"`
	Attachments    []Attachment `json:"attachments,omitempty" validate:"omitempty,dive"`
	Timezone       string       `json:"timezone,omitempty"`
}

// POLineItem is a purchase order line. It carries no derived fields.
type POLineItem struct {
	SKU         string  `json:"sku,omitempty"`
	Description string  `json:"description,omitempty"`
	Quantity    float64 `json:"quantity" validate:"gte=0"`
	UnitPrice   float64 `json:"unit_price"`
}

// PurchaseOrder is the reference document an invoice is matched against.
type PurchaseOrder struct {
	PONumber  string       `json:"po_number" validate:"notblank"`
	Currency  string       `json:"currency,omitempty" validate:"omitempty,iso4217"`
	IssueDate string       `json:"issue_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Vendor    *Vendor      `json:"vendor,omitempty" validate:"omitempty"`
	LineItems []POLineItem `json:"line_items" validate:"dive"`
}
