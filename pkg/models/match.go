package models

// MatchKind says which key paired an invoice line with a PO line.
type MatchKind string

const (
	MatchKindSKU         MatchKind = "sku"
	MatchKindDescription MatchKind = "description"
	MatchKindUnmatched   MatchKind = "unmatched"
)

// MatchStatus classifies a line pairing, and by aggregation a whole invoice.
type MatchStatus string

const (
	StatusMatched   MatchStatus = "matched"
	StatusPartial   MatchStatus = "partial"
	StatusUnmatched MatchStatus = "unmatched"
)

// LineMatch is the outcome for one invoice line. Variances are invoice minus PO;
// for unmatched lines the PO side counts as zero.
type LineMatch struct {
	InvoiceIndex int         `json:"invoice_index"`
	POIndex      *int        `json:"po_index"`
	MatchKind    MatchKind   `json:"match_kind"`
	Status       MatchStatus `json:"status"`
	SKU          string      `json:"sku,omitempty"`
	Description  string      `json:"description,omitempty"`

	InvoiceQuantity  float64 `json:"invoice_quantity"`
	POQuantity       float64 `json:"po_quantity"`
	InvoiceUnitPrice float64 `json:"invoice_unit_price"`
	POUnitPrice      float64 `json:"po_unit_price"`
	InvoiceLineTotal float64 `json:"invoice_line_total"`
	POLineTotal      float64 `json:"po_line_total"`

	QuantityVariance  float64 `json:"quantity_variance"`
	UnitPriceVariance float64 `json:"unit_price_variance"`
	LineTotalVariance float64 `json:"line_total_variance"`
}

// MatchSummary aggregates the line matches of one invoice.
// MatchedLines + PartialLines + UnmatchedLines == TotalLines.
type MatchSummary struct {
	Status                MatchStatus `json:"status" validate:"notblank"`
	TotalLines            int         `json:"total_lines" validate:"gte=0"`
	MatchedLines          int         `json:"matched_lines" validate:"gte=0"`
	PartialLines          int         `json:"partial_lines" validate:"gte=0"`
	UnmatchedLines        int         `json:"unmatched_lines" validate:"gte=0"`
	TotalQuantityVariance float64     `json:"total_quantity_variance"`
	TotalAmountVariance   float64     `json:"total_amount_variance"`
}
