package matcher

import "apflow/pkg/models"

// Request is the matcher input document.
type Request struct {
	Invoice       models.Invoice         `json:"invoice"`
	PurchaseOrder models.PurchaseOrder   `json:"purchase_order"`
	Tolerances    *Tolerances            `json:"tolerances,omitempty"`
	Metadata      map[string]interface{} `json:"metadata,omitempty"`
}

// Tolerances are absolute per-measure allowances for a "matched" line.
// Zero (the default) means the variance must round to exactly zero.
type Tolerances struct {
	Quantity  float64 `json:"quantity" validate:"gte=0"`
	UnitPrice float64 `json:"unit_price" validate:"gte=0"`
	Amount    float64 `json:"amount" validate:"gte=0"`
}

// Result is the matcher output document.
type Result struct {
	InvoiceNumber       string                 `json:"invoice_number"`
	PurchaseOrderNumber string                 `json:"purchase_order_number"`
	Currency            string                 `json:"currency"`
	Matches             []models.LineMatch     `json:"matches"`
	MatchSummary        models.MatchSummary    `json:"match_summary"`
	UnmatchedPOLines    []int                  `json:"unmatched_po_lines,omitempty"`
	Metadata            map[string]interface{} `json:"metadata,omitempty"`
}

// slot wraps one PO line for a single Match call. used flips false->true at most once.
type slot struct {
	poIndex int
	skuKey  string
	descKey string
	used    bool
}
