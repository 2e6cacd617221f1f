package matcher_test

import (
	"fmt"
	"log"

	"apflow/internal/matcher"
	"apflow/pkg/models"
)

// Example matches a two-line invoice against a one-line purchase order.
func Example() {
	m := matcher.NewMatcher()

	result, err := m.Match(matcher.Request{
		Invoice: models.Invoice{
			Vendor:        models.Vendor{Name: "ACME GmbH"},
			InvoiceNumber: "INV-1001",
			InvoiceDate:   "2024-01-01",
			Currency:      "EUR",
			LineItems: []models.LineItem{
				{SKU: "A1", Description: "Widget", Quantity: 3, UnitPrice: 10},
				{Description: "Gadget", Quantity: 1, UnitPrice: 5},
			},
		},
		PurchaseOrder: models.PurchaseOrder{
			PONumber: "PO-77",
			LineItems: []models.POLineItem{
				{SKU: "a1", Description: "Widget", Quantity: 2, UnitPrice: 10},
			},
		},
	})
	if err != nil {
		log.Fatalf("Failed to match invoice: %v", err)
	}

	for _, lm := range result.Matches {
		fmt.Printf("line %d: %s (%s), quantity variance %.2f, amount variance %.2f\n",
			lm.InvoiceIndex, lm.Status, lm.MatchKind, lm.QuantityVariance, lm.LineTotalVariance)
	}
	fmt.Printf("status: %s\n", result.MatchSummary.Status)
	fmt.Printf("total amount variance: %.2f\n", result.MatchSummary.TotalAmountVariance)

	// Output:
	// line 0: partial (sku), quantity variance 1.00, amount variance 10.00
	// line 1: unmatched (unmatched), quantity variance 1.00, amount variance 5.00
	// status: partial
	// total amount variance: 15.00
}
