package export_test

import (
	"fmt"
	"log"

	"apflow/internal/export"
)

// Example exports two approved invoices submitted out of order.
func Example() {
	amount := func(v float64) *float64 { return &v }

	batch, err := export.NewExporter("json").Export(export.Request{
		ExportBatchID: "batch-2024-01",
		Invoices: []export.InvoiceInput{
			{VendorID: "V2", InvoiceID: "INV-9", IBAN: "DE89370400440532013000", Amount: amount(100), Currency: "EUR", ExecutionDate: "2024-01-15"},
			{VendorID: "V1", InvoiceID: "INV-3", IBAN: "FR7630006000011234567890189", Amount: amount(50.5), Currency: "EUR", ExecutionDate: "2024-01-15"},
		},
	})
	if err != nil {
		log.Fatalf("Failed to export payments: %v", err)
	}

	for _, p := range batch.Payments {
		fmt.Printf("%s %s %.2f %s %q\n", p.VendorID, p.InvoiceID, p.Amount, p.Currency, p.RemittanceText)
	}
	fmt.Printf("total EUR: %.2f\n", batch.TotalsByCurrency["EUR"])
	fmt.Printf("verified: %t\n", export.Verify(batch) == nil)

	// Output:
	// V1 INV-3 50.50 EUR "Invoice INV-3 50.50 EUR"
	// V2 INV-9 100.00 EUR "Invoice INV-9 100.00 EUR"
	// total EUR: 150.50
	// verified: true
}
