// Package export turns approved invoices into a sealed payment batch.
//
// The batch is ordered by (vendor_id, invoice_id) and carries a SHA-256 hash
// over a canonical serialization of its payments, so the same set of invoices
// always produces the same hash regardless of input order or batch id.
package export

import (
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"apflow/internal/logger"
	"apflow/internal/money"
	"apflow/internal/schema"
	"apflow/pkg/models"
)

// DefaultFormat is the export_format label used when none is configured.
const DefaultFormat = "json"

// Exporter is the payment export stage.
type Exporter struct {
	format string
	log    zerolog.Logger
}

// NewExporter creates the export stage. An empty format means DefaultFormat.
func NewExporter(format string) *Exporter {
	if strings.TrimSpace(format) == "" {
		format = DefaultFormat
	}
	return &Exporter{
		format: format,
		log:    logger.WithComponent("export"),
	}
}

// Export validates req and builds the ordered, hashed payment batch.
func (e *Exporter) Export(req Request) (*models.PaymentExportBatch, error) {
	if err := Validate(req); err != nil {
		e.log.Warn().Err(err).Msg("Export request rejected")
		return nil, err
	}

	batchID := strings.TrimSpace(req.ExportBatchID)
	if batchID == "" {
		batchID = NewBatchID()
	}
	log := logger.WithBatch("export", batchID)

	payments := make([]models.PaymentRecord, 0, len(req.Invoices))
	for _, inv := range req.Invoices {
		payments = append(payments, toPayment(inv))
	}
	SortPayments(payments)

	totals := make(map[string]float64)
	for _, p := range payments {
		totals[p.Currency] = money.Add(totals[p.Currency], p.Amount)
	}

	batch := &models.PaymentExportBatch{
		ExportBatchID:    batchID,
		ExportFormat:     e.format,
		Payments:         payments,
		ExportHash:       Hash(payments),
		TotalsByCurrency: totals,
		Metadata:         req.Metadata,
	}

	log.Info().
		Int("payments", len(payments)).
		Int("currencies", len(totals)).
		Str("export_hash", batch.ExportHash).
		Msg("Payment batch exported")

	return batch, nil
}

// Validate applies the export schema to req.
func Validate(req Request) error {
	return schema.Check(schema.Export, req, func(c *schema.Collector) {
		for i, inv := range req.Invoices {
			if currency := strings.TrimSpace(inv.Currency); currency != "" {
				c.Var(fmt.Sprintf("invoices[%d].currency", i), strings.ToUpper(currency), "iso4217")
			}
		}
	})
}

// Verify recomputes the hash over batch's payments as they appear and compares
// it with batch.ExportHash. A batch without id or hash fails schema validation.
func Verify(batch *models.PaymentExportBatch) error {
	if batch == nil {
		return fmt.Errorf("%w: no batch", ErrHashMismatch)
	}
	if err := schema.Check(schema.Batch, batch); err != nil {
		return err
	}
	actual := Hash(batch.Payments)
	if actual != strings.ToLower(strings.TrimSpace(batch.ExportHash)) {
		return fmt.Errorf("%w: batch %s: recorded %s, computed %s",
			ErrHashMismatch, batch.ExportBatchID, batch.ExportHash, actual)
	}
	return nil
}

// SortPayments orders payments by (vendor_id, invoice_id), comparing bytes.
// Payments with equal keys keep their input order.
func SortPayments(payments []models.PaymentRecord) {
	sort.SliceStable(payments, func(i, j int) bool {
		a, b := payments[i], payments[j]
		if a.VendorID != b.VendorID {
			return a.VendorID < b.VendorID
		}
		return a.InvoiceID < b.InvoiceID
	})
}

// NewBatchID returns a generated export batch id ("batch-<uuid>").
func NewBatchID() string {
	return "batch-" + uuid.NewString()
}

// DefaultRemittance is the remittance text used when an invoice carries none.
func DefaultRemittance(invoiceID string, amount float64, currency string) string {
	return fmt.Sprintf("Invoice %s %s %s", invoiceID, money.Fixed2(amount), currency)
}

func toPayment(inv InvoiceInput) models.PaymentRecord {
	amount := money.Round2(*inv.Amount)
	currency := strings.ToUpper(strings.TrimSpace(inv.Currency))
	invoiceID := strings.TrimSpace(inv.InvoiceID)

	creditor := strings.TrimSpace(inv.CreditorName)
	if creditor == "" {
		creditor = strings.TrimSpace(inv.VendorID)
	}
	remittance := strings.TrimSpace(inv.RemittanceText)
	if remittance == "" {
		remittance = DefaultRemittance(invoiceID, amount, currency)
	}

	return models.PaymentRecord{
		VendorID:       strings.TrimSpace(inv.VendorID),
		InvoiceID:      invoiceID,
		CreditorName:   creditor,
		IBAN:           NormalizeIBAN(inv.IBAN),
		BIC:            strings.ToUpper(strings.TrimSpace(inv.BIC)),
		Amount:         amount,
		Currency:       currency,
		ExecutionDate:  strings.TrimSpace(inv.ExecutionDate),
		RemittanceText: remittance,
	}
}

// NormalizeIBAN removes spaces and uppercases an IBAN ("de89 3704" -> "DE893704").
func NormalizeIBAN(iban string) string {
	return strings.ToUpper(strings.Join(strings.Fields(iban), ""))
}
