// Package intake validates a raw invoice submission and turns it into a
// normalized invoice with computed totals and an idempotency key.
//
// Normalization is all-or-nothing: if any required field is missing or any
// number cannot be read, Normalize returns a *schema.ValidationError listing
// every violation and no invoice.
package intake

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cast"

	"apflow/internal/logger"
	"apflow/internal/money"
	"apflow/internal/schema"
	"apflow/pkg/models"
)

// IdempotencyKeyLength is the number of hex characters kept from the content hash.
const IdempotencyKeyLength = 32

// Normalizer is the intake stage. It holds no per-invoice state.
type Normalizer struct {
	log zerolog.Logger
}

// NewNormalizer creates the intake stage.
func NewNormalizer() *Normalizer {
	return &Normalizer{
		log: logger.WithComponent("intake"),
	}
}

// Normalize validates req and derives the normalized invoice, result and evidence.
func (n *Normalizer) Normalize(req Request) (*Outcome, error) {
	const op = "Normalize"

	numbers, err := validate(req)
	if err != nil {
		n.log.Warn().Err(err).Str("op", op).Msg("Invoice submission rejected")
		return nil, err
	}

	invoice := models.Invoice{
		Vendor: models.Vendor{
			Name:    strings.TrimSpace(req.Vendor.Name),
			VATID:   strings.TrimSpace(req.Vendor.VATID),
			Address: strings.TrimSpace(req.Vendor.Address),
		},
		InvoiceNumber: strings.TrimSpace(req.InvoiceNumber),
		InvoiceDate:   strings.TrimSpace(req.InvoiceDate),
		DueDate:       strings.TrimSpace(req.DueDate),
		Currency:      strings.ToUpper(strings.TrimSpace(req.Currency)),
		Timezone:      strings.TrimSpace(req.Timezone),
		LineItems:     make([]models.LineItem, 0, len(req.LineItems)),
	}

	for _, a := range req.Attachments {
		invoice.Attachments = append(invoice.Attachments, models.Attachment{
			Name:      strings.TrimSpace(a.Name),
			URI:       strings.TrimSpace(a.URI),
			MediaType: strings.TrimSpace(a.MediaType),
		})
	}

	evidence := Evidence{
		InvoiceNumber:  invoice.InvoiceNumber,
		LineTotals:     make([]LineEvidence, 0, len(req.LineItems)),
		DeclaredTotals: req.DeclaredTotals,
	}

	var totals models.Totals
	for i, raw := range req.LineItems {
		item := normalizeLine(raw, numbers[i])
		invoice.LineItems = append(invoice.LineItems, item)

		totals.Subtotal = money.Add(totals.Subtotal, item.LineTotal)
		totals.VATTotal = money.Add(totals.VATTotal, item.VATAmount)

		evidence.LineTotals = append(evidence.LineTotals, LineEvidence{
			Index:     i,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
			VATRate:   item.VATRate,
			LineTotal: item.LineTotal,
			VATAmount: item.VATAmount,
		})
	}
	totals.GrandTotal = money.Add(totals.Subtotal, totals.VATTotal)
	invoice.ComputedTotals = totals
	evidence.Totals = totals

	key, derived := IdempotencyKey(req.IdempotencyKey, invoice)
	invoice.IdempotencyKey = key
	evidence.IdempotencyKey = key
	evidence.KeyDerived = derived

	warnings := CheckDeclaredTotals(req.DeclaredTotals, totals)
	for _, w := range warnings {
		n.log.Warn().Str("invoice_number", invoice.InvoiceNumber).Msg(w)
	}
	evidence.Warnings = warnings

	n.log.Info().
		Str("invoice_number", invoice.InvoiceNumber).
		Str("currency", invoice.Currency).
		Int("line_items", len(invoice.LineItems)).
		Float64("grand_total", totals.GrandTotal).
		Str("idempotency_key", key).
		Bool("key_derived", derived).
		Msg("Invoice normalized")

	return &Outcome{
		Result: Result{
			OK:             true,
			InvoiceNumber:  invoice.InvoiceNumber,
			Currency:       invoice.Currency,
			IdempotencyKey: key,
			Totals:         totals,
			LineItems:      invoice.LineItems,
			Warnings:       warnings,
			Metadata:       req.Metadata,
		},
		Invoice:  invoice,
		Evidence: evidence,
	}, nil
}

// IdempotencyKey returns supplied verbatim when it is non-blank. Otherwise it
// derives sha256("invoice_number|invoice_date|vat_id") truncated to 32 hex chars.
func IdempotencyKey(supplied string, invoice models.Invoice) (string, bool) {
	if strings.TrimSpace(supplied) != "" {
		return supplied, false
	}
	material := strings.Join([]string{invoice.InvoiceNumber, invoice.InvoiceDate, invoice.Vendor.VATID}, "|")
	sum := sha256.Sum256([]byte(material))
	return hex.EncodeToString(sum[:])[:IdempotencyKeyLength], true
}

type lineNumbers struct {
	quantity  float64
	unitPrice float64
	vatRate   float64
}

func normalizeLine(raw LineItemInput, nums lineNumbers) models.LineItem {
	lineTotal := money.Mul(nums.quantity, nums.unitPrice)
	return models.LineItem{
		SKU:         strings.TrimSpace(raw.SKU),
		Description: strings.TrimSpace(raw.Description),
		Quantity:    nums.quantity,
		UnitPrice:   nums.unitPrice,
		VATRate:     nums.vatRate,
		AccountCode: strings.TrimSpace(raw.AccountCode),
		Notes:       strings.TrimSpace(raw.Notes),
		LineTotal:   lineTotal,
		VATAmount:   money.Round2(lineTotal * nums.vatRate / 100),
	}
}

// validate checks req and returns the coerced numbers of every line.
func validate(req Request) ([]lineNumbers, error) {
	c := schema.NewCollector(schema.Intake)
	c.Struct(req)

	if date := strings.TrimSpace(req.InvoiceDate); date != "" {
		c.Var("invoice_date", date, "datetime=2006-01-02")
	}
	if due := strings.TrimSpace(req.DueDate); due != "" {
		c.Var("due_date", due, "datetime=2006-01-02")
	}
	if currency := strings.TrimSpace(req.Currency); currency != "" {
		c.Var("currency", strings.ToUpper(currency), "iso4217")
	}

	numbers := make([]lineNumbers, len(req.LineItems))
	for i, line := range req.LineItems {
		prefix := fmt.Sprintf("line_items[%d]", i)
		numbers[i].quantity = coerce(c, prefix+".quantity", line.Quantity)
		numbers[i].unitPrice = coerce(c, prefix+".unit_price", line.UnitPrice)
		numbers[i].vatRate = coerce(c, prefix+".vat_rate", line.VATRate)

		if numbers[i].quantity < 0 {
			c.Add(prefix+".quantity", "gte", "must be greater than or equal to 0")
		}
		if numbers[i].vatRate < 0 {
			c.Add(prefix+".vat_rate", "gte", "must be greater than or equal to 0")
		}
	}

	if err := c.Err(); err != nil {
		return nil, err
	}
	return numbers, nil
}

// coerce reads a JSON number or numeric string; nil and blank strings are 0.
func coerce(c *schema.Collector, field string, value interface{}) float64 {
	if s, ok := value.(string); ok {
		value = strings.TrimSpace(s)
		if value == "" {
			return 0
		}
	}

	f, err := cast.ToFloat64E(value)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		c.Addf(field, "number", "must be a number (got %v)", value)
		return 0
	}
	return f
}
