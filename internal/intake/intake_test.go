package intake

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"apflow/internal/schema"
	"apflow/pkg/models"
)

func validRequest() Request {
	return Request{
		Vendor:        VendorInput{Name: "  ACME GmbH ", VATID: "DE123456789"},
		InvoiceNumber: "INV-1001",
		InvoiceDate:   "2024-01-01",
		Currency:      "eur",
		LineItems: []LineItemInput{
			{SKU: " A1 ", Description: "Widget", Quantity: 2.0, UnitPrice: 10.0, VATRate: 19.0, Notes: "   "},
			{Description: "Service hour", Quantity: "1.5", UnitPrice: "80", VATRate: nil},
		},
	}
}

func TestNormalize_ComputesLineAndInvoiceTotals(t *testing.T) {
	// Arrange
	n := NewNormalizer()

	// Act
	out, err := n.Normalize(validRequest())

	// Assert
	require.NoError(t, err)
	require.Len(t, out.Invoice.LineItems, 2)

	first := out.Invoice.LineItems[0]
	assert.Equal(t, "A1", first.SKU)
	assert.Equal(t, "", first.Notes)
	assert.Equal(t, 20.0, first.LineTotal)
	assert.Equal(t, 3.8, first.VATAmount)

	second := out.Invoice.LineItems[1]
	assert.Equal(t, 1.5, second.Quantity)
	assert.Equal(t, 120.0, second.LineTotal)
	assert.Equal(t, 0.0, second.VATRate)
	assert.Equal(t, 0.0, second.VATAmount)

	assert.Equal(t, models.Totals{Subtotal: 140, VATTotal: 3.8, GrandTotal: 143.8}, out.Invoice.ComputedTotals)
	assert.Equal(t, out.Invoice.ComputedTotals, out.Result.Totals)
	assert.Equal(t, out.Invoice.ComputedTotals, out.Evidence.Totals)
	assert.True(t, out.Result.OK)
	assert.Equal(t, "EUR", out.Result.Currency)
	assert.Equal(t, "ACME GmbH", out.Invoice.Vendor.Name)
	assert.Len(t, out.Evidence.LineTotals, 2)
	assert.Equal(t, 1, out.Evidence.LineTotals[1].Index)
}

func TestNormalize_RoundsHalfCents(t *testing.T) {
	req := validRequest()
	req.LineItems = []LineItemInput{{SKU: "X", Quantity: 3, UnitPrice: 0.335, VATRate: 7}}

	out, err := NewNormalizer().Normalize(req)
	require.NoError(t, err)

	item := out.Invoice.LineItems[0]
	assert.Equal(t, 1.01, item.LineTotal)
	assert.Equal(t, 0.07, item.VATAmount)
	assert.Equal(t, 1.08, out.Invoice.ComputedTotals.GrandTotal)
}

func TestNormalize_DerivesIdempotencyKey(t *testing.T) {
	out, err := NewNormalizer().Normalize(validRequest())
	require.NoError(t, err)

	sum := sha256.Sum256([]byte("INV-1001|2024-01-01|DE123456789"))
	want := hex.EncodeToString(sum[:])[:32]

	assert.Equal(t, want, out.Invoice.IdempotencyKey)
	assert.Len(t, out.Invoice.IdempotencyKey, IdempotencyKeyLength)
	assert.True(t, out.Evidence.KeyDerived)
}

func TestNormalize_KeyWithoutVATID(t *testing.T) {
	req := validRequest()
	req.Vendor.VATID = ""

	out, err := NewNormalizer().Normalize(req)
	require.NoError(t, err)

	sum := sha256.Sum256([]byte("INV-1001|2024-01-01|"))
	assert.Equal(t, hex.EncodeToString(sum[:])[:32], out.Result.IdempotencyKey)
}

func TestNormalize_SuppliedKeyIsVerbatim(t *testing.T) {
	req := validRequest()
	req.IdempotencyKey = "caller-key-42"

	out, err := NewNormalizer().Normalize(req)
	require.NoError(t, err)

	assert.Equal(t, "caller-key-42", out.Invoice.IdempotencyKey)
	assert.False(t, out.Evidence.KeyDerived)
}

func TestNormalize_ReportsAllViolations(t *testing.T) {
	req := Request{
		InvoiceDate: "2024-13-01",
		Currency:    "euro",
		LineItems:   []LineItemInput{{Quantity: "two", VATRate: -5}},
	}

	out, err := NewNormalizer().Normalize(req)

	assert.Nil(t, out)
	require.True(t, errors.Is(err, schema.ErrValidation))

	var verr *schema.ValidationError
	require.True(t, errors.As(err, &verr))

	fields := map[string]string{}
	for _, v := range verr.Violations() {
		fields[v.Field] = v.Rule
	}
	assert.Equal(t, "notblank", fields["vendor.name"])
	assert.Equal(t, "notblank", fields["invoice_number"])
	assert.Equal(t, "datetime", fields["invoice_date"])
	assert.Equal(t, "iso4217", fields["currency"])
	assert.Equal(t, "number", fields["line_items[0].quantity"])
	assert.Equal(t, "gte", fields["line_items[0].vat_rate"])
}

func TestNormalize_RequiresLineItems(t *testing.T) {
	req := validRequest()
	req.LineItems = nil

	_, err := NewNormalizer().Normalize(req)

	var verr *schema.ValidationError
	require.True(t, errors.As(err, &verr))
	first, ok := verr.First()
	require.True(t, ok)
	assert.Equal(t, "line_items", first.Field)
}

func TestNormalize_NegativeQuantityRejected(t *testing.T) {
	req := validRequest()
	req.LineItems[0].Quantity = -1

	_, err := NewNormalizer().Normalize(req)
	assert.ErrorContains(t, err, "line_items[0].quantity")
}

func TestNormalize_DeclaredTotalsWarnings(t *testing.T) {
	req := validRequest()
	subtotal, vat, grand := 140.0, 3.8, 150.0
	req.DeclaredTotals = &DeclaredTotals{Subtotal: &subtotal, VATTotal: &vat, GrandTotal: &grand}

	out, err := NewNormalizer().Normalize(req)
	require.NoError(t, err)

	require.Len(t, out.Result.Warnings, 2)
	assert.Contains(t, out.Result.Warnings[0], "grand_total discrepancy")
	assert.Contains(t, out.Result.Warnings[1], "declared totals inconsistent")
	assert.Equal(t, 143.8, out.Result.Totals.GrandTotal)
}

func TestCheckDeclaredTotals_WithinTolerance(t *testing.T) {
	grand := 100.02
	warnings := CheckDeclaredTotals(&DeclaredTotals{GrandTotal: &grand}, models.Totals{GrandTotal: 100})
	assert.Empty(t, warnings)

	assert.Nil(t, CheckDeclaredTotals(nil, models.Totals{}))
}
