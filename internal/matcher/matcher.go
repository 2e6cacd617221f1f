// Package matcher pairs invoice lines with purchase order lines.
//
// The matching is deliberately simple and order-sensitive:
//   - SKU is tried before description
//   - the first unused PO line in PO order wins (no best-fit search)
//   - a PO line is consumed by at most one invoice line
//
// Unmatched invoice lines are never dropped: they carry their full invoice
// value as variance so they surface in the summary.
//
// Example usage:
//
//	m := matcher.NewMatcher()
//	result, err := m.Match(req)
//	if result.MatchSummary.Status != models.StatusMatched {
//		// route to review
//	}
package matcher

import (
	"math"
	"strings"

	"github.com/rs/zerolog"

	"apflow/internal/logger"
	"apflow/internal/money"
	"apflow/internal/schema"
	"apflow/pkg/models"
)

// Matcher is the PO matching stage. It keeps no state between calls.
type Matcher struct {
	log zerolog.Logger
}

// NewMatcher creates the matching stage.
func NewMatcher() *Matcher {
	return &Matcher{
		log: logger.WithComponent("matcher"),
	}
}

// Match validates req and classifies every invoice line against the PO.
func (m *Matcher) Match(req Request) (*Result, error) {
	if err := Validate(req); err != nil {
		m.log.Warn().Err(err).Msg("Match request rejected")
		return nil, err
	}

	log := m.log.With().
		Str("invoice_number", req.Invoice.InvoiceNumber).
		Str("po_number", req.PurchaseOrder.PONumber).
		Logger()

	if po := req.PurchaseOrder.Currency; po != "" && !strings.EqualFold(po, req.Invoice.Currency) {
		log.Warn().
			Str("invoice_currency", req.Invoice.Currency).
			Str("po_currency", po).
			Msg("Invoice and purchase order currencies differ; amounts compared as-is")
	}

	var tol Tolerances
	if req.Tolerances != nil {
		tol = *req.Tolerances
	}

	arena := newArena(req.PurchaseOrder.LineItems)
	matches := make([]models.LineMatch, 0, len(req.Invoice.LineItems))
	summary := models.MatchSummary{TotalLines: len(req.Invoice.LineItems)}

	for i, line := range req.Invoice.LineItems {
		lm := matchLine(i, line, arena, req.PurchaseOrder.LineItems, tol)
		matches = append(matches, lm)

		switch lm.Status {
		case models.StatusMatched:
			summary.MatchedLines++
		case models.StatusPartial:
			summary.PartialLines++
		default:
			summary.UnmatchedLines++
		}
		summary.TotalQuantityVariance = money.Add(summary.TotalQuantityVariance, lm.QuantityVariance)
		summary.TotalAmountVariance = money.Add(summary.TotalAmountVariance, lm.LineTotalVariance)

		log.Debug().
			Int("invoice_index", i).
			Str("match_kind", string(lm.MatchKind)).
			Str("status", string(lm.Status)).
			Float64("line_total_variance", lm.LineTotalVariance).
			Msg("Line classified")
	}
	summary.Status = summaryStatus(summary)

	result := &Result{
		InvoiceNumber:       req.Invoice.InvoiceNumber,
		PurchaseOrderNumber: req.PurchaseOrder.PONumber,
		Currency:            req.Invoice.Currency,
		Matches:             matches,
		MatchSummary:        summary,
		UnmatchedPOLines:    arena.unused(),
		Metadata:            req.Metadata,
	}

	log.Info().
		Str("status", string(summary.Status)).
		Int("matched", summary.MatchedLines).
		Int("partial", summary.PartialLines).
		Int("unmatched", summary.UnmatchedLines).
		Float64("amount_variance", summary.TotalAmountVariance).
		Msg("Invoice matched against purchase order")

	return result, nil
}

// Validate applies the match schema to req.
func Validate(req Request) error {
	return schema.Check(schema.Match, req)
}

// SKUKey normalizes a SKU for comparison: trimmed, lowercased. "" means no key.
func SKUKey(sku string) string {
	return strings.ToLower(strings.TrimSpace(sku))
}

// DescriptionKey normalizes a description: lowercased, internal whitespace
// collapsed to single spaces, trimmed. "" means no key.
func DescriptionKey(description string) string {
	return strings.Join(strings.Fields(strings.ToLower(description)), " ")
}

func matchLine(index int, line models.LineItem, arena slotArena, poLines []models.POLineItem, tol Tolerances) models.LineMatch {
	lm := models.LineMatch{
		InvoiceIndex:     index,
		SKU:              line.SKU,
		Description:      line.Description,
		InvoiceQuantity:  line.Quantity,
		InvoiceUnitPrice: line.UnitPrice,
		InvoiceLineTotal: money.Mul(line.Quantity, line.UnitPrice),
	}

	found := -1
	if key := SKUKey(line.SKU); key != "" {
		found = arena.take(func(s *slot) bool { return s.skuKey == key })
		if found >= 0 {
			lm.MatchKind = models.MatchKindSKU
		}
	}
	if found < 0 {
		if key := DescriptionKey(line.Description); key != "" {
			found = arena.take(func(s *slot) bool { return s.descKey == key })
			if found >= 0 {
				lm.MatchKind = models.MatchKindDescription
			}
		}
	}

	if found < 0 {
		lm.MatchKind = models.MatchKindUnmatched
		lm.Status = models.StatusUnmatched
		lm.QuantityVariance = money.Round2(lm.InvoiceQuantity)
		lm.UnitPriceVariance = money.Round2(lm.InvoiceUnitPrice)
		lm.LineTotalVariance = lm.InvoiceLineTotal
		return lm
	}

	po := poLines[found]
	poIndex := found
	lm.POIndex = &poIndex
	lm.POQuantity = po.Quantity
	lm.POUnitPrice = po.UnitPrice
	lm.POLineTotal = money.Mul(po.Quantity, po.UnitPrice)

	lm.QuantityVariance = money.Sub(lm.InvoiceQuantity, lm.POQuantity)
	lm.UnitPriceVariance = money.Sub(lm.InvoiceUnitPrice, lm.POUnitPrice)
	lm.LineTotalVariance = money.Sub(lm.InvoiceLineTotal, lm.POLineTotal)

	if within(lm.QuantityVariance, tol.Quantity) &&
		within(lm.UnitPriceVariance, tol.UnitPrice) &&
		within(lm.LineTotalVariance, tol.Amount) {
		lm.Status = models.StatusMatched
	} else {
		lm.Status = models.StatusPartial
	}
	return lm
}

// within compares a rounded variance with a tolerance; tolerance 0 requires exact zero.
func within(variance, tolerance float64) bool {
	if tolerance == 0 {
		return money.IsZero(variance)
	}
	return math.Abs(money.Round2(variance)) <= money.Round2(tolerance)
}

func summaryStatus(s models.MatchSummary) models.MatchStatus {
	switch {
	case s.MatchedLines == s.TotalLines:
		return models.StatusMatched
	case s.UnmatchedLines == s.TotalLines:
		return models.StatusUnmatched
	default:
		return models.StatusPartial
	}
}
