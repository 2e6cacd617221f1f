package intake

import (
	"fmt"
	"math"

	"apflow/internal/money"
	"apflow/pkg/models"
)

// DeclaredTotalsTolerance is the largest difference between a declared and a
// computed total that passes without a warning (2 cents).
const DeclaredTotalsTolerance = 0.02

// CheckDeclaredTotals compares the totals printed on the invoice with the
// computed ones. Differences produce warnings only; computed totals stay
// authoritative.
func CheckDeclaredTotals(declared *DeclaredTotals, computed models.Totals) []string {
	if declared == nil {
		return nil
	}

	var warnings []string
	check := func(name string, declaredValue *float64, computedValue float64) {
		if declaredValue == nil {
			return
		}
		difference := money.Sub(*declaredValue, computedValue)
		if math.Abs(difference) > DeclaredTotalsTolerance+money.Epsilon {
			warnings = append(warnings, fmt.Sprintf(
				"%s discrepancy: declared=%.2f, computed=%.2f (difference: %.2f)",
				name, money.Round2(*declaredValue), computedValue, difference))
		}
	}

	check("subtotal", declared.Subtotal, computed.Subtotal)
	check("vat_total", declared.VATTotal, computed.VATTotal)
	check("grand_total", declared.GrandTotal, computed.GrandTotal)

	// Net + VAT = Gross on the declared side itself.
	if declared.Subtotal != nil && declared.VATTotal != nil && declared.GrandTotal != nil {
		sum := money.Add(money.Round2(*declared.Subtotal), *declared.VATTotal)
		if math.Abs(money.Sub(sum, *declared.GrandTotal)) > DeclaredTotalsTolerance+money.Epsilon {
			warnings = append(warnings, fmt.Sprintf(
				"declared totals inconsistent: subtotal(%.2f) + vat_total(%.2f) = %.2f, but grand_total=%.2f",
				money.Round2(*declared.Subtotal), money.Round2(*declared.VATTotal), sum, money.Round2(*declared.GrandTotal)))
		}
	}

	return warnings
}
