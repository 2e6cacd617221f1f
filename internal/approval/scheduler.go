// Package approval decides whether a matched invoice may be paid and when.
package approval

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"apflow/internal/logger"
	"apflow/internal/money"
	"apflow/internal/schema"
	"apflow/pkg/models"
)

// DateLayout is the calendar date format used for invoice and payment dates.
const DateLayout = "2006-01-02"

// Scheduler is the approval stage.
type Scheduler struct {
	defaults Defaults
	log      zerolog.Logger
}

// NewScheduler creates the approval stage with the given policy defaults.
func NewScheduler(defaults Defaults) *Scheduler {
	if defaults.RequiredStatus == "" {
		defaults.RequiredStatus = models.StatusMatched
	}
	return &Scheduler{
		defaults: defaults,
		log:      logger.WithComponent("approval"),
	}
}

// Schedule applies the policy to the match summary and computes the payment date.
// A needs_review decision is a normal outcome, not an error.
func (s *Scheduler) Schedule(req Request) (*Result, error) {
	const op = "Schedule"

	if err := Validate(req); err != nil {
		s.log.Warn().Err(err).Str("op", op).Msg("Schedule request rejected")
		return nil, err
	}

	required := s.defaults.RequiredStatus
	if status := normalizeStatus(req.Policy.RequiredStatus); status != "" {
		required = models.MatchStatus(status)
	}
	threshold := s.defaults.VarianceThreshold
	if req.Policy.VarianceThreshold != nil {
		threshold = *req.Policy.VarianceThreshold
	}
	terms := s.defaults.PaymentTermsDays
	if req.PaymentTermsDays != nil {
		terms = *req.PaymentTermsDays
	}

	reasons := []string{}
	observed := models.MatchStatus(normalizeStatus(string(req.MatchSummary.Status)))
	if observed != required {
		reasons = append(reasons, fmt.Sprintf("match status %q does not meet required status %q", observed, required))
	}
	variance := money.Round2(req.MatchSummary.TotalAmountVariance)
	if math.Abs(variance) > money.Round2(threshold) {
		reasons = append(reasons, fmt.Sprintf("amount variance %s exceeds threshold %s",
			money.Fixed2(variance), money.Fixed2(threshold)))
	}

	decision := models.DecisionApproved
	if len(reasons) > 0 {
		decision = models.DecisionNeedsReview
	}

	paymentDate, err := AddDays(req.Invoice.InvoiceDate, terms)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	payAmount := money.Round2(req.Invoice.ComputedTotals.GrandTotal)

	result := &Result{
		InvoiceNumber: req.Invoice.InvoiceNumber,
		Currency:      req.Invoice.Currency,
		ApprovalDecision: models.ApprovalDecision{
			Decision:             decision,
			Reasons:              reasons,
			ScheduledPaymentDate: paymentDate,
			PayAmount:            payAmount,
			MatchSummary:         req.MatchSummary,
			Checklist:            checklist(decision, req.Invoice, payAmount, paymentDate, len(reasons)),
		},
		Metadata: req.Metadata,
	}

	event := s.log.Info()
	if decision == models.DecisionNeedsReview {
		event = event.Strs("reasons", reasons)
	}
	event.
		Str("invoice_number", req.Invoice.InvoiceNumber).
		Str("decision", string(decision)).
		Str("scheduled_payment_date", paymentDate).
		Float64("pay_amount", payAmount).
		Msg("Approval decision made")

	return result, nil
}

// Validate applies the schedule schema to req.
func Validate(req Request) error {
	return schema.Check(schema.Schedule, req, func(c *schema.Collector) {
		if status := normalizeStatus(req.Policy.RequiredStatus); status != "" {
			c.Var("policy.required_status", status, "oneof=matched partial unmatched")
		}
	})
}

// AddDays adds days to a YYYY-MM-DD date using UTC calendar arithmetic.
func AddDays(date string, days int) (string, error) {
	t, err := time.ParseInLocation(DateLayout, strings.TrimSpace(date), time.UTC)
	if err != nil {
		return "", fmt.Errorf("invalid date %q: %w", date, err)
	}
	return t.AddDate(0, 0, days).Format(DateLayout), nil
}

func normalizeStatus(status string) string {
	return strings.ToLower(strings.TrimSpace(status))
}

func checklist(decision models.Decision, invoice models.Invoice, amount float64, date string, reasons int) []string {
	lines := []string{
		"Verify vendor bank details against the vendor master record",
		"Confirm goods or services were received as invoiced",
		"Check the idempotency key against previously paid invoices",
	}
	if decision == models.DecisionApproved {
		return append(lines, fmt.Sprintf("Notify treasury: pay %s %s for invoice %s on %s",
			money.Fixed2(amount), invoice.Currency, invoice.InvoiceNumber, date))
	}
	return append(lines, fmt.Sprintf("Escalate invoice %s to an AP reviewer: %d reason(s) need attention",
		invoice.InvoiceNumber, reasons))
}
