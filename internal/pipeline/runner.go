// Package pipeline chains the four stages for a single invoice and runs many
// such chains in parallel.
package pipeline

import (
	"path/filepath"

	"github.com/rs/zerolog"

	"apflow/internal/approval"
	"apflow/internal/document"
	"apflow/internal/export"
	"apflow/internal/intake"
	"apflow/internal/logger"
	"apflow/internal/matcher"
	"apflow/internal/schema"
	"apflow/pkg/models"
)

// Report file names written by WriteReport.
const (
	IntakeFile   = "intake.json"
	InvoiceFile  = "normalized_invoice.json"
	EvidenceFile = "evidence.json"
	MatchFile    = "match.json"
	ApprovalFile = "approval.json"
	ExportFile   = "export.json"
)

// Options configure a Runner.
type Options struct {
	Defaults     approval.Defaults
	ExportFormat string
}

// Runner drives intake, match, schedule and (when approved) export for one
// manifest at a time. It is safe for concurrent use.
type Runner struct {
	normalizer *intake.Normalizer
	matcher    *matcher.Matcher
	scheduler  *approval.Scheduler
	exporter   *export.Exporter
	log        zerolog.Logger
}

// NewRunner creates a runner with one instance of every stage.
func NewRunner(opts Options) *Runner {
	return &Runner{
		normalizer: intake.NewNormalizer(),
		matcher:    matcher.NewMatcher(),
		scheduler:  approval.NewScheduler(opts.Defaults),
		exporter:   export.NewExporter(opts.ExportFormat),
		log:        logger.WithComponent("pipeline"),
	}
}

// Run executes the chain. A stage failure stops the run and is returned as
// *StageError; needs_review is a normal outcome and ends the run before export.
func (r *Runner) Run(m Manifest) (*Report, error) {
	if err := ValidateManifest(m); err != nil {
		r.log.Warn().Err(err).Msg("Manifest rejected")
		return nil, &StageError{Stage: StageManifest, Err: err}
	}

	outcome, err := r.normalizer.Normalize(m.Invoice)
	if err != nil {
		return nil, &StageError{Stage: StageIntake, Err: err}
	}
	log := logger.WithInvoice("pipeline", outcome.Invoice.InvoiceNumber)

	matched, err := r.matcher.Match(matcher.Request{
		Invoice:       outcome.Invoice,
		PurchaseOrder: m.PurchaseOrder,
		Tolerances:    m.Tolerances,
		Metadata:      m.Metadata,
	})
	if err != nil {
		return nil, &StageError{Stage: StageMatch, Err: err}
	}

	decision, err := r.scheduler.Schedule(approval.Request{
		Invoice:          outcome.Invoice,
		MatchSummary:     matched.MatchSummary,
		Policy:           m.Policy,
		PaymentTermsDays: m.PaymentTermsDays,
		Metadata:         m.Metadata,
	})
	if err != nil {
		return nil, &StageError{Stage: StageSchedule, Err: err}
	}

	report := &Report{
		Intake:   outcome.Result,
		Invoice:  outcome.Invoice,
		Evidence: outcome.Evidence,
		Match:    matched,
		Approval: decision,
	}

	switch {
	case decision.Decision != models.DecisionApproved:
		report.ExportSkipped = "invoice needs review"
	case m.Payee == nil:
		report.ExportSkipped = "no payee given"
		log.Warn().Msg("Approved invoice has no payee; export skipped")
	default:
		batch, err := r.exporter.Export(export.Request{
			ExportBatchID: m.ExportBatchID,
			Invoices:      []export.InvoiceInput{paymentFor(*m.Payee, outcome.Invoice, decision)},
			Metadata:      m.Metadata,
		})
		if err != nil {
			return nil, &StageError{Stage: StageExport, Err: err}
		}
		report.Export = batch
	}

	log.Info().
		Str("match_status", string(matched.MatchSummary.Status)).
		Str("decision", string(decision.Decision)).
		Bool("exported", report.Export != nil).
		Msg("Pipeline run completed")

	return report, nil
}

// ValidateManifest checks the parts of a manifest no stage validates itself.
func ValidateManifest(m Manifest) error {
	c := schema.NewCollector(schema.Manifest)
	if m.Payee != nil {
		c.Var("payee.vendor_id", m.Payee.VendorID, "notblank")
		c.Var("payee.iban", m.Payee.IBAN, "notblank")
	}
	if m.PaymentTermsDays != nil {
		c.Var("payment_terms_days", *m.PaymentTermsDays, "gte=0")
	}
	return c.Err()
}

// WriteReport writes each stage document of report into dir and returns the
// paths written.
func WriteReport(dir string, report *Report) ([]string, error) {
	type reportDoc struct {
		name string
		v    interface{}
	}
	docs := []reportDoc{
		{IntakeFile, report.Intake},
		{InvoiceFile, report.Invoice},
		{EvidenceFile, report.Evidence},
		{MatchFile, report.Match},
		{ApprovalFile, report.Approval},
	}
	if report.Export != nil {
		docs = append(docs, reportDoc{ExportFile, report.Export})
	}

	paths := make([]string, 0, len(docs))
	for _, d := range docs {
		path := filepath.Join(dir, d.name)
		if err := document.WriteFile(path, d.v); err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}
