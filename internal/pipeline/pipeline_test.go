package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"apflow/internal/approval"
	"apflow/internal/document"
	"apflow/internal/export"
	"apflow/internal/intake"
	"apflow/internal/schema"
	"apflow/pkg/models"
)

func newTestRunner() *Runner {
	return NewRunner(Options{Defaults: approval.DefaultPolicy()})
}

func approvedManifest() Manifest {
	return Manifest{
		Invoice: intake.Request{
			Vendor:        intake.VendorInput{Name: "ACME GmbH", VATID: "DE123456789"},
			InvoiceNumber: "INV-1",
			InvoiceDate:   "2024-01-01",
			Currency:      "EUR",
			LineItems: []intake.LineItemInput{
				{SKU: "A1", Description: "Widget", Quantity: 2.0, UnitPrice: 10.0, VATRate: 19.0},
			},
		},
		PurchaseOrder: models.PurchaseOrder{
			PONumber:  "PO-1",
			Currency:  "EUR",
			LineItems: []models.POLineItem{{SKU: "A1", Description: "Widget", Quantity: 2, UnitPrice: 10}},
		},
		Payee: &Payee{VendorID: "V1", IBAN: "DE89370400440532013000"},
	}
}

func TestRun_ApprovedInvoiceIsExported(t *testing.T) {
	// Arrange
	r := newTestRunner()

	// Act
	report, err := r.Run(approvedManifest())

	// Assert
	require.NoError(t, err)
	assert.Equal(t, models.DecisionApproved, report.Decision())
	assert.Equal(t, models.StatusMatched, report.Match.MatchSummary.Status)
	assert.Equal(t, 23.8, report.Approval.PayAmount)
	assert.Equal(t, "2024-01-15", report.Approval.ScheduledPaymentDate)

	require.NotNil(t, report.Export)
	require.Len(t, report.Export.Payments, 1)
	p := report.Export.Payments[0]
	assert.Equal(t, "V1", p.VendorID)
	assert.Equal(t, "INV-1", p.InvoiceID)
	assert.Equal(t, "ACME GmbH", p.CreditorName)
	assert.Equal(t, 23.8, p.Amount)
	assert.Equal(t, "2024-01-15", p.ExecutionDate)
	assert.Equal(t, "Invoice INV-1 23.80 EUR", p.RemittanceText)
	assert.NoError(t, export.Verify(report.Export))
	assert.Empty(t, report.ExportSkipped)
}

func TestRun_NeedsReviewSkipsExport(t *testing.T) {
	m := approvedManifest()
	m.PurchaseOrder.LineItems[0].Quantity = 1

	report, err := newTestRunner().Run(m)
	require.NoError(t, err)

	assert.Equal(t, models.DecisionNeedsReview, report.Decision())
	assert.Nil(t, report.Export)
	assert.Equal(t, "invoice needs review", report.ExportSkipped)
	assert.Len(t, report.Approval.Reasons, 2)
}

func TestRun_ApprovedWithoutPayee(t *testing.T) {
	m := approvedManifest()
	m.Payee = nil

	report, err := newTestRunner().Run(m)
	require.NoError(t, err)

	assert.Equal(t, models.DecisionApproved, report.Decision())
	assert.Nil(t, report.Export)
	assert.Equal(t, "no payee given", report.ExportSkipped)
}

func TestRun_StageErrors(t *testing.T) {
	m := approvedManifest()
	m.Invoice.Currency = ""

	_, err := newTestRunner().Run(m)

	var stageErr *StageError
	require.True(t, errors.As(err, &stageErr))
	assert.Equal(t, StageIntake, stageErr.Stage)
	assert.True(t, errors.Is(err, schema.ErrValidation))

	m = approvedManifest()
	m.PurchaseOrder.PONumber = ""
	_, err = newTestRunner().Run(m)
	require.True(t, errors.As(err, &stageErr))
	assert.Equal(t, StageMatch, stageErr.Stage)

	m = approvedManifest()
	m.Payee.IBAN = " "
	_, err = newTestRunner().Run(m)
	require.True(t, errors.As(err, &stageErr))
	assert.Equal(t, StageManifest, stageErr.Stage)
	assert.ErrorContains(t, err, "payee.iban")
}

func TestPolicyDocument_Apply(t *testing.T) {
	threshold := 5.0
	terms := 30
	doc := PolicyDocument{
		Policy:           approval.Policy{RequiredStatus: "partial", VarianceThreshold: &threshold},
		PaymentTermsDays: &terms,
	}

	m := approvedManifest()
	doc.Apply(&m)

	assert.Equal(t, "partial", m.Policy.RequiredStatus)
	assert.Equal(t, &terms, m.PaymentTermsDays)
	assert.Nil(t, m.Tolerances)
}

func TestWriteReport(t *testing.T) {
	report, err := newTestRunner().Run(approvedManifest())
	require.NoError(t, err)

	dir := filepath.Join(t.TempDir(), "out")
	paths, err := WriteReport(dir, report)
	require.NoError(t, err)
	assert.Len(t, paths, 6)

	var batch models.PaymentExportBatch
	require.NoError(t, document.Read(filepath.Join(dir, ExportFile), &batch))
	assert.Equal(t, report.Export.ExportHash, batch.ExportHash)
	assert.NoError(t, export.Verify(&batch))
}

const yamlManifest = `invoice:
  vendor:
    name: Bolt Supplies
  invoice_number: INV-7
  invoice_date: 2024-02-01
  currency: eur
  line_items:
    - description: Hex bolts
      quantity: "100"
      unit_price: "0.12"
purchase_order:
  po_number: PO-7
  line_items:
    - description: hex  bolts
      quantity: 90
      unit_price: 0.12
policy:
  required_status: matched
`

func TestRunBatch(t *testing.T) {
	// Arrange
	dir := t.TempDir()
	require.NoError(t, document.WriteFile(filepath.Join(dir, "a-approved.json"), approvedManifest()))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b-review.yaml"), []byte(yamlManifest), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "c-broken.json"), []byte("{"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0o755))

	paths, err := FindManifests(dir)
	require.NoError(t, err)
	require.Len(t, paths, 3)

	outRoot := filepath.Join(t.TempDir(), "reports")
	calls := 0

	// Act
	results := newTestRunner().RunBatch(context.Background(), paths, 2, outRoot, func(done, total int, _ BatchResult) {
		calls++
		assert.Equal(t, 3, total)
	})

	// Assert
	require.Len(t, results, 3)
	assert.Equal(t, 3, calls)

	assert.NoError(t, results[0].Err)
	assert.Equal(t, models.DecisionApproved, results[0].Report.Decision())
	assert.FileExists(t, filepath.Join(outRoot, "a-approved", ExportFile))

	assert.NoError(t, results[1].Err)
	assert.Equal(t, models.DecisionNeedsReview, results[1].Report.Decision())
	assert.Equal(t, "INV-7", results[1].Report.Invoice.InvoiceNumber)
	assert.Equal(t, 1.2, results[1].Report.Match.MatchSummary.TotalAmountVariance)
	assert.NoFileExists(t, filepath.Join(outRoot, "b-review", ExportFile))

	assert.Error(t, results[2].Err)
	assert.True(t, errors.Is(results[2].Err, document.ErrMalformed))

	summary := Summarize(results)
	assert.Equal(t, 3, summary.Total)
	assert.Equal(t, 1, summary.Approved)
	assert.Equal(t, 1, summary.NeedsReview)
	assert.Equal(t, 1, summary.Failed)
	assert.Equal(t, 1, summary.Exported)
	assert.NotEmpty(t, summary.Results[0].ExportHash)
	assert.NotEmpty(t, summary.Results[2].Error)
}

func TestRunBatch_CancelledContext(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.json")
	require.NoError(t, document.WriteFile(path, approvedManifest()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results := newTestRunner().RunBatch(ctx, []string{path}, 4, "", nil)
	require.Len(t, results, 1)
	assert.True(t, errors.Is(results[0].Err, context.Canceled))
}
