package cmd

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"apflow/internal/export"
	"apflow/internal/pipeline"
	"apflow/pkg/models"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs(args)

	err := rootCmd.Execute()
	return stdout.String(), err
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const exportRequest = `{
  "export_batch_id": "batch-test",
  "invoices": [
    {"vendor_id": "V2", "invoice_id": "INV-2", "iban": "DE89370400440532013000", "amount": 20, "currency": "EUR", "execution_date": "2024-01-15"},
    {"vendor_id": "V1", "invoice_id": "INV-1", "iban": "DE89370400440532013000", "amount": 10, "currency": "EUR", "execution_date": "2024-01-15"}
  ]
}`

func TestExportThenVerify(t *testing.T) {
	// Arrange
	dir := t.TempDir()
	request := writeFile(t, dir, "export.json", exportRequest)
	batchPath := filepath.Join(dir, "batch.json")

	// Act
	_, err := execute(t, "export", request, "-o", batchPath)
	require.NoError(t, err)
	out, err := execute(t, "verify", batchPath)

	// Assert
	require.NoError(t, err)
	var verified VerifyOutput
	require.NoError(t, json.Unmarshal([]byte(out), &verified))
	assert.True(t, verified.Valid)
	assert.Equal(t, "batch-test", verified.ExportBatchID)
	assert.Equal(t, 2, verified.Payments)
}

func TestVerify_DetectsDrift(t *testing.T) {
	dir := t.TempDir()

	var batch models.PaymentExportBatch
	batch.ExportBatchID = "batch-drift"
	batch.Payments = []models.PaymentRecord{{VendorID: "V1", InvoiceID: "INV-1", Amount: 10, Currency: "EUR"}}
	batch.ExportHash = export.Hash(batch.Payments)
	batch.Payments[0].Amount = 11

	data, err := json.Marshal(batch)
	require.NoError(t, err)
	path := writeFile(t, dir, "batch.json", string(data))

	_, err = execute(t, "verify", path)
	assert.True(t, errors.Is(err, export.ErrHashMismatch))
}

const runInvoice = `vendor:
  name: ACME GmbH
invoice_number: INV-1001
invoice_date: "2024-01-01"
currency: EUR
line_items:
  - sku: A1
    quantity: 2
    unit_price: 10
    vat_rate: 19
`

func TestRun_WritesStageDocuments(t *testing.T) {
	dir := t.TempDir()
	invoice := writeFile(t, dir, "invoice.yaml", runInvoice)
	po := writeFile(t, dir, "po.json", `{"po_number": "PO-1", "line_items": [{"sku": "A1", "quantity": 2, "unit_price": 10}]}`)
	payee := writeFile(t, dir, "payee.json", `{"vendor_id": "V1", "iban": "DE89370400440532013000"}`)
	policy := writeFile(t, dir, "policy.json", `{"required_status": "matched", "payment_terms_days": 30}`)
	outDir := filepath.Join(dir, "out")

	out, err := execute(t, "run", "--invoice", invoice, "--po", po, "--payee", payee, "--policy", policy, "--out-dir", outDir)
	require.NoError(t, err)

	var result RunOutput
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, models.DecisionApproved, result.Decision)
	assert.Equal(t, "INV-1001", result.InvoiceNumber)
	assert.NotEmpty(t, result.ExportHash)
	assert.Len(t, result.Files, 6)

	for _, name := range []string{pipeline.IntakeFile, pipeline.MatchFile, pipeline.ApprovalFile, pipeline.ExportFile} {
		assert.FileExists(t, filepath.Join(outDir, name))
	}

	var decision struct {
		ScheduledPaymentDate string `json:"scheduled_payment_date"`
	}
	data, err := os.ReadFile(filepath.Join(outDir, pipeline.ApprovalFile))
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &decision))
	assert.Equal(t, "2024-01-31", decision.ScheduledPaymentDate)
}

func TestIntake_ReportsValidationFailure(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "invoice.json", `{"vendor": {"name": "ACME"}, "invoice_date": "2024-01-01", "currency": "EUR", "line_items": []}`)

	_, err := execute(t, "intake", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invoice_number")
}
