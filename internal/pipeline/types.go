package pipeline

import (
	"fmt"

	"apflow/internal/approval"
	"apflow/internal/export"
	"apflow/internal/intake"
	"apflow/internal/matcher"
	"apflow/pkg/models"
)

// Stage names used in StageError.
const (
	StageManifest = "manifest"
	StageIntake   = "intake"
	StageMatch    = "match"
	StageSchedule = "schedule"
	StageExport   = "export"
)

// Manifest is one end-to-end run: a raw invoice, the PO it is matched against,
// the approval policy and the payee bank details used if it is approved.
type Manifest struct {
	Invoice          intake.Request         `json:"invoice"`
	PurchaseOrder    models.PurchaseOrder   `json:"purchase_order"`
	Tolerances       *matcher.Tolerances    `json:"tolerances,omitempty"`
	Policy           approval.Policy        `json:"policy"`
	PaymentTermsDays *int                   `json:"payment_terms_days,omitempty"`
	Payee            *Payee                 `json:"payee,omitempty"`
	ExportBatchID    string                 `json:"export_batch_id,omitempty"`
	Metadata         map[string]interface{} `json:"metadata,omitempty"`
}

// Payee holds the bank details an approved invoice is paid to.
type Payee struct {
	VendorID     string `json:"vendor_id"`
	CreditorName string `json:"creditor_name,omitempty"`
	IBAN         string `json:"iban"`
	BIC          string `json:"bic,omitempty"`
}

// PolicyDocument is the standalone policy file read by the run command.
type PolicyDocument struct {
	approval.Policy
	PaymentTermsDays *int                `json:"payment_terms_days,omitempty"`
	Tolerances       *matcher.Tolerances `json:"tolerances,omitempty"`
}

// Apply copies the document's settings onto m.
func (p PolicyDocument) Apply(m *Manifest) {
	m.Policy = p.Policy
	if p.PaymentTermsDays != nil {
		m.PaymentTermsDays = p.PaymentTermsDays
	}
	if p.Tolerances != nil {
		m.Tolerances = p.Tolerances
	}
}

// Report collects every stage document of one run. Export is nil when the
// invoice was not approved or no payee was given; ExportSkipped says which.
type Report struct {
	Intake        intake.Result              `json:"intake"`
	Invoice       models.Invoice             `json:"normalized_invoice"`
	Evidence      intake.Evidence            `json:"evidence"`
	Match         *matcher.Result            `json:"match"`
	Approval      *approval.Result           `json:"approval"`
	Export        *models.PaymentExportBatch `json:"export,omitempty"`
	ExportSkipped string                     `json:"export_skipped,omitempty"`
}

// Decision returns the approval decision of the run.
func (r *Report) Decision() models.Decision {
	if r == nil || r.Approval == nil {
		return ""
	}
	return r.Approval.Decision
}

// StageError reports which pipeline stage rejected a run.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s stage: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// paymentFor builds the export input for an approved run.
func paymentFor(payee Payee, invoice models.Invoice, decision *approval.Result) export.InvoiceInput {
	amount := decision.PayAmount
	creditor := payee.CreditorName
	if creditor == "" {
		creditor = invoice.Vendor.Name
	}
	return export.InvoiceInput{
		VendorID:      payee.VendorID,
		InvoiceID:     invoice.InvoiceNumber,
		CreditorName:  creditor,
		IBAN:          payee.IBAN,
		BIC:           payee.BIC,
		Amount:        &amount,
		Currency:      invoice.Currency,
		ExecutionDate: decision.ScheduledPaymentDate,
	}
}
