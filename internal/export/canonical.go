package export

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"apflow/internal/money"
	"apflow/pkg/models"
)

// CanonicalJSON serializes payments for hashing: a JSON array of objects with
// a fixed key order, no whitespace, no HTML escaping, null for a missing bic
// and numbers in their shortest decimal form.
func CanonicalJSON(payments []models.PaymentRecord) []byte {
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, p := range payments {
		if i > 0 {
			buf.WriteByte(',')
		}
		w := objectWriter{buf: &buf}
		buf.WriteByte('{')
		w.str("vendor_id", p.VendorID)
		w.str("invoice_id", p.InvoiceID)
		w.str("creditor_name", p.CreditorName)
		w.str("iban", p.IBAN)
		if p.BIC == "" {
			w.raw("bic", "null")
		} else {
			w.str("bic", p.BIC)
		}
		w.raw("amount", money.Canonical(p.Amount))
		w.str("currency", p.Currency)
		w.str("execution_date", p.ExecutionDate)
		w.str("remittance_text", p.RemittanceText)
		buf.WriteByte('}')
	}
	buf.WriteByte(']')
	return buf.Bytes()
}

// Hash returns the lowercase hex SHA-256 of the canonical serialization.
func Hash(payments []models.PaymentRecord) string {
	sum := sha256.Sum256(CanonicalJSON(payments))
	return hex.EncodeToString(sum[:])
}

type objectWriter struct {
	buf    *bytes.Buffer
	fields int
}

func (w *objectWriter) key(name string) {
	if w.fields > 0 {
		w.buf.WriteByte(',')
	}
	w.fields++
	w.buf.WriteString(quote(name))
	w.buf.WriteByte(':')
}

func (w *objectWriter) str(name, value string) {
	w.key(name)
	w.buf.WriteString(quote(value))
}

func (w *objectWriter) raw(name, literal string) {
	w.key(name)
	w.buf.WriteString(literal)
}

func quote(s string) string {
	var b bytes.Buffer
	enc := json.NewEncoder(&b)
	enc.SetEscapeHTML(false)
	// encoding a string cannot fail
	_ = enc.Encode(s)
	return string(bytes.TrimSuffix(b.Bytes(), []byte("\n")))
}
