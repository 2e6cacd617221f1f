// Package schema is the validation contract every pipeline stage applies to its
// input before doing any work.
//
// A document is checked against the struct tags of its Go request type
// (go-playground/validator) plus any stage-specific rules added through a
// Collector. Every violation is collected; a non-empty list aborts the stage
// with a *ValidationError and nothing is produced.
package schema

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/hashicorp/go-multierror"
)

// Schema identifiers, one per stage input.
const (
	Intake   = "intake"
	Match    = "match"
	Schedule = "schedule"
	Export   = "export"
	Batch    = "export_batch"
	Manifest = "run_manifest"
)

// ErrValidation matches any *ValidationError via errors.Is.
var ErrValidation = errors.New("schema validation failed")

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report JSON field names, not Go names.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return fld.Name
		}
		return name
	})

	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})

	return v
}

// Violation is a single rule failure on a single field.
type Violation struct {
	Field   string `json:"field"`
	Rule    string `json:"rule"`
	Message string `json:"message"`
}

// Error implements the error interface.
func (v *Violation) Error() string {
	return fmt.Sprintf("%s: %s", v.Field, v.Message)
}

// ValidationError carries every violation found in one document.
type ValidationError struct {
	// Schema is the identifier of the contract that was checked.
	Schema string

	errs *multierror.Error
}

// Error implements the error interface. The first failing field leads the message.
func (e *ValidationError) Error() string {
	violations := e.Violations()
	if len(violations) == 0 {
		return fmt.Sprintf("schema %s: validation failed", e.Schema)
	}
	parts := make([]string, 0, len(violations))
	for _, v := range violations {
		parts = append(parts, v.Field+": "+v.Message)
	}
	return fmt.Sprintf("schema %s: %d violation(s): %s", e.Schema, len(violations), strings.Join(parts, "; "))
}

// Is implements error matching against ErrValidation.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// Violations returns the collected violations in the order they were found.
func (e *ValidationError) Violations() []Violation {
	if e.errs == nil {
		return nil
	}
	out := make([]Violation, 0, len(e.errs.Errors))
	for _, err := range e.errs.Errors {
		var v *Violation
		if errors.As(err, &v) {
			out = append(out, *v)
		}
	}
	return out
}

// First returns the first violation, or false when there is none.
func (e *ValidationError) First() (Violation, bool) {
	violations := e.Violations()
	if len(violations) == 0 {
		return Violation{}, false
	}
	return violations[0], true
}

// Collector accumulates violations for one document.
type Collector struct {
	schema string
	errs   *multierror.Error
}

// NewCollector starts a collector for the given schema identifier.
func NewCollector(schemaID string) *Collector {
	return &Collector{schema: schemaID}
}

// Add records a violation.
func (c *Collector) Add(field, rule, message string) {
	c.errs = multierror.Append(c.errs, &Violation{Field: field, Rule: rule, Message: message})
}

// Addf records a violation with a formatted message.
func (c *Collector) Addf(field, rule, format string, args ...interface{}) {
	c.Add(field, rule, fmt.Sprintf(format, args...))
}

// Struct checks doc against its validate struct tags.
func (c *Collector) Struct(doc interface{}) {
	err := validate.Struct(doc)
	if err == nil {
		return
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		c.Add("$", "struct", err.Error())
		return
	}

	for _, fe := range fieldErrs {
		c.Add(fieldPath(fe.Namespace()), fe.Tag(), describe(fe))
	}
}

// Var checks a single value against a tag expression ("required,iso4217") and
// reports failures under field.
func (c *Collector) Var(field string, value interface{}, tag string) {
	err := validate.Var(value, tag)
	if err == nil {
		return
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		c.Add(field, tag, err.Error())
		return
	}

	for _, fe := range fieldErrs {
		c.Add(field, fe.Tag(), describe(fe))
	}
}

// Len returns the number of violations collected so far.
func (c *Collector) Len() int {
	if c.errs == nil {
		return 0
	}
	return len(c.errs.Errors)
}

// Err returns a *ValidationError when any violation was collected, nil otherwise.
func (c *Collector) Err() error {
	if c.Len() == 0 {
		return nil
	}
	return &ValidationError{Schema: c.schema, errs: c.errs}
}

// Check is the one-call form: struct tags, then the extra rules.
func Check(schemaID string, doc interface{}, extra ...func(*Collector)) error {
	c := NewCollector(schemaID)
	c.Struct(doc)
	for _, rule := range extra {
		rule(c)
	}
	return c.Err()
}

// fieldPath drops the root struct name: "Request.vendor.name" -> "vendor.name".
func fieldPath(namespace string) string {
	if i := strings.IndexByte(namespace, '.'); i >= 0 {
		return namespace[i+1:]
	}
	return namespace
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "notblank":
		return "is required"
	case "iso4217":
		return "must be an ISO 4217 currency code"
	case "datetime":
		return "must be a calendar date in YYYY-MM-DD format"
	case "min":
		if fe.Kind() == reflect.Slice || fe.Kind() == reflect.Map {
			return fmt.Sprintf("must contain at least %s item(s)", fe.Param())
		}
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "gte":
		return fmt.Sprintf("must be greater than or equal to %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of [%s]", fe.Param())
	default:
		return fmt.Sprintf("failed %q rule", fe.Tag())
	}
}
