// Package document reads pipeline input documents and writes result documents.
//
// Inputs are JSON, or YAML when the file name ends in .yaml/.yml; YAML is
// mapped onto the same JSON field names so one set of struct tags serves both.
// The path "-" stands for stdin on read. Results are always indented JSON.
package document

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// MaxDocumentSizeBytes bounds every input document (10MB).
const MaxDocumentSizeBytes = 10 * 1024 * 1024

// Stdio is the path that selects stdin for reads.
const Stdio = "-"

// Format is an input encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFor picks the decoder for a path. Stdin and extension-less paths are JSON.
func FormatFor(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", "":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return "", ErrUnsupportedFormat
	}
}

// Read loads the document at path into v.
func Read(path string, v interface{}) error {
	format, err := FormatFor(path)
	if err != nil {
		return &IOError{Op: "Read", Path: path, Err: err}
	}

	var r io.Reader
	if path == Stdio {
		r = os.Stdin
	} else {
		f, err := os.Open(path)
		if err != nil {
			return &IOError{Op: "Read", Path: path, Err: err}
		}
		defer f.Close()
		r = f
	}

	data, err := io.ReadAll(io.LimitReader(r, MaxDocumentSizeBytes+1))
	if err != nil {
		return &IOError{Op: "Read", Path: path, Err: err}
	}
	if len(data) > MaxDocumentSizeBytes {
		return &IOError{Op: "Read", Path: path, Err: ErrDocumentTooLarge}
	}

	if err := Decode(data, format, v); err != nil {
		return &IOError{Op: "Decode", Path: path, Err: err}
	}
	return nil
}

// Decode parses data in the given format into v.
func Decode(data []byte, format Format, v interface{}) error {
	if format == FormatYAML {
		var generic interface{}
		if err := yaml.Unmarshal(data, &generic); err != nil {
			return fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		converted, err := json.Marshal(generic)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		data = converted
	}

	if len(bytes.TrimSpace(data)) == 0 {
		return fmt.Errorf("%w: empty document", ErrMalformed)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return nil
}

// Marshal renders v as indented JSON with a trailing newline.
func Marshal(v interface{}) ([]byte, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// Encode writes v as indented JSON to w.
func Encode(w io.Writer, v interface{}) error {
	data, err := Marshal(v)
	if err != nil {
		return &IOError{Op: "Write", Path: Stdio, Err: err}
	}
	if _, err := w.Write(data); err != nil {
		return &IOError{Op: "Write", Path: Stdio, Err: err}
	}
	return nil
}

// WriteFile writes v as indented JSON to path, creating parent directories.
func WriteFile(path string, v interface{}) error {
	data, err := Marshal(v)
	if err != nil {
		return &IOError{Op: "Write", Path: path, Err: err}
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return &IOError{Op: "Write", Path: path, Err: err}
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return &IOError{Op: "Write", Path: path, Err: err}
	}
	return nil
}
