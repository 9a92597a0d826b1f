package report

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/gowebpki/jcs"

	"digital.vasic.oracle/pkg/assertion"
)

// Variables for dependency injection in tests.
var (
	jsonMarshal       = marshalUnescaped
	jsonMarshalIndent = json.MarshalIndent
	canonicalize      = jcs.Transform
)

// marshalUnescaped is json.Marshal without HTML escaping, so '<',
// '>' and '&' in messages and detail payloads are written as-is.
func marshalUnescaped(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte{'\n'}), nil
}

// VerdictWriter writes one JSON object per verdict, each on its own
// newline-terminated line.
type VerdictWriter struct {
	w         *bufio.Writer
	canonical bool
}

// NewVerdictWriter creates a VerdictWriter on w.
func NewVerdictWriter(w io.Writer) *VerdictWriter {
	return &VerdictWriter{w: bufio.NewWriter(w)}
}

// SetCanonical switches to RFC 8785 output: sorted keys and
// normalised numbers. Numbers in detail payloads are reduced to
// IEEE 754 doubles in this mode, so integers above 2^53 lose
// precision.
func (vw *VerdictWriter) SetCanonical(canonical bool) {
	vw.canonical = canonical
}

// Write encodes a single verdict. Output is buffered until Flush.
func (vw *VerdictWriter) Write(result assertion.Result) error {
	data, err := jsonMarshal(result)
	if err != nil {
		return fmt.Errorf("marshal verdict %q: %w", result.ID, err)
	}
	if vw.canonical {
		data, err = canonicalize(data)
		if err != nil {
			return fmt.Errorf(
				"canonicalize verdict %q: %w", result.ID, err,
			)
		}
	}
	if _, err := vw.w.Write(data); err != nil {
		return err
	}
	return vw.w.WriteByte('\n')
}

// WriteAll encodes results in order and flushes.
func (vw *VerdictWriter) WriteAll(results []assertion.Result) error {
	for _, r := range results {
		if err := vw.Write(r); err != nil {
			return err
		}
	}
	return vw.Flush()
}

// Flush writes any buffered output.
func (vw *VerdictWriter) Flush() error {
	return vw.w.Flush()
}
