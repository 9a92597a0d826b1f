package record

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
)

// Decoder reads a newline-delimited log stream and classifies each
// non-blank line.
type Decoder struct {
	classifier *Classifier
}

// NewDecoder creates a Decoder using the given classifier.
func NewDecoder(classifier *Classifier) *Decoder {
	return &Decoder{classifier: classifier}
}

// Each classifies the lines of r in order and calls fn for every
// record. Lines that are empty after trimming whitespace are
// skipped. The first *DecodeError, or the first error returned by
// fn, stops the scan.
func (d *Decoder) Each(r io.Reader, fn func(Record) error) error {
	br := bufio.NewReader(r)
	lineNo := 0

	for {
		line, readErr := br.ReadBytes('\n')
		if readErr != nil && !errors.Is(readErr, io.EOF) {
			return fmt.Errorf("read line %d: %w", lineNo+1, readErr)
		}
		if len(line) > 0 {
			lineNo++
			trimmed := bytes.TrimSpace(line)
			if len(trimmed) > 0 {
				rec, err := d.classifier.Classify(trimmed)
				if err != nil {
					var de *DecodeError
					if errors.As(err, &de) {
						de.Line = lineNo
					}
					return err
				}
				rec.Line = lineNo
				if err := fn(rec); err != nil {
					return err
				}
			}
		}
		if readErr != nil {
			return nil
		}
	}
}

// DecodeAll classifies the whole stream and returns the records in
// input order. Nothing is returned when any line fails to decode.
func (d *Decoder) DecodeAll(r io.Reader) ([]Record, error) {
	var records []Record
	err := d.Each(r, func(rec Record) error {
		records = append(records, rec)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}
