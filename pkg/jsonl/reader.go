// Package jsonl decodes line-delimited JSON into tracking records, one object
// per line, pulling a single line from the underlying reader per record.
package jsonl

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/ukwa/kevals.go/pkg/constants"
	"github.com/ukwa/kevals.go/pkg/models"
)

var errTrailingData = errors.New("trailing data after JSON object")

// MaxLineSize bounds a single input line.
const MaxLineSize = 64 * 1024 * 1024

// ParseError reports a line that could not be decoded into a record.
type ParseError struct {
	Line int
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("jsonl: line %d: %v", e.Line, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Reader is a models.RecordIterator over line-delimited JSON.
type Reader struct {
	scanner *bufio.Scanner
	line    int
	current models.Record
	err     error
}

var _ models.RecordIterator = (*Reader)(nil)

func NewReader(r io.Reader) *Reader {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), MaxLineSize)
	return &Reader{scanner: scanner}
}

// Next decodes the next non-blank line. It returns false at end of input or
// on the first error, which Err then reports.
func (r *Reader) Next() bool {
	if r.err != nil {
		return false
	}
	r.current = nil

	for r.scanner.Scan() {
		r.line++
		line := bytes.TrimSpace(r.scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		rec, err := decodeRecord(line)
		if err != nil {
			r.err = &ParseError{Line: r.line, Err: err}
			return false
		}
		r.current = rec
		return true
	}

	if err := r.scanner.Err(); err != nil {
		r.err = fmt.Errorf("jsonl: read line %d: %w", r.line+1, err)
	}
	return false
}

func (r *Reader) Record() models.Record {
	return r.current
}

func (r *Reader) Err() error {
	return r.err
}

// Line is the number of the most recently read input line.
func (r *Reader) Line() int {
	return r.line
}

func decodeRecord(line []byte) (models.Record, error) {
	if line[0] != '{' {
		var v any
		if err := json.Unmarshal(line, &v); err != nil {
			return nil, err
		}
		return nil, constants.ErrNotObject
	}

	dec := json.NewDecoder(bytes.NewReader(line))
	dec.UseNumber()

	var rec models.Record
	if err := dec.Decode(&rec); err != nil {
		return nil, err
	}
	if dec.More() {
		return nil, errTrailingData
	}
	return rec, nil
}
