package trace

import (
	"bufio"
	"errors"
	"fmt"
	"io"
)

const writeBufSize = 1 << 20

// Writer appends AccessRecords to an output stream, one line per record.
// Fields are written verbatim; no quoting is applied.
type Writer struct {
	bw          *bufio.Writer
	wroteHeader bool
	rows        int
}

// NewWriter wraps w in a buffered record writer.
func NewWriter(w io.Writer) *Writer {
	return &Writer{bw: bufio.NewWriterSize(w, writeBufSize)}
}

// WriteHeader writes the fixed header line. Calling it twice is an error.
func (w *Writer) WriteHeader() error {
	if w.wroteHeader {
		return errors.New("header already written")
	}
	w.wroteHeader = true
	if _, err := w.bw.WriteString(Header + "\n"); err != nil {
		return fmt.Errorf("%w: writing header: %w", ErrOutputWrite, err)
	}
	return nil
}

// Write appends one record.
func (w *Writer) Write(rec AccessRecord) error {
	for i, f := range rec.Fields() {
		if i > 0 {
			if err := w.bw.WriteByte(Delimiter); err != nil {
				return w.rowErr(err)
			}
		}
		if _, err := w.bw.WriteString(f); err != nil {
			return w.rowErr(err)
		}
	}
	if err := w.bw.WriteByte('\n'); err != nil {
		return w.rowErr(err)
	}
	w.rows++
	return nil
}

// Flush writes any buffered data to the underlying stream.
func (w *Writer) Flush() error {
	if err := w.bw.Flush(); err != nil {
		return fmt.Errorf("%w: flush: %w", ErrOutputWrite, err)
	}
	return nil
}

// Rows returns the number of records written, excluding the header.
func (w *Writer) Rows() int { return w.rows }

func (w *Writer) rowErr(err error) error {
	return fmt.Errorf("%w: writing row %d: %w", ErrOutputWrite, w.rows+1, err)
}
