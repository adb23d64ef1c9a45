package trace

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"
)

const (
	// DefaultInputPath is the trace read when no input is configured.
	DefaultInputPath = "cloud.csv"
	// DefaultOutputPath is the AccessRecord file written when no output is configured.
	DefaultOutputPath = "access_records.csv"
	// DefaultColumn is the 1-based position of the lbn field in block traces.
	DefaultColumn = 5
)

// Options configures a key extraction run.
type Options struct {
	InputPath   string
	OutputPath  string
	Column      int
	OnMalformed MalformedPolicy
}

// DefaultOptions converts cloud.csv column 5 into access_records.csv.
func DefaultOptions() Options {
	return Options{
		InputPath:   DefaultInputPath,
		OutputPath:  DefaultOutputPath,
		Column:      DefaultColumn,
		OnMalformed: PolicyError,
	}
}

// Summary reports the outcome of a conversion.
type Summary struct {
	Rows     int           `json:"rows"`    // records written
	Skipped  int           `json:"skipped"` // input lines dropped
	Duration time.Duration `json:"duration"`
}

// Convert reads opts.InputPath, extracts opts.Column from every line and
// writes one key-only AccessRecord per value to opts.OutputPath, preceded by
// the header. A failed run may leave a partial output file behind.
func Convert(ctx context.Context, opts Options) (sum *Summary, err error) {
	start := time.Now()

	ex, err := NewExtractor(opts.Column, opts.OnMalformed)
	if err != nil {
		return nil, err
	}

	in, err := OpenInput(opts.InputPath)
	if err != nil {
		return nil, err
	}
	defer in.Close()

	if err := EnsureDistinct(opts.InputPath, opts.OutputPath); err != nil {
		return nil, err
	}
	out, err := CreateOutput(opts.OutputPath)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := out.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("%w: closing %s: %w", ErrOutputWrite, opts.OutputPath, cerr)
		}
	}()

	slog.Info("converting trace",
		"input", opts.InputPath,
		"output", opts.OutputPath,
		"column", opts.Column,
		"on_malformed", string(ex.policy))

	sum, err = extractKeys(ctx, ex, in, out)
	if err != nil {
		return sum, err
	}
	sum.Duration = time.Since(start)

	if sum.Skipped > 0 {
		slog.Debug("dropped short rows", "skipped", sum.Skipped)
	}
	slog.Info("conversion finished", "rows", sum.Rows, "skipped", sum.Skipped, "duration", sum.Duration)
	return sum, nil
}

// ConvertStream is Convert over already-open streams.
func ConvertStream(ctx context.Context, r io.Reader, w io.Writer, column int, policy MalformedPolicy) (*Summary, error) {
	ex, err := NewExtractor(column, policy)
	if err != nil {
		return nil, err
	}
	return extractKeys(ctx, ex, r, w)
}

func extractKeys(ctx context.Context, ex *Extractor, r io.Reader, out io.Writer) (*Summary, error) {
	w := NewWriter(out)
	if err := w.WriteHeader(); err != nil {
		return nil, err
	}

	sum := &Summary{}
	for v, err := range ex.Values(ctx, r) {
		if err != nil {
			sum.Rows, sum.Skipped = w.Rows(), ex.Skipped()
			// Keep what was produced so far; the partial file is not cleaned up.
			if ferr := w.Flush(); ferr != nil {
				return sum, errors.Join(err, ferr)
			}
			return sum, err
		}
		if err := w.Write(KeyOnly(v)); err != nil {
			return sum, err
		}
	}

	if err := w.Flush(); err != nil {
		return sum, err
	}
	sum.Rows, sum.Skipped = w.Rows(), ex.Skipped()
	return sum, nil
}
