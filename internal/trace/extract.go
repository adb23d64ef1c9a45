package trace

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"iter"
	"strings"
)

// Delimiter separates fields. Quoting is not recognised.
const Delimiter = ','

// readBufferSize is the input buffer; lines longer than it are still read whole.
const readBufferSize = 64 << 10

// MalformedPolicy decides what happens to a line without the requested column.
type MalformedPolicy string

const (
	// PolicyError stops extraction with a *MalformedRowError.
	PolicyError MalformedPolicy = "error"
	// PolicySkip drops the line.
	PolicySkip MalformedPolicy = "skip"
	// PolicyEmpty yields an empty value for the line.
	PolicyEmpty MalformedPolicy = "empty"
)

// ParsePolicy validates a policy name. The empty string selects PolicyError.
func ParsePolicy(s string) (MalformedPolicy, error) {
	switch p := MalformedPolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return PolicyError, nil
	case PolicyError, PolicySkip, PolicyEmpty:
		return p, nil
	default:
		return "", fmt.Errorf("unknown malformed-row policy %q, must be one of: error, skip, empty", s)
	}
}

// Extractor pulls a single 1-based column out of comma-separated lines.
type Extractor struct {
	index   int
	policy  MalformedPolicy
	lines   int
	skipped int
}

// NewExtractor creates an extractor for the given 1-based column.
func NewExtractor(index int, policy MalformedPolicy) (*Extractor, error) {
	if index < 1 {
		return nil, fmt.Errorf("column index must be at least 1, got %d", index)
	}
	p, err := ParsePolicy(string(policy))
	if err != nil {
		return nil, err
	}
	return &Extractor{index: index, policy: p}, nil
}

// Values yields the column's value for each line of r, in input order.
// Iteration stops after the first error is yielded.
func (e *Extractor) Values(ctx context.Context, r io.Reader) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		for line, err := range Lines(ctx, r) {
			if err != nil {
				yield("", err)
				return
			}
			e.lines++

			v, n, ok := Field(line, e.index)
			if !ok {
				switch e.policy {
				case PolicySkip:
					e.skipped++
					continue
				case PolicyEmpty:
					v = ""
				default:
					yield("", &MalformedRowError{Line: e.lines, Fields: n, Index: e.index})
					return
				}
			}
			if !yield(v, nil) {
				return
			}
		}
	}
}

// LinesRead returns the number of input lines read so far.
func (e *Extractor) LinesRead() int { return e.lines }

// Skipped returns the number of lines dropped under PolicySkip.
func (e *Extractor) Skipped() int { return e.skipped }

// Lines yields every line of r with its "\n" or "\r\n" terminator removed.
// Line length is unbounded. Read failures wrap ErrInputNotFound.
func Lines(ctx context.Context, r io.Reader) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		br := bufio.NewReaderSize(r, readBufferSize)
		for {
			if err := ctx.Err(); err != nil {
				yield("", err)
				return
			}
			line, err := br.ReadString('\n')
			if len(line) > 0 {
				line = strings.TrimSuffix(line, "\n")
				line = strings.TrimSuffix(line, "\r")
				if !yield(line, nil) {
					return
				}
			}
			if err == io.EOF {
				return
			}
			if err != nil {
				yield("", fmt.Errorf("%w: reading input: %w", ErrInputNotFound, err))
				return
			}
		}
	}
}

// Field returns the 1-based column of line. When the line is too short it
// returns false together with the number of fields it does have.
func Field(line string, index int) (string, int, bool) {
	n := 1
	for n < index {
		i := strings.IndexByte(line, Delimiter)
		if i < 0 {
			return "", n, false
		}
		line = line[i+1:]
		n++
	}
	if i := strings.IndexByte(line, Delimiter); i >= 0 {
		line = line[:i]
	}
	return line, n, true
}

// SplitFields splits a line on the delimiter.
func SplitFields(line string) []string {
	return strings.Split(line, string(Delimiter))
}
