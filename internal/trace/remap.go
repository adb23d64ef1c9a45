package trace

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"
)

// Mapping assigns 1-based input columns to AccessRecord fields.
// A zero index leaves the field at Placeholder.
type Mapping struct {
	Timestamp int `toml:"timestamp" json:"timestamp"`
	Command   int `toml:"command" json:"command"`
	Key       int `toml:"key" json:"key"`
	Size      int `toml:"size" json:"size"`
	TTL       int `toml:"ttl" json:"ttl"`
}

// TwitterMapping reads the first three columns of a Twitter cache trace
// (timestamp, key, size) and leaves command and ttl at zero.
var TwitterMapping = Mapping{Timestamp: 1, Key: 2, Size: 3}

// Validate checks that the key is mapped and no index is negative.
func (m Mapping) Validate() error {
	for name, idx := range m.indexes() {
		if idx < 0 {
			return fmt.Errorf("%s column must not be negative, got %d", name, idx)
		}
	}
	if m.Key == 0 {
		return errors.New("key column is required")
	}
	return nil
}

func (m Mapping) indexes() map[string]int {
	return map[string]int{
		"timestamp": m.Timestamp,
		"command":   m.Command,
		"key":       m.Key,
		"size":      m.Size,
		"ttl":       m.TTL,
	}
}

func (m Mapping) widest() int {
	n := 0
	for _, idx := range m.indexes() {
		n = max(n, idx)
	}
	return n
}

// Apply builds a record from split fields. Values are whitespace-trimmed.
func (m Mapping) Apply(fields []string) AccessRecord {
	pick := func(idx int) string {
		if idx == 0 {
			return Placeholder
		}
		if idx > len(fields) {
			return ""
		}
		return strings.TrimSpace(fields[idx-1])
	}
	return AccessRecord{
		Timestamp: pick(m.Timestamp),
		Command:   pick(m.Command),
		Key:       pick(m.Key),
		Size:      pick(m.Size),
		TTL:       pick(m.TTL),
	}
}

// RemapOptions configures a multi-column rewrite.
type RemapOptions struct {
	InputPath   string
	OutputPath  string
	Mapping     Mapping
	SkipHeader  bool
	OnMalformed MalformedPolicy
}

// Remap rewrites an arbitrary comma-separated trace into AccessRecords.
// Blank lines are dropped.
func Remap(ctx context.Context, opts RemapOptions) (sum *Summary, err error) {
	start := time.Now()

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

	slog.Info("remapping trace", "input", opts.InputPath, "output", opts.OutputPath, "mapping", opts.Mapping)

	sum, err = RemapStream(ctx, in, out, opts)
	if err != nil {
		return sum, err
	}
	sum.Duration = time.Since(start)
	slog.Info("remap finished", "rows", sum.Rows, "skipped", sum.Skipped, "duration", sum.Duration)
	return sum, nil
}

// RemapStream is Remap over already-open streams. Paths in opts are ignored.
func RemapStream(ctx context.Context, r io.Reader, out io.Writer, opts RemapOptions) (*Summary, error) {
	if err := opts.Mapping.Validate(); err != nil {
		return nil, err
	}
	policy, err := ParsePolicy(string(opts.OnMalformed))
	if err != nil {
		return nil, err
	}

	w := NewWriter(out)
	if err := w.WriteHeader(); err != nil {
		return nil, err
	}

	sum := &Summary{}
	width := opts.Mapping.widest()
	lineNum := 0
	for line, err := range Lines(ctx, r) {
		if err != nil {
			sum.Rows = w.Rows()
			return sum, errors.Join(err, w.Flush())
		}
		lineNum++
		if lineNum == 1 && opts.SkipHeader {
			continue
		}
		if strings.TrimSpace(line) == "" {
			sum.Skipped++
			continue
		}

		fields := SplitFields(line)
		if len(fields) < width {
			switch policy {
			case PolicySkip:
				sum.Skipped++
				continue
			case PolicyError:
				sum.Rows = w.Rows()
				merr := &MalformedRowError{Line: lineNum, Fields: len(fields), Index: width}
				return sum, errors.Join(merr, w.Flush())
			}
		}

		if err := w.Write(opts.Mapping.Apply(fields)); err != nil {
			return sum, err
		}
	}

	if err := w.Flush(); err != nil {
		return sum, err
	}
	sum.Rows = w.Rows()
	return sum, nil
}
