package generate

import (
	"context"
	"fmt"
	"iter"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"github.com/SmitUplenchwar2687/accesstrace/internal/trace"
)

const (
	// DefaultAlpha is the Zipf exponent used when none is given.
	DefaultAlpha = 1.3
	// DefaultKeys is the size of the key space when none is given.
	DefaultKeys = 1_000_000
	// DefaultOutputPath is where generated traces are written.
	DefaultOutputPath = "zipf_data.csv"
)

// rowOverhead is the per-row byte estimate added to the joined fields.
const rowOverhead = 2

// Options controls synthetic trace generation. Generation stops at Count
// records or once the estimated size reaches SizeBytes, whichever comes first.
type Options struct {
	Count     int
	SizeBytes int64
	Alpha     float64
	Keys      uint64
	Seed      int64
}

// DefaultOptions returns a 50MB trace over a million keys.
func DefaultOptions() Options {
	return Options{
		SizeBytes: 50 << 20,
		Alpha:     DefaultAlpha,
		Keys:      DefaultKeys,
	}
}

func (o *Options) normalize() error {
	if o.Count <= 0 && o.SizeBytes <= 0 {
		return fmt.Errorf("count or size must be positive")
	}
	if o.Alpha == 0 {
		o.Alpha = DefaultAlpha
	}
	if o.Alpha <= 1 {
		return fmt.Errorf("alpha must be greater than 1, got %g", o.Alpha)
	}
	if o.Keys == 0 {
		o.Keys = DefaultKeys
	}
	if o.Seed == 0 {
		o.Seed = time.Now().UnixNano()
	}
	return nil
}

// Zipf returns a sequence of key-only records whose keys follow a Zipf
// distribution over [1, Keys]: key k is drawn with weight k^-Alpha.
func Zipf(opts Options) (iter.Seq[trace.AccessRecord], error) {
	if err := opts.normalize(); err != nil {
		return nil, err
	}

	return func(yield func(trace.AccessRecord) bool) {
		rng := rand.New(rand.NewSource(opts.Seed))
		zipf := rand.NewZipf(rng, opts.Alpha, 1, opts.Keys-1)

		var written int64
		for n := 0; opts.Count <= 0 || n < opts.Count; n++ {
			if opts.SizeBytes > 0 && written >= opts.SizeBytes {
				return
			}
			rec := trace.KeyOnly(strconv.FormatUint(zipf.Uint64()+1, 10))
			written += int64(len(rec.String()) + rowOverhead)
			if !yield(rec) {
				return
			}
		}
	}, nil
}

// WriteFile writes a generated trace, header included, to path.
func WriteFile(ctx context.Context, path string, opts Options) (n int, err error) {
	seq, err := Zipf(opts)
	if err != nil {
		return 0, err
	}

	out, err := trace.CreateOutput(path)
	if err != nil {
		return 0, err
	}
	defer func() {
		if cerr := out.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("%w: closing %s: %w", trace.ErrOutputWrite, path, cerr)
		}
	}()

	w := trace.NewWriter(out)
	if err := w.WriteHeader(); err != nil {
		return 0, err
	}
	for rec := range seq {
		if err := ctx.Err(); err != nil {
			return w.Rows(), err
		}
		if err := w.Write(rec); err != nil {
			return w.Rows(), err
		}
	}
	return w.Rows(), w.Flush()
}

// ParseSize parses sizes such as "512", "100KB", "2MB" or "1GB".
// Units are powers of 1024 and case-insensitive.
func ParseSize(s string) (int64, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	mult := int64(1)
	for _, u := range []struct {
		suffix string
		mult   int64
	}{{"KB", 1 << 10}, {"MB", 1 << 20}, {"GB", 1 << 30}} {
		if strings.HasSuffix(s, u.suffix) {
			s, mult = strings.TrimSpace(strings.TrimSuffix(s, u.suffix)), u.mult
			break
		}
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid size %q: %w", s, err)
	}
	if n < 0 {
		return 0, fmt.Errorf("size must not be negative, got %d", n)
	}
	return n * mult, nil
}
