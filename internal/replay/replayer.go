package replay

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"time"

	"github.com/SmitUplenchwar2687/accesstrace/internal/cache"
	"github.com/SmitUplenchwar2687/accesstrace/internal/clock"
	"github.com/SmitUplenchwar2687/accesstrace/internal/trace"
)

// ErrBadHeader is returned when the input does not start with the AccessRecord header.
var ErrBadHeader = errors.New("input is not an access record file")

// Replayer feeds an AccessRecord trace through a cache and counts misses.
type Replayer struct {
	cache  cache.Cache
	clock  *clock.TraceClock
	filter Filter
}

// Result captures the outcome of replaying a single record.
type Result struct {
	Line   int                `json:"line"`
	Record trace.AccessRecord `json:"record"`
	Hit    bool               `json:"hit"`
	Time   time.Time          `json:"time"` // trace time when the access was made
}

// Summary aggregates replay statistics.
type Summary struct {
	TotalRecords int           `json:"total_records"`
	Filtered     int           `json:"filtered"` // records that passed the filter
	Hits         int           `json:"hits"`
	Misses       int           `json:"misses"`
	MissRatio    float64       `json:"miss_ratio"`
	Duration     time.Duration `json:"duration"`      // trace time span
	WallDuration time.Duration `json:"wall_duration"` // actual wall clock time
}

// New creates a new replayer. tc may be nil when the cache does not depend
// on trace time.
func New(c cache.Cache, tc *clock.TraceClock, filter Filter) *Replayer {
	if tc == nil {
		tc = clock.NewTraceClock(time.Unix(0, 0).UTC())
	}
	return &Replayer{
		cache:  c,
		clock:  tc,
		filter: filter,
	}
}

// Run replays every record of an AccessRecord file in file order.
// The callback is called for each replayed record.
func (r *Replayer) Run(ctx context.Context, in io.Reader, cb func(Result)) (*Summary, error) {
	summary := &Summary{}
	wallStart := time.Now()
	var span traceSpan

	for rec, err := range Records(ctx, in) {
		if err != nil {
			return summary, err
		}
		summary.TotalRecords++
		if rec.Timed {
			r.clock.Set(rec.At)
			span.observe(rec.At)
		}

		if !r.filter.Match(rec.Record, rec.At) {
			continue
		}
		summary.Filtered++

		hit, err := r.cache.Access(ctx, rec.Record)
		if err != nil {
			return summary, fmt.Errorf("line %d: %w", rec.Line, err)
		}
		if hit {
			summary.Hits++
		} else {
			summary.Misses++
		}

		if cb != nil {
			cb(Result{Line: rec.Line, Record: rec.Record, Hit: hit, Time: r.clock.Now()})
		}
	}

	if summary.Filtered > 0 {
		summary.MissRatio = float64(summary.Misses) / float64(summary.Filtered)
	}
	summary.Duration = span.duration()
	summary.WallDuration = time.Since(wallStart)
	return summary, nil
}

// Line is one parsed data line of an AccessRecord file.
type Line struct {
	Line   int // 1-based, the header is line 1
	Record trace.AccessRecord
	At     time.Time // trace time; zero when the timestamp is not numeric
	Timed  bool
}

// Records yields the data lines of an AccessRecord file. The first line
// must be the AccessRecord header. Iteration stops after the first error.
func Records(ctx context.Context, in io.Reader) iter.Seq2[Line, error] {
	return func(yield func(Line, error) bool) {
		lineNum := 0
		for line, err := range trace.Lines(ctx, in) {
			if err != nil {
				yield(Line{}, err)
				return
			}
			lineNum++
			if lineNum == 1 {
				if line != trace.Header {
					yield(Line{}, fmt.Errorf("%w: header %q", ErrBadHeader, line))
					return
				}
				continue
			}

			rec, ok := trace.ParseAccessRecord(line)
			if !ok {
				yield(Line{}, &trace.MalformedRowError{
					Line:   lineNum,
					Fields: len(trace.SplitFields(line)),
					Index:  len(trace.HeaderFields),
				})
				return
			}

			l := Line{Line: lineNum, Record: rec}
			// Placeholder timestamps ("0") map to the Unix epoch.
			if ts, err := clock.ParseTimestamp(rec.Timestamp); err == nil {
				l.At, l.Timed = ts, true
			}
			if !yield(l, nil) {
				return
			}
		}
		if lineNum == 0 {
			yield(Line{}, fmt.Errorf("%w: empty input", ErrBadHeader))
		}
	}
}

type traceSpan struct {
	first, last time.Time
	seen        bool
}

func (s *traceSpan) observe(t time.Time) {
	if !s.seen {
		s.first, s.seen = t, true
	}
	s.last = t
}

func (s *traceSpan) duration() time.Duration {
	return s.last.Sub(s.first)
}

// RunFile opens path (optionally zstd-compressed) and replays it.
func (r *Replayer) RunFile(ctx context.Context, path string, cb func(Result)) (*Summary, error) {
	f, err := trace.OpenInput(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return r.Run(ctx, f, cb)
}
