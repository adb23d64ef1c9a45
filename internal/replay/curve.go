package replay

import (
	"context"
	"fmt"
	"io"
	"math"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/SmitUplenchwar2687/accesstrace/internal/cache"
	"github.com/SmitUplenchwar2687/accesstrace/internal/clock"
	"github.com/SmitUplenchwar2687/accesstrace/internal/trace"
)

// DefaultCurvePoints is the number of cache sizes simulated per curve.
const DefaultCurvePoints = 100

// CurveOptions configures one miss-ratio curve.
type CurveOptions struct {
	Policy      string
	MaxCapacity uint64  // largest simulated capacity, in cache capacity units
	Points      int     // evenly spaced capacities up to MaxCapacity
	SampleRate  float64 // fraction of keys simulated, in (0, 1]; 0 means 1
}

// Point is the outcome of one simulated cache size.
type Point struct {
	Capacity  uint64  `json:"capacity"`
	Hits      int     `json:"hits"`
	Misses    int     `json:"misses"`
	MissRatio float64 `json:"miss_ratio"`
}

// Curve is the miss ratio of one policy across cache sizes.
type Curve struct {
	Policy     string        `json:"policy"`
	SampleRate float64       `json:"sample_rate"`
	Accesses   int           `json:"accesses"` // accesses that passed the filter
	Sampled    int           `json:"sampled"`  // accesses that were simulated
	Points     []Point       `json:"points"`
	Elapsed    time.Duration `json:"elapsed"`
}

// Sampler keeps a fixed fraction of the key space, chosen by key hash, so
// every access to a kept key is kept (SHARDS fixed-rate sampling).
type Sampler struct {
	rate      float64
	threshold uint64
}

const samplerModulus = 1 << 24

// NewSampler creates a sampler keeping roughly rate of all keys.
func NewSampler(rate float64) (*Sampler, error) {
	if rate <= 0 || rate > 1 {
		return nil, fmt.Errorf("sample rate must be in (0, 1], got %g", rate)
	}
	return &Sampler{rate: rate, threshold: uint64(rate * samplerModulus)}, nil
}

// Sample reports whether key is in the sampled set.
func (s *Sampler) Sample(key string) bool {
	return xxhash.Sum64String(key)%samplerModulus < s.threshold
}

// Rate returns the sampling rate.
func (s *Sampler) Rate() float64 { return s.rate }

// Scale shrinks a capacity to the sampled key space. It never returns 0.
func (s *Sampler) Scale(capacity uint64) uint64 {
	return max(uint64(math.Round(float64(capacity)*s.rate)), 1)
}

// Capacities returns up to points evenly spaced capacities ending at
// maxCapacity, smallest first and without duplicates.
func Capacities(maxCapacity uint64, points int) []uint64 {
	if points <= 0 {
		points = DefaultCurvePoints
	}
	out := make([]uint64, 0, points)
	for i := 1; i <= points; i++ {
		c := maxCapacity * uint64(i) / uint64(points)
		if c == 0 || (len(out) > 0 && out[len(out)-1] == c) {
			continue
		}
		out = append(out, c)
	}
	return out
}

type curveRun struct {
	curve   *Curve
	sampler *Sampler
	caches  []*cache.MemoryCache
	start   time.Time
}

func newCurveRun(opts CurveOptions, tc *clock.TraceClock) (*curveRun, error) {
	policy, err := cache.ParsePolicy(opts.Policy)
	if err != nil {
		return nil, err
	}
	if opts.MaxCapacity == 0 {
		return nil, fmt.Errorf("max capacity must be positive")
	}
	rate := opts.SampleRate
	if rate == 0 {
		rate = 1
	}
	sampler, err := NewSampler(rate)
	if err != nil {
		return nil, err
	}

	run := &curveRun{
		curve:   &Curve{Policy: policy, SampleRate: rate},
		sampler: sampler,
		start:   time.Now(),
	}
	for _, c := range Capacities(opts.MaxCapacity, opts.Points) {
		mc, err := cache.NewMemoryCache(policy, sampler.Scale(c), tc)
		if err != nil {
			return nil, err
		}
		run.caches = append(run.caches, mc)
		run.curve.Points = append(run.curve.Points, Point{Capacity: c})
	}
	return run, nil
}

func (r *curveRun) access(ctx context.Context, rec trace.AccessRecord) error {
	r.curve.Accesses++
	if !r.sampler.Sample(rec.Key) {
		return nil
	}
	r.curve.Sampled++
	for i, c := range r.caches {
		hit, err := c.Access(ctx, rec)
		if err != nil {
			return err
		}
		if hit {
			r.curve.Points[i].Hits++
		} else {
			r.curve.Points[i].Misses++
		}
	}
	return nil
}

func (r *curveRun) finish() *Curve {
	for i := range r.curve.Points {
		p := &r.curve.Points[i]
		if n := p.Hits + p.Misses; n > 0 {
			p.MissRatio = float64(p.Misses) / float64(n)
		}
	}
	r.curve.Elapsed = time.Since(r.start)
	return r.curve
}

// BuildCurves replays an AccessRecord file once and simulates every
// requested curve side by side. Curves are returned in the order of opts.
func BuildCurves(ctx context.Context, in io.Reader, filter Filter, opts ...CurveOptions) ([]*Curve, error) {
	if len(opts) == 0 {
		return nil, fmt.Errorf("at least one curve is required")
	}
	tc := clock.NewTraceClock(time.Unix(0, 0).UTC())
	runs := make([]*curveRun, 0, len(opts))
	for _, o := range opts {
		run, err := newCurveRun(o, tc)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}

	for rec, err := range Records(ctx, in) {
		if err != nil {
			return nil, err
		}
		if rec.Timed {
			tc.Set(rec.At)
		}
		if !filter.Match(rec.Record, rec.At) {
			continue
		}
		for _, run := range runs {
			if err := run.access(ctx, rec.Record); err != nil {
				return nil, fmt.Errorf("line %d: %w", rec.Line, err)
			}
		}
	}

	curves := make([]*Curve, len(runs))
	for i, run := range runs {
		curves[i] = run.finish()
	}
	return curves, nil
}

// BuildCurvesFile opens path (optionally zstd-compressed) and builds curves.
func BuildCurvesFile(ctx context.Context, path string, filter Filter, opts ...CurveOptions) ([]*Curve, error) {
	f, err := trace.OpenInput(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return BuildCurves(ctx, f, filter, opts...)
}
