package recorder

import (
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"github.com/SmitUplenchwar2687/accesstrace/internal/replay"
	"github.com/SmitUplenchwar2687/accesstrace/internal/trace"
)

// Recorder streams per-access replay results as newline-delimited JSON.
// Thread-safe for concurrent use.
type Recorder struct {
	mu     sync.Mutex
	enc    *json.Encoder
	closer io.Closer
	n      int
	misses int
	err    error
}

// New creates a Recorder writing to w.
func New(w io.Writer) *Recorder {
	return &Recorder{enc: json.NewEncoder(w)}
}

// Create opens path for writing (zstd-compressed when it ends in .zst)
// and returns a Recorder that owns the file.
func Create(path string) (*Recorder, error) {
	f, err := trace.CreateOutput(path)
	if err != nil {
		return nil, err
	}
	r := New(f)
	r.closer = f
	return r, nil
}

// Record writes a single result. After the first write error every
// further call is a no-op returning that error.
func (r *Recorder) Record(res replay.Result) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.err != nil {
		return r.err
	}
	if err := r.enc.Encode(res); err != nil {
		r.err = fmt.Errorf("%w: recording line %d: %w", trace.ErrOutputWrite, res.Line, err)
		return r.err
	}
	r.n++
	if !res.Hit {
		r.misses++
	}
	return nil
}

// Callback adapts Record to the replay callback signature. Errors are
// kept and reported by Err and Close.
func (r *Recorder) Callback() func(replay.Result) {
	return func(res replay.Result) { _ = r.Record(res) }
}

// Len returns the number of recorded results.
func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.n
}

// Misses returns the number of recorded misses.
func (r *Recorder) Misses() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.misses
}

// Err returns the first write error, if any.
func (r *Recorder) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

// Close closes the underlying file when the Recorder owns one.
func (r *Recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closer != nil {
		if err := r.closer.Close(); err != nil && r.err == nil {
			r.err = fmt.Errorf("%w: %w", trace.ErrOutputWrite, err)
		}
		r.closer = nil
	}
	return r.err
}

// Load reads newline-delimited results written by a Recorder.
func Load(rd io.Reader) ([]replay.Result, error) {
	dec := json.NewDecoder(rd)
	var out []replay.Result
	for {
		var res replay.Result
		err := dec.Decode(&res)
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		out = append(out, res)
	}
}
