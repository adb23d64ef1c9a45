package replay

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/SmitUplenchwar2687/accesstrace/internal/clock"
	"github.com/SmitUplenchwar2687/accesstrace/internal/trace"
)

// Filter defines criteria for selecting records during replay.
type Filter struct {
	Keys     []string  // Only include these keys (empty = all)
	Commands []string  // Only include these command codes (empty = all)
	After    time.Time // Only include records after this trace time (zero = no limit)
	Before   time.Time // Only include records before this trace time (zero = no limit)
}

// Match returns true if the record passes the filter. at is the record's
// trace time; it is ignored when zero.
func (f *Filter) Match(r trace.AccessRecord, at time.Time) bool {
	if len(f.Keys) > 0 && !slices.Contains(f.Keys, r.Key) {
		return false
	}
	if len(f.Commands) > 0 && !slices.Contains(f.Commands, r.Command) {
		return false
	}
	if at.IsZero() {
		return true
	}
	if !f.After.IsZero() && !at.After(f.After) {
		return false
	}
	if !f.Before.IsZero() && !at.Before(f.Before) {
		return false
	}
	return true
}

// ParseTraceTime parses a filter bound given as integer trace seconds or as
// an RFC 3339 time. The empty string means no bound.
func ParseTraceTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := clock.ParseTimestamp(s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid trace time %q: want seconds or RFC 3339", s)
	}
	return t.UTC(), nil
}
