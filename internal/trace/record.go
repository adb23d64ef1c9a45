package trace

import "strings"

// Header is the first line of every AccessRecord file.
const Header = "timestamp,command,key,size,ttl"

// Placeholder fills every AccessRecord field that has no source column.
const Placeholder = "0"

// HeaderFields is Header split into its column names.
var HeaderFields = []string{"timestamp", "command", "key", "size", "ttl"}

// AccessRecord is one row of a cache access trace.
type AccessRecord struct {
	Timestamp string `json:"timestamp"`
	Command   string `json:"command"`
	Key       string `json:"key"`
	Size      string `json:"size"`
	TTL       string `json:"ttl"`
}

// KeyOnly builds the record emitted for an extracted key: every other field
// is the placeholder.
func KeyOnly(key string) AccessRecord {
	return AccessRecord{
		Timestamp: Placeholder,
		Command:   Placeholder,
		Key:       key,
		Size:      Placeholder,
		TTL:       Placeholder,
	}
}

// Fields returns the record in header order.
func (r AccessRecord) Fields() []string {
	return []string{r.Timestamp, r.Command, r.Key, r.Size, r.TTL}
}

// String renders the record as a single CSV line without a terminator.
func (r AccessRecord) String() string {
	return strings.Join(r.Fields(), ",")
}

// ParseAccessRecord splits one data line of an AccessRecord file.
func ParseAccessRecord(line string) (AccessRecord, bool) {
	f := SplitFields(line)
	if len(f) != len(HeaderFields) {
		return AccessRecord{}, false
	}
	return AccessRecord{
		Timestamp: f[0],
		Command:   f[1],
		Key:       f[2],
		Size:      f[3],
		TTL:       f[4],
	}, true
}
