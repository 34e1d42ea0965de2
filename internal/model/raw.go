package model

import "strings"

// absentValues are source conventions for "no data". They are treated as
// empty at the ingestion boundary so they never leak into canonical records.
var absentValues = map[string]struct{}{
	"n/a": {}, "na": {}, "none": {}, "null": {}, "nan": {}, "-": {},
}

// RawRecord is one item as yielded by a source connector: a loose field map
// tagged with its source and an opaque item reference (profile URL, row
// number, API id). Raw records exist only between acquisition and
// normalization; nothing downstream of the normalizer accepts one.
type RawRecord struct {
	Source string
	Ref    string
	Fields map[string]string
}

// NewRawRecord builds a tagged record from a loose key/value map.
func NewRawRecord(source, ref string, fields map[string]string) RawRecord {
	if fields == nil {
		fields = make(map[string]string)
	}
	return RawRecord{Source: source, Ref: ref, Fields: fields}
}

// Get returns the trimmed value for key, with absent-value sentinels
// ("N/A", "null", ...) collapsed to the empty string.
func (r RawRecord) Get(key string) string {
	v := strings.TrimSpace(r.Fields[key])
	if _, absent := absentValues[strings.ToLower(v)]; absent {
		return ""
	}
	return v
}

// Set stores a value under key, allocating the field map if needed.
func (r *RawRecord) Set(key, value string) {
	if r.Fields == nil {
		r.Fields = make(map[string]string)
	}
	r.Fields[key] = value
}

// Placeholder returns a record carrying only the item reference, used when
// per-item extraction failed after all retries. A partial lead still has
// downstream value, so failed items are kept rather than dropped.
func Placeholder(source, ref string) RawRecord {
	return RawRecord{
		Source: source,
		Ref:    ref,
		Fields: map[string]string{"Profile URL": ref},
	}
}
