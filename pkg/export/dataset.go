package export

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"time"
)

// Record is an entity-agnostic field→value bag for one exported row.
// Values may be strings, numbers, bools, nil, nested maps, or slices.
type Record map[string]interface{}

// Clone returns a shallow copy of the record.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Dataset defines tabular export content. Fields carries the column order
// (technical names); Headers carries display names aligned with Fields and
// falls back to Fields when empty.
type Dataset struct {
	Fields  []string
	Headers []string
	Rows    []Record
}

// HeaderRow resolves the header labels for tabular formats: display names if
// provided, else field names, else the first record's keys (sorted, so output
// is deterministic).
func (d Dataset) HeaderRow() []string {
	if len(d.Headers) == len(d.Fields) && len(d.Headers) > 0 {
		return d.Headers
	}
	return d.FieldOrder()
}

// FieldOrder resolves the technical column order used to pull values per row.
func (d Dataset) FieldOrder() []string {
	if len(d.Fields) > 0 {
		return d.Fields
	}
	if len(d.Rows) == 0 {
		return nil
	}
	keys := make([]string, 0, len(d.Rows[0]))
	for k := range d.Rows[0] {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// CellString renders a record value for delimited and tabular formats.
// Missing keys and explicit nulls become empty strings; nested objects and
// arrays render as their JSON form.
func CellString(value interface{}) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case time.Time:
		return v.UTC().Format(time.RFC3339)
	case *time.Time:
		if v == nil {
			return ""
		}
		return v.UTC().Format(time.RFC3339)
	default:
		encoded, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(encoded)
	}
}
