package marketdata

import (
	"fmt"
	"strconv"

	"github.com/tidwall/gjson"
)

// Record is one normalized flat row. Nested collaborator payloads are
// flattened into dotted keys ("details.strike_price", "greeks.delta").
// A missing key means the column was absent for this row; values are never
// defaulted to sentinels.
type Record map[string]any

// NormalizeRecords converts an arbitrary collaborator response body into an
// ordered collection of flat records. Tolerated shapes: absent/null, a single
// object, an object wrapping its payload under "data" (object or array), or
// an array of objects. Anything else yields an empty collection.
func NormalizeRecords(raw []byte) []Record {
	if len(raw) == 0 {
		return nil
	}
	parsed := gjson.ParseBytes(raw)
	return normalizeResult(parsed)
}

func normalizeResult(parsed gjson.Result) []Record {
	switch {
	case !parsed.Exists(), parsed.Type == gjson.Null:
		return nil
	case parsed.IsArray():
		return recordsFromArray(parsed)
	case parsed.IsObject():
		if data := parsed.Get("data"); data.Exists() {
			if data.IsArray() {
				return recordsFromArray(data)
			}
			if data.IsObject() {
				return []Record{flatten(data)}
			}
			// Scalar "data": the outer object is the best row we have.
		}
		return []Record{flatten(parsed)}
	default:
		return nil
	}
}

func recordsFromArray(arr gjson.Result) []Record {
	var out []Record
	arr.ForEach(func(_, item gjson.Result) bool {
		if item.IsObject() {
			out = append(out, flatten(item))
		}
		return true
	})
	return out
}

// flatten walks one object, joining nested object keys with dots. Arrays are
// kept whole under their key.
func flatten(obj gjson.Result) Record {
	rec := make(Record)
	flattenInto(rec, "", obj)
	return rec
}

func flattenInto(rec Record, prefix string, obj gjson.Result) {
	obj.ForEach(func(key, value gjson.Result) bool {
		name := key.String()
		if prefix != "" {
			name = prefix + "." + name
		}
		switch {
		case value.IsObject():
			flattenInto(rec, name, value)
		case value.Type == gjson.Null:
			// Absent, not zero.
		default:
			rec[name] = value.Value()
		}
		return true
	})
}

// Has reports whether the record carries the column.
func (r Record) Has(key string) bool {
	_, ok := r[key]
	return ok
}

// Str returns the column rendered as a string. Composite values and absent
// columns report false.
func (r Record) Str(key string) (string, bool) {
	v, ok := r[key]
	if !ok {
		return "", false
	}
	switch s := v.(type) {
	case string:
		return s, true
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64), true
	case bool:
		return strconv.FormatBool(s), true
	default:
		return "", false
	}
}

// Float returns the column as float64, accepting numeric strings.
func (r Record) Float(key string) (float64, bool) {
	v, ok := r[key]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return n, true
	case string:
		f, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// FirstFloat probes keys in order and returns the first numeric hit.
func (r Record) FirstFloat(keys ...string) (float64, bool) {
	for _, key := range keys {
		if f, ok := r.Float(key); ok {
			return f, true
		}
	}
	return 0, false
}

// FirstStr probes keys in order and returns the first string hit.
func (r Record) FirstStr(keys ...string) (string, bool) {
	for _, key := range keys {
		if s, ok := r.Str(key); ok {
			return s, true
		}
	}
	return "", false
}

// FloatOr returns the column as float64 or def when absent/invalid.
func (r Record) FloatOr(key string, def float64) float64 {
	if f, ok := r.Float(key); ok {
		return f
	}
	return def
}

func (r Record) String() string {
	return fmt.Sprintf("%v", map[string]any(r))
}
