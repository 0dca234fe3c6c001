package docstore

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// TimeLayout is fixed width so that lexical order matches chronological order
// in every backend, including JSONB text comparisons in Postgres.
const TimeLayout = "2006-01-02T15:04:05.000000000Z"

// FormatTime renders t in TimeLayout (UTC).
func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}

// Encode serializes a document after normalizing time values.
func Encode(doc Doc) ([]byte, error) {
	return json.Marshal(prepare(map[string]any(doc)))
}

// Decode parses a serialized document. Numbers decode as json.Number.
func Decode(raw []byte) (Doc, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var doc Doc
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	return doc, nil
}

// Normalize returns the form doc takes after being stored and read back.
func Normalize(doc Doc) (Doc, error) {
	raw, err := Encode(doc)
	if err != nil {
		return nil, err
	}
	return Decode(raw)
}

// NormalizeValue applies the document normalization to a single filter value.
func NormalizeValue(v any) any {
	doc, err := Normalize(Doc{"v": v})
	if err != nil {
		return v
	}
	return doc["v"]
}

// DecodeInto converts a normalized value (e.g. a nested array of objects) into out.
func DecodeInto(v any, out any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}

func prepare(v any) any {
	switch val := v.(type) {
	case time.Time:
		return FormatTime(val)
	case *time.Time:
		if val == nil {
			return nil
		}
		return FormatTime(*val)
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = prepare(item)
		}
		return out
	case Doc:
		return prepare(map[string]any(val))
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = prepare(item)
		}
		return out
	default:
		return v
	}
}

// String reads a string field; anything else yields "".
func String(v any) string {
	s, _ := v.(string)
	return s
}

// StringPtr reads an optional string field.
func StringPtr(v any) *string {
	s, ok := v.(string)
	if !ok {
		return nil
	}
	return &s
}

// Strings reads a string array field.
func Strings(v any) []string {
	switch val := v.(type) {
	case []string:
		return append([]string(nil), val...)
	case []any:
		out := make([]string, 0, len(val))
		for _, item := range val {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

// Int reads an integer field.
func Int(v any) int {
	switch val := v.(type) {
	case json.Number:
		n, err := val.Int64()
		if err != nil {
			f, _ := val.Float64()
			return int(f)
		}
		return int(n)
	case float64:
		return int(val)
	case int:
		return val
	case int64:
		return int(val)
	case string:
		n, _ := strconv.Atoi(val)
		return n
	}
	return 0
}

// Time reads a time field written with FormatTime.
func Time(v any) time.Time {
	switch val := v.(type) {
	case time.Time:
		return val
	case string:
		if t, err := time.Parse(TimeLayout, val); err == nil {
			return t
		}
		if t, err := time.Parse(time.RFC3339Nano, val); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}
