package docstore

import (
	"encoding/json"
	"reflect"
	"sort"
	"strings"
)

// Apply filters and orders docs in process. Backends without native query
// support (memory, redis) share it so they agree on semantics.
func Apply(docs []Doc, q Query) []Doc {
	filters := make([]Filter, len(q.Filters))
	for i, f := range q.Filters {
		filters[i] = Filter{Field: f.Field, Op: f.Op, Value: NormalizeValue(f.Value)}
	}

	out := make([]Doc, 0, len(docs))
	for _, doc := range docs {
		if matches(doc, filters) {
			out = append(out, doc)
		}
	}

	if q.Order != nil {
		field, desc := q.Order.Field, q.Order.Desc
		sort.SliceStable(out, func(i, j int) bool {
			c, _ := compare(out[i][field], out[j][field])
			if desc {
				return c > 0
			}
			return c < 0
		})
	}
	return out
}

func matches(doc Doc, filters []Filter) bool {
	for _, f := range filters {
		v, ok := doc[f.Field]
		if !ok {
			return false
		}
		switch f.Op {
		case Eq:
			if c, comparable := compare(v, f.Value); comparable {
				if c != 0 {
					return false
				}
			} else if !reflect.DeepEqual(v, f.Value) {
				return false
			}
		case Gte:
			c, comparable := compare(v, f.Value)
			if !comparable || c < 0 {
				return false
			}
		default:
			return false
		}
	}
	return true
}

// compare orders two scalar values of the same kind. Missing values sort first.
func compare(a, b any) (int, bool) {
	if a == nil || b == nil {
		switch {
		case a == nil && b == nil:
			return 0, true
		case a == nil:
			return -1, true
		default:
			return 1, true
		}
	}
	if as, ok := a.(string); ok {
		bs, ok := b.(string)
		if !ok {
			return 0, false
		}
		return strings.Compare(as, bs), true
	}
	af, aok := number(a)
	bf, bok := number(b)
	if aok && bok {
		switch {
		case af < bf:
			return -1, true
		case af > bf:
			return 1, true
		}
		return 0, true
	}
	if ab, ok := a.(bool); ok {
		if bb, ok := b.(bool); ok {
			if ab == bb {
				return 0, true
			}
			if !ab {
				return -1, true
			}
			return 1, true
		}
	}
	return 0, false
}

func number(v any) (float64, bool) {
	switch val := v.(type) {
	case json.Number:
		f, err := val.Float64()
		return f, err == nil
	case float64:
		return val, true
	case int:
		return float64(val), true
	case int64:
		return float64(val), true
	}
	return 0, false
}
