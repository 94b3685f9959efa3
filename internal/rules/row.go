package rules

import (
	"fmt"
	"maps"
	"slices"
)

// Result is the structured output built for one data row. Keys are chosen
// by rule actions and need not match header names.
type Result map[string]any

// Clone returns a deep copy of r. Nested Results, maps and slices are
// copied; other values are shared.
func (r Result) Clone() Result {
	if r == nil {
		return nil
	}
	out := make(Result, len(r))
	for k, v := range r {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch x := v.(type) {
	case Result:
		return x.Clone()
	case map[string]any:
		return map[string]any(Result(x).Clone())
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = cloneValue(e)
		}
		return out
	case []string:
		return slices.Clone(x)
	default:
		return v
	}
}

// Row is the accessor rule actions use to read and write the result of the
// row being built. It is only valid for the duration of one row.
type Row struct {
	result Result
	header []string
	line   int
}

// Get returns the value stored under key, or nil.
func (r *Row) Get(key string) any {
	return r.result[key]
}

// Set stores value under key, replacing any previous value.
func (r *Row) Set(key string, value any) {
	r.result[key] = value
}

// Append adds value to the list stored under key, creating the list if the
// key is unset. It fails if key holds something other than a list.
func (r *Row) Append(key string, value any) error {
	switch cur := r.result[key].(type) {
	case nil:
		r.result[key] = []any{value}
	case []any:
		r.result[key] = append(cur, value)
	default:
		return fmt.Errorf("append %q: value is %T, not a list", key, cur)
	}
	return nil
}

// Nested returns a Row over the map stored under key, creating an empty
// one if the key is unset. Writes through the returned Row land in the
// parent result.
func (r *Row) Nested(key string) (*Row, error) {
	var child Result
	switch cur := r.result[key].(type) {
	case nil:
		child = Result{}
		r.result[key] = child
	case Result:
		child = cur
	case map[string]any:
		child = Result(cur)
	default:
		return nil, fmt.Errorf("nested %q: value is %T, not a map", key, cur)
	}
	return &Row{result: child, header: r.header, line: r.line}, nil
}

// Keys returns the keys set so far, sorted.
func (r *Row) Keys() []string {
	return slices.Sorted(maps.Keys(r.result))
}

// Header returns the header names of the source. The slice is shared
// across rows and must not be modified.
func (r *Row) Header() []string {
	return r.header
}

// Line returns the 1-based record number of the row in the source.
func (r *Row) Line() int {
	return r.line
}
