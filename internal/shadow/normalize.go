package shadow

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// idKey is the field that marks a list of objects as an unordered collection.
const idKey = "id"

// Normalize returns a copy of v in which every list of objects that all carry an
// "id" field is sorted by the string form of that id. Other lists keep their
// order. Maps and lists are copied; v is never modified.
func Normalize(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, child := range val {
			out[k] = Normalize(child)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, child := range val {
			out[i] = Normalize(child)
		}
		if allKeyedByID(out) {
			// Stable: elements sharing an id keep their original order.
			slices.SortStableFunc(out, func(a, b any) int {
				return strings.Compare(idString(a), idString(b))
			})
		}
		return out
	default:
		return v
	}
}

func allKeyedByID(items []any) bool {
	for _, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			return false
		}
		if _, ok := m[idKey]; !ok {
			return false
		}
	}
	return true
}

// idString renders the id of an object so numeric and string ids sort on the
// same lexicographic scale.
func idString(item any) string {
	m, _ := item.(map[string]any)
	switch id := m[idKey].(type) {
	case string:
		return id
	case json.Number:
		return id.String()
	case bool:
		return strconv.FormatBool(id)
	case nil:
		return "null"
	case float64:
		return strconv.FormatFloat(id, 'f', -1, 64)
	case int, int64, int32, uint, uint64:
		return fmt.Sprint(id)
	default:
		return string(Canonical(id))
	}
}

// Canonical serializes v as compact JSON with object keys sorted at every
// level. Numbers keep their literal text, so 1 and 1.0 differ and integers
// beyond float64 precision stay distinct; ids sort on the same literals.
func Canonical(v any) []byte {
	return marshal(v)
}

// Pretty renders the canonical form of v with two-space indentation, one
// element per line.
func Pretty(v any) string {
	var buf bytes.Buffer
	if err := json.Indent(&buf, Canonical(v), "", "  "); err != nil {
		return string(Canonical(v))
	}
	return buf.String()
}

// Indented renders v as indented JSON without normalizing it.
func Indented(v any) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Sprint(v)
	}
	return strings.TrimSuffix(buf.String(), "\n")
}

func marshal(v any) []byte {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		// Only reachable for values that are not JSON trees; keep the result deterministic.
		return []byte(strconv.Quote(fmt.Sprintf("%#v", v)))
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n"))
}
