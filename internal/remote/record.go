package remote

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Record is one raw JSON object from the backend. Field names vary between
// backend versions, so lookups take a list of aliases.
type Record map[string]interface{}

// First returns the first alias whose value is a non-empty scalar, as a
// trimmed string. Numbers keep their JSON text; booleans become "true"/"false".
func (r Record) First(aliases ...string) string {
	for _, key := range aliases {
		if s := scalarString(r[key]); s != "" {
			return s
		}
	}
	return ""
}

// Nested returns the object stored under key, if any
func (r Record) Nested(key string) (Record, bool) {
	switch v := r[key].(type) {
	case map[string]interface{}:
		return Record(v), true
	case Record:
		return v, true
	}
	return nil, false
}

func scalarString(v interface{}) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case json.Number:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case bool:
		return strconv.FormatBool(t)
	}
	return ""
}

// records extracts a list of objects from either a bare array or an
// envelope {"data": [...]}. Non-object elements are skipped.
func records(doc interface{}) []Record {
	var items []interface{}
	switch v := doc.(type) {
	case []interface{}:
		items = v
	case map[string]interface{}:
		for _, key := range []string{"data", "results", "items"} {
			if arr, ok := v[key].([]interface{}); ok {
				items = arr
				break
			}
		}
	}

	out := make([]Record, 0, len(items))
	for _, item := range items {
		if obj, ok := item.(map[string]interface{}); ok {
			out = append(out, Record(obj))
		}
	}
	return out
}
