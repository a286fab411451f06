package parse

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// decodeJSON parses arbitrary JSON into the generic tree the walkers operate
// on. Returns nil on malformed input; callers treat that as "no match".
func decodeJSON(raw string) any {
	var root any
	if err := json.Unmarshal([]byte(raw), &root); err != nil {
		return nil
	}
	return root
}

// walkObjects visits every JSON object in the tree, depth first, parents
// before children. The visitor returns false to stop the walk early.
func walkObjects(node any, visit func(obj map[string]any) bool) bool {
	switch v := node.(type) {
	case map[string]any:
		if !visit(v) {
			return false
		}
		for _, child := range v {
			if !walkObjects(child, visit) {
				return false
			}
		}
	case []any:
		for _, item := range v {
			if !walkObjects(item, visit) {
				return false
			}
		}
	}
	return true
}

// findArray returns the first array found under the given property name
// anywhere in the tree.
func findArray(node any, name string) []any {
	var found []any
	walkObjects(node, func(obj map[string]any) bool {
		if arr, ok := obj[name].([]any); ok {
			found = arr
			return false
		}
		return true
	})
	return found
}

// firstString returns the first string value among the aliased keys. When a
// key holds an object, its name/value/label/text members are tried, which
// covers vendor payloads that wrap scalars ({"location": {"name": "..."}}).
func firstString(obj map[string]any, keys ...string) string {
	for _, key := range keys {
		child, ok := obj[key]
		if !ok {
			continue
		}
		switch v := child.(type) {
		case string:
			if strings.TrimSpace(v) != "" {
				return v
			}
		case float64:
			// Vendor payloads use numeric ids; keep them as integers.
			return strconv.FormatFloat(v, 'f', -1, 64)
		case map[string]any:
			if nested := firstString(v, "name", "value", "label", "text", "@id"); nested != "" {
				return nested
			}
		}
	}
	return ""
}

var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"02/01/2006",
}

// parseDate accepts the date shapes observed across vendor payloads.
func parseDate(raw string) *time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			utc := t.UTC()
			return &utc
		}
	}
	return nil
}

// firstDate returns the first parseable date among the aliased keys.
func firstDate(obj map[string]any, keys ...string) *time.Time {
	for _, key := range keys {
		if raw, ok := obj[key].(string); ok {
			if t := parseDate(raw); t != nil {
				return t
			}
		}
	}
	return nil
}
