package catalog

import (
	"encoding/json"
	"reflect"
	"strings"
)

// ParseList decodes list-valued exercise metadata stored as JSON text
// (for example an equipment column holding `["barbell","bench"]`).
//
// Empty input and the JSON literal null decode to an absent list with ok
// set. Anything that is not a JSON array of strings yields nil and ok false:
// the caller treats the field as absent for that one record and keeps the
// record. Blank entries are dropped.
func ParseList(raw string) (items []string, ok bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "null" {
		return nil, true
	}

	var decoded []string
	if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
		return nil, false
	}

	for _, item := range decoded {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items, true
}

// NormalizeList accepts list metadata in whichever shape a document decoder
// produced: a native list, a JSON-encoded string, or nothing. It follows the
// same absent-on-malformed rule as [ParseList].
func NormalizeList(v any) (items []string, ok bool) {
	switch t := v.(type) {
	case nil:
		return nil, true
	case string:
		return ParseList(t)
	case []string:
		for _, s := range t {
			if s = strings.TrimSpace(s); s != "" {
				items = append(items, s)
			}
		}
		return items, true
	}

	// Decoders disagree on the concrete slice type ([]any, bson arrays...).
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	for i := range rv.Len() {
		s, isString := rv.Index(i).Interface().(string)
		if !isString {
			return nil, false
		}
		if s = strings.TrimSpace(s); s != "" {
			items = append(items, s)
		}
	}
	return items, true
}
