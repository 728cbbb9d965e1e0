package normalizer

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
)

var (
	nonNumericRe = regexp.MustCompile(`[^0-9.\-]`)
	daysKoRe     = regexp.MustCompile(`(\d+)\s*일`)
	daysEnRe     = regexp.MustCompile(`(?i)(\d+)\s*(?:day|days|D)\b`)
)

// firstPresent returns the value of the first key that exists with a non-null value.
func firstPresent(m map[string]any, keys ...string) (any, bool) {
	for _, k := range keys {
		if v, ok := m[k]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

// firstTruthy skips null, false, zero and empty-string values.
func firstTruthy(m map[string]any, keys ...string) (any, bool) {
	for _, k := range keys {
		if v, ok := m[k]; ok && truthy(v) {
			return v, true
		}
	}
	return nil, false
}

func truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case string:
		return x != ""
	case float64:
		return x != 0 && !math.IsNaN(x)
	case int:
		return x != 0
	case int64:
		return x != 0
	case json.Number:
		f, err := x.Float64()
		return err != nil || f != 0
	default:
		return true
	}
}

// parseNumber accepts JSON numbers and numeric strings such as "5,500원".
// Strings are reduced to digits, '.' and '-' before parsing.
func parseNumber(v any) (float64, bool) {
	var f float64
	switch x := v.(type) {
	case float64:
		f = x
	case int:
		f = float64(x)
	case int64:
		f = float64(x)
	case json.Number:
		return parseNumber(string(x))
	case string:
		s := nonNumericRe.ReplaceAllString(x, "")
		// a string without digits ("N/A") is unresolvable rather than 0
		if s == "" {
			return 0, false
		}
		n, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		f = n
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// daysFromText reads "5일", "7days", "10 day" or "3D" out of a label title.
func daysFromText(s string) (int, bool) {
	if m := daysKoRe.FindStringSubmatch(s); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			return n, true
		}
	}
	if m := daysEnRe.FindStringSubmatch(s); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			return n, true
		}
	}
	return 0, false
}

// toDays truncates to whole days; negative values become 0.
func toDays(f float64) int {
	if f <= 0 {
		return 0
	}
	return int(math.Trunc(f))
}

func asString(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case json.Number:
		return x.String()
	default:
		return fmt.Sprint(x)
	}
}
