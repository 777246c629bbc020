package moment

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// seconds converts a decoded JSON value into a finite float.
func seconds(val interface{}) (float64, bool) {
	var f float64
	switch v := val.(type) {
	case nil:
		return 0, false
	case float64:
		f = v
	case float32:
		f = float64(v)
	case int:
		f = float64(v)
	case int64:
		f = float64(v)
	case json.Number:
		parsed, err := v.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// snippet renders a value for error messages, truncated to maxLength.
func snippet(val interface{}, maxLength int) string {
	if val == nil {
		return "<missing>"
	}
	s := fmt.Sprintf("%q", fmt.Sprintf("%v", val))
	if maxLength <= 0 {
		return "..."
	}
	if len(s) > maxLength {
		return s[:maxLength] + "..."
	}
	return s
}
