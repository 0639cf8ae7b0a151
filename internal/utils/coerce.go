package utils

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

var (
	// ErrMissingValue means the value was absent (nil or blank string).
	ErrMissingValue = errors.New("value is missing")
	// ErrNotNumeric means the value could not be read as a number.
	ErrNotNumeric = errors.New("value is not numeric")
)

// CoerceInt turns a decoded JSON value into an int.
// Numbers are truncated toward zero. Strings are trimmed and may carry a fractional
// part ("2.5" -> 2) but no other trailing characters.
func CoerceInt(v interface{}) (int, error) {
	switch n := v.(type) {
	case nil:
		return 0, ErrMissingValue
	case int:
		return n, nil
	case int32:
		return int(n), nil
	case int64:
		return int(n), nil
	case float64:
		return floatToInt(n)
	case float32:
		return floatToInt(float64(n))
	case json.Number:
		return CoerceInt(n.String())
	case string:
		s := strings.TrimSpace(n)
		if s == "" {
			return 0, ErrMissingValue
		}
		if i, err := strconv.Atoi(s); err == nil {
			return i, nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, fmt.Errorf("%q: %w", n, ErrNotNumeric)
		}
		return floatToInt(f)
	default:
		return 0, fmt.Errorf("unsupported type %T: %w", v, ErrNotNumeric)
	}
}

// ParseQueryInt parses an optional query-string integer. Empty input yields nil, true;
// unparseable input yields nil, false.
func ParseQueryInt(s string) (*int, bool) {
	if strings.TrimSpace(s) == "" {
		return nil, true
	}
	i, err := CoerceInt(s)
	if err != nil {
		return nil, false
	}
	return &i, true
}

func floatToInt(f float64) (int, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, ErrNotNumeric
	}
	if math.Abs(f) > 1<<53 {
		return 0, fmt.Errorf("%v out of range: %w", f, ErrNotNumeric)
	}
	return int(math.Trunc(f)), nil
}
