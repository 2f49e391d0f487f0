package content

import (
	"fmt"
	"strconv"

	gojson "github.com/goccy/go-json"
)

// Property-bag coercion helpers. Schema definitions arrive as decoded JSON
// (map[string]any) where numbers may be gojson.Number, float64 or ints
// depending on the decode path, and where booleans are commonly given as the
// strings "true"/"false" by older tooling.

// StringValue coerces a property value to a string.
func StringValue(v any) (string, error) {
	switch val := v.(type) {
	case string:
		return val, nil
	case gojson.Number:
		return val.String(), nil
	case bool:
		return strconv.FormatBool(val), nil
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64), nil
	case int:
		return strconv.Itoa(val), nil
	case int64:
		return strconv.FormatInt(val, 10), nil
	default:
		return "", fmt.Errorf("cannot read %T as string", v)
	}
}

// IntValue coerces a property value to an int.
func IntValue(v any) (int, error) {
	switch val := v.(type) {
	case gojson.Number:
		n, err := val.Int64()
		if err != nil {
			return 0, err
		}
		return int(n), nil
	case float64:
		return int(val), nil
	case int:
		return val, nil
	case int64:
		return int(val), nil
	case string:
		n, err := strconv.Atoi(val)
		if err != nil {
			return 0, fmt.Errorf("cannot read %q as integer: %w", val, err)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("cannot read %T as integer", v)
	}
}

// Float64Value coerces a property value to a float64.
func Float64Value(v any) (float64, error) {
	switch val := v.(type) {
	case gojson.Number:
		return val.Float64()
	case float64:
		return val, nil
	case int:
		return float64(val), nil
	case int64:
		return float64(val), nil
	case string:
		f, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return 0, fmt.Errorf("cannot read %q as float: %w", val, err)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("cannot read %T as float", v)
	}
}

// BoolValue coerces a property value to a bool. The strings "true" and
// "false" are accepted for compatibility with string-typed flag values.
func BoolValue(v any) (bool, error) {
	switch val := v.(type) {
	case bool:
		return val, nil
	case string:
		switch val {
		case "true":
			return true, nil
		case "false":
			return false, nil
		}
		return false, fmt.Errorf("cannot read %q as boolean", val)
	default:
		return false, fmt.Errorf("cannot read %T as boolean", v)
	}
}

// StringSliceValue coerces a property value to a list of strings. A bare
// string yields a single-element list.
func StringSliceValue(v any) ([]string, error) {
	switch val := v.(type) {
	case string:
		return []string{val}, nil
	case []any:
		out := make([]string, 0, len(val))
		for _, item := range val {
			s, err := StringValue(item)
			if err != nil {
				return nil, err
			}
			out = append(out, s)
		}
		return out, nil
	case []string:
		return val, nil
	default:
		return nil, fmt.Errorf("cannot read %T as string list", v)
	}
}
