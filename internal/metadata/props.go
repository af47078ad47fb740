package metadata

import "fmt"

// String reads a string property. A missing property is the zero value.
func String(props map[string]any, key string) (string, error) {
	v, ok := props[key]
	if !ok || v == nil {
		return "", nil
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("property %q is %T, not a string", key, v)
	}
	return s, nil
}

// Int64 reads an integer property. The driver returns every integer as int64.
func Int64(props map[string]any, key string) (int64, error) {
	v, ok := props[key]
	if !ok || v == nil {
		return 0, nil
	}
	switch n := v.(type) {
	case int64:
		return n, nil
	case int:
		return int64(n), nil
	default:
		return 0, fmt.Errorf("property %q is %T, not an integer", key, v)
	}
}

// Float64 reads a float property.
func Float64(props map[string]any, key string) (float64, error) {
	v, ok := props[key]
	if !ok || v == nil {
		return 0, nil
	}
	switch n := v.(type) {
	case float64:
		return n, nil
	case int64:
		return float64(n), nil
	default:
		return 0, fmt.Errorf("property %q is %T, not a float", key, v)
	}
}

// Strings reads a list of strings.
func Strings(props map[string]any, key string) ([]string, error) {
	v, ok := props[key]
	if !ok || v == nil {
		return nil, nil
	}
	switch list := v.(type) {
	case []string:
		return list, nil
	case []any:
		out := make([]string, 0, len(list))
		for _, item := range list {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("property %q holds %T, not a string", key, item)
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("property %q is %T, not a list", key, v)
	}
}
