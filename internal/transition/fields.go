package transition

import "math"

// Fields is a decoded parameter patch. Accessors only write dst when the key is
// present with a matching JSON type, so absent or mistyped values keep their value.
type Fields map[string]any

func (f Fields) Float(key string, dst *float64) bool {
	v, ok := f[key].(float64)
	if ok {
		*dst = v
	}
	return ok
}

// Int accepts whole JSON numbers only.
func (f Fields) Int(key string, dst *int) bool {
	v, ok := f[key].(float64)
	if !ok || v != math.Trunc(v) || math.Abs(v) > math.MaxInt32 {
		return false
	}
	*dst = int(v)
	return true
}

func (f Fields) Bool(key string, dst *bool) bool {
	v, ok := f[key].(bool)
	if ok {
		*dst = v
	}
	return ok
}

func (f Fields) String(key string, dst *string) bool {
	v, ok := f[key].(string)
	if ok {
		*dst = v
	}
	return ok
}
