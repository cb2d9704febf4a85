package crate

import "reflect"

// addNumeric adds amount to current, preserving current's kind. Unsigned
// kinds truncate at zero rather than wrapping, since a negative float to
// unsigned conversion is implementation-defined. The second return is false
// when current is not numeric.
func addNumeric(current any, amount float64) (any, bool) {
	switch v := current.(type) {
	case int:
		return v + int(amount), true
	case int8:
		return v + int8(amount), true
	case int16:
		return v + int16(amount), true
	case int32:
		return v + int32(amount), true
	case int64:
		return v + int64(amount), true
	case uint:
		return uint(unsignedSum(float64(v), amount)), true
	case uint8:
		return uint8(unsignedSum(float64(v), amount)), true
	case uint16:
		return uint16(unsignedSum(float64(v), amount)), true
	case uint32:
		return uint32(unsignedSum(float64(v), amount)), true
	case uint64:
		return uint64(unsignedSum(float64(v), amount)), true
	case float32:
		return v + float32(amount), true
	case float64:
		return v + amount, true
	default:
		return current, false
	}
}

func unsignedSum(v, amount float64) float64 {
	sum := v + amount
	if sum < 0 {
		return 0
	}
	return sum
}

// shallowEqual reports whether two values are identical without descending
// into structure: comparable values compare by ==, reference kinds (maps,
// slices, pointers, funcs, channels) compare by identity. Structurally equal
// but distinct containers are not equal here.
func shallowEqual(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}

	va := reflect.ValueOf(a)
	vb := reflect.ValueOf(b)
	if va.Type() != vb.Type() {
		return false
	}

	switch va.Kind() {
	case reflect.Map, reflect.Slice, reflect.Pointer, reflect.Chan, reflect.Func, reflect.UnsafePointer:
		return va.Pointer() == vb.Pointer()
	default:
		if va.Comparable() {
			return va.Equal(vb)
		}
		return false
	}
}
