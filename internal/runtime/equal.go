package runtime

import "reflect"

// Equaler lets descriptor data types define their own equality, the
// same convention go-cmp honors. Data carrying values that defined
// equality cannot see (open connections, cached handles) should
// implement it.
type Equaler interface {
	Equal(other any) bool
}

// dataEqual compares descriptor configuration data. It differs from
// reflect.DeepEqual in exactly one way: functions compare by code
// pointer instead of always being unequal, because descriptor data
// conventionally embeds the action to resume into. Without this, every
// reconciliation would restart every subscription.
func dataEqual(a, b any) bool {
	if eq, ok := a.(Equaler); ok {
		return eq.Equal(b)
	}
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return valueEqual(reflect.ValueOf(a), reflect.ValueOf(b))
}

// valueEqual recursively compares two values, treating funcs as equal
// when they share a code pointer. Descriptor data is small acyclic
// configuration, so no visited-set bookkeeping is kept.
func valueEqual(a, b reflect.Value) bool {
	if !a.IsValid() || !b.IsValid() {
		return a.IsValid() == b.IsValid()
	}
	if a.Type() != b.Type() {
		return false
	}

	switch a.Kind() {
	case reflect.Func:
		if a.IsNil() || b.IsNil() {
			return a.IsNil() == b.IsNil()
		}
		return a.Pointer() == b.Pointer()

	case reflect.Pointer:
		if a.IsNil() || b.IsNil() {
			return a.IsNil() == b.IsNil()
		}
		if a.Pointer() == b.Pointer() {
			return true
		}
		return valueEqual(a.Elem(), b.Elem())

	case reflect.Interface:
		if a.IsNil() || b.IsNil() {
			return a.IsNil() == b.IsNil()
		}
		return valueEqual(a.Elem(), b.Elem())

	case reflect.Struct:
		for i := 0; i < a.NumField(); i++ {
			if !valueEqual(a.Field(i), b.Field(i)) {
				return false
			}
		}
		return true

	case reflect.Slice:
		if a.IsNil() != b.IsNil() {
			return false
		}
		fallthrough

	case reflect.Array:
		if a.Len() != b.Len() {
			return false
		}
		for i := 0; i < a.Len(); i++ {
			if !valueEqual(a.Index(i), b.Index(i)) {
				return false
			}
		}
		return true

	case reflect.Map:
		if a.IsNil() != b.IsNil() || a.Len() != b.Len() {
			return false
		}
		iter := a.MapRange()
		for iter.Next() {
			bv := b.MapIndex(iter.Key())
			if !bv.IsValid() || !valueEqual(iter.Value(), bv) {
				return false
			}
		}
		return true

	default:
		// Comparable scalar kinds (bool, numbers, string, chan,
		// unsafe pointer). Value.Equal avoids Interface(), so
		// unexported struct fields compare fine.
		return a.Equal(b)
	}
}

// funcPointer returns the code pointer of a function value, 0 for nil.
func funcPointer(fn any) uintptr {
	v := reflect.ValueOf(fn)
	if !v.IsValid() || v.Kind() != reflect.Func || v.IsNil() {
		return 0
	}
	return v.Pointer()
}
