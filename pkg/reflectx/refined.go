package reflectx

import "reflect"

// IsRefinedType reports whether value is exactly the type R.
// For interface types R it also reports true when value implements R, so
// IsRefinedType[context.Context] matches any context parameter.
func IsRefinedType[R any](value reflect.Type) bool {
	if value == nil {
		return false
	}
	mt := reflect.TypeFor[R]()
	if mt == value {
		return true
	}
	return mt.Kind() == reflect.Interface && value.Implements(mt)
}
