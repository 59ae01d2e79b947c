package reconcile

import (
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/sells-group/enrich-cli/internal/model"
)

// coerceValue canonicalizes a winning value for display. Scalars pass
// through. Slices keep their shape when the field wants an array, but each
// non-scalar element is reduced to its title when it has one, else to its
// JSON form. Bare objects are JSON-stringified. Coercion never fails: a
// value that cannot be marshaled falls back to fmt formatting.
func coerceValue(v any, fieldType model.FieldType) any {
	if v == nil {
		return nil
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		out := make([]any, 0, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			out = append(out, reduceElement(rv.Index(i).Interface()))
		}
		return out
	case reflect.Struct, reflect.Map:
		return jsonString(v)
	case reflect.Pointer:
		if rv.IsNil() {
			return nil
		}
		return coerceValue(rv.Elem().Interface(), fieldType)
	default:
		return v
	}
}

// reduceElement reduces a slice element: scalars pass, objects prefer their
// title member, anything else is JSON-stringified.
func reduceElement(elem any) any {
	if elem == nil {
		return nil
	}
	rv := reflect.ValueOf(elem)
	switch rv.Kind() {
	case reflect.Struct:
		if title := titleOf(rv); title != "" {
			return title
		}
		return jsonString(elem)
	case reflect.Map:
		if rv.Type().Key().Kind() == reflect.String {
			mv := rv.MapIndex(reflect.ValueOf("title"))
			if mv.IsValid() {
				if s, ok := mv.Interface().(string); ok && s != "" {
					return s
				}
			}
		}
		return jsonString(elem)
	case reflect.Slice, reflect.Array:
		return jsonString(elem)
	default:
		return elem
	}
}

// titleOf returns a struct's Title field when it is a non-empty string.
func titleOf(rv reflect.Value) string {
	f := rv.FieldByName("Title")
	if !f.IsValid() || f.Kind() != reflect.String {
		return ""
	}
	return f.String()
}

func jsonString(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(b)
}
