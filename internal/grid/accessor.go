package grid

import (
	"fmt"
	"reflect"
	"strings"
)

// Accessor extracts a column value from a row. It is either a property path
// or a function.
type Accessor[R any] struct {
	path string
	fn   func(R) Value
}

// Path reads a dotted property path. Segments match map keys, or struct
// fields by json tag and then by name.
func Path[R any](path string) Accessor[R] {
	return Accessor[R]{path: path}
}

// Fn computes the value with f.
func Fn[R any](f func(R) Value) Accessor[R] {
	return Accessor[R]{fn: f}
}

// IsZero reports an accessor that was never set.
func (a Accessor[R]) IsZero() bool {
	return a.fn == nil && a.path == ""
}

func (a Accessor[R]) String() string {
	if a.fn != nil {
		return "fn"
	}
	return "path(" + a.path + ")"
}

// resolve turns the accessor into a plain function once, so rows are never
// inspected by name at render time.
func (a Accessor[R]) resolve() (func(R) Value, error) {
	if a.fn != nil {
		return a.fn, nil
	}
	if a.path == "" {
		return func(R) Value { return Empty() }, nil
	}
	segments := strings.Split(a.path, ".")
	rowType := reflect.TypeFor[R]()
	steps, err := planPath(rowType, segments)
	if err != nil {
		return nil, fmt.Errorf("resolve accessor %q on %v: %w", a.path, rowType, err)
	}
	return func(row R) Value {
		v := reflect.ValueOf(&row).Elem()
		for _, step := range steps {
			var ok bool
			v, ok = step(v)
			if !ok {
				return Empty()
			}
		}
		for v.IsValid() && (v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface) {
			if v.IsNil() {
				return Empty()
			}
			v = v.Elem()
		}
		if !v.IsValid() {
			return Empty()
		}
		return ValueOf(v.Interface())
	}, nil
}

type pathStep func(reflect.Value) (reflect.Value, bool)

func planPath(t reflect.Type, segments []string) ([]pathStep, error) {
	steps := make([]pathStep, 0, len(segments))
	for i, seg := range segments {
		for t.Kind() == reflect.Pointer {
			steps = append(steps, derefStep)
			t = t.Elem()
		}
		switch t.Kind() {
		case reflect.Interface:
			// Dynamic values, typically decoded JSON, are walked at read time.
			return append(steps, dynamicStep(segments[i:])), nil
		case reflect.Map:
			if t.Key().Kind() != reflect.String {
				return nil, fmt.Errorf("map key %v is not a string", t.Key())
			}
			key := reflect.ValueOf(seg).Convert(t.Key())
			steps = append(steps, func(v reflect.Value) (reflect.Value, bool) {
				if v.IsNil() {
					return reflect.Value{}, false
				}
				out := v.MapIndex(key)
				return out, out.IsValid()
			})
			t = t.Elem()
		case reflect.Struct:
			idx, ft, ok := fieldByTag(t, seg)
			if !ok {
				return nil, fmt.Errorf("no field %q", seg)
			}
			steps = append(steps, func(v reflect.Value) (reflect.Value, bool) {
				out, err := v.FieldByIndexErr(idx)
				return out, err == nil
			})
			t = ft
		default:
			return nil, fmt.Errorf("cannot index %v with %q", t, seg)
		}
	}
	return steps, nil
}

func derefStep(v reflect.Value) (reflect.Value, bool) {
	if v.IsNil() {
		return reflect.Value{}, false
	}
	return v.Elem(), true
}

func dynamicStep(segments []string) pathStep {
	return func(v reflect.Value) (reflect.Value, bool) {
		if !v.IsValid() || (v.Kind() == reflect.Interface && v.IsNil()) {
			return reflect.Value{}, false
		}
		cur := v.Interface()
		for _, seg := range segments {
			m, ok := cur.(map[string]any)
			if !ok {
				return reflect.Value{}, false
			}
			if cur, ok = m[seg]; !ok {
				return reflect.Value{}, false
			}
		}
		if cur == nil {
			return reflect.Value{}, false
		}
		return reflect.ValueOf(cur), true
	}
}

func fieldByTag(t reflect.Type, name string) ([]int, reflect.Type, bool) {
	for _, f := range reflect.VisibleFields(t) {
		if !f.IsExported() || f.Anonymous {
			continue
		}
		tag := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if tag == name {
			return f.Index, f.Type, true
		}
	}
	for _, f := range reflect.VisibleFields(t) {
		if f.IsExported() && !f.Anonymous && strings.EqualFold(f.Name, name) {
			return f.Index, f.Type, true
		}
	}
	return nil, nil, false
}
