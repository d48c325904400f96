package tool

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"reflect"
	"strings"
	"time"
)

const circularMarker = "[Circular]"

var (
	timeType      = reflect.TypeOf(time.Time{})
	marshalerType = reflect.TypeOf((*json.Marshaler)(nil)).Elem()

	errUnsupported = errors.New("unsupported value")
)

// Normalize coerces an arbitrary tool return value into the canonical,
// JSON-safe object sent back to the model. The result is never nil and is
// never a bare array:
//
//	nil, nil pointer         -> {}
//	time.Time                -> {"result": RFC 3339 string}
//	json.Marshaler           -> hook output (objects as-is, other values under "result")
//	[]byte                   -> {"result": base64 string}
//	slice, array             -> {"items": [...]}
//	map, struct              -> JSON object
//	bool, number, string     -> {"result": v}
//	chan, func, complex, ... -> {"result": fmt.Sprint(v)}
//
// Values the JSON encoder rejects (cycles, NaN, channels inside maps) fall
// back to a reflective deep copy, and finally to their fmt.Sprint rendering.
func Normalize(v any) map[string]any {
	if v == nil {
		return map[string]any{}
	}
	orig := reflect.ValueOf(v)
	rv := orig
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return map[string]any{}
		}
		// pointer receiver hook: the element alone would not marshal the same way
		if rv.Kind() == reflect.Pointer && rv.Type().Implements(marshalerType) &&
			!rv.Type().Elem().Implements(marshalerType) {
			break
		}
		rv = rv.Elem()
	}

	if rv.Type() == timeType {
		return map[string]any{"result": rv.Interface().(time.Time).Format(time.RFC3339Nano)}
	}

	if rv.Type().Implements(marshalerType) {
		return normalizeMarshaler(rv)
	}

	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			return map[string]any{"result": base64.StdEncoding.EncodeToString(bytesOf(rv))}
		}
		if rv.Kind() == reflect.Slice && rv.IsNil() {
			return map[string]any{"items": []any{}}
		}
		items, err := jsonSafe(orig)
		if err != nil {
			return stringFallback(rv)
		}
		return map[string]any{"items": items}
	case reflect.Map, reflect.Struct:
		obj, err := jsonSafe(orig)
		if err != nil {
			return stringFallback(rv)
		}
		if m, ok := obj.(map[string]any); ok {
			return m
		}
		return map[string]any{"result": obj}
	case reflect.Bool, reflect.String,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return map[string]any{"result": rv.Interface()}
	case reflect.Float32, reflect.Float64:
		f := rv.Float()
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return stringFallback(rv)
		}
		return map[string]any{"result": rv.Interface()}
	default:
		return stringFallback(rv)
	}
}

func normalizeMarshaler(rv reflect.Value) map[string]any {
	var decoded any
	raw, err := json.Marshal(rv.Interface())
	if err == nil {
		err = json.Unmarshal(raw, &decoded)
	}
	if err != nil {
		copied, copyErr := deepCopy(indirect(rv), map[uintptr]bool{})
		if copyErr != nil {
			return stringFallback(rv)
		}
		decoded = copied
	}
	if m, ok := decoded.(map[string]any); ok {
		return m
	}
	return map[string]any{"result": decoded}
}

// jsonSafe returns a JSON round trip of rv, or a reflective deep copy when
// the encoder rejects the value.
func jsonSafe(rv reflect.Value) (any, error) {
	raw, err := json.Marshal(rv.Interface())
	if err == nil {
		var out any
		if err = json.Unmarshal(raw, &out); err == nil {
			return out, nil
		}
	}
	return deepCopy(rv, map[uintptr]bool{})
}

func stringFallback(rv reflect.Value) map[string]any {
	return map[string]any{"result": fmt.Sprint(rv.Interface())}
}

func indirect(rv reflect.Value) reflect.Value {
	for (rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface) && !rv.IsNil() {
		rv = rv.Elem()
	}
	return rv
}

func bytesOf(rv reflect.Value) []byte {
	if rv.Kind() == reflect.Slice {
		return rv.Bytes()
	}
	b := make([]byte, rv.Len())
	reflect.Copy(reflect.ValueOf(b), rv)
	return b
}

// deepCopy walks rv producing only JSON-safe values (maps with string keys,
// []any, strings, bools, finite numbers, nil). Reference cycles are rendered
// as a marker string.
func deepCopy(rv reflect.Value, seen map[uintptr]bool) (out any, err error) {
	defer func() {
		if r := recover(); r != nil {
			out, err = nil, fmt.Errorf("%w: %v", errUnsupported, r)
		}
	}()

	if !rv.IsValid() {
		return nil, nil
	}

	if rv.Type() == timeType {
		return rv.Interface().(time.Time).Format(time.RFC3339Nano), nil
	}

	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return nil, nil
		}
		if rv.Kind() == reflect.Pointer {
			ptr := rv.Pointer()
			if seen[ptr] {
				return circularMarker, nil
			}
			seen[ptr] = true
			defer delete(seen, ptr)
		}
		return deepCopy(rv.Elem(), seen)
	case reflect.Map:
		if rv.IsNil() {
			return map[string]any{}, nil
		}
		ptr := rv.Pointer()
		if seen[ptr] {
			return circularMarker, nil
		}
		seen[ptr] = true
		defer delete(seen, ptr)

		m := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			val, err := deepCopy(iter.Value(), seen)
			if err != nil {
				return nil, err
			}
			m[fmt.Sprint(iter.Key().Interface())] = val
		}
		return m, nil
	case reflect.Slice, reflect.Array:
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			return base64.StdEncoding.EncodeToString(bytesOf(rv)), nil
		}
		if rv.Kind() == reflect.Slice {
			if rv.IsNil() {
				return []any{}, nil
			}
			ptr := rv.Pointer()
			if seen[ptr] && rv.Len() > 0 {
				return circularMarker, nil
			}
			seen[ptr] = true
			defer delete(seen, ptr)
		}
		items := make([]any, rv.Len())
		for i := range items {
			val, err := deepCopy(rv.Index(i), seen)
			if err != nil {
				return nil, err
			}
			items[i] = val
		}
		return items, nil
	case reflect.Struct:
		m := map[string]any{}
		t := rv.Type()
		for i := 0; i < t.NumField(); i++ {
			field := t.Field(i)
			if !field.IsExported() {
				continue
			}
			name := field.Name
			if tag := field.Tag.Get("json"); tag != "" {
				if tag == "-" {
					continue
				}
				if n, _, _ := strings.Cut(tag, ","); n != "" {
					name = n
				}
			}
			val, err := deepCopy(rv.Field(i), seen)
			if err != nil {
				return nil, err
			}
			m[name] = val
		}
		return m, nil
	case reflect.Float32, reflect.Float64:
		f := rv.Float()
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return fmt.Sprint(f), nil
		}
		return f, nil
	case reflect.Bool:
		return rv.Bool(), nil
	case reflect.String:
		return rv.String(), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int(), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return rv.Uint(), nil
	case reflect.Chan, reflect.Func, reflect.Complex64, reflect.Complex128, reflect.UnsafePointer:
		if rv.CanInterface() {
			return fmt.Sprint(rv.Interface()), nil
		}
		return rv.Kind().String(), nil
	default:
		return nil, fmt.Errorf("%w: %s", errUnsupported, rv.Kind())
	}
}
