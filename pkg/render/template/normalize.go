package template

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
)

// ErrContextCycle reports a context that (directly, through nested contexts
// or through values holding contexts) contains itself.
var ErrContextCycle = errors.New("template: context contains itself")

var contextPtrType = reflect.TypeOf((*Context)(nil))

// Normalize converts render data into a plain map tree. Structs are encoded
// through encoding/json so their json tags name the properties templates
// address, and numbers stay json.Number so integers print without a
// fraction; nested contexts are flattened; functions pass through so engines
// can expose them as callables.
func Normalize(data any) (map[string]any, error) {
	n := normalizer{path: make(map[*Context]struct{})}

	switch v := data.(type) {
	case nil:
		return map[string]any{}, nil
	case *Context:
		return n.context(v)
	case map[string]any:
		return n.topLevel(v)
	default:
		if err := n.scan(reflect.ValueOf(v), make(map[uintptr]struct{})); err != nil {
			return nil, err
		}
		raw, err := jsonToAny(v)
		if err != nil {
			return nil, fmt.Errorf("template: normalize %T: %w", data, err)
		}
		m, ok := raw.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("template: normalize %T: expected an object, got %T", data, raw)
		}
		return n.topLevel(m)
	}
}

// MarshalJSON encodes the normalised values of the context so contexts held
// inside structs survive JSON normalisation. Cycles fail with
// ErrContextCycle.
func (c *Context) MarshalJSON() ([]byte, error) {
	if c == nil {
		return []byte("null"), nil
	}
	values, err := Normalize(c)
	if err != nil {
		return nil, err
	}
	return json.Marshal(values)
}

type normalizer struct {
	path map[*Context]struct{}
}

func (n normalizer) topLevel(in map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(in))
	for key, value := range in {
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		converted, err := n.value(value)
		if err != nil {
			return nil, err
		}
		out[key] = converted
	}
	return out, nil
}

func (n normalizer) context(ctx *Context) (map[string]any, error) {
	if ctx == nil {
		return map[string]any{}, nil
	}
	if _, loop := n.path[ctx]; loop {
		return nil, ErrContextCycle
	}
	n.path[ctx] = struct{}{}
	defer delete(n.path, ctx)

	return n.topLevel(ctx.Values())
}

func (n normalizer) value(value any) (any, error) {
	if value == nil {
		return nil, nil
	}
	if IsCallable(value) {
		return value, nil
	}

	switch v := value.(type) {
	case *Context:
		return n.context(v)
	case map[string]any:
		return n.mapValue(v)
	case []any:
		return n.slice(v)
	case string, bool, int, int64, float64, json.Number:
		return v, nil
	default:
		if err := n.scan(reflect.ValueOf(v), make(map[uintptr]struct{})); err != nil {
			return nil, err
		}
		raw, err := jsonToAny(v)
		if err != nil {
			return nil, fmt.Errorf("template: normalize %T: %w", value, err)
		}
		switch decoded := raw.(type) {
		case map[string]any:
			return n.mapValue(decoded)
		case []any:
			return n.slice(decoded)
		default:
			return decoded, nil
		}
	}
}

// scan walks the JSON-visible parts of v looking for contexts already on the
// current path. JSON encoding re-enters MarshalJSON for every context it
// meets, so a cycle hidden behind a struct field has to be caught here.
func (n normalizer) scan(v reflect.Value, seen map[uintptr]struct{}) error {
	if !v.IsValid() {
		return nil
	}

	switch v.Kind() {
	case reflect.Interface:
		if v.IsNil() {
			return nil
		}
		return n.scan(v.Elem(), seen)
	case reflect.Pointer:
		if v.IsNil() {
			return nil
		}
		if v.Type() == contextPtrType {
			return n.scanContext((*Context)(v.UnsafePointer()), seen)
		}
		if _, done := seen[v.Pointer()]; done {
			return nil
		}
		seen[v.Pointer()] = struct{}{}
		return n.scan(v.Elem(), seen)
	case reflect.Struct:
		t := v.Type()
		for i := 0; i < v.NumField(); i++ {
			field := t.Field(i)
			if !field.IsExported() && !field.Anonymous {
				continue
			}
			if err := n.scan(v.Field(i), seen); err != nil {
				return err
			}
		}
	case reflect.Slice, reflect.Array:
		for i := 0; i < v.Len(); i++ {
			if err := n.scan(v.Index(i), seen); err != nil {
				return err
			}
		}
	case reflect.Map:
		iter := v.MapRange()
		for iter.Next() {
			if err := n.scan(iter.Value(), seen); err != nil {
				return err
			}
		}
	}
	return nil
}

func (n normalizer) scanContext(ctx *Context, seen map[uintptr]struct{}) error {
	if _, loop := n.path[ctx]; loop {
		return ErrContextCycle
	}
	n.path[ctx] = struct{}{}
	defer delete(n.path, ctx)

	for _, value := range ctx.Values() {
		if err := n.scan(reflect.ValueOf(value), seen); err != nil {
			return err
		}
	}
	return nil
}

func (n normalizer) mapValue(in map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(in))
	for key, value := range in {
		converted, err := n.value(value)
		if err != nil {
			return nil, err
		}
		out[key] = converted
	}
	return out, nil
}

func (n normalizer) slice(in []any) ([]any, error) {
	out := make([]any, 0, len(in))
	for _, value := range in {
		converted, err := n.value(value)
		if err != nil {
			return nil, err
		}
		out = append(out, converted)
	}
	return out, nil
}

// IsCallable reports whether v is a non-nil function value.
func IsCallable(v any) bool {
	if v == nil {
		return false
	}
	rv := reflect.ValueOf(v)
	return rv.IsValid() && rv.Kind() == reflect.Func
}

func jsonToAny(v any) (any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()

	var out any
	if err := dec.Decode(&out); err != nil {
		return nil, err
	}
	return out, nil
}
