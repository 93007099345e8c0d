package object

import (
	"fmt"
	"math"
	"reflect"
	"regexp"
	"time"
)

var (
	errorInterface = reflect.TypeOf((*error)(nil)).Elem()
	timeType       = reflect.TypeOf(time.Time{})
	regexpType     = reflect.TypeOf(&regexp.Regexp{})
)

// Collections nested deeper than this are left as live proxies.
const maxConversionDepth = 32

func AsBool(obj Object) (bool, error) {
	b, ok := obj.(*Bool)
	if !ok {
		return false, TypeErrorf("expected a bool (%s given)", obj.Type())
	}
	return b.value, nil
}

func AsString(obj Object) (string, error) {
	s, ok := obj.(*String)
	if !ok {
		return "", TypeErrorf("expected a string (%s given)", obj.Type())
	}
	return s.value, nil
}

func AsInt(obj Object) (int64, error) {
	i, ok := obj.(*Int)
	if !ok {
		return 0, TypeErrorf("expected an integer (%s given)", obj.Type())
	}
	return i.value, nil
}

func AsFloat(obj Object) (float64, error) {
	switch obj := obj.(type) {
	case *Int:
		return float64(obj.value), nil
	case *Float:
		return obj.value, nil
	default:
		return 0, TypeErrorf("expected a number (%s given)", obj.Type())
	}
}

func AsList(obj Object) (*List, error) {
	list, ok := obj.(*List)
	if !ok {
		return nil, TypeErrorf("expected a list (%s given)", obj.Type())
	}
	return list, nil
}

func AsMap(obj Object) (*Map, error) {
	m, ok := obj.(*Map)
	if !ok {
		return nil, TypeErrorf("expected a map (%s given)", obj.Type())
	}
	return m, nil
}

func AsTime(obj Object) (time.Time, error) {
	t, ok := obj.(*Time)
	if !ok {
		return time.Time{}, TypeErrorf("expected a time (%s given)", obj.Type())
	}
	return t.value, nil
}

// FromGoType converts a Go value to an object. Scalars, strings, times,
// errors and regular expressions become their object equivalents. Slices,
// arrays and string-keyed maps are copied into lists and maps. Structs,
// pointers and everything else are wrapped in a read-through Proxy.
func FromGoType(v any) Object {
	if v == nil {
		return Nil
	}
	if obj, ok := v.(Object); ok {
		return obj
	}
	return fromValue(reflect.ValueOf(v), 0)
}

// FromGoMap converts each value of a Go map with FromGoType.
func FromGoMap(m map[string]any) map[string]Object {
	result := make(map[string]Object, len(m))
	for k, v := range m {
		result[k] = FromGoType(v)
	}
	return result
}

func fromValue(rv reflect.Value, depth int) Object {
	if !rv.IsValid() {
		return Nil
	}
	if rv.CanInterface() {
		switch v := rv.Interface().(type) {
		case Object:
			return v
		case time.Time:
			return NewTime(v)
		case *regexp.Regexp:
			if v == nil {
				return Nil
			}
			return NewRegexp(v)
		}
	}
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return NewInt(rv.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		u := rv.Uint()
		if u > math.MaxInt64 {
			// Out of int range; a float keeps the sign and magnitude.
			return NewFloat(float64(u))
		}
		return NewInt(int64(u))
	case reflect.Float32, reflect.Float64:
		return NewFloat(rv.Float())
	case reflect.Bool:
		return NewBool(rv.Bool())
	case reflect.String:
		return NewString(rv.String())
	case reflect.Slice:
		if rv.IsNil() {
			return Nil
		}
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			return NewString(string(rv.Bytes()))
		}
		return fromSequence(rv, depth)
	case reflect.Array:
		return fromSequence(rv, depth)
	case reflect.Map:
		if rv.IsNil() {
			return Nil
		}
		if rv.Type().Key().Kind() != reflect.String || depth >= maxConversionDepth {
			return newProxy(rv)
		}
		result := make(map[string]Object, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			result[iter.Key().String()] = fromValue(iter.Value(), depth+1)
		}
		return NewMap(result)
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return Nil
		}
		if rv.Kind() == reflect.Interface {
			if rv.Type().Implements(errorInterface) && rv.CanInterface() {
				return NewError(rv.Interface().(error))
			}
			return fromValue(rv.Elem(), depth)
		}
		if rv.Type().Implements(errorInterface) && rv.CanInterface() {
			return NewError(rv.Interface().(error))
		}
		return newProxy(rv)
	default:
		if rv.Type().Implements(errorInterface) && rv.CanInterface() {
			return NewError(rv.Interface().(error))
		}
		return newProxy(rv)
	}
}

func fromSequence(rv reflect.Value, depth int) Object {
	if depth >= maxConversionDepth {
		return newProxy(rv)
	}
	count := rv.Len()
	items := make([]Object, 0, count)
	for i := 0; i < count; i++ {
		items = append(items, fromValue(rv.Index(i), depth+1))
	}
	return NewList(items)
}

// ToGoValue converts an object to a Go value assignable to the target type.
func ToGoValue(obj Object, target reflect.Type) (reflect.Value, error) {
	if obj == nil || obj == Nil {
		return reflect.Zero(target), nil
	}
	if proxy, ok := obj.(*Proxy); ok {
		if proxy.value.Type().AssignableTo(target) {
			return proxy.value, nil
		}
		return reflect.Value{}, TypeErrorf("cannot use %s as %s", proxy.value.Type(), target)
	}
	if target == timeType {
		t, err := AsTime(obj)
		if err != nil {
			return reflect.Value{}, err
		}
		return reflect.ValueOf(t), nil
	}
	if target == regexpType {
		if r, ok := obj.(*Regexp); ok {
			return reflect.ValueOf(r.value), nil
		}
	}
	switch target.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		i, err := AsInt(obj)
		if err != nil {
			return reflect.Value{}, err
		}
		return reflect.ValueOf(i).Convert(target), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		i, err := AsInt(obj)
		if err != nil {
			return reflect.Value{}, err
		}
		if i < 0 {
			return reflect.Value{}, ValueErrorf("cannot use negative value %d as %s", i, target)
		}
		return reflect.ValueOf(uint64(i)).Convert(target), nil
	case reflect.Float32, reflect.Float64:
		f, err := AsFloat(obj)
		if err != nil {
			return reflect.Value{}, err
		}
		return reflect.ValueOf(f).Convert(target), nil
	case reflect.Bool:
		b, err := AsBool(obj)
		if err != nil {
			return reflect.Value{}, err
		}
		return reflect.ValueOf(b).Convert(target), nil
	case reflect.String:
		s, err := AsString(obj)
		if err != nil {
			return reflect.Value{}, err
		}
		return reflect.ValueOf(s).Convert(target), nil
	case reflect.Interface:
		value := obj.Interface()
		if value == nil {
			return reflect.Zero(target), nil
		}
		rv := reflect.ValueOf(value)
		if !rv.Type().AssignableTo(target) {
			return reflect.Value{}, TypeErrorf("cannot use %s as %s", obj.Type(), target)
		}
		return rv, nil
	case reflect.Slice:
		list, err := AsList(obj)
		if err != nil {
			return reflect.Value{}, err
		}
		result := reflect.MakeSlice(target, 0, len(list.items))
		for i, item := range list.items {
			elem, err := ToGoValue(item, target.Elem())
			if err != nil {
				return reflect.Value{}, fmt.Errorf("list item %d: %w", i, err)
			}
			result = reflect.Append(result, elem)
		}
		return result, nil
	default:
		return reflect.Value{}, TypeErrorf("cannot convert %s to %s", obj.Type(), target)
	}
}
