package object

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/deepnoodle-ai/peek/op"
)

var mapMethods = NewMethodRegistry[*Map]("map")

func init() {
	mapMethods.Define("clear").
		Doc("Remove all entries").
		Impl(func(m *Map, ctx context.Context, args ...Object) (Object, error) {
			m.Clear()
			return m, nil
		})

	mapMethods.Define("copy").
		Doc("Create a shallow copy").
		Impl(func(m *Map, ctx context.Context, args ...Object) (Object, error) {
			return m.Copy(), nil
		})

	mapMethods.Define("delete").
		Doc("Delete a key and return its value").
		Arg("key").
		Impl(func(m *Map, ctx context.Context, args ...Object) (Object, error) {
			key, err := AsString(args[0])
			if err != nil {
				return nil, err
			}
			return m.Delete(key), nil
		})

	mapMethods.Define("get").
		Doc("Get value with optional default").
		Variadic().
		Impl(func(m *Map, ctx context.Context, args ...Object) (Object, error) {
			if err := RequireRange("map.get", 1, 2, args); err != nil {
				return nil, err
			}
			key, err := AsString(args[0])
			if err != nil {
				return nil, err
			}
			var def Object = Nil
			if len(args) == 2 {
				def = args[1]
			}
			return m.GetWithDefault(key, def), nil
		})

	mapMethods.Define("items").
		Doc("Get list of [key, value] pairs").
		Impl(func(m *Map, ctx context.Context, args ...Object) (Object, error) {
			return m.ListItems(), nil
		})

	mapMethods.Define("keys").
		Doc("Get sorted list of keys").
		Impl(func(m *Map, ctx context.Context, args ...Object) (Object, error) {
			return m.Keys(), nil
		})

	mapMethods.Define("pop").
		Doc("Remove key and return its value").
		Variadic().
		Impl(func(m *Map, ctx context.Context, args ...Object) (Object, error) {
			if err := RequireRange("map.pop", 1, 2, args); err != nil {
				return nil, err
			}
			key, err := AsString(args[0])
			if err != nil {
				return nil, err
			}
			var def Object = Nil
			if len(args) == 2 {
				def = args[1]
			}
			return m.Pop(key, def), nil
		})

	mapMethods.Define("set").
		Doc("Set a key to a value").
		Args("key", "value").
		Impl(func(m *Map, ctx context.Context, args ...Object) (Object, error) {
			key, err := AsString(args[0])
			if err != nil {
				return nil, err
			}
			m.Set(key, args[1])
			return m, nil
		})

	mapMethods.Define("update").
		Doc("Merge entries from another map").
		Arg("other").
		Impl(func(m *Map, ctx context.Context, args ...Object) (Object, error) {
			other, err := AsMap(args[0])
			if err != nil {
				return nil, err
			}
			m.Update(other)
			return m, nil
		})

	mapMethods.Define("values").
		Doc("Get list of values ordered by key").
		Impl(func(m *Map, ctx context.Context, args ...Object) (Object, error) {
			return m.Values(), nil
		})
}

// Map is a string-keyed dictionary.
type Map struct {
	items map[string]Object

	inspectActive bool
}

// MapMethods returns the names of the methods available on maps.
func MapMethods() []string {
	return mapMethods.Names()
}

func (m *Map) Type() Type {
	return MAP
}

func (m *Map) Inspect() string {
	if m.inspectActive {
		return "{...}"
	}
	m.inspectActive = true
	defer func() { m.inspectActive = false }()

	var out bytes.Buffer
	items := make([]string, 0, len(m.items))
	for _, k := range m.SortedKeys() {
		items = append(items, fmt.Sprintf("%q: %s", k, m.items[k].Inspect()))
	}
	out.WriteString("{")
	out.WriteString(strings.Join(items, ", "))
	out.WriteString("}")
	return out.String()
}

func (m *Map) String() string {
	return m.Inspect()
}

func (m *Map) Value() map[string]Object {
	return m.items
}

func (m *Map) SetAttr(name string, value Object) error {
	return TypeErrorf("map has no attribute %q", name)
}

// GetAttr returns map methods. Keys are read with indexing or get().
func (m *Map) GetAttr(name string) (Object, bool) {
	return mapMethods.GetAttr(m, name)
}

func (m *Map) ListItems() *List {
	items := make([]Object, 0, len(m.items))
	for _, k := range m.SortedKeys() {
		items = append(items, NewList([]Object{NewString(k), m.items[k]}))
	}
	return NewList(items)
}

func (m *Map) Clear() {
	m.items = map[string]Object{}
}

func (m *Map) Copy() *Map {
	items := make(map[string]Object, len(m.items))
	for k, v := range m.items {
		items[k] = v
	}
	return NewMap(items)
}

func (m *Map) Pop(key string, def Object) Object {
	value, found := m.items[key]
	if !found {
		return def
	}
	delete(m.items, key)
	return value
}

func (m *Map) Update(other *Map) {
	for k, v := range other.items {
		m.items[k] = v
	}
}

func (m *Map) SortedKeys() []string {
	keys := make([]string, 0, len(m.items))
	for k := range m.items {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (m *Map) Keys() *List {
	return NewStringList(m.SortedKeys())
}

func (m *Map) Values() *List {
	items := make([]Object, 0, len(m.items))
	for _, k := range m.SortedKeys() {
		items = append(items, m.items[k])
	}
	return NewList(items)
}

func (m *Map) Get(key string) Object {
	value, found := m.items[key]
	if !found {
		return Nil
	}
	return value
}

func (m *Map) GetWithDefault(key string, defaultValue Object) Object {
	value, found := m.items[key]
	if !found {
		return defaultValue
	}
	return value
}

func (m *Map) Delete(key string) Object {
	value, found := m.items[key]
	if !found {
		return Nil
	}
	delete(m.items, key)
	return value
}

func (m *Map) Set(key string, value Object) {
	m.items[key] = value
}

func (m *Map) Size() int {
	return len(m.items)
}

func (m *Map) Interface() any {
	result := make(map[string]any, len(m.items))
	for k, v := range m.items {
		result[k] = v.Interface()
	}
	return result
}

func (m *Map) Equals(other Object) bool {
	otherMap, ok := other.(*Map)
	if !ok {
		return false
	}
	if len(m.items) != len(otherMap.items) {
		return false
	}
	for k, v := range m.items {
		otherValue, found := otherMap.items[k]
		if !found || !v.Equals(otherValue) {
			return false
		}
	}
	return true
}

func (m *Map) RunOperation(opType op.BinaryOpType, right Object) (Object, error) {
	return nil, unsupportedOperation(opType, m, right)
}

func (m *Map) GetItem(key Object) (Object, error) {
	strObj, ok := key.(*String)
	if !ok {
		return nil, TypeErrorf("map key must be a string (got %s)", key.Type())
	}
	value, found := m.items[strObj.value]
	if !found {
		return nil, ValueErrorf("key not found: %q", strObj.value)
	}
	return value, nil
}

func (m *Map) GetSlice(s Slice) (Object, error) {
	return nil, TypeErrorf("slice operation is unsupported for map")
}

func (m *Map) SetItem(key, value Object) error {
	strObj, ok := key.(*String)
	if !ok {
		return TypeErrorf("map key must be a string (got %s)", key.Type())
	}
	m.items[strObj.value] = value
	return nil
}

func (m *Map) Contains(key Object) bool {
	strObj, ok := key.(*String)
	if !ok {
		return false
	}
	_, found := m.items[strObj.value]
	return found
}

func (m *Map) IsTruthy() bool {
	return len(m.items) > 0
}

func (m *Map) Len() int64 {
	return int64(len(m.items))
}

func NewMap(m map[string]Object) *Map {
	if m == nil {
		m = map[string]Object{}
	}
	return &Map{items: m}
}
