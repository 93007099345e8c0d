package object

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/deepnoodle-ai/peek/op"
)

// Proxy is a read-through view of a live Go value, such as a struct pointer
// found in a breakpoint frame. Fields are converted on access with
// FromGoType. Exported methods are exposed as builtins bound to the proxy,
// so every call is visible to the VM's call interceptor.
type Proxy struct {
	value reflect.Value
}

func newProxy(rv reflect.Value) *Proxy {
	return &Proxy{value: rv}
}

// NewProxy wraps a Go value. Nil values return Nil.
func NewProxy(v any) Object {
	rv := reflect.ValueOf(v)
	if !rv.IsValid() {
		return Nil
	}
	return newProxy(rv)
}

func (p *Proxy) Type() Type {
	return PROXY
}

// GoType returns the Go type name of the wrapped value, such as "*main.User".
func (p *Proxy) GoType() string {
	return p.value.Type().String()
}

// TypeName returns the package-qualified Go type of the wrapped value, such
// as "*net/url.URL". Unlike GoType it cannot collide between packages that
// share a name.
func (p *Proxy) TypeName() string {
	return qualifiedTypeName(p.value.Type())
}

func qualifiedTypeName(typ reflect.Type) string {
	prefix := ""
	for typ.Kind() == reflect.Pointer && typ.Name() == "" {
		prefix += "*"
		typ = typ.Elem()
	}
	if typ.Name() == "" || typ.PkgPath() == "" {
		return prefix + typ.String()
	}
	return prefix + typ.PkgPath() + "." + typ.Name()
}

// Value returns the wrapped reflect.Value.
func (p *Proxy) Value() reflect.Value {
	return p.value
}

func (p *Proxy) Interface() any {
	if p.value.CanInterface() {
		return p.value.Interface()
	}
	return nil
}

// elem dereferences pointers and interfaces. The result is invalid for a nil
// pointer.
func (p *Proxy) elem() reflect.Value {
	rv := p.value
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return reflect.Value{}
		}
		rv = rv.Elem()
	}
	return rv
}

// Fields returns the names of the wrapped struct's fields in declaration
// order, or nil if the value is not a struct.
func (p *Proxy) Fields() []string {
	rv := p.elem()
	if !rv.IsValid() || rv.Kind() != reflect.Struct {
		return nil
	}
	typ := rv.Type()
	names := make([]string, 0, typ.NumField())
	for i := 0; i < typ.NumField(); i++ {
		names = append(names, typ.Field(i).Name)
	}
	return names
}

// Field returns the named struct field converted to an object.
func (p *Proxy) Field(name string) (Object, bool) {
	rv := p.elem()
	if !rv.IsValid() || rv.Kind() != reflect.Struct {
		return nil, false
	}
	field := rv.FieldByName(name)
	if !field.IsValid() {
		return nil, false
	}
	return fromValue(field, 0), true
}

// Methods returns the sorted names of the exported methods callable on the
// wrapped value.
func (p *Proxy) Methods() []string {
	if !p.value.CanInterface() {
		return nil
	}
	typ := p.value.Type()
	names := make([]string, 0, typ.NumMethod())
	for i := 0; i < typ.NumMethod(); i++ {
		names = append(names, typ.Method(i).Name)
	}
	sort.Strings(names)
	return names
}

func (p *Proxy) GetAttr(name string) (Object, bool) {
	if p.value.CanInterface() {
		if method := p.value.MethodByName(name); method.IsValid() {
			return NewMethod(p, name, func(ctx context.Context, args ...Object) (Object, error) {
				return callMethod(name, method, args)
			}), true
		}
	}
	return p.Field(name)
}

func callMethod(name string, method reflect.Value, args []Object) (result Object, err error) {
	typ := method.Type()
	numIn := typ.NumIn()
	if typ.IsVariadic() {
		if len(args) < numIn-1 {
			return nil, TypeErrorf("%s() takes at least %d arguments (%d given)", name, numIn-1, len(args))
		}
	} else if len(args) != numIn {
		return nil, TypeErrorf("%s() takes exactly %d arguments (%d given)", name, numIn, len(args))
	}
	in := make([]reflect.Value, 0, len(args))
	for i, arg := range args {
		var target reflect.Type
		if typ.IsVariadic() && i >= numIn-1 {
			target = typ.In(numIn - 1).Elem()
		} else {
			target = typ.In(i)
		}
		value, err := ToGoValue(arg, target)
		if err != nil {
			return nil, err
		}
		in = append(in, value)
	}
	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = EvalErrorf("%s() panicked: %v", name, r)
		}
	}()
	out := method.Call(in)
	return fromResults(out)
}

func fromResults(out []reflect.Value) (Object, error) {
	if n := len(out); n > 0 && out[n-1].Type().Implements(errorInterface) {
		if errValue := out[n-1]; !isNilValue(errValue) {
			return nil, errValue.Interface().(error)
		}
		out = out[:n-1]
	}
	switch len(out) {
	case 0:
		return Nil, nil
	case 1:
		return fromValue(out[0], 0), nil
	default:
		items := make([]Object, 0, len(out))
		for _, v := range out {
			items = append(items, fromValue(v, 0))
		}
		return NewList(items), nil
	}
}

func isNilValue(rv reflect.Value) bool {
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Chan, reflect.Func:
		return rv.IsNil()
	}
	return false
}

func (p *Proxy) SetAttr(name string, value Object) error {
	return TypeErrorf("cannot set attribute %q on %s", name, p.GoType())
}

func (p *Proxy) Inspect() string {
	return inspectValue(p.value, 0)
}

func (p *Proxy) String() string {
	return p.Inspect()
}

// inspectValue formats a value from its structure alone. It never calls
// methods on the value.
func inspectValue(rv reflect.Value, depth int) string {
	if !rv.IsValid() {
		return "nil"
	}
	switch rv.Kind() {
	case reflect.Pointer:
		if rv.IsNil() {
			return "nil"
		}
		if depth > 0 {
			return fmt.Sprintf("(%s)(%#x)", rv.Type(), rv.Pointer())
		}
		return "&" + inspectValue(rv.Elem(), depth)
	case reflect.Interface:
		if rv.IsNil() {
			return "nil"
		}
		return inspectValue(rv.Elem(), depth)
	case reflect.Struct:
		if depth > 1 {
			return rv.Type().String() + "{...}"
		}
		typ := rv.Type()
		fields := make([]string, 0, typ.NumField())
		for i := 0; i < typ.NumField(); i++ {
			fields = append(fields, typ.Field(i).Name+": "+inspectValue(rv.Field(i), depth+1))
		}
		return typ.String() + "{" + strings.Join(fields, ", ") + "}"
	case reflect.String:
		return fmt.Sprintf("%q", rv.String())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return fmt.Sprintf("%d", rv.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return fmt.Sprintf("%d", rv.Uint())
	case reflect.Float32, reflect.Float64:
		return fmt.Sprintf("%g", rv.Float())
	case reflect.Bool:
		return fmt.Sprintf("%t", rv.Bool())
	case reflect.Slice, reflect.Array, reflect.Map:
		return fmt.Sprintf("%s(len=%d)", rv.Type(), rv.Len())
	default:
		return rv.Type().String()
	}
}

func (p *Proxy) Equals(other Object) bool {
	otherProxy, ok := other.(*Proxy)
	if !ok || p.value.Type() != otherProxy.value.Type() {
		return false
	}
	switch p.value.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Chan, reflect.Func, reflect.UnsafePointer:
		return p.value.Pointer() == otherProxy.value.Pointer()
	}
	if p.value.Comparable() && p.value.CanInterface() && otherProxy.value.CanInterface() {
		return p.value.Interface() == otherProxy.value.Interface()
	}
	return false
}

func (p *Proxy) IsTruthy() bool {
	return !p.value.IsZero()
}

func (p *Proxy) RunOperation(opType op.BinaryOpType, right Object) (Object, error) {
	return nil, unsupportedOperation(opType, p, right)
}

func (p *Proxy) GetItem(key Object) (Object, error) {
	rv := p.elem()
	switch rv.Kind() {
	case reflect.Map:
		k, err := ToGoValue(key, rv.Type().Key())
		if err != nil {
			return nil, err
		}
		value := rv.MapIndex(k)
		if !value.IsValid() {
			return nil, ValueErrorf("key not found: %s", key.Inspect())
		}
		return fromValue(value, 0), nil
	case reflect.Slice, reflect.Array, reflect.String:
		index, err := AsInt(key)
		if err != nil {
			return nil, err
		}
		idx, err := ResolveIndex(index, int64(rv.Len()))
		if err != nil {
			return nil, err
		}
		return fromValue(rv.Index(int(idx)), 0), nil
	default:
		return nil, TypeErrorf("%s is not indexable", p.GoType())
	}
}

func (p *Proxy) GetSlice(s Slice) (Object, error) {
	rv := p.elem()
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		start, stop, err := ResolveIntSlice(s, int64(rv.Len()))
		if err != nil {
			return nil, err
		}
		items := make([]Object, 0, stop-start)
		for i := start; i < stop; i++ {
			items = append(items, fromValue(rv.Index(int(i)), 0))
		}
		return NewList(items), nil
	default:
		return nil, TypeErrorf("%s does not support slicing", p.GoType())
	}
}

func (p *Proxy) SetItem(key, value Object) error {
	return TypeErrorf("cannot set item on %s", p.GoType())
}

func (p *Proxy) Contains(item Object) bool {
	rv := p.elem()
	switch rv.Kind() {
	case reflect.Map:
		k, err := ToGoValue(item, rv.Type().Key())
		if err != nil {
			return false
		}
		return rv.MapIndex(k).IsValid()
	case reflect.Slice, reflect.Array:
		for i := 0; i < rv.Len(); i++ {
			if fromValue(rv.Index(i), 0).Equals(item) {
				return true
			}
		}
	}
	return false
}

func (p *Proxy) Len() int64 {
	rv := p.elem()
	switch rv.Kind() {
	case reflect.Map, reflect.Slice, reflect.Array, reflect.String, reflect.Chan:
		return int64(rv.Len())
	default:
		return 0
	}
}
