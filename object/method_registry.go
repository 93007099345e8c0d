package object

import (
	"context"
	"fmt"
	"slices"
	"sort"
)

// MethodSpec describes a method available on an object type.
type MethodSpec struct {
	Name string
	Doc  string
	Args []string
}

// MethodDef combines a method's specification with its implementation.
type MethodDef[T Object] struct {
	Spec     MethodSpec
	Impl     func(self T, ctx context.Context, args ...Object) (Object, error)
	variadic bool
}

// MethodRegistry holds all methods for a given object type.
type MethodRegistry[T Object] struct {
	typeName string
	methods  map[string]MethodDef[T]
	specs    []MethodSpec
}

// MethodBuilder provides a fluent API for defining a single method.
type MethodBuilder[T Object] struct {
	registry *MethodRegistry[T]
	name     string
	doc      string
	args     []string
	variadic bool
}

// NewMethodRegistry creates a registry for the given type name.
func NewMethodRegistry[T Object](typeName string) *MethodRegistry[T] {
	return &MethodRegistry[T]{
		typeName: typeName,
		methods:  make(map[string]MethodDef[T]),
	}
}

// Define starts building a new method definition.
func (r *MethodRegistry[T]) Define(name string) *MethodBuilder[T] {
	return &MethodBuilder[T]{registry: r, name: name}
}

// Specs returns the registered method specifications sorted by name.
func (r *MethodRegistry[T]) Specs() []MethodSpec {
	specs := slices.Clone(r.specs)
	sort.Slice(specs, func(i, j int) bool { return specs[i].Name < specs[j].Name })
	return specs
}

// Names returns the sorted method names.
func (r *MethodRegistry[T]) Names() []string {
	names := make([]string, 0, len(r.methods))
	for name := range r.methods {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// GetAttr returns a Builtin for the named method bound to self.
func (r *MethodRegistry[T]) GetAttr(self T, name string) (Object, bool) {
	m, ok := r.methods[name]
	if !ok {
		return nil, false
	}
	expectedArgs := len(m.Spec.Args)
	fullName := r.typeName + "." + name
	return NewMethod(self, name, func(ctx context.Context, args ...Object) (Object, error) {
		if !m.variadic && len(args) != expectedArgs {
			return nil, argsError(fullName, expectedArgs, len(args))
		}
		return m.Impl(self, ctx, args...)
	}), true
}

// Doc sets the method's documentation string.
func (b *MethodBuilder[T]) Doc(doc string) *MethodBuilder[T] {
	b.doc = doc
	return b
}

// Arg adds a required argument by name.
func (b *MethodBuilder[T]) Arg(name string) *MethodBuilder[T] {
	b.args = append(b.args, name)
	return b
}

// Args adds multiple required arguments.
func (b *MethodBuilder[T]) Args(names ...string) *MethodBuilder[T] {
	b.args = append(b.args, names...)
	return b
}

// Variadic disables the argument count check; the implementation validates
// its own arguments.
func (b *MethodBuilder[T]) Variadic() *MethodBuilder[T] {
	b.variadic = true
	return b
}

// Impl sets the implementation and registers the method.
// Panics if a method with the same name is already registered.
func (b *MethodBuilder[T]) Impl(fn func(T, context.Context, ...Object) (Object, error)) {
	r := b.registry
	if _, exists := r.methods[b.name]; exists {
		panic(fmt.Sprintf("%s: method %q already registered", r.typeName, b.name))
	}
	spec := MethodSpec{Name: b.name, Doc: b.doc, Args: b.args}
	r.methods[b.name] = MethodDef[T]{Spec: spec, Impl: fn, variadic: b.variadic}
	r.specs = append(r.specs, spec)
}

// argsError returns a grammatically correct argument count error.
func argsError(methodName string, expected, got int) error {
	if expected == 1 {
		return TypeErrorf("%s: expected 1 argument, got %d", methodName, got)
	}
	return TypeErrorf("%s: expected %d arguments, got %d", methodName, expected, got)
}
