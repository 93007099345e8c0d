package object

import (
	"context"
	"strings"

	"github.com/deepnoodle-ai/peek/bytecode"
	"github.com/deepnoodle-ai/peek/op"
)

// Instance is a value of a struct type declared by a program.
type Instance struct {
	name   string
	fields []string
	values map[string]Object
}

// NewStructClass returns a class whose constructor builds instances of the
// struct. Positional arguments fill fields in declaration order; missing
// fields are nil.
func NewStructClass(def *bytecode.StructDef) *Class {
	fields := make([]string, def.FieldCount())
	for i := range fields {
		fields[i] = def.Field(i)
	}
	name := def.Name()
	return NewClass(name, WithConstructor(func(ctx context.Context, args ...Object) (Object, error) {
		if len(args) > len(fields) {
			return nil, TypeErrorf("%s takes at most %d arguments (%d given)", name, len(fields), len(args))
		}
		values := make(map[string]Object, len(fields))
		for i, field := range fields {
			if i < len(args) {
				values[field] = args[i]
			} else {
				values[field] = Nil
			}
		}
		return &Instance{name: name, fields: fields, values: values}, nil
	}))
}

func (i *Instance) Type() Type {
	return INSTANCE
}

// Name returns the struct type name.
func (i *Instance) Name() string {
	return i.name
}

func (i *Instance) Inspect() string {
	parts := make([]string, 0, len(i.fields))
	for _, field := range i.fields {
		parts = append(parts, field+": "+i.values[field].Inspect())
	}
	return i.name + "{" + strings.Join(parts, ", ") + "}"
}

func (i *Instance) String() string {
	return i.Inspect()
}

func (i *Instance) Interface() any {
	result := make(map[string]any, len(i.values))
	for k, v := range i.values {
		result[k] = v.Interface()
	}
	return result
}

func (i *Instance) GetAttr(name string) (Object, bool) {
	value, ok := i.values[name]
	return value, ok
}

func (i *Instance) SetAttr(name string, value Object) error {
	if _, ok := i.values[name]; !ok {
		return TypeErrorf("%s has no field %q", i.name, name)
	}
	i.values[name] = value
	return nil
}

func (i *Instance) Equals(other Object) bool {
	otherInstance, ok := other.(*Instance)
	if !ok || otherInstance.name != i.name {
		return false
	}
	for k, v := range i.values {
		if !v.Equals(otherInstance.values[k]) {
			return false
		}
	}
	return true
}

func (i *Instance) IsTruthy() bool {
	return true
}

func (i *Instance) RunOperation(opType op.BinaryOpType, right Object) (Object, error) {
	return nil, unsupportedOperation(opType, i, right)
}
