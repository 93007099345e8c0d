// Package object provides the runtime value types of the expression language.
//
// Values form a closed set of variants. The Type() method of each object
// returns the variant tag, such as "string" or "list", which is also the key
// used by the sandbox call policy.
//
//	switch obj := obj.(type) {
//	case *object.String:
//		// do something with obj.Value()
//	case *object.Int:
//		// do something with obj.Value()
//	}
package object

import (
	"context"
	"sort"

	"github.com/deepnoodle-ai/peek/op"
)

// Type of an object as a string.
type Type string

// Type constants
const (
	BOOL     Type = "bool"
	BUILTIN  Type = "builtin"
	CELL     Type = "cell"
	CLASS    Type = "class"
	ERROR    Type = "error"
	FLOAT    Type = "float"
	FUNCTION Type = "function"
	INSTANCE Type = "instance"
	INT      Type = "int"
	LIST     Type = "list"
	MAP      Type = "map"
	MODULE   Type = "module"
	NIL      Type = "nil"
	PROXY    Type = "proxy"
	REGEXP   Type = "regexp"
	STRING   Type = "string"
	TIME     Type = "time"
)

var (
	Nil   = &NilType{}
	True  = &Bool{value: true}
	False = &Bool{value: false}
)

// Object is the interface that all object types must implement.
type Object interface {
	// Type of the object.
	Type() Type

	// Inspect returns a string representation of the given object.
	Inspect() string

	// Interface converts the given object to a native Go value.
	Interface() any

	// Returns true if the given object is equal to this object.
	Equals(other Object) bool

	// GetAttr returns the attribute with the given name from this object.
	GetAttr(name string) (Object, bool)

	// SetAttr sets the attribute with the given name on this object.
	SetAttr(name string, value Object) error

	// IsTruthy returns true if the object is considered "truthy".
	IsTruthy() bool

	// RunOperation runs an operation on this object with the given
	// right-hand side object.
	RunOperation(opType op.BinaryOpType, right Object) (Object, error)
}

// Slice is used to specify a range or slice of items in a container.
type Slice struct {
	Start Object
	Stop  Object
}

// Container is implemented by objects that support indexing.
type Container interface {
	// GetItem implements the [key] operator for a container type.
	GetItem(key Object) (Object, error)

	// GetSlice implements the [start:stop] operator for a container type.
	GetSlice(s Slice) (Object, error)

	// SetItem implements the [key] = value operator for a container type.
	SetItem(key, value Object) error

	// Contains returns true if the given item is found in this container.
	Contains(item Object) bool

	// Len returns the number of items in this container.
	Len() int64
}

// Callable is an interface for objects that can be invoked as functions.
type Callable interface {
	Call(ctx context.Context, args ...Object) (Object, error)
}

// Comparable is an interface used to compare two objects.
//
//	-1 if this < other
//	 0 if this == other
//	 1 if this > other
type Comparable interface {
	Compare(other Object) (int, error)
}

// Receiver is implemented by type objects (classes and modules). Calls on a
// receiver are class-level calls.
type Receiver interface {
	Object
	ReceiverName() string
}

// Keys returns the keys of an object map as a sorted slice of strings.
func Keys(m map[string]Object) []string {
	names := make([]string, 0, len(m))
	for k := range m {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Equals reports whether two objects are equal, treating Go nil as Nil.
func Equals(a, b Object) bool {
	if a == nil {
		a = Nil
	}
	if b == nil {
		b = Nil
	}
	return a.Equals(b)
}

// FormatArg returns the Go value fmt should format for obj. Live Go values
// and containers that may hold them are passed as their Inspect text so fmt
// never calls methods on values owned by the inspected process.
func FormatArg(obj Object) any {
	switch obj := obj.(type) {
	case *Int, *Float, *String, *Bool, *Time, *Error:
		return obj.Interface()
	case *NilType:
		return nil
	default:
		return obj.Inspect()
	}
}

// PrintableValue returns the text used when an object is printed or
// substituted into a message: strings are used raw, everything else is
// inspected.
func PrintableValue(obj Object) string {
	switch obj := obj.(type) {
	case nil:
		return "nil"
	case *String:
		return obj.value
	case *Error:
		return obj.err.Error()
	default:
		return obj.Inspect()
	}
}
