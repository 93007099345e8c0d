package object

import (
	"context"
	"math"
	"strconv"

	"github.com/deepnoodle-ai/peek/op"
)

var intMethods = NewMethodRegistry[*Int]("int")

func init() {
	intMethods.Define("abs").
		Doc("Absolute value").
		Impl(func(i *Int, ctx context.Context, args ...Object) (Object, error) {
			if i.value < 0 {
				return NewInt(-i.value), nil
			}
			return i, nil
		})

	intMethods.Define("to_float").
		Doc("Convert to float").
		Impl(func(i *Int, ctx context.Context, args ...Object) (Object, error) {
			return NewFloat(float64(i.value)), nil
		})

	intMethods.Define("to_string").
		Doc("Convert to string").
		Impl(func(i *Int, ctx context.Context, args ...Object) (Object, error) {
			return NewString(strconv.FormatInt(i.value, 10)), nil
		})
}

// Int wraps int64 and implements Object and Comparable.
type Int struct {
	value int64
}

func (i *Int) GetAttr(name string) (Object, bool) {
	return intMethods.GetAttr(i, name)
}

func (i *Int) SetAttr(name string, value Object) error {
	return TypeErrorf("int has no attribute %q", name)
}

func (i *Int) Type() Type {
	return INT
}

func (i *Int) Value() int64 {
	return i.value
}

func (i *Int) Inspect() string {
	return strconv.FormatInt(i.value, 10)
}

func (i *Int) String() string {
	return i.Inspect()
}

func (i *Int) Interface() any {
	return i.value
}

func (i *Int) Compare(other Object) (int, error) {
	switch other := other.(type) {
	case *Int:
		return cmpInt(i.value, other.value), nil
	case *Float:
		return cmpFloat(float64(i.value), other.value), nil
	default:
		return 0, TypeErrorf("unable to compare int and %s", other.Type())
	}
}

func (i *Int) Equals(other Object) bool {
	switch other := other.(type) {
	case *Int:
		return i.value == other.value
	case *Float:
		return float64(i.value) == other.value
	default:
		return false
	}
}

func (i *Int) IsTruthy() bool {
	return i.value != 0
}

func (i *Int) RunOperation(opType op.BinaryOpType, right Object) (Object, error) {
	switch right := right.(type) {
	case *Int:
		return i.runOperationInt(opType, right.value)
	case *Float:
		return NewFloat(float64(i.value)).runOperationFloat(opType, right.value)
	default:
		return nil, unsupportedOperation(opType, i, right)
	}
}

func (i *Int) runOperationInt(opType op.BinaryOpType, right int64) (Object, error) {
	switch opType {
	case op.Add:
		return NewInt(i.value + right), nil
	case op.Subtract:
		return NewInt(i.value - right), nil
	case op.Multiply:
		return NewInt(i.value * right), nil
	case op.Divide:
		if right == 0 {
			return nil, ValueErrorf("division by zero")
		}
		return NewInt(i.value / right), nil
	case op.Modulo:
		if right == 0 {
			return nil, ValueErrorf("division by zero")
		}
		return NewInt(i.value % right), nil
	case op.Power:
		if right < 0 {
			return NewFloat(math.Pow(float64(i.value), float64(right))), nil
		}
		return NewInt(powInt(i.value, right)), nil
	default:
		return nil, TypeErrorf("unsupported operation for int: %v", opType)
	}
}

func powInt(base, exp int64) int64 {
	result := int64(1)
	for exp > 0 {
		if exp&1 == 1 {
			result *= base
		}
		base *= base
		exp >>= 1
	}
	return result
}

func cmpInt(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func (i *Int) Negate() Object {
	return NewInt(-i.value)
}

// Small integers are cached.
var smallInts = func() []*Int {
	ints := make([]*Int, 256+1)
	for i := range ints {
		ints[i] = &Int{value: int64(i - 1)}
	}
	return ints
}()

// NewInt returns an Int, reusing a cached object for values in [-1, 255].
func NewInt(value int64) *Int {
	if value >= -1 && value < 256 {
		return smallInts[value+1]
	}
	return &Int{value: value}
}
