package object

import (
	"context"
	"math"
	"strconv"

	"github.com/deepnoodle-ai/peek/op"
)

var floatMethods = NewMethodRegistry[*Float]("float")

func init() {
	floatMethods.Define("abs").
		Doc("Absolute value").
		Impl(func(f *Float, ctx context.Context, args ...Object) (Object, error) {
			return NewFloat(math.Abs(f.value)), nil
		})

	floatMethods.Define("round").
		Doc("Round to the nearest integer").
		Impl(func(f *Float, ctx context.Context, args ...Object) (Object, error) {
			return NewFloat(math.Round(f.value)), nil
		})

	floatMethods.Define("to_int").
		Doc("Truncate to int").
		Impl(func(f *Float, ctx context.Context, args ...Object) (Object, error) {
			return NewInt(int64(f.value)), nil
		})
}

// Float wraps float64 and implements Object and Comparable.
type Float struct {
	value float64
}

func (f *Float) GetAttr(name string) (Object, bool) {
	return floatMethods.GetAttr(f, name)
}

func (f *Float) SetAttr(name string, value Object) error {
	return TypeErrorf("float has no attribute %q", name)
}

func (f *Float) Inspect() string {
	return strconv.FormatFloat(f.value, 'g', -1, 64)
}

func (f *Float) Type() Type {
	return FLOAT
}

func (f *Float) Value() float64 {
	return f.value
}

func (f *Float) Interface() any {
	return f.value
}

func (f *Float) String() string {
	return f.Inspect()
}

func (f *Float) Compare(other Object) (int, error) {
	switch other := other.(type) {
	case *Float:
		return cmpFloat(f.value, other.value), nil
	case *Int:
		return cmpFloat(f.value, float64(other.value)), nil
	default:
		return 0, TypeErrorf("unable to compare float and %s", other.Type())
	}
}

func cmpFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func (f *Float) Equals(other Object) bool {
	switch other := other.(type) {
	case *Float:
		return f.value == other.value
	case *Int:
		return f.value == float64(other.value)
	default:
		return false
	}
}

func (f *Float) IsTruthy() bool {
	return f.value != 0.0
}

func (f *Float) RunOperation(opType op.BinaryOpType, right Object) (Object, error) {
	switch right := right.(type) {
	case *Int:
		return f.runOperationFloat(opType, float64(right.value))
	case *Float:
		return f.runOperationFloat(opType, right.value)
	default:
		return nil, unsupportedOperation(opType, f, right)
	}
}

func (f *Float) runOperationFloat(opType op.BinaryOpType, right float64) (Object, error) {
	switch opType {
	case op.Add:
		return NewFloat(f.value + right), nil
	case op.Subtract:
		return NewFloat(f.value - right), nil
	case op.Multiply:
		return NewFloat(f.value * right), nil
	case op.Divide:
		return NewFloat(f.value / right), nil
	case op.Modulo:
		return NewFloat(math.Mod(f.value, right)), nil
	case op.Power:
		return NewFloat(math.Pow(f.value, right)), nil
	default:
		return nil, TypeErrorf("unsupported operation for float: %v", opType)
	}
}

func (f *Float) Negate() Object {
	return NewFloat(-f.value)
}

func NewFloat(value float64) *Float {
	return &Float{value: value}
}
