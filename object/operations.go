package object

import (
	"github.com/deepnoodle-ai/peek/op"
)

// Limits on values built by repetition. Larger results fail with a value
// error before any memory is allocated.
const (
	MaxRepeatBytes = 1 << 24
	MaxRepeatItems = 1 << 20
)

// checkRepeat reports an error if repeating unit elements count times would
// produce more than limit elements.
func checkRepeat(unit int, count int64, limit int) error {
	if unit > 0 && count > int64(limit/unit) {
		return ValueErrorf("repeat result exceeds %d elements (%d x %d)", limit, unit, count)
	}
	return nil
}

// Compare two objects using the given comparison operator. An error is
// returned if the objects are not comparable.
func Compare(opType op.CompareOpType, a, b Object) (Object, error) {
	switch opType {
	case op.Equal:
		return NewBool(a.Equals(b)), nil
	case op.NotEqual:
		return NewBool(!a.Equals(b)), nil
	}

	comparable, ok := a.(Comparable)
	if !ok {
		return nil, TypeErrorf("expected a comparable object (got %s)", a.Type())
	}
	value, err := comparable.Compare(b)
	if err != nil {
		return nil, err
	}

	switch opType {
	case op.LessThan:
		return NewBool(value < 0), nil
	case op.LessThanOrEqual:
		return NewBool(value <= 0), nil
	case op.GreaterThan:
		return NewBool(value > 0), nil
	case op.GreaterThanOrEqual:
		return NewBool(value >= 0), nil
	default:
		return nil, EvalErrorf("unknown comparison operator: %d", opType)
	}
}

// BinaryOp performs a binary operation on two objects.
func BinaryOp(opType op.BinaryOpType, a, b Object) (Object, error) {
	return a.RunOperation(opType, b)
}

// Negate returns the arithmetic negation of a number.
func Negate(obj Object) (Object, error) {
	switch obj := obj.(type) {
	case *Int:
		return obj.Negate(), nil
	case *Float:
		return obj.Negate(), nil
	default:
		return nil, TypeErrorf("bad operand type for unary -: %s", obj.Type())
	}
}

// InplaceOp applies a compound assignment. Lists are extended in place by
// "+="; every other combination falls back to BinaryOp.
func InplaceOp(opType op.BinaryOpType, a, b Object) (Object, error) {
	if list, ok := a.(*List); ok && opType == op.Add {
		other, ok := b.(*List)
		if !ok {
			return nil, unsupportedOperation(opType, a, b)
		}
		list.Extend(other)
		return list, nil
	}
	return BinaryOp(opType, a, b)
}
