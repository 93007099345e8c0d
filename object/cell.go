package object

import (
	"fmt"

	"github.com/deepnoodle-ai/peek/op"
)

// Cell holds a reference to a variable slot captured by a closure.
type Cell struct {
	value *Object
}

func (c *Cell) GetAttr(name string) (Object, bool) {
	return nil, false
}

func (c *Cell) SetAttr(name string, value Object) error {
	return TypeErrorf("cell has no attribute %q", name)
}

func (c *Cell) IsTruthy() bool {
	return true
}

func (c *Cell) Inspect() string {
	return c.String()
}

func (c *Cell) String() string {
	if c.value == nil || *c.value == nil {
		return "cell()"
	}
	return fmt.Sprintf("cell(%s)", (*c.value).Inspect())
}

func (c *Cell) Value() Object {
	if c.value == nil || *c.value == nil {
		return Nil
	}
	return *c.value
}

func (c *Cell) Set(value Object) {
	if c.value == nil {
		return
	}
	*c.value = value
}

func (c *Cell) Type() Type {
	return CELL
}

func (c *Cell) Interface() any {
	return c.Value().Interface()
}

func (c *Cell) Equals(other Object) bool {
	otherCell, ok := other.(*Cell)
	return ok && c == otherCell
}

func (c *Cell) RunOperation(opType op.BinaryOpType, right Object) (Object, error) {
	return nil, unsupportedOperation(opType, c, right)
}

func NewCell(value *Object) *Cell {
	return &Cell{value: value}
}
