package object

import (
	"bytes"
	"context"
	"strings"

	"github.com/deepnoodle-ai/peek/op"
)

var listMethods = NewMethodRegistry[*List]("list")

func init() {
	listMethods.Define("append").
		Doc("Add item to end of list").
		Arg("item").
		Impl(func(ls *List, ctx context.Context, args ...Object) (Object, error) {
			ls.Append(args[0])
			return ls, nil
		})

	listMethods.Define("clear").
		Doc("Remove all items").
		Impl(func(ls *List, ctx context.Context, args ...Object) (Object, error) {
			ls.Clear()
			return ls, nil
		})

	listMethods.Define("copy").
		Doc("Create a shallow copy").
		Impl(func(ls *List, ctx context.Context, args ...Object) (Object, error) {
			return ls.Copy(), nil
		})

	listMethods.Define("count").
		Doc("Count occurrences of item").
		Arg("item").
		Impl(func(ls *List, ctx context.Context, args ...Object) (Object, error) {
			return NewInt(ls.Count(args[0])), nil
		})

	listMethods.Define("each").
		Doc("Call function for each item").
		Arg("fn").
		Impl(func(ls *List, ctx context.Context, args ...Object) (Object, error) {
			return ls.Each(ctx, args[0])
		})

	listMethods.Define("extend").
		Doc("Add all items from another list").
		Arg("items").
		Impl(func(ls *List, ctx context.Context, args ...Object) (Object, error) {
			other, err := AsList(args[0])
			if err != nil {
				return nil, err
			}
			ls.Extend(other)
			return ls, nil
		})

	listMethods.Define("filter").
		Doc("Keep items where fn returns true").
		Arg("fn").
		Impl(func(ls *List, ctx context.Context, args ...Object) (Object, error) {
			return ls.Filter(ctx, args[0])
		})

	listMethods.Define("index").
		Doc("Find first index of item (-1 if not found)").
		Arg("item").
		Impl(func(ls *List, ctx context.Context, args ...Object) (Object, error) {
			return NewInt(ls.Index(args[0])), nil
		})

	listMethods.Define("insert").
		Doc("Insert item at index").
		Args("index", "item").
		Impl(func(ls *List, ctx context.Context, args ...Object) (Object, error) {
			index, err := AsInt(args[0])
			if err != nil {
				return nil, err
			}
			ls.Insert(index, args[1])
			return ls, nil
		})

	listMethods.Define("map").
		Doc("Transform each item with fn").
		Arg("fn").
		Impl(func(ls *List, ctx context.Context, args ...Object) (Object, error) {
			return ls.Map(ctx, args[0])
		})

	listMethods.Define("pop").
		Doc("Remove and return item at index").
		Arg("index").
		Impl(func(ls *List, ctx context.Context, args ...Object) (Object, error) {
			index, err := AsInt(args[0])
			if err != nil {
				return nil, err
			}
			return ls.Pop(index)
		})

	listMethods.Define("reduce").
		Doc("Reduce list to single value").
		Args("initial", "fn").
		Impl(func(ls *List, ctx context.Context, args ...Object) (Object, error) {
			return ls.Reduce(ctx, args[0], args[1])
		})

	listMethods.Define("remove").
		Doc("Remove first occurrence of item").
		Arg("item").
		Impl(func(ls *List, ctx context.Context, args ...Object) (Object, error) {
			ls.Remove(args[0])
			return ls, nil
		})

	listMethods.Define("reverse").
		Doc("Return a reversed copy").
		Impl(func(ls *List, ctx context.Context, args ...Object) (Object, error) {
			return ls.Reversed(), nil
		})

	listMethods.Define("sort").
		Doc("Return a sorted copy").
		Impl(func(ls *List, ctx context.Context, args ...Object) (Object, error) {
			sorted := ls.Copy()
			if err := Sort(sorted.items); err != nil {
				return nil, err
			}
			return sorted, nil
		})
}

// List of objects
type List struct {
	items []Object

	// Guards against infinite recursion when a list contains itself.
	inspectActive bool
}

// ListMethods returns the names of the methods available on lists.
func ListMethods() []string {
	return listMethods.Names()
}

func (ls *List) GetAttr(name string) (Object, bool) {
	return listMethods.GetAttr(ls, name)
}

func (ls *List) SetAttr(name string, value Object) error {
	return TypeErrorf("list has no attribute %q", name)
}

func (ls *List) Type() Type {
	return LIST
}

func (ls *List) Value() []Object {
	return ls.items
}

func (ls *List) Inspect() string {
	if ls.inspectActive {
		return "[...]"
	}
	ls.inspectActive = true
	defer func() { ls.inspectActive = false }()

	var out bytes.Buffer
	items := make([]string, 0, len(ls.items))
	for _, e := range ls.items {
		items = append(items, e.Inspect())
	}
	out.WriteString("[")
	out.WriteString(strings.Join(items, ", "))
	out.WriteString("]")
	return out.String()
}

func callableArg(method string, fn Object) error {
	switch fn.(type) {
	case Callable:
		return nil
	default:
		return TypeErrorf("%s() expected a function (%s given)", method, fn.Type())
	}
}

func (ls *List) Map(ctx context.Context, fn Object) (Object, error) {
	if err := callableArg("list.map", fn); err != nil {
		return nil, err
	}
	// Closures with two parameters receive (index, value)
	var passIndex bool
	if closure, ok := fn.(*Closure); ok {
		count := closure.ParameterCount()
		if count < 1 || count > 2 {
			return nil, TypeErrorf("list.map() received an incompatible function")
		}
		passIndex = count == 2
	}
	result := make([]Object, 0, len(ls.items))
	for i, value := range ls.items {
		var outputValue Object
		var err error
		if passIndex {
			outputValue, err = Invoke(ctx, fn, NewInt(int64(i)), value)
		} else {
			outputValue, err = Invoke(ctx, fn, value)
		}
		if err != nil {
			return nil, err
		}
		result = append(result, outputValue)
	}
	return NewList(result), nil
}

func (ls *List) Filter(ctx context.Context, fn Object) (Object, error) {
	if err := callableArg("list.filter", fn); err != nil {
		return nil, err
	}
	result := []Object{}
	for _, value := range ls.items {
		decision, err := Invoke(ctx, fn, value)
		if err != nil {
			return nil, err
		}
		if decision.IsTruthy() {
			result = append(result, value)
		}
	}
	return NewList(result), nil
}

func (ls *List) Each(ctx context.Context, fn Object) (Object, error) {
	if err := callableArg("list.each", fn); err != nil {
		return nil, err
	}
	for _, value := range ls.items {
		if _, err := Invoke(ctx, fn, value); err != nil {
			return nil, err
		}
	}
	return Nil, nil
}

func (ls *List) Reduce(ctx context.Context, initial Object, fn Object) (Object, error) {
	if err := callableArg("list.reduce", fn); err != nil {
		return nil, err
	}
	accumulator := initial
	for _, value := range ls.items {
		result, err := Invoke(ctx, fn, accumulator, value)
		if err != nil {
			return nil, err
		}
		accumulator = result
	}
	return accumulator, nil
}

// Append adds an item at the end of the list.
func (ls *List) Append(obj Object) {
	ls.items = append(ls.items, obj)
}

// Clear removes all the items from the list.
func (ls *List) Clear() {
	ls.items = []Object{}
}

// Copy returns a shallow copy of the list.
func (ls *List) Copy() *List {
	result := &List{items: make([]Object, len(ls.items))}
	copy(result.items, ls.items)
	return result
}

// Count returns the number of items with the specified value.
func (ls *List) Count(obj Object) int64 {
	var count int64
	for _, item := range ls.items {
		if obj.Equals(item) {
			count++
		}
	}
	return count
}

// Extend adds the items of another list to the end of this list.
func (ls *List) Extend(other *List) {
	ls.items = append(ls.items, other.items...)
}

// Index returns the index of the first item with the specified value, or -1.
func (ls *List) Index(obj Object) int64 {
	for i, item := range ls.items {
		if obj.Equals(item) {
			return int64(i)
		}
	}
	return -1
}

// Insert adds an item at the given position. Out of range positions are
// clamped to the ends of the list.
func (ls *List) Insert(index int64, obj Object) {
	size := int64(len(ls.items))
	if index < 0 {
		index = size + index
		if index < 0 {
			index = 0
		}
	}
	if index >= size {
		ls.items = append(ls.items, obj)
		return
	}
	ls.items = append(ls.items, nil)
	copy(ls.items[index+1:], ls.items[index:])
	ls.items[index] = obj
}

// Pop removes the item at the given position and returns it.
func (ls *List) Pop(index int64) (Object, error) {
	idx, err := ResolveIndex(index, int64(len(ls.items)))
	if err != nil {
		return nil, err
	}
	result := ls.items[idx]
	ls.items = append(ls.items[:idx], ls.items[idx+1:]...)
	return result, nil
}

// Remove removes the first item with the specified value.
func (ls *List) Remove(obj Object) {
	if idx := ls.Index(obj); idx >= 0 {
		ls.items = append(ls.items[:idx], ls.items[idx+1:]...)
	}
}

// Reversed returns a new list with the items in reverse order.
func (ls *List) Reversed() *List {
	result := &List{items: make([]Object, len(ls.items))}
	for i, item := range ls.items {
		result.items[len(ls.items)-1-i] = item
	}
	return result
}

func (ls *List) Interface() any {
	items := make([]any, 0, len(ls.items))
	for _, item := range ls.items {
		items = append(items, item.Interface())
	}
	return items
}

func (ls *List) String() string {
	return ls.Inspect()
}

func (ls *List) Compare(other Object) (int, error) {
	otherList, ok := other.(*List)
	if !ok {
		return 0, TypeErrorf("unable to compare list and %s", other.Type())
	}
	for i := 0; i < len(ls.items) && i < len(otherList.items); i++ {
		comparable, ok := ls.items[i].(Comparable)
		if !ok {
			return 0, TypeErrorf("%s object is not comparable", ls.items[i].Type())
		}
		comp, err := comparable.Compare(otherList.items[i])
		if err != nil {
			return 0, err
		}
		if comp != 0 {
			return comp, nil
		}
	}
	return cmpInt(int64(len(ls.items)), int64(len(otherList.items))), nil
}

func (ls *List) Equals(other Object) bool {
	otherList, ok := other.(*List)
	if !ok {
		return false
	}
	if len(ls.items) != len(otherList.items) {
		return false
	}
	for i, v := range ls.items {
		if !v.Equals(otherList.items[i]) {
			return false
		}
	}
	return true
}

func (ls *List) IsTruthy() bool {
	return len(ls.items) > 0
}

func (ls *List) GetItem(key Object) (Object, error) {
	indexObj, ok := key.(*Int)
	if !ok {
		return nil, TypeErrorf("list index must be an int (got %s)", key.Type())
	}
	idx, err := ResolveIndex(indexObj.value, int64(len(ls.items)))
	if err != nil {
		return nil, err
	}
	return ls.items[idx], nil
}

func (ls *List) GetSlice(s Slice) (Object, error) {
	start, stop, err := ResolveIntSlice(s, int64(len(ls.items)))
	if err != nil {
		return nil, err
	}
	items := make([]Object, stop-start)
	copy(items, ls.items[start:stop])
	return NewList(items), nil
}

func (ls *List) SetItem(key, value Object) error {
	indexObj, ok := key.(*Int)
	if !ok {
		return TypeErrorf("list index must be an int (got %s)", key.Type())
	}
	idx, err := ResolveIndex(indexObj.value, int64(len(ls.items)))
	if err != nil {
		return err
	}
	ls.items[idx] = value
	return nil
}

func (ls *List) Contains(item Object) bool {
	for _, v := range ls.items {
		if v.Equals(item) {
			return true
		}
	}
	return false
}

func (ls *List) Len() int64 {
	return int64(len(ls.items))
}

func (ls *List) RunOperation(opType op.BinaryOpType, right Object) (Object, error) {
	switch right := right.(type) {
	case *List:
		if opType == op.Add {
			combined := make([]Object, 0, len(ls.items)+len(right.items))
			combined = append(combined, ls.items...)
			combined = append(combined, right.items...)
			return NewList(combined), nil
		}
	case *Int:
		if opType == op.Multiply && right.value >= 0 {
			if len(ls.items) == 0 {
				return NewList(nil), nil
			}
			if err := checkRepeat(len(ls.items), right.value, MaxRepeatItems); err != nil {
				return nil, err
			}
			combined := make([]Object, 0, len(ls.items)*int(right.value))
			for i := int64(0); i < right.value; i++ {
				combined = append(combined, ls.items...)
			}
			return NewList(combined), nil
		}
	}
	return nil, unsupportedOperation(opType, ls, right)
}

func NewList(items []Object) *List {
	if items == nil {
		items = []Object{}
	}
	return &List{items: items}
}

func NewStringList(s []string) *List {
	items := make([]Object, 0, len(s))
	for _, v := range s {
		items = append(items, NewString(v))
	}
	return &List{items: items}
}
