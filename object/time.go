package object

import (
	"context"
	"time"

	"github.com/deepnoodle-ai/peek/op"
)

var timeMethods = NewMethodRegistry[*Time]("time")

func init() {
	timeMethods.Define("add_date").
		Doc("Add years, months, and days").
		Args("years", "months", "days").
		Impl((*Time).AddDate)

	timeMethods.Define("after").
		Doc("Check if this time is after another").
		Arg("other").
		Impl((*Time).After)

	timeMethods.Define("before").
		Doc("Check if this time is before another").
		Arg("other").
		Impl((*Time).Before)

	timeMethods.Define("format").
		Doc("Format time using layout string").
		Arg("layout").
		Impl((*Time).Format)

	timeMethods.Define("unix").
		Doc("Get Unix timestamp (seconds)").
		Impl((*Time).Unix)

	timeMethods.Define("utc").
		Doc("Convert to UTC timezone").
		Impl((*Time).UTC)

	for name, part := range map[string]func(time.Time) int{
		"year":   time.Time.Year,
		"month":  func(t time.Time) int { return int(t.Month()) },
		"day":    time.Time.Day,
		"hour":   time.Time.Hour,
		"minute": time.Time.Minute,
		"second": time.Time.Second,
	} {
		part := part
		timeMethods.Define(name).
			Doc("Get the " + name + " component").
			Impl(func(t *Time, ctx context.Context, args ...Object) (Object, error) {
				return NewInt(int64(part(t.value))), nil
			})
	}
}

type Time struct {
	value time.Time
}

// TimeMethods returns the names of the methods available on times.
func TimeMethods() []string {
	return timeMethods.Names()
}

func (t *Time) GetAttr(name string) (Object, bool) {
	return timeMethods.GetAttr(t, name)
}

func (t *Time) SetAttr(name string, value Object) error {
	return TypeErrorf("time has no attribute %q", name)
}

func (t *Time) Type() Type {
	return TIME
}

func (t *Time) Value() time.Time {
	return t.value
}

func (t *Time) Inspect() string {
	return t.value.Format(time.RFC3339)
}

func (t *Time) Interface() any {
	return t.value
}

func (t *Time) String() string {
	return t.Inspect()
}

func (t *Time) Compare(other Object) (int, error) {
	otherTime, ok := other.(*Time)
	if !ok {
		return 0, TypeErrorf("unable to compare time and %s", other.Type())
	}
	return t.value.Compare(otherTime.value), nil
}

func (t *Time) Equals(other Object) bool {
	otherTime, ok := other.(*Time)
	return ok && t.value.Equal(otherTime.value)
}

func (t *Time) IsTruthy() bool {
	return !t.value.IsZero()
}

func (t *Time) RunOperation(opType op.BinaryOpType, right Object) (Object, error) {
	return nil, unsupportedOperation(opType, t, right)
}

func (t *Time) AddDate(ctx context.Context, args ...Object) (Object, error) {
	years, err := AsInt(args[0])
	if err != nil {
		return nil, err
	}
	months, err := AsInt(args[1])
	if err != nil {
		return nil, err
	}
	days, err := AsInt(args[2])
	if err != nil {
		return nil, err
	}
	return NewTime(t.value.AddDate(int(years), int(months), int(days))), nil
}

func (t *Time) After(ctx context.Context, args ...Object) (Object, error) {
	other, err := AsTime(args[0])
	if err != nil {
		return nil, err
	}
	return NewBool(t.value.After(other)), nil
}

func (t *Time) Before(ctx context.Context, args ...Object) (Object, error) {
	other, err := AsTime(args[0])
	if err != nil {
		return nil, err
	}
	return NewBool(t.value.Before(other)), nil
}

func (t *Time) Format(ctx context.Context, args ...Object) (Object, error) {
	layout, err := AsString(args[0])
	if err != nil {
		return nil, err
	}
	return NewString(t.value.Format(layout)), nil
}

func (t *Time) UTC(ctx context.Context, args ...Object) (Object, error) {
	return NewTime(t.value.UTC()), nil
}

func (t *Time) Unix(ctx context.Context, args ...Object) (Object, error) {
	return NewInt(t.value.Unix()), nil
}

func NewTime(t time.Time) *Time {
	return &Time{value: t}
}
