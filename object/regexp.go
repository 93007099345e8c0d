package object

import (
	"context"
	"fmt"
	"regexp"

	"github.com/deepnoodle-ai/peek/op"
)

var regexpMethods = NewMethodRegistry[*Regexp]("regexp")

func init() {
	regexpMethods.Define("match").
		Doc("Check if the pattern matches the string").
		Arg("s").
		Impl(func(r *Regexp, ctx context.Context, args ...Object) (Object, error) {
			return withString(args[0], func(s string) Object {
				return NewBool(r.value.MatchString(s))
			})
		})

	regexpMethods.Define("find").
		Doc("Find the first match (empty string if none)").
		Arg("s").
		Impl(func(r *Regexp, ctx context.Context, args ...Object) (Object, error) {
			return withString(args[0], func(s string) Object {
				return NewString(r.value.FindString(s))
			})
		})

	regexpMethods.Define("find_all").
		Doc("Find all matches").
		Arg("s").
		Impl(func(r *Regexp, ctx context.Context, args ...Object) (Object, error) {
			return withString(args[0], func(s string) Object {
				return NewStringList(r.value.FindAllString(s, -1))
			})
		})

	regexpMethods.Define("replace_all").
		Doc("Replace all matches with a replacement string").
		Args("s", "repl").
		Impl(func(r *Regexp, ctx context.Context, args ...Object) (Object, error) {
			s, err := AsString(args[0])
			if err != nil {
				return nil, err
			}
			repl, err := AsString(args[1])
			if err != nil {
				return nil, err
			}
			return NewString(r.value.ReplaceAllString(s, repl)), nil
		})

	regexpMethods.Define("split").
		Doc("Split the string around matches").
		Arg("s").
		Impl(func(r *Regexp, ctx context.Context, args ...Object) (Object, error) {
			return withString(args[0], func(s string) Object {
				return NewStringList(r.value.Split(s, -1))
			})
		})
}

// Regexp is a compiled regular expression. It has no mutating methods.
type Regexp struct {
	value *regexp.Regexp
}

func (r *Regexp) Type() Type {
	return REGEXP
}

func (r *Regexp) Value() *regexp.Regexp {
	return r.value
}

func (r *Regexp) Inspect() string {
	return fmt.Sprintf("regexp(%q)", r.value.String())
}

func (r *Regexp) String() string {
	return r.Inspect()
}

func (r *Regexp) Interface() any {
	return r.value
}

func (r *Regexp) GetAttr(name string) (Object, bool) {
	return regexpMethods.GetAttr(r, name)
}

func (r *Regexp) SetAttr(name string, value Object) error {
	return TypeErrorf("regexp has no attribute %q", name)
}

func (r *Regexp) Equals(other Object) bool {
	otherRegex, ok := other.(*Regexp)
	return ok && r.value.String() == otherRegex.value.String()
}

func (r *Regexp) IsTruthy() bool {
	return true
}

func (r *Regexp) RunOperation(opType op.BinaryOpType, right Object) (Object, error) {
	return nil, unsupportedOperation(opType, r, right)
}

func NewRegexp(value *regexp.Regexp) *Regexp {
	return &Regexp{value: value}
}
