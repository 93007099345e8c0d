package object

import (
	"context"
	"fmt"
	"strings"

	"github.com/deepnoodle-ai/peek/op"
)

var stringMethods = NewMethodRegistry[*String]("string")

func init() {
	stringMethods.Define("compare").
		Doc("Compare to another string (-1, 0, or 1)").
		Arg("other").
		Impl(func(s *String, ctx context.Context, args ...Object) (Object, error) {
			result, err := s.Compare(args[0])
			if err != nil {
				return nil, err
			}
			return NewInt(int64(result)), nil
		})

	stringMethods.Define("contains").
		Doc("Check if substring exists").
		Arg("substr").
		Impl(func(s *String, ctx context.Context, args ...Object) (Object, error) {
			return withString(args[0], func(sub string) Object {
				return NewBool(strings.Contains(s.value, sub))
			})
		})

	stringMethods.Define("count").
		Doc("Count occurrences of substring").
		Arg("substr").
		Impl(func(s *String, ctx context.Context, args ...Object) (Object, error) {
			return withString(args[0], func(sub string) Object {
				return NewInt(int64(strings.Count(s.value, sub)))
			})
		})

	stringMethods.Define("fields").
		Doc("Split on whitespace").
		Impl(func(s *String, ctx context.Context, args ...Object) (Object, error) {
			return NewStringList(strings.Fields(s.value)), nil
		})

	stringMethods.Define("has_prefix").
		Doc("Check if string starts with prefix").
		Arg("prefix").
		Impl(func(s *String, ctx context.Context, args ...Object) (Object, error) {
			return withString(args[0], func(prefix string) Object {
				return NewBool(strings.HasPrefix(s.value, prefix))
			})
		})

	stringMethods.Define("has_suffix").
		Doc("Check if string ends with suffix").
		Arg("suffix").
		Impl(func(s *String, ctx context.Context, args ...Object) (Object, error) {
			return withString(args[0], func(suffix string) Object {
				return NewBool(strings.HasSuffix(s.value, suffix))
			})
		})

	stringMethods.Define("index").
		Doc("Find first index of substring (-1 if not found)").
		Arg("substr").
		Impl(func(s *String, ctx context.Context, args ...Object) (Object, error) {
			return withString(args[0], func(sub string) Object {
				return NewInt(int64(strings.Index(s.value, sub)))
			})
		})

	stringMethods.Define("join").
		Doc("Join list elements with this string as separator").
		Arg("items").
		Impl(func(s *String, ctx context.Context, args ...Object) (Object, error) {
			ls, err := AsList(args[0])
			if err != nil {
				return nil, err
			}
			strs := make([]string, 0, len(ls.items))
			for _, item := range ls.items {
				itemStr, err := AsString(item)
				if err != nil {
					return nil, err
				}
				strs = append(strs, itemStr)
			}
			return NewString(strings.Join(strs, s.value)), nil
		})

	stringMethods.Define("last_index").
		Doc("Find last index of substring (-1 if not found)").
		Arg("substr").
		Impl(func(s *String, ctx context.Context, args ...Object) (Object, error) {
			return withString(args[0], func(sub string) Object {
				return NewInt(int64(strings.LastIndex(s.value, sub)))
			})
		})

	stringMethods.Define("repeat").
		Doc("Repeat string n times").
		Arg("count").
		Impl(func(s *String, ctx context.Context, args ...Object) (Object, error) {
			count, err := AsInt(args[0])
			if err != nil {
				return nil, err
			}
			if count < 0 {
				return nil, ValueErrorf("string.repeat: negative count")
			}
			if err := checkRepeat(len(s.value), count, MaxRepeatBytes); err != nil {
				return nil, err
			}
			return NewString(strings.Repeat(s.value, int(count))), nil
		})

	stringMethods.Define("replace_all").
		Doc("Replace all occurrences").
		Args("old", "new").
		Impl(func(s *String, ctx context.Context, args ...Object) (Object, error) {
			old, err := AsString(args[0])
			if err != nil {
				return nil, err
			}
			repl, err := AsString(args[1])
			if err != nil {
				return nil, err
			}
			return NewString(strings.ReplaceAll(s.value, old, repl)), nil
		})

	stringMethods.Define("split").
		Doc("Split by separator").
		Arg("sep").
		Impl(func(s *String, ctx context.Context, args ...Object) (Object, error) {
			sep, err := AsString(args[0])
			if err != nil {
				return nil, err
			}
			return NewStringList(strings.Split(s.value, sep)), nil
		})

	stringMethods.Define("to_lower").
		Doc("Convert to lowercase").
		Impl(func(s *String, ctx context.Context, args ...Object) (Object, error) {
			return NewString(strings.ToLower(s.value)), nil
		})

	stringMethods.Define("to_upper").
		Doc("Convert to uppercase").
		Impl(func(s *String, ctx context.Context, args ...Object) (Object, error) {
			return NewString(strings.ToUpper(s.value)), nil
		})

	stringMethods.Define("trim").
		Doc("Trim characters from both ends").
		Arg("chars").
		Impl(func(s *String, ctx context.Context, args ...Object) (Object, error) {
			return withString(args[0], func(chars string) Object {
				return NewString(strings.Trim(s.value, chars))
			})
		})

	stringMethods.Define("trim_prefix").
		Doc("Remove prefix if present").
		Arg("prefix").
		Impl(func(s *String, ctx context.Context, args ...Object) (Object, error) {
			return withString(args[0], func(prefix string) Object {
				return NewString(strings.TrimPrefix(s.value, prefix))
			})
		})

	stringMethods.Define("trim_space").
		Doc("Trim whitespace from both ends").
		Impl(func(s *String, ctx context.Context, args ...Object) (Object, error) {
			return NewString(strings.TrimSpace(s.value)), nil
		})

	stringMethods.Define("trim_suffix").
		Doc("Remove suffix if present").
		Arg("suffix").
		Impl(func(s *String, ctx context.Context, args ...Object) (Object, error) {
			return withString(args[0], func(suffix string) Object {
				return NewString(strings.TrimSuffix(s.value, suffix))
			})
		})
}

func withString(arg Object, fn func(string) Object) (Object, error) {
	value, err := AsString(arg)
	if err != nil {
		return nil, err
	}
	return fn(value), nil
}

type String struct {
	value string
}

// StringMethods returns the names of the methods available on strings.
func StringMethods() []string {
	return stringMethods.Names()
}

func (s *String) GetAttr(name string) (Object, bool) {
	return stringMethods.GetAttr(s, name)
}

func (s *String) SetAttr(name string, value Object) error {
	return TypeErrorf("string has no attribute %q", name)
}

func (s *String) Type() Type {
	return STRING
}

func (s *String) Value() string {
	return s.value
}

func (s *String) Inspect() string {
	sLen := len(s.value)
	if sLen >= 2 && s.value[0] == '"' && s.value[sLen-1] == '"' {
		if strings.Count(s.value, "\"") == 2 {
			return fmt.Sprintf("'%s'", s.value)
		}
	}
	return fmt.Sprintf("%q", s.value)
}

func (s *String) String() string {
	return s.value
}

func (s *String) Interface() any {
	return s.value
}

func (s *String) Compare(other Object) (int, error) {
	otherStr, ok := other.(*String)
	if !ok {
		return 0, TypeErrorf("unable to compare string and %s", other.Type())
	}
	return strings.Compare(s.value, otherStr.value), nil
}

func (s *String) Equals(other Object) bool {
	otherString, ok := other.(*String)
	return ok && s.value == otherString.value
}

func (s *String) IsTruthy() bool {
	return s.value != ""
}

func (s *String) RunOperation(opType op.BinaryOpType, right Object) (Object, error) {
	switch right := right.(type) {
	case *String:
		if opType == op.Add {
			return NewString(s.value + right.value), nil
		}
	case *Int:
		if opType == op.Multiply {
			if right.value < 0 {
				return nil, ValueErrorf("negative string repeat count")
			}
			if err := checkRepeat(len(s.value), right.value, MaxRepeatBytes); err != nil {
				return nil, err
			}
			return NewString(strings.Repeat(s.value, int(right.value))), nil
		}
	}
	return nil, unsupportedOperation(opType, s, right)
}

func (s *String) GetItem(key Object) (Object, error) {
	indexObj, ok := key.(*Int)
	if !ok {
		return nil, TypeErrorf("string index must be an int (got %s)", key.Type())
	}
	runes := []rune(s.value)
	index, err := ResolveIndex(indexObj.value, int64(len(runes)))
	if err != nil {
		return nil, err
	}
	return NewString(string(runes[index])), nil
}

func (s *String) GetSlice(slice Slice) (Object, error) {
	runes := []rune(s.value)
	start, stop, err := ResolveIntSlice(slice, int64(len(runes)))
	if err != nil {
		return nil, err
	}
	return NewString(string(runes[start:stop])), nil
}

func (s *String) SetItem(key, value Object) error {
	return TypeErrorf("set item is unsupported for string")
}

func (s *String) Contains(obj Object) bool {
	other, ok := obj.(*String)
	return ok && strings.Contains(s.value, other.value)
}

func (s *String) Len() int64 {
	return int64(len([]rune(s.value)))
}

func NewString(s string) *String {
	return &String{value: s}
}
