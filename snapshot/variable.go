package snapshot

import (
	"fmt"

	"github.com/deepnoodle-ai/peek/object"
)

// Limits bound the size of a rendered Variable.
type Limits struct {
	// MaxStringLength is the number of characters kept from a string value.
	MaxStringLength int `json:"max_string_length" yaml:"max_string_length"`

	// MaxDepth is how many levels of list, map and struct members are
	// expanded.
	MaxDepth int `json:"max_depth" yaml:"max_depth"`

	// MaxMembers is the number of members expanded per container.
	MaxMembers int `json:"max_members" yaml:"max_members"`
}

// DefaultLimits returns the limits used when none are configured.
func DefaultLimits() Limits {
	return Limits{
		MaxStringLength: 500,
		MaxDepth:        3,
		MaxMembers:      1000,
	}
}

// Status annotates a Variable whose value is incomplete or unavailable.
type Status struct {
	IsError     bool   `json:"is_error"`
	Description string `json:"description"`
}

// Variable is a rendered snapshot of a named value.
type Variable struct {
	Name    string     `json:"name"`
	Type    string     `json:"type,omitempty"`
	Value   string     `json:"value"`
	Members []Variable `json:"members,omitempty"`
	Status  *Status    `json:"status,omitempty"`
}

// ErrorPrefix starts the value of a Variable whose expression could not be
// evaluated.
const ErrorPrefix = "Unable to evaluate expression: "

// ErrorVariable renders an evaluation failure as a Variable whose value and
// status describe the error.
func ErrorVariable(name string, err error) Variable {
	msg := ErrorPrefix + err.Error()
	return Variable{
		Name:   name,
		Value:  msg,
		Status: &Status{IsError: true, Description: msg},
	}
}

// NewVariable renders obj within the given limits.
func NewVariable(name string, obj object.Object, limits Limits) Variable {
	return render(name, obj, limits, 0)
}

func render(name string, obj object.Object, limits Limits, depth int) Variable {
	if obj == nil {
		obj = object.Nil
	}
	v := Variable{
		Name: name,
		Type: string(obj.Type()),
	}
	switch obj := obj.(type) {
	case *object.String:
		v.Value, v.Status = truncate(obj.Value(), limits.MaxStringLength)
		return v
	case *object.Proxy:
		v.Type = obj.GoType()
	}
	v.Value, v.Status = truncate(object.PrintableValue(obj), limits.MaxStringLength)

	members := membersOf(obj)
	if len(members) == 0 {
		return v
	}
	if depth >= limits.MaxDepth {
		v.Status = &Status{Description: fmt.Sprintf("Members not captured beyond depth %d", limits.MaxDepth)}
		return v
	}
	count := len(members)
	if count > limits.MaxMembers {
		members = members[:limits.MaxMembers]
		v.Status = &Status{Description: fmt.Sprintf("Only first %d of %d members captured", limits.MaxMembers, count)}
	}
	v.Members = make([]Variable, 0, len(members))
	for _, member := range members {
		v.Members = append(v.Members, render(member.name, member.value(), limits, depth+1))
	}
	return v
}

func truncate(s string, max int) (string, *Status) {
	runes := []rune(s)
	if max <= 0 || len(runes) <= max {
		return s, nil
	}
	return string(runes[:max]) + "...", &Status{
		Description: fmt.Sprintf("Value truncated to %d characters", max),
	}
}

type member struct {
	name  string
	value func() object.Object
}

// membersOf lists the members of a container. Member values are converted
// on demand.
func membersOf(obj object.Object) []member {
	var members []member
	switch obj := obj.(type) {
	case *object.List:
		items := obj.Value()
		for i := range items {
			item := items[i]
			members = append(members, member{
				name:  fmt.Sprintf("[%d]", i),
				value: func() object.Object { return item },
			})
		}
	case *object.Map:
		for _, key := range obj.SortedKeys() {
			key := key
			members = append(members, member{
				name:  key,
				value: func() object.Object { return obj.Get(key) },
			})
		}
	case *object.Proxy:
		for _, field := range obj.Fields() {
			field := field
			members = append(members, member{
				name: field,
				value: func() object.Object {
					value, _ := obj.Field(field)
					return value
				},
			})
		}
	}
	return members
}
