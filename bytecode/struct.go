package bytecode

import "strings"

// StructDef is the constant operand of a DefineStruct instruction.
type StructDef struct {
	name   string
	fields []string
}

// NewStructDef creates a struct type declaration.
func NewStructDef(name string, fields []string) *StructDef {
	return &StructDef{name: name, fields: copyStrings(fields)}
}

// Name returns the declared type name.
func (s *StructDef) Name() string {
	return s.name
}

// FieldCount returns the number of declared fields.
func (s *StructDef) FieldCount() int {
	return len(s.fields)
}

// Field returns the name of the field at the given index.
func (s *StructDef) Field(index int) string {
	return s.fields[index]
}

func (s *StructDef) String() string {
	return "struct " + s.name + " { " + strings.Join(s.fields, ", ") + " }"
}
