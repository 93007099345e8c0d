package ast

import (
	"bytes"
	"strings"

	"github.com/deepnoodle-ai/peek/internal/token"
)

// Var is a variable declaration: let x = value.
type Var struct {
	Let   token.Position
	Name  *Ident
	Value Expr
}

func (s *Var) stmtNode() {}

func (s *Var) Pos() token.Position { return s.Let }
func (s *Var) End() token.Position { return s.Value.End() }
func (s *Var) String() string      { return "let " + s.Name.Name + " = " + s.Value.String() }

// Const is a constant declaration: const X = value.
type Const struct {
	Const token.Position
	Name  *Ident
	Value Expr
}

func (s *Const) stmtNode() {}

func (s *Const) Pos() token.Position { return s.Const }
func (s *Const) End() token.Position { return s.Value.End() }
func (s *Const) String() string      { return "const " + s.Name.Name + " = " + s.Value.String() }

// Assign assigns to a name or to an index expression. Op is "=" or a
// compound operator such as "+=".
type Assign struct {
	Name  *Ident // set for x = value
	Index *Index // set for x[i] = value
	OpPos token.Position
	Op    string
	Value Expr
}

func (s *Assign) stmtNode() {}

func (s *Assign) Pos() token.Position {
	if s.Index != nil {
		return s.Index.Pos()
	}
	return s.Name.Pos()
}

func (s *Assign) End() token.Position { return s.Value.End() }

func (s *Assign) String() string {
	target := ""
	if s.Index != nil {
		target = s.Index.String()
	} else {
		target = s.Name.Name
	}
	return target + " " + s.Op + " " + s.Value.String()
}

// SetAttr assigns to an attribute: X.Attr = value.
type SetAttr struct {
	X     Expr
	Attr  *Ident
	OpPos token.Position
	Op    string
	Value Expr
}

func (s *SetAttr) stmtNode() {}

func (s *SetAttr) Pos() token.Position { return s.X.Pos() }
func (s *SetAttr) End() token.Position { return s.Value.End() }

func (s *SetAttr) String() string {
	return s.X.String() + "." + s.Attr.Name + " " + s.Op + " " + s.Value.String()
}

// Return is a return statement. Value may be nil.
type Return struct {
	Return token.Position
	Value  Expr
}

func (s *Return) stmtNode() {}

func (s *Return) Pos() token.Position { return s.Return }

func (s *Return) End() token.Position {
	if s.Value != nil {
		return s.Value.End()
	}
	return s.Return.Advance(len("return"))
}

func (s *Return) String() string {
	if s.Value == nil {
		return "return"
	}
	return "return " + s.Value.String()
}

// Throw raises an error.
type Throw struct {
	Throw token.Position
	Value Expr
}

func (s *Throw) stmtNode() {}

func (s *Throw) Pos() token.Position { return s.Throw }
func (s *Throw) End() token.Position { return s.Value.End() }
func (s *Throw) String() string      { return "throw " + s.Value.String() }

// Block is a brace-delimited sequence of statements.
type Block struct {
	Lbrace token.Position
	Stmts  []Node
	Rbrace token.Position
}

func (s *Block) stmtNode() {}

func (s *Block) Pos() token.Position { return s.Lbrace }
func (s *Block) End() token.Position { return s.Rbrace.Advance(1) }

func (s *Block) String() string {
	var out bytes.Buffer
	out.WriteString("{ ")
	for i, stmt := range s.Stmts {
		if i > 0 {
			out.WriteString("; ")
		}
		out.WriteString(stmt.String())
	}
	out.WriteString(" }")
	return out.String()
}

// Struct declares a new record type: struct Name { a, b }.
type Struct struct {
	Struct token.Position
	Name   *Ident
	Fields []*Ident
	Rbrace token.Position
}

func (s *Struct) stmtNode() {}

func (s *Struct) Pos() token.Position { return s.Struct }
func (s *Struct) End() token.Position { return s.Rbrace.Advance(1) }

func (s *Struct) String() string {
	fields := make([]string, 0, len(s.Fields))
	for _, f := range s.Fields {
		fields = append(fields, f.Name)
	}
	return "struct " + s.Name.Name + " { " + strings.Join(fields, ", ") + " }"
}
