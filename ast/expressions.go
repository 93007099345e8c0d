package ast

import (
	"bytes"
	"strings"

	"github.com/deepnoodle-ai/peek/internal/token"
)

// Ident is a name reference.
type Ident struct {
	NamePos token.Position
	Name    string
}

func (x *Ident) exprNode() {}

func (x *Ident) Pos() token.Position { return x.NamePos }
func (x *Ident) End() token.Position { return x.NamePos.Advance(len(x.Name)) }
func (x *Ident) String() string      { return x.Name }

// Prefix is a unary operation such as -x or !x.
type Prefix struct {
	OpPos token.Position
	Op    string
	X     Expr
}

func (x *Prefix) exprNode() {}

func (x *Prefix) Pos() token.Position { return x.OpPos }
func (x *Prefix) End() token.Position { return x.X.End() }

func (x *Prefix) String() string {
	if x.Op == "not" {
		return "(not " + x.X.String() + ")"
	}
	return "(" + x.Op + x.X.String() + ")"
}

// Infix is a binary operation such as x + y.
type Infix struct {
	X     Expr
	OpPos token.Position
	Op    string
	Y     Expr
}

func (x *Infix) exprNode() {}

func (x *Infix) Pos() token.Position { return x.X.Pos() }
func (x *Infix) End() token.Position { return x.Y.End() }

func (x *Infix) String() string {
	return "(" + x.X.String() + " " + x.Op + " " + x.Y.String() + ")"
}

// In is a membership test: X in Y.
type In struct {
	X   Expr
	In  token.Position
	Y   Expr
	Not bool // not in
}

func (x *In) exprNode() {}

func (x *In) Pos() token.Position { return x.X.Pos() }
func (x *In) End() token.Position { return x.Y.End() }

func (x *In) String() string {
	if x.Not {
		return "(" + x.X.String() + " not in " + x.Y.String() + ")"
	}
	return "(" + x.X.String() + " in " + x.Y.String() + ")"
}

// Ternary is a conditional expression: Cond ? IfTrue : IfFalse.
type Ternary struct {
	Cond     Expr
	Question token.Position
	IfTrue   Expr
	Colon    token.Position
	IfFalse  Expr
}

func (x *Ternary) exprNode() {}

func (x *Ternary) Pos() token.Position { return x.Cond.Pos() }
func (x *Ternary) End() token.Position { return x.IfFalse.End() }

func (x *Ternary) String() string {
	return "(" + x.Cond.String() + " ? " + x.IfTrue.String() + " : " + x.IfFalse.String() + ")"
}

// If is an if/else expression. Its value is the value of the branch taken,
// or nil when no branch runs.
type If struct {
	If          token.Position
	Cond        Expr
	Consequence *Block
	Alternative *Block
}

func (x *If) exprNode() {}

func (x *If) Pos() token.Position { return x.If }

func (x *If) End() token.Position {
	if x.Alternative != nil {
		return x.Alternative.End()
	}
	return x.Consequence.End()
}

func (x *If) String() string {
	var out bytes.Buffer
	out.WriteString("if (")
	out.WriteString(x.Cond.String())
	out.WriteString(") ")
	out.WriteString(x.Consequence.String())
	if x.Alternative != nil {
		out.WriteString(" else ")
		out.WriteString(x.Alternative.String())
	}
	return out.String()
}

// Call is a function call.
type Call struct {
	Fun    Expr
	Lparen token.Position
	Args   []Expr
	Rparen token.Position
}

func (x *Call) exprNode() {}

func (x *Call) Pos() token.Position { return x.Fun.Pos() }
func (x *Call) End() token.Position { return x.Rparen.Advance(1) }

func (x *Call) String() string {
	args := make([]string, 0, len(x.Args))
	for _, a := range x.Args {
		args = append(args, a.String())
	}
	return x.Fun.String() + "(" + strings.Join(args, ", ") + ")"
}

// ObjectCall is a method call: X.Method(args).
type ObjectCall struct {
	X      Expr
	Period token.Position
	Call   *Call // Call.Fun is the method *Ident
}

func (x *ObjectCall) exprNode() {}

func (x *ObjectCall) Pos() token.Position { return x.X.Pos() }
func (x *ObjectCall) End() token.Position { return x.Call.End() }
func (x *ObjectCall) String() string      { return x.X.String() + "." + x.Call.String() }

// Method returns the name of the method being called.
func (x *ObjectCall) Method() string {
	return x.Call.Fun.String()
}

// GetAttr is an attribute read: X.Attr.
type GetAttr struct {
	X      Expr
	Period token.Position
	Attr   *Ident
}

func (x *GetAttr) exprNode() {}

func (x *GetAttr) Pos() token.Position { return x.X.Pos() }
func (x *GetAttr) End() token.Position { return x.Attr.End() }
func (x *GetAttr) String() string      { return x.X.String() + "." + x.Attr.Name }

// Index is a subscript: X[Index].
type Index struct {
	X      Expr
	Lbrack token.Position
	Index  Expr
	Rbrack token.Position
}

func (x *Index) exprNode() {}

func (x *Index) Pos() token.Position { return x.X.Pos() }
func (x *Index) End() token.Position { return x.Rbrack.Advance(1) }
func (x *Index) String() string      { return x.X.String() + "[" + x.Index.String() + "]" }

// Slice is a slice expression: X[Low:High]. Either bound may be nil.
type Slice struct {
	X      Expr
	Lbrack token.Position
	Low    Expr
	High   Expr
	Rbrack token.Position
}

func (x *Slice) exprNode() {}

func (x *Slice) Pos() token.Position { return x.X.Pos() }
func (x *Slice) End() token.Position { return x.Rbrack.Advance(1) }

func (x *Slice) String() string {
	var out bytes.Buffer
	out.WriteString(x.X.String())
	out.WriteString("[")
	if x.Low != nil {
		out.WriteString(x.Low.String())
	}
	out.WriteString(":")
	if x.High != nil {
		out.WriteString(x.High.String())
	}
	out.WriteString("]")
	return out.String()
}

// Try is a try/catch/finally expression. Its value is the value of the try
// block, or of the catch block when an error was caught.
type Try struct {
	Try          token.Position
	Body         *Block
	CatchIdent   *Ident // optional
	CatchBlock   *Block // optional
	FinallyBlock *Block // optional
}

func (x *Try) exprNode() {}

func (x *Try) Pos() token.Position { return x.Try }

func (x *Try) End() token.Position {
	if x.FinallyBlock != nil {
		return x.FinallyBlock.End()
	}
	if x.CatchBlock != nil {
		return x.CatchBlock.End()
	}
	return x.Body.End()
}

func (x *Try) String() string {
	var out bytes.Buffer
	out.WriteString("try ")
	out.WriteString(x.Body.String())
	if x.CatchBlock != nil {
		out.WriteString(" catch ")
		if x.CatchIdent != nil {
			out.WriteString(x.CatchIdent.Name)
			out.WriteString(" ")
		}
		out.WriteString(x.CatchBlock.String())
	}
	if x.FinallyBlock != nil {
		out.WriteString(" finally ")
		out.WriteString(x.FinallyBlock.String())
	}
	return out.String()
}
