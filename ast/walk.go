package ast

import "iter"

// Visitor defines the interface for AST traversal. If Visit returns nil,
// children of the node are not visited. Otherwise, the returned Visitor
// is used to visit children.
type Visitor interface {
	Visit(node Node) (w Visitor)
}

// Walk traverses an AST in depth-first order. It starts by calling
// v.Visit(node); if the returned visitor w is not nil, Walk is invoked
// recursively with visitor w for each of the non-nil children of node.
func Walk(v Visitor, node Node) {
	if node == nil {
		return
	}
	if v = v.Visit(node); v == nil {
		return
	}

	switch n := node.(type) {
	case *Program:
		walkNodes(v, n.Stmts)

	// Statements
	case *Var:
		Walk(v, n.Name)
		walkExpr(v, n.Value)
	case *Const:
		Walk(v, n.Name)
		walkExpr(v, n.Value)
	case *Assign:
		if n.Name != nil {
			Walk(v, n.Name)
		}
		if n.Index != nil {
			Walk(v, n.Index)
		}
		walkExpr(v, n.Value)
	case *SetAttr:
		walkExpr(v, n.X)
		Walk(v, n.Attr)
		walkExpr(v, n.Value)
	case *Return:
		walkExpr(v, n.Value)
	case *Throw:
		walkExpr(v, n.Value)
	case *Block:
		walkNodes(v, n.Stmts)
	case *Struct:
		Walk(v, n.Name)
		for _, f := range n.Fields {
			Walk(v, f)
		}

	// Expressions
	case *Prefix:
		walkExpr(v, n.X)
	case *Infix:
		walkExpr(v, n.X)
		walkExpr(v, n.Y)
	case *In:
		walkExpr(v, n.X)
		walkExpr(v, n.Y)
	case *Ternary:
		walkExpr(v, n.Cond)
		walkExpr(v, n.IfTrue)
		walkExpr(v, n.IfFalse)
	case *If:
		walkExpr(v, n.Cond)
		Walk(v, n.Consequence)
		if n.Alternative != nil {
			Walk(v, n.Alternative)
		}
	case *Call:
		walkExpr(v, n.Fun)
		for _, a := range n.Args {
			walkExpr(v, a)
		}
	case *ObjectCall:
		walkExpr(v, n.X)
		Walk(v, n.Call)
	case *GetAttr:
		walkExpr(v, n.X)
		Walk(v, n.Attr)
	case *Index:
		walkExpr(v, n.X)
		walkExpr(v, n.Index)
	case *Slice:
		walkExpr(v, n.X)
		walkExpr(v, n.Low)
		walkExpr(v, n.High)
	case *Try:
		Walk(v, n.Body)
		if n.CatchIdent != nil {
			Walk(v, n.CatchIdent)
		}
		if n.CatchBlock != nil {
			Walk(v, n.CatchBlock)
		}
		if n.FinallyBlock != nil {
			Walk(v, n.FinallyBlock)
		}
	case *List:
		for _, item := range n.Items {
			walkExpr(v, item)
		}
	case *Map:
		for _, item := range n.Items {
			walkExpr(v, item.Key)
			walkExpr(v, item.Value)
		}
	case *Func:
		if n.Name != nil {
			Walk(v, n.Name)
		}
		for _, p := range n.Params {
			Walk(v, p)
		}
		Walk(v, n.Body)

	case *Ident, *Int, *Float, *String, *Bool, *Nil, *BadExpr:
		// leaves
	}

	v.Visit(nil)
}

func walkNodes(v Visitor, nodes []Node) {
	for _, n := range nodes {
		Walk(v, n)
	}
}

func walkExpr(v Visitor, x Expr) {
	if x != nil {
		Walk(v, x)
	}
}

type inspector func(Node) bool

func (f inspector) Visit(node Node) Visitor {
	if node != nil && f(node) {
		return f
	}
	return nil
}

// Inspect traverses an AST in depth-first order, calling f for each node.
// If f returns false, the children of that node are skipped.
func Inspect(node Node, f func(Node) bool) {
	Walk(inspector(f), node)
}

// Preorder returns an iterator over all nodes of the tree rooted at root,
// in depth-first preorder.
func Preorder(root Node) iter.Seq[Node] {
	return func(yield func(Node) bool) {
		ok := true
		Inspect(root, func(n Node) bool {
			if ok {
				ok = yield(n)
			}
			return ok
		})
	}
}

// ContainsFunc reports whether a function literal appears anywhere within node.
func ContainsFunc(node Node) bool {
	for n := range Preorder(node) {
		if _, ok := n.(*Func); ok {
			return true
		}
	}
	return false
}
