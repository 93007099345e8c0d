// Package compiler compiles an expression syntax tree into bytecode.
//
// # Symbol Scopes
//
// Names resolve in this order: breakpoint frame locals, process globals and
// then builtins. The compiler tracks three variable scopes:
//
//   - Local: frame locals and variables declared by the expression or by a
//     function literal, accessed via LoadFast/StoreFast
//   - Global: process globals and builtins, accessed via LoadGlobal/StoreGlobal
//   - Free: locals of an enclosing function captured by a function literal,
//     accessed via LoadFree/StoreFree
//
// The root symbol table holds globals. The main code of the expression owns a
// function-like child table whose first entries are the frame locals, so an
// expression reads its breakpoint locals exactly like a function reads its
// parameters. Referencing an unknown name is a compile error.
package compiler

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/deepnoodle-ai/peek/ast"
	"github.com/deepnoodle-ai/peek/bytecode"
	"github.com/deepnoodle-ai/peek/errz"
	"github.com/deepnoodle-ai/peek/internal/token"
	"github.com/deepnoodle-ai/peek/op"
)

const (
	// MaxArgs is the maximum number of arguments a function can have.
	MaxArgs = 255

	// Placeholder is a temporary value written during compilation, which is
	// always replaced before compilation is complete.
	Placeholder = uint16(math.MaxUint16)
)

// Compiler is used to compile an AST into its corresponding bytecode.
type Compiler struct {
	// The entrypoint code we are compiling
	main *Code

	// The current code we are compiling into. This changes as we enter
	// and leave function literals.
	current *Code

	// Increments with each function compiled
	funcIndex int

	filename string
	source   string

	// Current AST node being compiled (used for source map tracking)
	currentNode ast.Node
}

// Config holds compiler configuration options.
type Config struct {
	// LocalNames are the names of the breakpoint frame locals.
	LocalNames []string

	// GlobalNames are the names of process globals.
	GlobalNames []string

	// BuiltinNames are the names of builtin functions, classes and modules.
	// A global with the same name hides the builtin.
	BuiltinNames []string

	// Filename is the source filename, used for error messages.
	Filename string

	// Source is the original source code, used for error messages.
	Source string
}

// Compile compiles the given program and returns immutable bytecode.
// Pass nil for cfg to compile without any predefined names.
func Compile(node *ast.Program, cfg *Config) (*bytecode.Code, error) {
	c, err := New(cfg)
	if err != nil {
		return nil, err
	}
	code, err := c.CompileAST(node)
	if err != nil {
		return nil, err
	}
	return code.ToBytecode(), nil
}

// New creates and returns a new Compiler. Pass nil for cfg to use defaults.
func New(cfg *Config) (*Compiler, error) {
	if cfg == nil {
		cfg = &Config{}
	}
	root := NewSymbolTable()
	globals := sortedCopy(cfg.GlobalNames)
	globals = append(globals, sortedCopy(cfg.BuiltinNames)...)
	for _, name := range globals {
		if root.IsDefined(name) {
			continue
		}
		if _, err := root.InsertVariable(name); err != nil {
			return nil, err
		}
	}
	main := &Code{
		id:       "__main__",
		name:     "__main__",
		symbols:  root.NewChild(),
		source:   cfg.Source,
		filename: cfg.Filename,
	}
	for _, name := range sortedCopy(cfg.LocalNames) {
		if main.symbols.IsDefined(name) {
			continue
		}
		if _, err := main.symbols.InsertVariable(name); err != nil {
			return nil, err
		}
	}
	return &Compiler{
		main:     main,
		current:  main,
		filename: cfg.Filename,
		source:   cfg.Source,
	}, nil
}

func sortedCopy(names []string) []string {
	result := make([]string, len(names))
	copy(result, names)
	sort.Strings(result)
	return result
}

// CompileAST compiles the program and returns the mutable main Code.
func (c *Compiler) CompileAST(node *ast.Program) (*Code, error) {
	if node == nil {
		return nil, fmt.Errorf("compile error: nil program")
	}
	if c.main.source == "" {
		c.main.source = node.String()
	}
	c.currentNode = node
	if err := c.compileStatements(node.Stmts); err != nil {
		return nil, err
	}
	if len(node.Stmts) == 0 || !isReturn(node.Stmts[len(node.Stmts)-1]) {
		c.emit(op.ReturnValue)
	}
	return c.main, nil
}

// compile the given AST node and all its children.
func (c *Compiler) compile(node ast.Node) error {
	prev := c.currentNode
	c.currentNode = node
	defer func() { c.currentNode = prev }()

	switch node := node.(type) {
	case *ast.Nil:
		c.emit(op.Nil)
	case *ast.Bool:
		if node.Value {
			c.emit(op.True)
		} else {
			c.emit(op.False)
		}
	case *ast.Int:
		c.emit(op.LoadConst, c.constant(node.Value))
	case *ast.Float:
		c.emit(op.LoadConst, c.constant(node.Value))
	case *ast.String:
		c.emit(op.LoadConst, c.constant(node.Value))
	case *ast.List:
		return c.compileList(node)
	case *ast.Map:
		return c.compileMap(node)
	case *ast.Func:
		return c.compileFunc(node)
	case *ast.Ident:
		return c.compileIdent(node)
	case *ast.Prefix:
		return c.compilePrefix(node)
	case *ast.Infix:
		return c.compileInfix(node)
	case *ast.In:
		return c.compileIn(node)
	case *ast.Ternary:
		return c.compileTernary(node)
	case *ast.If:
		return c.compileIf(node)
	case *ast.Call:
		return c.compileCall(node)
	case *ast.ObjectCall:
		return c.compileObjectCall(node)
	case *ast.GetAttr:
		return c.compileGetAttr(node)
	case *ast.Index:
		return c.compileIndex(node)
	case *ast.Slice:
		return c.compileSlice(node)
	case *ast.Try:
		return c.compileTry(node)
	case *ast.Var:
		return c.compileVar(node)
	case *ast.Const:
		return c.compileConst(node)
	case *ast.Assign:
		return c.compileAssign(node)
	case *ast.SetAttr:
		return c.compileSetAttr(node)
	case *ast.Struct:
		return c.compileStruct(node)
	case *ast.Return:
		return c.compileReturn(node)
	case *ast.Throw:
		if err := c.compile(node.Value); err != nil {
			return err
		}
		c.emit(op.Throw)
	case *ast.Block:
		if err := c.compileBlock(node); err != nil {
			return err
		}
		c.emit(op.PopTop)
	case *ast.BadExpr:
		return c.formatError(errz.ErrSyntax, "invalid expression", node.Pos())
	default:
		return fmt.Errorf("compile error: unknown ast node type: %T", node)
	}
	return nil
}

func isExpr(node ast.Node) bool {
	_, ok := node.(ast.Expr)
	return ok
}

func isReturn(node ast.Node) bool {
	_, ok := node.(*ast.Return)
	return ok
}

// compileStatements compiles a statement list so that exactly one value is
// left on the stack: the value of the final expression statement, or nil.
func (c *Compiler) compileStatements(stmts []ast.Node) error {
	if len(stmts) == 0 {
		c.emit(op.Nil)
		return nil
	}
	last := len(stmts) - 1
	for i, stmt := range stmts {
		if err := c.compile(stmt); err != nil {
			return err
		}
		if !isExpr(stmt) {
			if i == last && !isReturn(stmt) {
				c.emit(op.Nil)
			}
			continue
		}
		if i < last {
			c.emit(op.PopTop)
		}
	}
	return nil
}

// compileBlock compiles a block in its own scope, leaving its value on the stack.
func (c *Compiler) compileBlock(node *ast.Block) error {
	code := c.current
	code.symbols = code.symbols.NewBlock()
	defer func() { code.symbols = code.symbols.parent }()
	return c.compileStatements(node.Stmts)
}

func (c *Compiler) compileList(node *ast.List) error {
	if len(node.Items) > math.MaxUint16 {
		return c.formatError(errz.ErrSyntax, "list literal exceeds max size", node.Pos())
	}
	for _, item := range node.Items {
		if err := c.compile(item); err != nil {
			return err
		}
	}
	c.emit(op.BuildList, uint16(len(node.Items)))
	return nil
}

func (c *Compiler) compileMap(node *ast.Map) error {
	if len(node.Items) > math.MaxUint16 {
		return c.formatError(errz.ErrSyntax, "map literal exceeds max size", node.Pos())
	}
	for _, item := range node.Items {
		if err := c.compile(item.Key); err != nil {
			return err
		}
		if err := c.compile(item.Value); err != nil {
			return err
		}
	}
	c.emit(op.BuildMap, uint16(len(node.Items)))
	return nil
}

func (c *Compiler) compileIdent(node *ast.Ident) error {
	resolution, found := c.current.symbols.Resolve(node.Name)
	if !found {
		return c.formatError(errz.ErrName, fmt.Sprintf("undefined variable %q", node.Name), node.Pos())
	}
	c.emitLoad(resolution)
	return nil
}

func (c *Compiler) compilePrefix(node *ast.Prefix) error {
	if err := c.compile(node.X); err != nil {
		return err
	}
	switch node.Op {
	case "!", "not":
		c.emit(op.UnaryNot)
	case "-":
		c.emit(op.UnaryNegative)
	default:
		return c.formatError(errz.ErrSyntax, fmt.Sprintf("unknown operator: %s", node.Op), node.Pos())
	}
	return nil
}

var binaryOps = map[string]op.BinaryOpType{
	"+":  op.Add,
	"-":  op.Subtract,
	"*":  op.Multiply,
	"/":  op.Divide,
	"%":  op.Modulo,
	"**": op.Power,
}

var compareOps = map[string]op.CompareOpType{
	"<":  op.LessThan,
	"<=": op.LessThanOrEqual,
	"==": op.Equal,
	"!=": op.NotEqual,
	">":  op.GreaterThan,
	">=": op.GreaterThanOrEqual,
}

func (c *Compiler) compileInfix(node *ast.Infix) error {
	switch node.Op {
	case "&&":
		return c.compileLogical(node, op.PopJumpForwardIfFalse)
	case "||":
		return c.compileLogical(node, op.PopJumpForwardIfTrue)
	}
	if err := c.compile(node.X); err != nil {
		return err
	}
	if err := c.compile(node.Y); err != nil {
		return err
	}
	if bop, ok := binaryOps[node.Op]; ok {
		c.emit(op.BinaryOp, uint16(bop))
		return nil
	}
	if cop, ok := compareOps[node.Op]; ok {
		c.emit(op.CompareOp, uint16(cop))
		return nil
	}
	return c.formatError(errz.ErrSyntax, fmt.Sprintf("unknown operator: %s", node.Op), node.OpPos)
}

// compileLogical short circuits && and ||. The left value is kept on the stack
// when it decides the result.
func (c *Compiler) compileLogical(node *ast.Infix, jump op.Code) error {
	if err := c.compile(node.X); err != nil {
		return err
	}
	c.emit(op.Copy, 0)
	jumpPos := c.emit(jump, Placeholder)
	c.emit(op.PopTop)
	if err := c.compile(node.Y); err != nil {
		return err
	}
	return c.patchJump(jumpPos)
}

func (c *Compiler) compileIn(node *ast.In) error {
	if err := c.compile(node.X); err != nil {
		return err
	}
	if err := c.compile(node.Y); err != nil {
		return err
	}
	var invert uint16
	if node.Not {
		invert = 1
	}
	c.emit(op.ContainsOp, invert)
	return nil
}

func (c *Compiler) compileTernary(node *ast.Ternary) error {
	if err := c.compile(node.Cond); err != nil {
		return err
	}
	jumpIfFalsePos := c.emit(op.PopJumpForwardIfFalse, Placeholder)
	if err := c.compile(node.IfTrue); err != nil {
		return err
	}
	jumpPastFalsePos := c.emit(op.JumpForward, Placeholder)
	if err := c.patchJump(jumpIfFalsePos); err != nil {
		return err
	}
	if err := c.compile(node.IfFalse); err != nil {
		return err
	}
	return c.patchJump(jumpPastFalsePos)
}

func (c *Compiler) compileIf(node *ast.If) error {
	if err := c.compile(node.Cond); err != nil {
		return err
	}
	jumpIfFalsePos := c.emit(op.PopJumpForwardIfFalse, Placeholder)
	if err := c.compileBlock(node.Consequence); err != nil {
		return err
	}
	jumpPastElsePos := c.emit(op.JumpForward, Placeholder)
	if err := c.patchJump(jumpIfFalsePos); err != nil {
		return err
	}
	if node.Alternative != nil {
		if err := c.compileBlock(node.Alternative); err != nil {
			return err
		}
	} else {
		c.emit(op.Nil)
	}
	return c.patchJump(jumpPastElsePos)
}

// compileArgs compiles call arguments and returns the call flags.
func (c *Compiler) compileArgs(args []ast.Expr, pos token.Position) (uint16, error) {
	if len(args) > MaxArgs {
		return 0, c.formatError(errz.ErrSyntax, "max args limit of 255 exceeded", pos)
	}
	var flags op.Code
	for _, arg := range args {
		if ast.ContainsFunc(arg) {
			flags |= op.CallFlagBlockArg
		}
		if err := c.compile(arg); err != nil {
			return 0, err
		}
	}
	return uint16(flags), nil
}

func (c *Compiler) compileCall(node *ast.Call) error {
	if err := c.compile(node.Fun); err != nil {
		return err
	}
	flags, err := c.compileArgs(node.Args, node.Pos())
	if err != nil {
		return err
	}
	c.emit(op.Call, uint16(len(node.Args)), flags)
	return nil
}

func (c *Compiler) compileObjectCall(node *ast.ObjectCall) error {
	method, ok := node.Call.Fun.(*ast.Ident)
	if !ok {
		return c.formatError(errz.ErrSyntax, "invalid method call", node.Pos())
	}
	if err := c.compile(node.X); err != nil {
		return err
	}
	c.emit(op.LoadAttr, c.current.addName(method.Name))
	flags, err := c.compileArgs(node.Call.Args, node.Pos())
	if err != nil {
		return err
	}
	c.emit(op.Call, uint16(len(node.Call.Args)), flags)
	return nil
}

func (c *Compiler) compileGetAttr(node *ast.GetAttr) error {
	if err := c.compile(node.X); err != nil {
		return err
	}
	c.emit(op.LoadAttr, c.current.addName(node.Attr.Name))
	return nil
}

func (c *Compiler) compileIndex(node *ast.Index) error {
	if err := c.compile(node.X); err != nil {
		return err
	}
	if err := c.compile(node.Index); err != nil {
		return err
	}
	c.emit(op.BinarySubscr)
	return nil
}

func (c *Compiler) compileSlice(node *ast.Slice) error {
	if err := c.compile(node.X); err != nil {
		return err
	}
	for _, bound := range []ast.Expr{node.Low, node.High} {
		if bound == nil {
			c.emit(op.Nil)
			continue
		}
		if err := c.compile(bound); err != nil {
			return err
		}
	}
	c.emit(op.Slice)
	return nil
}

func (c *Compiler) compileFunc(node *ast.Func) error {
	if len(node.Params) > MaxArgs {
		return c.formatError(errz.ErrSyntax, "function exceeded parameter limit of 255", node.Pos())
	}
	var name string
	if node.Name != nil {
		name = node.Name.Name
	}

	// A named function is stored in the enclosing scope before its body is
	// compiled, so the body can refer to itself.
	var nameSymbol *Symbol
	if name != "" {
		sym, err := c.current.symbols.InsertConstant(name)
		if err != nil {
			return c.formatError(errz.ErrSyntax, err.Error(), node.Pos())
		}
		nameSymbol = sym
	}

	c.funcIndex++
	code := c.current.newChild(name, "")
	c.current = code

	params := make([]string, len(node.Params))
	for i, param := range node.Params {
		params[i] = param.Name
		if _, err := code.symbols.InsertVariable(param.Name); err != nil {
			c.current = code.parent
			return c.formatError(errz.ErrSyntax, err.Error(), param.Pos())
		}
	}
	stmts := node.Body.Stmts
	if err := c.compileStatements(stmts); err != nil {
		c.current = code.parent
		return err
	}
	if len(stmts) == 0 || !isReturn(stmts[len(stmts)-1]) {
		c.emit(op.ReturnValue)
	}
	c.current = code.parent

	fn := &Function{
		id:         fmt.Sprintf("%d", c.funcIndex),
		name:       name,
		parameters: params,
		code:       code,
	}

	// Capture free variables into cells, then build the closure
	freeCount := code.symbols.FreeCount()
	if freeCount > 0 {
		for i := uint16(0); i < freeCount; i++ {
			outer := code.symbols.Free(i).outer
			if outer.scope == Free {
				c.emit(op.MakeCell, uint16(outer.freeIndex), op.CellFromFree)
			} else {
				c.emit(op.MakeCell, outer.symbol.Index(), op.CellFromLocal)
			}
		}
		c.emit(op.LoadClosure, c.constant(fn), freeCount)
	} else {
		c.emit(op.LoadConst, c.constant(fn))
	}

	if nameSymbol != nil {
		c.emit(op.Copy, 0)
		c.emitStoreConstant(nameSymbol)
	}
	return nil
}

func (c *Compiler) compileVar(node *ast.Var) error {
	if err := c.compile(node.Value); err != nil {
		return err
	}
	sym, err := c.current.symbols.InsertVariable(node.Name.Name)
	if err != nil {
		return c.formatError(errz.ErrSyntax, err.Error(), node.Pos())
	}
	c.emit(op.StoreFast, sym.Index())
	return nil
}

func (c *Compiler) compileConst(node *ast.Const) error {
	if err := c.compile(node.Value); err != nil {
		return err
	}
	sym, err := c.current.symbols.InsertConstant(node.Name.Name)
	if err != nil {
		return c.formatError(errz.ErrSyntax, err.Error(), node.Pos())
	}
	c.emitStoreConstant(sym)
	return nil
}

func (c *Compiler) compileStruct(node *ast.Struct) error {
	fields := make([]string, len(node.Fields))
	for i, field := range node.Fields {
		fields[i] = field.Name
	}
	c.emit(op.DefineStruct, c.constant(bytecode.NewStructDef(node.Name.Name, fields)))
	sym, err := c.current.symbols.InsertConstant(node.Name.Name)
	if err != nil {
		return c.formatError(errz.ErrSyntax, err.Error(), node.Pos())
	}
	c.emitStoreConstant(sym)
	return nil
}

// emitStoreConstant binds a constant declared in the current code. At the
// expression's top level this is a module-level constant.
func (c *Compiler) emitStoreConstant(sym *Symbol) {
	if c.current.IsRoot() {
		c.emit(op.StoreConst, sym.Index())
	} else {
		c.emit(op.StoreFast, sym.Index())
	}
}

func (c *Compiler) compileAssign(node *ast.Assign) error {
	if node.Index != nil {
		return c.compileSetItem(node)
	}
	name := node.Name.Name
	resolution, found := c.current.symbols.Resolve(name)
	if !found {
		return c.formatError(errz.ErrName, fmt.Sprintf("undefined variable %q", name), node.Pos())
	}
	if resolution.symbol.IsConstant() {
		return c.formatError(errz.ErrSyntax, fmt.Sprintf("cannot assign to constant %q", name), node.Pos())
	}
	if node.Op == "=" {
		if err := c.compile(node.Value); err != nil {
			return err
		}
	} else {
		bop, err := c.compoundOp(node.Op, node.OpPos)
		if err != nil {
			return err
		}
		c.emitLoad(resolution)
		if err := c.compile(node.Value); err != nil {
			return err
		}
		c.emit(op.InplaceOp, uint16(bop))
	}
	c.emitStore(resolution)
	return nil
}

func (c *Compiler) compileSetItem(node *ast.Assign) error {
	if err := c.compile(node.Index.X); err != nil {
		return err
	}
	if err := c.compile(node.Index.Index); err != nil {
		return err
	}
	if node.Op == "=" {
		if err := c.compile(node.Value); err != nil {
			return err
		}
	} else {
		bop, err := c.compoundOp(node.Op, node.OpPos)
		if err != nil {
			return err
		}
		// Duplicate container and index to read the current item
		c.emit(op.Copy, 1)
		c.emit(op.Copy, 1)
		c.emit(op.BinarySubscr)
		if err := c.compile(node.Value); err != nil {
			return err
		}
		c.emit(op.InplaceOp, uint16(bop))
	}
	c.emit(op.StoreSubscr)
	return nil
}

func (c *Compiler) compileSetAttr(node *ast.SetAttr) error {
	name := c.current.addName(node.Attr.Name)
	if node.Op == "=" {
		if err := c.compile(node.Value); err != nil {
			return err
		}
	} else {
		bop, err := c.compoundOp(node.Op, node.OpPos)
		if err != nil {
			return err
		}
		if err := c.compile(node.X); err != nil {
			return err
		}
		c.emit(op.LoadAttr, name)
		if err := c.compile(node.Value); err != nil {
			return err
		}
		c.emit(op.InplaceOp, uint16(bop))
	}
	if err := c.compile(node.X); err != nil {
		return err
	}
	c.emit(op.StoreAttr, name)
	return nil
}

func (c *Compiler) compoundOp(operator string, pos token.Position) (op.BinaryOpType, error) {
	bop, ok := binaryOps[strings.TrimSuffix(operator, "=")]
	if !ok || !strings.HasSuffix(operator, "=") {
		return 0, c.formatError(errz.ErrSyntax, fmt.Sprintf("unsupported assignment operator: %s", operator), pos)
	}
	return bop, nil
}

func (c *Compiler) compileReturn(node *ast.Return) error {
	if node.Value == nil {
		c.emit(op.Nil)
	} else if err := c.compile(node.Value); err != nil {
		return err
	}
	c.emit(op.ReturnValue)
	return nil
}

// compileTry compiles try/catch/finally as an expression. The value is that
// of the try body, or of the catch block when an error was caught.
func (c *Compiler) compileTry(node *ast.Try) error {
	if node.CatchBlock == nil && node.FinallyBlock == nil {
		return c.formatError(errz.ErrSyntax, "try requires a catch or finally block", node.Pos())
	}
	tryStart := c.currentPosition()
	pushExceptPos := c.emit(op.PushExcept, Placeholder, Placeholder)

	if err := c.compileBlock(node.Body); err != nil {
		return err
	}
	c.emit(op.PopExcept)
	jumpAfterTryPos := c.emit(op.JumpForward, Placeholder)
	tryEnd := c.currentPosition()

	catchStart := 0
	catchVarIdx := -1
	if node.CatchBlock != nil {
		catchStart = c.currentPosition()
		code := c.current
		code.symbols = code.symbols.NewBlock()
		if node.CatchIdent != nil {
			sym, err := code.symbols.InsertVariable(node.CatchIdent.Name)
			if err != nil {
				code.symbols = code.symbols.parent
				return c.formatError(errz.ErrSyntax, err.Error(), node.CatchIdent.Pos())
			}
			catchVarIdx = int(sym.Index())
			c.emit(op.StoreFast, sym.Index())
		} else {
			c.emit(op.PopTop)
		}
		err := c.compileStatements(node.CatchBlock.Stmts)
		code.symbols = code.symbols.parent
		if err != nil {
			return err
		}
		if node.FinallyBlock != nil {
			// The VM guards the catch block with the finally handler
			c.emit(op.PopExcept)
		}
	}

	finallyStart := 0
	if node.FinallyBlock != nil {
		finallyStart = c.currentPosition()
		if err := c.compileBlock(node.FinallyBlock); err != nil {
			return err
		}
		// The finally value never replaces the try/catch value
		c.emit(op.PopTop)
		c.emit(op.EndFinally)
	}
	endPos := c.currentPosition()

	var catchOffset, finallyOffset uint16
	if catchStart > 0 {
		catchOffset = uint16(catchStart - pushExceptPos)
	}
	if finallyStart > 0 {
		finallyOffset = uint16(finallyStart - pushExceptPos)
	}
	c.changeOperand(pushExceptPos, 0, catchOffset)
	c.changeOperand(pushExceptPos, 1, finallyOffset)

	jumpTarget := endPos
	if finallyStart > 0 {
		jumpTarget = finallyStart
	}
	if err := c.patchJumpTo(jumpAfterTryPos, jumpTarget); err != nil {
		return err
	}

	kind := bytecode.HandlerEnsure
	if node.CatchBlock != nil {
		kind = bytecode.HandlerRescue
	}
	c.current.exceptionHandlers = append(c.current.exceptionHandlers, bytecode.ExceptionHandler{
		Kind:         kind,
		TryStart:     tryStart,
		TryEnd:       tryEnd,
		CatchStart:   catchStart,
		FinallyStart: finallyStart,
		CatchVarIdx:  catchVarIdx,
	})
	return nil
}

func (c *Compiler) currentPosition() int {
	return len(c.current.instructions)
}

// patchJump points the jump at pos to the current position.
func (c *Compiler) patchJump(pos int) error {
	return c.patchJumpTo(pos, c.currentPosition())
}

// patchJumpTo sets the operand of the jump at pos. Jump offsets are relative
// to the position of the jump instruction itself.
func (c *Compiler) patchJumpTo(pos, target int) error {
	delta := target - pos
	if delta < 0 || delta >= int(Placeholder) {
		return c.formatError(errz.ErrSyntax, "jump target out of range", c.currentNode.Pos())
	}
	c.changeOperand(pos, 0, uint16(delta))
	return nil
}

func (c *Compiler) changeOperand(pos, operand int, value uint16) {
	c.current.instructions[pos+1+operand] = op.Code(value)
}

func (c *Compiler) constant(obj any) uint16 {
	code := c.current
	if len(code.constants) >= math.MaxUint16 {
		panic("compile error: too many constants")
	}
	code.constants = append(code.constants, obj)
	return uint16(len(code.constants) - 1)
}

// emit appends an instruction to the current code and returns its position.
func (c *Compiler) emit(opcode op.Code, operands ...uint16) int {
	code := c.current
	pos := len(code.instructions)
	inst := makeInstruction(opcode, operands...)
	code.instructions = append(code.instructions, inst...)
	if opcode == op.Call && len(operands) > 0 && operands[0] > code.maxCallArgs {
		code.maxCallArgs = operands[0]
	}
	loc := c.getCurrentLocation()
	for range inst {
		code.locations = append(code.locations, loc)
	}
	return pos
}

// emitLoad emits the appropriate load instruction based on the variable's scope.
func (c *Compiler) emitLoad(resolution *Resolution) {
	switch resolution.scope {
	case Global:
		c.emit(op.LoadGlobal, resolution.symbol.Index())
	case Local:
		c.emit(op.LoadFast, resolution.symbol.Index())
	case Free:
		c.emit(op.LoadFree, uint16(resolution.freeIndex))
	}
}

// emitStore emits the appropriate store instruction based on the variable's scope.
func (c *Compiler) emitStore(resolution *Resolution) {
	switch resolution.scope {
	case Global:
		c.emit(op.StoreGlobal, resolution.symbol.Index())
	case Local:
		c.emit(op.StoreFast, resolution.symbol.Index())
	case Free:
		c.emit(op.StoreFree, uint16(resolution.freeIndex))
	}
}

func (c *Compiler) getCurrentLocation() bytecode.SourceLocation {
	if c.currentNode == nil {
		return bytecode.SourceLocation{}
	}
	pos := c.currentNode.Pos()
	return bytecode.SourceLocation{
		Line:   pos.LineNumber(),
		Column: pos.ColumnNumber(),
	}
}

func makeInstruction(opcode op.Code, operands ...uint16) []op.Code {
	instruction := make([]op.Code, 1+len(operands))
	instruction[0] = opcode
	for i, operand := range operands {
		instruction[i+1] = op.Code(operand)
	}
	return instruction
}

func (c *Compiler) formatError(kind errz.ErrorKind, msg string, pos token.Position) error {
	loc := errz.SourceLocation{
		Filename: c.filename,
		Line:     pos.LineNumber(),
		Column:   pos.ColumnNumber(),
		Source:   c.getSourceLine(pos.LineNumber()),
	}
	return errz.NewStructuredError(kind, msg, loc, nil)
}

func (c *Compiler) getSourceLine(lineNum int) string {
	if c.source == "" || lineNum < 1 {
		return ""
	}
	lines := strings.Split(c.source, "\n")
	if lineNum > len(lines) {
		return ""
	}
	return lines[lineNum-1]
}
