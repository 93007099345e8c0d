package parser

import (
	"github.com/deepnoodle-ai/peek/ast"
	"github.com/deepnoodle-ai/peek/internal/token"
)

func (p *Parser) parseIdent() ast.Node {
	ident := p.newIdent(p.curToken)
	if p.peekTokenIs(token.ARROW) {
		p.nextToken()
		return p.parseArrowBody(ident.Pos(), []*ast.Ident{ident})
	}
	return ident
}

func (p *Parser) parsePrefixExpr() ast.Node {
	tok := p.curToken
	p.nextToken()
	right := p.parseExpression(PREFIX)
	if right == nil {
		return nil
	}
	return &ast.Prefix{OpPos: tok.StartPosition, Op: tok.Literal, X: right}
}

func (p *Parser) parseInfixExpr(leftNode ast.Node) ast.Node {
	left, ok := p.asExpr(leftNode)
	if !ok {
		return nil
	}
	tok := p.curToken
	precedence := p.curPrecedence()
	if tok.Type == token.POW {
		precedence-- // right associative
	}
	p.nextToken()
	p.eatNewlines()
	right := p.parseExpression(precedence)
	if right == nil {
		return nil
	}
	return &ast.Infix{X: left, OpPos: tok.StartPosition, Op: tok.Literal, Y: right}
}

func (p *Parser) parseIn(leftNode ast.Node) ast.Node {
	left, ok := p.asExpr(leftNode)
	if !ok {
		return nil
	}
	inPos := p.curToken.StartPosition
	p.nextToken()
	p.eatNewlines()
	right := p.parseExpression(EQUALS)
	if right == nil {
		return nil
	}
	return &ast.In{X: left, In: inPos, Y: right}
}

func (p *Parser) parseNotIn(leftNode ast.Node) ast.Node {
	left, ok := p.asExpr(leftNode)
	if !ok {
		return nil
	}
	notPos := p.curToken.StartPosition
	if !p.expectPeek("not in expression", token.IN) {
		return nil
	}
	p.nextToken()
	p.eatNewlines()
	right := p.parseExpression(EQUALS)
	if right == nil {
		return nil
	}
	return &ast.In{X: left, In: notPos, Y: right, Not: true}
}

func (p *Parser) parseTernary(condNode ast.Node) ast.Node {
	cond, ok := p.asExpr(condNode)
	if !ok {
		return nil
	}
	expr := &ast.Ternary{Cond: cond, Question: p.curToken.StartPosition}
	p.nextToken()
	p.eatNewlines()
	if expr.IfTrue = p.parseExpression(TERNARY); expr.IfTrue == nil {
		return nil
	}
	p.skipPeekNewlines()
	if !p.expectPeek("ternary expression", token.COLON) {
		return nil
	}
	expr.Colon = p.curToken.StartPosition
	p.nextToken()
	p.eatNewlines()
	if expr.IfFalse = p.parseExpression(ASSIGN); expr.IfFalse == nil {
		return nil
	}
	return expr
}

// parseAssign handles "=" and the compound assignment operators. The
// result is a statement, so assignments cannot be used as values.
func (p *Parser) parseAssign(target ast.Node) ast.Node {
	tok := p.curToken
	p.nextToken()
	p.eatNewlines()
	value := p.parseExpression(LOWEST)
	if value == nil {
		return nil
	}
	switch t := target.(type) {
	case *ast.Ident:
		return &ast.Assign{Name: t, OpPos: tok.StartPosition, Op: tok.Literal, Value: value}
	case *ast.Index:
		return &ast.Assign{Index: t, OpPos: tok.StartPosition, Op: tok.Literal, Value: value}
	case *ast.GetAttr:
		return &ast.SetAttr{X: t.X, Attr: t.Attr, OpPos: tok.StartPosition, Op: tok.Literal, Value: value}
	}
	return p.setTokenError(tok, "invalid assignment target %s", target.String())
}

func (p *Parser) parseGroupedExpr() ast.Node {
	lparen := p.curToken.StartPosition
	p.nextToken()
	p.eatNewlines()
	if p.curTokenIs(token.RPAREN) {
		if !p.expectPeek("arrow function", token.ARROW) {
			return nil
		}
		return p.parseArrowBody(lparen, nil)
	}
	first := p.parseExpression(LOWEST)
	if first == nil {
		return nil
	}
	exprs := []ast.Expr{first}
	p.skipPeekNewlines()
	for p.peekTokenIs(token.COMMA) {
		p.nextToken()
		p.nextToken()
		p.eatNewlines()
		expr := p.parseExpression(LOWEST)
		if expr == nil {
			return nil
		}
		exprs = append(exprs, expr)
		p.skipPeekNewlines()
	}
	if !p.expectPeek("grouped expression", token.RPAREN) {
		return nil
	}
	if p.peekTokenIs(token.ARROW) {
		params := make([]*ast.Ident, 0, len(exprs))
		for _, expr := range exprs {
			ident, ok := expr.(*ast.Ident)
			if !ok {
				return p.setTokenError(p.peekToken, "invalid arrow function parameter %s", expr.String())
			}
			params = append(params, ident)
		}
		p.nextToken()
		return p.parseArrowBody(lparen, params)
	}
	if len(exprs) > 1 {
		return p.setTokenError(p.curToken, "unexpected \",\" in grouped expression")
	}
	return first
}

func (p *Parser) parseIf() ast.Node {
	expr := &ast.If{If: p.curToken.StartPosition}
	p.nextToken()
	if expr.Cond = p.parseExpression(LOWEST); expr.Cond == nil {
		return nil
	}
	if !p.expectPeek("if expression", token.LBRACE) {
		return nil
	}
	if expr.Consequence = p.parseBlock(); expr.Consequence == nil {
		return nil
	}
	if !p.peekTokenIs(token.ELSE) {
		return expr
	}
	p.nextToken()
	if p.peekTokenIs(token.IF) {
		p.nextToken()
		nested := p.parseIf()
		if nested == nil {
			return nil
		}
		expr.Alternative = &ast.Block{
			Lbrace: nested.Pos(),
			Stmts:  []ast.Node{nested},
			Rbrace: nested.End(),
		}
		return expr
	}
	if !p.expectPeek("if expression", token.LBRACE) {
		return nil
	}
	if expr.Alternative = p.parseBlock(); expr.Alternative == nil {
		return nil
	}
	return expr
}

func (p *Parser) parseTry() ast.Node {
	expr := &ast.Try{Try: p.curToken.StartPosition}
	if !p.expectPeek("try expression", token.LBRACE) {
		return nil
	}
	if expr.Body = p.parseBlock(); expr.Body == nil {
		return nil
	}
	if p.peekTokenIs(token.CATCH) {
		p.nextToken()
		switch {
		case p.peekTokenIs(token.IDENT):
			p.nextToken()
			expr.CatchIdent = p.newIdent(p.curToken)
		case p.peekTokenIs(token.LPAREN):
			p.nextToken()
			if !p.expectPeek("catch clause", token.IDENT) {
				return nil
			}
			expr.CatchIdent = p.newIdent(p.curToken)
			if !p.expectPeek("catch clause", token.RPAREN) {
				return nil
			}
		}
		if !p.expectPeek("catch clause", token.LBRACE) {
			return nil
		}
		if expr.CatchBlock = p.parseBlock(); expr.CatchBlock == nil {
			return nil
		}
	}
	if p.peekTokenIs(token.FINALLY) {
		p.nextToken()
		if !p.expectPeek("finally clause", token.LBRACE) {
			return nil
		}
		if expr.FinallyBlock = p.parseBlock(); expr.FinallyBlock == nil {
			return nil
		}
	}
	if expr.CatchBlock == nil && expr.FinallyBlock == nil {
		return p.setTokenError(p.curToken, "try requires a catch or finally clause")
	}
	return expr
}

func (p *Parser) parseCall(fnNode ast.Node) ast.Node {
	fn, ok := p.asExpr(fnNode)
	if !ok {
		return nil
	}
	lparen := p.curToken.StartPosition
	args, ok := p.parseExprList("call arguments", token.RPAREN)
	if !ok {
		return nil
	}
	call := &ast.Call{Fun: fn, Lparen: lparen, Args: args, Rparen: p.curToken.StartPosition}
	if attr, ok := fn.(*ast.GetAttr); ok {
		call.Fun = attr.Attr
		return &ast.ObjectCall{X: attr.X, Period: attr.Period, Call: call}
	}
	return call
}

func (p *Parser) parseGetAttr(leftNode ast.Node) ast.Node {
	left, ok := p.asExpr(leftNode)
	if !ok {
		return nil
	}
	period := p.curToken.StartPosition
	if !p.expectPeek("attribute access", token.IDENT) {
		return nil
	}
	return &ast.GetAttr{X: left, Period: period, Attr: p.newIdent(p.curToken)}
}

func (p *Parser) parseIndex(leftNode ast.Node) ast.Node {
	left, ok := p.asExpr(leftNode)
	if !ok {
		return nil
	}
	lbrack := p.curToken.StartPosition
	p.nextToken()
	var low ast.Expr
	if !p.curTokenIs(token.COLON) {
		if low = p.parseExpression(LOWEST); low == nil {
			return nil
		}
		if !p.peekTokenIs(token.COLON) {
			if !p.expectPeek("index expression", token.RBRACKET) {
				return nil
			}
			return &ast.Index{X: left, Lbrack: lbrack, Index: low, Rbrack: p.curToken.StartPosition}
		}
		p.nextToken()
	}
	// The current token is the colon of a slice expression
	slice := &ast.Slice{X: left, Lbrack: lbrack, Low: low}
	if !p.peekTokenIs(token.RBRACKET) {
		p.nextToken()
		if slice.High = p.parseExpression(LOWEST); slice.High == nil {
			return nil
		}
	}
	if !p.expectPeek("slice expression", token.RBRACKET) {
		return nil
	}
	slice.Rbrack = p.curToken.StartPosition
	return slice
}

// parseExprList parses a comma separated list of expressions ending with
// the given token. The current token must be the opening delimiter.
func (p *Parser) parseExprList(context string, end token.Type) ([]ast.Expr, bool) {
	var list []ast.Expr
	p.nextToken()
	p.eatNewlines()
	for !p.curTokenIs(end) {
		item := p.parseExpression(LOWEST)
		if item == nil {
			return nil, false
		}
		list = append(list, item)
		p.skipPeekNewlines()
		if p.peekTokenIs(token.COMMA) {
			p.nextToken()
			p.nextToken()
			p.eatNewlines()
			continue
		}
		if !p.expectPeek(context, end) {
			return nil, false
		}
	}
	return list, true
}
