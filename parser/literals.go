package parser

import (
	"strconv"

	"github.com/deepnoodle-ai/peek/ast"
	"github.com/deepnoodle-ai/peek/internal/token"
)

func (p *Parser) parseInt() ast.Node {
	tok := p.curToken
	value, err := strconv.ParseInt(tok.Literal, 0, 64)
	if err != nil {
		return p.setTokenError(tok, "invalid integer: %s", tok.Literal)
	}
	return &ast.Int{ValuePos: tok.StartPosition, Literal: tok.Literal, Value: value}
}

func (p *Parser) parseFloat() ast.Node {
	tok := p.curToken
	value, err := strconv.ParseFloat(tok.Literal, 64)
	if err != nil {
		return p.setTokenError(tok, "invalid float: %s", tok.Literal)
	}
	return &ast.Float{ValuePos: tok.StartPosition, Literal: tok.Literal, Value: value}
}

func (p *Parser) parseString() ast.Node {
	return &ast.String{
		ValuePos: p.curToken.StartPosition,
		EndPos:   p.curToken.EndPosition,
		Value:    p.curToken.Literal,
	}
}

func (p *Parser) parseBoolean() ast.Node {
	return &ast.Bool{ValuePos: p.curToken.StartPosition, Value: p.curTokenIs(token.TRUE)}
}

func (p *Parser) parseNil() ast.Node {
	return &ast.Nil{NilPos: p.curToken.StartPosition}
}

func (p *Parser) parseList() ast.Node {
	lbrack := p.curToken.StartPosition
	items, ok := p.parseExprList("list", token.RBRACKET)
	if !ok {
		return nil
	}
	return &ast.List{Lbrack: lbrack, Items: items, Rbrack: p.curToken.StartPosition}
}

func (p *Parser) parseMap() ast.Node {
	m := &ast.Map{Lbrace: p.curToken.StartPosition}
	p.nextToken()
	p.eatNewlines()
	for !p.curTokenIs(token.RBRACE) {
		key := p.parseExpression(LOWEST)
		if key == nil {
			return nil
		}
		// Bare identifiers are string keys
		if ident, ok := key.(*ast.Ident); ok {
			key = &ast.String{ValuePos: ident.Pos(), EndPos: ident.End(), Value: ident.Name}
		}
		if !p.expectPeek("map", token.COLON) {
			return nil
		}
		p.nextToken()
		p.eatNewlines()
		value := p.parseExpression(LOWEST)
		if value == nil {
			return nil
		}
		m.Items = append(m.Items, ast.MapItem{Key: key, Value: value})
		p.skipPeekNewlines()
		if p.peekTokenIs(token.COMMA) {
			p.nextToken()
			p.nextToken()
			p.eatNewlines()
			continue
		}
		if !p.expectPeek("map", token.RBRACE) {
			return nil
		}
	}
	m.Rbrace = p.curToken.StartPosition
	return m
}

func (p *Parser) parseFunc() ast.Node {
	fn := &ast.Func{Func: p.curToken.StartPosition}
	if p.peekTokenIs(token.IDENT) {
		p.nextToken()
		fn.Name = p.newIdent(p.curToken)
	}
	if !p.expectPeek("function", token.LPAREN) {
		return nil
	}
	params, ok := p.parseParams()
	if !ok {
		return nil
	}
	fn.Params = params
	if !p.expectPeek("function", token.LBRACE) {
		return nil
	}
	if fn.Body = p.parseBlock(); fn.Body == nil {
		return nil
	}
	return fn
}

// parseParams parses a parenthesized parameter list. The current token must
// be the left parenthesis.
func (p *Parser) parseParams() ([]*ast.Ident, bool) {
	var params []*ast.Ident
	seen := map[string]bool{}
	p.nextToken()
	p.eatNewlines()
	for !p.curTokenIs(token.RPAREN) {
		if !p.curTokenIs(token.IDENT) {
			p.setTokenError(p.curToken, "unexpected %s while parsing function parameters (expected identifier)",
				tokenDescription(p.curToken))
			return nil, false
		}
		if seen[p.curToken.Literal] {
			p.setTokenError(p.curToken, "duplicate parameter %q", p.curToken.Literal)
			return nil, false
		}
		seen[p.curToken.Literal] = true
		params = append(params, p.newIdent(p.curToken))
		p.skipPeekNewlines()
		if p.peekTokenIs(token.COMMA) {
			p.nextToken()
			p.nextToken()
			p.eatNewlines()
			continue
		}
		if !p.expectPeek("function parameters", token.RPAREN) {
			return nil, false
		}
	}
	return params, true
}

// parseArrowBody parses the body following "=>". The current token must be
// the arrow. Expression bodies are wrapped in a block with a return.
func (p *Parser) parseArrowBody(start token.Position, params []*ast.Ident) ast.Node {
	fn := &ast.Func{Func: start, Params: params}
	p.nextToken()
	if p.curTokenIs(token.LBRACE) {
		if fn.Body = p.parseBlock(); fn.Body == nil {
			return nil
		}
		return fn
	}
	value := p.parseExpression(LOWEST)
	if value == nil {
		return nil
	}
	fn.Body = &ast.Block{
		Lbrace: value.Pos(),
		Stmts:  []ast.Node{&ast.Return{Return: value.Pos(), Value: value}},
		Rbrace: value.End(),
	}
	return fn
}
