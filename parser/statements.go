package parser

import (
	"github.com/deepnoodle-ai/peek/ast"
	"github.com/deepnoodle-ai/peek/internal/token"
)

func (p *Parser) parseLet() ast.Node {
	letPos := p.curToken.StartPosition
	if !p.expectPeek("let statement", token.IDENT) {
		return nil
	}
	name := p.newIdent(p.curToken)
	if !p.expectPeek("let statement", token.ASSIGN) {
		return nil
	}
	value := p.parseAssignmentValue()
	if value == nil {
		return nil
	}
	return &ast.Var{Let: letPos, Name: name, Value: value}
}

func (p *Parser) parseConst() ast.Node {
	constPos := p.curToken.StartPosition
	if !p.expectPeek("const statement", token.IDENT) {
		return nil
	}
	name := p.newIdent(p.curToken)
	if !p.expectPeek("const statement", token.ASSIGN) {
		return nil
	}
	value := p.parseAssignmentValue()
	if value == nil {
		return nil
	}
	return &ast.Const{Const: constPos, Name: name, Value: value}
}

func (p *Parser) parseAssignmentValue() ast.Expr {
	p.nextToken()
	p.eatNewlines()
	return p.parseExpression(LOWEST)
}

func (p *Parser) parseReturn() ast.Node {
	stmt := &ast.Return{Return: p.curToken.StartPosition}
	if statementTerminators[p.peekToken.Type] {
		return stmt
	}
	p.nextToken()
	stmt.Value = p.parseExpression(LOWEST)
	if stmt.Value == nil {
		return nil
	}
	return stmt
}

func (p *Parser) parseThrow() ast.Node {
	throwPos := p.curToken.StartPosition
	p.nextToken()
	value := p.parseExpression(LOWEST)
	if value == nil {
		return nil
	}
	return &ast.Throw{Throw: throwPos, Value: value}
}

func (p *Parser) parseStruct() ast.Node {
	stmt := &ast.Struct{Struct: p.curToken.StartPosition}
	if !p.expectPeek("struct", token.IDENT) {
		return nil
	}
	stmt.Name = p.newIdent(p.curToken)
	if !p.expectPeek("struct", token.LBRACE) {
		return nil
	}
	p.nextToken()
	for p.curTokenIs(token.NEWLINE) || p.curTokenIs(token.COMMA) {
		p.nextToken()
	}
	for !p.curTokenIs(token.RBRACE) {
		if !p.curTokenIs(token.IDENT) {
			return p.setTokenError(p.curToken, "unexpected %s while parsing struct (expected field name)",
				tokenDescription(p.curToken))
		}
		stmt.Fields = append(stmt.Fields, p.newIdent(p.curToken))
		p.nextToken()
		for p.curTokenIs(token.NEWLINE) || p.curTokenIs(token.COMMA) {
			p.nextToken()
		}
	}
	stmt.Rbrace = p.curToken.StartPosition
	return stmt
}

// parseBlock parses statements up to the matching right brace. The current
// token must be the left brace.
func (p *Parser) parseBlock() *ast.Block {
	block := &ast.Block{Lbrace: p.curToken.StartPosition}
	p.nextToken()
	for !p.curTokenIs(token.RBRACE) {
		if p.curTokenIs(token.EOF) {
			p.setTokenError(p.curToken, "unterminated block (expected \"}\")")
			return nil
		}
		stmt := p.parseStatementStrict()
		if stmt != nil {
			block.Stmts = append(block.Stmts, stmt)
		} else if p.hadNewError() {
			return nil
		}
		p.nextToken()
	}
	block.Rbrace = p.curToken.StartPosition
	return block
}
