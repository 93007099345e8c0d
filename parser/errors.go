package parser

import (
	"fmt"
	"strings"

	"github.com/deepnoodle-ai/peek/ast"
	"github.com/deepnoodle-ai/peek/errz"
	"github.com/deepnoodle-ai/peek/internal/token"
	"github.com/hashicorp/go-multierror"
)

// MaxErrors is the maximum number of errors to collect before stopping.
const MaxErrors = 10

// newErrorList wraps the syntax errors found in one input. The individual
// errors are *errz.StructuredError values of kind errz.ErrSyntax.
func newErrorList(errs []error) error {
	return &multierror.Error{Errors: errs, ErrorFormat: formatErrors}
}

func formatErrors(errs []error) string {
	msgs := make([]string, 0, len(errs))
	for _, err := range errs {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

func (p *Parser) location(t token.Token) errz.SourceLocation {
	return errz.SourceLocation{
		Filename: p.l.Filename(),
		Line:     t.StartPosition.LineNumber(),
		Column:   t.StartPosition.ColumnNumber(),
		Source:   p.l.GetLineText(t),
	}
}

func (p *Parser) setTokenError(t token.Token, msg string, args ...any) ast.Node {
	p.errors = append(p.errors, errz.NewStructuredErrorf(errz.ErrSyntax, p.location(t), nil, msg, args...))
	return nil
}

// peekError records an error when the next token is not the expected type.
func (p *Parser) peekError(context string, expected token.Type, got token.Token) {
	p.setTokenError(got, "unexpected %s while parsing %s (expected %s)",
		tokenDescription(got), context, tokenTypeDescription(expected))
}

func (p *Parser) noPrefixParseFnError(t token.Token) {
	p.setTokenError(t, "invalid syntax (unexpected %s)", tokenDescription(t))
}

func tokenDescription(t token.Token) string {
	switch t.Type {
	case token.EOF:
		return "end of input"
	case token.NEWLINE:
		return "newline"
	case token.STRING:
		return fmt.Sprintf("string %q", t.Literal)
	}
	return fmt.Sprintf("%q", t.Literal)
}

func tokenTypeDescription(t token.Type) string {
	switch t {
	case token.EOF:
		return "end of input"
	case token.NEWLINE:
		return "newline"
	case token.IDENT:
		return "identifier"
	}
	return fmt.Sprintf("%q", string(t))
}
