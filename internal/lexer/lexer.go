// Package lexer converts expression source text into tokens.
package lexer

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/deepnoodle-ai/peek/internal/token"
)

// Lexer holds the state of the tokenizer for a single input string.
type Lexer struct {
	input     string
	pos       int  // byte offset of ch
	nextPos   int  // byte offset of the character after ch
	ch        rune // current character, 0 at end of input
	line      int
	lineStart int
	file      string
}

// New returns a Lexer positioned at the start of input.
func New(input string) *Lexer {
	l := &Lexer{input: input}
	l.readChar()
	return l
}

// SetFilename sets the filename reported in token positions.
func (l *Lexer) SetFilename(file string) {
	l.file = file
}

// Filename returns the filename reported in token positions.
func (l *Lexer) Filename() string {
	return l.file
}

// Next returns the next token from the input. An ILLEGAL token is returned
// alongside a non-nil error when the input cannot be tokenized.
func (l *Lexer) Next() (token.Token, error) {
	l.skipWhitespace()
	start := l.position()
	ch := l.ch
	switch ch {
	case 0:
		return token.Token{Type: token.EOF, StartPosition: start, EndPosition: start}, nil
	case '\n':
		l.readChar()
		return l.newToken(token.NEWLINE, "\n", start), nil
	case '#':
		l.skipLine()
		return l.Next()
	case '/':
		switch l.peekChar() {
		case '/':
			l.skipLine()
			return l.Next()
		case '*':
			if err := l.skipBlockComment(); err != nil {
				return l.illegal(start), err
			}
			return l.Next()
		case '=':
			return l.twoCharToken(token.SLASH_EQUALS, start), nil
		}
		return l.oneCharToken(token.SLASH, start), nil
	case '=':
		switch l.peekChar() {
		case '=':
			return l.twoCharToken(token.EQ, start), nil
		case '>':
			return l.twoCharToken(token.ARROW, start), nil
		}
		return l.oneCharToken(token.ASSIGN, start), nil
	case '+':
		if l.peekChar() == '=' {
			return l.twoCharToken(token.PLUS_EQUALS, start), nil
		}
		return l.oneCharToken(token.PLUS, start), nil
	case '-':
		if l.peekChar() == '=' {
			return l.twoCharToken(token.MINUS_EQUALS, start), nil
		}
		return l.oneCharToken(token.MINUS, start), nil
	case '*':
		switch l.peekChar() {
		case '*':
			return l.twoCharToken(token.POW, start), nil
		case '=':
			return l.twoCharToken(token.ASTERISK_EQUALS, start), nil
		}
		return l.oneCharToken(token.ASTERISK, start), nil
	case '!':
		if l.peekChar() == '=' {
			return l.twoCharToken(token.NOT_EQ, start), nil
		}
		return l.oneCharToken(token.BANG, start), nil
	case '<':
		if l.peekChar() == '=' {
			return l.twoCharToken(token.LT_EQUALS, start), nil
		}
		return l.oneCharToken(token.LT, start), nil
	case '>':
		if l.peekChar() == '=' {
			return l.twoCharToken(token.GT_EQUALS, start), nil
		}
		return l.oneCharToken(token.GT, start), nil
	case '&':
		if l.peekChar() == '&' {
			return l.twoCharToken(token.AND, start), nil
		}
	case '|':
		if l.peekChar() == '|' {
			return l.twoCharToken(token.OR, start), nil
		}
	case '%':
		return l.oneCharToken(token.MOD, start), nil
	case '?':
		return l.oneCharToken(token.QUESTION, start), nil
	case ':':
		return l.oneCharToken(token.COLON, start), nil
	case ',':
		return l.oneCharToken(token.COMMA, start), nil
	case ';':
		return l.oneCharToken(token.SEMICOLON, start), nil
	case '.':
		return l.oneCharToken(token.PERIOD, start), nil
	case '(':
		return l.oneCharToken(token.LPAREN, start), nil
	case ')':
		return l.oneCharToken(token.RPAREN, start), nil
	case '{':
		return l.oneCharToken(token.LBRACE, start), nil
	case '}':
		return l.oneCharToken(token.RBRACE, start), nil
	case '[':
		return l.oneCharToken(token.LBRACKET, start), nil
	case ']':
		return l.oneCharToken(token.RBRACKET, start), nil
	case '"', '\'':
		value, err := l.readString(ch)
		if err != nil {
			return l.illegal(start), err
		}
		return l.newToken(token.STRING, value, start), nil
	default:
		if isIdentStart(ch) {
			ident := l.readIdentifier()
			return l.newToken(token.LookupIdentifier(ident), ident, start), nil
		}
		if isDigit(ch) {
			return l.readNumber(start)
		}
	}
	l.readChar()
	return l.illegal(start), fmt.Errorf("unexpected character %q", ch)
}

// GetLineText returns the full line of source text containing tok.
func (l *Lexer) GetLineText(tok token.Token) string {
	start := tok.StartPosition.LineStart
	if start > len(l.input) {
		return ""
	}
	line := l.input[start:]
	if end := strings.IndexByte(line, '\n'); end >= 0 {
		line = line[:end]
	}
	return strings.TrimRight(line, "\r")
}

func (l *Lexer) readChar() {
	if l.ch == '\n' {
		l.line++
		l.lineStart = l.nextPos
	}
	if l.nextPos >= len(l.input) {
		l.pos = len(l.input)
		l.ch = 0
		return
	}
	r, size := utf8.DecodeRuneInString(l.input[l.nextPos:])
	l.pos = l.nextPos
	l.nextPos += size
	l.ch = r
}

func (l *Lexer) peekChar() rune {
	if l.nextPos >= len(l.input) {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(l.input[l.nextPos:])
	return r
}

func (l *Lexer) position() token.Position {
	return token.Position{
		Char:      l.pos,
		LineStart: l.lineStart,
		Line:      l.line,
		Column:    l.pos - l.lineStart,
		File:      l.file,
	}
}

func (l *Lexer) newToken(typ token.Type, literal string, start token.Position) token.Token {
	return token.Token{
		Type:          typ,
		Literal:       literal,
		StartPosition: start,
		EndPosition:   l.position(),
	}
}

func (l *Lexer) illegal(start token.Position) token.Token {
	return l.newToken(token.ILLEGAL, l.input[start.Char:l.pos], start)
}

func (l *Lexer) oneCharToken(typ token.Type, start token.Position) token.Token {
	l.readChar()
	return l.newToken(typ, string(typ), start)
}

func (l *Lexer) twoCharToken(typ token.Type, start token.Position) token.Token {
	l.readChar()
	l.readChar()
	return l.newToken(typ, string(typ), start)
}

func (l *Lexer) skipWhitespace() {
	for l.ch == ' ' || l.ch == '\t' || l.ch == '\r' {
		l.readChar()
	}
}

func (l *Lexer) skipLine() {
	for l.ch != '\n' && l.ch != 0 {
		l.readChar()
	}
}

func (l *Lexer) skipBlockComment() error {
	l.readChar() // '/'
	l.readChar() // '*'
	for {
		switch {
		case l.ch == 0:
			return fmt.Errorf("unterminated block comment")
		case l.ch == '*' && l.peekChar() == '/':
			l.readChar()
			l.readChar()
			return nil
		}
		l.readChar()
	}
}

func (l *Lexer) readIdentifier() string {
	start := l.pos
	for isIdentStart(l.ch) || isDigit(l.ch) {
		l.readChar()
	}
	return l.input[start:l.pos]
}

func (l *Lexer) readNumber(start token.Position) (token.Token, error) {
	if l.ch == '0' && (l.peekChar() == 'x' || l.peekChar() == 'X') {
		l.readChar()
		l.readChar()
		if !isHexDigit(l.ch) {
			return l.illegal(start), fmt.Errorf("invalid hex literal %q", l.input[start.Char:l.pos])
		}
		for isHexDigit(l.ch) {
			l.readChar()
		}
		return l.finishNumber(token.INT, start)
	}
	typ := token.INT
	for isDigit(l.ch) {
		l.readChar()
	}
	if l.ch == '.' && isDigit(l.peekChar()) {
		typ = token.FLOAT
		l.readChar()
		for isDigit(l.ch) {
			l.readChar()
		}
	}
	if l.ch == 'e' || l.ch == 'E' {
		typ = token.FLOAT
		l.readChar()
		if l.ch == '+' || l.ch == '-' {
			l.readChar()
		}
		if !isDigit(l.ch) {
			return l.illegal(start), fmt.Errorf("invalid float literal %q", l.input[start.Char:l.pos])
		}
		for isDigit(l.ch) {
			l.readChar()
		}
	}
	return l.finishNumber(typ, start)
}

func (l *Lexer) finishNumber(typ token.Type, start token.Position) (token.Token, error) {
	if isIdentStart(l.ch) {
		for isIdentStart(l.ch) || isDigit(l.ch) {
			l.readChar()
		}
		return l.illegal(start), fmt.Errorf("invalid number literal %q", l.input[start.Char:l.pos])
	}
	return l.newToken(typ, l.input[start.Char:l.pos], start), nil
}

func (l *Lexer) readString(quote rune) (string, error) {
	var out strings.Builder
	l.readChar() // opening quote
	for {
		switch l.ch {
		case 0, '\n':
			return "", fmt.Errorf("unterminated string literal")
		case quote:
			l.readChar()
			return out.String(), nil
		case '\\':
			l.readChar()
			r, err := l.readEscape()
			if err != nil {
				return "", err
			}
			out.WriteRune(r)
			continue
		}
		out.WriteRune(l.ch)
		l.readChar()
	}
}

func (l *Lexer) readEscape() (rune, error) {
	ch := l.ch
	l.readChar()
	switch ch {
	case 'n':
		return '\n', nil
	case 't':
		return '\t', nil
	case 'r':
		return '\r', nil
	case '0':
		return 0, nil
	case '\\', '"', '\'':
		return ch, nil
	case 'u':
		var value rune
		for i := 0; i < 4; i++ {
			d, ok := hexValue(l.ch)
			if !ok {
				return 0, fmt.Errorf("invalid unicode escape sequence")
			}
			value = value*16 + d
			l.readChar()
		}
		return value, nil
	}
	return 0, fmt.Errorf("invalid escape sequence '\\%c'", ch)
}

func isIdentStart(ch rune) bool {
	return ch == '_' || unicode.IsLetter(ch)
}

func isDigit(ch rune) bool {
	return '0' <= ch && ch <= '9'
}

func isHexDigit(ch rune) bool {
	_, ok := hexValue(ch)
	return ok
}

func hexValue(ch rune) (rune, bool) {
	switch {
	case '0' <= ch && ch <= '9':
		return ch - '0', true
	case 'a' <= ch && ch <= 'f':
		return ch - 'a' + 10, true
	case 'A' <= ch && ch <= 'F':
		return ch - 'A' + 10, true
	}
	return 0, false
}
