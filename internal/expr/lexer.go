// Package expr implements the System Dynamics equation language: a closed
// expression representation (literals, references, arithmetic, comparisons,
// built-in functions, lookup application) with a direct tree interpreter.
package expr

import (
	"fmt"
	"strings"
)

// TokenType represents the type of a lexer token.
type TokenType int

const (
	TokenEOF TokenType = iota
	TokenNumber
	TokenIdent
	TokenPlus     // +
	TokenMinus    // -
	TokenStar     // *
	TokenSlash    // /
	TokenCaret    // ^
	TokenEq       // = or ==
	TokenNeq      // <> or !=
	TokenLt       // <
	TokenLte      // <=
	TokenGt       // >
	TokenGte      // >=
	TokenAnd      // and
	TokenOr       // or
	TokenNot      // not
	TokenLParen   // (
	TokenRParen   // )
	TokenComma    // ,
	TokenInvalid
)

// Token is a single lexed unit of an equation.
type Token struct {
	Type    TokenType
	Literal string
	Pos     int
}

func (t Token) String() string {
	return fmt.Sprintf("Token{%v, %q, %d}", t.Type, t.Literal, t.Pos)
}

// Lexer tokenizes equation source text.
type Lexer struct {
	input   string
	pos     int
	readPos int
	ch      byte
}

// NewLexer creates a lexer over input.
func NewLexer(input string) *Lexer {
	l := &Lexer{input: input}
	l.readChar()
	return l
}

func (l *Lexer) readChar() {
	if l.readPos >= len(l.input) {
		l.ch = 0
	} else {
		l.ch = l.input[l.readPos]
	}
	l.pos = l.readPos
	l.readPos++
}

func (l *Lexer) peekChar() byte {
	if l.readPos >= len(l.input) {
		return 0
	}
	return l.input[l.readPos]
}

func (l *Lexer) skipWhitespace() {
	for l.ch == ' ' || l.ch == '\t' || l.ch == '\n' || l.ch == '\r' {
		l.readChar()
	}
}

// NextToken returns the next token from the input.
func (l *Lexer) NextToken() Token {
	l.skipWhitespace()

	pos := l.pos
	switch l.ch {
	case 0:
		return Token{Type: TokenEOF, Pos: pos}
	case '+':
		l.readChar()
		return Token{Type: TokenPlus, Literal: "+", Pos: pos}
	case '-':
		l.readChar()
		return Token{Type: TokenMinus, Literal: "-", Pos: pos}
	case '*':
		l.readChar()
		return Token{Type: TokenStar, Literal: "*", Pos: pos}
	case '/':
		l.readChar()
		return Token{Type: TokenSlash, Literal: "/", Pos: pos}
	case '^':
		l.readChar()
		return Token{Type: TokenCaret, Literal: "^", Pos: pos}
	case '(':
		l.readChar()
		return Token{Type: TokenLParen, Literal: "(", Pos: pos}
	case ')':
		l.readChar()
		return Token{Type: TokenRParen, Literal: ")", Pos: pos}
	case ',':
		l.readChar()
		return Token{Type: TokenComma, Literal: ",", Pos: pos}
	case '=':
		l.readChar()
		if l.ch == '=' {
			l.readChar()
			return Token{Type: TokenEq, Literal: "==", Pos: pos}
		}
		return Token{Type: TokenEq, Literal: "=", Pos: pos}
	case '!':
		if l.peekChar() == '=' {
			l.readChar()
			l.readChar()
			return Token{Type: TokenNeq, Literal: "!=", Pos: pos}
		}
	case '<':
		l.readChar()
		switch l.ch {
		case '=':
			l.readChar()
			return Token{Type: TokenLte, Literal: "<=", Pos: pos}
		case '>':
			l.readChar()
			return Token{Type: TokenNeq, Literal: "<>", Pos: pos}
		}
		return Token{Type: TokenLt, Literal: "<", Pos: pos}
	case '>':
		l.readChar()
		if l.ch == '=' {
			l.readChar()
			return Token{Type: TokenGte, Literal: ">=", Pos: pos}
		}
		return Token{Type: TokenGt, Literal: ">", Pos: pos}
	}

	if isDigit(l.ch) || (l.ch == '.' && isDigit(l.peekChar())) {
		return l.readNumber()
	}
	if isIdentStart(l.ch) {
		return l.readIdent()
	}

	bad := string(l.ch)
	l.readChar()
	return Token{Type: TokenInvalid, Literal: bad, Pos: pos}
}

func (l *Lexer) readNumber() Token {
	pos := l.pos
	for isDigit(l.ch) || l.ch == '.' {
		l.readChar()
	}
	if l.ch == 'e' || l.ch == 'E' {
		// scientific notation needs a digit after an optional sign
		if isDigit(l.peekChar()) {
			l.readChar()
			for isDigit(l.ch) {
				l.readChar()
			}
		} else if l.peekChar() == '+' || l.peekChar() == '-' {
			l.readChar()
			l.readChar()
			for isDigit(l.ch) {
				l.readChar()
			}
		}
	}
	return Token{Type: TokenNumber, Literal: l.input[pos:l.pos], Pos: pos}
}

func (l *Lexer) readIdent() Token {
	pos := l.pos
	for isIdentStart(l.ch) || isDigit(l.ch) {
		l.readChar()
	}
	lit := l.input[pos:l.pos]
	switch strings.ToLower(lit) {
	case "and":
		return Token{Type: TokenAnd, Literal: lit, Pos: pos}
	case "or":
		return Token{Type: TokenOr, Literal: lit, Pos: pos}
	case "not":
		return Token{Type: TokenNot, Literal: lit, Pos: pos}
	}
	return Token{Type: TokenIdent, Literal: lit, Pos: pos}
}

func isDigit(ch byte) bool { return ch >= '0' && ch <= '9' }

func isIdentStart(ch byte) bool {
	return ch == '_' || (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}
