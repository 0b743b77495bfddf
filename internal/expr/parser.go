package expr

import (
	"fmt"
	"strconv"
	"strings"
)

// Operator precedence, loosest first.
const (
	precLowest = iota
	precOr
	precAnd
	precCompare
	precSum
	precProduct
	precPower
	precUnary
)

var precedences = map[TokenType]int{
	TokenOr:    precOr,
	TokenAnd:   precAnd,
	TokenEq:    precCompare,
	TokenNeq:   precCompare,
	TokenLt:    precCompare,
	TokenLte:   precCompare,
	TokenGt:    precCompare,
	TokenGte:   precCompare,
	TokenPlus:  precSum,
	TokenMinus: precSum,
	TokenStar:  precProduct,
	TokenSlash: precProduct,
	TokenCaret: precPower,
}

// Parser builds an equation tree from source text.
type Parser struct {
	lexer *Lexer
	cur   Token
	peek  Token
	src   string
}

// Parse parses one equation and returns its tree.
func Parse(src string) (Node, error) {
	p := &Parser{lexer: NewLexer(src), src: src}
	p.next()
	p.next()
	if p.cur.Type == TokenEOF {
		return nil, fmt.Errorf("expr: empty equation")
	}
	node, err := p.parseExpr(precLowest)
	if err != nil {
		return nil, err
	}
	if p.cur.Type != TokenEOF {
		return nil, p.errorf("unexpected %q", p.cur.Literal)
	}
	return node, nil
}

func (p *Parser) next() {
	p.cur = p.peek
	p.peek = p.lexer.NextToken()
}

func (p *Parser) errorf(format string, args ...interface{}) error {
	msg := fmt.Sprintf(format, args...)
	return fmt.Errorf("expr: %s at position %d in %q", msg, p.cur.Pos, p.src)
}

func (p *Parser) parseExpr(minPrec int) (Node, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		prec, isOp := precedences[p.cur.Type]
		if !isOp || prec <= minPrec {
			return left, nil
		}
		op := strings.ToLower(p.cur.Literal)
		if p.cur.Type == TokenEq {
			op = "="
		} else if p.cur.Type == TokenNeq {
			op = "<>"
		}
		tokType := p.cur.Type
		p.next()
		// ^ is right-associative
		nextMin := prec
		if tokType == TokenCaret {
			nextMin = prec - 1
		}
		right, err := p.parseExpr(nextMin)
		if err != nil {
			return nil, err
		}
		left = &Binary{Op: op, X: left, Y: right}
	}
}

func (p *Parser) parseUnary() (Node, error) {
	switch p.cur.Type {
	case TokenMinus:
		p.next()
		x, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &Unary{Op: "-", X: x}, nil
	case TokenNot:
		p.next()
		x, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &Unary{Op: "not", X: x}, nil
	}
	return p.parsePrimary()
}

func (p *Parser) parsePrimary() (Node, error) {
	switch p.cur.Type {
	case TokenNumber:
		val, err := strconv.ParseFloat(p.cur.Literal, 64)
		if err != nil {
			return nil, p.errorf("bad number %q", p.cur.Literal)
		}
		p.next()
		return &Number{Value: val}, nil

	case TokenIdent:
		name := strings.ToLower(p.cur.Literal)
		p.next()
		if p.cur.Type != TokenLParen {
			return &Ref{Name: name}, nil
		}
		p.next()
		args, err := p.parseArgs()
		if err != nil {
			return nil, err
		}
		return &Call{Name: name, Args: args}, nil

	case TokenLParen:
		p.next()
		inner, err := p.parseExpr(precLowest)
		if err != nil {
			return nil, err
		}
		if p.cur.Type != TokenRParen {
			return nil, p.errorf("expected ')', got %q", p.cur.Literal)
		}
		p.next()
		return inner, nil

	case TokenEOF:
		return nil, p.errorf("unexpected end of equation")
	}
	return nil, p.errorf("unexpected %q", p.cur.Literal)
}

func (p *Parser) parseArgs() ([]Node, error) {
	args := make([]Node, 0, 2)
	if p.cur.Type == TokenRParen {
		p.next()
		return args, nil
	}
	for {
		arg, err := p.parseExpr(precLowest)
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
		switch p.cur.Type {
		case TokenComma:
			p.next()
		case TokenRParen:
			p.next()
			return args, nil
		default:
			return nil, p.errorf("expected ',' or ')', got %q", p.cur.Literal)
		}
	}
}
