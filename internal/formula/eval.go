package formula

import (
	"errors"
	"fmt"
	"math"

	"github.com/5ys-5y5/alsign-sub001/internal/contracts"
)

// ErrNull is returned when an identifier resolves to a null value. The engine
// normally pre-checks the environment and reports propagated_null before
// evaluation starts; this is the backstop for values that turn null mid-way.
var ErrNull = errors.New("null operand")

// EvalError marks a formula that parsed but could not be computed
// (division by zero, non-numeric operand). The engine maps it to the
// metric_calculation_failed message.
type EvalError struct {
	Msg string
}

func (e *EvalError) Error() string {
	return "formula evaluation error: " + e.Msg
}

// Lookup resolves an identifier to an already-computed value.
type Lookup func(id string) (any, bool)

// Evaluate computes a formula against a value environment. Only whitelisted
// functions, arithmetic operators and known identifiers are reachable; any
// other token yields a *ParseError.
func Evaluate(expr string, lookup Lookup) (float64, error) {
	tokens, err := Tokenize(expr)
	if err != nil {
		return 0, err
	}
	if len(tokens) == 0 {
		return 0, &ParseError{Pos: 0, Msg: "empty formula"}
	}

	p := &parser{tokens: tokens, lookup: lookup}
	v, err := p.parseExpr()
	if err != nil {
		return 0, err
	}
	if p.pos != len(p.tokens) {
		tok := p.tokens[p.pos]
		return 0, &ParseError{Pos: tok.Pos, Msg: fmt.Sprintf("unexpected token %q", tok.Text)}
	}

	f, ok := toNumber(v)
	if !ok {
		return 0, &EvalError{Msg: "formula result is not numeric"}
	}
	return f, nil
}

// parser is a recursive-descent evaluator: the grammar is small enough that
// parsing and evaluation happen in one pass over the token stream.
type parser struct {
	tokens []Token
	pos    int
	lookup Lookup
}

func (p *parser) peek() (Token, bool) {
	if p.pos >= len(p.tokens) {
		return Token{}, false
	}
	return p.tokens[p.pos], true
}

// parseExpr handles + and -.
func (p *parser) parseExpr() (any, error) {
	left, err := p.parseTerm()
	if err != nil {
		return nil, err
	}

	for {
		tok, ok := p.peek()
		if !ok || tok.Kind != TokenOp || (tok.Text != "+" && tok.Text != "-") {
			return left, nil
		}
		p.pos++

		right, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		left, err = applyBinary(tok.Text, left, right)
		if err != nil {
			return nil, err
		}
	}
}

// parseTerm handles *, / and %.
func (p *parser) parseTerm() (any, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}

	for {
		tok, ok := p.peek()
		if !ok || tok.Kind != TokenOp || (tok.Text != "*" && tok.Text != "/" && tok.Text != "%") {
			return left, nil
		}
		p.pos++

		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left, err = applyBinary(tok.Text, left, right)
		if err != nil {
			return nil, err
		}
	}
}

func (p *parser) parseUnary() (any, error) {
	tok, ok := p.peek()
	if ok && tok.Kind == TokenOp && (tok.Text == "-" || tok.Text == "+") {
		p.pos++
		v, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		f, okNum := toNumber(v)
		if !okNum {
			return nil, &EvalError{Msg: "unary operator on non-numeric value"}
		}
		if tok.Text == "-" {
			return -f, nil
		}
		return f, nil
	}
	return p.parsePrimary()
}

func (p *parser) parsePrimary() (any, error) {
	tok, ok := p.peek()
	if !ok {
		return nil, &ParseError{Pos: len(p.tokens), Msg: "unexpected end of formula"}
	}

	switch tok.Kind {
	case TokenNumber:
		p.pos++
		return tok.Value, nil

	case TokenLParen:
		p.pos++
		v, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if err := p.expect(TokenRParen); err != nil {
			return nil, err
		}
		return v, nil

	case TokenIdent:
		p.pos++
		if next, ok := p.peek(); ok && next.Kind == TokenLParen {
			if !IsFunction(tok.Text) {
				return nil, &ParseError{Pos: tok.Pos, Msg: fmt.Sprintf("unknown function %q", tok.Text)}
			}
			args, err := p.parseArgs()
			if err != nil {
				return nil, err
			}
			return callFunction(tok.Text, args)
		}

		// Plain identifier: must be an already-computed metric.
		v, found := p.lookup(tok.Text)
		if !found {
			return nil, &ParseError{Pos: tok.Pos, Msg: fmt.Sprintf("unknown identifier %q", tok.Text)}
		}
		if v == nil {
			return nil, ErrNull
		}
		return v, nil

	default:
		return nil, &ParseError{Pos: tok.Pos, Msg: fmt.Sprintf("unexpected token %q", tok.Text)}
	}
}

func (p *parser) parseArgs() ([]any, error) {
	if err := p.expect(TokenLParen); err != nil {
		return nil, err
	}

	var args []any
	if tok, ok := p.peek(); ok && tok.Kind == TokenRParen {
		p.pos++
		return args, nil
	}

	for {
		v, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		args = append(args, v)

		tok, ok := p.peek()
		if !ok {
			return nil, &ParseError{Pos: len(p.tokens), Msg: "unterminated argument list"}
		}
		switch tok.Kind {
		case TokenComma:
			p.pos++
		case TokenRParen:
			p.pos++
			return args, nil
		default:
			return nil, &ParseError{Pos: tok.Pos, Msg: fmt.Sprintf("unexpected token %q in arguments", tok.Text)}
		}
	}
}

func (p *parser) expect(kind TokenKind) error {
	tok, ok := p.peek()
	if !ok {
		return &ParseError{Pos: len(p.tokens), Msg: "unexpected end of formula"}
	}
	if tok.Kind != kind {
		return &ParseError{Pos: tok.Pos, Msg: fmt.Sprintf("unexpected token %q", tok.Text)}
	}
	p.pos++
	return nil
}

func applyBinary(op string, left, right any) (any, error) {
	l, okL := toNumber(left)
	r, okR := toNumber(right)
	if !okL || !okR {
		return nil, &EvalError{Msg: fmt.Sprintf("operator %q on non-numeric value", op)}
	}

	switch op {
	case "+":
		return l + r, nil
	case "-":
		return l - r, nil
	case "*":
		return l * r, nil
	case "/":
		if r == 0 {
			return nil, &EvalError{Msg: "division by zero"}
		}
		return l / r, nil
	case "%":
		if r == 0 {
			return nil, &EvalError{Msg: "modulo by zero"}
		}
		return math.Mod(l, r), nil
	}
	return nil, &EvalError{Msg: fmt.Sprintf("unsupported operator %q", op)}
}

func toNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

// toSlice flattens a series or numeric list into plain values.
func toSlice(v any) ([]float64, bool) {
	switch s := v.(type) {
	case []float64:
		return s, true
	case []contracts.SeriesPoint:
		out := make([]float64, len(s))
		for i, p := range s {
			out[i] = p.Value
		}
		return out, true
	case []any:
		out := make([]float64, 0, len(s))
		for _, e := range s {
			f, ok := toNumber(e)
			if !ok {
				return nil, false
			}
			out = append(out, f)
		}
		return out, true
	}
	return nil, false
}
