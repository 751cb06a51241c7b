package formula

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// TokenKind classifies a formula token.
type TokenKind int

const (
	TokenNumber TokenKind = iota
	TokenIdent
	TokenOp
	TokenLParen
	TokenRParen
	TokenComma
)

// Token is one lexical unit of a formula string.
type Token struct {
	Kind  TokenKind
	Text  string
	Value float64 // set for TokenNumber
	Pos   int
}

// ParseError marks a formula that cannot be tokenized or parsed. The engine
// maps it to the formula_parse_error message.
type ParseError struct {
	Pos int
	Msg string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("formula parse error at %d: %s", e.Pos, e.Msg)
}

// Tokenize splits a formula into tokens. Identifiers may contain letters,
// digits, underscores and dots (dots allow the math.* function namespace).
// Anything else besides numbers, arithmetic operators, parentheses and
// commas is rejected: no other syntax is ever interpretable, which is what
// keeps the evaluator safe.
func Tokenize(expr string) ([]Token, error) {
	var tokens []Token
	runes := []rune(expr)

	i := 0
	for i < len(runes) {
		r := runes[i]

		switch {
		case unicode.IsSpace(r):
			i++

		case r == '(':
			tokens = append(tokens, Token{Kind: TokenLParen, Text: "(", Pos: i})
			i++
		case r == ')':
			tokens = append(tokens, Token{Kind: TokenRParen, Text: ")", Pos: i})
			i++
		case r == ',':
			tokens = append(tokens, Token{Kind: TokenComma, Text: ",", Pos: i})
			i++

		case r == '+' || r == '-' || r == '*' || r == '/' || r == '%':
			tokens = append(tokens, Token{Kind: TokenOp, Text: string(r), Pos: i})
			i++

		case unicode.IsDigit(r):
			start := i
			for i < len(runes) && (unicode.IsDigit(runes[i]) || runes[i] == '.') {
				i++
			}
			text := string(runes[start:i])
			v, err := strconv.ParseFloat(text, 64)
			if err != nil {
				return nil, &ParseError{Pos: start, Msg: fmt.Sprintf("invalid number %q", text)}
			}
			tokens = append(tokens, Token{Kind: TokenNumber, Text: text, Value: v, Pos: start})

		case unicode.IsLetter(r) || r == '_':
			start := i
			for i < len(runes) && isIdentRune(runes[i]) {
				i++
			}
			tokens = append(tokens, Token{Kind: TokenIdent, Text: string(runes[start:i]), Pos: start})

		default:
			return nil, &ParseError{Pos: i, Msg: fmt.Sprintf("unexpected character %q", string(r))}
		}
	}

	return tokens, nil
}

func isIdentRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || r == '.'
}

// Identifiers returns the distinct identifier tokens of a formula, excluding
// whitelisted function names. The catalog intersects the result with known
// metric ids to build dependency edges.
func Identifiers(expr string) ([]string, error) {
	tokens, err := Tokenize(expr)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var ids []string
	for _, tok := range tokens {
		if tok.Kind != TokenIdent {
			continue
		}
		if IsFunction(tok.Text) {
			continue
		}
		if !seen[tok.Text] {
			seen[tok.Text] = true
			ids = append(ids, tok.Text)
		}
	}
	return ids, nil
}

// IsFunction reports whether name is a whitelisted function.
func IsFunction(name string) bool {
	if _, ok := builtins[name]; ok {
		return true
	}
	if strings.HasPrefix(name, "math.") {
		_, ok := mathFuncs[name]
		return ok
	}
	return false
}
