package formula

import (
	"errors"
	"math"
	"testing"

	"github.com/5ys-5y5/alsign-sub001/internal/contracts"
)

func testLookup(env map[string]any) Lookup {
	return func(id string) (any, bool) {
		v, ok := env[id]
		return v, ok
	}
}

func TestEvaluate(t *testing.T) {
	env := map[string]any{
		"a":      10.0,
		"b":      4.0,
		"neg":    -3.0,
		"series": []contracts.SeriesPoint{{Value: 1}, {Value: 2}, {Value: 3}},
	}

	tests := []struct {
		name string
		expr string
		want float64
	}{
		{"addition", "a + b", 14},
		{"precedence", "a + b * 2", 18},
		{"parentheses", "(a + b) * 2", 28},
		{"division", "a / b", 2.5},
		{"modulo", "a % b", 2},
		{"unary minus", "-a + b", -6},
		{"abs", "abs(neg)", 3},
		{"min variadic", "min(a, b, 7)", 4},
		{"max over series", "max(series)", 3},
		{"sum over series", "sum(series)", 6},
		{"len of series", "len(series)", 3},
		{"round", "round(a / b)", 3},
		{"int truncates", "int(a / b)", 2},
		{"math.sqrt", "math.sqrt(b)", 2},
		{"math.pow", "math.pow(b, 2)", 16},
		{"nested", "round(100 * (a - b) / a) % 10", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Evaluate(tt.expr, testLookup(env))
			if err != nil {
				t.Fatalf("Evaluate(%q) error: %v", tt.expr, err)
			}
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Evaluate(%q) = %v, want %v", tt.expr, got, tt.want)
			}
		})
	}
}

func TestEvaluateErrors(t *testing.T) {
	env := map[string]any{
		"a":    10.0,
		"zero": 0.0,
		"null": nil,
	}

	tests := []struct {
		name      string
		expr      string
		wantParse bool
		wantEval  bool
		wantNull  bool
	}{
		{name: "empty formula", expr: "", wantParse: true},
		{name: "unknown identifier", expr: "a + missing", wantParse: true},
		{name: "unknown function", expr: "exec(a)", wantParse: true},
		{name: "dangling operator", expr: "a +", wantParse: true},
		{name: "unbalanced paren", expr: "(a + 1", wantParse: true},
		{name: "division by zero", expr: "a / zero", wantEval: true},
		{name: "modulo by zero", expr: "a % zero", wantEval: true},
		{name: "null operand", expr: "a + null", wantNull: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Evaluate(tt.expr, testLookup(env))
			if err == nil {
				t.Fatalf("Evaluate(%q) expected error, got nil", tt.expr)
			}

			var parseErr *ParseError
			var evalErr *EvalError
			switch {
			case tt.wantNull:
				if !errors.Is(err, ErrNull) {
					t.Errorf("Evaluate(%q) = %v, want ErrNull", tt.expr, err)
				}
			case tt.wantParse:
				if !errors.As(err, &parseErr) {
					t.Errorf("Evaluate(%q) = %v, want *ParseError", tt.expr, err)
				}
			case tt.wantEval:
				if !errors.As(err, &evalErr) {
					t.Errorf("Evaluate(%q) = %v, want *EvalError", tt.expr, err)
				}
			}
		})
	}
}

func TestEvaluateTrailingTokens(t *testing.T) {
	_, err := Evaluate("1 2", testLookup(nil))
	var parseErr *ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("expected *ParseError for trailing token, got %v", err)
	}
}
