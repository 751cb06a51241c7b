package formula

import (
	"testing"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		name    string
		expr    string
		want    int // expected token count
		wantErr bool
	}{
		{
			name: "simple arithmetic",
			expr: "a + b * 2",
			want: 5,
		},
		{
			name: "function call",
			expr: "max(a, b)",
			want: 6,
		},
		{
			name: "math namespace",
			expr: "math.sqrt(x)",
			want: 4,
		},
		{
			name: "decimal number",
			expr: "x / 1.5",
			want: 3,
		},
		{
			name:    "rejected comparison operator",
			expr:    "a > b",
			wantErr: true,
		},
		{
			name:    "rejected string literal",
			expr:    `a + "b"`,
			wantErr: true,
		},
		{
			name:    "rejected index syntax",
			expr:    "a[0]",
			wantErr: true,
		},
		{
			name:    "invalid number",
			expr:    "1.2.3",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokens, err := Tokenize(tt.expr)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Tokenize(%q) error = %v, wantErr %v", tt.expr, err, tt.wantErr)
			}
			if !tt.wantErr && len(tokens) != tt.want {
				t.Errorf("Tokenize(%q) got %d tokens, want %d", tt.expr, len(tokens), tt.want)
			}
		})
	}
}

func TestIdentifiers(t *testing.T) {
	tests := []struct {
		name string
		expr string
		want []string
	}{
		{
			name: "plain identifiers",
			expr: "net_income_ttm / revenue_ttm * 100",
			want: []string{"net_income_ttm", "revenue_ttm"},
		},
		{
			name: "function names excluded",
			expr: "max(a, abs(b))",
			want: []string{"a", "b"},
		},
		{
			name: "math namespace excluded",
			expr: "math.sqrt(variance)",
			want: []string{"variance"},
		},
		{
			name: "duplicates collapsed",
			expr: "a + a * a",
			want: []string{"a"},
		},
		{
			name: "numbers only",
			expr: "1 + 2",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Identifiers(tt.expr)
			if err != nil {
				t.Fatalf("Identifiers(%q) error: %v", tt.expr, err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("Identifiers(%q) = %v, want %v", tt.expr, got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("Identifiers(%q)[%d] = %q, want %q", tt.expr, i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestIsFunction(t *testing.T) {
	for _, name := range []string{"abs", "min", "max", "sum", "len", "round", "float", "int", "math.sqrt", "math.pow"} {
		if !IsFunction(name) {
			t.Errorf("IsFunction(%q) = false, want true", name)
		}
	}
	for _, name := range []string{"eval", "exec", "math.unknown", "revenue_ttm"} {
		if IsFunction(name) {
			t.Errorf("IsFunction(%q) = true, want false", name)
		}
	}
}
