package catalog

import (
	"errors"
	"strings"
	"testing"

	"github.com/5ys-5y5/alsign-sub001/internal/contracts"
)

func apiField(id, domain, key string) contracts.MetricDefinition {
	return contracts.MetricDefinition{
		ID:          id,
		SourceKind:  contracts.SourceAPIField,
		Domain:      domain,
		ResponseKey: key,
	}
}

func aggregation(id, domain, base string, kind contracts.AggregationKind) contracts.MetricDefinition {
	return contracts.MetricDefinition{
		ID:              id,
		SourceKind:      contracts.SourceAggregation,
		Domain:          domain,
		BaseMetricID:    base,
		AggregationKind: kind,
	}
}

func expression(id, domain, expr string) contracts.MetricDefinition {
	return contracts.MetricDefinition{
		ID:         id,
		SourceKind: contracts.SourceExpression,
		Domain:     domain,
		Expression: expr,
	}
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name    string
		defs    []contracts.MetricDefinition
		wantErr string
	}{
		{
			name:    "missing id",
			defs:    []contracts.MetricDefinition{apiField("", "internal", "x")},
			wantErr: "required",
		},
		{
			name: "duplicate id",
			defs: []contracts.MetricDefinition{
				apiField("revenue", "internal", "revenue"),
				apiField("revenue", "internal", "revenue"),
			},
			wantErr: "duplicate id",
		},
		{
			name:    "unknown source kind",
			defs:    []contracts.MetricDefinition{{ID: "x", SourceKind: "magic", Domain: "internal"}},
			wantErr: "unknown source kind",
		},
		{
			name:    "malformed domain",
			defs:    []contracts.MetricDefinition{apiField("x", "NotADomain", "x")},
			wantErr: "malformed domain",
		},
		{
			name:    "domain without group",
			defs:    []contracts.MetricDefinition{apiField("x", "growth", "x")},
			wantErr: "malformed domain",
		},
		{
			name:    "aggregation without base",
			defs:    []contracts.MetricDefinition{aggregation("x_ttm", "fin-growth", "", contracts.AggTTM)},
			wantErr: "requires base_metric",
		},
		{
			name: "aggregation with unknown kind",
			defs: []contracts.MetricDefinition{
				apiField("x", "internal", "x"),
				aggregation("x_agg", "fin-growth", "x", "median"),
			},
			wantErr: "unknown aggregation kind",
		},
		{
			name: "base metric does not exist",
			defs: []contracts.MetricDefinition{
				aggregation("x_ttm", "fin-growth", "ghost", contracts.AggTTM),
			},
			wantErr: `base_metric "ghost" does not exist`,
		},
		{
			name:    "expression without formula",
			defs:    []contracts.MetricDefinition{expression("x", "fin-growth", "")},
			wantErr: "requires a formula",
		},
		{
			name:    "unparseable formula",
			defs:    []contracts.MetricDefinition{expression("x", "fin-growth", "a > b")},
			wantErr: "unparseable formula",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(tt.defs)
			if err == nil {
				t.Fatalf("Load() expected error containing %q, got nil", tt.wantErr)
			}
			var vErr ValidationError
			if !errors.As(err, &vErr) {
				t.Fatalf("Load() error = %T, want ValidationError", err)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Load() error = %q, want substring %q", err.Error(), tt.wantErr)
			}
		})
	}
}

func TestLoadAcceptsValidDomains(t *testing.T) {
	defs := []contracts.MetricDefinition{
		apiField("a", "internal", "a"),
		apiField("b", "internal(helper)", "b"),
		apiField("c", "fin-growth", "c"),
		apiField("d", "fin2-cash_flow", "d"),
	}
	if _, err := Load(defs); err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}
}

func TestLoadDetectsCycle(t *testing.T) {
	defs := []contracts.MetricDefinition{
		expression("a", "fin-growth", "b + 1"),
		expression("b", "fin-growth", "a + 1"),
	}

	_, err := Load(defs)
	if err == nil {
		t.Fatal("Load() expected cycle error, got nil")
	}
	if !strings.Contains(err.Error(), contracts.MsgCycleDetected) {
		t.Errorf("Load() error = %q, want cycle_detected", err.Error())
	}
}

func TestLoadDetectsSelfCycle(t *testing.T) {
	defs := []contracts.MetricDefinition{
		expression("a", "fin-growth", "a * 2"),
	}

	_, err := Load(defs)
	if err == nil {
		t.Fatal("Load() expected cycle error, got nil")
	}
	if !strings.Contains(err.Error(), contracts.MsgCycleDetected) {
		t.Errorf("Load() error = %q, want cycle_detected", err.Error())
	}
}

func TestOrderRespectsDependencies(t *testing.T) {
	// Declared deliberately backwards: the dependents come first.
	defs := []contracts.MetricDefinition{
		expression("margin", "fin-profitability", "income_ttm / revenue_ttm"),
		aggregation("income_ttm", "internal", "net_income", contracts.AggTTM),
		aggregation("revenue_ttm", "fin-growth", "revenue", contracts.AggTTM),
		apiField("net_income", "internal", "net_income"),
		apiField("revenue", "internal", "revenue"),
	}

	cat, err := Load(defs)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	pos := make(map[string]int)
	for i, id := range cat.Order() {
		pos[id] = i
	}

	for metric, deps := range map[string][]string{
		"income_ttm":  {"net_income"},
		"revenue_ttm": {"revenue"},
		"margin":      {"income_ttm", "revenue_ttm"},
	} {
		for _, dep := range deps {
			if pos[dep] >= pos[metric] {
				t.Errorf("order: %s (pos %d) must come after %s (pos %d)", metric, pos[metric], dep, pos[dep])
			}
		}
	}
}

func TestOrderIsDeterministic(t *testing.T) {
	defs := []contracts.MetricDefinition{
		apiField("c", "internal", "c"),
		apiField("a", "internal", "a"),
		apiField("b", "internal", "b"),
	}

	cat, err := Load(defs)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	// Independent metrics keep catalog insertion order.
	want := []string{"c", "a", "b"}
	got := cat.Order()
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Order() = %v, want %v", got, want)
		}
	}

	for i := 0; i < 10; i++ {
		cat2, err := Load(defs)
		if err != nil {
			t.Fatalf("Load() error: %v", err)
		}
		for j := range got {
			if cat2.Order()[j] != got[j] {
				t.Fatalf("Order() not deterministic: %v vs %v", cat2.Order(), got)
			}
		}
	}
}

func TestDependencyAccessors(t *testing.T) {
	defs := []contracts.MetricDefinition{
		apiField("revenue", "internal", "revenue"),
		aggregation("revenue_ttm", "fin-growth", "revenue", contracts.AggTTM),
		expression("double", "fin-growth", "revenue_ttm * 2"),
	}

	cat, err := Load(defs)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if deps := cat.DependenciesOf("revenue_ttm"); len(deps) != 1 || deps[0] != "revenue" {
		t.Errorf("DependenciesOf(revenue_ttm) = %v", deps)
	}
	if deps := cat.DependenciesOf("double"); len(deps) != 1 || deps[0] != "revenue_ttm" {
		t.Errorf("DependenciesOf(double) = %v", deps)
	}
	if dependents := cat.DependentsOf("revenue"); len(dependents) != 1 || dependents[0] != "revenue_ttm" {
		t.Errorf("DependentsOf(revenue) = %v", dependents)
	}
}

func TestExpressionLiteralsFormNoEdges(t *testing.T) {
	defs := []contracts.MetricDefinition{
		apiField("x", "internal", "x"),
		expression("scaled", "fin-growth", "x * 100 + abs(x)"),
	}

	cat, err := Load(defs)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	deps := cat.DependenciesOf("scaled")
	if len(deps) != 1 || deps[0] != "x" {
		t.Errorf("DependenciesOf(scaled) = %v, want [x]", deps)
	}
}
