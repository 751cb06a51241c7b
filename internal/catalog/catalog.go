package catalog

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/5ys-5y5/alsign-sub001/internal/contracts"
	"github.com/5ys-5y5/alsign-sub001/internal/formula"
)

// ValidationError is a fatal catalog defect: the whole run aborts rather than
// evaluating against a broken definition set.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// domainPattern matches "<class>-<group>" output domains. Helper metrics use
// "internal" or "internal(<qualifier>)" instead and are validated separately.
var (
	domainPattern   = regexp.MustCompile(`^[a-z][a-z0-9_]*-[a-z0-9_]+$`)
	internalPattern = regexp.MustCompile(`^internal(\([a-z0-9_]+\))?$`)
)

// Catalog is an immutable, validated metric definition set plus its
// dependency graph and evaluation order. It is built once per run and shared
// read-only across evaluations; a reload constructs a new Catalog, never
// mutates an existing one.
type Catalog struct {
	defs  []contracts.MetricDefinition
	byID  map[string]*contracts.MetricDefinition
	order map[string]int // catalog insertion order, used for tie-breaking

	deps       map[string][]string // metric -> metrics it depends on
	dependents map[string][]string // metric -> metrics that depend on it (reverse adjacency)

	topo []string // total evaluation order
}

// Load validates a definition set and builds the dependency graph and
// evaluation order. Any error here is fatal for the run.
func Load(defs []contracts.MetricDefinition) (*Catalog, error) {
	c := &Catalog{
		defs:       make([]contracts.MetricDefinition, len(defs)),
		byID:       make(map[string]*contracts.MetricDefinition, len(defs)),
		order:      make(map[string]int, len(defs)),
		deps:       make(map[string][]string, len(defs)),
		dependents: make(map[string][]string, len(defs)),
	}
	copy(c.defs, defs)

	for i := range c.defs {
		def := &c.defs[i]
		if def.ID == "" {
			return nil, ValidationError{fmt.Sprintf("metrics[%d].id", i), "required"}
		}
		if _, dup := c.byID[def.ID]; dup {
			return nil, ValidationError{fmt.Sprintf("metrics[%d].id", i), fmt.Sprintf("duplicate id %q", def.ID)}
		}
		c.byID[def.ID] = def
		c.order[def.ID] = i
	}

	for i := range c.defs {
		if err := c.validateDef(&c.defs[i]); err != nil {
			return nil, err
		}
	}

	if err := c.buildGraph(); err != nil {
		return nil, err
	}

	if err := c.detectCycle(); err != nil {
		return nil, err
	}

	topo, err := c.resolveOrder()
	if err != nil {
		return nil, err
	}
	c.topo = topo

	return c, nil
}

func (c *Catalog) validateDef(def *contracts.MetricDefinition) error {
	field := "metric " + def.ID

	switch def.SourceKind {
	case contracts.SourceAPIField, contracts.SourceAggregation, contracts.SourceExpression:
	default:
		return ValidationError{field, fmt.Sprintf("unknown source kind %q", def.SourceKind)}
	}

	if !domainPattern.MatchString(def.Domain) && !internalPattern.MatchString(def.Domain) {
		return ValidationError{field, fmt.Sprintf("malformed domain %q", def.Domain)}
	}

	if def.SourceKind == contracts.SourceAggregation {
		if def.BaseMetricID == "" {
			return ValidationError{field, "aggregation metric requires base_metric"}
		}
		switch def.AggregationKind {
		case contracts.AggTTM, contracts.AggQoQ, contracts.AggYoY, contracts.AggAvg, contracts.AggLast:
		default:
			return ValidationError{field, fmt.Sprintf("unknown aggregation kind %q", def.AggregationKind)}
		}
	}

	if def.BaseMetricID != "" {
		if _, ok := c.byID[def.BaseMetricID]; !ok {
			return ValidationError{field, fmt.Sprintf("base_metric %q does not exist", def.BaseMetricID)}
		}
	}

	if def.SourceKind == contracts.SourceExpression && def.Expression == "" {
		return ValidationError{field, "expression metric requires a formula"}
	}

	return nil
}

// buildGraph derives dependency edges: aggregation metrics depend on their
// base metric; expression metrics depend on every identifier in the formula
// that names a known metric id. Whitelisted function names and numeric
// literals never form edges.
func (c *Catalog) buildGraph() error {
	for i := range c.defs {
		def := &c.defs[i]

		var deps []string
		switch def.SourceKind {
		case contracts.SourceAggregation:
			deps = []string{def.BaseMetricID}

		case contracts.SourceExpression:
			idents, err := formula.Identifiers(def.Expression)
			if err != nil {
				return ValidationError{"metric " + def.ID, fmt.Sprintf("unparseable formula: %v", err)}
			}
			for _, ident := range idents {
				if _, known := c.byID[ident]; known {
					deps = append(deps, ident)
				}
			}
		}

		c.deps[def.ID] = deps
		for _, dep := range deps {
			c.dependents[dep] = append(c.dependents[dep], def.ID)
		}
	}
	return nil
}

// detectCycle rejects definition sets whose dependency edges do not form a
// DAG. DFS with a three-color marking; the resolver independently re-checks
// via leftover in-degrees.
func (c *Catalog) detectCycle() error {
	const (
		white = 0 // unvisited
		gray  = 1 // on the current path
		black = 2 // fully explored
	)
	color := make(map[string]int, len(c.defs))

	var visit func(id string, path []string) error
	visit = func(id string, path []string) error {
		color[id] = gray
		path = append(path, id)

		for _, dep := range c.deps[id] {
			switch color[dep] {
			case gray:
				return ValidationError{
					Field:   "metric " + dep,
					Message: contracts.MsgCycleDetected + ": " + strings.Join(append(path, dep), " -> "),
				}
			case white:
				if err := visit(dep, path); err != nil {
					return err
				}
			}
		}

		color[id] = black
		return nil
	}

	for i := range c.defs {
		if id := c.defs[i].ID; color[id] == white {
			if err := visit(id, nil); err != nil {
				return err
			}
		}
	}
	return nil
}

// Get returns the definition for id.
func (c *Catalog) Get(id string) (*contracts.MetricDefinition, bool) {
	def, ok := c.byID[id]
	return def, ok
}

// Definitions returns the definitions in catalog insertion order.
func (c *Catalog) Definitions() []contracts.MetricDefinition {
	return c.defs
}

// Order returns the total evaluation order: every metric appears after all of
// its transitive dependencies.
func (c *Catalog) Order() []string {
	return c.topo
}

// DependenciesOf returns the direct dependencies of a metric.
func (c *Catalog) DependenciesOf(id string) []string {
	return c.deps[id]
}

// DependentsOf returns the metrics that directly depend on id.
func (c *Catalog) DependentsOf(id string) []string {
	return c.dependents[id]
}

// Len returns the number of definitions.
func (c *Catalog) Len() int {
	return len(c.defs)
}
