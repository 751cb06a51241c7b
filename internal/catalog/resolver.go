package catalog

import (
	"strings"

	"github.com/5ys-5y5/alsign-sub001/internal/contracts"
)

// resolveOrder produces the total evaluation order via Kahn's algorithm.
//
// Orientation matters and is easy to get backwards: the in-degree of a metric
// is the number of metrics IT DEPENDS ON, so the queue seeds with pure
// api_field metrics (in-degree 0) and dependents only become ready once every
// one of their inputs has been ordered. Dequeuing a metric decrements the
// in-degree of each metric that depends on it, via the reverse adjacency list
// built at graph construction.
func (c *Catalog) resolveOrder() ([]string, error) {
	inDegree := make(map[string]int, len(c.defs))
	for i := range c.defs {
		id := c.defs[i].ID
		inDegree[id] = len(c.deps[id])
	}

	// Seed with in-degree-0 metrics in catalog insertion order.
	var queue []string
	for i := range c.defs {
		if id := c.defs[i].ID; inDegree[id] == 0 {
			queue = append(queue, id)
		}
	}

	order := make([]string, 0, len(c.defs))
	for len(queue) > 0 {
		// Ties are broken by insertion order for determinism.
		best := 0
		for i := 1; i < len(queue); i++ {
			if c.order[queue[i]] < c.order[queue[best]] {
				best = i
			}
		}
		id := queue[best]
		queue = append(queue[:best], queue[best+1:]...)
		order = append(order, id)

		for _, dependent := range c.dependents[id] {
			inDegree[dependent]--
			if inDegree[dependent] == 0 {
				queue = append(queue, dependent)
			}
		}
	}

	// Anything un-visitable here is part of a cycle. Validation should have
	// rejected it already; this is the defensive double-check.
	if len(order) != len(c.defs) {
		var stuck []string
		for i := range c.defs {
			if id := c.defs[i].ID; inDegree[id] > 0 {
				stuck = append(stuck, id)
			}
		}
		return nil, ValidationError{
			Field:   "metrics",
			Message: contracts.MsgCycleDetected + ": " + strings.Join(stuck, ", "),
		}
	}

	return order, nil
}
