package engine

import (
	"github.com/5ys-5y5/alsign-sub001/internal/catalog"
	"github.com/5ys-5y5/alsign-sub001/internal/contracts"
)

// GroupByDomain assembles the nested output document: every metric whose
// domain is "<class>-<group>" lands under its group, keyed by metric id.
// Metrics with domain "internal"/"internal(...)" exist only as dependencies
// and never appear in the output. Each group carries a "_meta" entry mapping
// metric id to its aggregation meta, for members that produced one.
func GroupByDomain(cat *catalog.Catalog, values map[string]*contracts.ComputedValue) map[string]map[string]any {
	doc := make(map[string]map[string]any)
	metas := make(map[string]map[string]*contracts.Meta)

	for _, def := range cat.Definitions() {
		group := def.GroupName()
		if group == "" {
			continue
		}

		cv := values[def.ID]
		if cv == nil {
			continue
		}

		if doc[group] == nil {
			doc[group] = make(map[string]any)
			metas[group] = make(map[string]*contracts.Meta)
		}
		doc[group][def.ID] = cv.Value
		if cv.Meta != nil {
			metas[group][def.ID] = cv.Meta
		}
	}

	for group, groupMetas := range metas {
		meta := make(map[string]any, len(groupMetas))
		for id, m := range groupMetas {
			meta[id] = m
		}
		doc[group]["_meta"] = meta
	}

	return doc
}
