package engine

import (
	"strings"

	"github.com/5ys-5y5/alsign-sub001/internal/contracts"
)

// extractAPIField resolves an api_field metric against the event's raw
// bundle. Records are point-in-time filtered here, before anything downstream
// can see them. Missing payloads are skipped rather than failed: the caller
// simply never fetched that field for this event.
func extractAPIField(def *contracts.MetricDefinition, ev *contracts.EventContext) *contracts.ComputedValue {
	raw, ok := ev.Raw[def.ID]
	if !ok {
		return contracts.Skip(contracts.MsgNoValidData)
	}

	switch {
	case raw.Records != nil:
		return extractFromRecords(def, raw.Records, ev)
	case raw.Scalar != nil:
		return contracts.Succeed(*raw.Scalar)
	case raw.Object != nil:
		return extractFromObject(def, raw.Object)
	}
	return contracts.Skip(contracts.MsgNoValidData)
}

func extractFromRecords(def *contracts.MetricDefinition, records []contracts.QuarterlyRecord, ev *contracts.EventContext) *contracts.ComputedValue {
	valid := FilterRecordsAsOf(records, ev.EventDate)
	if len(valid) == 0 {
		return contracts.Fail(contracts.MsgNoValidData)
	}

	switch {
	case def.ResponseKey != "":
		series := fieldSeries(valid, def.ResponseKey)
		if len(series) == 0 {
			return contracts.Fail(contracts.MsgNoValidData)
		}
		return contracts.Succeed(series)

	case def.ResponseKeys != nil:
		out := make(map[string]any, len(def.ResponseKeys))
		for alias, key := range def.ResponseKeys {
			series := fieldSeries(valid, key)
			if len(series) == 0 {
				continue
			}
			out[alias] = series
		}
		if len(out) == 0 {
			return contracts.Fail(contracts.MsgNoValidData)
		}
		return contracts.Succeed(out)
	}

	// No response key: the whole filtered list.
	return contracts.Succeed(valid)
}

func extractFromObject(def *contracts.MetricDefinition, obj map[string]any) *contracts.ComputedValue {
	payload := obj
	if def.ResponsePath != "" {
		nested, ok := walkPath(obj, def.ResponsePath)
		if !ok {
			return contracts.Fail(contracts.MsgNoValidData)
		}
		payload = nested
	}

	switch {
	case def.ResponseKey != "":
		v, ok := payload[def.ResponseKey]
		if !ok || v == nil {
			return contracts.Fail(contracts.MsgNoValidData)
		}
		return contracts.Succeed(coerce(v))

	case def.ResponseKeys != nil:
		out := make(map[string]any, len(def.ResponseKeys))
		for alias, key := range def.ResponseKeys {
			if v, ok := payload[key]; ok && v != nil {
				out[alias] = coerce(v)
			}
		}
		if len(out) == 0 {
			return contracts.Fail(contracts.MsgNoValidData)
		}
		return contracts.Succeed(out)
	}

	return contracts.Succeed(payload)
}

// fieldSeries projects one field out of the records, most recent first,
// skipping quarters where the field is absent.
func fieldSeries(records []contracts.QuarterlyRecord, key string) []contracts.SeriesPoint {
	series := make([]contracts.SeriesPoint, 0, len(records))
	for _, rec := range records {
		v, ok := rec.Fields[key]
		if !ok {
			continue
		}
		series = append(series, contracts.SeriesPoint{Date: rec.PeriodEnd, Value: v})
	}
	return series
}

// walkPath descends a dot-separated path into a nested payload.
func walkPath(obj map[string]any, path string) (map[string]any, bool) {
	current := obj
	for _, part := range strings.Split(path, ".") {
		next, ok := current[part]
		if !ok {
			return nil, false
		}
		nested, ok := next.(map[string]any)
		if !ok {
			return nil, false
		}
		current = nested
	}
	return current, true
}

// coerce normalizes JSON-decoded numbers so formulas see float64.
func coerce(v any) any {
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	case int64:
		return float64(n)
	}
	return v
}
