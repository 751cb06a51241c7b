package contracts

import (
	"strings"
	"time"
)

// SourceKind describes where a metric's value comes from.
type SourceKind string

const (
	SourceAPIField    SourceKind = "api_field"   // extracted from a raw provider payload
	SourceAggregation SourceKind = "aggregation" // derived from another metric's series
	SourceExpression  SourceKind = "expression"  // formula over already-computed metrics
)

// AggregationKind selects the aggregation function applied to a base series.
type AggregationKind string

const (
	AggTTM  AggregationKind = "ttm"
	AggQoQ  AggregationKind = "qoq"
	AggYoY  AggregationKind = "yoy"
	AggAvg  AggregationKind = "avg"
	AggLast AggregationKind = "last"
)

// Status represents the outcome of evaluating one metric for one event.
type Status string

const (
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
	StatusSkipped Status = "skipped"
)

// Per-metric diagnostic messages.
const (
	MsgNoValidData         = "no_valid_data"
	MsgInsufficientHistory = "insufficient_historical_data"
	MsgCalculationFailed   = "metric_calculation_failed"
	MsgFormulaParse        = "formula_parse_error"
	MsgPropagatedNull      = "propagated_null"
	MsgCycleDetected       = "cycle_detected"
)

// AggregationParams are per-definition policy knobs for aggregation metrics.
// Defaults (window=4 for ttm, min_points=5 for yoy) are applied by the
// aggregation functions themselves; nothing is inferred across kinds.
type AggregationParams struct {
	Window    int    `yaml:"window" json:"window,omitempty"`
	MinPoints int    `yaml:"min_points" json:"min_points,omitempty"`
	Mode      string `yaml:"mode" json:"mode,omitempty"` // "scale" permits partial-window scaling for ttm
	ScaleTo   int    `yaml:"scale_to" json:"scale_to,omitempty"`
}

// ScaleMode enables partial-window scaling when set on AggregationParams.Mode.
const ScaleMode = "scale"

// MetricDefinition is one entry of the metric catalog, stored as data.
type MetricDefinition struct {
	ID                string            `yaml:"id" json:"id"`
	SourceKind        SourceKind        `yaml:"source" json:"source"`
	Domain            string            `yaml:"domain" json:"domain"`
	BaseMetricID      string            `yaml:"base_metric" json:"base_metric,omitempty"`
	AggregationKind   AggregationKind   `yaml:"aggregation" json:"aggregation,omitempty"`
	AggregationParams AggregationParams `yaml:"aggregation_params" json:"aggregation_params,omitempty"`
	Expression        string            `yaml:"expression" json:"expression,omitempty"`
	ResponseKey       string            `yaml:"response_key" json:"response_key,omitempty"`
	ResponseKeys      map[string]string `yaml:"response_keys" json:"response_keys,omitempty"` // alias -> source key
	ResponsePath      string            `yaml:"response_path" json:"response_path,omitempty"` // dot path into a nested payload
}

// IsInternal reports whether the metric is a helper excluded from grouped
// output ("internal" or a qualified form like "internal(qual)").
func (d *MetricDefinition) IsInternal() bool {
	return d.Domain == "internal" || strings.HasPrefix(d.Domain, "internal(")
}

// GroupName returns the output group, the substring after the first '-'.
// Empty for internal metrics.
func (d *MetricDefinition) GroupName() string {
	if d.IsInternal() {
		return ""
	}
	if idx := strings.Index(d.Domain, "-"); idx >= 0 {
		return d.Domain[idx+1:]
	}
	return ""
}

// QuarterlyRecord is one fiscal quarter of raw fundamentals.
// Lists of records are supplied pre-sorted descending by PeriodEnd.
type QuarterlyRecord struct {
	PeriodEnd time.Time          `json:"period_end"`
	Fields    map[string]float64 `json:"fields"`
}

// SeriesPoint is one dated value extracted from a quarterly series,
// ordered most recent first.
type SeriesPoint struct {
	Date  time.Time `json:"date"`
	Value float64   `json:"value"`
}

// RawField is the pre-fetched payload for one api_field metric.
// Exactly one of the members is set.
type RawField struct {
	Records []QuarterlyRecord `json:"records,omitempty"`
	Scalar  *float64          `json:"scalar,omitempty"`
	Object  map[string]any    `json:"object,omitempty"`
}

// EventContext is the per-(ticker, event) input bundle. Raw is keyed by
// api_field metric id.
type EventContext struct {
	Ticker    string              `json:"ticker"`
	EventDate time.Time           `json:"event_date"`
	Raw       map[string]RawField `json:"raw"`
}

// Meta describes how an aggregated value was produced.
type Meta struct {
	DateRange [2]string `json:"dateRange"` // [oldest, newest], YYYY-MM-DD
	CalcType  string    `json:"calcType"`
	Count     int       `json:"count"`
}

// ComputedValue is the result of evaluating one metric for one event.
// Instances are created fresh per evaluation and never reused across events.
type ComputedValue struct {
	Status  Status `json:"status"`
	Value   any    `json:"value"` // float64, []SeriesPoint, map, or nil
	Message string `json:"message,omitempty"`
	Meta    *Meta  `json:"meta,omitempty"`
}

// Succeed builds a successful ComputedValue.
func Succeed(value any) *ComputedValue {
	return &ComputedValue{Status: StatusSuccess, Value: value}
}

// SucceedWithMeta builds a successful ComputedValue carrying aggregation meta.
func SucceedWithMeta(value any, meta *Meta) *ComputedValue {
	return &ComputedValue{Status: StatusSuccess, Value: value, Meta: meta}
}

// Fail builds a failed (null-valued) ComputedValue.
func Fail(message string) *ComputedValue {
	return &ComputedValue{Status: StatusFailed, Message: message}
}

// Skip builds a skipped ComputedValue, used when the input bundle carries no
// payload for a metric at all.
func Skip(message string) *ComputedValue {
	return &ComputedValue{Status: StatusSkipped, Message: message}
}

// IsNull reports whether the value is absent (failed, skipped, or nil value).
func (v *ComputedValue) IsNull() bool {
	return v == nil || v.Value == nil
}

// MetricStatus is the per-metric diagnostic entry of an EventResult.
type MetricStatus struct {
	Status  Status `json:"status"`
	Message string `json:"message,omitempty"`
}

// EventResult is the engine output for one (ticker, event) pair: the grouped
// document plus the per-metric status map.
type EventResult struct {
	Ticker    string                    `json:"ticker"`
	EventDate time.Time                 `json:"event_date"`
	Document  map[string]map[string]any `json:"document"` // group -> metric id -> value (+ "_meta")
	Statuses  map[string]MetricStatus   `json:"statuses"`
}

// SuccessCount returns how many metrics evaluated successfully.
func (r *EventResult) SuccessCount() int {
	n := 0
	for _, s := range r.Statuses {
		if s.Status == StatusSuccess {
			n++
		}
	}
	return n
}
