package engine

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"github.com/5ys-5y5/alsign-sub001/internal/catalog"
	"github.com/5ys-5y5/alsign-sub001/internal/contracts"
	"github.com/5ys-5y5/alsign-sub001/internal/formula"
)

// Engine evaluates the metric graph for market events. It holds a shared,
// immutable catalog; all per-event state lives in the evaluation call, so
// distinct events can be processed concurrently.
type Engine struct {
	cat *catalog.Catalog
	log zerolog.Logger
}

// New creates an engine over a loaded catalog.
func New(cat *catalog.Catalog, log zerolog.Logger) *Engine {
	return &Engine{
		cat: cat,
		log: log.With().Str("component", "engine").Logger(),
	}
}

// Catalog returns the engine's catalog.
func (e *Engine) Catalog() *catalog.Catalog {
	return e.cat
}

// EvaluateEvent computes every metric for one (ticker, event) pair, strictly
// in topological order so each dependency is available before its dependents.
// One metric failing records its status and moves on; it never aborts the
// siblings.
func (e *Engine) EvaluateEvent(ctx context.Context, ev contracts.EventContext) (*contracts.EventResult, error) {
	values := make(map[string]*contracts.ComputedValue, e.cat.Len())

	for _, id := range e.cat.Order() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		def, _ := e.cat.Get(id)
		values[id] = e.evaluate(def, &ev, values)
	}

	result := &contracts.EventResult{
		Ticker:    ev.Ticker,
		EventDate: ev.EventDate,
		Document:  GroupByDomain(e.cat, values),
		Statuses:  make(map[string]contracts.MetricStatus, len(values)),
	}
	for id, cv := range values {
		result.Statuses[id] = contracts.MetricStatus{Status: cv.Status, Message: cv.Message}
	}

	e.log.Debug().
		Str("ticker", ev.Ticker).
		Time("event_date", ev.EventDate).
		Int("metrics", len(values)).
		Int("success", result.SuccessCount()).
		Msg("event evaluated")

	return result, nil
}

// EvaluateBatch runs independent events through a bounded worker pool. The
// bound is caller policy (typically constrained by upstream provider limits);
// results keep the input order. Evaluation within one event stays sequential.
func (e *Engine) EvaluateBatch(ctx context.Context, events []contracts.EventContext, workers int) ([]*contracts.EventResult, error) {
	if workers <= 0 {
		workers = 1
	}
	if workers > len(events) {
		workers = len(events)
	}

	results := make([]*contracts.EventResult, len(events))
	jobs := make(chan int, len(events))

	var wg sync.WaitGroup
	var mu sync.Mutex
	var firstErr error

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				res, err := e.EvaluateEvent(ctx, events[idx])
				if err != nil {
					mu.Lock()
					if firstErr == nil {
						firstErr = err
					}
					mu.Unlock()
					continue
				}
				results[idx] = res
			}
		}()
	}

	for i := range events {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	if firstErr != nil {
		return results, firstErr
	}

	e.log.Info().
		Int("events", len(events)).
		Int("workers", workers).
		Msg("batch evaluated")

	return results, nil
}

// evaluate dispatches one metric by source kind. It always returns a fresh
// ComputedValue; nothing here is reused across events.
func (e *Engine) evaluate(def *contracts.MetricDefinition, ev *contracts.EventContext, values map[string]*contracts.ComputedValue) *contracts.ComputedValue {
	switch def.SourceKind {
	case contracts.SourceAPIField:
		return extractAPIField(def, ev)
	case contracts.SourceAggregation:
		return e.evaluateAggregation(def, ev, values)
	case contracts.SourceExpression:
		return e.evaluateExpression(def, values)
	}
	return contracts.Fail(contracts.MsgCalculationFailed)
}

func (e *Engine) evaluateAggregation(def *contracts.MetricDefinition, ev *contracts.EventContext, values map[string]*contracts.ComputedValue) *contracts.ComputedValue {
	base := values[def.BaseMetricID]
	if base == nil || base.IsNull() {
		if base != nil && base.Status == contracts.StatusSkipped {
			return contracts.Skip(contracts.MsgPropagatedNull)
		}
		return contracts.Fail(contracts.MsgPropagatedNull)
	}

	series, ok := base.Value.([]contracts.SeriesPoint)
	if !ok {
		return contracts.Fail(contracts.MsgNoValidData)
	}

	// Extraction already filtered, but aggregation never trusts its input's
	// provenance: the guard runs again here.
	series = FilterSeriesAsOf(series, ev.EventDate)
	if len(series) == 0 {
		return contracts.Fail(contracts.MsgNoValidData)
	}

	return Aggregate(def.AggregationKind, series, def.AggregationParams)
}

func (e *Engine) evaluateExpression(def *contracts.MetricDefinition, values map[string]*contracts.ComputedValue) *contracts.ComputedValue {
	// A null upstream fails only this metric's subtree, not the run: the
	// expression resolves to null before evaluation even starts.
	for _, dep := range e.cat.DependenciesOf(def.ID) {
		if cv := values[dep]; cv == nil || cv.IsNull() {
			return contracts.Fail(contracts.MsgPropagatedNull)
		}
	}

	lookup := func(id string) (any, bool) {
		cv, ok := values[id]
		if !ok {
			return nil, false
		}
		return cv.Value, true
	}

	v, err := formula.Evaluate(def.Expression, lookup)
	if err != nil {
		var parseErr *formula.ParseError
		var evalErr *formula.EvalError
		switch {
		case errors.Is(err, formula.ErrNull):
			return contracts.Fail(contracts.MsgPropagatedNull)
		case errors.As(err, &parseErr):
			return contracts.Fail(contracts.MsgFormulaParse)
		case errors.As(err, &evalErr):
			return contracts.Fail(contracts.MsgCalculationFailed)
		}
		return contracts.Fail(contracts.MsgCalculationFailed)
	}

	return contracts.Succeed(v)
}
