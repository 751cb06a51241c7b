package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/5ys-5y5/alsign-sub001/internal/contracts"
	"github.com/5ys-5y5/alsign-sub001/internal/engine"
	"github.com/5ys-5y5/alsign-sub001/internal/provider"
	"github.com/5ys-5y5/alsign-sub001/pkg/config"
	"github.com/5ys-5y5/alsign-sub001/pkg/logger"
)

// MetricBackfillJob recomputes the metric document for every configured
// ticker as of the run date and persists the results.
type MetricBackfillJob struct {
	engine  *engine.Engine
	source  contracts.RecordSource
	results contracts.ResultStore
	config  *config.Config
	logger  *logger.Logger
}

// NewMetricBackfillJob creates a new metric backfill job.
func NewMetricBackfillJob(eng *engine.Engine, source contracts.RecordSource, results contracts.ResultStore, cfg *config.Config, log *logger.Logger) *MetricBackfillJob {
	return &MetricBackfillJob{
		engine:  eng,
		source:  source,
		results: results,
		config:  cfg,
		logger:  log,
	}
}

// Name returns the job name.
func (j *MetricBackfillJob) Name() string {
	return "metric_backfill"
}

// Schedule returns the cron schedule (every day at 6 PM, after market close).
func (j *MetricBackfillJob) Schedule() string {
	return "0 0 18 * * MON-FRI"
}

// Run fetches quarterly records for each ticker, evaluates the full metric
// graph and persists the documents. A single ticker failing does not stop
// the run.
func (j *MetricBackfillJob) Run(ctx context.Context) error {
	tickers := j.config.Engine.Tickers
	if len(tickers) == 0 {
		j.logger.Warn("No tickers configured, skipping metric backfill")
		return nil
	}

	eventDate := time.Now().UTC().Truncate(24 * time.Hour)
	cat := j.engine.Catalog()

	events := make([]contracts.EventContext, 0, len(tickers))
	for _, ticker := range tickers {
		ev, err := provider.BuildEventContext(ctx, j.source, cat, ticker, eventDate, j.config.Engine.LookbackQtr)
		if err != nil {
			j.logger.WithFields(map[string]interface{}{
				"ticker": ticker,
				"error":  err.Error(),
			}).Warn("Failed to build event context, skipping ticker")
			continue
		}
		events = append(events, *ev)
	}

	if len(events) == 0 {
		return fmt.Errorf("metric backfill: no event contexts could be built for %d tickers", len(tickers))
	}

	results, err := j.engine.EvaluateBatch(ctx, events, j.config.Engine.Workers)
	if err != nil {
		return fmt.Errorf("metric backfill: %w", err)
	}

	saved := 0
	for _, result := range results {
		if result == nil {
			continue
		}
		if err := j.results.SaveDocument(ctx, result); err != nil {
			j.logger.WithFields(map[string]interface{}{
				"ticker": result.Ticker,
				"error":  err.Error(),
			}).Error("Failed to persist metric document")
			continue
		}
		saved++
	}

	j.logger.WithFields(map[string]interface{}{
		"tickers": len(tickers),
		"saved":   saved,
	}).Info("Metric backfill completed")

	return nil
}
