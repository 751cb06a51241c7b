package engine

import (
	"time"

	"github.com/5ys-5y5/alsign-sub001/internal/contracts"
)

// FilterRecordsAsOf drops every quarterly record whose period end falls after
// the event date. This runs before any aggregation: consuming "the last N
// records returned by the provider" would silently feed future quarters into
// historical events and corrupt every downstream ratio.
func FilterRecordsAsOf(records []contracts.QuarterlyRecord, asOf time.Time) []contracts.QuarterlyRecord {
	out := make([]contracts.QuarterlyRecord, 0, len(records))
	for _, rec := range records {
		if rec.PeriodEnd.After(asOf) {
			continue
		}
		out = append(out, rec)
	}
	return out
}

// FilterSeriesAsOf is the same guard for already-extracted series.
func FilterSeriesAsOf(points []contracts.SeriesPoint, asOf time.Time) []contracts.SeriesPoint {
	out := make([]contracts.SeriesPoint, 0, len(points))
	for _, p := range points {
		if p.Date.After(asOf) {
			continue
		}
		out = append(out, p)
	}
	return out
}
