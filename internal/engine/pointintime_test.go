package engine

import (
	"testing"
	"time"

	"github.com/5ys-5y5/alsign-sub001/internal/contracts"
)

func TestFilterRecordsAsOf(t *testing.T) {
	asOf := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)
	records := []contracts.QuarterlyRecord{
		{PeriodEnd: time.Date(2026, 6, 30, 0, 0, 0, 0, time.UTC)}, // future quarter
		{PeriodEnd: time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)}, // equal, stays
		{PeriodEnd: time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC)},
		{PeriodEnd: time.Date(2025, 9, 30, 0, 0, 0, 0, time.UTC)},
	}

	got := FilterRecordsAsOf(records, asOf)
	if len(got) != 3 {
		t.Fatalf("got %d records, want 3", len(got))
	}
	for _, rec := range got {
		if rec.PeriodEnd.After(asOf) {
			t.Errorf("record with period end %s survived the filter", rec.PeriodEnd)
		}
	}
}

func TestFilterSeriesAsOf(t *testing.T) {
	asOf := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	points := []contracts.SeriesPoint{
		{Date: time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC), Value: 1},
		{Date: time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC), Value: 2},
	}

	got := FilterSeriesAsOf(points, asOf)
	if len(got) != 1 || got[0].Value != 2 {
		t.Fatalf("FilterSeriesAsOf = %v, want the single past point", got)
	}
}

func TestFilterRecordsAsOfAllFuture(t *testing.T) {
	asOf := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	records := []contracts.QuarterlyRecord{
		{PeriodEnd: time.Date(2026, 6, 30, 0, 0, 0, 0, time.UTC)},
	}

	got := FilterRecordsAsOf(records, asOf)
	if len(got) != 0 {
		t.Fatalf("got %d records, want 0", len(got))
	}
}
