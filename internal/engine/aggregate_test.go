package engine

import (
	"math"
	"testing"
	"time"

	"github.com/5ys-5y5/alsign-sub001/internal/contracts"
)

// series builds a test series, most recent first, one quarter apart.
func series(values ...float64) []contracts.SeriesPoint {
	newest := time.Date(2026, 6, 30, 0, 0, 0, 0, time.UTC)
	points := make([]contracts.SeriesPoint, len(values))
	for i, v := range values {
		points[i] = contracts.SeriesPoint{
			Date:  newest.AddDate(0, -3*i, 0),
			Value: v,
		}
	}
	return points
}

func assertValue(t *testing.T, cv *contracts.ComputedValue, want float64) {
	t.Helper()
	if cv.Status != contracts.StatusSuccess {
		t.Fatalf("status = %s (%s), want success", cv.Status, cv.Message)
	}
	got, ok := cv.Value.(float64)
	if !ok {
		t.Fatalf("value = %T, want float64", cv.Value)
	}
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("value = %v, want %v", got, want)
	}
}

func assertFailed(t *testing.T, cv *contracts.ComputedValue, wantMsg string) {
	t.Helper()
	if cv.Status != contracts.StatusFailed {
		t.Fatalf("status = %s, want failed", cv.Status)
	}
	if cv.Message != wantMsg {
		t.Errorf("message = %q, want %q", cv.Message, wantMsg)
	}
	if cv.Value != nil {
		t.Errorf("failed value must be nil, got %v", cv.Value)
	}
}

func TestTTMFullWindow(t *testing.T) {
	// Five quarters available, window four: only the most recent four count.
	cv := TTM(series(100, 90, 80, 70, 60), contracts.AggregationParams{Window: 4})
	assertValue(t, cv, 340)

	if cv.Meta == nil {
		t.Fatal("expected meta")
	}
	if cv.Meta.CalcType != calcFullWindow {
		t.Errorf("calcType = %s, want %s", cv.Meta.CalcType, calcFullWindow)
	}
	if cv.Meta.Count != 4 {
		t.Errorf("count = %d, want 4", cv.Meta.Count)
	}
	if cv.Meta.DateRange[0] != "2025-09-30" || cv.Meta.DateRange[1] != "2026-06-30" {
		t.Errorf("dateRange = %v", cv.Meta.DateRange)
	}
}

func TestTTMScaled(t *testing.T) {
	// Two quarters with scaling: (100+90) * 4/2 = 380.
	cv := TTM(series(100, 90), contracts.AggregationParams{
		Window:    4,
		MinPoints: 2,
		Mode:      contracts.ScaleMode,
	})
	assertValue(t, cv, 380)

	if cv.Meta.CalcType != calcScaled {
		t.Errorf("calcType = %s, want %s", cv.Meta.CalcType, calcScaled)
	}
	if cv.Meta.Count != 2 {
		t.Errorf("count = %d, want 2", cv.Meta.Count)
	}
}

func TestTTMScaleToOverride(t *testing.T) {
	cv := TTM(series(50, 50), contracts.AggregationParams{
		Window:    4,
		MinPoints: 1,
		Mode:      contracts.ScaleMode,
		ScaleTo:   8,
	})
	assertValue(t, cv, 400)
}

func TestTTMInsufficientWithoutScaling(t *testing.T) {
	cv := TTM(series(100, 90), contracts.AggregationParams{Window: 4})
	assertFailed(t, cv, contracts.MsgInsufficientHistory)
}

func TestTTMBelowMinPoints(t *testing.T) {
	cv := TTM(series(100), contracts.AggregationParams{
		Window:    4,
		MinPoints: 2,
		Mode:      contracts.ScaleMode,
	})
	assertFailed(t, cv, contracts.MsgInsufficientHistory)
}

func TestTTMDefaultWindow(t *testing.T) {
	cv := TTM(series(1, 1, 1, 1, 1), contracts.AggregationParams{})
	assertValue(t, cv, 4)
}

func TestQoQ(t *testing.T) {
	cv := QoQ(series(110, 100), contracts.AggregationParams{})
	assertValue(t, cv, 0.1)

	if cv.Meta.CalcType != calcQoQ {
		t.Errorf("calcType = %s, want %s", cv.Meta.CalcType, calcQoQ)
	}
}

func TestQoQSingleQuarter(t *testing.T) {
	cv := QoQ(series(110), contracts.AggregationParams{})
	assertFailed(t, cv, contracts.MsgInsufficientHistory)
}

func TestQoQZeroBase(t *testing.T) {
	cv := QoQ(series(110, 0), contracts.AggregationParams{})
	assertFailed(t, cv, contracts.MsgCalculationFailed)
}

func TestYoY(t *testing.T) {
	// Default min_points 5: compares against the fourth prior quarter.
	cv := YoY(series(120, 115, 110, 105, 100), contracts.AggregationParams{})
	assertValue(t, cv, 0.2)
}

func TestYoYInsufficientHistory(t *testing.T) {
	cv := YoY(series(120, 115, 110, 105), contracts.AggregationParams{})
	assertFailed(t, cv, contracts.MsgInsufficientHistory)
}

func TestYoYCustomMinPoints(t *testing.T) {
	cv := YoY(series(130, 100), contracts.AggregationParams{MinPoints: 2})
	assertValue(t, cv, 0.3)
}

func TestAvg(t *testing.T) {
	cv := Avg(series(10, 20, 30), contracts.AggregationParams{})
	assertValue(t, cv, 20)

	cv = Avg(series(10, 20, 30, 40), contracts.AggregationParams{Window: 2})
	assertValue(t, cv, 15)

	cv = Avg(nil, contracts.AggregationParams{})
	assertFailed(t, cv, contracts.MsgNoValidData)
}

func TestLast(t *testing.T) {
	cv := Last(series(7, 8, 9), contracts.AggregationParams{})
	assertValue(t, cv, 7)

	if cv.Meta.Count != 1 {
		t.Errorf("count = %d, want 1", cv.Meta.Count)
	}

	cv = Last(nil, contracts.AggregationParams{})
	assertFailed(t, cv, contracts.MsgNoValidData)
}

func TestAggregateDispatch(t *testing.T) {
	pts := series(10, 20)

	for _, kind := range []contracts.AggregationKind{
		contracts.AggQoQ, contracts.AggAvg, contracts.AggLast,
	} {
		cv := Aggregate(kind, pts, contracts.AggregationParams{})
		if cv.Status != contracts.StatusSuccess {
			t.Errorf("Aggregate(%s) status = %s (%s)", kind, cv.Status, cv.Message)
		}
	}

	cv := Aggregate("median", pts, contracts.AggregationParams{})
	assertFailed(t, cv, contracts.MsgCalculationFailed)
}
