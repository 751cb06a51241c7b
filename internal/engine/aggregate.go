package engine

import (
	"github.com/5ys-5y5/alsign-sub001/internal/contracts"
)

// Aggregation functions. Every function receives a series already filtered
// for point-in-time validity, ordered most recent first, and returns a
// ComputedValue carrying Meta{dateRange, calcType, count}. Numeric edge cases
// (empty series, zero divisors) become null values with a message, never
// panics.

const (
	calcFullWindow = "fullWindow"
	calcScaled     = "scaled"
	calcQoQ        = "qoq"
	calcYoY        = "yoy"
	calcAvg        = "avg"
	calcLast       = "last"
)

// TTM sums the most recent `window` quarters (default 4). With fewer points
// but at least min_points available and mode=scale, the partial sum is scaled
// by scale_to/count (scale_to defaults to the window) so a young listing
// still yields an annualized figure.
func TTM(points []contracts.SeriesPoint, p contracts.AggregationParams) *contracts.ComputedValue {
	window := p.Window
	if window <= 0 {
		window = 4
	}
	minPoints := p.MinPoints
	if minPoints <= 0 {
		minPoints = 1
	}
	scaleTo := p.ScaleTo
	if scaleTo <= 0 {
		scaleTo = window
	}

	if len(points) >= window {
		used := points[:window]
		return contracts.SucceedWithMeta(sumValues(used), metaFor(used, calcFullWindow))
	}

	if p.Mode == contracts.ScaleMode && len(points) >= minPoints && len(points) > 0 {
		scaled := sumValues(points) * float64(scaleTo) / float64(len(points))
		return contracts.SucceedWithMeta(scaled, metaFor(points, calcScaled))
	}

	return contracts.Fail(contracts.MsgInsufficientHistory)
}

// QoQ is the change from the prior quarter: (v0 - v1) / v1.
func QoQ(points []contracts.SeriesPoint, _ contracts.AggregationParams) *contracts.ComputedValue {
	if len(points) < 2 {
		return contracts.Fail(contracts.MsgInsufficientHistory)
	}
	base := points[1].Value
	if base == 0 {
		return contracts.Fail(contracts.MsgCalculationFailed)
	}
	used := points[:2]
	return contracts.SucceedWithMeta((points[0].Value-base)/base, metaFor(used, calcQoQ))
}

// YoY compares against the same quarter a year back: with the default
// min_points of 5 the comparison point is the fourth prior quarter.
func YoY(points []contracts.SeriesPoint, p contracts.AggregationParams) *contracts.ComputedValue {
	minPoints := p.MinPoints
	if minPoints <= 0 {
		minPoints = 5
	}
	if len(points) < minPoints {
		return contracts.Fail(contracts.MsgInsufficientHistory)
	}
	base := points[minPoints-1].Value
	if base == 0 {
		return contracts.Fail(contracts.MsgCalculationFailed)
	}
	used := points[:minPoints]
	return contracts.SucceedWithMeta((points[0].Value-base)/base, metaFor(used, calcYoY))
}

// Avg is the mean of up to `window` most recent points (all points when the
// window is unset).
func Avg(points []contracts.SeriesPoint, p contracts.AggregationParams) *contracts.ComputedValue {
	if len(points) == 0 {
		return contracts.Fail(contracts.MsgNoValidData)
	}
	used := points
	if p.Window > 0 && len(points) > p.Window {
		used = points[:p.Window]
	}
	return contracts.SucceedWithMeta(sumValues(used)/float64(len(used)), metaFor(used, calcAvg))
}

// Last returns the most recent valid point.
func Last(points []contracts.SeriesPoint, _ contracts.AggregationParams) *contracts.ComputedValue {
	if len(points) == 0 {
		return contracts.Fail(contracts.MsgNoValidData)
	}
	used := points[:1]
	return contracts.SucceedWithMeta(points[0].Value, metaFor(used, calcLast))
}

// Aggregate dispatches by aggregation kind.
func Aggregate(kind contracts.AggregationKind, points []contracts.SeriesPoint, p contracts.AggregationParams) *contracts.ComputedValue {
	switch kind {
	case contracts.AggTTM:
		return TTM(points, p)
	case contracts.AggQoQ:
		return QoQ(points, p)
	case contracts.AggYoY:
		return YoY(points, p)
	case contracts.AggAvg:
		return Avg(points, p)
	case contracts.AggLast:
		return Last(points, p)
	}
	return contracts.Fail(contracts.MsgCalculationFailed)
}

func sumValues(points []contracts.SeriesPoint) float64 {
	total := 0.0
	for _, p := range points {
		total += p.Value
	}
	return total
}

// metaFor builds the Meta block for the points actually consumed. Points are
// ordered most recent first, so the range is [last, first].
func metaFor(used []contracts.SeriesPoint, calcType string) *contracts.Meta {
	const layout = "2006-01-02"
	return &contracts.Meta{
		DateRange: [2]string{
			used[len(used)-1].Date.Format(layout),
			used[0].Date.Format(layout),
		},
		CalcType: calcType,
		Count:    len(used),
	}
}
