package warehouse

import (
	"errors"
	"math"
	"time"
)

// ErrDimensionMismatch is returned by CosineDistance when its inputs differ
// in length.
var ErrDimensionMismatch = errors.New("vector dimension mismatch")

// StdCosineDistance computes cosine distance (1 - cosine similarity) between
// two equal-length vectors. Shared by every Analytics implementation: this
// is pure arithmetic, not a warehouse-specific capability, so adapters
// embed it rather than reimplementing it.
func StdCosineDistance(a, b []float64) (float64, error) {
	if len(a) != len(b) {
		return 0, ErrDimensionMismatch
	}
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 1, nil // no signal in a zero vector; treat as maximally dissimilar
	}
	similarity := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	// Guard floating point drift outside [-1, 1] before converting to distance.
	if similarity > 1 {
		similarity = 1
	} else if similarity < -1 {
		similarity = -1
	}
	return 1 - similarity, nil
}

// StdLinearForecast projects series forward by horizonWeeks using ordinary
// least-squares linear regression against elapsed days, with a fixed-width
// confidence band derived from the residual standard deviation. The pg
// adapter's Forecast always uses it, and the memory adapter uses it when no
// ForecastFn is set.
func StdLinearForecast(series []TimePoint, horizonWeeks int) ([]ForecastPoint, error) {
	if len(series) < 2 {
		return nil, errors.New("at least two observations required to forecast a trend")
	}

	t0 := series[0].Timestamp
	xs := make([]float64, len(series))
	ys := make([]float64, len(series))
	for i, p := range series {
		xs[i] = p.Timestamp.Sub(t0).Hours() / 24
		ys[i] = p.Value
	}

	slope, intercept := leastSquares(xs, ys)

	var sumSqResid float64
	for i := range xs {
		pred := slope*xs[i] + intercept
		resid := ys[i] - pred
		sumSqResid += resid * resid
	}
	stdErr := math.Sqrt(sumSqResid / float64(len(xs)))

	last := series[len(series)-1].Timestamp
	horizonDays := horizonWeeks * 7
	points := make([]ForecastPoint, 0, horizonDays/7)
	for day := 7; day <= horizonDays; day += 7 {
		ts := last.Add(time.Duration(day) * 24 * time.Hour)
		x := ts.Sub(t0).Hours() / 24
		value := slope*x + intercept
		points = append(points, ForecastPoint{
			Timestamp: ts,
			Value:     value,
			Low:       value - 1.96*stdErr,
			High:      value + 1.96*stdErr,
		})
	}
	return points, nil
}

func leastSquares(xs, ys []float64) (slope, intercept float64) {
	n := float64(len(xs))
	var sumX, sumY, sumXY, sumXX float64
	for i := range xs {
		sumX += xs[i]
		sumY += ys[i]
		sumXY += xs[i] * ys[i]
		sumXX += xs[i] * xs[i]
	}
	denom := n*sumXX - sumX*sumX
	if denom == 0 {
		return 0, sumY / n
	}
	slope = (n*sumXY - sumX*sumY) / denom
	intercept = (sumY - slope*sumX) / n
	return slope, intercept
}
