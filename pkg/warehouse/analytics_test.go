package warehouse

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStdCosineDistance_IdenticalVectorsAreZero(t *testing.T) {
	d, err := StdCosineDistance([]float64{1, 2, 3}, []float64{1, 2, 3})
	require.NoError(t, err)
	assert.InDelta(t, 0, d, 1e-9)
}

func TestStdCosineDistance_OrthogonalVectorsAreOne(t *testing.T) {
	d, err := StdCosineDistance([]float64{1, 0}, []float64{0, 1})
	require.NoError(t, err)
	assert.InDelta(t, 1, d, 1e-9)
}

func TestStdCosineDistance_OppositeVectorsAreTwo(t *testing.T) {
	d, err := StdCosineDistance([]float64{1, 0}, []float64{-1, 0})
	require.NoError(t, err)
	assert.InDelta(t, 2, d, 1e-9)
}

func TestStdCosineDistance_RejectsDimensionMismatch(t *testing.T) {
	_, err := StdCosineDistance([]float64{1, 2}, []float64{1})
	require.ErrorIs(t, err, ErrDimensionMismatch)
}

func TestStdLinearForecast_ProjectsUpwardTrend(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	series := []TimePoint{
		{Timestamp: base, Value: 10},
		{Timestamp: base.AddDate(0, 0, 7), Value: 20},
		{Timestamp: base.AddDate(0, 0, 14), Value: 30},
	}
	points, err := StdLinearForecast(series, 4)
	require.NoError(t, err)
	require.NotEmpty(t, points)
	for i := 1; i < len(points); i++ {
		assert.Greater(t, points[i].Value, points[i-1].Value)
		assert.LessOrEqual(t, points[i].Low, points[i].Value)
		assert.GreaterOrEqual(t, points[i].High, points[i].Value)
	}
}

func TestStdLinearForecast_RequiresAtLeastTwoPoints(t *testing.T) {
	_, err := StdLinearForecast([]TimePoint{{Timestamp: time.Now(), Value: 1}}, 4)
	require.Error(t, err)
}
