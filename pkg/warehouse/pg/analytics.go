package pg

import (
	"context"

	"github.com/adintel/compintel/pkg/warehouse"
)

// CosineDistance delegates to the shared standard implementation. A future
// revision could push this down to a pgvector operator; until then the
// in-process computation is both correct and simple enough not to need one.
func (s *Store) CosineDistance(a, b []float64) (float64, error) {
	return warehouse.StdCosineDistance(a, b)
}

// Forecast delegates to the shared linear-trend implementation.
func (s *Store) Forecast(_ context.Context, series []warehouse.TimePoint, horizonWeeks int) ([]warehouse.ForecastPoint, error) {
	return warehouse.StdLinearForecast(series, horizonWeeks)
}
