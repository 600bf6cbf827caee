package analysis

import (
	"context"
	"testing"
	"time"

	"github.com/adintel/compintel/pkg/model"
	"github.com/adintel/compintel/pkg/warehouse"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeSimilarity_FindsCrossBrandPairWithinLagWindow(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	ads := []model.Ad{
		{AdID: "a1", Brand: "BrandA", StartTS: now},
		{AdID: "b1", Brand: "BrandB", StartTS: now.Add(48 * time.Hour)},
	}
	embeddings := map[string]model.Embedding{
		"a1": {AdID: "a1", Vector: []float64{1, 0, 0}},
		"b1": {AdID: "b1", Vector: []float64{1, 0, 0}},
	}
	analytics := &fakeAnalytics{}
	edges, pairs, err := ComputeSimilarity(context.Background(), ads, embeddings, 60, 0.3, analytics)
	require.NoError(t, err)
	require.Len(t, edges, 1)
	assert.Equal(t, "a1", edges[0].AdAID)
	assert.Equal(t, "b1", edges[0].AdBID)
	require.Len(t, pairs, 1)
	assert.Equal(t, "BrandA", pairs[0].SourceBrand)
	assert.Equal(t, "BrandB", pairs[0].CopierBrand)
}

func TestComputeSimilarity_SkipsSameBrandPairs(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	ads := []model.Ad{
		{AdID: "a1", Brand: "BrandA", StartTS: now},
		{AdID: "a2", Brand: "BrandA", StartTS: now.Add(time.Hour)},
	}
	embeddings := map[string]model.Embedding{
		"a1": {AdID: "a1", Vector: []float64{1, 0}},
		"a2": {AdID: "a2", Vector: []float64{1, 0}},
	}
	edges, _, err := ComputeSimilarity(context.Background(), ads, embeddings, 60, 0.3, &fakeAnalytics{})
	require.NoError(t, err)
	assert.Empty(t, edges)
}

func TestComputeSimilarity_ExcludesPairsBeyondLagWindow(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	ads := []model.Ad{
		{AdID: "a1", Brand: "BrandA", StartTS: now},
		{AdID: "b1", Brand: "BrandB", StartTS: now.Add(100 * 24 * time.Hour)},
	}
	embeddings := map[string]model.Embedding{
		"a1": {AdID: "a1", Vector: []float64{1, 0}},
		"b1": {AdID: "b1", Vector: []float64{1, 0}},
	}
	edges, _, err := ComputeSimilarity(context.Background(), ads, embeddings, 60, 0.3, &fakeAnalytics{})
	require.NoError(t, err)
	assert.Empty(t, edges)
}

// fakeAnalytics implements warehouse.Analytics with cosine distance
// computed directly (identical vectors => distance 0) for deterministic tests.
type fakeAnalytics struct{}

func (f *fakeAnalytics) CosineDistance(a, b []float64) (float64, error) {
	return warehouse.StdCosineDistance(a, b)
}

func (f *fakeAnalytics) Forecast(ctx context.Context, series []warehouse.TimePoint, horizonWeeks int) ([]warehouse.ForecastPoint, error) {
	return warehouse.StdLinearForecast(series, horizonWeeks)
}
