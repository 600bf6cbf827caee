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

func TestStartOfWeek_AlignsToMonday(t *testing.T) {
	// 2026-07-31 is a Friday.
	friday := time.Date(2026, 7, 31, 15, 30, 0, 0, time.UTC)
	got := startOfWeek(friday)
	assert.Equal(t, time.Monday, got.Weekday())
	assert.Equal(t, 2026, got.Year())
	assert.Equal(t, time.July, got.Month())
	assert.Equal(t, 27, got.Day())
	assert.True(t, got.Equal(time.Date(2026, 7, 27, 0, 0, 0, 0, time.UTC)))
}

func TestStartOfWeek_SundayRollsBackToPriorMonday(t *testing.T) {
	sunday := time.Date(2026, 8, 2, 3, 0, 0, 0, time.UTC)
	got := startOfWeek(sunday)
	assert.Equal(t, time.Monday, got.Weekday())
	assert.True(t, got.Equal(time.Date(2026, 7, 27, 0, 0, 0, 0, time.UTC)))
}

func TestWeeklySeries_BucketsAdsByWeekAndComputesMeansAndCrossPlatformPct(t *testing.T) {
	mon1 := time.Date(2026, 7, 6, 10, 0, 0, 0, time.UTC)
	mon2 := time.Date(2026, 7, 13, 10, 0, 0, 0, time.UTC)
	ads := []model.Ad{
		{AdID: "a1", StartTS: mon1, PublisherPlatforms: []string{"facebook"}},
		{AdID: "a2", StartTS: mon1.Add(2 * 24 * time.Hour), PublisherPlatforms: []string{"facebook", "instagram"}},
		{AdID: "a3", StartTS: mon2, PublisherPlatforms: []string{"facebook"}},
	}
	labels := map[string]model.StrategicLabel{
		"a1": {AdID: "a1", PromotionalIntensity: 0.4},
		"a2": {AdID: "a2", PromotionalIntensity: 0.8},
	}

	volume, intensity, crossPlatform := weeklySeries(ads, labels)

	require.Len(t, volume, 2)
	assert.Equal(t, 2.0, volume[0].Value) // week of mon1 has a1+a2
	assert.Equal(t, 1.0, volume[1].Value) // week of mon2 has a3

	assert.InDelta(t, 0.6, intensity[0].Value, 1e-9) // mean(0.4, 0.8)
	assert.InDelta(t, 0.0, intensity[1].Value, 1e-9) // a3 unlabeled contributes nothing

	assert.InDelta(t, 0.5, crossPlatform[0].Value, 1e-9) // 1 of 2 ads cross-platform
	assert.InDelta(t, 0.0, crossPlatform[1].Value, 1e-9)
}

func TestWeeklySeries_OrdersWeeksChronologically(t *testing.T) {
	later := time.Date(2026, 7, 20, 0, 0, 0, 0, time.UTC)
	earlier := time.Date(2026, 7, 6, 0, 0, 0, 0, time.UTC)
	ads := []model.Ad{
		{AdID: "a1", StartTS: later},
		{AdID: "a2", StartTS: earlier},
	}
	volume, _, _ := weeklySeries(ads, nil)
	require.Len(t, volume, 2)
	assert.True(t, volume[0].Timestamp.Before(volume[1].Timestamp))
}

func TestForecastSeries_ReturnsNilWhenFewerThanTwoPoints(t *testing.T) {
	out, err := forecastSeries(context.Background(), []warehouse.TimePoint{
		{Timestamp: time.Now(), Value: 3},
	}, 4, &fakeAnalytics{})
	require.NoError(t, err)
	assert.Nil(t, out)
}

func TestForecastSeries_DelegatesToAnalyticsAndMapsFields(t *testing.T) {
	points := []warehouse.TimePoint{
		{Timestamp: time.Date(2026, 7, 6, 0, 0, 0, 0, time.UTC), Value: 10},
		{Timestamp: time.Date(2026, 7, 13, 0, 0, 0, 0, time.UTC), Value: 20},
	}
	out, err := forecastSeries(context.Background(), points, 2, &fakeAnalytics{})
	require.NoError(t, err)
	require.Len(t, out, 2)
	for _, p := range out {
		assert.False(t, p.WeekStart.IsZero())
	}
}

func TestComputeForecasts_FlagsLowConfidenceWhenFewerThanFloorWeeks(t *testing.T) {
	now := time.Date(2026, 8, 3, 0, 0, 0, 0, time.UTC)
	ads := []model.Ad{
		{AdID: "a1", Brand: "BrandA", StartTS: now.Add(-24 * time.Hour)},
	}
	forecasts, err := ComputeForecasts(context.Background(), ads, nil, 90, 4, now, &fakeAnalytics{})
	require.NoError(t, err)
	require.Len(t, forecasts, 1)
	assert.True(t, forecasts[0].LowConfidence)
	assert.Equal(t, 1, forecasts[0].ObservedWeeks)
}

func TestComputeForecasts_ExcludesAdsOutsideLookbackWindow(t *testing.T) {
	now := time.Date(2026, 8, 3, 0, 0, 0, 0, time.UTC)
	ads := []model.Ad{
		{AdID: "old", Brand: "BrandA", StartTS: now.Add(-200 * 24 * time.Hour)},
	}
	forecasts, err := ComputeForecasts(context.Background(), ads, nil, 90, 4, now, &fakeAnalytics{})
	require.NoError(t, err)
	assert.Empty(t, forecasts)
}
