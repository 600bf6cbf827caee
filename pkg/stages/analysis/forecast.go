package analysis

import (
	"context"
	"sort"
	"time"

	"github.com/adintel/compintel/pkg/model"
	"github.com/adintel/compintel/pkg/warehouse"
)

// lowConfidenceWeekFloor is the minimum number of observed weekly points
// required before a forecast is trusted.
const lowConfidenceWeekFloor = 8

// ComputeForecasts fits a short-horizon forecast per brand across ad
// volume, mean promotional intensity, and cross-platform percentage,
// using the warehouse's forecasting primitive.
func ComputeForecasts(
	ctx context.Context,
	ads []model.Ad,
	labels map[string]model.StrategicLabel,
	lookbackDays, horizonWeeks int,
	now time.Time,
	analytics warehouse.Analytics,
) ([]model.BrandForecast, error) {
	cutoff := now.Add(-time.Duration(lookbackDays) * 24 * time.Hour)

	byBrand := make(map[string][]model.Ad)
	var order []string
	for _, ad := range ads {
		if ad.StartTS.Before(cutoff) {
			continue
		}
		if _, ok := byBrand[ad.Brand]; !ok {
			order = append(order, ad.Brand)
		}
		byBrand[ad.Brand] = append(byBrand[ad.Brand], ad)
	}

	var out []model.BrandForecast
	for _, brand := range order {
		brandAds := byBrand[brand]
		volumeSeries, intensitySeries, crossPlatformSeries := weeklySeries(brandAds, labels)

		observedWeeks := len(volumeSeries)
		forecast := model.BrandForecast{
			Brand:         brand,
			LowConfidence: observedWeeks < lowConfidenceWeekFloor,
			ObservedWeeks: observedWeeks,
		}

		var err error
		forecast.AdVolume, err = forecastSeries(ctx, volumeSeries, horizonWeeks, analytics)
		if err != nil {
			return nil, err
		}
		forecast.MeanPromotionalIntensity, err = forecastSeries(ctx, intensitySeries, horizonWeeks, analytics)
		if err != nil {
			return nil, err
		}
		forecast.CrossPlatformPct, err = forecastSeries(ctx, crossPlatformSeries, horizonWeeks, analytics)
		if err != nil {
			return nil, err
		}
		out = append(out, forecast)
	}
	return out, nil
}

func forecastSeries(ctx context.Context, points []warehouse.TimePoint, horizonWeeks int, analytics warehouse.Analytics) ([]model.ForecastPoint, error) {
	if len(points) < 2 {
		return nil, nil
	}
	raw, err := analytics.Forecast(ctx, points, horizonWeeks)
	if err != nil {
		return nil, err
	}
	out := make([]model.ForecastPoint, 0, len(raw))
	for _, p := range raw {
		out = append(out, model.ForecastPoint{
			WeekStart:  p.Timestamp,
			Value:      p.Value,
			LowerBound: p.Low,
			UpperBound: p.High,
		})
	}
	return out, nil
}

// weeklySeries buckets a brand's ads into trailing weekly cadences,
// producing three parallel time series: ad count, mean promotional
// intensity, and cross-platform percentage (ads on >1 publisher platform).
func weeklySeries(ads []model.Ad, labels map[string]model.StrategicLabel) (volume, intensity, crossPlatform []warehouse.TimePoint) {
	type weekAccum struct {
		count          int
		intensitySum   float64
		scoredCount    int
		crossPlatCount int
	}
	byWeek := make(map[int64]*weekAccum)
	var weekStarts []int64

	for _, ad := range ads {
		weekStart := startOfWeek(ad.StartTS).Unix()
		a, ok := byWeek[weekStart]
		if !ok {
			a = &weekAccum{}
			byWeek[weekStart] = a
			weekStarts = append(weekStarts, weekStart)
		}
		a.count++
		if len(ad.PublisherPlatforms) > 1 {
			a.crossPlatCount++
		}
		if label, ok := labels[ad.AdID]; ok {
			a.intensitySum += label.PromotionalIntensity
			a.scoredCount++
		}
	}

	sort.Slice(weekStarts, func(i, j int) bool { return weekStarts[i] < weekStarts[j] })

	for _, ws := range weekStarts {
		a := byWeek[ws]
		ts := time.Unix(ws, 0).UTC()
		volume = append(volume, warehouse.TimePoint{Timestamp: ts, Value: float64(a.count)})
		meanIntensity := 0.0
		if a.scoredCount > 0 {
			meanIntensity = a.intensitySum / float64(a.scoredCount)
		}
		intensity = append(intensity, warehouse.TimePoint{Timestamp: ts, Value: meanIntensity})
		crossPlatPct := 0.0
		if a.count > 0 {
			crossPlatPct = float64(a.crossPlatCount) / float64(a.count)
		}
		crossPlatform = append(crossPlatform, warehouse.TimePoint{Timestamp: ts, Value: crossPlatPct})
	}
	return volume, intensity, crossPlatform
}

// startOfWeek truncates t to the Monday-aligned start of its ISO week.
func startOfWeek(t time.Time) time.Time {
	weekday := int(t.Weekday())
	if weekday == 0 {
		weekday = 7
	}
	days := weekday - 1
	d := t.AddDate(0, 0, -days)
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
}
