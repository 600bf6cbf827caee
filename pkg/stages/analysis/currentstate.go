package analysis

import (
	"time"

	"github.com/adintel/compintel/pkg/model"
)

// defaultCurrentStateWindowDays is the trailing window used when computing
// each brand's current creative posture.
const defaultCurrentStateWindowDays = 90

// ComputeCurrentState aggregates mean intensity/urgency, funnel mix,
// media-type distribution, and platform distribution per brand over the
// trailing window.
func ComputeCurrentState(ads []model.Ad, labels map[string]model.StrategicLabel, windowDays int, now time.Time) []model.CurrentStateSummary {
	if windowDays <= 0 {
		windowDays = defaultCurrentStateWindowDays
	}
	cutoff := now.Add(-time.Duration(windowDays) * 24 * time.Hour)

	type accum struct {
		intensitySum, urgencySum float64
		scoredCount              int
		funnelCounts             map[model.Funnel]int
		mediaCounts              map[model.MediaType]int
		platformCounts           map[string]int
		total                    int
	}
	byBrand := make(map[string]*accum)
	var order []string

	for _, ad := range ads {
		if ad.StartTS.Before(cutoff) {
			continue
		}
		a, ok := byBrand[ad.Brand]
		if !ok {
			a = &accum{
				funnelCounts:   make(map[model.Funnel]int),
				mediaCounts:    make(map[model.MediaType]int),
				platformCounts: make(map[string]int),
			}
			byBrand[ad.Brand] = a
			order = append(order, ad.Brand)
		}
		a.total++
		a.mediaCounts[ad.MediaType]++
		for _, p := range ad.PublisherPlatforms {
			a.platformCounts[p]++
		}
		if label, ok := labels[ad.AdID]; ok {
			a.intensitySum += label.PromotionalIntensity
			a.urgencySum += label.UrgencyScore
			a.scoredCount++
			a.funnelCounts[label.Funnel]++
		}
	}

	out := make([]model.CurrentStateSummary, 0, len(order))
	for _, brand := range order {
		a := byBrand[brand]
		summary := model.CurrentStateSummary{
			Brand:                 brand,
			WindowDays:            windowDays,
			FunnelMix:             ratios(a.funnelCounts, a.total),
			MediaTypeDistribution: ratiosMedia(a.mediaCounts, a.total),
			PlatformDistribution:  ratiosString(a.platformCounts, a.total),
		}
		if a.scoredCount > 0 {
			summary.MeanPromotionalIntensity = a.intensitySum / float64(a.scoredCount)
			summary.MeanUrgencyScore = a.urgencySum / float64(a.scoredCount)
		}
		out = append(out, summary)
	}
	return out
}

func ratios(counts map[model.Funnel]int, total int) map[model.Funnel]float64 {
	out := make(map[model.Funnel]float64, len(counts))
	if total == 0 {
		return out
	}
	for k, v := range counts {
		out[k] = float64(v) / float64(total)
	}
	return out
}

func ratiosMedia(counts map[model.MediaType]int, total int) map[model.MediaType]float64 {
	out := make(map[model.MediaType]float64, len(counts))
	if total == 0 {
		return out
	}
	for k, v := range counts {
		out[k] = float64(v) / float64(total)
	}
	return out
}

func ratiosString(counts map[string]int, total int) map[string]float64 {
	out := make(map[string]float64, len(counts))
	if total == 0 {
		return out
	}
	for k, v := range counts {
		out[k] = float64(v) / float64(total)
	}
	return out
}
