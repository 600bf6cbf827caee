package analysis

import (
	"fmt"
	"time"

	"github.com/adintel/compintel/pkg/model"
)

const (
	fatigueLookbackDays  = 30
	refreshLookbackDays  = 14
	refreshMinActiveDays = 7
	refreshOriginality   = 0.6
)

// cell is the (funnel, persona, page_category) grouping key fatigue is
// computed per, matching §4.9's cell definition.
type cell struct {
	funnel       model.Funnel
	persona      string
	pageCategory string
}

func cellKey(c cell) string {
	return fmt.Sprintf("%s|%s|%s", c.funnel, c.persona, c.pageCategory)
}

// ComputeFatigue scores every one of targetBrand's ads from the last
// fatigueLookbackDays by cell-local originality, refresh-signal pressure,
// and time since launch.
func ComputeFatigue(
	ads []model.Ad,
	labels map[string]model.StrategicLabel,
	edges []model.SimilarityEdge,
	targetBrand string,
	now time.Time,
) []model.FatigueScore {
	cutoff := now.Add(-fatigueLookbackDays * 24 * time.Hour)
	refreshCutoff := now.Add(-refreshLookbackDays * 24 * time.Hour)

	influence := meanCopierInfluence(edges)

	type cellAds struct {
		ads []model.Ad
	}
	byCell := make(map[string]*cellAds)

	for _, ad := range ads {
		if ad.Brand != targetBrand || ad.StartTS.Before(cutoff) {
			continue
		}
		label := labels[ad.AdID]
		c := cell{funnel: label.Funnel, persona: label.Persona, pageCategory: ad.PageCategory}
		key := cellKey(c)
		if _, ok := byCell[key]; !ok {
			byCell[key] = &cellAds{}
		}
		byCell[key].ads = append(byCell[key].ads, ad)
	}

	var out []model.FatigueScore
	for _, bucket := range byCell {
		for _, ad := range bucket.ads {
			originality := 1 - influence[ad.AdID]
			daysSinceLaunch := int(now.Sub(ad.StartTS).Hours() / 24)

			refreshCount := 0
			for _, other := range bucket.ads {
				if other.AdID == ad.AdID {
					continue
				}
				otherOriginality := 1 - influence[other.AdID]
				if otherOriginality >= refreshOriginality &&
					other.ActiveDays >= refreshMinActiveDays &&
					!other.StartTS.Before(refreshCutoff) &&
					other.StartTS.After(ad.StartTS) {
					refreshCount++
				}
			}

			score := fatigueScore(originality, daysSinceLaunch, refreshCount)
			out = append(out, model.FatigueScore{
				AdID:               ad.AdID,
				Brand:              ad.Brand,
				Originality:        originality,
				DaysSinceLaunch:    daysSinceLaunch,
				RefreshSignalCount: refreshCount,
				Score:              score,
				Level:              fatigueLevelFor(score),
			})
		}
	}
	return out
}

// meanCopierInfluence computes, per ad, the mean copying-confidence of
// every edge where that ad is the later (copier) side.
func meanCopierInfluence(edges []model.SimilarityEdge) map[string]float64 {
	sums := make(map[string]float64)
	counts := make(map[string]int)
	for _, e := range edges {
		sums[e.AdBID] += e.Confidence()
		counts[e.AdBID]++
	}
	out := make(map[string]float64, len(sums))
	for adID, sum := range sums {
		out[adID] = sum / float64(counts[adID])
	}
	return out
}

// fatigueScore implements the piecewise rule from §4.9, bounded to 1.0.
// Every comparison is strict (originality < X, daysSinceLaunch > Y) and the
// cases are tried top to bottom, first match wins: daysSinceLaunch == 21
// falls through to the third case, not the second.
func fatigueScore(originality float64, daysSinceLaunch, refreshCount int) float64 {
	var score float64
	switch {
	case originality < 0.4 && refreshCount > 0:
		score = 0.8 + 0.04*float64(refreshCount)
	case originality < 0.5 && daysSinceLaunch > 21:
		score = 0.6 + float64(daysSinceLaunch)/300
	case originality < 0.7 && daysSinceLaunch > 14:
		score = 0.3 + float64(daysSinceLaunch)/300
	default:
		score = float64(daysSinceLaunch) / 90
	}
	if score > 1.0 {
		score = 1.0
	}
	if score < 0 {
		score = 0
	}
	return score
}

func fatigueLevelFor(score float64) model.FatigueLevel {
	switch {
	case score >= 0.8:
		return model.FatigueCritical
	case score >= 0.6:
		return model.FatigueHigh
	case score >= 0.4:
		return model.FatigueModerate
	case score >= 0.2:
		return model.FatigueLow
	default:
		return model.FatigueFresh
	}
}
