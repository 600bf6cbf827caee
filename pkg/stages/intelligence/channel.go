package intelligence

import (
	"fmt"

	"github.com/adintel/compintel/pkg/model"
)

// Channel emits per-brand Signals for platform diversity, cross-platform
// synergy, and per-(brand, platform) optimization scores.
func Channel(ads []model.Ad) []model.Signal {
	type accum struct {
		platformCounts map[string]int
		crossPlatCount int
		total          int
	}
	byBrand := make(map[string]*accum)
	var brandOrder []string

	for _, ad := range ads {
		a, ok := byBrand[ad.Brand]
		if !ok {
			a = &accum{platformCounts: make(map[string]int)}
			byBrand[ad.Brand] = a
			brandOrder = append(brandOrder, ad.Brand)
		}
		a.total++
		if len(ad.PublisherPlatforms) > 1 {
			a.crossPlatCount++
		}
		for _, p := range ad.PublisherPlatforms {
			a.platformCounts[p]++
		}
	}

	var out []model.Signal
	for _, brand := range brandOrder {
		a := byBrand[brand]
		if a.total == 0 {
			continue
		}
		conc := herfindahl(a.platformCounts)
		diversity := 1 - conc
		out = append(out, model.Signal{
			ID:             fmt.Sprintf("channel:platform_diversity:%s", brand),
			Dimension:      model.DimensionChannel,
			Claim:          fmt.Sprintf("%s spreads ad spend across %d platforms (diversity score %.2f)", brand, len(a.platformCounts), diversity),
			Confidence:     0.8,
			BusinessImpact: diversity,
			Actionability:  0.4,
			SupportingRefs: []string{brand},
			SubjectKey:     fmt.Sprintf("platform_diversity:%s", brand),
		})

		synergy := float64(a.crossPlatCount) / float64(a.total)
		out = append(out, model.Signal{
			ID:             fmt.Sprintf("channel:cross_platform_synergy:%s", brand),
			Dimension:      model.DimensionChannel,
			Claim:          fmt.Sprintf("%s runs %.0f%% of its ads simultaneously on multiple platforms", brand, synergy*100),
			Confidence:     0.8,
			BusinessImpact: synergy,
			Actionability:  0.5,
			SupportingRefs: []string{brand},
			SubjectKey:     fmt.Sprintf("cross_platform_synergy:%s", brand),
		})

		for platform, count := range a.platformCounts {
			share := float64(count) / float64(a.total)
			out = append(out, model.Signal{
				ID:             fmt.Sprintf("channel:platform_optimization:%s:%s", brand, platform),
				Dimension:      model.DimensionChannel,
				Claim:          fmt.Sprintf("%s places %.0f%% of its ads on %s", brand, share*100, platform),
				Confidence:     0.7,
				BusinessImpact: share,
				Actionability:  0.4,
				SupportingRefs: []string{brand, platform},
				SubjectKey:     fmt.Sprintf("platform_optimization:%s:%s", brand, platform),
			})
		}
	}
	return out
}
