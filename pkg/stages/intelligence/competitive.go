package intelligence

import (
	"fmt"

	"github.com/adintel/compintel/pkg/model"
)

// platformConcentrationFloor is the Herfindahl index above which a brand's
// publisher-platform spread is flagged as a concentration risk.
const platformConcentrationFloor = 0.7

// Competitive emits one Signal per high-similarity (copier, source) brand
// pair above threshold, and one Signal per brand whose publisher-platform
// spread is concentrated enough to be a single-channel dependency risk.
// The same cosine threshold that gates Strategic Analysis's similarity
// edges gates which brand pairs are severe enough to report here too,
// expressed as its equivalent confidence floor.
func Competitive(ads []model.Ad, brandPairs []model.BrandPairAggregate, cosineThreshold float64) []model.Signal {
	var out []model.Signal

	severityFloor := model.Clamp01(1 - cosineThreshold/2)
	for _, p := range brandPairs {
		if p.MeanSimilarity < severityFloor {
			continue
		}
		out = append(out, model.Signal{
			ID:             fmt.Sprintf("competitive:copy:%s:%s", p.SourceBrand, p.CopierBrand),
			Dimension:      model.DimensionCompetitive,
			Claim:          fmt.Sprintf("%s closely mirrors %s's creative (mean similarity %.2f across %d ad pairs)", p.CopierBrand, p.SourceBrand, p.MeanSimilarity, p.EdgeCount),
			Confidence:     p.MeanSimilarity,
			BusinessImpact: p.MaxSimilarity,
			Actionability:  0.7,
			SupportingRefs: []string{p.SourceBrand, p.CopierBrand},
			SubjectKey:     fmt.Sprintf("copy_pair:%s:%s", p.SourceBrand, p.CopierBrand),
		})
	}

	platformCounts := make(map[string]map[string]int) // brand -> platform -> count
	var brandOrder []string
	for _, ad := range ads {
		m, ok := platformCounts[ad.Brand]
		if !ok {
			m = make(map[string]int)
			platformCounts[ad.Brand] = m
			brandOrder = append(brandOrder, ad.Brand)
		}
		for _, p := range ad.PublisherPlatforms {
			m[p]++
		}
	}
	for _, brand := range brandOrder {
		conc := herfindahl(platformCounts[brand])
		if conc < platformConcentrationFloor {
			continue
		}
		out = append(out, model.Signal{
			ID:             fmt.Sprintf("competitive:platform_risk:%s", brand),
			Dimension:      model.DimensionCompetitive,
			Claim:          fmt.Sprintf("%s concentrates its ad spend on a small set of platforms (concentration index %.2f)", brand, conc),
			Confidence:     0.8,
			BusinessImpact: conc,
			Actionability:  0.6,
			SupportingRefs: []string{brand},
			SubjectKey:     fmt.Sprintf("platform_risk:%s", brand),
		})
	}

	return out
}
