package intelligence

import (
	"fmt"

	"github.com/adintel/compintel/pkg/model"
)

// Visual emits per-brand Signals for visual-text misalignment rate,
// creative-fatigue risk concentration, and differentiation score, joining
// Visual Intelligence's per-ad results back to their owning brand.
func Visual(ads []model.Ad, visuals map[string]model.VisualIntelligence) []model.Signal {
	brandOf := make(map[string]string, len(ads))
	for _, ad := range ads {
		brandOf[ad.AdID] = ad.Brand
	}

	type accum struct {
		misalignedCount     int
		highFatigueCount    int
		differentiationSum  float64
		total               int
	}
	byBrand := make(map[string]*accum)
	var order []string

	for adID, vi := range visuals {
		if vi.VisualUnavailable {
			continue
		}
		brand, ok := brandOf[adID]
		if !ok {
			continue
		}
		a, ok := byBrand[brand]
		if !ok {
			a = &accum{}
			byBrand[brand] = a
			order = append(order, brand)
		}
		a.total++
		if vi.VisualTextAlignment == model.AlignmentMisaligned || vi.VisualTextAlignment == model.AlignmentContradictory {
			a.misalignedCount++
		}
		if vi.CreativeFatigueRisk == model.FatigueRiskHigh {
			a.highFatigueCount++
		}
		a.differentiationSum += vi.Differentiation
	}

	var out []model.Signal
	for _, brand := range order {
		a := byBrand[brand]
		if a.total == 0 {
			continue
		}

		misalignRate := float64(a.misalignedCount) / float64(a.total)
		out = append(out, model.Signal{
			ID:             fmt.Sprintf("visual:misalignment:%s", brand),
			Dimension:      model.DimensionVisual,
			Claim:          fmt.Sprintf("%s's imagery contradicts its copy in %.0f%% of sampled ads", brand, misalignRate*100),
			Confidence:     0.7,
			BusinessImpact: misalignRate,
			Actionability:  0.6,
			SupportingRefs: []string{brand},
			SubjectKey:     fmt.Sprintf("visual_misalignment:%s", brand),
		})

		fatigueConc := float64(a.highFatigueCount) / float64(a.total)
		out = append(out, model.Signal{
			ID:             fmt.Sprintf("visual:fatigue_concentration:%s", brand),
			Dimension:      model.DimensionVisual,
			Claim:          fmt.Sprintf("%s shows high creative-fatigue risk in %.0f%% of sampled ads", brand, fatigueConc*100),
			Confidence:     0.7,
			BusinessImpact: fatigueConc,
			Actionability:  0.7,
			SupportingRefs: []string{brand},
			SubjectKey:     fmt.Sprintf("visual_fatigue_concentration:%s", brand),
		})

		meanDiff := a.differentiationSum / float64(a.total)
		out = append(out, model.Signal{
			ID:             fmt.Sprintf("visual:differentiation:%s", brand),
			Dimension:      model.DimensionVisual,
			Claim:          fmt.Sprintf("%s's creative differentiates visually at a mean score of %.2f", brand, meanDiff),
			Confidence:     0.65,
			BusinessImpact: 1 - meanDiff,
			Actionability:  0.5,
			SupportingRefs: []string{brand},
			SubjectKey:     fmt.Sprintf("visual_differentiation:%s", brand),
		})
	}
	return out
}
