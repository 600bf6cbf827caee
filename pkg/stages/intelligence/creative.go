package intelligence

import (
	"fmt"
	"strings"

	"github.com/adintel/compintel/pkg/model"
)

// sentimentFloor is the brand-voice score an ad must clear to count toward
// a brand's positive-sentiment ratio.
const sentimentFloor = 0.5

// Creative emits per-brand Signals for emotional intensity, positive-
// sentiment ratio, average creative length, and brand-mention frequency.
func Creative(ads []model.Ad, labels map[string]model.StrategicLabel) []model.Signal {
	type accum struct {
		emotionalSum   float64
		emotionalCount int
		positiveCount  int
		labeledCount   int
		lengthSum      int
		mentionCount   int
		total          int
	}
	byBrand := make(map[string]*accum)
	var order []string

	for _, ad := range ads {
		a, ok := byBrand[ad.Brand]
		if !ok {
			a = &accum{}
			byBrand[ad.Brand] = a
			order = append(order, ad.Brand)
		}
		a.total++
		a.lengthSum += len(ad.CreativeText)
		if strings.Contains(strings.ToLower(ad.CreativeText), strings.ToLower(ad.Brand)) {
			a.mentionCount++
		}
		label, ok := labels[ad.AdID]
		if !ok {
			continue
		}
		a.labeledCount++
		if label.BrandVoiceScore >= sentimentFloor {
			a.positiveCount++
		}
		for _, sa := range label.Angles {
			if sa.Angle == model.AngleEmotional {
				a.emotionalSum += sa.Confidence
				a.emotionalCount++
			}
		}
	}

	var out []model.Signal
	for _, brand := range order {
		a := byBrand[brand]

		if a.emotionalCount > 0 {
			mean := a.emotionalSum / float64(a.emotionalCount)
			out = append(out, model.Signal{
				ID:             fmt.Sprintf("creative:emotional_intensity:%s", brand),
				Dimension:      model.DimensionCreative,
				Claim:          fmt.Sprintf("%s leans on emotional messaging (mean confidence %.2f across %d ads)", brand, mean, a.emotionalCount),
				Confidence:     mean,
				BusinessImpact: mean,
				Actionability:  0.5,
				SupportingRefs: []string{brand},
				SubjectKey:     fmt.Sprintf("emotional_intensity:%s", brand),
			})
		}

		if a.labeledCount > 0 {
			ratio := float64(a.positiveCount) / float64(a.labeledCount)
			out = append(out, model.Signal{
				ID:             fmt.Sprintf("creative:positive_sentiment:%s", brand),
				Dimension:      model.DimensionCreative,
				Claim:          fmt.Sprintf("%s's creative reads positive in brand voice %.0f%% of the time", brand, ratio*100),
				Confidence:     0.7,
				BusinessImpact: ratio,
				Actionability:  0.4,
				SupportingRefs: []string{brand},
				SubjectKey:     fmt.Sprintf("positive_sentiment:%s", brand),
			})
		}

		if a.total > 0 {
			avgLen := float64(a.lengthSum) / float64(a.total)
			mentionFreq := float64(a.mentionCount) / float64(a.total)
			out = append(out, model.Signal{
				ID:             fmt.Sprintf("creative:length:%s", brand),
				Dimension:      model.DimensionCreative,
				Claim:          fmt.Sprintf("%s averages %.0f characters of creative text per ad", brand, avgLen),
				Confidence:     0.9,
				BusinessImpact: 0.3,
				Actionability:  0.3,
				SupportingRefs: []string{brand},
				SubjectKey:     fmt.Sprintf("avg_length:%s", brand),
			})
			out = append(out, model.Signal{
				ID:             fmt.Sprintf("creative:brand_mentions:%s", brand),
				Dimension:      model.DimensionCreative,
				Claim:          fmt.Sprintf("%s names itself in %.0f%% of its own creative", brand, mentionFreq*100),
				Confidence:     0.9,
				BusinessImpact: mentionFreq,
				Actionability:  0.3,
				SupportingRefs: []string{brand},
				SubjectKey:     fmt.Sprintf("brand_mentions:%s", brand),
			})
		}
	}
	return out
}
