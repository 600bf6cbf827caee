package intelligence

import (
	"fmt"

	"github.com/adintel/compintel/pkg/model"
)

// Audience emits per-brand Signals for persona concentration, topic
// diversity, and angle-mix balance.
func Audience(ads []model.Ad, labels map[string]model.StrategicLabel) []model.Signal {
	type accum struct {
		personaCounts map[string]int
		topicCounts   map[string]int
		angleCounts   map[model.Angle]int
		labeledCount  int
	}
	byBrand := make(map[string]*accum)
	var order []string

	for _, ad := range ads {
		label, ok := labels[ad.AdID]
		if !ok || label.Persona == "" {
			continue
		}
		a, ok := byBrand[ad.Brand]
		if !ok {
			a = &accum{
				personaCounts: make(map[string]int),
				topicCounts:   make(map[string]int),
				angleCounts:   make(map[model.Angle]int),
			}
			byBrand[ad.Brand] = a
			order = append(order, ad.Brand)
		}
		a.labeledCount++
		if label.Persona != "" {
			a.personaCounts[label.Persona]++
		}
		for _, topic := range label.Topics {
			a.topicCounts[topic]++
		}
		for _, sa := range label.KeptAngles(0) {
			a.angleCounts[sa.Angle]++
		}
	}

	var out []model.Signal
	for _, brand := range order {
		a := byBrand[brand]
		if a.labeledCount == 0 {
			continue
		}

		personaConc := herfindahl(a.personaCounts)
		out = append(out, model.Signal{
			ID:             fmt.Sprintf("audience:persona_concentration:%s", brand),
			Dimension:      model.DimensionAudience,
			Claim:          fmt.Sprintf("%s targets a concentrated set of personas (index %.2f across %d personas)", brand, personaConc, len(a.personaCounts)),
			Confidence:     0.75,
			BusinessImpact: personaConc,
			Actionability:  0.5,
			SupportingRefs: []string{brand},
			SubjectKey:     fmt.Sprintf("persona_concentration:%s", brand),
		})

		topicDiversity := 1 - herfindahl(a.topicCounts)
		out = append(out, model.Signal{
			ID:             fmt.Sprintf("audience:topic_diversity:%s", brand),
			Dimension:      model.DimensionAudience,
			Claim:          fmt.Sprintf("%s covers %d distinct topics (diversity score %.2f)", brand, len(a.topicCounts), topicDiversity),
			Confidence:     0.7,
			BusinessImpact: topicDiversity,
			Actionability:  0.4,
			SupportingRefs: []string{brand},
			SubjectKey:     fmt.Sprintf("topic_diversity:%s", brand),
		})

		angleBalance := 1 - herfindahl(a.angleCounts)
		out = append(out, model.Signal{
			ID:             fmt.Sprintf("audience:angle_mix_balance:%s", brand),
			Dimension:      model.DimensionAudience,
			Claim:          fmt.Sprintf("%s balances its messaging across %d angle types (balance score %.2f)", brand, len(a.angleCounts), angleBalance),
			Confidence:     0.75,
			BusinessImpact: angleBalance,
			Actionability:  0.5,
			SupportingRefs: []string{brand},
			SubjectKey:     fmt.Sprintf("angle_mix_balance:%s", brand),
		})
	}
	return out
}
