package intelligence

import (
	"testing"

	"github.com/adintel/compintel/pkg/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAudience_ComputesPersonaTopicAndAngleSignals(t *testing.T) {
	ads := []model.Ad{
		{AdID: "a1", Brand: "BrandA"},
		{AdID: "a2", Brand: "BrandA"},
	}
	labels := map[string]model.StrategicLabel{
		"a1": {AdID: "a1", Persona: "founders", Topics: []string{"pricing"}, Angles: []model.ScoredAngle{{Angle: model.AngleUrgency, Confidence: 0.9}}},
		"a2": {AdID: "a2", Persona: "founders", Topics: []string{"onboarding"}, Angles: []model.ScoredAngle{{Angle: model.AngleUrgency, Confidence: 0.8}}},
	}
	signals := Audience(ads, labels)
	require.Len(t, signals, 3)

	var persona model.Signal
	for _, s := range signals {
		if s.SubjectKey == "persona_concentration:BrandA" {
			persona = s
		}
	}
	require.NotEmpty(t, persona.ID)
	assert.InDelta(t, 1.0, persona.BusinessImpact, 1e-9) // single persona => full concentration
}

func TestAudience_SkipsAdsWithoutLabelsOrPersona(t *testing.T) {
	ads := []model.Ad{{AdID: "a1", Brand: "BrandA"}}
	labels := map[string]model.StrategicLabel{"a1": {AdID: "a1"}} // no persona
	signals := Audience(ads, labels)
	assert.Empty(t, signals)
}
