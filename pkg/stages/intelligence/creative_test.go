package intelligence

import (
	"testing"

	"github.com/adintel/compintel/pkg/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreative_ComputesEmotionalIntensitySentimentLengthAndMentions(t *testing.T) {
	ads := []model.Ad{
		{AdID: "a1", Brand: "BrandA", CreativeText: "BrandA is the best choice for your team"},
		{AdID: "a2", Brand: "BrandA", CreativeText: "Save big today"},
	}
	labels := map[string]model.StrategicLabel{
		"a1": {AdID: "a1", BrandVoiceScore: 0.9, Angles: []model.ScoredAngle{{Angle: model.AngleEmotional, Confidence: 0.8}}},
		"a2": {AdID: "a2", BrandVoiceScore: 0.2},
	}
	signals := Creative(ads, labels)
	byKey := make(map[string]model.Signal)
	for _, s := range signals {
		byKey[s.SubjectKey] = s
	}
	require.Contains(t, byKey, "emotional_intensity:BrandA")
	assert.InDelta(t, 0.8, byKey["emotional_intensity:BrandA"].Confidence, 1e-9)
	require.Contains(t, byKey, "positive_sentiment:BrandA")
	assert.InDelta(t, 0.5, byKey["positive_sentiment:BrandA"].BusinessImpact, 1e-9)
	require.Contains(t, byKey, "brand_mentions:BrandA")
	assert.InDelta(t, 0.5, byKey["brand_mentions:BrandA"].BusinessImpact, 1e-9)
}

func TestCreative_NoLabelsStillProducesLengthAndMentionSignals(t *testing.T) {
	ads := []model.Ad{{AdID: "a1", Brand: "BrandA", CreativeText: "plain copy"}}
	signals := Creative(ads, nil)
	require.Len(t, signals, 2)
}
