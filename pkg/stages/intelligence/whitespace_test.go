package intelligence

import (
	"testing"

	"github.com/adintel/compintel/pkg/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyCell_ClassifiesByCompetitorCountAndIntensity(t *testing.T) {
	assert.Equal(t, cellVirginTerritory, classifyCell(0, 0))
	assert.Equal(t, cellMonopoly, classifyCell(1, 0.9))
	assert.Equal(t, cellUnderserved, classifyCell(3, 0.1))
	assert.Equal(t, cellCompetitive, classifyCell(3, 0.9))
	assert.Equal(t, cellCompetitive, classifyCell(5, 0.1))
}

func TestWhitespace_EmitsSignalForUnderservedCellAboveOpportunityFloor(t *testing.T) {
	ads := []model.Ad{
		{AdID: "a1", Brand: "BrandA"},
		{AdID: "a2", Brand: "BrandB"},
	}
	labels := map[string]model.StrategicLabel{
		"a1": {AdID: "a1", Persona: "founders", Funnel: model.FunnelUpper, PromotionalIntensity: 0.1, Angles: []model.ScoredAngle{{Angle: model.AngleUrgency, Confidence: 0.9}}},
		"a2": {AdID: "a2", Persona: "founders", Funnel: model.FunnelUpper, PromotionalIntensity: 0.1, Angles: []model.ScoredAngle{{Angle: model.AngleUrgency, Confidence: 0.9}}},
	}
	signals := Whitespace(ads, labels)
	require.Len(t, signals, 1)
	assert.Equal(t, model.DimensionWhitespace, signals[0].Dimension)
}

func TestWhitespace_MonopolyCellScoresZeroOpportunityAndIsExcluded(t *testing.T) {
	ads := []model.Ad{{AdID: "a1", Brand: "BrandA"}}
	labels := map[string]model.StrategicLabel{
		"a1": {AdID: "a1", Persona: "founders", Funnel: model.FunnelUpper, Angles: []model.ScoredAngle{{Angle: model.AngleUrgency, Confidence: 0.9}}},
	}
	signals := Whitespace(ads, labels)
	assert.Empty(t, signals)
}

func TestWhitespace_SkipsCompetitiveCells(t *testing.T) {
	ads := []model.Ad{
		{AdID: "a1", Brand: "BrandA"},
		{AdID: "a2", Brand: "BrandB"},
		{AdID: "a3", Brand: "BrandC"},
	}
	labels := map[string]model.StrategicLabel{
		"a1": {AdID: "a1", Persona: "founders", Funnel: model.FunnelUpper, PromotionalIntensity: 0.9, Angles: []model.ScoredAngle{{Angle: model.AngleUrgency, Confidence: 0.9}}},
		"a2": {AdID: "a2", Persona: "founders", Funnel: model.FunnelUpper, PromotionalIntensity: 0.9, Angles: []model.ScoredAngle{{Angle: model.AngleUrgency, Confidence: 0.9}}},
		"a3": {AdID: "a3", Persona: "founders", Funnel: model.FunnelUpper, PromotionalIntensity: 0.9, Angles: []model.ScoredAngle{{Angle: model.AngleUrgency, Confidence: 0.9}}},
	}
	signals := Whitespace(ads, labels)
	assert.Empty(t, signals)
}
