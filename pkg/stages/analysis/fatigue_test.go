package analysis

import (
	"testing"

	"github.com/adintel/compintel/pkg/model"
	"github.com/stretchr/testify/assert"
)

func TestFatigueScore_PiecewiseRuleMatchesSpecBands(t *testing.T) {
	assert.InDelta(t, 0.84, fatigueScore(0.3, 10, 1), 1e-9)
	assert.InDelta(t, 1.0, fatigueScore(0.1, 5, 10), 1e-9) // capped at 1.0
	assert.InDelta(t, 0.6+22.0/300, fatigueScore(0.45, 22, 0), 1e-9)
	assert.InDelta(t, 0.3+15.0/300, fatigueScore(0.65, 15, 0), 1e-9)
	assert.InDelta(t, 10.0/90, fatigueScore(0.9, 10, 0), 1e-9)
}

func TestFatigueLevelFor_ClassifiesByThreshold(t *testing.T) {
	assert.Equal(t, model.FatigueCritical, fatigueLevelFor(0.85))
	assert.Equal(t, model.FatigueHigh, fatigueLevelFor(0.65))
	assert.Equal(t, model.FatigueModerate, fatigueLevelFor(0.45))
	assert.Equal(t, model.FatigueLow, fatigueLevelFor(0.25))
	assert.Equal(t, model.FatigueFresh, fatigueLevelFor(0.1))
}

func TestMeanCopierInfluence_AveragesOverMultipleEdges(t *testing.T) {
	edges := []model.SimilarityEdge{
		{AdBID: "b1", CosineDistance: 0.0}, // confidence 1.0
		{AdBID: "b1", CosineDistance: 0.4}, // confidence 0.8
	}
	influence := meanCopierInfluence(edges)
	assert.InDelta(t, 0.9, influence["b1"], 1e-9)
}
