package intelligence

import (
	"testing"

	"github.com/adintel/compintel/pkg/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDedup_KeepsHighestSeverityPerSubjectKey(t *testing.T) {
	signals := []model.Signal{
		{Dimension: model.DimensionChannel, SubjectKey: "x", Confidence: 0.3, BusinessImpact: 0.3, Actionability: 0.3},
		{Dimension: model.DimensionChannel, SubjectKey: "x", Confidence: 0.9, BusinessImpact: 0.9, Actionability: 0.9},
	}
	out := Dedup(signals)
	require.Len(t, out, 1)
	assert.InDelta(t, 0.9, out[0].Confidence, 1e-9)
}

func TestDedup_KeepsDistinctDimensionsEvenWithSameSubjectKey(t *testing.T) {
	signals := []model.Signal{
		{Dimension: model.DimensionChannel, SubjectKey: "BrandA"},
		{Dimension: model.DimensionAudience, SubjectKey: "BrandA"},
	}
	out := Dedup(signals)
	assert.Len(t, out, 2)
}

func TestAggregateBrandPairs_ComputesMaxMeanAndCount(t *testing.T) {
	edges := []model.SimilarityEdge{
		{BrandA: "Source", BrandB: "Copier", CosineDistance: 0.0}, // confidence 1.0
		{BrandA: "Source", BrandB: "Copier", CosineDistance: 0.4}, // confidence 0.8
	}
	pairs := aggregateBrandPairs(edges)
	require.Len(t, pairs, 1)
	assert.Equal(t, "Source", pairs[0].SourceBrand)
	assert.Equal(t, "Copier", pairs[0].CopierBrand)
	assert.InDelta(t, 1.0, pairs[0].MaxSimilarity, 1e-9)
	assert.InDelta(t, 0.9, pairs[0].MeanSimilarity, 1e-9)
	assert.Equal(t, 2, pairs[0].EdgeCount)
}
