package intelligence

import (
	"testing"

	"github.com/adintel/compintel/pkg/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompetitive_EmitsSignalForHighSimilarityPairAboveFloor(t *testing.T) {
	pairs := []model.BrandPairAggregate{
		{SourceBrand: "BrandA", CopierBrand: "BrandB", MeanSimilarity: 0.9, MaxSimilarity: 0.95, EdgeCount: 3},
	}
	signals := Competitive(nil, pairs, 0.2) // floor = 1 - 0.2/2 = 0.9
	require.Len(t, signals, 1)
	assert.Equal(t, model.DimensionCompetitive, signals[0].Dimension)
}

func TestCompetitive_SkipsPairBelowFloor(t *testing.T) {
	pairs := []model.BrandPairAggregate{
		{SourceBrand: "BrandA", CopierBrand: "BrandB", MeanSimilarity: 0.5, MaxSimilarity: 0.6, EdgeCount: 1},
	}
	signals := Competitive(nil, pairs, 0.2)
	assert.Empty(t, signals)
}

func TestCompetitive_FlagsConcentratedPlatformSpend(t *testing.T) {
	ads := []model.Ad{
		{Brand: "BrandA", PublisherPlatforms: []string{"facebook"}},
		{Brand: "BrandA", PublisherPlatforms: []string{"facebook"}},
	}
	signals := Competitive(ads, nil, 0.5)
	require.Len(t, signals, 1)
	assert.Equal(t, "competitive:platform_risk:BrandA", signals[0].ID)
}

func TestCompetitive_DoesNotFlagDiversePlatformSpend(t *testing.T) {
	ads := []model.Ad{
		{Brand: "BrandA", PublisherPlatforms: []string{"facebook"}},
		{Brand: "BrandA", PublisherPlatforms: []string{"instagram"}},
		{Brand: "BrandA", PublisherPlatforms: []string{"tiktok"}},
	}
	signals := Competitive(ads, nil, 0.5)
	assert.Empty(t, signals)
}
