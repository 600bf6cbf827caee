package visual

import (
	"testing"
	"time"

	"github.com/adintel/compintel/pkg/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdaptiveSampleSize_MatchesSpecTable(t *testing.T) {
	assert.Equal(t, 5, adaptiveSampleSize(10))
	assert.Equal(t, 12, adaptiveSampleSize(40))
	assert.Equal(t, 16, adaptiveSampleSize(80))
	assert.Equal(t, 15, adaptiveSampleSize(300))
}

func TestAdaptiveSampleSize_SmallPortfolioCappedAtTen(t *testing.T) {
	assert.Equal(t, 10, adaptiveSampleSize(20))
}

func TestSampleForBudget_ShrinksProportionallyWhenOverGlobalCap(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	var ads []model.Ad
	for i := 0; i < 40; i++ {
		ads = append(ads, model.Ad{AdID: "a-" + string(rune('A'+i%26)) + string(rune('0'+i/26)), Brand: "BrandA", StartTS: now, MediaType: model.MediaImage})
	}
	for i := 0; i < 40; i++ {
		ads = append(ads, model.Ad{AdID: "b-" + string(rune('A'+i%26)) + string(rune('0'+i/26)), Brand: "BrandB", StartTS: now, MediaType: model.MediaImage})
	}

	sampled := SampleForBudget(ads, nil, 0, 10, now)
	assert.LessOrEqual(t, len(sampled), 10)
}

func TestSampleForBudget_NoGlobalCapUsesPerBrandQuota(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	var ads []model.Ad
	for i := 0; i < 10; i++ {
		ads = append(ads, model.Ad{AdID: string(rune('a' + i)), Brand: "BrandA", StartTS: now})
	}
	sampled := SampleForBudget(ads, nil, 0, 0, now)
	assert.Equal(t, 5, len(sampled))
}

func TestSamplingScore_PrefersRecentAndComplexAds(t *testing.T) {
	now := time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)
	recent := model.Ad{StartTS: now, MediaType: model.MediaCarousel, CardCount: 5}
	old := model.Ad{StartTS: now.Add(-30 * 24 * time.Hour), MediaType: model.MediaTextOnly}
	assert.Greater(t, samplingScore(recent, nil, now), samplingScore(old, nil, now))
}

func TestDecodeVisual_PopulatesAllSixFields(t *testing.T) {
	vi := model.VisualIntelligence{}
	decodeVisual(&vi, map[string]any{
		"visual_text_alignment": "ALIGNED",
		"visual_style":          "minimalist",
		"visual_focus":          "product",
		"brand_consistency":     0.9,
		"creative_fatigue_risk": "LOW",
		"differentiation":       0.7,
	})
	require.Equal(t, model.AlignmentAligned, vi.VisualTextAlignment)
	assert.Equal(t, "minimalist", vi.VisualStyle)
	assert.Equal(t, model.FatigueRiskLow, vi.CreativeFatigueRisk)
	assert.Equal(t, 0.9, vi.BrandConsistency)
}
