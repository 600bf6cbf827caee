package ranking

import (
	"testing"

	"github.com/adintel/compintel/pkg/model"
	"github.com/stretchr/testify/assert"
)

func TestActivityTierFor_ClassifiesByCountThresholds(t *testing.T) {
	assert.Equal(t, model.ActivityMajor, activityTierFor(50, true))
	assert.Equal(t, model.ActivityMajor, activityTierFor(120, true))
	assert.Equal(t, model.ActivityModerate, activityTierFor(10, true))
	assert.Equal(t, model.ActivityMinor, activityTierFor(1, true))
	assert.Equal(t, model.ActivityNone, activityTierFor(0, true))
}

func TestActivityTierFor_FailedProbeIsNone(t *testing.T) {
	assert.Equal(t, model.ActivityNone, activityTierFor(500, false))
}

func TestMetaWeight_MapsTierToWeight(t *testing.T) {
	assert.Equal(t, 1.0, metaWeight(model.ActivityMajor))
	assert.Equal(t, 0.6, metaWeight(model.ActivityModerate))
	assert.Equal(t, 0.3, metaWeight(model.ActivityMinor))
	assert.Equal(t, 0.0, metaWeight(model.ActivityNone))
}

func TestRankScore_BlendsQualityAndActivity(t *testing.T) {
	r := model.RankedCompetitor{
		ValidatedCompetitor: model.ValidatedCompetitor{QualityScore: 0.5},
		ActivityTier:        model.ActivityMajor,
	}
	assert.InDelta(t, 0.4*0.5+0.6*1.0, rankScore(r), 1e-9)
}

func TestRankScore_FailedProbeFallsBackToQualityOnly(t *testing.T) {
	r := model.RankedCompetitor{
		ValidatedCompetitor: model.ValidatedCompetitor{QualityScore: 0.8},
		ActivityTier:        model.ActivityNone,
	}
	assert.InDelta(t, 0.4*0.8, rankScore(r), 1e-9)
}
