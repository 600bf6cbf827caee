package curation

import (
	"testing"

	"github.com/adintel/compintel/pkg/model"
	"github.com/stretchr/testify/assert"
)

func candidate(method model.DiscoveryMethod, rawScore float64) model.CompetitorCandidate {
	return model.CompetitorCandidate{Name: "Acme Corp", DiscoveryMethod: method, RawScore: rawScore}
}

func TestConsensus_AcceptsWhenTwoOfThreeRoundsAgree(t *testing.T) {
	votes := []roundVote{
		{Name: "Acme Corp", IsCompetitor: true, Tier: "Challenger", Confidence: 0.7, MarketOverlapPct: 60},
		{Name: "Acme Corp", IsCompetitor: true, Tier: "Challenger", Confidence: 0.65, MarketOverlapPct: 50},
		{Name: "Acme Corp", IsCompetitor: false, Confidence: 0.3},
	}
	vc, accepted := Consensus(candidate(model.MethodSearchEngine, 1.0), votes, 1.0, 1.0)
	assert.True(t, accepted)
	assert.Equal(t, model.TierChallenger, vc.Tier)
	assert.Equal(t, 2, vc.AcceptingRounds)
	assert.InDelta(t, (0.7+0.65)/2, vc.AIConfidence, 1e-9)
	assert.InDelta(t, 55.0, vc.MarketOverlapPct, 1e-9)
}

func TestConsensus_RejectsWhenOnlyOneRoundAgrees(t *testing.T) {
	votes := []roundVote{
		{Name: "Acme Corp", IsCompetitor: true, Confidence: 0.9},
		{Name: "Acme Corp", IsCompetitor: false, Confidence: 0.9},
		{Name: "Acme Corp", IsCompetitor: false, Confidence: 0.9},
	}
	_, accepted := Consensus(candidate(model.MethodSearchEngine, 1.0), votes, 1.0, 1.0)
	assert.False(t, accepted)
}

func TestConsensus_RejectsWhenAcceptingAverageBelowFloor(t *testing.T) {
	votes := []roundVote{
		{Name: "Acme Corp", IsCompetitor: true, Confidence: 0.5},
		{Name: "Acme Corp", IsCompetitor: true, Confidence: 0.3},
		{Name: "Acme Corp", IsCompetitor: false, Confidence: 0.9},
	}
	_, accepted := Consensus(candidate(model.MethodSearchEngine, 1.0), votes, 1.0, 1.0)
	assert.False(t, accepted)
}

func TestConsensus_RejectsWithNoVotes(t *testing.T) {
	_, accepted := Consensus(candidate(model.MethodSearchEngine, 1.0), nil, 1.0, 1.0)
	assert.False(t, accepted)
}

func TestConsensus_QualityScoreCombinesAllFourTerms(t *testing.T) {
	votes := []roundVote{
		{Name: "Acme Corp", IsCompetitor: true, Confidence: 1.0, MarketOverlapPct: 100},
		{Name: "Acme Corp", IsCompetitor: true, Confidence: 1.0, MarketOverlapPct: 100},
	}
	vc, accepted := Consensus(candidate(model.MethodSearchEngine, 2.0), votes, 2.0, 1.0)
	assert.True(t, accepted)
	// avg_confidence=1.0, normalized_raw_score=1.0, avg_market_overlap=1.0, method_weight=1.0
	// => 0.4 + 0.3 + 0.2 + 0.1 = 1.0
	assert.InDelta(t, 1.0, vc.QualityScore, 1e-9)
}

func TestMethodWeight_DefaultsToOneWhenUnconfigured(t *testing.T) {
	assert.Equal(t, 1.0, methodWeight(nil, model.MethodHeuristicVertical))
	assert.Equal(t, 0.7, methodWeight(map[string]float64{"directory_listing": 0.7}, model.MethodDirectoryListing))
}

func TestFilterDenyList_RemovesCaseInsensitiveMatches(t *testing.T) {
	candidates := []model.CompetitorCandidate{
		{Name: "Acme Corp"},
		{Name: "Other Inc"},
	}
	out := filterDenyList(candidates, []string{"acme corp"})
	assert.Len(t, out, 1)
	assert.Equal(t, "Other Inc", out[0].Name)
}

func TestMaxRawScoreOf_FindsMaximum(t *testing.T) {
	candidates := []model.CompetitorCandidate{{RawScore: 0.2}, {RawScore: 0.9}, {RawScore: 0.5}}
	assert.Equal(t, 0.9, maxRawScoreOf(candidates))
}

func TestDecodeVote_TolerantOfMissingFields(t *testing.T) {
	v := decodeVote(map[string]any{"name": "Acme", "is_competitor": true})
	assert.Equal(t, "Acme", v.Name)
	assert.True(t, v.IsCompetitor)
	assert.Equal(t, 0.0, v.Confidence)
}
