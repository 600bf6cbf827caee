package discovery

import (
	"testing"

	"github.com/adintel/compintel/pkg/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMerge_CombinesDuplicatesAcrossMethods(t *testing.T) {
	candidates := []model.CompetitorCandidate{
		{Name: "Acme Corp", NormalizedKey: "acme corp", DiscoveryMethod: model.MethodSearchEngine, RawScore: 0.5,
			Provenance: []model.Provenance{{Query: "q1"}}},
		{Name: "Acme Corp", NormalizedKey: "acme corp", DiscoveryMethod: model.MethodDirectoryListing, RawScore: 0.9,
			Provenance: []model.Provenance{{Query: "q2"}}},
		{Name: "Other Inc", NormalizedKey: "other", DiscoveryMethod: model.MethodSearchEngine, RawScore: 0.3},
	}

	merged := Merge(candidates)
	require.Len(t, merged, 2)

	acme := merged[0]
	assert.Equal(t, model.MethodMergedMultiMethod, acme.DiscoveryMethod)
	assert.Equal(t, 0.9, acme.RawScore)
	assert.Len(t, acme.Provenance, 2)
}

func TestMerge_PreservesSingleMethodForUniqueCandidates(t *testing.T) {
	candidates := []model.CompetitorCandidate{
		{Name: "Solo Inc", NormalizedKey: "solo", DiscoveryMethod: model.MethodSearchEngine, RawScore: 0.4},
	}
	merged := Merge(candidates)
	require.Len(t, merged, 1)
	assert.Equal(t, model.MethodSearchEngine, merged[0].DiscoveryMethod)
}

func TestNormalizeKey_StripsLegalSuffixesAndCase(t *testing.T) {
	assert.Equal(t, "acme", normalizeKey("Acme, Inc"))
	assert.Equal(t, "acme", normalizeKey("ACME LLC"))
	assert.Equal(t, "acme widgets", normalizeKey("  Acme   Widgets  Ltd."))
}

func TestCandidateNameFromTitle_SplitsOnSeparatorAndRejectsBrand(t *testing.T) {
	assert.Equal(t, "Acme", candidateNameFromTitle("Acme | Best Widgets", "SelfBrand"))
	assert.Equal(t, "", candidateNameFromTitle("SelfBrand - Home", "SelfBrand"))
	assert.Equal(t, "", candidateNameFromTitle("", "SelfBrand"))
}
