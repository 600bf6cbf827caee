package output

import (
	"fmt"
	"testing"

	"github.com/adintel/compintel/pkg/model"
	"github.com/adintel/compintel/pkg/warehouse/querytpl"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sig(id string, confidence, impact, actionability float64) model.Signal {
	return model.Signal{ID: id, SubjectKey: id, Confidence: confidence, BusinessImpact: impact, Actionability: actionability}
}

func TestPartition_PlacesHighConfidenceHighSeverityInL1(t *testing.T) {
	signals := []model.Signal{sig("a", 0.9, 0.9, 0.9)} // score 0.9
	l1, l2, l3 := Partition(signals, model.DefaultSeverityThresholds)
	assert.Len(t, l1, 1)
	assert.Empty(t, l2)
	assert.Empty(t, l3) // L3 excludes signals already placed in L1
}

func TestPartition_BackfillsL1WhenFewQualifyAtPrimaryFloor(t *testing.T) {
	// score 0.65 clears severity >= 0.6 backfill floor but not the 0.8 primary floor.
	signals := []model.Signal{sig("a", 0.65, 0.65, 0.65)}
	l1, _, _ := Partition(signals, model.DefaultSeverityThresholds)
	require.Len(t, l1, 1)
	assert.Equal(t, "a", l1[0].ID)
}

func TestPartition_BackfillDoesNotRequireConfidenceFloor(t *testing.T) {
	// severity score of 0.8 clears backfill (>= 0.6) even though confidence
	// (0.5) misses the primary tier's 0.7 floor — the spec's backfill
	// clause re-states only the severity condition, not confidence.
	signals := []model.Signal{sig("a", 0.5, 1.0, 1.0)} // score = 0.2+0.4+0.2=0.8
	l1, _, _ := Partition(signals, model.DefaultSeverityThresholds)
	require.Len(t, l1, 1)
	assert.Equal(t, "a", l1[0].ID)
}

func TestPartition_CapsEachTierAtItsMaximum(t *testing.T) {
	var signals []model.Signal
	for i := 0; i < l1Cap+l2Cap+l3Cap; i++ {
		signals = append(signals, sig(idFor(i), 0.9, 0.9, 0.9))
	}
	l1, l2, l3 := Partition(signals, model.DefaultSeverityThresholds)
	assert.Len(t, l1, l1Cap)
	assert.Len(t, l2, l2Cap) // remaining high-severity signals spill into L2, capped
	assert.Len(t, l3, l3Cap)
}

func TestPartition_NoSignalAppearsInMoreThanOneLevel(t *testing.T) {
	var signals []model.Signal
	for i := 0; i < l1Cap+l2Cap+10; i++ {
		signals = append(signals, sig(idFor(i), 0.9, 0.9, 0.9))
	}
	l1, l2, l3 := Partition(signals, model.DefaultSeverityThresholds)
	seen := make(map[string]int)
	for _, sets := range [][]model.Signal{l1, l2, l3} {
		for _, s := range sets {
			seen[s.ID]++
		}
	}
	for id, count := range seen {
		assert.Equalf(t, 1, count, "signal %s appeared in %d levels", id, count)
	}
	// l3's cap (25) is never reached here: only 10 signals remain after
	// L1 and L2 claim 5 and 15, since L3 now excludes their members.
	assert.Len(t, l3, 10)
}

func idFor(i int) string {
	return fmt.Sprintf("sig-%03d", i)
}

func TestPartition_SpillsIntoL2OnceL1CapIsFull(t *testing.T) {
	var signals []model.Signal
	for i := 0; i < l1Cap; i++ {
		signals = append(signals, sig(string(rune('a'+i)), 0.9, 0.9, 0.9))
	}
	signals = append(signals, sig("overflow", 0.65, 0.65, 0.65))

	l1, l2, _ := Partition(signals, model.DefaultSeverityThresholds)
	require.Len(t, l1, l1Cap)
	require.Len(t, l2, 1)
	assert.Equal(t, "overflow", l2[0].ID)
}

func TestRenderQueries_EveryTemplateRendersWithoutError(t *testing.T) {
	registry := querytpl.NewRegistry()
	texts, err := RenderQueries(registry, "brandA", "run123", "BrandA", []string{"BrandB"})
	require.NoError(t, err)
	assert.Equal(t, len(registry.Names()), len(texts))
	for _, text := range texts {
		assert.NotEmpty(t, text)
	}
}
