// Package artifact implements the pipeline's artifact naming contract and
// the run manifest persistence that backs resumability.
package artifact

import "fmt"

// Name returns the warehouse-namespace-qualified name for an artifact of
// the given kind produced by runID, per the naming contract
// "<kind>_<run_id>".
func Name(kind, runID string) string {
	return fmt.Sprintf("%s_%s", kind, runID)
}

// Well-known artifact kinds, one per stage that persists output.
const (
	KindManifest      = "manifest"
	KindCandidates    = "candidates"
	KindValidated     = "validated_competitors"
	KindRanked        = "ranked_competitors"
	KindAds           = "ads"
	KindLabels        = "strategic_labels"
	KindEmbeddings    = "embeddings"
	KindVisual        = "visual_intelligence"
	KindAnalysis      = "strategic_analysis"
	KindCurrentState  = "current_state"
	KindSimilarity    = "similarity_edges"
	KindFatigue       = "fatigue_scores"
	KindForecast      = "forecasts"
	KindSignals       = "signals"
	KindOutputL1      = "output_l1"
	KindOutputL2      = "output_l2"
	KindOutputL3      = "output_l3"
	KindOutputL4      = "output_l4"
)
