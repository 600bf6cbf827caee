package model

import "time"

// SimilarityEdge is a derived, per-run cross-brand similarity edge between
// two ads. Directional: A is always the earlier (source) ad, B the later
// (copier) ad.
type SimilarityEdge struct {
	AdAID           string
	AdBID           string
	BrandA          string
	BrandB          string
	StartTSA        time.Time
	StartTSB        time.Time
	CosineDistance  float64
	LagDays         int
	Directional     bool
}

// Confidence returns the edge's copying-confidence, scaled from cosine
// distance per spec.md §4.9 ("confidence is 1 - distance, scaled").
func (e SimilarityEdge) Confidence() float64 {
	c := 1 - e.CosineDistance/2 // cosine distance lives in [0,2]; normalize to [0,1]
	return Clamp01(c)
}

// BrandPairAggregate summarizes all SimilarityEdges between one ordered
// (source, copier) brand pair.
type BrandPairAggregate struct {
	SourceBrand   string
	CopierBrand   string
	MaxSimilarity float64
	MeanSimilarity float64
	EdgeCount     int
}
