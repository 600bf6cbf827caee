// Package model defines the typed data contract shared by every pipeline
// stage: competitor candidates, ads, strategic labels, embeddings, visual
// intelligence, similarity edges, signals, and progressive-disclosure output.
package model

import "time"

// DiscoveryMethod is the closed set of ways a CompetitorCandidate can surface.
type DiscoveryMethod string

const (
	MethodSearchEngine     DiscoveryMethod = "search_engine"
	MethodDirectoryListing DiscoveryMethod = "directory_listing"
	MethodHeuristicVertical DiscoveryMethod = "heuristic_vertical"
	MethodMergedMultiMethod DiscoveryMethod = "merged_multi_method"
)

// CompetitorCandidate is Discovery's output: a ranked, provenance-carrying
// guess at a brand's competitor, before any AI validation.
type CompetitorCandidate struct {
	Name           string
	SourceURL      string
	SourceTitle    string
	DiscoveryMethod DiscoveryMethod
	RawScore       float64
	DiscoveredAt   time.Time

	// NormalizedKey is the dedup key (lowercase, suffix-stripped, whitespace
	// collapsed). Populated by the dedup pass, not by the raw search result.
	NormalizedKey string

	// Provenance accumulates source URLs/titles across merges so a
	// deduplicated candidate still carries every contributing result.
	Provenance []Provenance
}

// Provenance is one (query, result) pair that contributed to a candidate's
// discovery or raw_score.
type Provenance struct {
	Query      string
	SourceURL  string
	Rank       int
	QueryType  string
}

// CompetitorTier is the closed set of market-position tiers Curation assigns.
type CompetitorTier string

const (
	TierIncumbent CompetitorTier = "Incumbent"
	TierChallenger CompetitorTier = "Challenger"
	TierNiche     CompetitorTier = "Niche"
	TierEmerging  CompetitorTier = "Emerging"
)

// ValidatedCompetitor is Curation's output: a candidate that survived
// 2-of-3 AI consensus, immutable once written.
type ValidatedCompetitor struct {
	Name             string
	Tier             CompetitorTier
	MarketOverlapPct float64 // [0,100]
	AIConfidence     float64 // [0,1]
	QualityScore     float64 // [0,1]
	Reasoning        string

	DiscoveryMethod DiscoveryMethod
	RawScore        float64
	AcceptingRounds int
}

// ActivityTier is Ranking's ad-archive activity classification.
type ActivityTier string

const (
	ActivityMajor    ActivityTier = "MAJOR"
	ActivityModerate ActivityTier = "MODERATE"
	ActivityMinor    ActivityTier = "MINOR"
	ActivityNone     ActivityTier = "NONE"
)

// RankedCompetitor is Ranking's output: a ValidatedCompetitor with activity
// tier, estimated volume, and a final rank (1-based).
type RankedCompetitor struct {
	ValidatedCompetitor
	ActivityTier     ActivityTier
	EstimatedAdVolume int
	Rank             int
}
