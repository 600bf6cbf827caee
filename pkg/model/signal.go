package model

// Dimension is the closed set of intelligence dimensions a Signal belongs to.
type Dimension string

const (
	DimensionCompetitive Dimension = "COMPETITIVE"
	DimensionCreative    Dimension = "CREATIVE"
	DimensionChannel     Dimension = "CHANNEL"
	DimensionAudience    Dimension = "AUDIENCE"
	DimensionVisual      Dimension = "VISUAL"
	DimensionCTA         Dimension = "CTA"
	DimensionWhitespace  Dimension = "WHITESPACE"
	DimensionTemporal    Dimension = "TEMPORAL"
)

// Severity is the derived, thresholded bucket of a Signal's composite score.
type Severity string

const (
	SeverityCritical Severity = "CRITICAL"
	SeverityHigh     Severity = "HIGH"
	SeverityMedium   Severity = "MEDIUM"
	SeverityLow      Severity = "LOW"
	SeverityNoise    Severity = "NOISE"
)

// Signal is a single structured insight produced by Multi-Dimensional
// Intelligence, consumed by Enhanced Output's progressive disclosure.
type Signal struct {
	ID             string
	Dimension      Dimension
	Claim          string
	Confidence     float64 // [0,1]
	BusinessImpact float64 // [0,1]
	Actionability  float64 // [0,1]
	SupportingRefs []string

	// SubjectKey identifies the semantic subject of this signal for
	// cross-module deduplication: (dimension, subject_key) is the merge key,
	// and the highest-severity instance wins (§9 dedup redesign flag).
	SubjectKey string
}

// SeverityScore computes the composite severity score per spec.md §3:
// 0.4*confidence + 0.4*impact + 0.2*actionability.
func (s Signal) SeverityScore() float64 {
	return 0.4*s.Confidence + 0.4*s.BusinessImpact + 0.2*s.Actionability
}

// DefaultSeverityThresholds are the default thresholds for Signal.Severity,
// configurable via RunContext.Config.Thresholds.ProgressiveDisclosureThresholds.
var DefaultSeverityThresholds = [4]float64{0.8, 0.6, 0.4, 0.2}

// SeverityFor classifies a composite score into a Severity bucket using the
// given (critical, high, medium, low) thresholds. Boundaries are inclusive
// on the lower edge of each bucket (score >= threshold).
func SeverityFor(score float64, thresholds [4]float64) Severity {
	switch {
	case score >= thresholds[0]:
		return SeverityCritical
	case score >= thresholds[1]:
		return SeverityHigh
	case score >= thresholds[2]:
		return SeverityMedium
	case score >= thresholds[3]:
		return SeverityLow
	default:
		return SeverityNoise
	}
}
