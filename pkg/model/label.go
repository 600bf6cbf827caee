package model

// Funnel is the marketing-funnel stage a creative targets.
type Funnel string

const (
	FunnelUpper Funnel = "Upper"
	FunnelMid   Funnel = "Mid"
	FunnelLower Funnel = "Lower"
)

// Angle is one of the closed set of messaging archetypes.
type Angle string

const (
	AnglePromotional     Angle = "PROMOTIONAL"
	AngleEmotional       Angle = "EMOTIONAL"
	AngleRational        Angle = "RATIONAL"
	AngleUrgency         Angle = "URGENCY"
	AngleTrust           Angle = "TRUST"
	AngleSocialProof     Angle = "SOCIAL_PROOF"
	AngleScarcity        Angle = "SCARCITY"
	AngleBenefitFocused  Angle = "BENEFIT_FOCUSED"
	AngleFeatureFocused  Angle = "FEATURE_FOCUSED"
	AngleAspirational    Angle = "ASPIRATIONAL"
)

// AngleComplexity flags the degenerate case where no angle cleared the
// confidence floor.
type AngleComplexity string

const (
	AngleComplexityNone          AngleComplexity = ""
	AngleComplexityNoAngles      AngleComplexity = "NO_ANGLES_DETECTED"
)

// ScoredAngle pairs a messaging archetype with the AI's confidence in it.
type ScoredAngle struct {
	Angle      Angle
	Confidence float64
}

// StrategicLabel is Strategic Labeling's typed, AI-derived attribute set
// for one ad.
type StrategicLabel struct {
	AdID                string
	Funnel              Funnel
	Angles              []ScoredAngle
	Persona             string
	Topics              []string
	UrgencyScore        float64
	PromotionalIntensity float64
	BrandVoiceScore     float64

	AngleComplexity   AngleComplexity
	LabelingDegraded  bool
}

// KeptAngles returns the angles whose confidence meets floor, in descending
// confidence order as returned by the AI (order is preserved, not re-sorted,
// per the ordered-set invariant in spec.md).
func (l StrategicLabel) KeptAngles(floor float64) []ScoredAngle {
	out := make([]ScoredAngle, 0, len(l.Angles))
	for _, a := range l.Angles {
		if a.Confidence >= floor {
			out = append(out, a)
		}
	}
	return out
}

// Clamp01 clamps x into [0,1]; used for every numeric score an AI call
// returns, per the "AI Output Malformed" error-handling contract.
func Clamp01(x float64) float64 {
	switch {
	case x < 0:
		return 0
	case x > 1:
		return 1
	default:
		return x
	}
}
