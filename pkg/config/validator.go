package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// Validator validates configuration comprehensively with clear error
// messages: struct-tag rules first (via go-playground/validator), then
// cross-reference checks that a tag alone cannot express.
type Validator struct {
	cfg *Config
	v   *validator.Validate
}

// NewValidator creates a validator for the given configuration.
func NewValidator(cfg *Config) *Validator {
	return &Validator{cfg: cfg, v: validator.New(validator.WithRequiredStructEnabled())}
}

// ValidateAll performs comprehensive validation (fail-fast — stops at the
// first error). Order: struct-tag rules, then threshold ordering,
// verticals, method weights, and the curation deny list.
func (val *Validator) ValidateAll() error {
	if err := val.v.Struct(val.cfg); err != nil {
		return fmt.Errorf("%w: %v", ErrValidationFailed, err)
	}

	if err := val.validateThresholdOrdering(); err != nil {
		return fmt.Errorf("threshold validation failed: %w", err)
	}
	if err := val.validateVerticals(); err != nil {
		return fmt.Errorf("vertical validation failed: %w", err)
	}
	if err := val.validateMethodWeights(); err != nil {
		return fmt.Errorf("method weight validation failed: %w", err)
	}
	if err := val.validateCurationDenyList(); err != nil {
		return fmt.Errorf("curation deny-list validation failed: %w", err)
	}

	return nil
}

// validateThresholdOrdering enforces that the four progressive-disclosure
// thresholds strictly decrease (critical > high > medium > low), since
// SeverityFor relies on top-to-bottom first-match evaluation.
func (val *Validator) validateThresholdOrdering() error {
	t := val.cfg.Thresholds.ProgressiveDisclosureThresholds
	for i := 1; i < len(t); i++ {
		if t[i] >= t[i-1] {
			return NewValidationError("thresholds", "", "progressive_disclosure_thresholds",
				fmt.Errorf("thresholds must strictly decrease, got %v", t))
		}
	}
	return nil
}

func (val *Validator) validateVerticals() error {
	if len(val.cfg.Verticals) == 0 {
		return NewValidationError("verticals", "", "", fmt.Errorf("at least one vertical must be configured"))
	}
	for key, vc := range val.cfg.Verticals {
		if key == "" {
			return NewValidationError("verticals", key, "", fmt.Errorf("vertical key must not be empty"))
		}
		if len(vc.SearchKeywords) == 0 {
			return NewValidationError("verticals", key, "search_keywords", fmt.Errorf("at least one search keyword required"))
		}
	}
	return nil
}

// validateMethodWeights ensures every DiscoveryMethod value used by the
// Curation stage's consensus score has a configured weight.
func (val *Validator) validateMethodWeights() error {
	required := []string{"search_engine", "directory_listing", "heuristic_vertical", "merged_multi_method"}
	for _, m := range required {
		if _, ok := val.cfg.MethodWeights[m]; !ok {
			return NewValidationError("method_weights", m, "", fmt.Errorf("no weight configured for discovery method %q", m))
		}
	}
	return nil
}

func (val *Validator) validateCurationDenyList() error {
	seen := make(map[string]bool, len(val.cfg.CurationDenyList))
	for _, name := range val.cfg.CurationDenyList {
		if name == "" {
			return NewValidationError("curation_deny_list", "", "", fmt.Errorf("deny-list entries must not be empty"))
		}
		if seen[name] {
			return NewValidationError("curation_deny_list", name, "", fmt.Errorf("duplicate deny-list entry"))
		}
		seen[name] = true
	}
	return nil
}
