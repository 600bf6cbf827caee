package config

import "time"

// DefaultForecastLookbackDays is the lookback window forecasts are computed
// over when not overridden, per the fixed Open Question decision (90 days).
const DefaultForecastLookbackDays = 90

// DefaultBudgetConfig returns the system-wide default resource budgets,
// applied for any field left unset in the loaded YAML.
func DefaultBudgetConfig() BudgetConfig {
	return BudgetConfig{
		MaxCompetitors:             50,
		AdFetchParallelism:         8,
		VisualBudgetImagesPerBrand: 20,
		VisualTotalBudget:          200,
		ForecastHorizonWeeks:       12,
	}
}

// DefaultThresholdConfig returns the system-wide default scoring and
// disclosure thresholds.
func DefaultThresholdConfig() ThresholdConfig {
	return ThresholdConfig{
		SimilarityCosineThreshold:       0.85,
		SimilarityLagDaysMax:            60,
		AngleConfidenceFloor:            0.5,
		ProgressiveDisclosureThresholds: [4]float64{0.8, 0.6, 0.4, 0.2},
	}
}

// DefaultMethodWeights is the fixed discovery-method weight mapping decided
// for the Curation consensus score, per the Open Question decision in
// SPEC_FULL.md §D.
func DefaultMethodWeights() map[string]float64 {
	return map[string]float64{
		"search_engine":        1.0,
		"directory_listing":    0.7,
		"heuristic_vertical":   0.5,
		"merged_multi_method":  1.0,
	}
}

// DefaultWarehouseRequestTimeout bounds a single warehouse AI call.
const DefaultWarehouseRequestTimeout = 60 * time.Second

// applyDefaults fills unset fields of a loaded Config with system defaults.
// Zero-value fields are indistinguishable from "not specified" for the
// scalar budget/threshold knobs, which is acceptable here: every default is
// itself a valid, non-zero value, so a YAML author who truly wants zero
// must set validate:min=0 fields explicitly and accept the default applying
// to any field they omit.
func applyDefaults(cfg *Config) {
	zeroBudgets := DefaultBudgetConfig()
	if cfg.Budgets.MaxCompetitors == 0 {
		cfg.Budgets.MaxCompetitors = zeroBudgets.MaxCompetitors
	}
	if cfg.Budgets.AdFetchParallelism == 0 {
		cfg.Budgets.AdFetchParallelism = zeroBudgets.AdFetchParallelism
	}
	if cfg.Budgets.VisualBudgetImagesPerBrand == 0 {
		cfg.Budgets.VisualBudgetImagesPerBrand = zeroBudgets.VisualBudgetImagesPerBrand
	}
	if cfg.Budgets.VisualTotalBudget == 0 {
		cfg.Budgets.VisualTotalBudget = zeroBudgets.VisualTotalBudget
	}
	if cfg.Budgets.ForecastHorizonWeeks == 0 {
		cfg.Budgets.ForecastHorizonWeeks = zeroBudgets.ForecastHorizonWeeks
	}

	zeroThresholds := DefaultThresholdConfig()
	if cfg.Thresholds.SimilarityCosineThreshold == 0 {
		cfg.Thresholds.SimilarityCosineThreshold = zeroThresholds.SimilarityCosineThreshold
	}
	if cfg.Thresholds.SimilarityLagDaysMax == 0 {
		cfg.Thresholds.SimilarityLagDaysMax = zeroThresholds.SimilarityLagDaysMax
	}
	if cfg.Thresholds.AngleConfidenceFloor == 0 {
		cfg.Thresholds.AngleConfidenceFloor = zeroThresholds.AngleConfidenceFloor
	}
	if cfg.Thresholds.ProgressiveDisclosureThresholds == [4]float64{} {
		cfg.Thresholds.ProgressiveDisclosureThresholds = zeroThresholds.ProgressiveDisclosureThresholds
	}

	if cfg.ForecastLookbackDays == 0 {
		cfg.ForecastLookbackDays = DefaultForecastLookbackDays
	}
	if cfg.Providers.Warehouse.RequestTimeout == 0 {
		cfg.Providers.Warehouse.RequestTimeout = DefaultWarehouseRequestTimeout
	}
	if len(cfg.MethodWeights) == 0 {
		cfg.MethodWeights = DefaultMethodWeights()
	}
}
