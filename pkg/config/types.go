package config

import "time"

// Config is the umbrella configuration object threaded through a
// RunContext for the lifetime of one pipeline run.
type Config struct {
	configDir string

	Budgets             BudgetConfig               `yaml:"budgets" validate:"required"`
	Thresholds          ThresholdConfig             `yaml:"thresholds" validate:"required"`
	Providers           ProvidersConfig             `yaml:"providers" validate:"required"`
	Verticals           map[string]VerticalConfig   `yaml:"verticals" validate:"required,dive"`
	CurationDenyList    []string                    `yaml:"curation_deny_list"`
	MethodWeights       map[string]float64          `yaml:"method_weights"`
	ForecastLookbackDays int                        `yaml:"forecast_lookback_days" validate:"min=1"`
	DryRun              bool                        `yaml:"dry_run"`
}

// BudgetConfig bounds the pipeline's per-run resource consumption (§4.1).
type BudgetConfig struct {
	MaxCompetitors              int `yaml:"max_competitors" validate:"min=1,max=500"`
	AdFetchParallelism          int `yaml:"ad_fetch_parallelism" validate:"min=1,max=64"`
	VisualBudgetImagesPerBrand  int `yaml:"visual_budget_images_per_brand" validate:"min=0"`
	VisualTotalBudget           int `yaml:"visual_total_budget" validate:"min=0"`
	ForecastHorizonWeeks        int `yaml:"forecast_horizon_weeks" validate:"min=1,max=52"`
}

// ThresholdConfig carries the numeric knobs that gate scoring, similarity,
// and disclosure decisions across stages.
type ThresholdConfig struct {
	SimilarityCosineThreshold       float64    `yaml:"similarity_cosine_threshold" validate:"min=0,max=2"`
	SimilarityLagDaysMax            int        `yaml:"similarity_lag_days_max" validate:"min=0"`
	AngleConfidenceFloor            float64    `yaml:"angle_confidence_floor" validate:"min=0,max=1"`
	ProgressiveDisclosureThresholds [4]float64 `yaml:"progressive_disclosure_thresholds"`
}

// ProvidersConfig groups the external-collaborator credentials: web search,
// ad archive, and the analytical warehouse (including its AI surface).
type ProvidersConfig struct {
	Search    SearchProviderConfig    `yaml:"search" validate:"required"`
	AdArchive AdArchiveProviderConfig `yaml:"ad_archive" validate:"required"`
	Warehouse WarehouseProviderConfig `yaml:"warehouse" validate:"required"`
}

// SearchProviderConfig configures the web search port's default adapter.
type SearchProviderConfig struct {
	BaseURL   string `yaml:"base_url" validate:"required,url"`
	APIKeyEnv string `yaml:"api_key_env" validate:"required"`
}

// AdArchiveProviderConfig configures the ad archive port's default adapter.
type AdArchiveProviderConfig struct {
	BaseURL   string `yaml:"base_url" validate:"required,url"`
	APIKeyEnv string `yaml:"api_key_env" validate:"required"`
}

// WarehouseProviderConfig configures the analytical warehouse: its storage
// connection plus its AI surface (structured generation, embeddings,
// multimodal, forecast).
type WarehouseProviderConfig struct {
	DSNEnv          string        `yaml:"dsn_env" validate:"required"`
	MigrationsPath  string        `yaml:"migrations_path"`
	AIModel         string        `yaml:"ai_model" validate:"required"`
	AIAPIKeyEnv     string        `yaml:"ai_api_key_env" validate:"required"`
	RequestTimeout  time.Duration `yaml:"request_timeout" validate:"min=0"`
}

// VerticalConfig is one entry of the config-validated vertical lookup table
// used by Discovery's heuristic-vertical method and Curation's prompts.
type VerticalConfig struct {
	DisplayName     string   `yaml:"display_name" validate:"required"`
	SearchKeywords  []string `yaml:"search_keywords" validate:"required,min=1"`
	DirectoryHosts  []string `yaml:"directory_hosts"`
}

// ConfigDir returns the configuration directory path.
func (c *Config) ConfigDir() string {
	return c.configDir
}
