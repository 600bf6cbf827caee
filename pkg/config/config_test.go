package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	cfg := &Config{
		Budgets:    DefaultBudgetConfig(),
		Thresholds: DefaultThresholdConfig(),
		Providers: ProvidersConfig{
			Search:    SearchProviderConfig{BaseURL: "https://search.example.com", APIKeyEnv: "SEARCH_API_KEY"},
			AdArchive: AdArchiveProviderConfig{BaseURL: "https://archive.example.com", APIKeyEnv: "ARCHIVE_API_KEY"},
			Warehouse: WarehouseProviderConfig{DSNEnv: "WAREHOUSE_DSN", AIModel: "claude-sonnet", AIAPIKeyEnv: "ANTHROPIC_API_KEY"},
		},
		Verticals: map[string]VerticalConfig{
			"saas": {DisplayName: "SaaS", SearchKeywords: []string{"software", "subscription"}},
		},
		MethodWeights:        DefaultMethodWeights(),
		ForecastLookbackDays:  DefaultForecastLookbackDays,
	}
	return cfg
}

func TestValidateAll_AcceptsWellFormedConfig(t *testing.T) {
	cfg := validConfig()
	require.NoError(t, NewValidator(cfg).ValidateAll())
}

func TestValidateAll_RejectsNonDecreasingThresholds(t *testing.T) {
	cfg := validConfig()
	cfg.Thresholds.ProgressiveDisclosureThresholds = [4]float64{0.5, 0.6, 0.4, 0.2}
	err := NewValidator(cfg).ValidateAll()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "strictly decrease")
}

func TestValidateAll_RejectsMissingMethodWeight(t *testing.T) {
	cfg := validConfig()
	delete(cfg.MethodWeights, "merged_multi_method")
	err := NewValidator(cfg).ValidateAll()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "merged_multi_method")
}

func TestValidateAll_RejectsDuplicateDenyListEntries(t *testing.T) {
	cfg := validConfig()
	cfg.CurationDenyList = []string{"Acme Corp", "Acme Corp"}
	err := NewValidator(cfg).ValidateAll()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate")
}

func TestValidateAll_RejectsEmptyVerticals(t *testing.T) {
	cfg := validConfig()
	cfg.Verticals = map[string]VerticalConfig{}
	err := NewValidator(cfg).ValidateAll()
	require.Error(t, err)
}

func TestApplyDefaults_FillsUnsetFields(t *testing.T) {
	cfg := &Config{}
	applyDefaults(cfg)
	assert.Equal(t, DefaultBudgetConfig(), cfg.Budgets)
	assert.Equal(t, DefaultThresholdConfig(), cfg.Thresholds)
	assert.Equal(t, DefaultForecastLookbackDays, cfg.ForecastLookbackDays)
	assert.Equal(t, DefaultMethodWeights(), cfg.MethodWeights)
}
