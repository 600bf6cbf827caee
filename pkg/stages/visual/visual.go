// Package visual implements the Visual Intelligence stage: adaptive,
// budget-bounded sampling of ads per brand, multimodal AI analysis with a
// primary/backup/text-only fallback chain.
package visual

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/adintel/compintel/pkg/artifact"
	"github.com/adintel/compintel/pkg/model"
	"github.com/adintel/compintel/pkg/pipeerr"
	"github.com/adintel/compintel/pkg/retry"
	"github.com/adintel/compintel/pkg/runctx"
	"github.com/adintel/compintel/pkg/stage"
	"github.com/adintel/compintel/pkg/warehouse"
)

const Name = "visual"

const visualParallelism = 6

// recencyHalfLifeDays is the exponential-decay half-life used in the
// sampling score's recency term.
const recencyHalfLifeDays = 7.0

var timeNow = time.Now

// Stage samples and analyzes a budget-bounded subset of ads.
type Stage struct {
	AI    warehouse.AIClient
	Store artifact.Store
}

// New constructs the Visual Intelligence stage.
func New(ai warehouse.AIClient, store artifact.Store) *Stage {
	return &Stage{AI: ai, Store: store}
}

func (s *Stage) Name() string { return Name }

func (s *Stage) Run(ctx context.Context, rc *runctx.RunContext) stage.Result {
	start := timeNow()
	rc.Progress.Report(runctx.ProgressEvent{Stage: Name, Message: "starting visual intelligence"})

	ads, err := s.loadAds(ctx, rc.RunID)
	if err != nil {
		return stage.FailedResult(start, err)
	}
	labels, err := s.loadLabels(ctx, rc.RunID)
	if err != nil {
		return stage.FailedResult(start, err)
	}

	sampled := SampleForBudget(ads, labels, rc.Config.Budgets.VisualBudgetImagesPerBrand, rc.Config.Budgets.VisualTotalBudget, timeNow())

	results, errs := retry.PoolCollect(ctx, visualParallelism, sampled, func(ctx context.Context, ad model.Ad) (model.VisualIntelligence, error) {
		return s.analyze(ctx, ad)
	})

	var analyses []model.VisualIntelligence
	failures := 0
	for i, vi := range results {
		if errs[i] != nil {
			failures++
			continue
		}
		analyses = append(analyses, vi)
	}

	payload, err := json.Marshal(analyses)
	if err != nil {
		return stage.FailedResult(start, fmt.Errorf("encoding visual intelligence artifact: %w", err))
	}
	name := artifact.Name(artifact.KindVisual, rc.RunID)
	if err := s.Store.Put(ctx, name, payload); err != nil {
		return stage.FailedResult(start, pipeerr.New(Name, pipeerr.KindWarehouseError, err))
	}

	rc.Progress.Report(runctx.ProgressEvent{Stage: Name, Message: "visual intelligence complete", Current: len(analyses), Total: len(sampled)})

	if failures > 0 {
		return stage.DegradedResult(start, fmt.Sprintf("%d of %d visual analyses failed", failures, len(sampled)), name)
	}
	return stage.OKResult(start, name)
}

func (s *Stage) loadAds(ctx context.Context, runID string) ([]model.Ad, error) {
	raw, ok, err := s.Store.Get(ctx, artifact.Name(artifact.KindAds, runID))
	if err != nil {
		return nil, pipeerr.New(Name, pipeerr.KindWarehouseError, err)
	}
	if !ok {
		return nil, pipeerr.New(Name, pipeerr.KindInput, fmt.Errorf("no ads artifact for run %s", runID))
	}
	var ads []model.Ad
	if err := json.Unmarshal(raw, &ads); err != nil {
		return nil, fmt.Errorf("decoding ads: %w", err)
	}
	return ads, nil
}

func (s *Stage) loadLabels(ctx context.Context, runID string) (map[string]model.StrategicLabel, error) {
	out := make(map[string]model.StrategicLabel)
	raw, ok, err := s.Store.Get(ctx, artifact.Name(artifact.KindLabels, runID))
	if err != nil {
		return nil, pipeerr.New(Name, pipeerr.KindWarehouseError, err)
	}
	if !ok {
		return out, nil
	}
	var labels []model.StrategicLabel
	if err := json.Unmarshal(raw, &labels); err != nil {
		return nil, fmt.Errorf("decoding labels: %w", err)
	}
	for _, l := range labels {
		out[l.AdID] = l
	}
	return out, nil
}

func schemaFor() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"visual_text_alignment": map[string]any{"type": "string", "enum": []string{"ALIGNED", "MISALIGNED", "CONTRADICTORY"}},
			"visual_style":          map[string]any{"type": "string"},
			"visual_focus":          map[string]any{"type": "string"},
			"brand_consistency":     map[string]any{"type": "number"},
			"creative_fatigue_risk": map[string]any{"type": "string", "enum": []string{"LOW", "MEDIUM", "HIGH"}},
			"differentiation":       map[string]any{"type": "number"},
		},
		"required": []any{"visual_text_alignment", "creative_fatigue_risk"},
	}
}

// analyze walks the primary -> backup -> text-only fallback chain for one
// ad, recording every attempt.
func (s *Stage) analyze(ctx context.Context, ad model.Ad) (model.VisualIntelligence, error) {
	vi := model.VisualIntelligence{AdID: ad.AdID}

	uris := ad.VisualURIs
	if len(uris) == 0 && ad.PrimaryVisualURI != "" {
		uris = []string{ad.PrimaryVisualURI}
	}

	for _, uri := range uris {
		row, err := s.AI.GenerateMultimodal(ctx, warehouse.MultimodalRequest{
			Prompt:    fmt.Sprintf("Analyze the visual creative for ad %s: %s", ad.AdID, ad.CreativeText),
			ImageURIs: []string{uri},
			Schema:    schemaFor(),
		})
		if err == nil {
			vi.Attempts = append(vi.Attempts, model.VisualAttemptOutcome{URI: uri, Success: true})
			decodeVisual(&vi, row)
			return vi, nil
		}
		vi.Attempts = append(vi.Attempts, model.VisualAttemptOutcome{URI: uri, Success: false, Error: err.Error()})
	}

	// Text-only fallback.
	row, err := s.AI.GenerateMultimodal(ctx, warehouse.MultimodalRequest{
		Prompt: fmt.Sprintf("No accessible image for ad %s; analyze from creative text alone: %s", ad.AdID, ad.CreativeText),
		Schema: schemaFor(),
	})
	if err != nil {
		vi.Attempts = append(vi.Attempts, model.VisualAttemptOutcome{Success: false, Error: err.Error()})
		vi.VisualUnavailable = true
		return vi, err
	}
	vi.Attempts = append(vi.Attempts, model.VisualAttemptOutcome{Success: true})
	vi.VisualUnavailable = true
	decodeVisual(&vi, row)
	return vi, nil
}

func decodeVisual(vi *model.VisualIntelligence, row warehouse.Row) {
	if s, ok := row["visual_text_alignment"].(string); ok {
		vi.VisualTextAlignment = model.VisualTextAlignment(s)
	}
	if s, ok := row["visual_style"].(string); ok {
		vi.VisualStyle = s
	}
	if s, ok := row["visual_focus"].(string); ok {
		vi.VisualFocus = s
	}
	if f, ok := row["brand_consistency"].(float64); ok {
		vi.BrandConsistency = model.Clamp01(f)
	}
	if s, ok := row["creative_fatigue_risk"].(string); ok {
		vi.CreativeFatigueRisk = model.FatigueRisk(s)
	}
	if f, ok := row["differentiation"].(float64); ok {
		vi.Differentiation = model.Clamp01(f)
	}
}

// SampleForBudget picks the per-brand adaptive sample, then shrinks it
// proportionally (if needed) to respect the global visual_total_budget.
func SampleForBudget(ads []model.Ad, labels map[string]model.StrategicLabel, perBrandCap, totalBudget int, now time.Time) []model.Ad {
	byBrand := make(map[string][]model.Ad)
	var brandOrder []string
	for _, ad := range ads {
		if _, ok := byBrand[ad.Brand]; !ok {
			brandOrder = append(brandOrder, ad.Brand)
		}
		byBrand[ad.Brand] = append(byBrand[ad.Brand], ad)
	}

	type brandSample struct {
		brand string
		quota int
		ads   []model.Ad // ranked best-first
	}
	var samples []brandSample
	totalQuota := 0
	for _, brand := range brandOrder {
		brandAds := byBrand[brand]
		quota := adaptiveSampleSize(len(brandAds))
		if perBrandCap > 0 && quota > perBrandCap {
			quota = perBrandCap
		}
		ranked := rankForSampling(brandAds, labels, now)
		samples = append(samples, brandSample{brand: brand, quota: quota, ads: ranked})
		totalQuota += quota
	}

	if totalBudget > 0 && totalQuota > totalBudget {
		shrinkRatio := float64(totalBudget) / float64(totalQuota)
		remaining := totalBudget
		for i := range samples {
			shrunk := int(math.Floor(float64(samples[i].quota) * shrinkRatio))
			if shrunk > remaining {
				shrunk = remaining
			}
			samples[i].quota = shrunk
			remaining -= shrunk
		}
	}

	var out []model.Ad
	for _, b := range samples {
		quota := b.quota
		if quota > len(b.ads) {
			quota = len(b.ads)
		}
		out = append(out, b.ads[:quota]...)
	}
	return out
}

// adaptiveSampleSize implements the portfolio-size-tiered sampling rates.
func adaptiveSampleSize(n int) int {
	switch {
	case n <= 20:
		s := int(math.Ceil(float64(n) * 0.5))
		if s > 10 {
			s = 10
		}
		return s
	case n <= 50:
		return int(float64(n) * 0.3)
	case n <= 100:
		return int(float64(n) * 0.2)
	default:
		return 15
	}
}

// rankForSampling orders a brand's ads best-first by the weighted
// multi-factor sampling score.
func rankForSampling(ads []model.Ad, labels map[string]model.StrategicLabel, now time.Time) []model.Ad {
	scored := make([]model.Ad, len(ads))
	copy(scored, ads)
	sort.SliceStable(scored, func(i, j int) bool {
		return samplingScore(scored[i], labels, now) > samplingScore(scored[j], labels, now)
	})
	return scored
}

func samplingScore(ad model.Ad, labels map[string]model.StrategicLabel, now time.Time) float64 {
	daysSinceStart := now.Sub(ad.StartTS).Hours() / 24
	if daysSinceStart < 0 {
		daysSinceStart = 0
	}
	recency := math.Pow(0.5, daysSinceStart/recencyHalfLifeDays)

	complexity := 0.0
	switch ad.MediaType {
	case model.MediaCarousel, model.MediaVideo, model.MediaMixed:
		complexity = 1.0
	case model.MediaImage, model.MediaDCO:
		complexity = 0.6
	default:
		complexity = 0.0
	}

	cardVariation := math.Min(float64(ad.CardCount)/5.0, 1.0)

	diversity := 0.0
	if label, ok := labels[ad.AdID]; ok {
		diversity = math.Abs(label.PromotionalIntensity-0.5) * 2
	}

	return 0.3*recency + 0.25*complexity + 0.25*cardVariation + 0.2*diversity
}
