// Package analysis implements the Strategic Analysis stage: current-state
// aggregation, cross-brand similarity detection, creative-fatigue scoring,
// short-horizon forecasting, and CTA aggressiveness, bundled into a single
// artifact.
package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/adintel/compintel/pkg/artifact"
	"github.com/adintel/compintel/pkg/model"
	"github.com/adintel/compintel/pkg/pipeerr"
	"github.com/adintel/compintel/pkg/runctx"
	"github.com/adintel/compintel/pkg/stage"
	"github.com/adintel/compintel/pkg/warehouse"
)

const Name = "analysis"

var timeNow = time.Now

// Stage runs every Strategic Analysis sub-computation.
type Stage struct {
	Analytics warehouse.Analytics
	Store     artifact.Store
}

// New constructs the Strategic Analysis stage.
func New(analytics warehouse.Analytics, store artifact.Store) *Stage {
	return &Stage{Analytics: analytics, Store: store}
}

func (s *Stage) Name() string { return Name }

func (s *Stage) Run(ctx context.Context, rc *runctx.RunContext) stage.Result {
	start := timeNow()
	rc.Progress.Report(runctx.ProgressEvent{Stage: Name, Message: "starting strategic analysis"})

	ads, err := s.loadAds(ctx, rc.RunID)
	if err != nil {
		return stage.FailedResult(start, err)
	}
	labels, err := s.loadLabels(ctx, rc.RunID)
	if err != nil {
		return stage.FailedResult(start, err)
	}
	embeddings, err := s.loadEmbeddings(ctx, rc.RunID)
	if err != nil {
		return stage.FailedResult(start, err)
	}

	now := timeNow()

	currentState := ComputeCurrentState(ads, labels, 0, now)

	similarityEdges, brandPairs, err := ComputeSimilarity(ctx, ads, embeddings,
		rc.Config.Thresholds.SimilarityLagDaysMax, rc.Config.Thresholds.SimilarityCosineThreshold, s.Analytics)
	if err != nil {
		return stage.FailedResult(start, pipeerr.New(Name, pipeerr.KindWarehouseError, err))
	}

	fatigue := ComputeFatigue(ads, labels, similarityEdges, rc.Brand, now)

	lookbackDays := rc.Config.ForecastLookbackDays
	forecasts, err := ComputeForecasts(ctx, ads, labels, lookbackDays, rc.Config.Budgets.ForecastHorizonWeeks, now, s.Analytics)
	if err != nil {
		return stage.FailedResult(start, pipeerr.New(Name, pipeerr.KindWarehouseError, err))
	}

	var ctaScores []model.CTAAggressiveness
	for _, ad := range ads {
		if ad.CreativeText == "" {
			continue
		}
		ctaScores = append(ctaScores, ScoreCTAAggressiveness(ad))
	}
	ctaBrands := AggregateCTAByBrand(ctaScores)

	result := model.AnalysisResult{
		CurrentState: currentState,
		Similarity:   similarityEdges,
		BrandPairs:   brandPairs,
		Fatigue:      fatigue,
		Forecasts:    forecasts,
		CTAScores:    ctaScores,
		CTABrands:    ctaBrands,
	}

	payload, err := json.Marshal(result)
	if err != nil {
		return stage.FailedResult(start, fmt.Errorf("encoding analysis artifact: %w", err))
	}
	name := artifact.Name(artifact.KindAnalysis, rc.RunID)
	if err := s.Store.Put(ctx, name, payload); err != nil {
		return stage.FailedResult(start, pipeerr.New(Name, pipeerr.KindWarehouseError, err))
	}

	if err := s.persistComponent(ctx, artifact.KindCurrentState, rc.RunID, currentState); err != nil {
		return stage.FailedResult(start, err)
	}
	if err := s.persistComponent(ctx, artifact.KindSimilarity, rc.RunID, similarityEdges); err != nil {
		return stage.FailedResult(start, err)
	}
	if err := s.persistComponent(ctx, artifact.KindFatigue, rc.RunID, fatigue); err != nil {
		return stage.FailedResult(start, err)
	}
	if err := s.persistComponent(ctx, artifact.KindForecast, rc.RunID, forecasts); err != nil {
		return stage.FailedResult(start, err)
	}

	rc.Progress.Report(runctx.ProgressEvent{Stage: Name, Message: "strategic analysis complete", Current: len(similarityEdges) + len(fatigue), Total: len(ads)})

	degradedReasons := 0
	for _, f := range forecasts {
		if f.LowConfidence {
			degradedReasons++
		}
	}
	if degradedReasons == len(forecasts) && len(forecasts) > 0 {
		return stage.DegradedResult(start, "every brand forecast is low_confidence (fewer than 8 observed weeks)", name)
	}

	return stage.OKResult(start, name)
}

func (s *Stage) persistComponent(ctx context.Context, kind, runID string, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding %s artifact: %w", kind, err)
	}
	if err := s.Store.Put(ctx, artifact.Name(kind, runID), payload); err != nil {
		return pipeerr.New(Name, pipeerr.KindWarehouseError, err)
	}
	return nil
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

func (s *Stage) loadEmbeddings(ctx context.Context, runID string) (map[string]model.Embedding, error) {
	out := make(map[string]model.Embedding)
	raw, ok, err := s.Store.Get(ctx, artifact.Name(artifact.KindEmbeddings, runID))
	if err != nil {
		return nil, pipeerr.New(Name, pipeerr.KindWarehouseError, err)
	}
	if !ok {
		return out, nil
	}
	var embeddings []model.Embedding
	if err := json.Unmarshal(raw, &embeddings); err != nil {
		return nil, fmt.Errorf("decoding embeddings: %w", err)
	}
	for _, e := range embeddings {
		out[e.AdID] = e
	}
	return out, nil
}
