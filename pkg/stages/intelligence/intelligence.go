// Package intelligence implements the Multi-Dimensional Intelligence stage:
// six dimension modules (Competitive, Creative, Channel, Audience, Visual,
// Whitespace), each producing Signals, merged by (dimension, subject_key)
// and persisted as a single bounded Signal list.
package intelligence

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/adintel/compintel/pkg/artifact"
	"github.com/adintel/compintel/pkg/model"
	"github.com/adintel/compintel/pkg/pipeerr"
	"github.com/adintel/compintel/pkg/runctx"
	"github.com/adintel/compintel/pkg/stage"
)

const Name = "intelligence"

var timeNow = time.Now

// Stage runs every dimension module and merges their Signals.
type Stage struct {
	Store artifact.Store
}

// New constructs the Multi-Dimensional Intelligence stage.
func New(store artifact.Store) *Stage {
	return &Stage{Store: store}
}

func (s *Stage) Name() string { return Name }

func (s *Stage) Run(ctx context.Context, rc *runctx.RunContext) stage.Result {
	start := timeNow()
	rc.Progress.Report(runctx.ProgressEvent{Stage: Name, Message: "starting multi-dimensional intelligence"})

	ads, err := s.loadAds(ctx, rc.RunID)
	if err != nil {
		return stage.FailedResult(start, err)
	}
	labels, err := s.loadLabels(ctx, rc.RunID)
	if err != nil {
		return stage.FailedResult(start, err)
	}
	visuals, err := s.loadVisuals(ctx, rc.RunID)
	if err != nil {
		return stage.FailedResult(start, err)
	}
	brandPairs, err := s.loadBrandPairs(ctx, rc.RunID)
	if err != nil {
		return stage.FailedResult(start, err)
	}

	var signals []model.Signal
	signals = append(signals, Competitive(ads, brandPairs, rc.Config.Thresholds.SimilarityCosineThreshold)...)
	signals = append(signals, Creative(ads, labels)...)
	signals = append(signals, Channel(ads)...)
	signals = append(signals, Audience(ads, labels)...)
	signals = append(signals, Visual(ads, visuals)...)
	signals = append(signals, Whitespace(ads, labels)...)

	merged := Dedup(signals)
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].SeverityScore() > merged[j].SeverityScore()
	})

	payload, err := json.Marshal(merged)
	if err != nil {
		return stage.FailedResult(start, fmt.Errorf("encoding signals artifact: %w", err))
	}
	name := artifact.Name(artifact.KindSignals, rc.RunID)
	if err := s.Store.Put(ctx, name, payload); err != nil {
		return stage.FailedResult(start, pipeerr.New(Name, pipeerr.KindWarehouseError, err))
	}

	rc.Progress.Report(runctx.ProgressEvent{Stage: Name, Message: "multi-dimensional intelligence complete", Current: len(merged), Total: len(ads)})

	if len(merged) == 0 && len(ads) > 0 {
		return stage.DegradedResult(start, "no signals cleared any dimension module's emission threshold", name)
	}
	return stage.OKResult(start, name)
}

// Dedup merges Signals sharing a (dimension, subject_key) pair, keeping the
// one with the highest severity score (§9 signal-deduplication redesign).
func Dedup(signals []model.Signal) []model.Signal {
	type key struct {
		dim     model.Dimension
		subject string
	}
	best := make(map[key]model.Signal)
	var order []key
	for _, sig := range signals {
		k := key{sig.Dimension, sig.SubjectKey}
		existing, ok := best[k]
		if !ok {
			order = append(order, k)
			best[k] = sig
			continue
		}
		if sig.SeverityScore() > existing.SeverityScore() {
			best[k] = sig
		}
	}
	out := make([]model.Signal, 0, len(order))
	for _, k := range order {
		out = append(out, best[k])
	}
	return out
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

func (s *Stage) loadVisuals(ctx context.Context, runID string) (map[string]model.VisualIntelligence, error) {
	out := make(map[string]model.VisualIntelligence)
	raw, ok, err := s.Store.Get(ctx, artifact.Name(artifact.KindVisual, runID))
	if err != nil {
		return nil, pipeerr.New(Name, pipeerr.KindWarehouseError, err)
	}
	if !ok {
		return out, nil
	}
	var visuals []model.VisualIntelligence
	if err := json.Unmarshal(raw, &visuals); err != nil {
		return nil, fmt.Errorf("decoding visual intelligence: %w", err)
	}
	for _, v := range visuals {
		out[v.AdID] = v
	}
	return out, nil
}

func (s *Stage) loadBrandPairs(ctx context.Context, runID string) ([]model.BrandPairAggregate, error) {
	raw, ok, err := s.Store.Get(ctx, artifact.Name(artifact.KindSimilarity, runID))
	if err != nil {
		return nil, pipeerr.New(Name, pipeerr.KindWarehouseError, err)
	}
	if !ok {
		return nil, nil
	}
	var edges []model.SimilarityEdge
	if err := json.Unmarshal(raw, &edges); err != nil {
		return nil, fmt.Errorf("decoding similarity edges: %w", err)
	}
	return aggregateBrandPairs(edges), nil
}

// aggregateBrandPairs groups similarity edges by (source, copier) brand pair.
// Mirrors the analysis package's own aggregation, recomputed here since this
// stage reads the raw edge list rather than the bundled BrandPairAggregate.
func aggregateBrandPairs(edges []model.SimilarityEdge) []model.BrandPairAggregate {
	type accum struct {
		max, sum float64
		count    int
	}
	type key struct{ source, copier string }
	byPair := make(map[key]*accum)
	var order []key
	for _, e := range edges {
		k := key{e.BrandA, e.BrandB}
		a, ok := byPair[k]
		if !ok {
			a = &accum{}
			byPair[k] = a
			order = append(order, k)
		}
		conf := e.Confidence()
		a.sum += conf
		a.count++
		if conf > a.max {
			a.max = conf
		}
	}
	out := make([]model.BrandPairAggregate, 0, len(order))
	for _, k := range order {
		a := byPair[k]
		out = append(out, model.BrandPairAggregate{
			SourceBrand:    k.source,
			CopierBrand:    k.copier,
			MaxSimilarity:  a.max,
			MeanSimilarity: a.sum / float64(a.count),
			EdgeCount:      a.count,
		})
	}
	return out
}
