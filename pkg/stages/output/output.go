// Package output implements the Enhanced Output (Progressive Disclosure)
// stage: severity computation over every Signal, partition into bounded
// L1-L3 executive/strategic/intervention tiers, and L4 query-text
// rendering via the warehouse query template registry.
package output

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
	"github.com/adintel/compintel/pkg/warehouse/querytpl"
)

const Name = "output"

const (
	l1Cap          = 5
	l1Confidence   = 0.7
	l1Backfill     = 0.6
	l2Cap          = 15
	l2Confidence   = 0.5
	l3Cap          = 25
	l3SeverityFloor = 0.4
)

var timeNow = time.Now

// Stage partitions Signals into the four progressive-disclosure tiers.
type Stage struct {
	Store    artifact.Store
	Registry *querytpl.Registry
}

// New constructs the Enhanced Output stage.
func New(store artifact.Store, registry *querytpl.Registry) *Stage {
	if registry == nil {
		registry = querytpl.NewRegistry()
	}
	return &Stage{Store: store, Registry: registry}
}

func (s *Stage) Name() string { return Name }

func (s *Stage) Run(ctx context.Context, rc *runctx.RunContext) stage.Result {
	start := timeNow()
	rc.Progress.Report(runctx.ProgressEvent{Stage: Name, Message: "starting enhanced output"})

	signals, err := s.loadSignals(ctx, rc.RunID)
	if err != nil {
		return stage.FailedResult(start, err)
	}
	competitors, err := s.loadCompetitorNames(ctx, rc.RunID)
	if err != nil {
		return stage.FailedResult(start, err)
	}

	thresholds := rc.Config.Thresholds.ProgressiveDisclosureThresholds
	now := timeNow()

	l1, l2, l3 := Partition(signals, thresholds)
	queryTexts, err := RenderQueries(s.Registry, rc.Namespace, rc.RunID, rc.Brand, competitors)
	if err != nil {
		return stage.FailedResult(start, pipeerr.New(Name, pipeerr.KindSchemaDrift, err))
	}

	l1Out := model.ProgressiveOutput{Level: model.LevelL1, Signals: l1, GeneratedAt: now}
	l2Out := model.ProgressiveOutput{Level: model.LevelL2, Signals: l2, GeneratedAt: now}
	l3Out := model.ProgressiveOutput{Level: model.LevelL3, Signals: l3, GeneratedAt: now}
	l4Out := model.ProgressiveOutput{Level: model.LevelL4, Signals: signals, QueryTexts: queryTexts, GeneratedAt: now}

	if err := s.persist(ctx, artifact.KindOutputL1, rc.RunID, l1Out); err != nil {
		return stage.FailedResult(start, err)
	}
	if err := s.persist(ctx, artifact.KindOutputL2, rc.RunID, l2Out); err != nil {
		return stage.FailedResult(start, err)
	}
	if err := s.persist(ctx, artifact.KindOutputL3, rc.RunID, l3Out); err != nil {
		return stage.FailedResult(start, err)
	}
	name := artifact.Name(artifact.KindOutputL4, rc.RunID)
	if err := s.persist(ctx, artifact.KindOutputL4, rc.RunID, l4Out); err != nil {
		return stage.FailedResult(start, err)
	}

	rc.Progress.Report(runctx.ProgressEvent{Stage: Name, Message: "enhanced output complete", Current: len(l1) + len(l2) + len(l3), Total: len(signals)})

	if len(l1) == 0 && len(signals) > 0 {
		return stage.DegradedResult(start, "no signal cleared the L1 executive bar even with backfill", name)
	}
	return stage.OKResult(start, name)
}

func (s *Stage) persist(ctx context.Context, kind, runID string, out model.ProgressiveOutput) error {
	payload, err := json.Marshal(out)
	if err != nil {
		return fmt.Errorf("encoding %s artifact: %w", kind, err)
	}
	if err := s.Store.Put(ctx, artifact.Name(kind, runID), payload); err != nil {
		return pipeerr.New(Name, pipeerr.KindWarehouseError, err)
	}
	return nil
}

func (s *Stage) loadSignals(ctx context.Context, runID string) ([]model.Signal, error) {
	raw, ok, err := s.Store.Get(ctx, artifact.Name(artifact.KindSignals, runID))
	if err != nil {
		return nil, pipeerr.New(Name, pipeerr.KindWarehouseError, err)
	}
	if !ok {
		return nil, pipeerr.New(Name, pipeerr.KindInput, fmt.Errorf("no signals artifact for run %s", runID))
	}
	var signals []model.Signal
	if err := json.Unmarshal(raw, &signals); err != nil {
		return nil, fmt.Errorf("decoding signals: %w", err)
	}
	return signals, nil
}

func (s *Stage) loadCompetitorNames(ctx context.Context, runID string) ([]string, error) {
	raw, ok, err := s.Store.Get(ctx, artifact.Name(artifact.KindRanked, runID))
	if err != nil {
		return nil, pipeerr.New(Name, pipeerr.KindWarehouseError, err)
	}
	if !ok {
		return nil, nil
	}
	var ranked []model.RankedCompetitor
	if err := json.Unmarshal(raw, &ranked); err != nil {
		return nil, fmt.Errorf("decoding ranked competitors: %w", err)
	}
	names := make([]string, 0, len(ranked))
	for _, r := range ranked {
		names = append(names, r.Name)
	}
	return names, nil
}

// Partition sorts signals by descending severity score and buckets them
// into L1/L2/L3 per the fixed caps and floors, backfilling L1 from a lower
// severity floor when too few signals clear the primary bar.
func Partition(signals []model.Signal, thresholds [4]float64) (l1, l2, l3 []model.Signal) {
	sorted := make([]model.Signal, len(signals))
	copy(sorted, signals)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].SeverityScore() > sorted[j].SeverityScore()
	})

	l1IDs := make(map[string]bool)
	for _, sig := range sorted {
		if len(l1) >= l1Cap {
			break
		}
		score := sig.SeverityScore()
		if score >= thresholds[0] && sig.Confidence >= l1Confidence {
			l1 = append(l1, sig)
			l1IDs[sig.ID] = true
		}
	}
	if len(l1) < l1Cap {
		for _, sig := range sorted {
			if len(l1) >= l1Cap {
				break
			}
			if l1IDs[sig.ID] {
				continue
			}
			if sig.SeverityScore() >= l1Backfill {
				l1 = append(l1, sig)
				l1IDs[sig.ID] = true
			}
		}
	}

	l2IDs := make(map[string]bool)
	for _, sig := range sorted {
		if len(l2) >= l2Cap {
			break
		}
		if l1IDs[sig.ID] {
			continue
		}
		score := sig.SeverityScore()
		if score >= thresholds[1] && sig.Confidence >= l2Confidence {
			l2 = append(l2, sig)
			l2IDs[sig.ID] = true
		}
	}

	for _, sig := range sorted {
		if len(l3) >= l3Cap {
			break
		}
		if l1IDs[sig.ID] || l2IDs[sig.ID] {
			continue
		}
		if sig.SeverityScore() >= l3SeverityFloor {
			l3 = append(l3, sig)
		}
	}

	return l1, l2, l3
}

// RenderQueries renders every registered L4 query template, parameterized
// by the run's namespace/run_id/brand/competitors, validating that each
// template is syntactically well-formed against the warehouse SQL dialect
// (dry-run mode calls this same path without executing any of the rendered
// text).
func RenderQueries(registry *querytpl.Registry, namespace, runID, brand string, competitors []string) ([]string, error) {
	params := map[string]any{
		"Namespace":    namespace,
		"RunID":        runID,
		"Brand":        brand,
		"Competitors":  competitors,
		"Limit":        50,
		"Metric":       "ad_volume",
		"LookbackDays": 90,
	}
	var out []string
	for _, name := range registry.Names() {
		rendered, err := registry.Render(name, params)
		if err != nil {
			return nil, fmt.Errorf("rendering query template %q: %w", name, err)
		}
		out = append(out, rendered)
	}
	sort.Strings(out)
	return out, nil
}
