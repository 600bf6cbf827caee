// Package ranking implements the Ranking stage: probing each validated
// competitor's ad-archive activity, re-sorting by a blended quality/activity
// score, and truncating to the configured competitor budget.
package ranking

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/adintel/compintel/pkg/adarchive"
	"github.com/adintel/compintel/pkg/artifact"
	"github.com/adintel/compintel/pkg/model"
	"github.com/adintel/compintel/pkg/pipeerr"
	"github.com/adintel/compintel/pkg/retry"
	"github.com/adintel/compintel/pkg/runctx"
	"github.com/adintel/compintel/pkg/stage"
)

const Name = "ranking"

// probeWindow is how far back the activity probe looks for active ads.
const probeWindow = 30 * 24 * time.Hour

// probeParallelism bounds concurrent archive probes regardless of the
// configured ad-fetch parallelism, since a probe is a cheap existence check.
const probeParallelism = 8

var timeNow = time.Now

// Stage runs the activity probe and re-ranks validated competitors.
type Stage struct {
	AdArchive adarchive.Provider
	Store     artifact.Store
}

// New constructs the Ranking stage.
func New(adArchive adarchive.Provider, store artifact.Store) *Stage {
	return &Stage{AdArchive: adArchive, Store: store}
}

func (s *Stage) Name() string { return Name }

func (s *Stage) Run(ctx context.Context, rc *runctx.RunContext) stage.Result {
	start := timeNow()
	rc.Progress.Report(runctx.ProgressEvent{Stage: Name, Message: "starting ranking"})

	raw, ok, err := s.Store.Get(ctx, artifact.Name(artifact.KindValidated, rc.RunID))
	if err != nil {
		return stage.FailedResult(start, pipeerr.New(Name, pipeerr.KindWarehouseError, err))
	}
	if !ok {
		return stage.FailedResult(start, pipeerr.New(Name, pipeerr.KindInput, fmt.Errorf("no validated competitors artifact for run %s", rc.RunID)))
	}
	var validated []model.ValidatedCompetitor
	if err := json.Unmarshal(raw, &validated); err != nil {
		return stage.FailedResult(start, fmt.Errorf("decoding validated competitors: %w", err))
	}

	since := timeNow().Add(-probeWindow)
	volumes, probeErr := retry.PoolCollect(ctx, probeParallelism, validated, func(ctx context.Context, vc model.ValidatedCompetitor) (int, error) {
		ads, err := s.AdArchive.ListAds(ctx, vc.Name, since)
		if err != nil {
			return 0, err
		}
		return len(ads), nil
	})

	degraded := false
	var degradedReason string
	probeFailures := 0
	for _, e := range probeErr {
		if e != nil {
			probeFailures++
		}
	}
	if probeFailures > 0 {
		degraded = true
		degradedReason = fmt.Sprintf("ad-archive probe failed for %d of %d competitors; falling back to AI-quality ordering for those", probeFailures, len(validated))
	}

	ranked := make([]model.RankedCompetitor, 0, len(validated))
	for i, vc := range validated {
		volume := 0
		probeOK := probeErr[i] == nil
		if probeOK {
			volume = volumes[i]
		}
		ranked = append(ranked, model.RankedCompetitor{
			ValidatedCompetitor: vc,
			ActivityTier:        activityTierFor(volume, probeOK),
			EstimatedAdVolume:   volume,
		})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return rankScore(ranked[i]) > rankScore(ranked[j])
	})

	maxCompetitors := rc.Config.Budgets.MaxCompetitors
	if maxCompetitors > 0 && len(ranked) > maxCompetitors {
		ranked = ranked[:maxCompetitors]
	}
	for i := range ranked {
		ranked[i].Rank = i + 1
	}

	payload, err := json.Marshal(ranked)
	if err != nil {
		return stage.FailedResult(start, fmt.Errorf("encoding ranked competitors: %w", err))
	}
	name := artifact.Name(artifact.KindRanked, rc.RunID)
	if err := s.Store.Put(ctx, name, payload); err != nil {
		return stage.FailedResult(start, pipeerr.New(Name, pipeerr.KindWarehouseError, err))
	}

	rc.Progress.Report(runctx.ProgressEvent{Stage: Name, Message: "ranking complete", Current: len(ranked), Total: len(validated)})

	if degraded {
		return stage.DegradedResult(start, degradedReason, name)
	}
	return stage.OKResult(start, name)
}

// activityTierFor classifies an ad count into the closed activity-tier
// vocabulary. When the probe itself failed, NONE is still reported but the
// caller is responsible for tracking that the figure is unreliable.
func activityTierFor(adCount int, probeOK bool) model.ActivityTier {
	if !probeOK {
		return model.ActivityNone
	}
	switch {
	case adCount >= 50:
		return model.ActivityMajor
	case adCount >= 10:
		return model.ActivityModerate
	case adCount >= 1:
		return model.ActivityMinor
	default:
		return model.ActivityNone
	}
}

// metaWeight maps an activity tier to the weight used in the final
// quality/activity blend.
func metaWeight(tier model.ActivityTier) float64 {
	switch tier {
	case model.ActivityMajor:
		return 1.0
	case model.ActivityModerate:
		return 0.6
	case model.ActivityMinor:
		return 0.3
	default:
		return 0.0
	}
}

// rankScore blends AI-derived quality with ad-archive activity. When a
// competitor's probe failed, its meta_weight contribution is zero and the
// ranking falls back to quality alone for that competitor.
func rankScore(r model.RankedCompetitor) float64 {
	return 0.4*r.QualityScore + 0.6*metaWeight(r.ActivityTier)
}
