// Package orchestrator runs the pipeline's ten stages sequentially,
// fail-fast, writing a run manifest after every stage so a crashed or
// interrupted run can resume without redoing completed work.
package orchestrator

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/adintel/compintel/pkg/artifact"
	"github.com/adintel/compintel/pkg/model"
	"github.com/adintel/compintel/pkg/runctx"
	"github.com/adintel/compintel/pkg/stage"
	"github.com/adintel/compintel/pkg/warehouse/querytpl"
)

var timeNow = time.Now

// Orchestrator sequences a fixed list of Stages against one RunContext,
// persisting a RunManifest after each stage for resumability.
type Orchestrator struct {
	stages   []stage.Stage
	manifest *artifact.ManifestService
	registry *querytpl.Registry
}

// New constructs an Orchestrator over the given ordered stage list.
func New(stages []stage.Stage, store artifact.Store) *Orchestrator {
	return &Orchestrator{
		stages:   stages,
		manifest: artifact.NewManifestService(store),
		registry: querytpl.NewRegistry(),
	}
}

// RunResult is the terminal outcome of one orchestrator invocation.
type RunResult struct {
	Status  model.StageStatus // OK, DEGRADED, or FAILED (never PENDING/RUNNING)
	Stage   string            // the stage name that produced Status, for FAILED
	Err     error
	Skipped []string // stages skipped via resume
}

// Execute runs every stage in order, honoring resumability (skipping any
// stage already OK/DEGRADED per the manifest) and fail-fast (stopping at
// the first FAILED stage). DEGRADED stages are terminal-success: the run
// continues to the next stage.
func (o *Orchestrator) Execute(ctx context.Context, rc *runctx.RunContext) RunResult {
	m, err := o.manifest.Load(ctx, rc.RunID)
	if err != nil {
		return RunResult{Status: model.StageFailed, Err: fmt.Errorf("loading manifest: %w", err)}
	}
	if m.StartedAt.IsZero() {
		m.StartedAt = timeNow()
		m.Brand = rc.Brand
		m.Vertical = rc.Vertical
		m.ConfigFingerprint = Fingerprint(rc.Config)
	}

	var skipped []string
	overallStatus := model.StageOK

	for _, st := range o.stages {
		select {
		case <-ctx.Done():
			return RunResult{Status: model.StageFailed, Stage: st.Name(), Err: ctx.Err()}
		default:
		}

		if artifact.ShouldSkip(m, st.Name()) {
			skipped = append(skipped, st.Name())
			rec, _ := m.StageRecordFor(st.Name())
			if rec.Status == model.StageDegraded {
				overallStatus = model.StageDegraded
			}
			continue
		}

		stageRC := rc.WithStage(st.Name())
		result := st.Run(ctx, stageRC)

		rec := model.StageRecord{
			Name:           st.Name(),
			Status:         result.Status,
			StartedAt:      result.StartedAt,
			EndedAt:        result.EndedAt,
			Artifacts:      result.Artifacts,
			DegradedReason: result.DegradedReason,
		}
		m.UpdatedAt = timeNow()
		if err := o.manifest.UpsertStage(ctx, &m, rec); err != nil {
			return RunResult{Status: model.StageFailed, Stage: st.Name(), Err: fmt.Errorf("persisting manifest after stage %s: %w", st.Name(), err)}
		}

		switch result.Status {
		case model.StageFailed:
			return RunResult{Status: model.StageFailed, Stage: st.Name(), Err: result.Err, Skipped: skipped}
		case model.StageDegraded:
			overallStatus = model.StageDegraded
		}
	}

	return RunResult{Status: overallStatus, Skipped: skipped}
}

// DryRun validates every warehouse query template renders without error,
// then plans every stage's artifact name and stamps it OK with an empty
// artifact list into a fresh manifest, without invoking a single stage's
// Run — the orchestrator's fast path for `--dry-run`, expected to complete
// in well under a second.
func (o *Orchestrator) DryRun(ctx context.Context, rc *runctx.RunContext) error {
	params := map[string]any{
		"Namespace":    rc.Namespace,
		"RunID":        rc.RunID,
		"Brand":        rc.Brand,
		"Competitors":  []string{},
		"Limit":        1,
		"Metric":       "ad_volume",
		"LookbackDays": rc.Config.ForecastLookbackDays,
	}
	for _, name := range o.registry.Names() {
		if _, err := o.registry.Render(name, params); err != nil {
			return fmt.Errorf("dry run: template %q failed to render: %w", name, err)
		}
	}

	m := model.RunManifest{
		RunID:             rc.RunID,
		Brand:             rc.Brand,
		Vertical:          rc.Vertical,
		ConfigFingerprint: Fingerprint(rc.Config),
		StartedAt:         timeNow(),
		UpdatedAt:         timeNow(),
	}
	for _, st := range o.stages {
		rec := model.StageRecord{
			Name:      st.Name(),
			Status:    model.StageOK,
			StartedAt: timeNow(),
			EndedAt:   timeNow(),
			Artifacts: nil,
		}
		if err := o.manifest.UpsertStage(ctx, &m, rec); err != nil {
			return fmt.Errorf("dry run: persisting manifest for stage %q: %w", st.Name(), err)
		}
	}
	return nil
}

// Fingerprint derives a stable hash of the parts of cfg that change a run's
// semantics, so resume can detect a config edit invalidating prior stages.
// Not currently enforced (resume always trusts the manifest), but recorded
// for forward compatibility and debugging.
func Fingerprint(cfg interface{}) string {
	payload, err := json.Marshal(cfg)
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}
