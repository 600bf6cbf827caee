// Package runctx carries the dependencies and identity needed by every
// stage during one pipeline run. It is the single explicit context object
// threaded through the orchestrator and each stage — there is no global
// mutable state.
package runctx

import (
	"log/slog"

	"github.com/adintel/compintel/pkg/config"
)

// RunContext carries all dependencies and state needed by a stage during
// execution. Created once by the orchestrator for the lifetime of a run and
// passed by pointer to every stage.
type RunContext struct {
	// Identity
	RunID     string
	Brand     string
	Vertical  string
	Namespace string // artifact namespace; defaults to Brand if unset

	// Configuration (resolved and validated before the run starts)
	Config *config.Config

	// Logger is pre-scoped with run_id/brand; stages should further scope it
	// with their own stage name via Logger.With("stage", name).
	Logger *slog.Logger

	// Progress receives structured progress events for observability and
	// for the CLI's live status output.
	Progress ProgressReporter
}

// New constructs a RunContext with a default structured-log progress
// reporter, matching the logger's scope.
func New(runID, brand, vertical string, cfg *config.Config, logger *slog.Logger) *RunContext {
	scoped := logger.With("run_id", runID, "brand", brand)
	return &RunContext{
		RunID:     runID,
		Brand:     brand,
		Vertical:  vertical,
		Namespace: brand,
		Config:    cfg,
		Logger:    scoped,
		Progress:  NewLogProgressReporter(scoped),
	}
}

// WithStage returns a copy of the RunContext scoped to a single stage's
// logger, leaving the parent context's logger untouched. Stages receive
// this scoped copy, never the orchestrator's root RunContext.
func (rc *RunContext) WithStage(stageName string) *RunContext {
	scoped := *rc
	scoped.Logger = rc.Logger.With("stage", stageName)
	return &scoped
}
