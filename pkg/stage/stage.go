// Package stage defines the contract every pipeline stage implements, and
// the Result type the orchestrator uses to decide whether to continue,
// degrade, or fail the run.
package stage

import (
	"context"
	"time"

	"github.com/adintel/compintel/pkg/model"
	"github.com/adintel/compintel/pkg/runctx"
)

// Status is a stage's terminal execution state. Mirrors
// model.StageStatus but scoped to the in-flight Result type, which also
// carries artifacts and a degraded reason — Status alone is not enough to
// build a StageRecord.
type Status = model.StageStatus

const (
	Pending  = model.StagePending
	Running  = model.StageRunning
	OK       = model.StageOK
	Degraded = model.StageDegraded
	Failed   = model.StageFailed
)

// Result is the outcome of one stage execution, handed back to the
// orchestrator to update the run manifest and decide on fail-fast.
type Result struct {
	Status         Status
	Artifacts      []string
	DegradedReason string
	Err            error
	StartedAt      time.Time
	EndedAt        time.Time
}

// Stage is implemented by every pipeline stage. Name must be stable across
// runs — it is the key used for resumability lookups in the run manifest.
type Stage interface {
	Name() string
	Run(ctx context.Context, rc *runctx.RunContext) Result
}

// OKResult builds a successful Result, stamping EndedAt as now.
func OKResult(startedAt time.Time, artifacts ...string) Result {
	return Result{Status: OK, Artifacts: artifacts, StartedAt: startedAt, EndedAt: timeNow()}
}

// DegradedResult builds a degraded-but-terminal Result.
func DegradedResult(startedAt time.Time, reason string, artifacts ...string) Result {
	return Result{Status: Degraded, Artifacts: artifacts, DegradedReason: reason, StartedAt: startedAt, EndedAt: timeNow()}
}

// FailedResult builds a fatal Result.
func FailedResult(startedAt time.Time, err error) Result {
	return Result{Status: Failed, Err: err, StartedAt: startedAt, EndedAt: timeNow()}
}

// timeNow is a package-level indirection so tests can freeze time if needed;
// defaults to the real clock.
var timeNow = time.Now
