// Package pipeerr defines the pipeline's error taxonomy: every error a
// stage can produce is classified into one of a fixed set of Kinds, which
// the orchestrator uses to decide whether to fail fast, mark a stage
// DEGRADED, or retry.
package pipeerr

import (
	"errors"
	"fmt"
)

// Kind classifies a stage error for orchestrator handling, per the error
// taxonomy.
type Kind string

const (
	// KindInput is a fatal, non-retryable configuration or argument error.
	// The process exits with code 64 (EX_USAGE).
	KindInput Kind = "INPUT"

	// KindUpstreamQuota means an external collaborator's quota is exhausted
	// for the run. The stage degrades rather than failing.
	KindUpstreamQuota Kind = "UPSTREAM_QUOTA"

	// KindUpstreamRateLimit means a 429-class response was received. The
	// caller should retry with backoff before degrading.
	KindUpstreamRateLimit Kind = "UPSTREAM_RATE_LIMIT"

	// KindUpstreamUnavailable means a transport-level failure (timeout,
	// connection refused, 5xx). Retry, then degrade or fail depending on
	// whether the stage has a fallback path.
	KindUpstreamUnavailable Kind = "UPSTREAM_UNAVAILABLE"

	// KindWarehouseError is a storage-layer failure (connection, constraint
	// violation, transaction abort). Always fails the stage.
	KindWarehouseError Kind = "WAREHOUSE_ERROR"

	// KindSchemaDrift means the warehouse schema does not match what the
	// stage expects. Always fails the stage — this is not recoverable at
	// runtime.
	KindSchemaDrift Kind = "SCHEMA_DRIFT"

	// KindAIOutputMalformed means an AI call returned output that failed
	// structural validation. The affected row is nulled and flagged; the
	// stage only degrades if more than 20% of rows are affected.
	KindAIOutputMalformed Kind = "AI_OUTPUT_MALFORMED"

	// KindBudgetExceeded is not a failure: it signals the stage to shrink
	// its workload proportionally rather than stop.
	KindBudgetExceeded Kind = "BUDGET_EXCEEDED"
)

// StageError wraps an underlying error with its Kind and whether the stage
// has a fallback path for it (which determines FAILED vs DEGRADED when the
// Kind alone is ambiguous, e.g. KindUpstreamUnavailable).
type StageError struct {
	Kind     Kind
	Stage    string
	Fallback bool
	Err      error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %s: %s: %v", e.Stage, e.Kind, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// New wraps err as a StageError of the given Kind for stage.
func New(stage string, kind Kind, err error) *StageError {
	return &StageError{Stage: stage, Kind: kind, Err: err}
}

// NewWithFallback wraps err as a StageError that has a fallback path
// available, so the orchestrator should prefer DEGRADED over FAILED.
func NewWithFallback(stage string, kind Kind, err error) *StageError {
	return &StageError{Stage: stage, Kind: kind, Fallback: true, Err: err}
}

// IsFatal reports whether kind must fail the run immediately regardless of
// fallback availability.
func IsFatal(kind Kind) bool {
	switch kind {
	case KindInput, KindWarehouseError, KindSchemaDrift:
		return true
	default:
		return false
	}
}

// IsRetryable reports whether a single failed call of this kind should be
// retried with backoff before the stage decides FAILED/DEGRADED.
func IsRetryable(kind Kind) bool {
	switch kind {
	case KindUpstreamRateLimit, KindUpstreamUnavailable:
		return true
	default:
		return false
	}
}

// KindOf extracts the Kind of err if it is (or wraps) a *StageError,
// returning ok=false otherwise.
func KindOf(err error) (Kind, bool) {
	var se *StageError
	if errors.As(err, &se) {
		return se.Kind, true
	}
	return "", false
}
