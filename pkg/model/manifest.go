package model

import "time"

// StageStatus is a stage's terminal (or in-flight) execution state.
type StageStatus string

const (
	StagePending   StageStatus = "PENDING"
	StageRunning   StageStatus = "RUNNING"
	StageOK        StageStatus = "OK"
	StageDegraded  StageStatus = "DEGRADED"
	StageFailed    StageStatus = "FAILED"
)

// StageRecord is one stage's entry in a RunManifest, written after the stage
// reaches a terminal status and used to drive resume detection.
type StageRecord struct {
	Name            string
	Status          StageStatus
	StartedAt       time.Time
	EndedAt         time.Time
	Artifacts       []string
	DegradedReason  string
}

// RunManifest is itself an artifact (named manifest_<run_id>): the
// authoritative record of a pipeline run's identity, configuration
// fingerprint, and per-stage outcomes, consulted on --resume to decide which
// stages may be skipped.
type RunManifest struct {
	RunID            string
	Brand            string
	Vertical         string
	ConfigFingerprint string
	StartedAt        time.Time
	UpdatedAt        time.Time
	Stages           []StageRecord
	FinalLevelCounts map[DisclosureLevel]int
}

// StageRecordFor returns the StageRecord for name and whether it was found.
func (m RunManifest) StageRecordFor(name string) (StageRecord, bool) {
	for _, s := range m.Stages {
		if s.Name == name {
			return s, true
		}
	}
	return StageRecord{}, false
}

// CanSkip reports whether a stage already completed successfully (OK or
// DEGRADED — DEGRADED is terminal-success, not a retry trigger) on a prior
// attempt and may be skipped on resume.
func (r StageRecord) CanSkip() bool {
	return r.Status == StageOK || r.Status == StageDegraded
}
