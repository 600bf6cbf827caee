package runctx

import "log/slog"

// ProgressEvent is one unit of stage progress, emitted for observability
// and for the CLI's live run status.
type ProgressEvent struct {
	Stage   string
	Message string
	Current int
	Total   int
}

// ProgressReporter receives progress events during stage execution. Stages
// accept this as a narrow interface rather than depending on a concrete
// logger or UI, so tests can substitute a recording fake.
type ProgressReporter interface {
	Report(ev ProgressEvent)
}

// LogProgressReporter reports progress via structured logging — the default
// ProgressReporter for real runs.
type LogProgressReporter struct {
	logger *slog.Logger
}

// NewLogProgressReporter creates a ProgressReporter backed by logger.
func NewLogProgressReporter(logger *slog.Logger) *LogProgressReporter {
	return &LogProgressReporter{logger: logger}
}

// Report logs the event at Info level.
func (r *LogProgressReporter) Report(ev ProgressEvent) {
	r.logger.Info(ev.Message, "stage", ev.Stage, "current", ev.Current, "total", ev.Total)
}

// RecordingProgressReporter accumulates events in memory, for tests that
// assert on the sequence of progress reported by a stage.
type RecordingProgressReporter struct {
	Events []ProgressEvent
}

// Report appends ev to Events.
func (r *RecordingProgressReporter) Report(ev ProgressEvent) {
	r.Events = append(r.Events, ev)
}
