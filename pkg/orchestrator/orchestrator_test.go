package orchestrator

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/adintel/compintel/pkg/config"
	"github.com/adintel/compintel/pkg/model"
	"github.com/adintel/compintel/pkg/runctx"
	"github.com/adintel/compintel/pkg/stage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memStore is an in-memory artifact.Store for tests.
type memStore struct {
	data map[string][]byte
}

func newMemStore() *memStore { return &memStore{data: make(map[string][]byte)} }

func (s *memStore) Put(ctx context.Context, name string, payload []byte) error {
	s.data[name] = payload
	return nil
}
func (s *memStore) Get(ctx context.Context, name string) ([]byte, bool, error) {
	v, ok := s.data[name]
	return v, ok, nil
}
func (s *memStore) Exists(ctx context.Context, name string) (bool, error) {
	_, ok := s.data[name]
	return ok, nil
}
func (s *memStore) Delete(ctx context.Context, name string) error {
	delete(s.data, name)
	return nil
}

type fakeStage struct {
	name   string
	result stage.Result
	calls  *int
}

func (f *fakeStage) Name() string { return f.name }
func (f *fakeStage) Run(ctx context.Context, rc *runctx.RunContext) stage.Result {
	if f.calls != nil {
		*f.calls++
	}
	return f.result
}

func testRC(runID string) *runctx.RunContext {
	cfg := &config.Config{Budgets: config.DefaultBudgetConfig(), Thresholds: config.DefaultThresholdConfig(), ForecastLookbackDays: 90}
	return runctx.New(runID, "BrandA", "saas", cfg, slog.Default())
}

func TestExecute_RunsAllStagesInOrderAndReturnsOK(t *testing.T) {
	store := newMemStore()
	now := time.Now()
	stages := []stage.Stage{
		&fakeStage{name: "a", result: stage.Result{Status: model.StageOK, StartedAt: now, EndedAt: now}},
		&fakeStage{name: "b", result: stage.Result{Status: model.StageOK, StartedAt: now, EndedAt: now}},
	}
	orch := New(stages, store)
	result := orch.Execute(context.Background(), testRC("run1"))
	assert.Equal(t, model.StageOK, result.Status)
	assert.Empty(t, result.Skipped)
}

func TestExecute_StopsAtFirstFailedStage(t *testing.T) {
	store := newMemStore()
	now := time.Now()
	var bCalls int
	stages := []stage.Stage{
		&fakeStage{name: "a", result: stage.Result{Status: model.StageFailed, Err: errors.New("boom"), StartedAt: now, EndedAt: now}},
		&fakeStage{name: "b", result: stage.Result{Status: model.StageOK, StartedAt: now, EndedAt: now}, calls: &bCalls},
	}
	orch := New(stages, store)
	result := orch.Execute(context.Background(), testRC("run2"))
	assert.Equal(t, model.StageFailed, result.Status)
	assert.Equal(t, "a", result.Stage)
	assert.Zero(t, bCalls)
}

func TestExecute_DegradedStageIsTerminalSuccessAndContinues(t *testing.T) {
	store := newMemStore()
	now := time.Now()
	var bCalls int
	stages := []stage.Stage{
		&fakeStage{name: "a", result: stage.Result{Status: model.StageDegraded, DegradedReason: "partial", StartedAt: now, EndedAt: now}},
		&fakeStage{name: "b", result: stage.Result{Status: model.StageOK, StartedAt: now, EndedAt: now}, calls: &bCalls},
	}
	orch := New(stages, store)
	result := orch.Execute(context.Background(), testRC("run3"))
	assert.Equal(t, model.StageDegraded, result.Status)
	assert.Equal(t, 1, bCalls)
}

func TestExecute_SkipsStagesAlreadyCompletedOnResume(t *testing.T) {
	store := newMemStore()
	now := time.Now()
	var aCalls int
	stages := []stage.Stage{
		&fakeStage{name: "a", result: stage.Result{Status: model.StageOK, StartedAt: now, EndedAt: now}, calls: &aCalls},
	}
	orch := New(stages, store)
	rc := testRC("run4")

	first := orch.Execute(context.Background(), rc)
	require.Equal(t, model.StageOK, first.Status)
	require.Equal(t, 1, aCalls)

	second := orch.Execute(context.Background(), rc)
	assert.Equal(t, model.StageOK, second.Status)
	assert.Equal(t, []string{"a"}, second.Skipped)
	assert.Equal(t, 1, aCalls) // not re-invoked
}

func TestDryRun_RendersEveryTemplateWithoutExecutingStages(t *testing.T) {
	store := newMemStore()
	var calls int
	stages := []stage.Stage{
		&fakeStage{name: "a", result: stage.Result{Status: model.StageOK}, calls: &calls},
	}
	orch := New(stages, store)
	err := orch.DryRun(context.Background(), testRC("run5"))
	require.NoError(t, err)
	assert.Zero(t, calls)
}

func TestDryRun_StampsEveryStageOKWithEmptyArtifactsInManifest(t *testing.T) {
	store := newMemStore()
	var aCalls, bCalls int
	stages := []stage.Stage{
		&fakeStage{name: "a", result: stage.Result{Status: model.StageOK}, calls: &aCalls},
		&fakeStage{name: "b", result: stage.Result{Status: model.StageOK}, calls: &bCalls},
	}
	orch := New(stages, store)
	rc := testRC("run6")

	err := orch.DryRun(context.Background(), rc)
	require.NoError(t, err)
	assert.Zero(t, aCalls)
	assert.Zero(t, bCalls)

	m, err := orch.manifest.Load(context.Background(), rc.RunID)
	require.NoError(t, err)
	require.Len(t, m.Stages, 2)
	for _, rec := range m.Stages {
		assert.Equal(t, model.StageOK, rec.Status)
		assert.Empty(t, rec.Artifacts)
	}
}
