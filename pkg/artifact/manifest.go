package artifact

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/adintel/compintel/pkg/model"
)

// ManifestService reads and writes the run manifest artifact — itself an
// artifact named manifest_<run_id> — and answers resumability questions for
// the orchestrator.
type ManifestService struct {
	store Store
}

// NewManifestService creates a ManifestService backed by store.
func NewManifestService(store Store) *ManifestService {
	return &ManifestService{store: store}
}

// Load returns the existing manifest for runID, or a fresh zero-value
// manifest if none exists yet (first attempt at this run).
func (s *ManifestService) Load(ctx context.Context, runID string) (model.RunManifest, error) {
	name := Name(KindManifest, runID)
	data, ok, err := s.store.Get(ctx, name)
	if err != nil {
		return model.RunManifest{}, fmt.Errorf("loading manifest %s: %w", name, err)
	}
	if !ok {
		return model.RunManifest{RunID: runID}, nil
	}
	var m model.RunManifest
	if err := json.Unmarshal(data, &m); err != nil {
		return model.RunManifest{}, fmt.Errorf("decoding manifest %s: %w", name, err)
	}
	return m, nil
}

// Save persists the manifest, overwriting any prior version.
func (s *ManifestService) Save(ctx context.Context, m model.RunManifest) error {
	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("encoding manifest: %w", err)
	}
	return s.store.Put(ctx, Name(KindManifest, m.RunID), data)
}

// UpsertStage replaces (or appends) the StageRecord for rec.Name and saves
// the manifest immediately, so a crash mid-run leaves a manifest consistent
// with every stage that actually finished.
func (s *ManifestService) UpsertStage(ctx context.Context, m *model.RunManifest, rec model.StageRecord) error {
	found := false
	for i := range m.Stages {
		if m.Stages[i].Name == rec.Name {
			m.Stages[i] = rec
			found = true
			break
		}
	}
	if !found {
		m.Stages = append(m.Stages, rec)
	}
	return s.Save(ctx, *m)
}

// ShouldSkip reports whether stageName already completed successfully on a
// prior attempt at this run and may be skipped on resume.
func ShouldSkip(m model.RunManifest, stageName string) bool {
	rec, ok := m.StageRecordFor(stageName)
	return ok && rec.CanSkip()
}
