package pg

import (
	"context"
	"database/sql"
	"fmt"
)

// ArtifactStore adapts Store's underlying connection to the artifact.Store
// port (Put/Get/Exists/Delete over the long-lived artifact_index table),
// independent of the per-run EnsureTable/Insert/Query surface used for
// stage data tables.
type ArtifactStore struct {
	store *Store
}

// NewArtifactStore wraps store as an artifact.Store.
func NewArtifactStore(store *Store) *ArtifactStore {
	return &ArtifactStore{store: store}
}

// Put upserts the artifact under name.
func (a *ArtifactStore) Put(ctx context.Context, name string, payload []byte) error {
	_, err := a.store.db.ExecContext(ctx, `
		INSERT INTO artifact_index (name, run_id, kind, payload, updated_at)
		VALUES ($1, $2, $3, $4, now())
		ON CONFLICT (name) DO UPDATE SET payload = EXCLUDED.payload, updated_at = now()`,
		name, runIDFromName(name), kindFromName(name), payload)
	if err != nil {
		return fmt.Errorf("storing artifact %q: %w", name, err)
	}
	return nil
}

// Get returns the artifact's payload, or ok=false if it doesn't exist.
func (a *ArtifactStore) Get(ctx context.Context, name string) ([]byte, bool, error) {
	var payload []byte
	err := a.store.db.QueryRowContext(ctx, `SELECT payload FROM artifact_index WHERE name = $1`, name).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("loading artifact %q: %w", name, err)
	}
	return payload, true, nil
}

// Exists reports whether an artifact named name has been stored.
func (a *ArtifactStore) Exists(ctx context.Context, name string) (bool, error) {
	var exists bool
	err := a.store.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM artifact_index WHERE name = $1)`, name).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("checking artifact %q: %w", name, err)
	}
	return exists, nil
}

// Delete removes the artifact named name, if present.
func (a *ArtifactStore) Delete(ctx context.Context, name string) error {
	_, err := a.store.db.ExecContext(ctx, `DELETE FROM artifact_index WHERE name = $1`, name)
	if err != nil {
		return fmt.Errorf("deleting artifact %q: %w", name, err)
	}
	return nil
}

// runIDFromName and kindFromName split the "<kind>_<run_id>" naming
// contract for indexing; run_id is everything after the last underscore,
// since kinds may contain underscores (e.g. "validated_competitors") while
// generated run ids (UUIDs) do not.
func kindFromName(name string) string {
	for i := len(name) - 1; i >= 0; i-- {
		if name[i] == '_' {
			return name[:i]
		}
	}
	return name
}

func runIDFromName(name string) string {
	for i := len(name) - 1; i >= 0; i-- {
		if name[i] == '_' {
			return name[i+1:]
		}
	}
	return ""
}
