package memory

import (
	"context"
	"testing"

	"github.com/adintel/compintel/pkg/warehouse"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInsertThenQuery_RoundTrips(t *testing.T) {
	w := New()
	ctx := context.Background()
	require.NoError(t, w.EnsureTable(ctx, "ads", nil))
	require.NoError(t, w.Insert(ctx, "ads", []warehouse.Row{{"ad_id": "a1"}, {"ad_id": "a2"}}))

	rows, err := w.Query(ctx, warehouse.Query{Params: map[string]any{"table": "ads"}})
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}

func TestQuery_UnknownTableErrors(t *testing.T) {
	w := New()
	_, err := w.Query(context.Background(), warehouse.Query{Params: map[string]any{"table": "missing"}})
	require.Error(t, err)
}

func TestGenerateEmbedding_DefaultsToZeroVector(t *testing.T) {
	w := New()
	v, err := w.GenerateEmbedding(context.Background(), "hello")
	require.NoError(t, err)
	assert.Len(t, v, 768)
}

func TestGenerateStructuredTable_UsesStub(t *testing.T) {
	w := New()
	w.StructuredTableFn = func(_ context.Context, req warehouse.StructuredGenerationRequest) (warehouse.StructuredGenerationResult, error) {
		return warehouse.StructuredGenerationResult{Rows: []warehouse.Row{{"name": "Acme"}}}, nil
	}
	res, err := w.GenerateStructuredTable(context.Background(), warehouse.StructuredGenerationRequest{Prompt: "find competitors"})
	require.NoError(t, err)
	assert.Equal(t, "Acme", res.Rows[0]["name"])
}
