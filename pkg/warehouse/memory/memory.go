// Package memory provides an in-memory Warehouse implementation for tests:
// stages depend only on warehouse.Warehouse, and tests substitute this fake
// rather than hitting a real database or AI backend, matching the
// external-collaborator test boundary used throughout this codebase.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/adintel/compintel/pkg/warehouse"
)

// Warehouse is a goroutine-safe, in-memory warehouse.Warehouse. Its AI
// methods are driven by caller-supplied stub functions so tests can script
// exact responses (including malformed-output and quota-exhaustion cases)
// without a real model call.
type Warehouse struct {
	mu     sync.Mutex
	tables map[string][]warehouse.Row

	StructuredTableFn func(ctx context.Context, req warehouse.StructuredGenerationRequest) (warehouse.StructuredGenerationResult, error)
	EmbeddingFn       func(ctx context.Context, text string) ([]float64, error)
	MultimodalFn      func(ctx context.Context, req warehouse.MultimodalRequest) (warehouse.Row, error)
	ForecastFn        func(ctx context.Context, series []warehouse.TimePoint, horizonWeeks int) ([]warehouse.ForecastPoint, error)
}

// New creates an empty in-memory warehouse.
func New() *Warehouse {
	return &Warehouse{tables: make(map[string][]warehouse.Row)}
}

// EnsureTable is a no-op: tables are created implicitly on first Insert.
func (w *Warehouse) EnsureTable(_ context.Context, table string, _ []warehouse.ColumnDef) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, ok := w.tables[table]; !ok {
		w.tables[table] = nil
	}
	return nil
}

// Insert appends rows to table.
func (w *Warehouse) Insert(_ context.Context, table string, rows []warehouse.Row) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.tables[table] = append(w.tables[table], rows...)
	return nil
}

// Query returns every row of the table named by query.Params["table"],
// ignoring TemplateName — tests care about data flow, not SQL rendering.
func (w *Warehouse) Query(_ context.Context, query warehouse.Query) ([]warehouse.Row, error) {
	table, _ := query.Params["table"].(string)
	w.mu.Lock()
	defer w.mu.Unlock()
	rows, ok := w.tables[table]
	if !ok {
		return nil, fmt.Errorf("unknown table %q", table)
	}
	out := make([]warehouse.Row, len(rows))
	copy(out, rows)
	return out, nil
}

// GenerateStructuredTable delegates to StructuredTableFn, or returns an
// empty result if unset.
func (w *Warehouse) GenerateStructuredTable(ctx context.Context, req warehouse.StructuredGenerationRequest) (warehouse.StructuredGenerationResult, error) {
	if w.StructuredTableFn != nil {
		return w.StructuredTableFn(ctx, req)
	}
	return warehouse.StructuredGenerationResult{}, nil
}

// GenerateEmbedding delegates to EmbeddingFn, or returns a zero vector of
// the standard dimension if unset.
func (w *Warehouse) GenerateEmbedding(ctx context.Context, text string) ([]float64, error) {
	if w.EmbeddingFn != nil {
		return w.EmbeddingFn(ctx, text)
	}
	return make([]float64, 768), nil
}

// GenerateMultimodal delegates to MultimodalFn, or returns an empty row.
func (w *Warehouse) GenerateMultimodal(ctx context.Context, req warehouse.MultimodalRequest) (warehouse.Row, error) {
	if w.MultimodalFn != nil {
		return w.MultimodalFn(ctx, req)
	}
	return warehouse.Row{}, nil
}

// CosineDistance uses the shared standard implementation.
func (w *Warehouse) CosineDistance(a, b []float64) (float64, error) {
	return warehouse.StdCosineDistance(a, b)
}

// Forecast delegates to ForecastFn if set, otherwise falls back to the
// shared linear-trend implementation.
func (w *Warehouse) Forecast(ctx context.Context, series []warehouse.TimePoint, horizonWeeks int) ([]warehouse.ForecastPoint, error) {
	if w.ForecastFn != nil {
		return w.ForecastFn(ctx, series, horizonWeeks)
	}
	return warehouse.StdLinearForecast(series, horizonWeeks)
}
