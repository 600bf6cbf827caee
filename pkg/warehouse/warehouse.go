// Package warehouse defines the analytical warehouse port: the single
// external collaborator every stage uses for durable storage, structured AI
// generation, embeddings, multimodal generation, vector distance, and
// short-horizon forecasting. Concrete adapters live in the pg, ai, and
// memory subpackages; stages depend only on the interfaces here.
package warehouse

import (
	"context"
	"time"
)

// Row is a single warehouse record, keyed by column name. Adapters decode
// into and out of Row rather than exposing driver-specific types, so stages
// never import database/sql or pgx directly.
type Row map[string]any

// Store is the warehouse's durable table-storage surface: CRUD plus
// ad-hoc querying. Table names are caller-supplied and namespaced by the
// run's brand/vertical upstream of this interface.
type Store interface {
	EnsureTable(ctx context.Context, table string, columns []ColumnDef) error
	Insert(ctx context.Context, table string, rows []Row) error
	Query(ctx context.Context, query Query) ([]Row, error)
}

// ColumnDef describes one column of a warehouse table for EnsureTable.
type ColumnDef struct {
	Name     string
	Type     string // warehouse-native type name, e.g. "text", "float8", "timestamptz"
	Nullable bool
}

// Query is a named, parameterized query resolved through the query-template
// registry (pkg/warehouse/querytpl) rather than built ad hoc per call site.
type Query struct {
	TemplateName string
	Params       map[string]any
}

// StructuredGenerationRequest asks the warehouse's AI surface to produce
// rows conforming to Schema from Prompt — the "generate-structured-table"
// primitive used by Curation, Strategic Labeling, and Multi-Dimensional
// Intelligence.
type StructuredGenerationRequest struct {
	Prompt string
	Schema map[string]any // JSON Schema describing one output row
	// MaxRows bounds how many rows the model may return in one call; 0 means
	// the adapter's own default.
	MaxRows int
}

// StructuredGenerationResult carries the parsed rows plus a count of rows
// that failed schema validation and were dropped (nulled), so callers can
// apply the AI Output Malformed >20% degraded threshold.
type StructuredGenerationResult struct {
	Rows         []Row
	DroppedCount int
}

// MultimodalRequest asks the warehouse's AI surface to reason over one or
// more images alongside a text prompt — used by Visual Intelligence.
type MultimodalRequest struct {
	Prompt    string
	ImageURIs []string
	Schema    map[string]any
}

// AIClient is the warehouse's AI surface: structured table generation,
// embeddings, and multimodal generation. All three are modeled as a single
// backend (an HTTP-based model API), not three separate services.
type AIClient interface {
	GenerateStructuredTable(ctx context.Context, req StructuredGenerationRequest) (StructuredGenerationResult, error)
	GenerateEmbedding(ctx context.Context, text string) ([]float64, error)
	GenerateMultimodal(ctx context.Context, req MultimodalRequest) (Row, error)
}

// TimePoint is one observation in a time series fed to Forecast.
type TimePoint struct {
	Timestamp time.Time
	Value     float64
}

// ForecastPoint is one projected future observation.
type ForecastPoint struct {
	Timestamp time.Time
	Value     float64
	Low       float64
	High      float64
}

// Analytics groups the warehouse's numeric primitives that are neither pure
// storage nor AI generation: vector distance and time-series forecasting.
type Analytics interface {
	CosineDistance(a, b []float64) (float64, error)
	Forecast(ctx context.Context, series []TimePoint, horizonWeeks int) ([]ForecastPoint, error)
}

// Warehouse composes the three ports behind a single dependency, matching
// how stages actually receive it: one collaborator, three capabilities.
type Warehouse interface {
	Store
	AIClient
	Analytics
}
