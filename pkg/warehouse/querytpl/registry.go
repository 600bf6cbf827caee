// Package querytpl centralizes the pipeline's warehouse query templates in
// one named registry, replacing ad-hoc SQL string building scattered across
// stages. Both dry-run mode (render-only, no execution) and the Enhanced
// Output L4 tier (render query text for the report) go through this
// registry rather than building SQL inline.
package querytpl

import (
	"bytes"
	"fmt"
	"text/template"
)

// Registry holds named, parsed SQL templates.
type Registry struct {
	templates map[string]*template.Template
}

// NewRegistry builds a Registry from the fixed set of named templates.
func NewRegistry() *Registry {
	r := &Registry{templates: make(map[string]*template.Template)}
	for name, body := range builtinTemplates {
		r.templates[name] = template.Must(template.New(name).Parse(body))
	}
	return r
}

// Render renders the named template with params, returning the literal SQL
// text. An unknown template name or a template execution error (e.g. a
// missing required param) is returned as an error — callers never fall
// back to hand-built SQL.
func (r *Registry) Render(name string, params map[string]any) (string, error) {
	tmpl, ok := r.templates[name]
	if !ok {
		return "", fmt.Errorf("querytpl: unknown template %q", name)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, params); err != nil {
		return "", fmt.Errorf("querytpl: rendering %q: %w", name, err)
	}
	return buf.String(), nil
}

// Names returns every registered template name, primarily for dry-run mode
// to validate the whole registry renders without executing any of it.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.templates))
	for name := range r.templates {
		names = append(names, name)
	}
	return names
}

// builtinTemplates is the fixed set of named query templates used across
// stages. Each is parameterized with {{.Param}} placeholders filled in by
// the calling stage via Render's params map.
var builtinTemplates = map[string]string{
	"select_ads_by_brand": `
SELECT ad_id, creative_text, media_type, start_ts, end_ts
FROM ads_{{.RunID}}
WHERE brand = '{{.Brand}}'
ORDER BY start_ts ASC;`,

	"select_ranked_competitors": `
SELECT name, tier, rank
FROM ranked_competitors_{{.RunID}}
ORDER BY rank ASC
LIMIT {{.Limit}};`,

	"select_similarity_edges_for_brand": `
SELECT ad_a_id, ad_b_id, brand_a, brand_b, cosine_distance, lag_days
FROM similarity_edges_{{.RunID}}
WHERE brand_a = '{{.Brand}}' OR brand_b = '{{.Brand}}'
ORDER BY cosine_distance ASC;`,

	"select_embeddings_missing_for_run": `
SELECT ad_id
FROM ads_{{.RunID}}
WHERE ad_id NOT IN (SELECT ad_id FROM embeddings_{{.RunID}});`,

	"select_forecast_series": `
SELECT observed_at, value
FROM {{.Metric}}_daily_{{.RunID}}
WHERE observed_at >= NOW() - INTERVAL '{{.LookbackDays}} days'
ORDER BY observed_at ASC;`,
}
