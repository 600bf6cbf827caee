// Package discovery implements the Discovery stage: finding raw competitor
// candidates via web search and directory listings.
package discovery

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/adintel/compintel/pkg/artifact"
	"github.com/adintel/compintel/pkg/model"
	"github.com/adintel/compintel/pkg/pipeerr"
	"github.com/adintel/compintel/pkg/runctx"
	"github.com/adintel/compintel/pkg/search"
	"github.com/adintel/compintel/pkg/stage"
)

const Name = "discovery"

// Stage runs the search_engine and directory_listing discovery methods and
// merges their candidates.
type Stage struct {
	Search  search.Provider
	Store   artifact.Store
}

// New constructs the Discovery stage.
func New(searchProvider search.Provider, store artifact.Store) *Stage {
	return &Stage{Search: searchProvider, Store: store}
}

func (s *Stage) Name() string { return Name }

// Run executes search_engine and directory_listing discovery for the
// target brand's vertical, using the configured vertical's search keywords
// and directory hosts, merges duplicates, and persists the candidates
// artifact. It produces no heuristic_vertical candidates, and a vertical
// missing from the config fails the stage rather than being derived.
func (s *Stage) Run(ctx context.Context, rc *runctx.RunContext) stage.Result {
	start := timeNow()
	rc.Progress.Report(runctx.ProgressEvent{Stage: Name, Message: "starting discovery"})

	vertical, ok := rc.Config.Verticals[rc.Vertical]
	if !ok {
		return stage.FailedResult(start, pipeerr.New(Name, pipeerr.KindInput,
			fmt.Errorf("vertical %q not configured", rc.Vertical)))
	}

	var candidates []model.CompetitorCandidate
	degraded := false
	var degradedReason string

	for _, kw := range vertical.SearchKeywords {
		query := fmt.Sprintf("%s competitors %s", rc.Brand, kw)
		results, err := s.Search.Search(ctx, query, 20)
		if err != nil {
			if kind, ok := pipeerr.KindOf(err); ok && !pipeerr.IsFatal(kind) {
				degraded = true
				degradedReason = err.Error()
				continue
			}
			return stage.FailedResult(start, err)
		}
		for rank, r := range results {
			name := candidateNameFromTitle(r.Title, rc.Brand)
			if name == "" {
				continue
			}
			candidates = append(candidates, model.CompetitorCandidate{
				Name:            name,
				SourceURL:       r.URL,
				SourceTitle:     r.Title,
				DiscoveryMethod: model.MethodSearchEngine,
				RawScore:        1.0 / float64(rank+1),
				DiscoveredAt:    timeNow(),
				NormalizedKey:   normalizeKey(name),
				Provenance: []model.Provenance{{
					Query: query, SourceURL: r.URL, Rank: rank, QueryType: "search_engine",
				}},
			})
		}
	}

	for _, host := range vertical.DirectoryHosts {
		query := fmt.Sprintf("site:%s %s", host, vertical.DisplayName)
		results, err := s.Search.Search(ctx, query, 20)
		if err != nil {
			if kind, ok := pipeerr.KindOf(err); ok && !pipeerr.IsFatal(kind) {
				degraded = true
				degradedReason = err.Error()
				continue
			}
			return stage.FailedResult(start, err)
		}
		for rank, r := range results {
			name := candidateNameFromTitle(r.Title, rc.Brand)
			if name == "" {
				continue
			}
			candidates = append(candidates, model.CompetitorCandidate{
				Name:            name,
				SourceURL:       r.URL,
				SourceTitle:     r.Title,
				DiscoveryMethod: model.MethodDirectoryListing,
				RawScore:        0.7 / float64(rank+1),
				DiscoveredAt:    timeNow(),
				NormalizedKey:   normalizeKey(name),
				Provenance: []model.Provenance{{
					Query: query, SourceURL: r.URL, Rank: rank, QueryType: "directory_listing",
				}},
			})
		}
	}

	merged := Merge(candidates)

	if len(merged) == 0 {
		return stage.FailedResult(start, pipeerr.New(Name, pipeerr.KindUpstreamUnavailable,
			fmt.Errorf("no competitor candidates discovered")))
	}

	payload, err := json.Marshal(merged)
	if err != nil {
		return stage.FailedResult(start, fmt.Errorf("encoding candidates artifact: %w", err))
	}
	name := artifact.Name(artifact.KindCandidates, rc.RunID)
	if err := s.Store.Put(ctx, name, payload); err != nil {
		return stage.FailedResult(start, pipeerr.New(Name, pipeerr.KindWarehouseError, err))
	}

	rc.Progress.Report(runctx.ProgressEvent{Stage: Name, Message: "discovery complete", Current: len(merged), Total: len(merged)})

	if degraded {
		return stage.DegradedResult(start, degradedReason, name)
	}
	return stage.OKResult(start, name)
}

// Merge folds duplicate candidates (same NormalizedKey) into one entry,
// tagged MethodMergedMultiMethod, keeping the union of provenance and the
// max raw score.
func Merge(candidates []model.CompetitorCandidate) []model.CompetitorCandidate {
	byKey := make(map[string]*model.CompetitorCandidate)
	var order []string

	for _, c := range candidates {
		existing, ok := byKey[c.NormalizedKey]
		if !ok {
			cc := c
			byKey[c.NormalizedKey] = &cc
			order = append(order, c.NormalizedKey)
			continue
		}
		existing.Provenance = append(existing.Provenance, c.Provenance...)
		if c.RawScore > existing.RawScore {
			existing.RawScore = c.RawScore
		}
		if existing.DiscoveryMethod != c.DiscoveryMethod {
			existing.DiscoveryMethod = model.MethodMergedMultiMethod
		}
	}

	out := make([]model.CompetitorCandidate, 0, len(order))
	for _, key := range order {
		out = append(out, *byKey[key])
	}
	return out
}

// normalizeKey produces a stable dedup key for a competitor name: lowercase,
// whitespace-collapsed, legal-suffix-stripped.
func normalizeKey(name string) string {
	n := strings.ToLower(strings.TrimSpace(name))
	for _, suffix := range []string{", inc", ", llc", " inc.", " inc", " llc", " ltd.", " ltd", " co."} {
		n = strings.TrimSuffix(n, suffix)
	}
	fields := strings.Fields(n)
	return strings.Join(fields, " ")
}

// candidateNameFromTitle extracts a plausible competitor name from a search
// result title, rejecting hits that are just the target brand itself.
func candidateNameFromTitle(title, brand string) string {
	title = strings.TrimSpace(title)
	if title == "" {
		return ""
	}
	if strings.EqualFold(normalizeKey(title), normalizeKey(brand)) {
		return ""
	}
	// Titles are frequently "Name | Tagline" or "Name - Tagline".
	name := title
	for _, sep := range []string{" | ", " - ", " — "} {
		if idx := strings.Index(title, sep); idx > 0 {
			name = strings.TrimSpace(title[:idx])
			break
		}
	}
	if strings.EqualFold(normalizeKey(name), normalizeKey(brand)) {
		return ""
	}
	return name
}

var timeNow = time.Now
