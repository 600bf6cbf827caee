// Package embeddings implements the Embeddings stage: per-ad structured
// text construction and a call into the warehouse's embedding primitive.
package embeddings

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/adintel/compintel/pkg/artifact"
	"github.com/adintel/compintel/pkg/model"
	"github.com/adintel/compintel/pkg/pipeerr"
	"github.com/adintel/compintel/pkg/retry"
	"github.com/adintel/compintel/pkg/runctx"
	"github.com/adintel/compintel/pkg/stage"
	"github.com/adintel/compintel/pkg/warehouse"
)

const Name = "embeddings"

// embedParallelism bounds concurrent calls into the embedding primitive.
const embedParallelism = 8

// modelVersion identifies the embedding primitive's semantic version for
// downstream cache invalidation and drift detection.
const modelVersion = "semantic-similarity-v1"

// ctaPhrases is a small closed vocabulary of common call-to-action phrases
// used to detect whether creative text carries an explicit action.
var ctaPhrases = []string{
	"buy now", "shop now", "shop the sale", "learn more", "sign up", "subscribe",
	"get started", "order now", "book now", "try free", "download", "claim your",
	"join now", "get yours", "save now", "apply now",
}

var timeNow = time.Now

// Stage produces one semantic embedding per ad.
type Stage struct {
	AI    warehouse.AIClient
	Store artifact.Store
}

// New constructs the Embeddings stage.
func New(ai warehouse.AIClient, store artifact.Store) *Stage {
	return &Stage{AI: ai, Store: store}
}

func (s *Stage) Name() string { return Name }

func (s *Stage) Run(ctx context.Context, rc *runctx.RunContext) stage.Result {
	start := timeNow()
	rc.Progress.Report(runctx.ProgressEvent{Stage: Name, Message: "starting embeddings"})

	raw, ok, err := s.Store.Get(ctx, artifact.Name(artifact.KindAds, rc.RunID))
	if err != nil {
		return stage.FailedResult(start, pipeerr.New(Name, pipeerr.KindWarehouseError, err))
	}
	if !ok {
		return stage.FailedResult(start, pipeerr.New(Name, pipeerr.KindInput, fmt.Errorf("no ads artifact for run %s", rc.RunID)))
	}
	var ads []model.Ad
	if err := json.Unmarshal(raw, &ads); err != nil {
		return stage.FailedResult(start, fmt.Errorf("decoding ads: %w", err))
	}

	// minSourceTextLen skips ads whose concatenated creative text is too
	// thin to embed meaningfully (single-word CTAs, placeholder ads).
	const minSourceTextLen = 10
	var eligible []model.Ad
	skipped := 0
	for _, ad := range ads {
		if len(strings.TrimSpace(ad.CreativeText)) < minSourceTextLen {
			skipped++
			continue
		}
		eligible = append(eligible, ad)
	}

	results, errs := retry.PoolCollect(ctx, embedParallelism, eligible, func(ctx context.Context, ad model.Ad) (model.Embedding, error) {
		text, flags := structuredText(ad)
		vector, err := s.AI.GenerateEmbedding(ctx, text)
		if err != nil {
			return model.Embedding{}, err
		}
		return model.Embedding{
			AdID:         ad.AdID,
			Vector:       vector,
			ModelVersion: modelVersion,
			QualityFlags: flags,
		}, nil
	})

	var embeddings []model.Embedding
	failures := 0
	for i, e := range results {
		if errs[i] != nil {
			failures++
			continue
		}
		embeddings = append(embeddings, e)
	}

	if len(embeddings) == 0 && len(eligible) > 0 {
		return stage.FailedResult(start, pipeerr.New(Name, pipeerr.KindUpstreamUnavailable,
			fmt.Errorf("every embedding call failed")))
	}
	if skipped > 0 {
		rc.Progress.Report(runctx.ProgressEvent{Stage: Name, Message: fmt.Sprintf("skipped %d ads below minimum source text length", skipped)})
	}

	payload, err := json.Marshal(embeddings)
	if err != nil {
		return stage.FailedResult(start, fmt.Errorf("encoding embeddings artifact: %w", err))
	}
	name := artifact.Name(artifact.KindEmbeddings, rc.RunID)
	if err := s.Store.Put(ctx, name, payload); err != nil {
		return stage.FailedResult(start, pipeerr.New(Name, pipeerr.KindWarehouseError, err))
	}

	rc.Progress.Report(runctx.ProgressEvent{Stage: Name, Message: "embeddings complete", Current: len(embeddings), Total: len(eligible)})

	if failures > 0 {
		return stage.DegradedResult(start, fmt.Sprintf("%d of %d embedding calls failed", failures, len(eligible)), name)
	}
	return stage.OKResult(start, name)
}

// structuredText builds the stable "Title: ... | Content: ... | Action: ..."
// text fed to the embedding primitive. CreativeText is itself a
// pipe-joined merge of title/body/card text produced by Ingestion; the
// first segment is treated as the title-ish lead, the remainder as body.
func structuredText(ad model.Ad) (string, model.QualityFlags) {
	segments := strings.Split(ad.CreativeText, "|")
	for i := range segments {
		segments[i] = strings.TrimSpace(segments[i])
	}
	var title, body string
	switch {
	case len(segments) == 0 || ad.CreativeText == "":
		// no text at all
	case len(segments) == 1:
		body = segments[0]
	default:
		title = segments[0]
		body = strings.Join(segments[1:], " ")
	}

	cta := detectCTA(ad.CreativeText)

	text := fmt.Sprintf("Title: %s | Content: %s | Action: %s", title, body, cta)
	flags := model.QualityFlags{
		HasTitle: title != "",
		HasBody:  body != "",
		HasCTA:   cta != "",
	}
	return text, flags
}

// detectCTA returns the first recognized call-to-action phrase found in
// text, case-insensitively, or "" if none match.
func detectCTA(text string) string {
	lower := strings.ToLower(text)
	for _, phrase := range ctaPhrases {
		if strings.Contains(lower, phrase) {
			return phrase
		}
	}
	return ""
}
