// Package curation implements the Curation stage: a three-round batch AI
// consensus vote that promotes raw Discovery candidates into validated
// competitors, each carrying a composite quality_score.
package curation

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/adintel/compintel/pkg/artifact"
	"github.com/adintel/compintel/pkg/model"
	"github.com/adintel/compintel/pkg/pipeerr"
	"github.com/adintel/compintel/pkg/runctx"
	"github.com/adintel/compintel/pkg/stage"
	"github.com/adintel/compintel/pkg/warehouse"
)

var timeNow = time.Now

const Name = "curation"

// rounds is the number of independently-framed AI validation passes
// consulted per candidate; acceptance requires at least acceptThreshold of
// them to return is_competitor=true.
const rounds = 3
const acceptThreshold = 2
const confidenceFloor = 0.6

// minAccepted is the floor below which the stage degrades rather than
// fails outright — the run continues with whatever survived consensus.
const minAccepted = 3

// roundFramings rotates the prompt angle across rounds so the three passes
// are independent rather than three copies of the same question.
var roundFramings = [rounds]string{
	"Assess market overlap: does each candidate compete for the same customers as the target brand?",
	"Assess competitive positioning: does each candidate occupy a comparable market position to the target brand?",
	"Assess brand similarity: is each candidate commonly substituted for or compared against the target brand?",
}

// Stage runs the consensus vote over Discovery's candidates.
type Stage struct {
	AI    warehouse.AIClient
	Store artifact.Store
}

// New constructs the Curation stage.
func New(ai warehouse.AIClient, store artifact.Store) *Stage {
	return &Stage{AI: ai, Store: store}
}

func (s *Stage) Name() string { return Name }

type roundVote struct {
	Name             string  `json:"name"`
	IsCompetitor     bool    `json:"is_competitor"`
	Tier             string  `json:"tier"`
	MarketOverlapPct float64 `json:"market_overlap_pct"`
	Confidence       float64 `json:"confidence"`
	Reasoning        string  `json:"reasoning"`
}

func schemaFor() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"name":               map[string]any{"type": "string"},
			"is_competitor":      map[string]any{"type": "boolean"},
			"tier":               map[string]any{"type": "string", "enum": []string{"Incumbent", "Challenger", "Niche", "Emerging"}},
			"market_overlap_pct": map[string]any{"type": "number"},
			"confidence":         map[string]any{"type": "number"},
			"reasoning":          map[string]any{"type": "string"},
		},
		"required": []any{"name", "is_competitor", "tier", "confidence"},
	}
}

func (s *Stage) Run(ctx context.Context, rc *runctx.RunContext) stage.Result {
	start := timeNow()
	rc.Progress.Report(runctx.ProgressEvent{Stage: Name, Message: "starting curation"})

	raw, ok, err := s.Store.Get(ctx, artifact.Name(artifact.KindCandidates, rc.RunID))
	if err != nil {
		return stage.FailedResult(start, pipeerr.New(Name, pipeerr.KindWarehouseError, err))
	}
	if !ok {
		return stage.FailedResult(start, pipeerr.New(Name, pipeerr.KindInput, fmt.Errorf("no candidates artifact for run %s", rc.RunID)))
	}
	var candidates []model.CompetitorCandidate
	if err := json.Unmarshal(raw, &candidates); err != nil {
		return stage.FailedResult(start, fmt.Errorf("decoding candidates: %w", err))
	}

	candidates = filterDenyList(candidates, rc.Config.CurationDenyList)
	if len(candidates) == 0 {
		return stage.FailedResult(start, pipeerr.New(Name, pipeerr.KindInput,
			fmt.Errorf("every discovered candidate was deny-listed")))
	}

	votesByName := make(map[string][]roundVote)
	malformedTotal := 0
	roundsAttempted := 0

	for r := 0; r < rounds; r++ {
		result, err := s.AI.GenerateStructuredTable(ctx, warehouse.StructuredGenerationRequest{
			Prompt:  buildPrompt(candidates, rc.Vertical, roundFramings[r]),
			Schema:  schemaFor(),
			MaxRows: len(candidates),
		})
		if err != nil {
			continue
		}
		roundsAttempted++
		malformedTotal += result.DroppedCount
		for _, row := range result.Rows {
			vote := decodeVote(row)
			votesByName[strings.ToLower(vote.Name)] = append(votesByName[strings.ToLower(vote.Name)], vote)
		}
	}

	if roundsAttempted == 0 {
		return stage.FailedResult(start, pipeerr.New(Name, pipeerr.KindUpstreamUnavailable,
			fmt.Errorf("all %d curation rounds failed", rounds)))
	}

	maxRawScore := maxRawScoreOf(candidates)

	var validated []model.ValidatedCompetitor
	for _, c := range candidates {
		votes := votesByName[strings.ToLower(c.Name)]
		vc, accepted := Consensus(c, votes, maxRawScore, methodWeight(rc.Config.MethodWeights, c.DiscoveryMethod))
		if accepted {
			validated = append(validated, vc)
		}
	}

	sort.SliceStable(validated, func(i, j int) bool {
		return validated[i].QualityScore > validated[j].QualityScore
	})

	if len(validated) == 0 {
		return stage.FailedResult(start, pipeerr.New(Name, pipeerr.KindInput,
			fmt.Errorf("no candidates reached curation consensus")))
	}

	payload, err := json.Marshal(validated)
	if err != nil {
		return stage.FailedResult(start, fmt.Errorf("encoding validated competitors: %w", err))
	}
	name := artifact.Name(artifact.KindValidated, rc.RunID)
	if err := s.Store.Put(ctx, name, payload); err != nil {
		return stage.FailedResult(start, pipeerr.New(Name, pipeerr.KindWarehouseError, err))
	}

	rc.Progress.Report(runctx.ProgressEvent{Stage: Name, Message: "curation complete", Current: len(validated), Total: len(candidates)})

	totalRows := len(candidates) * roundsAttempted
	if len(validated) < minAccepted {
		return stage.DegradedResult(start,
			fmt.Sprintf("only %d candidates reached consensus (minimum %d)", len(validated), minAccepted), name)
	}
	if totalRows > 0 && float64(malformedTotal)/float64(totalRows) > 0.2 {
		return stage.DegradedResult(start, "more than 20% of AI rows were malformed", name)
	}

	return stage.OKResult(start, name)
}

func filterDenyList(candidates []model.CompetitorCandidate, denyList []string) []model.CompetitorCandidate {
	denied := make(map[string]bool, len(denyList))
	for _, d := range denyList {
		denied[strings.ToLower(d)] = true
	}
	out := make([]model.CompetitorCandidate, 0, len(candidates))
	for _, c := range candidates {
		if !denied[strings.ToLower(c.Name)] {
			out = append(out, c)
		}
	}
	return out
}

func maxRawScoreOf(candidates []model.CompetitorCandidate) float64 {
	var max float64
	for _, c := range candidates {
		if c.RawScore > max {
			max = c.RawScore
		}
	}
	return max
}

// methodWeight looks up the configured trust weight for a discovery method,
// defaulting to 1.0 when unconfigured rather than zeroing out the score.
func methodWeight(weights map[string]float64, method model.DiscoveryMethod) float64 {
	if w, ok := weights[string(method)]; ok {
		return w
	}
	return 1.0
}

// Consensus accepts candidate c if at least acceptThreshold of votes agree
// is_competitor=true and the average confidence across those accepting
// votes is at least confidenceFloor. quality_score combines the accepted
// confidence with the candidate's normalized raw discovery score, its
// average reported market overlap, and its discovery-method weight.
func Consensus(c model.CompetitorCandidate, votes []roundVote, maxRawScore, weight float64) (model.ValidatedCompetitor, bool) {
	if len(votes) == 0 {
		return model.ValidatedCompetitor{}, false
	}

	var accepting []roundVote
	var overlapSum float64
	var overlapCount int
	for _, v := range votes {
		if v.MarketOverlapPct > 0 {
			overlapSum += v.MarketOverlapPct
			overlapCount++
		}
		if v.IsCompetitor {
			accepting = append(accepting, v)
		}
	}

	if len(accepting) < acceptThreshold {
		return model.ValidatedCompetitor{}, false
	}

	var sumConfidence float64
	var best roundVote
	for _, v := range accepting {
		sumConfidence += v.Confidence
		if v.Confidence > best.Confidence {
			best = v
		}
	}
	avgConfidence := sumConfidence / float64(len(accepting))
	if avgConfidence < confidenceFloor {
		return model.ValidatedCompetitor{}, false
	}

	avgOverlap := 0.0
	if overlapCount > 0 {
		avgOverlap = overlapSum / float64(overlapCount)
	}
	normalizedRawScore := 0.0
	if maxRawScore > 0 {
		normalizedRawScore = c.RawScore / maxRawScore
	}

	qualityScore := 0.4*avgConfidence + 0.3*normalizedRawScore + 0.2*(avgOverlap/100.0) + 0.1*weight

	return model.ValidatedCompetitor{
		Name:             c.Name,
		Tier:             model.CompetitorTier(best.Tier),
		MarketOverlapPct: avgOverlap,
		AIConfidence:     model.Clamp01(avgConfidence),
		QualityScore:     model.Clamp01(qualityScore),
		Reasoning:        best.Reasoning,
		DiscoveryMethod:  c.DiscoveryMethod,
		RawScore:         c.RawScore,
		AcceptingRounds:  len(accepting),
	}, true
}

func decodeVote(row warehouse.Row) roundVote {
	v := roundVote{}
	if s, ok := row["name"].(string); ok {
		v.Name = s
	}
	if b, ok := row["is_competitor"].(bool); ok {
		v.IsCompetitor = b
	}
	if s, ok := row["tier"].(string); ok {
		v.Tier = s
	}
	if f, ok := row["market_overlap_pct"].(float64); ok {
		v.MarketOverlapPct = f
	}
	if f, ok := row["confidence"].(float64); ok {
		v.Confidence = model.Clamp01(f)
	}
	if s, ok := row["reasoning"].(string); ok {
		v.Reasoning = s
	}
	return v
}

func buildPrompt(candidates []model.CompetitorCandidate, vertical, framing string) string {
	var names []string
	for _, c := range candidates {
		names = append(names, c.Name)
	}
	return fmt.Sprintf(
		"%s Vertical: %q. Candidates: %s. For each, return is_competitor, tier, "+
			"market_overlap_pct (0-100), confidence (0-1), and a short reasoning string.",
		framing, vertical, strings.Join(names, ", "),
	)
}
