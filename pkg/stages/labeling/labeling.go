// Package labeling implements the Strategic Labeling stage: batched AI
// attribute extraction (funnel, angles, persona, topics, tone scores) over
// every ad with creative text.
package labeling

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/adintel/compintel/pkg/artifact"
	"github.com/adintel/compintel/pkg/model"
	"github.com/adintel/compintel/pkg/pipeerr"
	"github.com/adintel/compintel/pkg/runctx"
	"github.com/adintel/compintel/pkg/stage"
	"github.com/adintel/compintel/pkg/warehouse"
)

const Name = "labeling"

// chunkSize bounds how many ads are sent to the AI in a single structured-
// generation call, to stay under the provider's practical prompt/response
// size limits.
const chunkSize = 25

var timeNow = time.Now

// Stage labels every newly-seen ad with creative text.
type Stage struct {
	AI    warehouse.AIClient
	Store artifact.Store
}

// New constructs the Strategic Labeling stage.
func New(ai warehouse.AIClient, store artifact.Store) *Stage {
	return &Stage{AI: ai, Store: store}
}

func (s *Stage) Name() string { return Name }

type labelRow struct {
	AdID                 string        `json:"ad_id"`
	Funnel               string        `json:"funnel"`
	Angles               []angleRow    `json:"angles"`
	Persona              string        `json:"persona"`
	Topics               []string      `json:"topics"`
	UrgencyScore         float64       `json:"urgency_score"`
	PromotionalIntensity float64       `json:"promotional_intensity"`
	BrandVoiceScore      float64       `json:"brand_voice_score"`
}

type angleRow struct {
	Angle      string  `json:"angle"`
	Confidence float64 `json:"confidence"`
}

func schemaFor() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"ad_id":  map[string]any{"type": "string"},
			"funnel": map[string]any{"type": "string", "enum": []string{"Upper", "Mid", "Lower"}},
			"angles": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"angle":      map[string]any{"type": "string"},
						"confidence": map[string]any{"type": "number"},
					},
				},
			},
			"persona":               map[string]any{"type": "string"},
			"topics":                map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
			"urgency_score":         map[string]any{"type": "number"},
			"promotional_intensity": map[string]any{"type": "number"},
			"brand_voice_score":     map[string]any{"type": "number"},
		},
		"required": []any{"ad_id", "funnel"},
	}
}

func (s *Stage) Run(ctx context.Context, rc *runctx.RunContext) stage.Result {
	start := timeNow()
	rc.Progress.Report(runctx.ProgressEvent{Stage: Name, Message: "starting labeling"})

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

	existing, err := s.loadExistingLabels(ctx, rc.RunID)
	if err != nil {
		return stage.FailedResult(start, err)
	}

	var toLabel []model.Ad
	for _, ad := range ads {
		if ad.CreativeText == "" {
			continue
		}
		if _, already := existing[ad.AdID]; already {
			continue
		}
		toLabel = append(toLabel, ad)
	}

	malformedTotal := 0
	totalRows := 0
	anyChunkFailed := false

	for chunkStart := 0; chunkStart < len(toLabel); chunkStart += chunkSize {
		chunkEnd := chunkStart + chunkSize
		if chunkEnd > len(toLabel) {
			chunkEnd = len(toLabel)
		}
		chunk := toLabel[chunkStart:chunkEnd]

		result, err := s.AI.GenerateStructuredTable(ctx, warehouse.StructuredGenerationRequest{
			Prompt:  buildPrompt(chunk),
			Schema:  schemaFor(),
			MaxRows: len(chunk),
		})
		if err != nil {
			anyChunkFailed = true
			continue
		}
		malformedTotal += result.DroppedCount
		totalRows += len(chunk)

		for _, row := range result.Rows {
			label := decodeLabel(row, rc.Config.Thresholds.AngleConfidenceFloor)
			existing[label.AdID] = label
		}
	}

	labels := make([]model.StrategicLabel, 0, len(existing))
	for _, ad := range ads {
		if l, ok := existing[ad.AdID]; ok {
			labels = append(labels, l)
		}
	}

	payload, err := json.Marshal(labels)
	if err != nil {
		return stage.FailedResult(start, fmt.Errorf("encoding labels artifact: %w", err))
	}
	name := artifact.Name(artifact.KindLabels, rc.RunID)
	if err := s.Store.Put(ctx, name, payload); err != nil {
		return stage.FailedResult(start, pipeerr.New(Name, pipeerr.KindWarehouseError, err))
	}

	rc.Progress.Report(runctx.ProgressEvent{Stage: Name, Message: "labeling complete", Current: len(labels), Total: len(ads)})

	if anyChunkFailed {
		return stage.DegradedResult(start, "one or more labeling chunks failed upstream", name)
	}
	if totalRows > 0 && float64(malformedTotal)/float64(totalRows) > 0.2 {
		return stage.DegradedResult(start, "more than 20% of AI label rows were malformed", name)
	}
	return stage.OKResult(start, name)
}

func (s *Stage) loadExistingLabels(ctx context.Context, runID string) (map[string]model.StrategicLabel, error) {
	out := make(map[string]model.StrategicLabel)
	raw, ok, err := s.Store.Get(ctx, artifact.Name(artifact.KindLabels, runID))
	if err != nil {
		return nil, pipeerr.New(Name, pipeerr.KindWarehouseError, err)
	}
	if !ok {
		return out, nil
	}
	var prior []model.StrategicLabel
	if err := json.Unmarshal(raw, &prior); err != nil {
		return nil, fmt.Errorf("decoding prior labels: %w", err)
	}
	for _, l := range prior {
		out[l.AdID] = l
	}
	return out, nil
}

// decodeLabel converts one AI response row into a StrategicLabel, clamping
// every numeric score to [0,1] and flagging labeling_degraded for any score
// that arrived outside that range.
func decodeLabel(row warehouse.Row, angleFloor float64) model.StrategicLabel {
	label := model.StrategicLabel{}
	if s, ok := row["ad_id"].(string); ok {
		label.AdID = s
	}
	if s, ok := row["funnel"].(string); ok {
		label.Funnel = model.Funnel(s)
	}
	if s, ok := row["persona"].(string); ok {
		label.Persona = s
	}
	if items, ok := row["topics"].([]any); ok {
		for _, item := range items {
			if s, ok := item.(string); ok {
				label.Topics = append(label.Topics, s)
			}
		}
	}

	degraded := false
	label.UrgencyScore, degraded = clampTracked(row["urgency_score"], degraded)
	label.PromotionalIntensity, degraded = clampTracked(row["promotional_intensity"], degraded)
	label.BrandVoiceScore, degraded = clampTracked(row["brand_voice_score"], degraded)

	if items, ok := row["angles"].([]any); ok {
		for _, item := range items {
			m, ok := item.(map[string]any)
			if !ok {
				continue
			}
			angleName, _ := m["angle"].(string)
			conf, outOfRange := clampTracked(m["confidence"], false)
			if outOfRange {
				degraded = true
			}
			label.Angles = append(label.Angles, model.ScoredAngle{Angle: model.Angle(angleName), Confidence: conf})
		}
	}

	label.LabelingDegraded = degraded
	if len(label.KeptAngles(angleFloor)) == 0 {
		label.AngleComplexity = model.AngleComplexityNoAngles
	}
	return label
}

// clampTracked coerces v to float64 and clamps it to [0,1], reporting
// outOfRange=true when the raw value fell outside that band.
func clampTracked(v any, outOfRange bool) (float64, bool) {
	f, ok := v.(float64)
	if !ok {
		return 0, outOfRange
	}
	if f < 0 || f > 1 {
		outOfRange = true
	}
	return model.Clamp01(f), outOfRange
}

func buildPrompt(ads []model.Ad) string {
	s := "Analyze the strategic attributes of each ad's creative text. For each, return ad_id, funnel (Upper/Mid/Lower), " +
		"angles (array of {angle, confidence}), persona, topics, urgency_score, promotional_intensity, and brand_voice_score " +
		"(all numeric scores in [0,1]). Ads:\n"
	for _, ad := range ads {
		s += fmt.Sprintf("- ad_id=%s text=%q\n", ad.AdID, ad.CreativeText)
	}
	return s
}
