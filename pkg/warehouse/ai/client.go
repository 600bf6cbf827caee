// Package ai is the default AIClient adapter for the warehouse port: it
// wraps a single backend (the Anthropic Messages API) behind the
// structured-table / embedding / multimodal surface stages depend on,
// instead of a bespoke per-capability transport for each.
package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/RealAlexandreAI/json-repair"
	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/adintel/compintel/pkg/warehouse"
)

// Client wraps the Anthropic Messages API behind warehouse.AIClient.
type Client struct {
	client *anthropic.Client
	model  string
	logger *slog.Logger
}

// NewClient creates a Client configured with apiKey and model.
func NewClient(apiKey, model string, logger *slog.Logger) *Client {
	c := anthropic.NewClient(option.WithAPIKey(apiKey))
	return &Client{client: &c, model: model, logger: logger}
}

const defaultMaxRows = 50

// GenerateStructuredTable asks the model to emit a JSON array of rows
// conforming to req.Schema, repairs mildly malformed JSON before parsing,
// and reports how many returned rows failed to validate against Schema's
// required fields so callers can apply the 20% degraded threshold.
func (c *Client) GenerateStructuredTable(ctx context.Context, req warehouse.StructuredGenerationRequest) (warehouse.StructuredGenerationResult, error) {
	maxRows := req.MaxRows
	if maxRows == 0 {
		maxRows = defaultMaxRows
	}

	schemaJSON, err := json.Marshal(req.Schema)
	if err != nil {
		return warehouse.StructuredGenerationResult{}, fmt.Errorf("marshal schema: %w", err)
	}

	prompt := fmt.Sprintf(
		"%s\n\nRespond with ONLY a JSON array of up to %d objects, each matching this JSON Schema:\n%s",
		req.Prompt, maxRows, schemaJSON,
	)

	msg, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     c.model,
		MaxTokens: 4096,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return warehouse.StructuredGenerationResult{}, fmt.Errorf("warehouse AI call: %w", err)
	}

	raw := extractText(msg)
	repaired, err := jsonrepair.RepairJSON(raw)
	if err != nil {
		// json-repair could not make sense of it; treat the whole response
		// as malformed rather than failing the stage outright.
		c.logger.Warn("structured generation returned unrepairable output", "error", err)
		return warehouse.StructuredGenerationResult{DroppedCount: maxRows}, nil
	}

	var rawRows []map[string]any
	if err := json.Unmarshal([]byte(repaired), &rawRows); err != nil {
		return warehouse.StructuredGenerationResult{DroppedCount: maxRows}, nil
	}

	required := requiredFields(req.Schema)
	rows := make([]warehouse.Row, 0, len(rawRows))
	dropped := 0
	for _, r := range rawRows {
		if !hasRequiredFields(r, required) {
			dropped++
			continue
		}
		rows = append(rows, warehouse.Row(r))
	}

	return warehouse.StructuredGenerationResult{Rows: rows, DroppedCount: dropped}, nil
}

// GenerateEmbedding delegates to the package-level deterministic embedder
// in embed.go. The Messages API has no dedicated embedding endpoint, so
// the warehouse's embedding primitive is implemented locally rather than
// pulled from a second provider.
func (c *Client) GenerateEmbedding(_ context.Context, text string) ([]float64, error) {
	return Embed(text), nil
}

// GenerateMultimodal asks the model to reason over req.ImageURIs alongside
// req.Prompt, returning one structured row.
func (c *Client) GenerateMultimodal(ctx context.Context, req warehouse.MultimodalRequest) (warehouse.Row, error) {
	blocks := []anthropic.ContentBlockParamUnion{}
	for _, uri := range req.ImageURIs {
		blocks = append(blocks, anthropic.NewImageBlock(anthropic.Base64ImageSourceParam{
			MediaType: "image/jpeg",
			Data:      uri,
		}))
	}

	schemaJSON, err := json.Marshal(req.Schema)
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	blocks = append(blocks, anthropic.NewTextBlock(fmt.Sprintf(
		"%s\n\nRespond with ONLY a JSON object matching this JSON Schema:\n%s", req.Prompt, schemaJSON,
	)))

	msg, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     c.model,
		MaxTokens: 2048,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(blocks...),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("warehouse multimodal AI call: %w", err)
	}

	raw := extractText(msg)
	repaired, err := jsonrepair.RepairJSON(raw)
	if err != nil {
		return nil, fmt.Errorf("multimodal output unrepairable: %w", err)
	}
	var row map[string]any
	if err := json.Unmarshal([]byte(repaired), &row); err != nil {
		return nil, fmt.Errorf("decoding multimodal output: %w", err)
	}
	return warehouse.Row(row), nil
}

func extractText(msg *anthropic.Message) string {
	var out string
	for _, block := range msg.Content {
		if block.Type == "text" {
			out += block.Text
		}
	}
	return out
}

func requiredFields(schema map[string]any) []string {
	req, _ := schema["required"].([]any)
	out := make([]string, 0, len(req))
	for _, r := range req {
		if s, ok := r.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func hasRequiredFields(row map[string]any, required []string) bool {
	for _, f := range required {
		if _, ok := row[f]; !ok {
			return false
		}
	}
	return true
}
