package recommend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"google.golang.org/api/option"
)

var geminiTracer = otel.Tracer("physiohome.internal.recommend.gemini")

// GeminiClient implements the recommendation backend using Google's Gemini
// API, constrained to the two-field JSON schema.
type GeminiClient struct {
	client  *genai.Client
	modelID string
}

// NewGeminiClient creates a new Gemini recommendation client.
func NewGeminiClient(ctx context.Context, apiKey, modelID string) (*GeminiClient, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("recommend: gemini api key is required")
	}
	if strings.TrimSpace(modelID) == "" {
		modelID = "gemini-2.5-flash"
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("recommend: failed to create gemini client: %w", err)
	}

	return &GeminiClient{client: client, modelID: modelID}, nil
}

// Provider identifies the backend in logs and metrics.
func (c *GeminiClient) Provider() string { return "gemini" }

// Recommend sends one structured-output generation request to Gemini.
func (c *GeminiClient) Recommend(ctx context.Context, req Request) (*Recommendation, error) {
	ctx, span := geminiTracer.Start(ctx, "gemini.recommend")
	defer span.End()
	span.SetAttributes(attribute.Int("physiohome.pain_level", req.PainLevel))

	model := c.client.GenerativeModel(c.modelID)
	model.SystemInstruction = genai.NewUserContent(genai.Text(systemInstruction))
	model.GenerationConfig = genai.GenerationConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"type": {
					Type:        genai.TypeString,
					Description: "The recommended physiotherapist specialty.",
				},
				"rationale": {
					Type:        genai.TypeString,
					Description: "A concise explanation (2-3 sentences) for the recommendation.",
				},
			},
			Required: []string{"type", "rationale"},
		},
	}

	resp, err := model.GenerateContent(ctx, genai.Text(userPrompt(req)))
	if err != nil {
		return nil, fmt.Errorf("recommend: gemini generation failed: %w", err)
	}
	if len(resp.Candidates) == 0 {
		return nil, errors.New("recommend: gemini returned no candidates")
	}

	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return nil, errors.New("recommend: gemini returned empty content")
	}

	var raw strings.Builder
	for _, part := range candidate.Content.Parts {
		if text, ok := part.(genai.Text); ok {
			raw.WriteString(string(text))
		}
	}

	var rec Recommendation
	if err := json.Unmarshal([]byte(raw.String()), &rec); err != nil {
		return nil, fmt.Errorf("recommend: decode gemini response: %w", err)
	}
	return &rec, nil
}

// Close releases resources held by the Gemini client.
func (c *GeminiClient) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}
