package recommend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"go.opentelemetry.io/otel"
)

var openaiTracer = otel.Tracer("physiohome.internal.recommend.openai")

// OpenAIClient implements the recommendation backend against an
// OpenAI-compatible chat completion API.
type OpenAIClient struct {
	client  *openai.Client
	modelID string
}

// NewOpenAIClient creates a new OpenAI recommendation client.
func NewOpenAIClient(apiKey, modelID string) (*OpenAIClient, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("recommend: openai api key is required")
	}
	if strings.TrimSpace(modelID) == "" {
		modelID = openai.GPT4oMini
	}
	return &OpenAIClient{client: openai.NewClient(apiKey), modelID: modelID}, nil
}

// Provider identifies the backend in logs and metrics.
func (c *OpenAIClient) Provider() string { return "openai" }

// Recommend sends one JSON-mode chat completion request.
func (c *OpenAIClient) Recommend(ctx context.Context, req Request) (*Recommendation, error) {
	ctx, span := openaiTracer.Start(ctx, "openai.recommend")
	defer span.End()

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.modelID,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleSystem,
				Content: systemInstruction +
					` Respond as a JSON object with exactly two string fields: "type" and "rationale".`,
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: userPrompt(req),
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("recommend: openai completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("recommend: openai returned no choices")
	}

	var rec Recommendation
	if err := json.Unmarshal([]byte(resp.Choices[0].Message.Content), &rec); err != nil {
		return nil, fmt.Errorf("recommend: decode openai response: %w", err)
	}
	return &rec, nil
}
