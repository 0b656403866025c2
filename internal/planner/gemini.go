// Package planner implements the language-model collaborator: goal planning,
// next-command decisions for the adaptive loop, and multimodal grid-cell
// selection for vision targeting.
package planner

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/pilot-dev/pilot/internal/domain"
	"github.com/pilot-dev/pilot/internal/ports"
)

const DefaultModel = "gemini-2.5-flash"

// GeminiClient is the API-backed planner. All three decision kinds request a
// JSON response and go through the same fence-tolerant decoder.
type GeminiClient struct {
	client *genai.Client
	model  string
	log    *zap.Logger
}

func NewGeminiClient(ctx context.Context, apiKey, model string, log *zap.Logger) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("planner API key is required")
	}
	if model == "" {
		model = DefaultModel
	}
	if log == nil {
		log = zap.NewNop()
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("creating genai client: %w", err)
	}
	return &GeminiClient{client: client, model: model, log: log}, nil
}

func (c *GeminiClient) Plan(ctx context.Context, goal string, screenshot []byte) ([]*domain.Step, error) {
	parts := []*genai.Part{genai.NewPartFromText(planPrompt(goal))}
	if len(screenshot) > 0 {
		parts = append(parts, genai.NewPartFromBytes(screenshot, "image/png"))
	}

	raw, err := c.generate(ctx, parts)
	if err != nil {
		return nil, err
	}
	steps, err := decodePlan(raw)
	if err != nil {
		return nil, err
	}
	c.log.Debug("plan created", zap.Int("steps", len(steps)))
	return steps, nil
}

func (c *GeminiClient) NextAction(ctx context.Context, goal, cwd string, history []domain.CommandRecord) (ports.Action, error) {
	raw, err := c.generate(ctx, []*genai.Part{
		genai.NewPartFromText(nextActionPrompt(goal, cwd, history)),
	})
	if err != nil {
		return ports.Action{}, err
	}
	return decodeAction(raw)
}

func (c *GeminiClient) SelectCell(ctx context.Context, image []byte, description string) (ports.Selection, error) {
	raw, err := c.generate(ctx, []*genai.Part{
		genai.NewPartFromText(selectCellPrompt(description)),
		genai.NewPartFromBytes(image, "image/png"),
	})
	if err != nil {
		return ports.Selection{}, err
	}
	return decodeSelection(raw)
}

func (c *GeminiClient) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := c.client.Models.GenerateContent(ctx, c.model,
		[]*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)}, nil)
	if err != nil {
		return "", fmt.Errorf("genai request: %w", err)
	}
	return resp.Text(), nil
}

func (c *GeminiClient) generate(ctx context.Context, parts []*genai.Part) (string, error) {
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}
	resp, err := c.client.Models.GenerateContent(ctx, c.model, contents, &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		Temperature:      genai.Ptr[float32](0.2),
	})
	if err != nil {
		return "", fmt.Errorf("genai request: %w", err)
	}
	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("empty response from model")
	}
	return text, nil
}
