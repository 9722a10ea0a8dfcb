// Package gemini provides a structured recipe extractor and an image relevance judge on Google Gemini.
package gemini

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"mealplanner"
)

const defaultModel = "gemini-1.5-flash"

// TextGenerator sends a single prompt and returns the generated text.
type TextGenerator interface {
	GenerateContent(ctx context.Context, prompt string) (string, error)
}

// Client owns the Gemini connection shared by the extractor and the judge.
type Client struct {
	client *genai.Client
	model  string
}

func NewClient(ctx context.Context, cfg mealplanner.GeminiConfig) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("gemini api key is required")
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	model := cfg.Model
	if model == "" {
		model = defaultModel
	}
	return &Client{client: client, model: model}, nil
}

// Extractor returns an extractor whose model answers in JSON constrained to the recipe schema.
func (c *Client) Extractor() *Extractor {
	m := c.client.GenerativeModel(c.model)
	m.SetTemperature(0.1)
	m.ResponseMIMEType = "application/json"
	m.ResponseSchema = RecipeSchema()
	return NewExtractor(&modelGenerator{model: m})
}

// Judge returns a relevance judge on a plain text model.
func (c *Client) Judge() *Judge {
	m := c.client.GenerativeModel(c.model)
	m.SetTemperature(0)
	return NewJudge(&modelGenerator{model: m})
}

func (c *Client) Close() error {
	return c.client.Close()
}

type modelGenerator struct {
	model *genai.GenerativeModel
}

func (g *modelGenerator) GenerateContent(ctx context.Context, prompt string) (string, error) {
	resp, err := g.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", errors.New("no content generated")
	}

	var out string
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			out += string(text)
		}
	}
	if out == "" {
		return "", errors.New("generated content is not text")
	}
	return out, nil
}
