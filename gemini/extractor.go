package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/generative-ai-go/genai"

	"mealplanner"
)

type Extractor struct {
	gen TextGenerator
}

func NewExtractor(gen TextGenerator) *Extractor {
	return &Extractor{gen: gen}
}

func (e *Extractor) Extract(ctx context.Context, req mealplanner.ExtractionRequest) (mealplanner.ParsedRecipe, error) {
	prompt := req.Instructions + "\n\nRespond with a single JSON object.\n\nRecipe text:\n" + req.RecipeText

	content, err := e.gen.GenerateContent(ctx, prompt)
	if err != nil {
		return mealplanner.ParsedRecipe{}, fmt.Errorf("failed to get LLM response: %w", err)
	}

	var recipe mealplanner.ParsedRecipe
	if err := json.Unmarshal([]byte(stripFence(content)), &recipe); err != nil {
		return mealplanner.ParsedRecipe{}, fmt.Errorf("failed to unmarshal LLM response: %w", err)
	}

	slog.Info("LLM_CLIENT: Extracted recipe", "provider", "gemini", "name", recipe.Name, "ingredients", len(recipe.Ingredients))
	return recipe, nil
}

// stripFence removes a markdown code fence some models wrap JSON in.
func stripFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// RecipeSchema is the response schema for structured recipe output.
func RecipeSchema() *genai.Schema {
	categories := make([]string, 0, len(mealplanner.Categories))
	for _, c := range mealplanner.Categories {
		categories = append(categories, string(c))
	}
	equipment := make([]string, 0, len(mealplanner.EquipmentKinds))
	for _, e := range mealplanner.EquipmentKinds {
		equipment = append(equipment, string(e))
	}

	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"name": {Type: genai.TypeString},
			"ingredients": {
				Type: genai.TypeArray,
				Items: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"name":     {Type: genai.TypeString, Description: "lowercase_with_underscores"},
						"quantity": {Type: genai.TypeNumber},
						"unit":     {Type: genai.TypeString},
						"is_fresh": {Type: genai.TypeBoolean},
						"category": {Type: genai.TypeString, Format: "enum", Enum: categories},
					},
					Required: []string{"name", "quantity", "unit", "is_fresh", "category"},
				},
			},
			"instructions":  {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}},
			"time_estimate": {Type: genai.TypeInteger, Description: "Total minutes"},
			"equipment": {
				Type:  genai.TypeArray,
				Items: &genai.Schema{Type: genai.TypeString, Format: "enum", Enum: equipment},
			},
		},
		Required: []string{"name", "ingredients", "instructions", "time_estimate", "equipment"},
	}
}
