package bedrock

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
	"github.com/modelcontextprotocol/go-sdk/jsonschema"

	"mealplanner"
)

const recordRecipeTool = "record_recipe"

// Extractor forces the model to call a record_recipe tool whose input schema is the recipe
// shape, which makes the tool input the structured result.
type Extractor struct {
	brc  bedrockRuntimeClient
	opts LLMOptions
}

// NewExtractor creates an extractor. A zero Temperature is kept low for deterministic parsing.
func NewExtractor(brc bedrockRuntimeClient, opts LLMOptions) *Extractor {
	if opts.Temperature == 0 {
		opts.Temperature = 0.1
	}
	return &Extractor{brc: brc, opts: opts.withDefaults()}
}

func (e *Extractor) Extract(ctx context.Context, req mealplanner.ExtractionRequest) (mealplanner.ParsedRecipe, error) {
	spec, err := buildToolSpec(recordRecipeTool, "Record the structured recipe.", RecipeSchema())
	if err != nil {
		return mealplanner.ParsedRecipe{}, err
	}

	prompt := req.Instructions + "\n\nRecipe text:\n" + req.RecipeText
	out, err := e.brc.Converse(ctx, &bedrockruntime.ConverseInput{
		ModelId: aws.String(e.opts.ModelID),
		Messages: []types.Message{{
			Role:    types.ConversationRoleUser,
			Content: []types.ContentBlock{&types.ContentBlockMemberText{Value: prompt}},
		}},
		InferenceConfig: e.opts.inferenceConfig(),
		ToolConfig: &types.ToolConfiguration{
			Tools: []types.Tool{&types.ToolMemberToolSpec{Value: spec}},
			ToolChoice: &types.ToolChoiceMemberTool{Value: types.SpecificToolChoice{
				Name: aws.String(recordRecipeTool),
			}},
		},
	})
	if err != nil {
		return mealplanner.ParsedRecipe{}, fmt.Errorf("converse: %w", err)
	}
	logUsage(out)

	msg, ok := out.Output.(*types.ConverseOutputMemberMessage)
	if !ok || msg == nil {
		return mealplanner.ParsedRecipe{}, errors.New("no message in extraction output")
	}
	for _, cb := range msg.Value.Content {
		tu, ok := cb.(*types.ContentBlockMemberToolUse)
		if !ok || aws.ToString(tu.Value.Name) != recordRecipeTool || tu.Value.Input == nil {
			continue
		}
		var recipe mealplanner.ParsedRecipe
		if err := decodeDocument(tu.Value.Input, &recipe); err != nil {
			return mealplanner.ParsedRecipe{}, err
		}
		slog.Info("LLM_CLIENT: Extracted recipe", "name", recipe.Name, "ingredients", len(recipe.Ingredients))
		return recipe, nil
	}

	return mealplanner.ParsedRecipe{}, fmt.Errorf("model did not call %s (stop reason %s)", recordRecipeTool, out.StopReason)
}

// RecipeSchema is the JSON schema of a structured recipe.
func RecipeSchema() *jsonschema.Schema {
	categories := make([]any, 0, len(mealplanner.Categories))
	for _, c := range mealplanner.Categories {
		categories = append(categories, string(c))
	}
	equipment := make([]any, 0, len(mealplanner.EquipmentKinds))
	for _, e := range mealplanner.EquipmentKinds {
		equipment = append(equipment, string(e))
	}

	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"name": {Type: "string", Description: "Recipe name"},
			"ingredients": {
				Type: "array",
				Items: &jsonschema.Schema{
					Type: "object",
					Properties: map[string]*jsonschema.Schema{
						"name":     {Type: "string", Description: "Lowercase with underscores, e.g. ground_beef"},
						"quantity": {Type: "number", Description: "Amount scaled to the requested servings"},
						"unit":     {Type: "string", Description: "Unit such as lb, oz, cup, tbsp, clove, medium"},
						"is_fresh": {Type: "boolean", Description: "True when it spoils within about a week"},
						"category": {Type: "string", Enum: categories},
					},
					Required: []string{"name", "quantity", "unit", "is_fresh", "category"},
				},
			},
			"instructions": {
				Type:  "array",
				Items: &jsonschema.Schema{Type: "string"},
			},
			"time_estimate": {Type: "integer", Description: "Total minutes, prep plus cooking"},
			"equipment": {
				Type:  "array",
				Items: &jsonschema.Schema{Type: "string", Enum: equipment},
			},
		},
		Required: []string{"name", "ingredients", "instructions", "time_estimate", "equipment"},
	}
}
