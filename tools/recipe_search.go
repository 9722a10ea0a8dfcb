package tools

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/jsonschema"

	"mealplanner/tools/search"
)

const (
	RecipeSearchToolName = "recipe_search"

	defaultMaxResults = 5
)

type RecipeSearch struct {
	searcher   search.Searcher
	maxResults int
}

func NewRecipeSearch(searcher search.Searcher, maxResults int) *RecipeSearch {
	if maxResults <= 0 {
		maxResults = defaultMaxResults
	}
	return &RecipeSearch{searcher: searcher, maxResults: maxResults}
}

func (t *RecipeSearch) Name() string  { return RecipeSearchToolName }
func (t *RecipeSearch) Title() string { return "Search Recipes" }
func (t *RecipeSearch) Description() string {
	return "Search for recipes online. Use this to find dinner recipes based on time constraints, " +
		"ingredients to use up, or cuisine preferences. Returns recipe names, URLs, and snippets."
}

func (t *RecipeSearch) InputSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"query": {
				Type:        "string",
				Description: "Free-text recipe search query, e.g. \"30 minute chicken stir fry\".",
			},
		},
		Required: []string{"query"},
	}
}

func (t *RecipeSearch) OutputSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"results": {
				Type: "array",
				Items: &jsonschema.Schema{
					Type: "object",
					Properties: map[string]*jsonschema.Schema{
						"name": {Type: "string"},
						"url":  {Type: "string"},
						"text": {Type: "string"},
					},
					Required: []string{"name", "url", "text"},
				},
			},
		},
		Required: []string{"results"},
	}
}

func (t *RecipeSearch) Run(ctx context.Context, input map[string]any) (map[string]any, error) {
	query, _ := input["query"].(string)
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, errors.New("query is required")
	}

	snippets, err := t.searcher.Search(ctx, query, t.maxResults)
	if err != nil {
		return nil, fmt.Errorf("search recipes: %w", err)
	}

	// Keep outputs uniform with other tools: plain maps and slices only
	results := make([]any, 0, len(snippets))
	for _, s := range snippets {
		results = append(results, map[string]any{
			"name": s.Name,
			"url":  s.URL,
			"text": s.Text,
		})
	}
	return map[string]any{"results": results}, nil
}
