package tools

import (
	"context"
	"errors"
	"testing"

	"mealplanner/tools/search"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockSearcher struct {
	snippets []search.Snippet
	err      error

	gotQuery string
	gotLimit int
}

func (m *mockSearcher) Search(ctx context.Context, query string, limit int) ([]search.Snippet, error) {
	m.gotQuery = query
	m.gotLimit = limit
	return m.snippets, m.err
}

func TestRecipeSearch_Run(t *testing.T) {
	tests := []struct {
		name          string
		input         map[string]any
		searcher      *mockSearcher
		expected      map[string]any
		expectedQuery string
		expectErr     string
	}{
		{
			name:  "returns results as plain maps",
			input: map[string]any{"query": "  quick chicken stir fry "},
			searcher: &mockSearcher{snippets: []search.Snippet{
				{Name: "Chicken Stir Fry", URL: "https://example.com/stir-fry", Text: "Ready in 25 minutes"},
				{Name: "Garlic Chicken", URL: "https://example.com/garlic", Text: "Weeknight classic"},
			}},
			expected: map[string]any{
				"results": []any{
					map[string]any{"name": "Chicken Stir Fry", "url": "https://example.com/stir-fry", "text": "Ready in 25 minutes"},
					map[string]any{"name": "Garlic Chicken", "url": "https://example.com/garlic", "text": "Weeknight classic"},
				},
			},
			expectedQuery: "quick chicken stir fry",
		},
		{
			name:          "no results yields an empty list",
			input:         map[string]any{"query": "unobtainium casserole"},
			searcher:      &mockSearcher{},
			expected:      map[string]any{"results": []any{}},
			expectedQuery: "unobtainium casserole",
		},
		{
			name:      "missing query",
			input:     map[string]any{},
			searcher:  &mockSearcher{},
			expectErr: "query is required",
		},
		{
			name:      "non-string query",
			input:     map[string]any{"query": 42},
			searcher:  &mockSearcher{},
			expectErr: "query is required",
		},
		{
			name:      "searcher failure is wrapped",
			input:     map[string]any{"query": "pasta"},
			searcher:  &mockSearcher{err: errors.New("rate limited")},
			expectErr: "search recipes: rate limited",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tool := NewRecipeSearch(tt.searcher, 3)

			out, err := tool.Run(context.Background(), tt.input)
			if tt.expectErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.expectErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, out)
			assert.Equal(t, tt.expectedQuery, tt.searcher.gotQuery)
			assert.Equal(t, 3, tt.searcher.gotLimit)
		})
	}
}

func TestRecipeSearch_DefaultMaxResults(t *testing.T) {
	s := &mockSearcher{}
	tool := NewRecipeSearch(s, 0)

	_, err := tool.Run(context.Background(), map[string]any{"query": "soup"})
	require.NoError(t, err)
	assert.Equal(t, 5, s.gotLimit)
}

func TestRecipeSearch_Schemas(t *testing.T) {
	tool := NewRecipeSearch(&mockSearcher{}, 5)

	assert.Equal(t, "recipe_search", tool.Name())
	assert.NotEmpty(t, tool.Description())

	in := tool.InputSchema()
	require.NotNil(t, in)
	assert.Equal(t, "object", in.Type)
	assert.Equal(t, []string{"query"}, in.Required)
	assert.Contains(t, in.Properties, "query")

	out := tool.OutputSchema()
	require.NotNil(t, out)
	assert.Contains(t, out.Properties, "results")
	assert.Equal(t, "array", out.Properties["results"].Type)
}

func TestRegistry(t *testing.T) {
	_, err := NewRegistry(nil, 5)
	require.Error(t, err)

	registry, err := NewRegistry(&mockSearcher{}, 5)
	require.NoError(t, err)

	all := registry.GetTools()
	require.Len(t, all, 1)
	assert.Equal(t, RecipeSearchToolName, all[0].Name())

	tool, err := registry.GetTool(RecipeSearchToolName)
	require.NoError(t, err)
	assert.Equal(t, RecipeSearchToolName, tool.Name())

	_, err = registry.GetTool("pantry_get")
	assert.EqualError(t, err, `tool "pantry_get" not found in registry`)
}
