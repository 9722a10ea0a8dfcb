package tools

import (
	"errors"
	"fmt"
	"sort"

	"mealplanner/tools/search"
)

// Registry maps tool names to implementations
type Registry map[string]Tool

// NewRegistry creates the tool registry offered to the assistant.
func NewRegistry(searcher search.Searcher, maxResults int) (*Registry, error) {
	if searcher == nil {
		return nil, errors.New("a recipe searcher is required")
	}

	tools := map[string]Tool{
		RecipeSearchToolName: NewRecipeSearch(searcher, maxResults),
	}

	registry := Registry(tools)
	return &registry, nil
}

// GetTools returns all tools sorted by name so prompts are stable between runs.
func (r *Registry) GetTools() []Tool {
	tools := make([]Tool, 0, len(*r))
	for _, tool := range *r {
		tools = append(tools, tool)
	}
	sort.Slice(tools, func(i, j int) bool { return tools[i].Name() < tools[j].Name() })
	return tools
}

// GetTool retrieves a tool by name from the registry
func (r Registry) GetTool(name string) (Tool, error) {
	tool, exists := r[name]
	if !exists {
		return nil, fmt.Errorf("tool %q not found in registry", name)
	}
	return tool, nil
}
