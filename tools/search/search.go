// Package search holds the web search providers behind the recipe_search tool.
package search

import (
	"context"
	"net/http"
)

// Snippet is one search hit.
type Snippet struct {
	Name string `json:"name"`
	URL  string `json:"url"`
	Text string `json:"text"`
}

// Searcher runs a free-text query and returns at most limit snippets, best first.
type Searcher interface {
	Search(ctx context.Context, query string, limit int) ([]Snippet, error)
}

type doer interface {
	Do(req *http.Request) (*http.Response, error)
}
