package search

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const tavilyEndpoint = "https://api.tavily.com/search"

// Tavily searches through the Tavily search API.
type Tavily struct {
	apiKey     string
	endpoint   string
	httpClient doer
}

// NewTavily creates a Tavily searcher. An empty endpoint uses the public API.
func NewTavily(apiKey, endpoint string, httpClient doer) (*Tavily, error) {
	if apiKey == "" {
		return nil, errors.New("tavily: missing API key")
	}
	if endpoint == "" {
		endpoint = tavilyEndpoint
	}
	return &Tavily{apiKey: apiKey, endpoint: endpoint, httpClient: httpClient}, nil
}

type tavilyRequest struct {
	Query         string `json:"query"`
	MaxResults    int    `json:"max_results"`
	SearchDepth   string `json:"search_depth"`
	IncludeAnswer bool   `json:"include_answer"`
}

type tavilyResponse struct {
	Results []struct {
		Title   string  `json:"title"`
		URL     string  `json:"url"`
		Content string  `json:"content"`
		Score   float64 `json:"score"`
	} `json:"results"`
}

func (t *Tavily) Search(ctx context.Context, query string, limit int) ([]Snippet, error) {
	payload, err := json.Marshal(tavilyRequest{
		Query:       query,
		MaxResults:  limit,
		SearchDepth: "basic",
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+t.apiKey)

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("tavily: request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("tavily: read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("tavily: %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}

	var tr tavilyResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		return nil, fmt.Errorf("tavily: decode response: %w", err)
	}

	out := make([]Snippet, 0, len(tr.Results))
	for _, r := range tr.Results {
		if limit > 0 && len(out) == limit {
			break
		}
		out = append(out, Snippet{Name: r.Title, URL: r.URL, Text: r.Content})
	}
	return out, nil
}
