// Package imagesearch finds a photo for a recipe on Unsplash.
package imagesearch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"

	"mealplanner"
)

const (
	defaultEndpoint = "https://api.unsplash.com/search/photos"
	candidates      = 3
)

type doer interface {
	Do(req *http.Request) (*http.Response, error)
}

type Unsplash struct {
	accessKey  string
	endpoint   string
	httpClient doer
	judge      mealplanner.RelevanceJudge
}

// NewUnsplash creates a finder. A nil judge accepts the first photo found.
func NewUnsplash(accessKey, endpoint string, httpClient doer, judge mealplanner.RelevanceJudge) *Unsplash {
	if endpoint == "" {
		endpoint = defaultEndpoint
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Unsplash{
		accessKey:  accessKey,
		endpoint:   endpoint,
		httpClient: httpClient,
		judge:      judge,
	}
}

type photo struct {
	Description    string `json:"description"`
	AltDescription string `json:"alt_description"`
	URLs           struct {
		Regular string `json:"regular"`
	} `json:"urls"`
}

func (p photo) describe() string {
	if p.AltDescription != "" {
		return p.AltDescription
	}
	return p.Description
}

// FindImage returns the first candidate photo the judge accepts. Without an access key, or when
// nothing matches, it returns an empty URL. A judge failure accepts the photo unvalidated.
func (u *Unsplash) FindImage(ctx context.Context, recipeName string) (string, error) {
	if u.accessKey == "" {
		return "", nil
	}

	photos, err := u.search(ctx, recipeName+" food")
	if err != nil {
		return "", err
	}

	for _, p := range photos {
		if p.URLs.Regular == "" {
			continue
		}
		if u.judge == nil {
			return p.URLs.Regular, nil
		}
		ok, err := u.judge.IsRelevant(ctx, p.describe(), recipeName)
		if err != nil {
			slog.Warn("IMAGES: Relevance check failed, using image unvalidated", "recipe", recipeName, "error", err)
			return p.URLs.Regular, nil
		}
		if ok {
			return p.URLs.Regular, nil
		}
	}

	slog.Info("IMAGES: No relevant image", "recipe", recipeName, "candidates", len(photos))
	return "", nil
}

func (u *Unsplash) search(ctx context.Context, query string) ([]photo, error) {
	q := url.Values{}
	q.Set("query", query)
	q.Set("per_page", fmt.Sprint(candidates))
	q.Set("orientation", "landscape")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Client-ID "+u.accessKey)
	req.Header.Set("Accept-Version", "v1")

	resp, err := u.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to search images: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("failed to search images: %s: %s", resp.Status, body)
	}

	var payload struct {
		Results []photo `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode image results: %w", err)
	}
	return payload.Results, nil
}
