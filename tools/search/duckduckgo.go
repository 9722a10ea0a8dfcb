package search

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const duckDuckGoEndpoint = "https://html.duckduckgo.com/html/"

// DuckDuckGo scrapes the DuckDuckGo HTML results page. It needs no credentials.
type DuckDuckGo struct {
	endpoint   string
	httpClient doer
}

// NewDuckDuckGo creates a DuckDuckGo searcher. An empty endpoint uses the public HTML endpoint.
func NewDuckDuckGo(endpoint string, httpClient doer) *DuckDuckGo {
	if endpoint == "" {
		endpoint = duckDuckGoEndpoint
	}
	return &DuckDuckGo{endpoint: endpoint, httpClient: httpClient}
}

func (d *DuckDuckGo) Search(ctx context.Context, query string, limit int) ([]Snippet, error) {
	u := d.endpoint + "?" + url.Values{"q": {query}}.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; meal-planner/0.1)")

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("duckduckgo: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("duckduckgo: unexpected status %s", resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("duckduckgo: parse results: %w", err)
	}

	// Sponsored results carry the result--ad class
	var out []Snippet
	doc.Find(".result").Not(".result--ad").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		link := s.Find("a.result__a").First()
		name := collapseSpace(link.Text())
		href, _ := link.Attr("href")
		if name == "" || href == "" {
			return true
		}
		out = append(out, Snippet{
			Name: name,
			URL:  resolveLink(href),
			Text: collapseSpace(s.Find(".result__snippet").First().Text()),
		})
		return limit <= 0 || len(out) < limit
	})

	return out, nil
}

// resolveLink unwraps DuckDuckGo redirect links (//duckduckgo.com/l/?uddg=<target>).
func resolveLink(href string) string {
	if strings.HasPrefix(href, "//") {
		href = "https:" + href
	}
	u, err := url.Parse(href)
	if err != nil {
		return href
	}
	if target := u.Query().Get("uddg"); target != "" {
		return target
	}
	return href
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
