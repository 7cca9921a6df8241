package verifier

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// SearchResult is one hit from the web-search provider contract.
type SearchResult struct {
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
	URL     string `json:"url"`
}

// WebSearcher is the web-search provider contract: search(query, k) ->
// [{title, snippet, url}].
type WebSearcher interface {
	Search(ctx context.Context, query string, k int) ([]SearchResult, error)
}

// serpAPISearcher calls the SerpAPI JSON endpoint directly over net/http;
// no SerpAPI Go SDK appears anywhere in the example pack, so this is the
// one external call in the repo built on the standard library rather than
// a vendored client (see DESIGN.md).
type serpAPISearcher struct {
	apiKey string
	client *http.Client
}

func NewSerpAPISearcher(apiKey string) WebSearcher {
	return &serpAPISearcher{apiKey: apiKey, client: &http.Client{Timeout: 60 * time.Second}}
}

func (s *serpAPISearcher) Search(ctx context.Context, query string, k int) ([]SearchResult, error) {
	endpoint := "https://serpapi.com/search.json?" + url.Values{
		"q":      {query},
		"engine": {"google"},
		"num":    {fmt.Sprintf("%d", k)},
		"api_key": {s.apiKey},
	}.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("verifier: serpapi status %d", resp.StatusCode)
	}

	var body struct {
		OrganicResults []struct {
			Title   string `json:"title"`
			Snippet string `json:"snippet"`
			Link    string `json:"link"`
		} `json:"organic_results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, err
	}

	out := make([]SearchResult, 0, len(body.OrganicResults))
	for _, r := range body.OrganicResults {
		if len(out) == k {
			break
		}
		out = append(out, SearchResult{Title: r.Title, Snippet: r.Snippet, URL: r.Link})
	}
	return out, nil
}
