package insight

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// DefaultLiteratureURL is the Semantic Scholar paper search endpoint.
const DefaultLiteratureURL = "https://api.semanticscholar.org/graph/v1/paper/search"

// Literature finds references for a free-text query.
type Literature interface {
	Search(ctx context.Context, query string, n int) ([]Reference, error)
}

// ScholarClient queries a Semantic Scholar compatible search API.
type ScholarClient struct {
	baseURL string
	http    *http.Client
}

func NewScholarClient(baseURL string, timeout time.Duration) *ScholarClient {
	if baseURL == "" {
		baseURL = DefaultLiteratureURL
	}
	return &ScholarClient{baseURL: baseURL, http: &http.Client{Timeout: timeout}}
}

type scholarResponse struct {
	Data []struct {
		Title string `json:"title"`
		Year  *int   `json:"year"`
		URL   string `json:"url"`
	} `json:"data"`
}

func (c *ScholarClient) Search(ctx context.Context, query string, n int) ([]Reference, error) {
	q := url.Values{}
	q.Set("query", query)
	q.Set("limit", strconv.Itoa(n))
	q.Set("fields", "title,year,url")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build literature request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("literature search: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("literature search: unexpected status %d", resp.StatusCode)
	}

	var body scholarResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode literature response: %w", err)
	}
	refs := make([]Reference, 0, len(body.Data))
	for _, p := range body.Data {
		ref := Reference{Title: p.Title, Year: "N/A", URL: p.URL}
		if p.Year != nil {
			ref.Year = *p.Year
		}
		refs = append(refs, ref)
	}
	return refs, nil
}
