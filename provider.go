package aroihub

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// providerPageSize is the page size used when walking the server's listing
// endpoint. The server clamps larger values.
const providerPageSize = 100

// apiProvider answers catalog queries from an aroihub API server.
type apiProvider struct {
	baseURL string
	apiKey  string
	hc      *http.Client
}

func newAPIProvider(baseURL, apiKey string, hc *http.Client) *apiProvider {
	if hc == nil {
		hc = &http.Client{Timeout: 30 * time.Second}
	}
	return &apiProvider{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		hc:      hc,
	}
}

type listingPage struct {
	Items      []Restaurant `json:"items"`
	Page       int          `json:"page"`
	TotalPages int          `json:"total_pages"`
}

// Query walks every page of the filtered listing and returns the full
// canonical answer.
func (p *apiProvider) Query(ctx context.Context, query url.Values) ([]Restaurant, error) {
	var out []Restaurant
	for page := 1; ; {
		body, err := p.fetchPage(ctx, query, page)
		if err != nil {
			return nil, err
		}
		out = append(out, body.Items...)

		if body.TotalPages == 0 || body.Page >= body.TotalPages {
			return out, nil
		}
		page = body.Page + 1
	}
}

func (p *apiProvider) fetchPage(ctx context.Context, query url.Values, page int) (listingPage, error) {
	q := url.Values{}
	for k, vs := range query {
		q[k] = vs
	}
	q.Set("page", strconv.Itoa(page))
	q.Set("page_size", strconv.Itoa(providerPageSize))

	u := p.baseURL + "/api/v1/restaurants?" + q.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, http.NoBody)
	if err != nil {
		return listingPage{}, fmt.Errorf("build request: %w", err)
	}
	if p.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+p.apiKey)
	}

	resp, err := p.hc.Do(req)
	if err != nil {
		return listingPage{}, fmt.Errorf("query listings: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return listingPage{}, fmt.Errorf("query listings: unexpected status %d", resp.StatusCode)
	}

	var body listingPage
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return listingPage{}, fmt.Errorf("decode listings: %w", err)
	}
	return body, nil
}
