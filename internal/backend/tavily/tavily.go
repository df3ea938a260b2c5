package tavily

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/ekisa-team/toolguide/internal/backend"
	"github.com/ekisa-team/toolguide/internal/config"
	"github.com/ekisa-team/toolguide/internal/mapsafe"
)

const defaultBaseURL = "https://api.tavily.com"

// Backend implements backend.Searcher on the Tavily search API.
type Backend struct {
	apiKey      string
	baseURL     string
	searchDepth string
	client      *backend.HTTPClient
}

// NewBackend creates a new Tavily backend.
func NewBackend(cfg config.TavilyConfig) (*Backend, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: tavily api key is empty", backend.ErrNotConfigured)
	}

	b := &Backend{
		apiKey:      cfg.APIKey,
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		searchDepth: cfg.SearchDepth,
		client:      backend.NewHTTPClient(backend.ProviderTavily, cfg.Timeout),
	}
	if b.baseURL == "" {
		b.baseURL = defaultBaseURL
	}
	if b.searchDepth == "" {
		b.searchDepth = "basic"
	}

	return b, nil
}

// Provider returns the backend provider.
func (b *Backend) Provider() backend.Provider {
	return backend.ProviderTavily
}

type searchRequest struct {
	Query          string   `json:"query"`
	SearchDepth    string   `json:"search_depth,omitempty"`
	MaxResults     int      `json:"max_results,omitempty"`
	IncludeAnswer  bool     `json:"include_answer"`
	IncludeDomains []string `json:"include_domains,omitempty"`
}

// Search runs a web search. Results missing a URL are dropped.
func (b *Backend) Search(ctx context.Context, req *backend.SearchRequest) (*backend.SearchResponse, error) {
	if strings.TrimSpace(req.Query) == "" {
		return nil, errors.New("tavily: query is empty")
	}

	depth := req.SearchDepth
	if depth == "" {
		depth = b.searchDepth
	}

	payload := searchRequest{
		Query:          req.Query,
		SearchDepth:    depth,
		MaxResults:     req.MaxResults,
		IncludeAnswer:  req.IncludeAnswer,
		IncludeDomains: req.IncludeDomains,
	}

	headers := map[string]string{"Authorization": "Bearer " + b.apiKey}

	var raw map[string]any
	if err := b.client.DoJSON(ctx, http.MethodPost, b.baseURL+"/search", headers, payload, &raw, "tavily.search"); err != nil {
		return nil, err
	}

	out := &backend.SearchResponse{
		Query:  mapsafe.Get(raw, "query", req.Query),
		Answer: mapsafe.Get(raw, "answer", ""),
	}

	for _, r := range mapsafe.Maps(raw, "results") {
		url := mapsafe.Get(r, "url", "")
		if url == "" {
			continue
		}

		out.Results = append(out.Results, backend.SearchResult{
			Title:   mapsafe.Get(r, "title", ""),
			URL:     url,
			Content: mapsafe.Get(r, "content", ""),
			Score:   mapsafe.Get(r, "score", 0.0),
		})
	}

	return out, nil
}

// Close cleans up resources. Tavily does not hold any.
func (b *Backend) Close() error {
	return nil
}
