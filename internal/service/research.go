package service

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/sync/errgroup"

	"github.com/ekisa-team/toolguide/internal/backend"
	"github.com/ekisa-team/toolguide/internal/config"
)

const (
	DefaultMaxResults = 5
	MaxMaxResults     = 20
)

var youtubeDomains = []string{"youtube.com", "youtu.be"}

// ResearchResult is one cleaned-up search hit.
type ResearchResult struct {
	Title   string  `json:"title"`
	URL     string  `json:"url"`
	Content string  `json:"content"`
	Score   float64 `json:"score"`
}

// YouTubeLink is a tutorial video found for a tool.
type YouTubeLink struct {
	Title   string  `json:"title"`
	URL     string  `json:"url"`
	Content string  `json:"content"`
	Score   float64 `json:"score"`
}

// ToolResearchRequest asks for usage material about a tool.
type ToolResearchRequest struct {
	ToolName        string `json:"tool_name"`
	ToolDescription string `json:"tool_description,omitempty"`
	Language        string `json:"language,omitempty"`
	MaxResults      int    `json:"max_results,omitempty"`
}

// ToolResearchResponse gathers guides and videos about a tool.
type ToolResearchResponse struct {
	ToolName        string           `json:"tool_name"`
	Query           string           `json:"query"`
	Results         []ResearchResult `json:"results"`
	YouTubeLinks    []YouTubeLink    `json:"youtube_links"`
	ResearchContext string           `json:"research_context"`
	Timestamp       time.Time        `json:"timestamp"`
}

// ResearchRequest is a free-form web research question.
type ResearchRequest struct {
	Query      string `json:"query"`
	Language   string `json:"language,omitempty"`
	MaxResults int    `json:"max_results,omitempty"`
}

// ResearchResponse answers a free-form question.
type ResearchResponse struct {
	Query     string           `json:"query"`
	Summary   string           `json:"summary"`
	Results   []ResearchResult `json:"results"`
	Timestamp time.Time        `json:"timestamp"`
}

// Research is a service abstraction for web research.
type Research struct {
	backends   *backend.Registry
	router     Router
	maxResults int
	now        func() time.Time
}

// NewResearch creates a new Research service. maxResults is the default
// when a request does not set one.
func NewResearch(backends *backend.Registry, router Router, maxResults int) *Research {
	return &Research{
		backends:   backends,
		router:     router,
		maxResults: clampResults(maxResults, DefaultMaxResults),
		now:        time.Now,
	}
}

func clampResults(n, fallback int) int {
	if n <= 0 {
		return fallback
	}
	if n > MaxMaxResults {
		return MaxMaxResults
	}
	return n
}

func (s *Research) searcher() (backend.Searcher, error) {
	m, err := s.router.Resolve(config.ServiceResearch)
	if err != nil {
		return nil, err
	}

	searcher, err := s.backends.Searcher(m.Provider)
	if err != nil {
		return nil, fmt.Errorf("model %s: %w", m.ID, err)
	}

	return searcher, nil
}

// ToolResearch runs a general and a YouTube search for a tool in parallel.
func (s *Research) ToolResearch(ctx context.Context, req ToolResearchRequest) (*ToolResearchResponse, error) {
	toolName := strings.TrimSpace(req.ToolName)
	if toolName == "" {
		return nil, fmt.Errorf("%w: tool name", ErrEmptyInput)
	}

	searcher, err := s.searcher()
	if err != nil {
		return nil, err
	}

	maxResults := clampResults(req.MaxResults, s.maxResults)
	generalQuery := toolName + " tool usage guide tutorial"
	youtubeQuery := toolName + " how to use tutorial"

	var general, videos *backend.SearchResponse

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		resp, err := searcher.Search(gctx, &backend.SearchRequest{Query: generalQuery, MaxResults: maxResults})
		if err != nil {
			return fmt.Errorf("general search: %w", err)
		}
		general = resp
		return nil
	})
	g.Go(func() error {
		resp, err := searcher.Search(gctx, &backend.SearchRequest{
			Query:          youtubeQuery,
			MaxResults:     maxResults,
			IncludeDomains: youtubeDomains,
		})
		if err != nil {
			return fmt.Errorf("youtube search: %w", err)
		}
		videos = resp
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	results := formatResults(general.Results)

	links := make([]YouTubeLink, 0)
	for _, r := range formatResults(videos.Results) {
		if !isYouTubeURL(r.URL) {
			continue
		}
		links = append(links, YouTubeLink(r))
	}

	slog.Info("Tool research completed",
		"tool_name", toolName,
		"results", len(results),
		"videos", len(links),
	)

	return &ToolResearchResponse{
		ToolName:        toolName,
		Query:           generalQuery,
		Results:         results,
		YouTubeLinks:    links,
		ResearchContext: buildContext(toolName, req.ToolDescription, results),
		Timestamp:       s.now(),
	}, nil
}

// Research runs one search and returns the vendor answer as summary, or a
// chat-model digest of the results when the vendor gives none.
func (s *Research) Research(ctx context.Context, req ResearchRequest) (*ResearchResponse, error) {
	query := strings.TrimSpace(req.Query)
	if query == "" {
		return nil, fmt.Errorf("%w: query", ErrEmptyInput)
	}

	searcher, err := s.searcher()
	if err != nil {
		return nil, err
	}

	resp, err := searcher.Search(ctx, &backend.SearchRequest{
		Query:         query,
		MaxResults:    clampResults(req.MaxResults, s.maxResults),
		IncludeAnswer: true,
	})
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	results := formatResults(resp.Results)

	summary := strings.TrimSpace(resp.Answer)
	if summary == "" && len(results) > 0 {
		summary, err = s.summarize(ctx, query, NormalizeLanguage(req.Language), results)
		if err != nil {
			slog.Warn("Failed to summarize research results", "query", query, "error", err)
			summary = ""
		}
	}

	return &ResearchResponse{
		Query:     query,
		Summary:   summary,
		Results:   results,
		Timestamp: s.now(),
	}, nil
}

func (s *Research) summarize(ctx context.Context, query, language string, results []ResearchResult) (string, error) {
	g, m, err := resolveGenerator(s.backends, s.router, config.ServiceChat)
	if err != nil {
		return "", err
	}

	prompt := fmt.Sprintf("Answer the question %q in %s, in one short paragraph, using only these sources:\n\n%s",
		query, languageNames[language], buildContext("", "", results))

	resp, err := g.Generate(ctx, &backend.GenerateRequest{
		Model: m.Name(),
		Parts: []backend.Part{backend.TextPart(prompt)},
	})
	if err != nil {
		return "", err
	}

	return strings.TrimSpace(resp.Text), nil
}

func formatResults(in []backend.SearchResult) []ResearchResult {
	out := make([]ResearchResult, 0, len(in))
	for _, r := range in {
		title := cleanSnippet(r.Title)
		if title == "" {
			title = r.URL
		}

		out = append(out, ResearchResult{
			Title:   title,
			URL:     r.URL,
			Content: cleanSnippet(r.Content),
			Score:   r.Score,
		})
	}
	return out
}

// cleanSnippet strips HTML markup and collapses whitespace.
func cleanSnippet(s string) string {
	if strings.ContainsAny(s, "<&") {
		if doc, err := goquery.NewDocumentFromReader(strings.NewReader(s)); err == nil {
			s = doc.Text()
		}
	}
	return strings.Join(strings.Fields(s), " ")
}

func isYouTubeURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}

	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	host = strings.TrimPrefix(host, "m.")
	for _, d := range youtubeDomains {
		if host == d || strings.HasSuffix(host, "."+d) {
			return true
		}
	}
	return false
}

func buildContext(toolName, description string, results []ResearchResult) string {
	var sb strings.Builder

	if toolName != "" {
		fmt.Fprintf(&sb, "Tool: %s\n", toolName)
		if description = strings.TrimSpace(description); description != "" {
			fmt.Fprintf(&sb, "Description: %s\n", description)
		}
		sb.WriteString("\n")
	}

	for i, r := range results {
		fmt.Fprintf(&sb, "%d. %s (%s)\n%s\n\n", i+1, r.Title, r.URL, r.Content)
	}

	return strings.TrimSpace(sb.String())
}
