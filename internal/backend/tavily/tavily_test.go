package tavily

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ekisa-team/toolguide/internal/backend"
	"github.com/ekisa-team/toolguide/internal/config"
)

func TestSearch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "Bearer tvly-key", r.Header.Get("Authorization"))

		var req searchRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "angle grinder how to use tutorial", req.Query)
		assert.Equal(t, []string{"youtube.com"}, req.IncludeDomains)
		assert.Equal(t, 3, req.MaxResults)
		assert.Equal(t, "advanced", req.SearchDepth)
		assert.True(t, req.IncludeAnswer)

		_, _ = io.WriteString(w, `{
			"query":"angle grinder how to use tutorial",
			"answer":"Wear eye protection.",
			"results":[
				{"title":"Grinder basics","url":"https://youtube.com/watch?v=1","content":"Intro","score":0.91},
				{"title":"No url","content":"dropped"},
				{"title":"Safety","url":"https://youtu.be/2","content":"Guards","score":0.5}
			]
		}`)
	}))
	defer srv.Close()

	b, err := NewBackend(config.TavilyConfig{BaseURL: srv.URL, APIKey: "tvly-key", SearchDepth: "advanced"})
	require.NoError(t, err)

	resp, err := b.Search(context.Background(), &backend.SearchRequest{
		Query:          "angle grinder how to use tutorial",
		MaxResults:     3,
		IncludeDomains: []string{"youtube.com"},
		IncludeAnswer:  true,
	})
	require.NoError(t, err)

	assert.Equal(t, "Wear eye protection.", resp.Answer)
	require.Len(t, resp.Results, 2)
	assert.Equal(t, "Grinder basics", resp.Results[0].Title)
	assert.Equal(t, 0.91, resp.Results[0].Score)
	assert.Equal(t, "https://youtu.be/2", resp.Results[1].URL)
}

func TestSearch_EmptyQuery(t *testing.T) {
	b, err := NewBackend(config.TavilyConfig{APIKey: "k"})
	require.NoError(t, err)

	_, err = b.Search(context.Background(), &backend.SearchRequest{Query: ""})
	assert.Error(t, err)
}

func TestSearch_VendorError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"detail":"invalid api key"}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	b, err := NewBackend(config.TavilyConfig{BaseURL: srv.URL, APIKey: "bad"})
	require.NoError(t, err)

	_, err = b.Search(context.Background(), &backend.SearchRequest{Query: "hammer"})

	var apiErr *backend.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.False(t, backend.IsRetryable(err))
}
