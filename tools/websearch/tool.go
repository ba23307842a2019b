// Package websearch is a web search tool backed by a Serper-style JSON API.
package websearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/ficheapp/fiche/tools"
)

const (
	defaultBaseURL     = "https://google.serper.dev/search"
	defaultMaxResults  = 5
	defaultName        = "web_search"
	defaultDescription = "Recherche sur le web. Retourne une liste de résultats avec titre, extrait et URL."
)

// Input is the schema of one search request.
type Input struct {
	// Query is the search query to look up
	Query string `json:"query" jsonschema:"title=query,description=La requête de recherche web." validate:"required"`
}

// ResultItem is a single search result.
type ResultItem struct {
	Title   string `json:"title"`
	Link    string `json:"link"`
	Snippet string `json:"snippet,omitempty"`
}

// Output is the list of search results for one query.
type Output struct {
	Results []ResultItem `json:"results,omitempty"`
}

// RenderResult implements tools.Renderer.
func (o Output) RenderResult() *tools.Result {
	if len(o.Results) == 0 {
		return &tools.Result{Content: "aucun résultat"}
	}
	var sb strings.Builder
	citations := make([]string, 0, len(o.Results))
	for i, item := range o.Results {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(item.Title)
		if item.Snippet != "" {
			sb.WriteString(" — ")
			sb.WriteString(item.Snippet)
		}
		citations = append(citations, item.Link)
	}
	return &tools.Result{Content: sb.String(), Citations: citations}
}

type searchResponse struct {
	Organic []ResultItem `json:"organic"`
}

type Config struct {
	tools.Config
	apiKey     string
	baseURL    string
	maxResults int
	httpClient *http.Client
}

// Search queries the web search API.
type Search struct {
	Config
}

// New returns a Search tool.
func New(opts ...Option) *Search {
	ret := new(Search)
	for _, opt := range opts {
		opt(&ret.Config)
	}
	if ret.Name() == "" {
		ret.SetName(defaultName)
	}
	if ret.Description() == "" {
		ret.SetDescription(defaultDescription)
	}
	if ret.baseURL == "" {
		ret.baseURL = defaultBaseURL
	}
	if ret.maxResults == 0 {
		ret.maxResults = defaultMaxResults
	}
	if ret.httpClient == nil {
		ret.httpClient = http.DefaultClient
	}
	return ret
}

// Run executes one search synchronously.
func (t *Search) Run(ctx context.Context, input *Input) (*Output, error) {
	body, err := json.Marshal(map[string]any{
		"q":   input.Query,
		"num": t.maxResults,
	})
	if err != nil {
		return nil, err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, t.baseURL, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("X-API-KEY", t.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")
	httpResp, err := t.httpClient.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer httpResp.Body.Close()
	if httpResp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search API returned status %d", httpResp.StatusCode)
	}
	var res searchResponse
	if err := json.NewDecoder(httpResp.Body).Decode(&res); err != nil {
		return nil, err
	}
	if len(res.Organic) > t.maxResults {
		res.Organic = res.Organic[:t.maxResults]
	}
	return &Output{Results: res.Organic}, nil
}

// Entry wraps the tool for registry use.
func (t *Search) Entry() tools.Tool {
	return tools.NewFunc(t.Name(), t.Description(), t.Run)
}
