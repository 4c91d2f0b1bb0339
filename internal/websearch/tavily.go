package websearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/renal-diet-poc/server/internal/agent/model"
	errx "github.com/renal-diet-poc/server/internal/core/error"
	logx "github.com/renal-diet-poc/server/pkg/logger"
)

const (
	NoResultsMessage   = "검색 결과를 찾을 수 없습니다."
	searchErrorMessage = "웹 검색 중 오류 발생: %v"
	maxErrBody         = 200
)

// Client searches the web through the Tavily API. Search never returns an
// error: failures become a readable message that is used as context.
type Client struct {
	httpClient  *http.Client
	apiKey      string
	baseURL     string
	searchDepth string
	querySuffix string
	domains     []string
}

// New fails when the API key is missing.
func New(cfg model.WebSearchConfig) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errx.Config("TAVILY_API_KEY is not set")
	}
	timeout := 15 * time.Second
	if cfg.Timeout != "" {
		d, err := time.ParseDuration(cfg.Timeout)
		if err != nil {
			return nil, errx.Config("invalid TAVILY_TIMEOUT %q: %v", cfg.Timeout, err)
		}
		timeout = d
	}
	depth := cfg.SearchDepth
	if depth == "" {
		depth = "basic"
	}
	return &Client{
		httpClient:  &http.Client{Timeout: timeout},
		apiKey:      cfg.APIKey,
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		searchDepth: depth,
		querySuffix: strings.TrimSpace(cfg.QuerySuffix),
		domains:     cfg.Domains,
	}, nil
}

type searchRequest struct {
	Query          string   `json:"query"`
	MaxResults     int      `json:"max_results"`
	SearchDepth    string   `json:"search_depth"`
	IncludeDomains []string `json:"include_domains,omitempty"`
}

type searchResult struct {
	Title   string  `json:"title"`
	URL     string  `json:"url"`
	Content string  `json:"content"`
	Score   float64 `json:"score"`
}

type searchResponse struct {
	Results []searchResult `json:"results"`
}

// Search returns formatted results for query. The nutrition suffix is
// appended to steer results toward kidney-diet sources.
func (c *Client) Search(ctx context.Context, query string, maxResults int) string {
	q := strings.TrimSpace(query)
	if c.querySuffix != "" {
		q = q + " " + c.querySuffix
	}

	results, err := c.search(ctx, q, maxResults)
	if err != nil {
		logx.Warn().Err(err).Str("query", q).Msg("web search failed")
		return fmt.Sprintf(searchErrorMessage, err)
	}
	if len(results) == 0 {
		logx.Debug().Str("query", q).Msg("web search returned no results")
		return NoResultsMessage
	}
	logx.Debug().Str("query", q).Int("results", len(results)).Msg("web search done")
	return formatResults(results)
}

func (c *Client) search(ctx context.Context, query string, maxResults int) ([]searchResult, error) {
	body, err := json.Marshal(searchRequest{
		Query:          query,
		MaxResults:     maxResults,
		SearchDepth:    c.searchDepth,
		IncludeDomains: c.domains,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/search", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrBody))
		return nil, fmt.Errorf("tavily status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	var out searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return out.Results, nil
}

// formatResults renders results as numbered source blocks.
func formatResults(results []searchResult) string {
	blocks := make([]string, 0, len(results))
	for i, r := range results {
		blocks = append(blocks, fmt.Sprintf("[출처 %d] %s\nURL: %s\n내용: %s\n", i+1, r.Title, r.URL, r.Content))
	}
	return strings.Join(blocks, "\n")
}
