package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"
)

const tavilyBaseURL = "https://api.tavily.com"

// ErrNoResults indicates the search API answered successfully but found nothing.
var ErrNoResults = eris.New("search returned no results")

// Snippet is a single search-result fragment with source attribution.
type Snippet struct {
	Title   string  `json:"title"`
	URL     string  `json:"url"`
	Content string  `json:"content"`
	Score   float64 `json:"score"`
}

// ResearchResult holds the ranked snippets returned for one query.
type ResearchResult struct {
	Query    string    `json:"query"`
	Answer   string    `json:"answer,omitempty"`
	Snippets []Snippet `json:"snippets"`
}

// Summary renders the research result as the brief handed to the writer.
func (r *ResearchResult) Summary() string {
	var builder strings.Builder

	if answer := strings.TrimSpace(r.Answer); answer != "" {
		builder.WriteString("Answer: ")
		builder.WriteString(answer)
		builder.WriteString("\n\n")
	}

	builder.WriteString("Relevant Sources:")
	for i, snippet := range r.Snippets {
		builder.WriteString(fmt.Sprintf("\n%d. %s\n   %s\n   URL: %s", i+1, snippet.Title, snippet.Content, snippet.URL))
	}

	return builder.String()
}

// ClientOptions controls how the Tavily client is initialised.
type ClientOptions struct {
	APIKey     string
	BaseURL    string
	HTTPClient *http.Client
	Logger     *logrus.Logger
	MaxResults int
}

// Client calls the Tavily search API.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	logger     *logrus.Logger
	maxResults int
}

const (
	defaultMaxResults  = 5
	defaultHTTPTimeout = 30 * time.Second
)

// NewClient constructs a Tavily search client.
func NewClient(opts ClientOptions) (*Client, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, eris.New("tavily api key is required")
	}

	baseURL := strings.TrimSpace(opts.BaseURL)
	if baseURL == "" {
		baseURL = tavilyBaseURL
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultHTTPTimeout}
	}

	maxResults := opts.MaxResults
	if maxResults <= 0 {
		maxResults = defaultMaxResults
	}

	return &Client{
		apiKey:     opts.APIKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		logger:     opts.Logger,
		maxResults: maxResults,
	}, nil
}

type searchRequest struct {
	APIKey        string `json:"api_key"`
	Query         string `json:"query"`
	SearchDepth   string `json:"search_depth"`
	MaxResults    int    `json:"max_results"`
	IncludeAnswer bool   `json:"include_answer"`
}

type searchResponse struct {
	Answer  string `json:"answer"`
	Results []struct {
		Title   string  `json:"title"`
		URL     string  `json:"url"`
		Content string  `json:"content"`
		Score   float64 `json:"score"`
	} `json:"results"`
}

// Search issues the query and returns ranked snippets.
func (c *Client) Search(ctx context.Context, query string) (*ResearchResult, error) {
	trimmedQuery := strings.TrimSpace(query)
	if trimmedQuery == "" {
		return nil, eris.New("query is required")
	}

	payload, err := json.Marshal(searchRequest{
		APIKey:        c.apiKey,
		Query:         trimmedQuery,
		SearchDepth:   "advanced",
		MaxResults:    c.maxResults,
		IncludeAnswer: true,
	})
	if err != nil {
		return nil, eris.Wrap(err, "encoding search request")
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/search", bytes.NewReader(payload))
	if err != nil {
		return nil, eris.Wrap(err, "building search request")
	}
	request.Header.Set("Content-Type", "application/json")

	response, err := c.httpClient.Do(request)
	if err != nil {
		c.logError(logrus.Fields{"query": trimmedQuery}, err, "calling search api")
		return nil, eris.Wrap(err, "calling search api")
	}
	defer response.Body.Close()

	body, err := io.ReadAll(io.LimitReader(response.Body, 1<<20))
	if err != nil {
		return nil, eris.Wrap(err, "reading search response")
	}

	if response.StatusCode < 200 || response.StatusCode >= 300 {
		err := eris.Errorf("search api returned status %d: %s", response.StatusCode, excerpt(body))
		c.logError(logrus.Fields{"query": trimmedQuery, "status": response.StatusCode}, err, "search api failure")
		return nil, err
	}

	var decoded searchResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, eris.Wrap(err, "decoding search response")
	}

	result := &ResearchResult{
		Query:    trimmedQuery,
		Answer:   decoded.Answer,
		Snippets: make([]Snippet, 0, len(decoded.Results)),
	}

	for _, item := range decoded.Results {
		if strings.TrimSpace(item.Content) == "" {
			continue
		}
		result.Snippets = append(result.Snippets, Snippet{
			Title:   item.Title,
			URL:     item.URL,
			Content: item.Content,
			Score:   item.Score,
		})
	}

	if len(result.Snippets) == 0 {
		return nil, eris.Wrapf(ErrNoResults, "query: %s", trimmedQuery)
	}

	return result, nil
}

func (c *Client) logError(fields logrus.Fields, err error, message string) {
	if c.logger == nil || err == nil {
		return
	}

	entry := c.logger.WithField("error", err.Error())
	if len(fields) > 0 {
		entry = entry.WithFields(fields)
	}
	entry.Error(message)
}

func excerpt(body []byte) string {
	const limit = 256
	text := strings.TrimSpace(string(body))
	if len(text) > limit {
		return text[:limit] + "..."
	}
	return text
}
