package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"pr-radar/internal/core"
	"pr-radar/internal/features/radar/models"
)

const (
	DefaultNaverEndpoint = "https://openapi.naver.com/v1/search/news.json"
	DefaultRSSEndpoint   = "https://news.google.com/rss/search?q={query}&hl=ko&gl=KR&ceid=KR:ko"
	defaultUserAgent     = "PR-Radar/1.0"
)

// SearchClient is the narrow contract the collector needs from a news search feed
type SearchClient interface {
	// Name identifies the provider in logs and results
	Name() string

	// Ready reports whether the client has what it needs to call the feed
	Ready() bool

	// Search returns up to count of the newest results for query
	Search(ctx context.Context, query string, count int) ([]models.RawArticle, error)
}

// UpstreamError is a transport, HTTP or parse failure against the search feed
type UpstreamError struct {
	Provider   string
	Query      string
	StatusCode int
	Err        error
}

func (e *UpstreamError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s search for %q failed with status %d", e.Provider, e.Query, e.StatusCode)
	}
	return fmt.Sprintf("%s search for %q failed: %v", e.Provider, e.Query, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// Fatal reports whether the feed rejected the client itself, so later keywords would fail too
func (e *UpstreamError) Fatal() bool {
	return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
}

// IsFatalUpstream reports whether err should stop a collection run
func IsFatalUpstream(err error) bool {
	var upstream *UpstreamError
	return errors.As(err, &upstream) && upstream.Fatal()
}

// NewSearchClient builds the client for the configured provider
func NewSearchClient(provider string, logger *core.Logger, config *models.FetcherConfig) SearchClient {
	if strings.EqualFold(provider, "rss") {
		return NewRSSSearchClient(logger, config)
	}
	return NewNaverClient(logger, config)
}

// NaverClient calls the Naver news search API
type NaverClient struct {
	client *http.Client
	logger *core.Logger
	config *models.FetcherConfig
}

type naverResponse struct {
	Items []naverItem `json:"items"`
}

type naverItem struct {
	Title        string `json:"title"`
	OriginalLink string `json:"originallink"`
	Link         string `json:"link"`
	Description  string `json:"description"`
	PubDate      string `json:"pubDate"`
	Source       string `json:"source"`
}

// NewNaverClient creates a new Naver search client
func NewNaverClient(logger *core.Logger, config *models.FetcherConfig) *NaverClient {
	if config.Endpoint == "" {
		config.Endpoint = DefaultNaverEndpoint
	}

	return &NaverClient{
		client: &http.Client{Timeout: config.Timeout},
		logger: logger,
		config: config,
	}
}

// Name returns the provider name
func (c *NaverClient) Name() string {
	return "naver"
}

// Ready reports whether both API credentials are configured
func (c *NaverClient) Ready() bool {
	return c.config.ClientID != "" && c.config.ClientSecret != ""
}

// Search queries the news endpoint sorted by date
func (c *NaverClient) Search(ctx context.Context, query string, count int) ([]models.RawArticle, error) {
	params := url.Values{}
	params.Set("query", query)
	params.Set("display", strconv.Itoa(count))
	params.Set("start", "1")
	params.Set("sort", "date")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.Endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, &UpstreamError{Provider: c.Name(), Query: query, Err: err}
	}

	req.Header.Set("X-Naver-Client-Id", c.config.ClientID)
	req.Header.Set("X-Naver-Client-Secret", c.config.ClientSecret)
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &UpstreamError{Provider: c.Name(), Query: query, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &UpstreamError{Provider: c.Name(), Query: query, StatusCode: resp.StatusCode}
	}

	var payload naverResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, &UpstreamError{Provider: c.Name(), Query: query, Err: fmt.Errorf("failed to decode response: %w", err)}
	}

	results := make([]models.RawArticle, 0, len(payload.Items))
	for _, item := range payload.Items {
		results = append(results, models.RawArticle{
			Title:        item.Title,
			PressRaw:     item.Source,
			PubDate:      item.PubDate,
			OriginalLink: item.OriginalLink,
			Link:         item.Link,
			Summary:      item.Description,
			QueryKeyword: query,
		})
	}

	c.logger.Debug("Naver search completed", "query", query, "results", len(results))
	return results, nil
}

// RSSSearchClient queries an RSS news-search endpoint. The endpoint may carry a
// {query} placeholder; otherwise the query is appended as the q parameter.
type RSSSearchClient struct {
	client *http.Client
	parser *gofeed.Parser
	logger *core.Logger
	config *models.FetcherConfig
}

// NewRSSSearchClient creates a new RSS search client
func NewRSSSearchClient(logger *core.Logger, config *models.FetcherConfig) *RSSSearchClient {
	if config.Endpoint == "" {
		config.Endpoint = DefaultRSSEndpoint
	}
	if config.UserAgent == "" {
		config.UserAgent = defaultUserAgent
	}

	return &RSSSearchClient{
		client: &http.Client{Timeout: config.Timeout},
		parser: gofeed.NewParser(),
		logger: logger,
		config: config,
	}
}

// Name returns the provider name
func (c *RSSSearchClient) Name() string {
	return "rss"
}

// Ready is always true since RSS search needs no credentials
func (c *RSSSearchClient) Ready() bool {
	return true
}

// Search fetches the feed for query and returns its newest items
func (c *RSSSearchClient) Search(ctx context.Context, query string, count int) ([]models.RawArticle, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.searchURL(query), nil)
	if err != nil {
		return nil, &UpstreamError{Provider: c.Name(), Query: query, Err: err}
	}

	req.Header.Set("User-Agent", c.config.UserAgent)
	req.Header.Set("Accept", "application/rss+xml, application/atom+xml, application/xml, text/xml")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &UpstreamError{Provider: c.Name(), Query: query, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &UpstreamError{Provider: c.Name(), Query: query, StatusCode: resp.StatusCode}
	}

	feed, err := c.parser.Parse(resp.Body)
	if err != nil {
		return nil, &UpstreamError{Provider: c.Name(), Query: query, Err: fmt.Errorf("failed to parse feed: %w", err)}
	}

	results := make([]models.RawArticle, 0, len(feed.Items))
	for _, item := range feed.Items {
		if count > 0 && len(results) >= count {
			break
		}
		results = append(results, c.convertItem(item, query))
	}

	c.logger.Debug("RSS search completed", "query", query, "results", len(results))
	return results, nil
}

func (c *RSSSearchClient) searchURL(query string) string {
	escaped := url.QueryEscape(query)
	if strings.Contains(c.config.Endpoint, "{query}") {
		return strings.ReplaceAll(c.config.Endpoint, "{query}", escaped)
	}

	separator := "?"
	if strings.Contains(c.config.Endpoint, "?") {
		separator = "&"
	}
	return c.config.Endpoint + separator + "q=" + escaped
}

func (c *RSSSearchClient) convertItem(item *gofeed.Item, query string) models.RawArticle {
	pubDate := item.Published
	if item.PublishedParsed != nil {
		pubDate = item.PublishedParsed.Format(time.RFC1123Z)
	} else if item.UpdatedParsed != nil {
		pubDate = item.UpdatedParsed.Format(time.RFC1123Z)
	}

	press := ""
	if len(item.Authors) > 0 && item.Authors[0] != nil {
		press = item.Authors[0].Name
	}

	summary := item.Description
	if summary == "" {
		summary = item.Content
	}

	return models.RawArticle{
		Title:        item.Title,
		PressRaw:     press,
		PubDate:      pubDate,
		Link:         item.Link,
		Summary:      summary,
		QueryKeyword: query,
	}
}
