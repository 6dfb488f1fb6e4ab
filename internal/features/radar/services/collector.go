package services

import (
	"context"
	"time"

	"pr-radar/internal/core"
	"pr-radar/internal/features/radar/models"
)

// CommitFunc appends one keyword's batch to the inbox and returns how many were kept
type CommitFunc func(keyword string, batch []models.Article) int

// Collector calls the search feed per keyword and builds deduplicated articles
type Collector struct {
	client      SearchClient
	factory     *ArticleFactory
	logger      *core.Logger
	resultCount int
	clock       func() time.Time
}

// NewCollector creates a new collector
func NewCollector(client SearchClient, factory *ArticleFactory, logger *core.Logger, resultCount int) *Collector {
	if resultCount <= 0 {
		resultCount = 20
	}

	return &Collector{
		client:      client,
		factory:     factory,
		logger:      logger,
		resultCount: resultCount,
		clock:       time.Now,
	}
}

// Provider returns the search feed name
func (c *Collector) Provider() string {
	return c.client.Name()
}

// Ready reports whether the search feed can be called
func (c *Collector) Ready() bool {
	return c.client.Ready()
}

// Fetch searches one keyword and returns articles whose links are not in seen.
// Links of returned articles are added to seen.
func (c *Collector) Fetch(ctx context.Context, keyword string, seen map[string]struct{}) ([]models.Article, int, error) {
	results, err := c.client.Search(ctx, keyword, c.resultCount)
	if err != nil {
		return nil, 0, err
	}

	articles := make([]models.Article, 0, len(results))
	for _, raw := range results {
		link := raw.ResolvedLink()
		if link == "" {
			continue
		}
		if _, exists := seen[link]; exists {
			continue
		}

		raw.Link = link
		raw.QueryKeyword = keyword
		articles = append(articles, c.factory.Build(raw))
		seen[link] = struct{}{}
	}

	return articles, len(results), nil
}

// Run fetches every keyword in order, committing each successful batch as it arrives.
// A failed keyword is skipped unless the feed rejected the client, which ends the run.
func (c *Collector) Run(ctx context.Context, keywords []string, seen map[string]struct{}, commit CommitFunc) models.CollectResult {
	result := models.CollectResult{
		Outcome:   models.OutcomeOK,
		Provider:  c.client.Name(),
		Keywords:  keywords,
		StartedAt: c.clock(),
	}

	if !c.client.Ready() {
		result.Outcome = models.OutcomeNoCredentials
		result.FinishedAt = c.clock()
		c.logger.Info("Skipping collection, search feed credentials are not configured", "provider", result.Provider)
		return result
	}

	for i, keyword := range keywords {
		if err := ctx.Err(); err != nil {
			result.Outcome = models.OutcomeUpstreamError
			result.Error = err.Error()
			result.FailedKeywords = append(result.FailedKeywords, keywords[i:]...)
			break
		}

		articles, fetched, err := c.Fetch(ctx, keyword, seen)
		if err != nil {
			c.logger.Warn("Search feed request failed", "keyword", keyword, "error", err)
			result.Outcome = models.OutcomeUpstreamError
			result.Error = err.Error()
			result.FailedKeywords = append(result.FailedKeywords, keyword)
			if IsFatalUpstream(err) {
				result.FailedKeywords = append(result.FailedKeywords, keywords[i+1:]...)
				break
			}
			continue
		}

		added := commit(keyword, articles)
		result.Fetched += fetched
		result.Added += added
		c.logger.Info("Collected keyword", "keyword", keyword, "fetched", fetched, "added", added)
	}

	result.FinishedAt = c.clock()
	c.logger.Info("Collection run finished",
		"provider", result.Provider,
		"outcome", result.Outcome,
		"added", result.Added,
		"failed", len(result.FailedKeywords),
	)
	return result
}
