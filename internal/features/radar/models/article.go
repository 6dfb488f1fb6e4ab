package models

import (
	"strings"
	"time"
)

// Article is a staged news hit produced by the article factory
type Article struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Summary      string    `json:"summary"`
	Press        string    `json:"press"`
	PublishedAt  time.Time `json:"published_at"`
	Link         string    `json:"link"`
	QueryKeyword string    `json:"query_keyword"`
	IsNegative   bool      `json:"is_negative"`
	NegativeHits []string  `json:"negative_hits"`
	CollectedAt  time.Time `json:"collected_at"`
}

// HitsLabel renders the negative hits the way tables and alerts show them
func (a Article) HitsLabel() string {
	return strings.Join(a.NegativeHits, ", ")
}

// RawArticle is one search-feed result before cleaning and classification
type RawArticle struct {
	Title        string
	PressRaw     string
	PubDate      string
	OriginalLink string
	Link         string
	Summary      string
	QueryKeyword string
}

// ResolvedLink prefers the publisher's original link over the aggregator link
func (r RawArticle) ResolvedLink() string {
	if r.OriginalLink != "" {
		return r.OriginalLink
	}
	return r.Link
}

// Alert is derived from a negative inbox article
type Alert struct {
	ArticleID string    `json:"article_id"`
	Time      time.Time `json:"time"`
	Message   string    `json:"message"`
}

// InboxView is the inbox listing returned to clients
type InboxView struct {
	Keyword  string    `json:"keyword,omitempty"`
	Total    int       `json:"total"`
	Articles []Article `json:"articles"`
}
