package services

import (
	"sort"
	"time"

	"pr-radar/internal/features/radar/models"
)

// Inbox is the time-bounded staging store. Newest-ingested articles come first
// and no two articles share a link. It is not safe for concurrent use; Radar
// guards it.
type Inbox struct {
	articles []models.Article
	links    map[string]struct{}
}

// NewInbox creates an empty inbox
func NewInbox() *Inbox {
	return &Inbox{links: make(map[string]struct{})}
}

// Insert prepends an article, rejecting a link that is already staged
func (in *Inbox) Insert(article models.Article) bool {
	if _, exists := in.links[article.Link]; exists {
		return false
	}

	in.articles = append([]models.Article{article}, in.articles...)
	in.links[article.Link] = struct{}{}
	return true
}

// Contains reports whether a link is staged
func (in *Inbox) Contains(link string) bool {
	_, exists := in.links[link]
	return exists
}

// Links returns a snapshot of staged links
func (in *Inbox) Links() map[string]struct{} {
	links := make(map[string]struct{}, len(in.links))
	for link := range in.links {
		links[link] = struct{}{}
	}
	return links
}

// PurgeExpired removes every article whose age at now has reached ttl
func (in *Inbox) PurgeExpired(now time.Time, ttl time.Duration) int {
	kept := in.articles[:0]
	removed := 0
	for _, article := range in.articles {
		if now.Sub(article.CollectedAt) >= ttl {
			delete(in.links, article.Link)
			removed++
			continue
		}
		kept = append(kept, article)
	}

	// Clear the tail so dropped articles can be collected
	for i := len(kept); i < len(in.articles); i++ {
		in.articles[i] = models.Article{}
	}
	in.articles = kept
	return removed
}

// Clear removes every staged article
func (in *Inbox) Clear() int {
	removed := len(in.articles)
	in.articles = nil
	in.links = make(map[string]struct{})
	return removed
}

// Len returns the number of staged articles
func (in *Inbox) Len() int {
	return len(in.articles)
}

// List returns staged articles in insertion order, optionally filtered by keyword
func (in *Inbox) List(keyword string) []models.Article {
	articles := make([]models.Article, 0, len(in.articles))
	for _, article := range in.articles {
		if keyword != "" && article.QueryKeyword != keyword {
			continue
		}
		articles = append(articles, article)
	}
	return articles
}

// Get returns a copy of the article with id
func (in *Inbox) Get(id string) (models.Article, bool) {
	for _, article := range in.articles {
		if article.ID == id {
			return article, true
		}
	}
	return models.Article{}, false
}

// SetPress overwrites the publisher of a staged article
func (in *Inbox) SetPress(id, press string) bool {
	for i := range in.articles {
		if in.articles[i].ID == id {
			in.articles[i].Press = press
			return true
		}
	}
	return false
}

// Recent returns the n most recently published articles
func (in *Inbox) Recent(n int) []models.Article {
	articles := SortByPublished(in.List(""))
	if n >= 0 && len(articles) > n {
		articles = articles[:n]
	}
	return articles
}

// SortByPublished orders articles newest-published first, keeping ties stable
func SortByPublished(articles []models.Article) []models.Article {
	sort.SliceStable(articles, func(i, j int) bool {
		return articles[i].PublishedAt.After(articles[j].PublishedAt)
	})
	return articles
}
