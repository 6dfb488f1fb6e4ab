package services

import (
	"html"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"

	"pr-radar/internal/core"
	"pr-radar/internal/features/radar/models"
)

// UntitledArticle replaces an empty headline
const UntitledArticle = "제목 없음"

var markupPolicy = bluemonday.StrictPolicy()

var publishedLayouts = []string{
	time.RFC1123Z,
	time.RFC1123,
	"Mon, 2 Jan 2006 15:04:05 -0700",
	time.RFC822Z,
	time.RFC822,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

// ArticleFactory builds canonical articles from raw search results
type ArticleFactory struct {
	press      *PressNormalizer
	classifier *Classifier
	logger     *core.Logger
	clock      func() time.Time
	newID      func() string
}

// NewArticleFactory creates a new article factory
func NewArticleFactory(press *PressNormalizer, classifier *Classifier, logger *core.Logger) *ArticleFactory {
	return &ArticleFactory{
		press:      press,
		classifier: classifier,
		logger:     logger,
		clock:      time.Now,
		newID:      uuid.NewString,
	}
}

// WithClock replaces the time source used for collected_at and date fallback
func (f *ArticleFactory) WithClock(clock func() time.Time) *ArticleFactory {
	f.clock = clock
	return f
}

// Build cleans, normalizes and classifies a raw result into an Article
func (f *ArticleFactory) Build(raw models.RawArticle) models.Article {
	now := f.clock()

	title := CleanMarkup(raw.Title)
	if title == "" {
		title = UntitledArticle
	}
	summary := CleanMarkup(raw.Summary)
	link := strings.TrimSpace(raw.Link)

	publishedAt, ok := ParsePublishedAt(raw.PubDate)
	if !ok {
		f.logger.Debug("Unparsable publish date, using ingestion time", "value", raw.PubDate, "link", link)
		publishedAt = now
	}

	hits := f.classifier.Classify(title, summary)

	return models.Article{
		ID:           f.newID(),
		Title:        title,
		Summary:      summary,
		Press:        f.press.Normalize(CleanMarkup(raw.PressRaw), link),
		PublishedAt:  publishedAt,
		Link:         link,
		QueryKeyword: raw.QueryKeyword,
		IsNegative:   len(hits) > 0,
		NegativeHits: hits,
		CollectedAt:  now,
	}
}

// CleanMarkup strips tags and decodes entities
func CleanMarkup(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return ""
	}

	sanitized := markupPolicy.Sanitize(raw)
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(sanitized))
	if err != nil {
		return strings.TrimSpace(html.UnescapeString(sanitized))
	}
	return strings.TrimSpace(doc.Text())
}

// ParsePublishedAt parses a search-feed date string
func ParsePublishedAt(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}

	for _, layout := range publishedLayouts {
		if parsed, err := time.Parse(layout, value); err == nil {
			return parsed, true
		}
	}
	return time.Time{}, false
}
