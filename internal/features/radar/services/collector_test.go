package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
	"time"

	"pr-radar/internal/core"
	"pr-radar/internal/features/radar/models"
)

func newTestCollector(client SearchClient) *Collector {
	logger := core.NewDiscardLogger()
	factory := NewArticleFactory(NewPressNormalizer(nil), NewClassifier(nil), logger)
	return NewCollector(client, factory, logger, 20)
}

func collectInto(batches map[string][]models.Article) CommitFunc {
	return func(keyword string, batch []models.Article) int {
		batches[keyword] = append(batches[keyword], batch...)
		return len(batch)
	}
}

func TestCollectorDedupesAcrossKeywords(t *testing.T) {
	client := newFakeClient()
	client.set("삼성화재",
		rawArticle(linkOf(1), "삼성화재 신상품", baseTime),
		rawArticle(linkOf(2), "보험업계 소송", baseTime),
	)
	client.set("보험",
		rawArticle(linkOf(2), "보험업계 소송", baseTime),
		rawArticle(linkOf(3), "보험료 인상", baseTime),
	)

	batches := make(map[string][]models.Article)
	result := newTestCollector(client).Run(context.Background(), []string{"삼성화재", "보험"}, map[string]struct{}{}, collectInto(batches))

	if result.Outcome != models.OutcomeOK {
		t.Fatalf("Expected ok outcome, got %s (%s)", result.Outcome, result.Error)
	}
	if result.Fetched != 4 || result.Added != 3 {
		t.Errorf("Expected 4 fetched and 3 added, got %d and %d", result.Fetched, result.Added)
	}
	if len(batches["삼성화재"]) != 2 || len(batches["보험"]) != 1 {
		t.Fatalf("Expected first keyword to keep the shared link, got %d and %d", len(batches["삼성화재"]), len(batches["보험"]))
	}
	if got := batches["보험"][0].Link; got != linkOf(3) {
		t.Errorf("Expected second keyword to keep only its new link, got %s", got)
	}
	if got := batches["삼성화재"][1].QueryKeyword; got != "삼성화재" {
		t.Errorf("Expected shared article to keep the first keyword, got %s", got)
	}
}

func TestCollectorSkipsSeenAndEmptyLinks(t *testing.T) {
	client := newFakeClient()
	client.set("삼성화재",
		rawArticle(linkOf(1), "이미 있음", baseTime),
		models.RawArticle{Title: "링크 없음"},
		models.RawArticle{Title: "네이버 링크만", Link: "https://n.news.naver.com/only"},
	)

	seen := map[string]struct{}{linkOf(1): {}}
	articles, fetched, err := newTestCollector(client).Fetch(context.Background(), "삼성화재", seen)
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if fetched != 3 {
		t.Errorf("Expected 3 fetched, got %d", fetched)
	}
	if len(articles) != 1 || articles[0].Link != "https://n.news.naver.com/only" {
		t.Fatalf("Expected only the aggregator-link article, got %+v", articles)
	}
	if _, ok := seen["https://n.news.naver.com/only"]; !ok {
		t.Error("Expected new link to be added to seen")
	}
}

func TestCollectorNoCredentials(t *testing.T) {
	client := newFakeClient()
	client.ready = false

	result := newTestCollector(client).Run(context.Background(), []string{"삼성화재"}, map[string]struct{}{}, collectInto(map[string][]models.Article{}))

	if result.Outcome != models.OutcomeNoCredentials {
		t.Errorf("Expected no_credentials, got %s", result.Outcome)
	}
	if client.callCount() != 0 {
		t.Errorf("Expected no search calls, got %d", client.callCount())
	}
}

func TestCollectorPartialFailure(t *testing.T) {
	client := newFakeClient()
	client.fail("삼성화재", &UpstreamError{Provider: "fake", Query: "삼성화재", StatusCode: http.StatusInternalServerError})
	client.set("보험", rawArticle(linkOf(1), "보험료 인상", baseTime))

	batches := make(map[string][]models.Article)
	result := newTestCollector(client).Run(context.Background(), []string{"삼성화재", "보험"}, map[string]struct{}{}, collectInto(batches))

	if result.Outcome != models.OutcomeUpstreamError {
		t.Errorf("Expected upstream_error, got %s", result.Outcome)
	}
	if !reflect.DeepEqual(result.FailedKeywords, []string{"삼성화재"}) {
		t.Errorf("Expected only the failing keyword, got %v", result.FailedKeywords)
	}
	if result.Added != 1 || len(batches["보험"]) != 1 {
		t.Errorf("Expected later keyword to still be committed, added %d", result.Added)
	}
}

func TestCollectorStopsOnRejectedCredentials(t *testing.T) {
	client := newFakeClient()
	client.fail("삼성화재", &UpstreamError{Provider: "fake", Query: "삼성화재", StatusCode: http.StatusUnauthorized})
	client.set("보험", rawArticle(linkOf(1), "보험료 인상", baseTime))

	result := newTestCollector(client).Run(context.Background(), []string{"삼성화재", "보험", "화재"}, map[string]struct{}{}, collectInto(map[string][]models.Article{}))

	if result.Outcome != models.OutcomeUpstreamError {
		t.Errorf("Expected upstream_error, got %s", result.Outcome)
	}
	if client.callCount() != 1 {
		t.Errorf("Expected the run to stop after the rejected call, got %d calls", client.callCount())
	}
	if !reflect.DeepEqual(result.FailedKeywords, []string{"삼성화재", "보험", "화재"}) {
		t.Errorf("Expected every keyword to be reported failed, got %v", result.FailedKeywords)
	}
}

func TestCollectorCancelledContext(t *testing.T) {
	client := newFakeClient()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result := newTestCollector(client).Run(ctx, []string{"삼성화재", "보험"}, map[string]struct{}{}, collectInto(map[string][]models.Article{}))

	if result.Outcome != models.OutcomeUpstreamError || len(result.FailedKeywords) != 2 {
		t.Errorf("Expected cancelled run to fail all keywords, got %s %v", result.Outcome, result.FailedKeywords)
	}
	if client.callCount() != 0 {
		t.Errorf("Expected no search calls, got %d", client.callCount())
	}
}

func TestUpstreamErrorFatal(t *testing.T) {
	wrapped := fmt.Errorf("collect: %w", &UpstreamError{Provider: "naver", StatusCode: http.StatusForbidden})
	if !IsFatalUpstream(wrapped) {
		t.Error("Expected 403 to be fatal")
	}
	if IsFatalUpstream(&UpstreamError{Provider: "naver", StatusCode: http.StatusTooManyRequests}) {
		t.Error("Expected 429 not to be fatal")
	}
	if IsFatalUpstream(errors.New("boom")) {
		t.Error("Expected plain errors not to be fatal")
	}
}

func TestNaverClientSearch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Naver-Client-Id") != "id" || r.Header.Get("X-Naver-Client-Secret") != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		query := r.URL.Query()
		if query.Get("query") != "삼성화재" || query.Get("display") != "5" || query.Get("sort") != "date" || query.Get("start") != "1" {
			t.Errorf("Unexpected query parameters: %s", r.URL.RawQuery)
		}

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"items":[{
			"title":"<b>삼성화재</b> 소송",
			"originallink":"https://www.yna.co.kr/view/AKR1",
			"link":"https://n.news.naver.com/1",
			"description":"요약",
			"pubDate":"Mon, 02 Mar 2026 18:00:00 +0900"
		}]}`)
	}))
	defer server.Close()

	client := NewNaverClient(core.NewDiscardLogger(), &models.FetcherConfig{
		Endpoint:     server.URL,
		ClientID:     "id",
		ClientSecret: "secret",
		Timeout:      5 * time.Second,
	})

	if !client.Ready() {
		t.Fatal("Expected client with credentials to be ready")
	}

	results, err := client.Search(context.Background(), "삼성화재", 5)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("Expected 1 result, got %d", len(results))
	}
	if results[0].ResolvedLink() != "https://www.yna.co.kr/view/AKR1" {
		t.Errorf("Expected original link to be preferred, got %s", results[0].ResolvedLink())
	}
	if results[0].QueryKeyword != "삼성화재" {
		t.Errorf("Expected query keyword to be set, got %s", results[0].QueryKeyword)
	}

	rejected := NewNaverClient(core.NewDiscardLogger(), &models.FetcherConfig{
		Endpoint:     server.URL,
		ClientID:     "id",
		ClientSecret: "wrong",
		Timeout:      5 * time.Second,
	})
	_, err = rejected.Search(context.Background(), "삼성화재", 5)
	if !IsFatalUpstream(err) {
		t.Errorf("Expected rejected credentials to be fatal, got %v", err)
	}
}

func TestNaverClientNotReady(t *testing.T) {
	client := NewNaverClient(core.NewDiscardLogger(), &models.FetcherConfig{ClientID: "id"})
	if client.Ready() {
		t.Error("Expected client without secret not to be ready")
	}
}

const testFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
<channel>
	<title>news search</title>
	<item>
		<title>삼성화재 갑질 논란</title>
		<link>https://www.hankyung.com/article/1</link>
		<description>&lt;b&gt;요약&lt;/b&gt;</description>
		<pubDate>Mon, 02 Mar 2026 18:00:00 +0900</pubDate>
	</item>
	<item>
		<title>보험료 인상</title>
		<link>https://www.mk.co.kr/news/2</link>
		<pubDate>Mon, 02 Mar 2026 17:00:00 +0900</pubDate>
	</item>
	<item>
		<title>세 번째 기사</title>
		<link>https://www.sedaily.com/3</link>
	</item>
</channel>
</rss>`

func TestRSSSearchClient(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("q"); got != "삼성화재" {
			t.Errorf("Expected query placeholder to be filled, got %q", got)
		}
		w.Header().Set("Content-Type", "application/rss+xml")
		fmt.Fprint(w, testFeed)
	}))
	defer server.Close()

	client := NewRSSSearchClient(core.NewDiscardLogger(), &models.FetcherConfig{
		Endpoint: server.URL + "/rss?q={query}&hl=ko",
		Timeout:  5 * time.Second,
	})

	if !client.Ready() {
		t.Error("Expected RSS client to always be ready")
	}

	results, err := client.Search(context.Background(), "삼성화재", 2)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("Expected results capped at 2, got %d", len(results))
	}
	if results[0].Title != "삼성화재 갑질 논란" || results[0].Link != "https://www.hankyung.com/article/1" {
		t.Errorf("Unexpected first result %+v", results[0])
	}

	published, ok := ParsePublishedAt(results[0].PubDate)
	if !ok || !published.Equal(baseTime) {
		t.Errorf("Expected publish date to round-trip, got %q", results[0].PubDate)
	}
}

func TestRSSSearchURL(t *testing.T) {
	client := NewRSSSearchClient(core.NewDiscardLogger(), &models.FetcherConfig{Endpoint: "https://feeds.example.com/search?lang=ko"})

	if got := client.searchURL("삼성 화재"); got != "https://feeds.example.com/search?lang=ko&q=%EC%82%BC%EC%84%B1+%ED%99%94%EC%9E%AC" {
		t.Errorf("Unexpected search url %s", got)
	}
}

func TestRSSSearchClientHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := NewRSSSearchClient(core.NewDiscardLogger(), &models.FetcherConfig{Endpoint: server.URL, Timeout: 5 * time.Second})

	_, err := client.Search(context.Background(), "삼성화재", 5)
	var upstream *UpstreamError
	if !errors.As(err, &upstream) || upstream.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("Expected upstream error with status, got %v", err)
	}
	if upstream.Fatal() {
		t.Error("Expected 503 not to be fatal")
	}
}
