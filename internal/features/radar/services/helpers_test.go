package services

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"pr-radar/internal/core"
	"pr-radar/internal/features/radar/migrations"
	"pr-radar/internal/features/radar/models"

	_ "modernc.org/sqlite"
)

var baseTime = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock(start time.Time) *testClock {
	return &testClock{now: start}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// fakeClient is an in-memory SearchClient keyed by query
type fakeClient struct {
	mu      sync.Mutex
	ready   bool
	results map[string][]models.RawArticle
	errs    map[string]error
	calls   []string
}

func newFakeClient() *fakeClient {
	return &fakeClient{
		ready:   true,
		results: make(map[string][]models.RawArticle),
		errs:    make(map[string]error),
	}
}

func (f *fakeClient) Name() string { return "fake" }

func (f *fakeClient) Ready() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.ready
}

func (f *fakeClient) Search(ctx context.Context, query string, count int) ([]models.RawArticle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls = append(f.calls, query)
	if err := f.errs[query]; err != nil {
		return nil, err
	}
	return append([]models.RawArticle(nil), f.results[query]...), nil
}

func (f *fakeClient) set(query string, raws ...models.RawArticle) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.results[query] = raws
}

func (f *fakeClient) fail(query string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errs[query] = err
}

func (f *fakeClient) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func rawArticle(link, title string, published time.Time) models.RawArticle {
	return models.RawArticle{
		Title:        title,
		PressRaw:     "yonhap",
		PubDate:      published.Format(time.RFC1123Z),
		OriginalLink: link,
		Link:         "https://n.news.naver.com/" + link,
		Summary:      "요약 " + title,
	}
}

func stagedArticle(id, link string, published time.Time, hits ...string) models.Article {
	return models.Article{
		ID:           id,
		Title:        "기사 " + id,
		Press:        "연합뉴스",
		PublishedAt:  published,
		Link:         link,
		QueryKeyword: "삼성화재",
		IsNegative:   len(hits) > 0,
		NegativeHits: hits,
		CollectedAt:  published,
	}
}

func openTestDB(t *testing.T) *core.Database {
	t.Helper()

	logger := core.NewDiscardLogger()
	db, err := core.OpenSQLite(":memory:", logger)
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := migrations.NewManager(db, logger).Migrate(context.Background()); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}
	return db
}

func newTestArchive(t *testing.T, clock *testClock) *ArchiveService {
	t.Helper()

	archive := NewArchiveService(openTestDB(t), core.NewDiscardLogger(), NewPressNormalizer(nil)).WithClock(clock.Now)
	if err := archive.EnsureFolders(context.Background(), DefaultFolders()); err != nil {
		t.Fatalf("Failed to seed folders: %v", err)
	}
	return archive
}

type radarFixture struct {
	radar  *Radar
	client *fakeClient
	clock  *testClock
}

func newTestRadar(t *testing.T, opts Options) *radarFixture {
	t.Helper()

	logger := core.NewDiscardLogger()
	clock := newTestClock(baseTime)
	client := newFakeClient()

	db := openTestDB(t)
	press := NewPressNormalizer(nil)
	factory := NewArticleFactory(press, NewClassifier(nil), logger).WithClock(clock.Now)
	collector := NewCollector(client, factory, logger, 20)
	collector.clock = clock.Now

	archive := NewArchiveService(db, logger, press).WithClock(clock.Now)
	if err := archive.EnsureFolders(context.Background(), DefaultFolders()); err != nil {
		t.Fatalf("Failed to seed folders: %v", err)
	}
	corrections := NewCorrectionService(db, logger).WithClock(clock.Now)

	opts.Clock = clock.Now
	if opts.Location == nil {
		opts.Location = time.UTC
	}

	return &radarFixture{
		radar:  NewRadar(opts, collector, archive, corrections, logger),
		client: client,
		clock:  clock,
	}
}

func linkOf(i int) string {
	return fmt.Sprintf("https://www.yna.co.kr/view/AKR%04d", i)
}
