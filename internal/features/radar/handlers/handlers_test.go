package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"pr-radar/internal/core"
	"pr-radar/internal/features/radar/migrations"
	"pr-radar/internal/features/radar/models"
	"pr-radar/internal/features/radar/services"

	_ "modernc.org/sqlite"
)

type stubClient struct {
	results []models.RawArticle
}

func (s *stubClient) Name() string { return "stub" }
func (s *stubClient) Ready() bool  { return true }

func (s *stubClient) Search(ctx context.Context, query string, count int) ([]models.RawArticle, error) {
	return s.results, nil
}

func newTestRouter(t *testing.T) (http.Handler, *services.Radar) {
	t.Helper()

	logger := core.NewDiscardLogger()
	db, err := core.OpenSQLite(":memory:", logger)
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	ctx := context.Background()
	if err := migrations.NewManager(db, logger).Migrate(ctx); err != nil {
		t.Fatalf("Failed to migrate: %v", err)
	}

	press := services.NewPressNormalizer(nil)
	factory := services.NewArticleFactory(press, services.NewClassifier(nil), logger)
	client := &stubClient{results: []models.RawArticle{
		{
			Title:        "삼성화재 <b>소송</b> 제기",
			PressRaw:     "yonhap",
			PubDate:      "Mon, 02 Mar 2026 18:00:00 +0900",
			OriginalLink: "https://www.yna.co.kr/view/AKR1",
		},
		{
			Title:        "삼성화재 신상품",
			PubDate:      "Mon, 02 Mar 2026 17:00:00 +0900",
			OriginalLink: "https://www.hankyung.com/article/2",
		},
	}}

	archive := services.NewArchiveService(db, logger, press)
	if err := archive.EnsureFolders(ctx, services.DefaultFolders()); err != nil {
		t.Fatalf("Failed to seed folders: %v", err)
	}

	radar := services.NewRadar(services.Options{
		Keywords: []string{"삼성화재"},
		Location: time.UTC,
	}, services.NewCollector(client, factory, logger, 20), archive, services.NewCorrectionService(db, logger), logger)

	h := NewHandlers(logger, radar)
	r := chi.NewRouter()
	r.Get("/radar/dashboard", h.GetDashboard)
	r.Get("/radar/keywords", h.ListKeywords)
	r.Post("/radar/keywords", h.AddKeyword)
	r.Delete("/radar/keywords", h.RemoveKeywords)
	r.Post("/radar/collect", h.Collect)
	r.Get("/radar/scheduler", h.GetScheduler)
	r.Put("/radar/scheduler", h.UpdateScheduler)
	r.Get("/radar/inbox", h.ListInbox)
	r.Delete("/radar/inbox", h.ClearInbox)
	r.Post("/radar/inbox/promote", h.Promote)
	r.Get("/radar/alerts", h.ListAlerts)
	r.Get("/radar/folders", h.ListFolders)
	r.Post("/radar/folders", h.CreateFolder)
	r.Delete("/radar/folders", h.DeleteFolders)
	r.Get("/radar/saved", h.ListSaved)
	r.Delete("/radar/saved", h.DeleteSaved)
	r.Put("/radar/saved/{id}/press", h.UpdateSavedPress)
	r.Get("/radar/saved/export", h.ExportSaved)
	r.Get("/radar/corrections", h.ListCorrections)
	r.Post("/radar/corrections", h.OpenCorrection)
	r.Put("/radar/corrections/{id}", h.UpdateCorrection)
	r.Get("/radar/corrections/export", h.ExportCorrections)

	return r, radar
}

func do(t *testing.T, handler http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(dst); err != nil {
		t.Fatalf("Failed to decode response %q: %v", rec.Body.String(), err)
	}
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var resp core.ErrorResponse
	decodeBody(t, rec, &resp)
	if resp.Success || resp.Error == nil {
		t.Fatalf("Expected error response, got %s", rec.Body.String())
	}
	return resp.Error.Code
}

func TestKeywordHandlers(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := do(t, router, http.MethodPost, "/radar/keywords", `{"name":"보험"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = do(t, router, http.MethodPost, "/radar/keywords", `{"name":"보험"}`)
	if rec.Code != http.StatusConflict || errorCode(t, rec) != core.ErrCodeConflict {
		t.Errorf("Expected 409 for duplicate keyword, got %d", rec.Code)
	}

	rec = do(t, router, http.MethodPost, "/radar/keywords", `{"name":`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for malformed body, got %d", rec.Code)
	}

	rec = do(t, router, http.MethodDelete, "/radar/keywords", `{"names":["보험"]}`)
	var removed struct {
		Removed  int      `json:"removed"`
		Keywords []string `json:"keywords"`
	}
	decodeBody(t, rec, &removed)
	if removed.Removed != 1 || len(removed.Keywords) != 1 {
		t.Errorf("Unexpected remove response %+v", removed)
	}
}

func TestCollectPromoteAndCorrect(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := do(t, router, http.MethodPost, "/radar/collect", "")
	var result models.CollectResult
	decodeBody(t, rec, &result)
	if rec.Code != http.StatusOK || result.Outcome != models.OutcomeOK || result.Added != 2 {
		t.Fatalf("Unexpected collect response %d %+v", rec.Code, result)
	}

	rec = do(t, router, http.MethodGet, "/radar/inbox?keyword="+url.QueryEscape("삼성화재"), "")
	var inbox models.InboxView
	decodeBody(t, rec, &inbox)
	if len(inbox.Articles) != 2 || inbox.Articles[0].Title != "삼성화재 소송 제기" {
		t.Fatalf("Unexpected inbox %+v", inbox)
	}

	rec = do(t, router, http.MethodGet, "/radar/alerts", "")
	var alerts struct {
		Alerts []models.Alert `json:"alerts"`
	}
	decodeBody(t, rec, &alerts)
	if len(alerts.Alerts) != 1 {
		t.Errorf("Expected 1 alert, got %d", len(alerts.Alerts))
	}

	body := `{"article_ids":["` + inbox.Articles[0].ID + `"],"folder":"위기관리"}`
	rec = do(t, router, http.MethodPost, "/radar/inbox/promote", body)
	var promoted models.PromoteResult
	decodeBody(t, rec, &promoted)
	if len(promoted.Saved) != 1 || promoted.Saved[0].Press != "연합뉴스" {
		t.Fatalf("Unexpected promote response %+v", promoted)
	}
	savedID := promoted.Saved[0].SavedID

	rec = do(t, router, http.MethodPost, "/radar/inbox/promote", `{"article_ids":[],"folder":"위기관리"}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for empty selection, got %d", rec.Code)
	}

	rec = do(t, router, http.MethodPost, "/radar/inbox/promote", `{"article_ids":["x"],"folder":"없는 폴더"}`)
	if rec.Code != http.StatusOK {
		t.Errorf("Expected unknown article to be reported as missing, got %d", rec.Code)
	}

	rec = do(t, router, http.MethodPut, "/radar/saved/"+savedID+"/press", `{"press":"mk"}`)
	var saved models.SavedArticle
	decodeBody(t, rec, &saved)
	if saved.Press != "매일경제" {
		t.Errorf("Expected edited press, got %s", saved.Press)
	}

	rec = do(t, router, http.MethodPut, "/radar/saved/missing/press", `{"press":"mk"}`)
	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for unknown saved article, got %d", rec.Code)
	}

	rec = do(t, router, http.MethodPost, "/radar/corrections", `{"saved_id":"`+savedID+`","memo":"오보"}`)
	var item models.CorrectionItem
	decodeBody(t, rec, &item)
	if rec.Code != http.StatusCreated || item.Status != models.CorrectionRequested {
		t.Fatalf("Unexpected correction response %d %+v", rec.Code, item)
	}

	rec = do(t, router, http.MethodPut, "/radar/corrections/"+item.ID, `{"status":"확인불가","memo":"회신 없음"}`)
	if rec.Code != http.StatusOK {
		t.Errorf("Expected 200 for label status, got %d", rec.Code)
	}

	rec = do(t, router, http.MethodPut, "/radar/corrections/"+item.ID, `{"status":"done"}`)
	if rec.Code != http.StatusBadRequest || errorCode(t, rec) != core.ErrCodeValidation {
		t.Errorf("Expected 400 for unknown status, got %d", rec.Code)
	}

	rec = do(t, router, http.MethodGet, "/radar/corrections?status=unverifiable", "")
	var list struct {
		Corrections []models.CorrectionItem `json:"corrections"`
	}
	decodeBody(t, rec, &list)
	if len(list.Corrections) != 1 || list.Corrections[0].Memo != "회신 없음" {
		t.Errorf("Unexpected correction list %+v", list)
	}

	rec = do(t, router, http.MethodGet, "/radar/corrections?status=later", "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for unknown status filter, got %d", rec.Code)
	}

	rec = do(t, router, http.MethodGet, "/radar/dashboard", "")
	var dashboard models.Dashboard
	decodeBody(t, rec, &dashboard)
	if dashboard.SavedThisWeek != 1 {
		t.Errorf("Expected 1 saved this week, got %d", dashboard.SavedThisWeek)
	}
}

func TestFolderHandlers(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := do(t, router, http.MethodPost, "/radar/folders", `{"name":"캠페인"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d", rec.Code)
	}

	rec = do(t, router, http.MethodPost, "/radar/folders", `{"name":"캠페인"}`)
	if rec.Code != http.StatusConflict {
		t.Errorf("Expected 409 for duplicate folder, got %d", rec.Code)
	}

	rec = do(t, router, http.MethodPost, "/radar/folders", `{"name":" "}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for empty folder, got %d", rec.Code)
	}

	rec = do(t, router, http.MethodDelete, "/radar/folders", `{"names":["캠페인"],"cascade":false}`)
	var result models.DeleteFoldersResult
	decodeBody(t, rec, &result)
	if result.Removed != 1 {
		t.Errorf("Expected 1 folder removed, got %+v", result)
	}

	rec = do(t, router, http.MethodGet, "/radar/folders", "")
	var folders struct {
		Folders []models.Folder `json:"folders"`
	}
	decodeBody(t, rec, &folders)
	if len(folders.Folders) != len(services.DefaultFolders())+1 {
		t.Errorf("Expected defaults plus the fallback folder, got %d", len(folders.Folders))
	}
}

func TestExportHandlers(t *testing.T) {
	router, radar := newTestRouter(t)
	ctx := context.Background()

	radar.Collect(ctx)
	var ids []string
	for _, article := range radar.Inbox("").Articles {
		ids = append(ids, article.ID)
	}
	if _, err := radar.Promote(ctx, models.PromoteRequest{ArticleIDs: ids, Folder: "보도자료"}); err != nil {
		t.Fatalf("Promote failed: %v", err)
	}

	rec := do(t, router, http.MethodGet, "/radar/saved/export?folder="+url.QueryEscape("보도자료"), "")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	if !strings.HasPrefix(rec.Header().Get("Content-Type"), "text/csv") {
		t.Errorf("Unexpected content type %s", rec.Header().Get("Content-Type"))
	}
	if !strings.Contains(rec.Header().Get("Content-Disposition"), "pr_radar_saved_db_") {
		t.Errorf("Unexpected disposition %s", rec.Header().Get("Content-Disposition"))
	}

	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	if len(lines) != 3 {
		t.Errorf("Expected header and 2 rows, got %d lines", len(lines))
	}

	rec = do(t, router, http.MethodGet, "/radar/corrections/export", "")
	if !strings.Contains(rec.Body.String(), "진행상태") {
		t.Errorf("Expected correction header, got %q", rec.Body.String())
	}

	rec = do(t, router, http.MethodDelete, "/radar/saved", `{"saved_ids":[]}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for empty delete, got %d", rec.Code)
	}
}

func TestSchedulerHandlers(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := do(t, router, http.MethodPut, "/radar/scheduler", `{"auto_collect":true}`)
	var resp struct {
		State models.SchedulerState `json:"state"`
	}
	decodeBody(t, rec, &resp)
	if !resp.State.AutoCollect || !resp.State.Ready || resp.State.Provider != "stub" {
		t.Errorf("Unexpected scheduler state %+v", resp.State)
	}

	rec = do(t, router, http.MethodDelete, "/radar/inbox", "")
	if rec.Code != http.StatusOK {
		t.Errorf("Expected 200 for clear, got %d", rec.Code)
	}
}
