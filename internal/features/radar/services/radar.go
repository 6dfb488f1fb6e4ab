package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"pr-radar/internal/core"
	"pr-radar/internal/features/radar/models"
)

// Options configures the radar application context
type Options struct {
	Keywords        []string
	DefaultKeyword  string
	InboxTTL        time.Duration
	CollectInterval time.Duration
	AutoCollect     bool
	Location        *time.Location
	Clock           func() time.Time
}

// Radar is the application context shared by the scheduler and the HTTP
// handlers. mu guards the keyword list, inbox, alerts and scheduler clock and
// serializes archive and correction mutations. collectMu keeps manual and
// scheduled collection runs from overlapping.
type Radar struct {
	mu        sync.Mutex
	collectMu sync.Mutex

	keywords       []string
	defaultKeyword string
	inbox          *Inbox
	alerts         []models.Alert
	autoCollect    bool
	lastRunAt      time.Time
	lastResult     *models.CollectResult

	ttl             time.Duration
	collectInterval time.Duration
	location        *time.Location
	clock           func() time.Time

	collector   *Collector
	archive     *ArchiveService
	corrections *CorrectionService
	notifier    AlertNotifier
	logger      *core.Logger
}

// NewRadar creates the application context. The scheduler's reference point
// starts at creation time, so the first automatic run happens one interval later.
func NewRadar(opts Options, collector *Collector, archive *ArchiveService, corrections *CorrectionService, logger *core.Logger) *Radar {
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.InboxTTL <= 0 {
		opts.InboxTTL = 7 * 24 * time.Hour
	}
	if opts.CollectInterval <= 0 {
		opts.CollectInterval = time.Hour
	}

	r := &Radar{
		defaultKeyword:  strings.TrimSpace(opts.DefaultKeyword),
		inbox:           NewInbox(),
		alerts:          []models.Alert{},
		autoCollect:     opts.AutoCollect,
		lastRunAt:       opts.Clock(),
		ttl:             opts.InboxTTL,
		collectInterval: opts.CollectInterval,
		location:        opts.Location,
		clock:           opts.Clock,
		collector:       collector,
		archive:         archive,
		corrections:     corrections,
		logger:          logger,
	}

	for _, keyword := range opts.Keywords {
		if err := r.AddKeyword(keyword); err != nil {
			logger.Debug("Skipping configured keyword", "keyword", keyword, "error", err)
		}
	}

	return r
}

// SetNotifier registers a notifier for newly collected negative articles
func (r *Radar) SetNotifier(notifier AlertNotifier) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notifier = notifier
}

// Location returns the time zone used for dates shown to users
func (r *Radar) Location() *time.Location {
	return r.location
}

// Now returns the current time from the radar clock
func (r *Radar) Now() time.Time {
	return r.clock()
}

// Keywords returns the watched keywords in insertion order
func (r *Radar) Keywords() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string{}, r.keywords...)
}

// AddKeyword starts watching a keyword
func (r *Radar) AddKeyword(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrEmptyName
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, keyword := range r.keywords {
		if keyword == name {
			return fmt.Errorf("%w: %s", ErrDuplicateKeyword, name)
		}
	}

	r.keywords = append(r.keywords, name)
	r.logger.Info("Watching keyword", "keyword", name)
	return nil
}

// RemoveKeywords stops watching the given keywords and returns how many were removed
func (r *Radar) RemoveKeywords(names []string) int {
	drop := make(map[string]bool, len(names))
	for _, name := range names {
		drop[strings.TrimSpace(name)] = true
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	kept := make([]string, 0, len(r.keywords))
	for _, keyword := range r.keywords {
		if !drop[keyword] {
			kept = append(kept, keyword)
		}
	}

	removed := len(r.keywords) - len(kept)
	r.keywords = kept
	return removed
}

// activeKeywordsLocked falls back to the default keyword when none are watched
func (r *Radar) activeKeywordsLocked() []string {
	if len(r.keywords) > 0 {
		return append([]string{}, r.keywords...)
	}
	if r.defaultKeyword != "" {
		return []string{r.defaultKeyword}
	}
	return nil
}

// Collect runs a manual collection. It does not move the scheduler's reference point.
func (r *Radar) Collect(ctx context.Context) models.CollectResult {
	return r.runCollection(ctx)
}

func (r *Radar) runCollection(ctx context.Context) models.CollectResult {
	r.collectMu.Lock()
	defer r.collectMu.Unlock()

	r.mu.Lock()
	keywords := r.activeKeywordsLocked()
	seen := r.inbox.Links()
	notifier := r.notifier
	r.mu.Unlock()

	var negatives []models.Article
	result := r.collector.Run(ctx, keywords, seen, func(keyword string, batch []models.Article) int {
		r.mu.Lock()
		defer r.mu.Unlock()

		kept := 0
		for _, article := range batch {
			if !r.inbox.Insert(article) {
				continue
			}
			kept++
			if article.IsNegative {
				negatives = append(negatives, article)
			}
		}
		if kept > 0 {
			r.refreshAlertsLocked()
		}
		return kept
	})

	r.mu.Lock()
	r.lastResult = &result
	r.mu.Unlock()

	if notifier != nil && len(negatives) > 0 {
		if err := notifier.NotifyNegative(ctx, negatives); err != nil {
			r.logger.Warn("Failed to send negative alert notification", "error", err)
		}
	}

	return result
}

// Tick is one scheduler step: collect when due, then purge expired inbox
// articles and recompute alerts. A due run moves the reference point to now
// whether or not it succeeded.
func (r *Radar) Tick(ctx context.Context) models.TickReport {
	now := r.clock()
	report := models.TickReport{At: now}

	if r.collectionDue(now) {
		result := r.runCollection(ctx)
		report.Collection = &result

		r.mu.Lock()
		r.lastRunAt = now
		r.mu.Unlock()
	}

	r.mu.Lock()
	report.Purged = r.inbox.PurgeExpired(r.clock(), r.ttl)
	r.refreshAlertsLocked()
	r.mu.Unlock()

	if report.Purged > 0 {
		r.logger.Info("Purged expired inbox articles", "count", report.Purged)
	}
	return report
}

func (r *Radar) collectionDue(now time.Time) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.autoCollect || !r.collector.Ready() {
		return false
	}
	return now.Sub(r.lastRunAt) >= r.collectInterval
}

func (r *Radar) refreshAlertsLocked() {
	r.alerts = DeriveAlerts(r.inbox.List(""))
}

// SchedulerState returns the automatic collection state
func (r *Radar) SchedulerState() models.SchedulerState {
	r.mu.Lock()
	defer r.mu.Unlock()

	return models.SchedulerState{
		AutoCollect:     r.autoCollect,
		Ready:           r.collector.Ready(),
		Provider:        r.collector.Provider(),
		LastRunAt:       r.lastRunAt,
		NextRunAt:       r.lastRunAt.Add(r.collectInterval),
		CollectInterval: r.collectInterval,
	}
}

// SetAutoCollect enables or disables automatic collection
func (r *Radar) SetAutoCollect(enabled bool) models.SchedulerState {
	r.mu.Lock()
	r.autoCollect = enabled
	r.mu.Unlock()

	r.logger.Info("Automatic collection toggled", "enabled", enabled)
	return r.SchedulerState()
}

// LastCollection returns the most recent collection result, if any
func (r *Radar) LastCollection() *models.CollectResult {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.lastResult == nil {
		return nil
	}
	result := *r.lastResult
	return &result
}

// Inbox lists staged articles newest-published first, optionally for one keyword
func (r *Radar) Inbox(keyword string) models.InboxView {
	r.mu.Lock()
	defer r.mu.Unlock()

	articles := SortByPublished(r.inbox.List(keyword))
	return models.InboxView{
		Keyword:  keyword,
		Total:    r.inbox.Len(),
		Articles: articles,
	}
}

// ClearInbox removes every staged article
func (r *Radar) ClearInbox() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	removed := r.inbox.Clear()
	r.refreshAlertsLocked()
	r.logger.Info("Cleared inbox", "removed", removed)
	return removed
}

// Alerts returns the current alert feed
func (r *Radar) Alerts() []models.Alert {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.Alert{}, r.alerts...)
}

// Promote copies inbox articles into a folder. Already archived articles are
// counted as skipped and unknown ids are reported as missing.
func (r *Radar) Promote(ctx context.Context, req models.PromoteRequest) (*models.PromoteResult, error) {
	folder := strings.TrimSpace(req.Folder)
	if folder == "" {
		return nil, ErrEmptyName
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	result := &models.PromoteResult{Folder: folder, Saved: []models.SavedArticle{}}
	seen := make(map[string]bool, len(req.ArticleIDs))
	for _, id := range req.ArticleIDs {
		if seen[id] {
			continue
		}
		seen[id] = true

		article, ok := r.inbox.Get(id)
		if !ok {
			result.Missing = append(result.Missing, id)
			continue
		}

		saved, created, err := r.archive.Promote(ctx, article, folder, req.PressOverrides[id])
		if err != nil {
			return nil, err
		}
		if !created {
			result.Skipped++
			continue
		}

		r.inbox.SetPress(id, saved.Press)
		result.Saved = append(result.Saved, *saved)
	}

	r.logger.Info("Promotion finished", "folder", folder, "saved", len(result.Saved), "skipped", result.Skipped)
	return result, nil
}

// Folders returns the archive folders in creation order
func (r *Radar) Folders(ctx context.Context) ([]models.Folder, error) {
	return r.archive.ListFolders(ctx)
}

// CreateFolder adds an archive folder
func (r *Radar) CreateFolder(ctx context.Context, name string) (*models.Folder, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.archive.CreateFolder(ctx, name)
}

// DeleteFolders removes archive folders
func (r *Radar) DeleteFolders(ctx context.Context, req models.DeleteFoldersRequest) (*models.DeleteFoldersResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.archive.DeleteFolders(ctx, req.Names, req.Cascade)
}

// Saved lists archived articles newest-saved first
func (r *Radar) Saved(ctx context.Context, folder string) ([]models.SavedArticle, error) {
	return r.archive.ListSaved(ctx, folder)
}

// DeleteSaved removes archived articles
func (r *Radar) DeleteSaved(ctx context.Context, savedIDs []string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.archive.DeleteSaved(ctx, savedIDs)
}

// UpdateSavedPress edits the publisher of an archived article
func (r *Radar) UpdateSavedPress(ctx context.Context, savedID, press string) (*models.SavedArticle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.archive.UpdateSavedPress(ctx, savedID, press)
}

// OpenCorrection files a correction request for an archived article
func (r *Radar) OpenCorrection(ctx context.Context, req models.CorrectionCreate) (*models.CorrectionItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	saved, err := r.archive.GetSaved(ctx, req.SavedID)
	if err != nil {
		return nil, err
	}
	return r.corrections.Open(ctx, saved, strings.TrimSpace(req.Memo))
}

// UpdateCorrection overwrites a correction request's status and memo
func (r *Radar) UpdateCorrection(ctx context.Context, id string, req models.CorrectionUpdate) (*models.CorrectionItem, error) {
	status, err := models.ParseCorrectionStatus(req.Status)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidStatus, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	return r.corrections.Update(ctx, id, status, req.Memo)
}

// Corrections lists correction requests newest-published first
func (r *Radar) Corrections(ctx context.Context, status models.CorrectionStatus) ([]models.CorrectionItem, error) {
	return r.corrections.List(ctx, status)
}

// Dashboard summarizes today's coverage and open work
func (r *Radar) Dashboard(ctx context.Context) (*models.Dashboard, error) {
	now := r.clock().In(r.location)
	year, month, day := now.Date()

	r.mu.Lock()
	collectedToday := 0
	for _, article := range r.inbox.List("") {
		y, m, d := article.PublishedAt.In(r.location).Date()
		if y == year && m == month && d == day {
			collectedToday++
		}
	}
	alerts := r.alerts
	if len(alerts) > 5 {
		alerts = alerts[:5]
	}
	dashboard := &models.Dashboard{
		CollectedToday: collectedToday,
		RecentAlerts:   append([]models.Alert{}, alerts...),
		RecentArticles: r.inbox.Recent(5),
	}
	r.mu.Unlock()

	savedThisWeek, err := r.archive.CountSavedSince(ctx, now.Add(-7*24*time.Hour))
	if err != nil {
		return nil, err
	}
	pending, err := r.corrections.CountByStatus(ctx, models.CorrectionRequested)
	if err != nil {
		return nil, err
	}

	dashboard.SavedThisWeek = savedThisWeek
	dashboard.CorrectionsPending = pending
	return dashboard, nil
}

// SavedExport projects archived articles for export
func (r *Radar) SavedExport(ctx context.Context, folder string) (Table, error) {
	saved, err := r.archive.ListSaved(ctx, folder)
	if err != nil {
		return Table{}, err
	}
	return SavedTable(saved, r.location), nil
}

// CorrectionExport projects correction requests for export
func (r *Radar) CorrectionExport(ctx context.Context) (Table, error) {
	items, err := r.corrections.List(ctx, "")
	if err != nil {
		return Table{}, err
	}
	return CorrectionTable(items, r.location), nil
}
