package radar

import (
	"context"
	"fmt"
	"net/http"

	"pr-radar/internal/core"
	"pr-radar/internal/features/radar/handlers"
	"pr-radar/internal/features/radar/migrations"
	"pr-radar/internal/features/radar/models"
	"pr-radar/internal/features/radar/services"
	"pr-radar/internal/mailer"
)

// Feature represents the news monitoring feature
type Feature struct {
	*core.BaseFeature
	config           *Config
	migrationMgr     *migrations.Manager
	radar            *services.Radar
	archiveService   *services.ArchiveService
	schedulerService *services.SchedulerService
	handlers         *handlers.Handlers
}

// NewFeature creates a new radar feature
func NewFeature(logger *core.Logger, db *core.Database, config *Config) (*Feature, error) {
	featureLogger := logger.ForFeature("radar")

	location, err := config.Location()
	if err != nil {
		return nil, core.NewConfigurationError("invalid radar timezone", err)
	}

	migrationMgr := migrations.NewManager(db, featureLogger)

	// Article pipeline
	press := services.NewPressNormalizer(config.PressAliases)
	classifier := services.NewClassifier(config.NegativeTerms)
	factory := services.NewArticleFactory(press, classifier, featureLogger)

	fetcherConfig := &models.FetcherConfig{
		Endpoint:     config.SearchEndpoint,
		ClientID:     config.ClientID,
		ClientSecret: config.ClientSecret,
		Timeout:      config.FetchTimeout,
		ResultCount:  config.ResultCount,
	}
	client := services.NewSearchClient(config.Provider, featureLogger, fetcherConfig)
	collector := services.NewCollector(client, factory, featureLogger, config.ResultCount)

	// Durable stores
	archiveService := services.NewArchiveService(db, featureLogger, press)
	correctionService := services.NewCorrectionService(db, featureLogger)

	radar := services.NewRadar(services.Options{
		Keywords:        config.Keywords,
		DefaultKeyword:  config.DefaultKeyword,
		InboxTTL:        config.InboxTTL,
		CollectInterval: config.CollectInterval,
		AutoCollect:     config.AutoCollect,
		Location:        location,
	}, collector, archiveService, correctionService, featureLogger)

	if config.Mail.Enabled() {
		m := mailer.New(config.Mail.SMTP2GOAPIKey, config.Mail.Sender, config.Mail.Endpoint, featureLogger)
		radar.SetNotifier(services.NewEmailNotifier(m, config.Mail.AlertRecipient, location, featureLogger))
	}

	schedulerService := services.NewSchedulerService(radar, featureLogger, &models.SchedulerConfig{
		CheckInterval:   config.CheckInterval,
		CollectInterval: config.CollectInterval,
	})

	feature := &Feature{
		BaseFeature:      core.NewBaseFeature("radar", "PR news monitoring and archive", config.Enabled, logger, db, config),
		config:           config,
		migrationMgr:     migrationMgr,
		radar:            radar,
		archiveService:   archiveService,
		schedulerService: schedulerService,
		handlers:         handlers.NewHandlers(featureLogger, radar),
	}

	return feature, nil
}

// Init initializes the radar feature
func (f *Feature) Init(ctx context.Context) error {
	if err := f.BaseFeature.Init(ctx); err != nil {
		return err
	}

	if err := f.config.Validate(); err != nil {
		return core.NewFeatureError(f.Name(), "invalid configuration", err)
	}

	if err := f.migrationMgr.Migrate(ctx); err != nil {
		return err
	}

	folders := f.config.Folders
	if len(folders) == 0 {
		folders = services.DefaultFolders()
	}
	if err := f.archiveService.EnsureFolders(ctx, folders); err != nil {
		return fmt.Errorf("failed to seed folders: %w", err)
	}

	if err := f.schedulerService.Start(context.WithoutCancel(ctx)); err != nil {
		return fmt.Errorf("failed to start radar scheduler: %w", err)
	}

	f.Logger().Info("Radar feature initialized",
		"provider", f.config.Provider,
		"keywords", f.radar.Keywords(),
		"auto_collect", f.config.AutoCollect,
	)
	return nil
}

// Routes returns the HTTP routes for the radar feature
func (f *Feature) Routes() []core.Route {
	h := f.handlers
	return []core.Route{
		// Overview
		{Method: http.MethodGet, Path: "/radar/dashboard", Handler: h.GetDashboard},

		// Watched keywords
		{Method: http.MethodGet, Path: "/radar/keywords", Handler: h.ListKeywords},
		{Method: http.MethodPost, Path: "/radar/keywords", Handler: h.AddKeyword, Admin: true},
		{Method: http.MethodDelete, Path: "/radar/keywords", Handler: h.RemoveKeywords, Admin: true},

		// Collection and scheduling
		{Method: http.MethodPost, Path: "/radar/collect", Handler: h.Collect, Admin: true},
		{Method: http.MethodGet, Path: "/radar/scheduler", Handler: h.GetScheduler},
		{Method: http.MethodPut, Path: "/radar/scheduler", Handler: h.UpdateScheduler, Admin: true},

		// Inbox and alerts
		{Method: http.MethodGet, Path: "/radar/inbox", Handler: h.ListInbox},
		{Method: http.MethodDelete, Path: "/radar/inbox", Handler: h.ClearInbox, Admin: true},
		{Method: http.MethodPost, Path: "/radar/inbox/promote", Handler: h.Promote, Admin: true},
		{Method: http.MethodGet, Path: "/radar/alerts", Handler: h.ListAlerts},

		// Archive
		{Method: http.MethodGet, Path: "/radar/folders", Handler: h.ListFolders},
		{Method: http.MethodPost, Path: "/radar/folders", Handler: h.CreateFolder, Admin: true},
		{Method: http.MethodDelete, Path: "/radar/folders", Handler: h.DeleteFolders, Admin: true},
		{Method: http.MethodGet, Path: "/radar/saved", Handler: h.ListSaved},
		{Method: http.MethodDelete, Path: "/radar/saved", Handler: h.DeleteSaved, Admin: true},
		{Method: http.MethodPut, Path: "/radar/saved/{id}/press", Handler: h.UpdateSavedPress, Admin: true},
		{Method: http.MethodGet, Path: "/radar/saved/export", Handler: h.ExportSaved},

		// Corrections
		{Method: http.MethodGet, Path: "/radar/corrections", Handler: h.ListCorrections},
		{Method: http.MethodPost, Path: "/radar/corrections", Handler: h.OpenCorrection, Admin: true},
		{Method: http.MethodPut, Path: "/radar/corrections/{id}", Handler: h.UpdateCorrection, Admin: true},
		{Method: http.MethodGet, Path: "/radar/corrections/export", Handler: h.ExportCorrections},
	}
}

// Shutdown gracefully shuts down the radar feature
func (f *Feature) Shutdown(ctx context.Context) error {
	f.Logger().Info("Shutting down radar feature")

	if f.schedulerService != nil {
		if err := f.schedulerService.Stop(ctx); err != nil {
			f.Logger().Error("Failed to stop radar scheduler", "error", err)
		}
	}

	return f.BaseFeature.Shutdown(ctx)
}

// Radar returns the application context
func (f *Feature) Radar() *services.Radar {
	return f.radar
}

// GetMigrationManager returns the migration manager for this feature
func (f *Feature) GetMigrationManager() *migrations.Manager {
	return f.migrationMgr
}

// GetSchedulerService returns the scheduler service
func (f *Feature) GetSchedulerService() *services.SchedulerService {
	return f.schedulerService
}
