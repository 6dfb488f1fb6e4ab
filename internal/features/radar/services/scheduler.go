package services

import (
	"context"
	"sync"
	"time"

	"pr-radar/internal/core"
	"pr-radar/internal/features/radar/models"
)

// SchedulerService drives Radar.Tick on a fixed check interval
type SchedulerService struct {
	radar    *Radar
	logger   *core.Logger
	config   *models.SchedulerConfig
	stopChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewSchedulerService creates a new scheduler service
func NewSchedulerService(radar *Radar, logger *core.Logger, config *models.SchedulerConfig) *SchedulerService {
	if config == nil {
		config = models.DefaultSchedulerConfig()
	}

	return &SchedulerService{
		radar:    radar,
		logger:   logger,
		config:   config,
		stopChan: make(chan struct{}),
	}
}

// Start begins the scheduler
func (s *SchedulerService) Start(ctx context.Context) error {
	s.logger.Info("Starting radar scheduler",
		"check_interval", s.config.CheckInterval,
		"collect_interval", s.config.CollectInterval,
	)

	s.wg.Add(1)
	go s.tickLoop(ctx)

	return nil
}

// Stop gracefully stops the scheduler
func (s *SchedulerService) Stop(ctx context.Context) error {
	s.logger.Info("Stopping radar scheduler")
	s.stopOnce.Do(func() { close(s.stopChan) })

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// tickLoop runs one tick immediately and then one per check interval
func (s *SchedulerService) tickLoop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.config.CheckInterval)
	defer ticker.Stop()

	s.tick(ctx)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Scheduler context cancelled")
			return
		case <-s.stopChan:
			s.logger.Info("Scheduler stop signal received")
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *SchedulerService) tick(ctx context.Context) {
	report := s.radar.Tick(ctx)
	if report.Collection != nil {
		s.logger.Info("Scheduled collection finished",
			"outcome", report.Collection.Outcome,
			"added", report.Collection.Added,
		)
	}
}

// RunNow performs one tick immediately
func (s *SchedulerService) RunNow(ctx context.Context) models.TickReport {
	return s.radar.Tick(ctx)
}
