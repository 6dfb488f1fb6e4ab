package models

import (
	"time"
)

// SchedulerConfig holds configuration for the scheduler service
type SchedulerConfig struct {
	CheckInterval   time.Duration `json:"check_interval"`
	CollectInterval time.Duration `json:"collect_interval"`
}

// DefaultSchedulerConfig returns default scheduler configuration
func DefaultSchedulerConfig() *SchedulerConfig {
	return &SchedulerConfig{
		CheckInterval:   1 * time.Minute, // Purge and due-check every minute
		CollectInterval: 1 * time.Hour,   // Collect every hour
	}
}

// SchedulerState is the runtime state of automatic collection
type SchedulerState struct {
	AutoCollect     bool          `json:"auto_collect"`
	Ready           bool          `json:"ready"`
	Provider        string        `json:"provider"`
	LastRunAt       time.Time     `json:"last_run_at"`
	NextRunAt       time.Time     `json:"next_run_at"`
	CollectInterval time.Duration `json:"collect_interval"`
}

// SchedulerUpdate toggles automatic collection
type SchedulerUpdate struct {
	AutoCollect bool `json:"auto_collect"`
}

// FetcherConfig holds configuration for the search-feed clients
type FetcherConfig struct {
	Endpoint     string
	ClientID     string
	ClientSecret string
	UserAgent    string
	Timeout      time.Duration
	ResultCount  int
}
