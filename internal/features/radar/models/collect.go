package models

import "time"

// CollectOutcome classifies a collection run
type CollectOutcome string

const (
	OutcomeOK            CollectOutcome = "ok"
	OutcomeNoCredentials CollectOutcome = "no_credentials"
	OutcomeUpstreamError CollectOutcome = "upstream_error"
)

// CollectResult summarizes one collection run across all watched keywords
type CollectResult struct {
	Outcome        CollectOutcome `json:"outcome"`
	Provider       string         `json:"provider"`
	Keywords       []string       `json:"keywords"`
	Fetched        int            `json:"fetched"`
	Added          int            `json:"added"`
	FailedKeywords []string       `json:"failed_keywords,omitempty"`
	Error          string         `json:"error,omitempty"`
	StartedAt      time.Time      `json:"started_at"`
	FinishedAt     time.Time      `json:"finished_at"`
}

// TickReport describes what one scheduler tick did
type TickReport struct {
	At         time.Time      `json:"at"`
	Purged     int            `json:"purged"`
	Collection *CollectResult `json:"collection,omitempty"`
}
