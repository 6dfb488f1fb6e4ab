package models

import (
	"fmt"
	"strings"
	"time"
)

// CorrectionStatus is the progress of a correction request
type CorrectionStatus string

const (
	CorrectionRequested    CorrectionStatus = "requested"
	CorrectionResolved     CorrectionStatus = "resolved"
	CorrectionUnverifiable CorrectionStatus = "unverifiable"
)

var correctionLabels = map[CorrectionStatus]string{
	CorrectionRequested:    "요청됨",
	CorrectionResolved:     "수정완료",
	CorrectionUnverifiable: "확인불가",
}

// Label returns the Korean display label for the status
func (s CorrectionStatus) Label() string {
	if label, ok := correctionLabels[s]; ok {
		return label
	}
	return string(s)
}

// Valid reports whether s is one of the known statuses
func (s CorrectionStatus) Valid() bool {
	_, ok := correctionLabels[s]
	return ok
}

// ParseCorrectionStatus accepts either the status code or its display label
func ParseCorrectionStatus(value string) (CorrectionStatus, error) {
	value = strings.TrimSpace(value)
	for status, label := range correctionLabels {
		if strings.EqualFold(value, string(status)) || value == label {
			return status, nil
		}
	}
	return "", fmt.Errorf("unknown correction status %q", value)
}

// CorrectionItem tracks a correction request against an archived article
type CorrectionItem struct {
	ID          string           `json:"id"`
	ArticleID   string           `json:"article_id"`
	SavedID     string           `json:"saved_id"`
	Press       string           `json:"press"`
	Title       string           `json:"title"`
	Link        string           `json:"link"`
	PublishedAt time.Time        `json:"published_at"`
	Status      CorrectionStatus `json:"status"`
	Memo        string           `json:"memo"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

// CorrectionCreate opens a correction request for a saved article
type CorrectionCreate struct {
	SavedID string `json:"saved_id"`
	Memo    string `json:"memo"`
}

// CorrectionUpdate overwrites status and memo
type CorrectionUpdate struct {
	Status string `json:"status"`
	Memo   string `json:"memo"`
}
