package models

import "time"

// Folder is a named section of the archive
type Folder struct {
	ID        int       `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// SavedArticle is a snapshot of an article promoted into the archive
type SavedArticle struct {
	SavedID      string    `json:"saved_id"`
	ArticleID    string    `json:"article_id"`
	Folder       string    `json:"folder"`
	SavedAt      time.Time `json:"saved_at"`
	Title        string    `json:"title"`
	Press        string    `json:"press"`
	PublishedAt  time.Time `json:"published_at"`
	Link         string    `json:"link"`
	Summary      string    `json:"summary"`
	NegativeHits string    `json:"negative_hits"`
}

// PromoteRequest moves a set of inbox articles into a folder.
// PressOverrides maps article id to an edited publisher name.
type PromoteRequest struct {
	ArticleIDs     []string          `json:"article_ids"`
	Folder         string            `json:"folder"`
	PressOverrides map[string]string `json:"press_overrides,omitempty"`
}

// PromoteResult reports what a promotion did
type PromoteResult struct {
	Folder  string         `json:"folder"`
	Saved   []SavedArticle `json:"saved"`
	Skipped int            `json:"skipped"`
	Missing []string       `json:"missing,omitempty"`
}

// DeleteFoldersRequest removes folders, cascading to their articles or reassigning them
type DeleteFoldersRequest struct {
	Names   []string `json:"names"`
	Cascade bool     `json:"cascade"`
}

// DeleteFoldersResult reports the effect of a folder deletion
type DeleteFoldersResult struct {
	Removed      int   `json:"removed"`
	Deleted      int64 `json:"deleted_articles"`
	Reassigned   int64 `json:"reassigned_articles"`
	FallbackUsed bool  `json:"fallback_used"`
}
