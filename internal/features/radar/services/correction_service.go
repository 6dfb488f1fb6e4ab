package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"pr-radar/internal/core"
	"pr-radar/internal/features/radar/models"
)

var correctionColumns = []string{
	"id", "article_id", "saved_id", "press", "title", "link",
	"published_at", "status", "memo", "created_at", "updated_at",
}

// CorrectionService tracks correction requests against archived articles
type CorrectionService struct {
	db     *core.Database
	logger *core.Logger
	clock  func() time.Time
	newID  func() string
}

// NewCorrectionService creates a new correction service
func NewCorrectionService(db *core.Database, logger *core.Logger) *CorrectionService {
	return &CorrectionService{
		db:     db,
		logger: logger,
		clock:  time.Now,
		newID:  uuid.NewString,
	}
}

// WithClock replaces the time source used for created_at and updated_at
func (s *CorrectionService) WithClock(clock func() time.Time) *CorrectionService {
	s.clock = clock
	return s
}

// Open creates a correction request in the requested state
func (s *CorrectionService) Open(ctx context.Context, saved *models.SavedArticle, memo string) (*models.CorrectionItem, error) {
	now := s.clock().UTC()
	item := &models.CorrectionItem{
		ID:          s.newID(),
		ArticleID:   saved.ArticleID,
		SavedID:     saved.SavedID,
		Press:       saved.Press,
		Title:       saved.Title,
		Link:        saved.Link,
		PublishedAt: saved.PublishedAt.UTC(),
		Status:      models.CorrectionRequested,
		Memo:        memo,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	query, args, err := sq.Insert("radar_corrections").
		Columns(correctionColumns...).
		Values(item.ID, item.ArticleID, item.SavedID, item.Press, item.Title, item.Link,
			item.PublishedAt, string(item.Status), item.Memo, item.CreatedAt, item.UpdatedAt).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build insert query: %w", err)
	}

	if _, err := s.db.ExecWithTimeout(ctx, query, args...); err != nil {
		return nil, fmt.Errorf("failed to create correction request: %w", err)
	}

	s.logger.Info("Opened correction request", "id", item.ID, "saved_id", saved.SavedID)
	return item, nil
}

// Update overwrites status and memo. Any status may follow any other.
func (s *CorrectionService) Update(ctx context.Context, id string, status models.CorrectionStatus, memo string) (*models.CorrectionItem, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidStatus, status)
	}

	query, args, err := sq.Update("radar_corrections").
		Set("status", string(status)).
		Set("memo", memo).
		Set("updated_at", s.clock().UTC()).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build update query: %w", err)
	}

	res, err := s.db.ExecWithTimeout(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to update correction request: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return nil, fmt.Errorf("%w: %s", ErrCorrectionNotFound, id)
	}

	s.logger.Info("Updated correction request", "id", id, "status", status)
	return s.Get(ctx, id)
}

// Get returns one correction request
func (s *CorrectionService) Get(ctx context.Context, id string) (*models.CorrectionItem, error) {
	query, args, err := sq.Select(correctionColumns...).
		From("radar_corrections").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build correction query: %w", err)
	}

	item, err := scanCorrection(s.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrCorrectionNotFound, id)
		}
		return nil, err
	}
	return item, nil
}

// List returns correction requests newest-published first, optionally in one status
func (s *CorrectionService) List(ctx context.Context, status models.CorrectionStatus) ([]models.CorrectionItem, error) {
	builder := sq.Select(correctionColumns...).
		From("radar_corrections").
		OrderBy("published_at DESC", "created_at DESC")
	if status != "" {
		builder = builder.Where(sq.Eq{"status": string(status)})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build correction query: %w", err)
	}

	rows, cancel, err := s.db.QueryWithTimeout(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list correction requests: %w", err)
	}
	defer cancel()
	defer rows.Close()

	items := make([]models.CorrectionItem, 0)
	for rows.Next() {
		item, err := scanCorrection(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *item)
	}

	return items, rows.Err()
}

// CountByStatus returns how many requests are in status
func (s *CorrectionService) CountByStatus(ctx context.Context, status models.CorrectionStatus) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM radar_corrections WHERE status = ?", string(status)).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count correction requests: %w", err)
	}
	return count, nil
}

func scanCorrection(row rowScanner) (*models.CorrectionItem, error) {
	var item models.CorrectionItem
	var status string
	err := row.Scan(
		&item.ID,
		&item.ArticleID,
		&item.SavedID,
		&item.Press,
		&item.Title,
		&item.Link,
		&item.PublishedAt,
		&status,
		&item.Memo,
		&item.CreatedAt,
		&item.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan correction request: %w", err)
	}

	item.Status = models.CorrectionStatus(status)
	return &item, nil
}
