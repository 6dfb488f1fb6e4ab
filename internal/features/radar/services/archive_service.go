package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"pr-radar/internal/core"
	"pr-radar/internal/features/radar/models"
)

// FallbackFolder receives articles from deleted folders and replaces an empty folder set
const FallbackFolder = "미분류"

// DefaultFolders returns the folders created for a new archive
func DefaultFolders() []string {
	return []string{"보도자료", "기획기사", "위기관리", "경쟁사 동향"}
}

var savedColumns = []string{
	"saved_id", "article_id", "folder", "saved_at", "title",
	"press", "published_at", "link", "summary", "negative_hits",
}

type rowScanner interface {
	Scan(dest ...any) error
}

// ArchiveService handles folders and promoted articles
type ArchiveService struct {
	db     *core.Database
	logger *core.Logger
	press  *PressNormalizer
	clock  func() time.Time
	newID  func() string
}

// NewArchiveService creates a new archive service
func NewArchiveService(db *core.Database, logger *core.Logger, press *PressNormalizer) *ArchiveService {
	return &ArchiveService{
		db:     db,
		logger: logger,
		press:  press,
		clock:  time.Now,
		newID:  uuid.NewString,
	}
}

// WithClock replaces the time source used for saved_at and folder creation
func (s *ArchiveService) WithClock(clock func() time.Time) *ArchiveService {
	s.clock = clock
	return s
}

// EnsureFolders seeds the folder set when it is empty
func (s *ArchiveService) EnsureFolders(ctx context.Context, names []string) error {
	if len(names) == 0 {
		names = []string{FallbackFolder}
	}

	return s.db.Transaction(ctx, func(tx *sql.Tx) error {
		count, err := countFolders(ctx, tx)
		if err != nil {
			return err
		}
		if count > 0 {
			return nil
		}

		for _, name := range names {
			name = strings.TrimSpace(name)
			if name == "" {
				continue
			}
			if err := insertFolder(ctx, tx, name, s.clock()); err != nil {
				return err
			}
		}

		s.logger.Info("Seeded archive folders", "count", len(names))
		return nil
	})
}

// ListFolders returns folders in creation order
func (s *ArchiveService) ListFolders(ctx context.Context) ([]models.Folder, error) {
	query, args, err := sq.Select("id", "name", "created_at").
		From("radar_folders").
		OrderBy("id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build folder query: %w", err)
	}

	rows, cancel, err := s.db.QueryWithTimeout(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list folders: %w", err)
	}
	defer cancel()
	defer rows.Close()

	folders := make([]models.Folder, 0)
	for rows.Next() {
		var folder models.Folder
		if err := rows.Scan(&folder.ID, &folder.Name, &folder.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan folder: %w", err)
		}
		folders = append(folders, folder)
	}

	return folders, rows.Err()
}

// FolderNames returns folder names in creation order
func (s *ArchiveService) FolderNames(ctx context.Context) ([]string, error) {
	folders, err := s.ListFolders(ctx)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(folders))
	for _, folder := range folders {
		names = append(names, folder.Name)
	}
	return names, nil
}

// CreateFolder appends a folder. Names are matched exactly, case included.
func (s *ArchiveService) CreateFolder(ctx context.Context, name string) (*models.Folder, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyName
	}

	var folder *models.Folder
	err := s.db.Transaction(ctx, func(tx *sql.Tx) error {
		exists, err := folderExists(ctx, tx, name)
		if err != nil {
			return err
		}
		if exists {
			return fmt.Errorf("%w: %s", ErrDuplicateFolder, name)
		}

		createdAt := s.clock().UTC()
		result, err := tx.ExecContext(ctx,
			"INSERT INTO radar_folders (name, created_at) VALUES (?, ?)", name, createdAt)
		if err != nil {
			return fmt.Errorf("failed to create folder: %w", err)
		}

		id, err := result.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to read folder id: %w", err)
		}

		folder = &models.Folder{ID: int(id), Name: name, CreatedAt: createdAt}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Created folder", "name", name)
	return folder, nil
}

// DeleteFolders removes folders. With cascade their articles are deleted,
// otherwise they move to the fallback folder, which is then kept. An emptied
// folder set is replaced by the fallback folder.
func (s *ArchiveService) DeleteFolders(ctx context.Context, names []string, cascade bool) (*models.DeleteFoldersResult, error) {
	targets := make([]string, 0, len(names))
	for _, name := range names {
		if name = strings.TrimSpace(name); name != "" {
			targets = append(targets, name)
		}
	}
	if len(targets) == 0 {
		return nil, ErrEmptyName
	}

	result := &models.DeleteFoldersResult{}
	err := s.db.Transaction(ctx, func(tx *sql.Tx) error {
		if cascade {
			query, args, err := sq.Delete("radar_saved_articles").
				Where(sq.Eq{"folder": targets}).
				ToSql()
			if err != nil {
				return fmt.Errorf("failed to build delete query: %w", err)
			}
			res, err := tx.ExecContext(ctx, query, args...)
			if err != nil {
				return fmt.Errorf("failed to delete folder articles: %w", err)
			}
			result.Deleted, _ = res.RowsAffected()
		} else {
			exists, err := folderExists(ctx, tx, FallbackFolder)
			if err != nil {
				return err
			}
			if !exists {
				if err := insertFolder(ctx, tx, FallbackFolder, s.clock()); err != nil {
					return err
				}
				result.FallbackUsed = true
			}

			query, args, err := sq.Update("radar_saved_articles").
				Set("folder", FallbackFolder).
				Where(sq.Eq{"folder": targets}).
				ToSql()
			if err != nil {
				return fmt.Errorf("failed to build reassign query: %w", err)
			}
			res, err := tx.ExecContext(ctx, query, args...)
			if err != nil {
				return fmt.Errorf("failed to reassign folder articles: %w", err)
			}
			result.Reassigned, _ = res.RowsAffected()

			targets = without(targets, FallbackFolder)
		}

		if len(targets) > 0 {
			query, args, err := sq.Delete("radar_folders").
				Where(sq.Eq{"name": targets}).
				ToSql()
			if err != nil {
				return fmt.Errorf("failed to build folder delete query: %w", err)
			}
			res, err := tx.ExecContext(ctx, query, args...)
			if err != nil {
				return fmt.Errorf("failed to delete folders: %w", err)
			}
			removed, _ := res.RowsAffected()
			result.Removed = int(removed)
		}

		count, err := countFolders(ctx, tx)
		if err != nil {
			return err
		}
		if count == 0 {
			if err := insertFolder(ctx, tx, FallbackFolder, s.clock()); err != nil {
				return err
			}
			result.FallbackUsed = true
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Deleted folders",
		"names", names,
		"cascade", cascade,
		"removed", result.Removed,
		"deleted_articles", result.Deleted,
		"reassigned_articles", result.Reassigned,
	)
	return result, nil
}

// Promote snapshots an article into folder. It reports false without error when
// the article is already archived. A non-empty pressOverride is normalized and
// replaces the article's publisher.
func (s *ArchiveService) Promote(ctx context.Context, article models.Article, folder, pressOverride string) (*models.SavedArticle, bool, error) {
	press := article.Press
	if override := strings.TrimSpace(pressOverride); override != "" {
		press = override
	}

	saved := &models.SavedArticle{
		SavedID:      s.newID(),
		ArticleID:    article.ID,
		Folder:       folder,
		SavedAt:      s.clock().UTC(),
		Title:        article.Title,
		Press:        s.press.Normalize(press, article.Link),
		PublishedAt:  article.PublishedAt.UTC(),
		Link:         article.Link,
		Summary:      article.Summary,
		NegativeHits: article.HitsLabel(),
	}

	created := false
	err := s.db.Transaction(ctx, func(tx *sql.Tx) error {
		exists, err := folderExists(ctx, tx, folder)
		if err != nil {
			return err
		}
		if !exists {
			return fmt.Errorf("%w: %s", ErrFolderNotFound, folder)
		}

		query, args, err := sq.Insert("radar_saved_articles").
			Columns(savedColumns...).
			Values(saved.SavedID, saved.ArticleID, saved.Folder, saved.SavedAt, saved.Title,
				saved.Press, saved.PublishedAt, saved.Link, saved.Summary, saved.NegativeHits).
			Suffix("ON CONFLICT(article_id) DO NOTHING").
			ToSql()
		if err != nil {
			return fmt.Errorf("failed to build insert query: %w", err)
		}

		res, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("failed to save article: %w", err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to read insert result: %w", err)
		}
		created = affected > 0
		return nil
	})
	if err != nil {
		return nil, false, err
	}

	if !created {
		s.logger.Debug("Article already archived", "article_id", article.ID)
		return nil, false, nil
	}

	s.logger.Info("Promoted article", "article_id", article.ID, "saved_id", saved.SavedID, "folder", folder)
	return saved, true, nil
}

// ListSaved returns archived articles newest-saved first, optionally in one folder
func (s *ArchiveService) ListSaved(ctx context.Context, folder string) ([]models.SavedArticle, error) {
	builder := sq.Select(savedColumns...).
		From("radar_saved_articles").
		OrderBy("saved_at DESC", "rowid DESC")
	if folder != "" {
		builder = builder.Where(sq.Eq{"folder": folder})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build saved query: %w", err)
	}

	rows, cancel, err := s.db.QueryWithTimeout(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list saved articles: %w", err)
	}
	defer cancel()
	defer rows.Close()

	saved := make([]models.SavedArticle, 0)
	for rows.Next() {
		article, err := scanSaved(rows)
		if err != nil {
			return nil, err
		}
		saved = append(saved, *article)
	}

	return saved, rows.Err()
}

// GetSaved returns one archived article
func (s *ArchiveService) GetSaved(ctx context.Context, savedID string) (*models.SavedArticle, error) {
	query, args, err := sq.Select(savedColumns...).
		From("radar_saved_articles").
		Where(sq.Eq{"saved_id": savedID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build saved query: %w", err)
	}

	saved, err := scanSaved(s.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrSavedNotFound, savedID)
		}
		return nil, err
	}
	return saved, nil
}

// IsArchived reports whether an inbox article has been promoted
func (s *ArchiveService) IsArchived(ctx context.Context, articleID string) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM radar_saved_articles WHERE article_id = ?", articleID).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check archive: %w", err)
	}
	return count > 0, nil
}

// UpdateSavedPress re-normalizes and stores an edited publisher name
func (s *ArchiveService) UpdateSavedPress(ctx context.Context, savedID, press string) (*models.SavedArticle, error) {
	saved, err := s.GetSaved(ctx, savedID)
	if err != nil {
		return nil, err
	}

	saved.Press = s.press.Normalize(press, saved.Link)
	query, args, err := sq.Update("radar_saved_articles").
		Set("press", saved.Press).
		Where(sq.Eq{"saved_id": savedID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build update query: %w", err)
	}

	if _, err := s.db.ExecWithTimeout(ctx, query, args...); err != nil {
		return nil, fmt.Errorf("failed to update press: %w", err)
	}
	return saved, nil
}

// DeleteSaved removes archived articles by saved id
func (s *ArchiveService) DeleteSaved(ctx context.Context, savedIDs []string) (int64, error) {
	if len(savedIDs) == 0 {
		return 0, nil
	}

	query, args, err := sq.Delete("radar_saved_articles").
		Where(sq.Eq{"saved_id": savedIDs}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build delete query: %w", err)
	}

	res, err := s.db.ExecWithTimeout(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to delete saved articles: %w", err)
	}

	deleted, _ := res.RowsAffected()
	s.logger.Info("Deleted saved articles", "requested", len(savedIDs), "deleted", deleted)
	return deleted, nil
}

// CountSaved returns the number of archived articles
func (s *ArchiveService) CountSaved(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM radar_saved_articles").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count saved articles: %w", err)
	}
	return count, nil
}

// CountSavedSince returns the number of articles saved at or after since
func (s *ArchiveService) CountSavedSince(ctx context.Context, since time.Time) (int, error) {
	query, args, err := sq.Select("COUNT(*)").
		From("radar_saved_articles").
		Where(sq.GtOrEq{"saved_at": since.UTC()}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build count query: %w", err)
	}

	var count int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count saved articles: %w", err)
	}
	return count, nil
}

func scanSaved(row rowScanner) (*models.SavedArticle, error) {
	var saved models.SavedArticle
	err := row.Scan(
		&saved.SavedID,
		&saved.ArticleID,
		&saved.Folder,
		&saved.SavedAt,
		&saved.Title,
		&saved.Press,
		&saved.PublishedAt,
		&saved.Link,
		&saved.Summary,
		&saved.NegativeHits,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan saved article: %w", err)
	}
	return &saved, nil
}

func folderExists(ctx context.Context, tx *sql.Tx, name string) (bool, error) {
	var count int
	if err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM radar_folders WHERE name = ?", name).Scan(&count); err != nil {
		return false, fmt.Errorf("failed to check folder: %w", err)
	}
	return count > 0, nil
}

func countFolders(ctx context.Context, tx *sql.Tx) (int, error) {
	var count int
	if err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM radar_folders").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count folders: %w", err)
	}
	return count, nil
}

func insertFolder(ctx context.Context, tx *sql.Tx, name string, createdAt time.Time) error {
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO radar_folders (name, created_at) VALUES (?, ?)", name, createdAt.UTC()); err != nil {
		return fmt.Errorf("failed to create folder %s: %w", name, err)
	}
	return nil
}

func without(values []string, drop string) []string {
	kept := values[:0]
	for _, value := range values {
		if value != drop {
			kept = append(kept, value)
		}
	}
	return kept
}
