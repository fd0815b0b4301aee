package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/freight-reader/constants"
	"github.com/joseph-ayodele/freight-reader/internal/common"
	"github.com/joseph-ayodele/freight-reader/internal/entity"
	"github.com/joseph-ayodele/freight-reader/internal/freight"
)

// fixed width so that text ordering matches time ordering
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

const defaultListLimit = 50

var documentColumns = []string{
	"id", "user_id", "file_name", "status", "failure_reason",
	"document", "pinned", "created_at", "updated_at",
}

type DocumentRepository interface {
	Create(ctx context.Context, userID, fileName string) (*entity.Record, error)
	GetByID(ctx context.Context, userID string, id uuid.UUID) (*entity.Record, error)
	ListByUser(ctx context.Context, userID string, limit int) ([]*entity.Record, error)
	SaveDocument(ctx context.Context, id uuid.UUID, doc *freight.Document) error
	MarkFailed(ctx context.Context, id uuid.UUID, reason string) error
	SetPinned(ctx context.Context, userID string, id uuid.UUID, pinned bool) error
}

type documentRepository struct {
	db     *DB
	logger *slog.Logger
	now    func() time.Time
}

func NewDocumentRepository(db *DB, logger *slog.Logger) DocumentRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &documentRepository{db: db, logger: logger, now: time.Now}
}

// Create stores a new PROCESSING record.
func (r *documentRepository) Create(ctx context.Context, userID, fileName string) (*entity.Record, error) {
	now := r.now().UTC()
	rec := &entity.Record{
		ID:        uuid.New(),
		UserID:    userID,
		FileName:  fileName,
		Status:    constants.StatusProcessing,
		CreatedAt: now,
		UpdatedAt: now,
	}
	query, args, err := r.db.builder.Insert("documents").
		Columns("id", "user_id", "file_name", "status", "pinned", "created_at", "updated_at").
		Values(rec.ID.String(), userID, fileName, string(rec.Status), 0, formatTime(now), formatTime(now)).
		ToSql()
	if err != nil {
		return nil, err
	}
	if _, err := r.db.sql.ExecContext(ctx, query, args...); err != nil {
		r.logger.Error("document create failed", "user_id", userID, "error", err)
		return nil, fmt.Errorf("%w: insert document: %v", common.ErrDatabase, err)
	}
	r.logger.Info("document created", "id", rec.ID, "user_id", userID, "file_name", fileName)
	return rec, nil
}

// GetByID loads one record owned by userID.
func (r *documentRepository) GetByID(ctx context.Context, userID string, id uuid.UUID) (*entity.Record, error) {
	query, args, err := r.db.builder.Select(documentColumns...).
		From("documents").
		Where(squirrel.Eq{"id": id.String(), "user_id": userID}).
		ToSql()
	if err != nil {
		return nil, err
	}
	rec, err := scanRecord(r.db.sql.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("document %s: %w", id, common.ErrNotFound)
	}
	if err != nil {
		r.logger.Error("document get failed", "id", id, "error", err)
		return nil, err
	}
	return rec, nil
}

// ListByUser returns a user's records, pinned first, newest first.
func (r *documentRepository) ListByUser(ctx context.Context, userID string, limit int) ([]*entity.Record, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	query, args, err := r.db.builder.Select(documentColumns...).
		From("documents").
		Where(squirrel.Eq{"user_id": userID}).
		OrderBy("pinned DESC", "created_at DESC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := r.db.sql.QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("document list failed", "user_id", userID, "error", err)
		return nil, fmt.Errorf("%w: list documents: %v", common.ErrDatabase, err)
	}
	defer func() { _ = rows.Close() }()

	out := make([]*entity.Record, 0)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// SaveDocument replaces the stored canonical record wholesale and marks the
// record DONE.
func (r *documentRepository) SaveDocument(ctx context.Context, id uuid.UUID, doc *freight.Document) error {
	if doc == nil {
		return fmt.Errorf("save document %s: %w", id, common.ErrInvalidInput)
	}
	b, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}
	return r.update(ctx, id, "", map[string]any{
		"document":       string(b),
		"status":         string(constants.StatusDone),
		"failure_reason": nil,
	})
}

func (r *documentRepository) MarkFailed(ctx context.Context, id uuid.UUID, reason string) error {
	return r.update(ctx, id, "", map[string]any{
		"status":         string(constants.StatusFailed),
		"failure_reason": reason,
	})
}

func (r *documentRepository) SetPinned(ctx context.Context, userID string, id uuid.UUID, pinned bool) error {
	v := 0
	if pinned {
		v = 1
	}
	return r.update(ctx, id, userID, map[string]any{"pinned": v})
}

func (r *documentRepository) update(ctx context.Context, id uuid.UUID, userID string, set map[string]any) error {
	where := squirrel.Eq{"id": id.String()}
	if userID != "" {
		where["user_id"] = userID
	}
	set["updated_at"] = formatTime(r.now().UTC())
	query, args, err := r.db.builder.Update("documents").
		SetMap(set).
		Where(where).
		ToSql()
	if err != nil {
		return err
	}
	res, err := r.db.sql.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("document update failed", "id", id, "error", err)
		return fmt.Errorf("%w: update document: %v", common.ErrDatabase, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("document %s: %w", id, common.ErrNotFound)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*entity.Record, error) {
	var (
		rec                  entity.Record
		id, status           string
		failure, document    sql.NullString
		pinned               int64
		createdAt, updatedAt string
	)
	if err := row.Scan(&id, &rec.UserID, &rec.FileName, &status, &failure, &document, &pinned, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	var err error
	if rec.ID, err = uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("parse document id: %w", err)
	}
	rec.Status = constants.DocumentStatus(status)
	rec.Pinned = pinned != 0
	if failure.Valid {
		rec.FailureReason = &failure.String
	}
	if document.Valid && document.String != "" {
		var doc freight.Document
		if err := json.Unmarshal([]byte(document.String), &doc); err != nil {
			return nil, fmt.Errorf("decode document %s: %w", id, err)
		}
		rec.Document = &doc
	}
	if rec.CreatedAt, err = time.Parse(timeLayout, createdAt); err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	if rec.UpdatedAt, err = time.Parse(timeLayout, updatedAt); err != nil {
		return nil, fmt.Errorf("parse updated_at: %w", err)
	}
	return &rec, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}
