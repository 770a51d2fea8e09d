package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/futig/docchat/internal/entity"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var _ DocumentRepository = &DocumentPostgres{}

const documentColumns = `id::text AS id, user_id, name, mime_type, size, storage_path, status, chunk_count, error, created_at, updated_at`

// documentRow mirrors the documents table
type documentRow struct {
	ID          string    `db:"id"`
	UserID      string    `db:"user_id"`
	Name        string    `db:"name"`
	MimeType    string    `db:"mime_type"`
	Size        int64     `db:"size"`
	StoragePath string    `db:"storage_path"`
	Status      string    `db:"status"`
	ChunkCount  int32     `db:"chunk_count"`
	Error       *string   `db:"error"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

func (r *documentRow) toEntity() *entity.Document {
	return &entity.Document{
		ID:          r.ID,
		UserID:      r.UserID,
		Name:        r.Name,
		MimeType:    r.MimeType,
		Size:        r.Size,
		StoragePath: r.StoragePath,
		Status:      entity.DocumentStatus(r.Status),
		ChunkCount:  int(r.ChunkCount),
		Error:       r.Error,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

// DocumentPostgres implements DocumentRepository using PostgreSQL
type DocumentPostgres struct {
	db *pgxpool.Pool
}

func NewDocumentPostgres(db *pgxpool.Pool) *DocumentPostgres {
	return &DocumentPostgres{db: db}
}

func (r *DocumentPostgres) Create(ctx context.Context, doc entity.Document) (*entity.Document, error) {
	if _, err := uuid.Parse(doc.ID); err != nil {
		return nil, fmt.Errorf("parse document ID: %w", err)
	}

	rows, err := r.db.Query(ctx, `
		INSERT INTO documents (id, user_id, name, mime_type, size, storage_path, status)
		VALUES ($1::uuid, $2, $3, $4, $5, $6, $7)
		RETURNING `+documentColumns,
		doc.ID, doc.UserID, doc.Name, doc.MimeType, doc.Size, doc.StoragePath, string(doc.Status),
	)
	if err != nil {
		return nil, fmt.Errorf("create document: %w", err)
	}

	row, err := pgx.CollectExactlyOneRow(rows, pgx.RowToAddrOfStructByName[documentRow])
	if err != nil {
		return nil, fmt.Errorf("create document: %w", err)
	}

	return row.toEntity(), nil
}

func (r *DocumentPostgres) Get(ctx context.Context, id string) (*entity.Document, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, entity.ErrDocumentNotFound
	}

	rows, err := r.db.Query(ctx, `SELECT `+documentColumns+` FROM documents WHERE id = $1::uuid`, id)
	if err != nil {
		return nil, fmt.Errorf("get document: %w", err)
	}

	row, err := pgx.CollectExactlyOneRow(rows, pgx.RowToAddrOfStructByName[documentRow])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, entity.ErrDocumentNotFound
		}
		return nil, fmt.Errorf("get document: %w", err)
	}

	return row.toEntity(), nil
}

func (r *DocumentPostgres) ListByUser(ctx context.Context, userID string) ([]*entity.Document, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+documentColumns+`
		FROM documents
		WHERE user_id = $1
		ORDER BY created_at DESC, id`, userID)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}

	results, err := pgx.CollectRows(rows, pgx.RowToAddrOfStructByName[documentRow])
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}

	docs := make([]*entity.Document, 0, len(results))
	for _, row := range results {
		docs = append(docs, row.toEntity())
	}
	return docs, nil
}

func (r *DocumentPostgres) ListNames(ctx context.Context, userID string, ids []string) ([]string, error) {
	ids = validUUIDs(ids)
	if len(ids) == 0 {
		return []string{}, nil
	}

	rows, err := r.db.Query(ctx, `
		SELECT name FROM documents
		WHERE user_id = $1 AND id = ANY($2::uuid[])
		ORDER BY name`, userID, ids)
	if err != nil {
		return nil, fmt.Errorf("list document names: %w", err)
	}

	names, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("list document names: %w", err)
	}
	return names, nil
}

func (r *DocumentPostgres) GetOwnedDocumentIDs(ctx context.Context, userID string) ([]string, error) {
	rows, err := r.db.Query(ctx, `SELECT id::text FROM documents WHERE user_id = $1`, userID)
	if err != nil {
		return nil, fmt.Errorf("get owned document ids: %w", err)
	}

	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("get owned document ids: %w", err)
	}
	return ids, nil
}

func (r *DocumentPostgres) UpdateStatus(ctx context.Context, id string, status entity.DocumentStatus, chunkCount int, errMsg *string) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE documents
		SET status = $2, chunk_count = $3, error = $4, updated_at = now()
		WHERE id = $1::uuid`, id, string(status), chunkCount, errMsg)
	if err != nil {
		return fmt.Errorf("update document status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return entity.ErrDocumentNotFound
	}
	return nil
}

func (r *DocumentPostgres) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM documents WHERE id = $1::uuid`, id)
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return entity.ErrDocumentNotFound
	}
	return nil
}

// validUUIDs drops ids postgres would reject in a uuid[] cast.
func validUUIDs(ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, err := uuid.Parse(id); err == nil {
			out = append(out, id)
		}
	}
	return out
}
