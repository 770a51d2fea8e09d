package repository

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/futig/docchat/internal/entity"
	_ "modernc.org/sqlite"
)

//go:embed sqlite_schema.sql
var sqliteSchema string

var (
	_ DocumentRepository = &SQLiteStore{}
	_ ChunkRepository    = &SQLiteStore{}
)

// SQLiteStore is a single-file store for local use. Embeddings are stored as
// little-endian float32 blobs and ranked in process.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (creating if needed) the database at path and applies
// the schema. ":memory:" gives a throwaway database.
func NewSQLiteStore(ctx context.Context, path string) (*SQLiteStore, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create sqlite directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// one writer; also keeps ":memory:" on a single connection
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply sqlite schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

const sqliteDocumentColumns = `id, user_id, name, mime_type, size, storage_path, status, chunk_count, error, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSQLiteDocument(row rowScanner) (*entity.Document, error) {
	var (
		doc                  entity.Document
		status               string
		errMsg               sql.NullString
		createdAt, updatedAt int64
	)
	if err := row.Scan(&doc.ID, &doc.UserID, &doc.Name, &doc.MimeType, &doc.Size, &doc.StoragePath,
		&status, &doc.ChunkCount, &errMsg, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	doc.Status = entity.DocumentStatus(status)
	if errMsg.Valid {
		doc.Error = &errMsg.String
	}
	doc.CreatedAt = time.Unix(0, createdAt).UTC()
	doc.UpdatedAt = time.Unix(0, updatedAt).UTC()
	return &doc, nil
}

func (s *SQLiteStore) Create(ctx context.Context, doc entity.Document) (*entity.Document, error) {
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now().UTC()
	}
	doc.UpdatedAt = doc.CreatedAt

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO documents (id, user_id, name, mime_type, size, storage_path, status, chunk_count, error, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		doc.ID, doc.UserID, doc.Name, doc.MimeType, doc.Size, doc.StoragePath, string(doc.Status),
		doc.ChunkCount, doc.Error, doc.CreatedAt.UnixNano(), doc.UpdatedAt.UnixNano(),
	)
	if err != nil {
		return nil, fmt.Errorf("create document: %w", err)
	}
	return &doc, nil
}

func (s *SQLiteStore) Get(ctx context.Context, id string) (*entity.Document, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+sqliteDocumentColumns+` FROM documents WHERE id = ?`, id)
	doc, err := scanSQLiteDocument(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, entity.ErrDocumentNotFound
		}
		return nil, fmt.Errorf("get document: %w", err)
	}
	return doc, nil
}

func (s *SQLiteStore) ListByUser(ctx context.Context, userID string) ([]*entity.Document, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+sqliteDocumentColumns+` FROM documents
		WHERE user_id = ?
		ORDER BY created_at DESC, id`, userID)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	docs := make([]*entity.Document, 0)
	for rows.Next() {
		doc, err := scanSQLiteDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

func (s *SQLiteStore) ListNames(ctx context.Context, userID string, ids []string) ([]string, error) {
	if len(ids) == 0 {
		return []string{}, nil
	}

	args := append([]any{userID}, toArgs(ids)...)
	rows, err := s.db.QueryContext(ctx, `
		SELECT name FROM documents
		WHERE user_id = ? AND id IN (`+placeholders(len(ids))+`)
		ORDER BY name`, args...)
	if err != nil {
		return nil, fmt.Errorf("list document names: %w", err)
	}
	defer rows.Close()

	names := make([]string, 0, len(ids))
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan document name: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

func (s *SQLiteStore) GetOwnedDocumentIDs(ctx context.Context, userID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM documents WHERE user_id = ? ORDER BY id`, userID)
	if err != nil {
		return nil, fmt.Errorf("get owned document ids: %w", err)
	}
	defer rows.Close()

	ids := make([]string, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan document id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *SQLiteStore) UpdateStatus(ctx context.Context, id string, status entity.DocumentStatus, chunkCount int, errMsg *string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE documents SET status = ?, chunk_count = ?, error = ?, updated_at = ?
		WHERE id = ?`, string(status), chunkCount, errMsg, time.Now().UTC().UnixNano(), id)
	if err != nil {
		return fmt.Errorf("update document status: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return entity.ErrDocumentNotFound
	}
	return nil
}

func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return entity.ErrDocumentNotFound
	}
	return nil
}

func (s *SQLiteStore) InsertChunks(ctx context.Context, documentID string, chunks []entity.Chunk) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin insert chunks: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM document_chunks WHERE document_id = ?`, documentID); err != nil {
		return fmt.Errorf("clear previous chunks: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO document_chunks (document_id, chunk_index, content, metadata, embedding)
		VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert chunk: %w", err)
	}
	defer stmt.Close()

	for _, c := range chunks {
		metadata, err := json.Marshal(metadataOrEmpty(c.Metadata))
		if err != nil {
			return fmt.Errorf("marshal chunk metadata: %w", err)
		}
		if _, err := stmt.ExecContext(ctx, documentID, c.ChunkIndex, c.Content, string(metadata), encodeEmbedding(c.Embedding)); err != nil {
			return fmt.Errorf("insert chunk %d: %w", c.ChunkIndex, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit chunks: %w", err)
	}
	return nil
}

func (s *SQLiteStore) DeleteChunks(ctx context.Context, documentID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM document_chunks WHERE document_id = ?`, documentID); err != nil {
		return fmt.Errorf("delete chunks: %w", err)
	}
	return nil
}

func (s *SQLiteStore) SimilaritySearch(ctx context.Context, query []float32, documentIDs []string, limit int, threshold float64) ([]entity.RetrievedChunk, error) {
	if len(documentIDs) == 0 || limit <= 0 {
		return []entity.RetrievedChunk{}, nil
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT document_id, chunk_index, content, metadata, embedding
		FROM document_chunks
		WHERE document_id IN (`+placeholders(len(documentIDs))+`)`, toArgs(documentIDs)...)
	if err != nil {
		return nil, fmt.Errorf("similarity search: %w", err)
	}
	defer rows.Close()

	var candidates []entity.Chunk
	for rows.Next() {
		var (
			c        entity.Chunk
			metadata string
			blob     []byte
		)
		if err := rows.Scan(&c.DocumentID, &c.ChunkIndex, &c.Content, &metadata, &blob); err != nil {
			return nil, fmt.Errorf("scan chunk: %w", err)
		}
		if err := json.Unmarshal([]byte(metadata), &c.Metadata); err != nil {
			return nil, fmt.Errorf("decode chunk metadata: %w", err)
		}
		c.Embedding, err = decodeEmbedding(blob)
		if err != nil {
			return nil, err
		}
		candidates = append(candidates, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("similarity search: %w", err)
	}

	return rankChunks(candidates, query, limit, threshold), nil
}

func encodeEmbedding(v []float32) []byte {
	buf := make([]byte, 4*len(v))
	for i, x := range v {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(x))
	}
	return buf
}

func decodeEmbedding(b []byte) ([]float32, error) {
	if len(b)%4 != 0 {
		return nil, fmt.Errorf("corrupt embedding blob of %d bytes", len(b))
	}
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[4*i:]))
	}
	return v, nil
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

func toArgs(ids []string) []any {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return args
}
