package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/futig/docchat/internal/entity"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

var _ ChunkRepository = &ChunkPostgres{}

// ChunkPostgres stores chunk embeddings in a pgvector column and searches
// them with the cosine distance operator. Vectors are sent in pgvector's
// text form, so the pool needs no custom type registration.
type ChunkPostgres struct {
	db *pgxpool.Pool
}

func NewChunkPostgres(db *pgxpool.Pool) *ChunkPostgres {
	return &ChunkPostgres{db: db}
}

func (r *ChunkPostgres) InsertChunks(ctx context.Context, documentID string, chunks []entity.Chunk) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin insert chunks: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM document_chunks WHERE document_id = $1::uuid`, documentID); err != nil {
		return fmt.Errorf("clear previous chunks: %w", err)
	}

	batch := &pgx.Batch{}
	for _, c := range chunks {
		metadata, err := json.Marshal(metadataOrEmpty(c.Metadata))
		if err != nil {
			return fmt.Errorf("marshal chunk metadata: %w", err)
		}
		batch.Queue(`
			INSERT INTO document_chunks (document_id, chunk_index, content, metadata, embedding)
			VALUES ($1::uuid, $2, $3, $4::jsonb, $5::text::vector)`,
			documentID, c.ChunkIndex, c.Content, string(metadata), pgvector.NewVector(c.Embedding),
		)
	}

	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("insert chunks: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit chunks: %w", err)
	}
	return nil
}

func (r *ChunkPostgres) DeleteChunks(ctx context.Context, documentID string) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM document_chunks WHERE document_id = $1::uuid`, documentID); err != nil {
		return fmt.Errorf("delete chunks: %w", err)
	}
	return nil
}

func (r *ChunkPostgres) SimilaritySearch(ctx context.Context, query []float32, documentIDs []string, limit int, threshold float64) ([]entity.RetrievedChunk, error) {
	documentIDs = validUUIDs(documentIDs)
	if len(documentIDs) == 0 || limit <= 0 {
		return []entity.RetrievedChunk{}, nil
	}

	rows, err := r.db.Query(ctx, `
		SELECT document_id::text, chunk_index, content, metadata::text, 1 - (embedding <=> $1::text::vector) AS similarity
		FROM document_chunks
		WHERE document_id = ANY($2::uuid[])
		  AND (embedding <=> $1::text::vector) <> 'NaN'::float8
		  AND 1 - (embedding <=> $1::text::vector) >= $3
		ORDER BY embedding <=> $1::text::vector, document_id, chunk_index
		LIMIT $4`,
		pgvector.NewVector(query), documentIDs, threshold, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("similarity search: %w", err)
	}
	defer rows.Close()

	results := make([]entity.RetrievedChunk, 0, limit)
	for rows.Next() {
		var (
			c        entity.RetrievedChunk
			metadata string
		)
		if err := rows.Scan(&c.DocumentID, &c.ChunkIndex, &c.Content, &metadata, &c.Score); err != nil {
			return nil, fmt.Errorf("scan similarity row: %w", err)
		}
		if err := json.Unmarshal([]byte(metadata), &c.Metadata); err != nil {
			return nil, fmt.Errorf("decode chunk metadata: %w", err)
		}
		results = append(results, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("similarity search: %w", err)
	}

	return results, nil
}

func metadataOrEmpty(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	return m
}
