package repository

import (
	"context"

	"github.com/futig/docchat/internal/entity"
)

// DocumentRepository defines the interface for document metadata persistence
type DocumentRepository interface {
	Create(ctx context.Context, doc entity.Document) (*entity.Document, error)
	Get(ctx context.Context, id string) (*entity.Document, error)
	ListByUser(ctx context.Context, userID string) ([]*entity.Document, error)
	ListNames(ctx context.Context, userID string, ids []string) ([]string, error)
	GetOwnedDocumentIDs(ctx context.Context, userID string) ([]string, error)
	UpdateStatus(ctx context.Context, id string, status entity.DocumentStatus, chunkCount int, errMsg *string) error
	Delete(ctx context.Context, id string) error
}

// ChunkRepository defines the interface for chunk and embedding persistence
type ChunkRepository interface {
	// InsertChunks replaces the chunk set of a document atomically.
	InsertChunks(ctx context.Context, documentID string, chunks []entity.Chunk) error
	DeleteChunks(ctx context.Context, documentID string) error
	// SimilaritySearch returns chunks of the given documents whose cosine
	// similarity to query is at least threshold, best first, at most limit.
	SimilaritySearch(ctx context.Context, query []float32, documentIDs []string, limit int, threshold float64) ([]entity.RetrievedChunk, error)
}

// BlobRepository stores original uploaded files
type BlobRepository interface {
	Save(ctx context.Context, path string, content []byte) error
	Read(ctx context.Context, path string) ([]byte, error)
	Delete(ctx context.Context, path string) error
}
