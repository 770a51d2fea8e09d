package ingestion

import (
	"context"

	"github.com/futig/docchat/internal/entity"
	"github.com/futig/docchat/internal/pkg/chunker"
)

type Embedder interface {
	EmbedMany(ctx context.Context, texts []string) ([][]float32, error)
}

type Splitter interface {
	Split(text string) []chunker.Segment
}

type ChunkStore interface {
	InsertChunks(ctx context.Context, documentID string, chunks []entity.Chunk) error
	DeleteChunks(ctx context.Context, documentID string) error
}
