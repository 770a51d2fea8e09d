package retrieval

import (
	"context"

	"github.com/futig/docchat/internal/entity"
)

type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

type OwnershipResolver interface {
	GetOwnedDocumentIDs(ctx context.Context, userID string) ([]string, error)
}

type ChunkSearcher interface {
	SimilaritySearch(ctx context.Context, query []float32, documentIDs []string, limit int, threshold float64) ([]entity.RetrievedChunk, error)
}
