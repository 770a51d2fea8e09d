package chat

import (
	"context"
	"iter"

	"github.com/futig/docchat/internal/entity"
)

type Retriever interface {
	Retrieve(ctx context.Context, query, userID string, limit int, allowedIDs []string) ([]entity.RetrievedChunk, error)
}

type DocumentNamer interface {
	ListNames(ctx context.Context, userID string, ids []string) ([]string, error)
}

// Completer streams a model reply. The sequence ends after the last fragment
// or after yielding a single error.
type Completer interface {
	StreamCompletion(ctx context.Context, req *entity.CompletionRequest) iter.Seq2[string, error]
}
