package ingestion

import (
	"context"
	"fmt"

	"github.com/futig/docchat/internal/entity"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

// Pipeline turns extracted document text into persisted, embedded chunks.
type Pipeline struct {
	splitter Splitter
	embedder Embedder
	chunks   ChunkStore
	logger   *zap.Logger
}

func NewPipeline(splitter Splitter, embedder Embedder, chunks ChunkStore, logger *zap.Logger) *Pipeline {
	return &Pipeline{
		splitter: splitter,
		embedder: embedder,
		chunks:   chunks,
		logger:   logger,
	}
}

// Ingest chunks, embeds and stores the text of a document and returns the
// number of chunks written. Any previous chunk set of the document is
// replaced. On failure the document is left without chunks and the error is
// an *entity.IngestionFailedError.
func (p *Pipeline) Ingest(ctx context.Context, documentID, text string) (int, error) {
	segments := p.splitter.Split(text)
	if len(segments) == 0 {
		return 0, p.fail(ctx, documentID, fmt.Errorf("%w: nothing to ingest", entity.ErrEmptyDocument))
	}

	contents := make([]string, len(segments))
	for i, s := range segments {
		contents[i] = s.Content
	}

	ctxzap.Debug(ctx, "document split into chunks",
		zap.String("document_id", documentID),
		zap.Int("chunk_count", len(segments)),
	)

	vectors, err := p.embedder.EmbedMany(ctx, contents)
	if err != nil {
		return 0, p.fail(ctx, documentID, fmt.Errorf("embed chunks: %w", err))
	}

	chunks := make([]entity.Chunk, len(segments))
	for i, s := range segments {
		chunks[i] = entity.Chunk{
			DocumentID: documentID,
			ChunkIndex: i,
			Content:    s.Content,
			Metadata: map[string]any{
				"char_start": s.Start,
				"char_end":   s.End,
			},
			Embedding: vectors[i],
		}
	}

	if err := p.chunks.InsertChunks(ctx, documentID, chunks); err != nil {
		return 0, p.fail(ctx, documentID, fmt.Errorf("insert chunks: %w", err))
	}

	ctxzap.Info(ctx, "document ingested",
		zap.String("document_id", documentID),
		zap.Int("chunk_count", len(chunks)),
	)

	return len(chunks), nil
}

// fail drops whatever chunk set the document had, so a failed re-ingestion
// leaves nothing stale to retrieve.
func (p *Pipeline) fail(ctx context.Context, documentID string, err error) error {
	ctxzap.Error(ctx, "ingestion failed",
		zap.String("document_id", documentID),
		zap.Error(err),
	)
	if delErr := p.chunks.DeleteChunks(context.WithoutCancel(ctx), documentID); delErr != nil {
		ctxzap.Warn(ctx, "failed to clean up chunks after ingestion failure",
			zap.String("document_id", documentID),
			zap.Error(delErr),
		)
	}
	return &entity.IngestionFailedError{DocumentID: documentID, Err: err}
}
