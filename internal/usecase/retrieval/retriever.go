package retrieval

import (
	"cmp"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"slices"

	"github.com/futig/docchat/internal/entity"
	"github.com/futig/docchat/internal/pkg/logger"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

const (
	DefaultLimit     = 5
	DefaultThreshold = 0.7
)

type Config struct {
	Limit     int
	Threshold float64
}

// Retriever finds the chunks most similar to a query within the documents a
// user owns and has selected.
type Retriever struct {
	embedder  Embedder
	documents OwnershipResolver
	chunks    ChunkSearcher
	cfg       Config
	logger    *zap.Logger
}

func NewRetriever(embedder Embedder, documents OwnershipResolver, chunks ChunkSearcher, cfg Config, logger *zap.Logger) *Retriever {
	if cfg.Limit <= 0 {
		cfg.Limit = DefaultLimit
	}
	return &Retriever{
		embedder:  embedder,
		documents: documents,
		chunks:    chunks,
		cfg:       cfg,
		logger:    logger,
	}
}

// Retrieve returns at most limit chunks ordered by descending similarity,
// ties broken by document id then chunk index. A limit <= 0 uses the
// configured default. An empty result means nothing relevant was found;
// failures are reported as *entity.RetrievalFailedError.
func (r *Retriever) Retrieve(ctx context.Context, query, userID string, limit int, allowedIDs []string) ([]entity.RetrievedChunk, error) {
	if len(allowedIDs) == 0 {
		return []entity.RetrievedChunk{}, nil
	}
	if limit <= 0 {
		limit = r.cfg.Limit
	}

	hash := QueryHash(query)
	ctx = logger.AddFields(ctx, zap.String("query_hash", hash))

	scope, err := r.resolveScope(ctx, userID, allowedIDs)
	if err != nil {
		return nil, r.fail(ctx, hash, fmt.Errorf("resolve owned documents: %w", err))
	}
	if len(scope) == 0 {
		ctxzap.Debug(ctx, "no owned documents in scope",
			zap.Int("requested", len(allowedIDs)),
		)
		return []entity.RetrievedChunk{}, nil
	}

	vec, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, r.fail(ctx, hash, fmt.Errorf("embed query: %w", err))
	}

	ids := make([]string, 0, len(scope))
	for id := range scope {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	found, err := r.chunks.SimilaritySearch(ctx, vec, ids, limit, r.cfg.Threshold)
	if err != nil {
		return nil, r.fail(ctx, hash, fmt.Errorf("similarity search: %w", err))
	}

	results := make([]entity.RetrievedChunk, 0, len(found))
	for _, c := range found {
		// negated so NaN scores are dropped too
		if !scope[c.DocumentID] || !(c.Score >= r.cfg.Threshold) {
			continue
		}
		results = append(results, c)
	}
	slices.SortStableFunc(results, compareRetrieved)
	if len(results) > limit {
		results = results[:limit]
	}

	ctxzap.Debug(ctx, "chunks retrieved",
		zap.Int("documents", len(ids)),
		zap.Int("results", len(results)),
	)

	return results, nil
}

func (r *Retriever) resolveScope(ctx context.Context, userID string, allowedIDs []string) (map[string]bool, error) {
	owned, err := r.documents.GetOwnedDocumentIDs(ctx, userID)
	if err != nil {
		return nil, err
	}

	ownedSet := make(map[string]bool, len(owned))
	for _, id := range owned {
		ownedSet[id] = true
	}

	scope := make(map[string]bool, len(allowedIDs))
	for _, id := range allowedIDs {
		if ownedSet[id] {
			scope[id] = true
		}
	}
	return scope, nil
}

func (r *Retriever) fail(ctx context.Context, hash string, err error) error {
	ctxzap.Error(ctx, "retrieval failed", zap.Error(err))
	return &entity.RetrievalFailedError{QueryHash: hash, Err: err}
}

func compareRetrieved(a, b entity.RetrievedChunk) int {
	if a.Score != b.Score {
		return cmp.Compare(b.Score, a.Score)
	}
	if a.DocumentID != b.DocumentID {
		return cmp.Compare(a.DocumentID, b.DocumentID)
	}
	return cmp.Compare(a.ChunkIndex, b.ChunkIndex)
}

// QueryHash identifies a query in logs and errors without exposing its text.
func QueryHash(query string) string {
	sum := sha256.Sum256([]byte(query))
	return hex.EncodeToString(sum[:])[:12]
}
