package ingestion

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/futig/docchat/internal/entity"
	"github.com/futig/docchat/internal/pkg/chunker"
	"github.com/futig/docchat/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeEmbedder struct {
	err   error
	calls atomic.Int32
}

func (f *fakeEmbedder) EmbedMany(_ context.Context, texts []string) ([][]float32, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = []float32{float32(len(t)), 1}
	}
	return out, nil
}

type failingStore struct {
	*repository.MemoryStore
	insertErr error
	deletes   int
}

func (s *failingStore) InsertChunks(ctx context.Context, documentID string, chunks []entity.Chunk) error {
	if s.insertErr != nil {
		return s.insertErr
	}
	return s.MemoryStore.InsertChunks(ctx, documentID, chunks)
}

func (s *failingStore) DeleteChunks(ctx context.Context, documentID string) error {
	s.deletes++
	return s.MemoryStore.DeleteChunks(ctx, documentID)
}

func newSplitter(t *testing.T, size, overlap int) *chunker.Chunker {
	t.Helper()
	c, err := chunker.New(size, overlap)
	require.NoError(t, err)
	return c
}

func TestIngest_PersistsContiguousChunks(t *testing.T) {
	store := repository.NewMemoryStore()
	p := NewPipeline(newSplitter(t, 100, 20), &fakeEmbedder{}, store, zap.NewNop())

	text := strings.Repeat("Refunds are processed within 30 days. ", 20)
	n, err := p.Ingest(context.Background(), "doc-1", text)
	require.NoError(t, err)

	want := newSplitter(t, 100, 20).Split(text)
	assert.Equal(t, len(want), n)
	assert.Equal(t, n, store.ChunkCount("doc-1"))

	results, err := store.SimilaritySearch(context.Background(), []float32{1, 0}, []string{"doc-1"}, 100, -1)
	require.NoError(t, err)
	seen := make(map[int]entity.RetrievedChunk, len(results))
	for _, r := range results {
		seen[r.ChunkIndex] = r
	}
	for i, seg := range want {
		got, ok := seen[i]
		require.True(t, ok, "chunk %d missing", i)
		assert.Equal(t, seg.Content, got.Content)
		assert.Equal(t, seg.Start, got.Metadata["char_start"])
		assert.Equal(t, seg.End, got.Metadata["char_end"])
	}
}

func TestIngest_ReplacesPreviousChunks(t *testing.T) {
	store := repository.NewMemoryStore()
	p := NewPipeline(newSplitter(t, 50, 10), &fakeEmbedder{}, store, zap.NewNop())

	_, err := p.Ingest(context.Background(), "doc-1", strings.Repeat("long text here. ", 30))
	require.NoError(t, err)
	require.Greater(t, store.ChunkCount("doc-1"), 1)

	n, err := p.Ingest(context.Background(), "doc-1", "short")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 1, store.ChunkCount("doc-1"))
}

func TestIngest_EmbeddingFailure(t *testing.T) {
	store := repository.NewMemoryStore()
	embedErr := entity.NewTransientError("embedding", errors.New("503"))
	p := NewPipeline(newSplitter(t, 100, 20), &fakeEmbedder{err: embedErr}, store, zap.NewNop())

	_, err := p.Ingest(context.Background(), "doc-1", "Refunds are processed within 30 days.")
	require.ErrorIs(t, err, entity.ErrIngestionFailed)
	assert.ErrorIs(t, err, entity.ErrTransientService)

	var ingErr *entity.IngestionFailedError
	require.ErrorAs(t, err, &ingErr)
	assert.Equal(t, "doc-1", ingErr.DocumentID)
	assert.Zero(t, store.ChunkCount("doc-1"))
}

func TestIngest_FailedReingestDropsPreviousChunks(t *testing.T) {
	store := repository.NewMemoryStore()
	emb := &fakeEmbedder{}
	p := NewPipeline(newSplitter(t, 100, 20), emb, store, zap.NewNop())

	_, err := p.Ingest(context.Background(), "doc-1", "Refunds are processed within 30 days.")
	require.NoError(t, err)
	require.Equal(t, 1, store.ChunkCount("doc-1"))

	emb.err = errors.New("boom")
	_, err = p.Ingest(context.Background(), "doc-1", "Refunds are processed within 30 days.")
	require.ErrorIs(t, err, entity.ErrIngestionFailed)
	assert.Zero(t, store.ChunkCount("doc-1"))

	results, err := store.SimilaritySearch(context.Background(), []float32{1, 0}, []string{"doc-1"}, 5, -1)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestIngest_InsertFailureCleansUp(t *testing.T) {
	store := &failingStore{MemoryStore: repository.NewMemoryStore(), insertErr: errors.New("connection reset")}
	p := NewPipeline(newSplitter(t, 100, 20), &fakeEmbedder{}, store, zap.NewNop())

	_, err := p.Ingest(context.Background(), "doc-1", "Refunds are processed within 30 days.")
	require.ErrorIs(t, err, entity.ErrIngestionFailed)
	assert.Equal(t, 1, store.deletes)
	assert.Zero(t, store.ChunkCount("doc-1"))
}

func TestIngest_EmptyText(t *testing.T) {
	emb := &fakeEmbedder{}
	p := NewPipeline(newSplitter(t, 100, 20), emb, repository.NewMemoryStore(), zap.NewNop())

	_, err := p.Ingest(context.Background(), "doc-1", "")
	assert.ErrorIs(t, err, entity.ErrIngestionFailed)
	assert.ErrorIs(t, err, entity.ErrEmptyDocument)
	assert.Zero(t, emb.calls.Load())
}
