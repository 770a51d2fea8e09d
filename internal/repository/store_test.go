package repository

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/futig/docchat/internal/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type store interface {
	DocumentRepository
	ChunkRepository
}

func newSQLite(t *testing.T) store {
	t.Helper()
	s, err := NewSQLiteStore(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func storeFactories() map[string]func(t *testing.T) store {
	return map[string]func(t *testing.T) store{
		"memory": func(t *testing.T) store { return NewMemoryStore() },
		"sqlite": newSQLite,
	}
}

func seedDocument(t *testing.T, s store, id, userID, name string, createdAt time.Time) {
	t.Helper()
	_, err := s.Create(context.Background(), entity.Document{
		ID:          id,
		UserID:      userID,
		Name:        name,
		MimeType:    "text/plain",
		Size:        10,
		StoragePath: "user-files/" + userID + "/" + name,
		Status:      entity.DocumentStatusProcessing,
		CreatedAt:   createdAt,
	})
	require.NoError(t, err)
}

func TestStores_DocumentLifecycle(t *testing.T) {
	for name, factory := range storeFactories() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := factory(t)
			base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

			seedDocument(t, s, "doc-a", "alice", "Policy.txt", base)
			seedDocument(t, s, "doc-b", "alice", "Handbook.pdf", base.Add(time.Hour))
			seedDocument(t, s, "doc-c", "bob", "Secret.txt", base)

			docs, err := s.ListByUser(ctx, "alice")
			require.NoError(t, err)
			require.Len(t, docs, 2)
			assert.Equal(t, "doc-b", docs[0].ID, "newest first")

			owned, err := s.GetOwnedDocumentIDs(ctx, "alice")
			require.NoError(t, err)
			assert.ElementsMatch(t, []string{"doc-a", "doc-b"}, owned)

			names, err := s.ListNames(ctx, "alice", []string{"doc-a", "doc-c", "missing"})
			require.NoError(t, err)
			assert.Equal(t, []string{"Policy.txt"}, names)

			msg := "embedding service unavailable"
			require.NoError(t, s.UpdateStatus(ctx, "doc-a", entity.DocumentStatusFailed, 0, &msg))
			doc, err := s.Get(ctx, "doc-a")
			require.NoError(t, err)
			assert.Equal(t, entity.DocumentStatusFailed, doc.Status)
			require.NotNil(t, doc.Error)
			assert.Equal(t, msg, *doc.Error)

			require.NoError(t, s.Delete(ctx, "doc-a"))
			_, err = s.Get(ctx, "doc-a")
			assert.ErrorIs(t, err, entity.ErrDocumentNotFound)
			assert.ErrorIs(t, s.Delete(ctx, "doc-a"), entity.ErrDocumentNotFound)
			assert.ErrorIs(t, s.UpdateStatus(ctx, "doc-a", entity.DocumentStatusReady, 1, nil), entity.ErrDocumentNotFound)
		})
	}
}

func TestStores_SimilaritySearch(t *testing.T) {
	for name, factory := range storeFactories() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := factory(t)
			seedDocument(t, s, "doc-a", "alice", "a.txt", time.Now())
			seedDocument(t, s, "doc-b", "alice", "b.txt", time.Now())

			require.NoError(t, s.InsertChunks(ctx, "doc-a", []entity.Chunk{
				{ChunkIndex: 0, Content: "exact", Embedding: []float32{1, 0}, Metadata: map[string]any{"char_start": 0}},
				{ChunkIndex: 1, Content: "orthogonal", Embedding: []float32{0, 1}},
				{ChunkIndex: 2, Content: "tie-a", Embedding: []float32{1, 1}},
			}))
			require.NoError(t, s.InsertChunks(ctx, "doc-b", []entity.Chunk{
				{ChunkIndex: 0, Content: "tie-b", Embedding: []float32{1, 1}},
			}))

			results, err := s.SimilaritySearch(ctx, []float32{1, 0}, []string{"doc-a", "doc-b"}, 10, 0.7)
			require.NoError(t, err)
			require.Len(t, results, 3)
			assert.Equal(t, "exact", results[0].Content)
			assert.InDelta(t, 1.0, results[0].Score, 1e-6)
			assert.Equal(t, "tie-a", results[1].Content)
			assert.Equal(t, "tie-b", results[2].Content)
			assert.EqualValues(t, 0, results[0].Metadata["char_start"])

			limited, err := s.SimilaritySearch(ctx, []float32{1, 0}, []string{"doc-b"}, 1, 0.7)
			require.NoError(t, err)
			require.Len(t, limited, 1)
			assert.Equal(t, "doc-b", limited[0].DocumentID)

			none, err := s.SimilaritySearch(ctx, []float32{1, 0}, nil, 5, 0.7)
			require.NoError(t, err)
			assert.Empty(t, none)
		})
	}
}

func TestStores_InsertChunksReplaces(t *testing.T) {
	for name, factory := range storeFactories() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := factory(t)
			seedDocument(t, s, "doc-a", "alice", "a.txt", time.Now())

			first := []entity.Chunk{
				{ChunkIndex: 0, Content: "one", Embedding: []float32{1, 0}},
				{ChunkIndex: 1, Content: "two", Embedding: []float32{1, 0}},
			}
			require.NoError(t, s.InsertChunks(ctx, "doc-a", first))
			require.NoError(t, s.InsertChunks(ctx, "doc-a", first[:1]))

			results, err := s.SimilaritySearch(ctx, []float32{1, 0}, []string{"doc-a"}, 10, 0)
			require.NoError(t, err)
			assert.Len(t, results, 1)

			require.NoError(t, s.DeleteChunks(ctx, "doc-a"))
			results, err = s.SimilaritySearch(ctx, []float32{1, 0}, []string{"doc-a"}, 10, 0)
			require.NoError(t, err)
			assert.Empty(t, results)
		})
	}
}

func TestEmbeddingBlobRoundTrip(t *testing.T) {
	v := []float32{0.25, -1.5, 3}
	decoded, err := decodeEmbedding(encodeEmbedding(v))
	require.NoError(t, err)
	assert.Equal(t, v, decoded)

	_, err = decodeEmbedding([]byte{1, 2, 3})
	assert.Error(t, err)
}

func TestRankChunks_DropsUndefinedScores(t *testing.T) {
	nan := float32(math.NaN())
	candidates := []entity.Chunk{
		{DocumentID: "doc", ChunkIndex: 0, Content: "broken", Embedding: []float32{nan, 1}},
		{DocumentID: "doc", ChunkIndex: 1, Content: "match", Embedding: []float32{1, 0}},
	}

	got := rankChunks(candidates, []float32{1, 0}, 5, 0.7)

	require.Len(t, got, 1)
	assert.Equal(t, "match", got[0].Content)
}
