package repository

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"

	"github.com/futig/docchat/internal/entity"
)

var (
	_ DocumentRepository = &MemoryStore{}
	_ ChunkRepository    = &MemoryStore{}
)

// MemoryStore keeps documents and chunks in process. Used with
// REPOSITORY_DRIVER=memory and by tests; nothing survives a restart.
type MemoryStore struct {
	mu        sync.RWMutex
	documents map[string]entity.Document
	chunks    map[string][]entity.Chunk
	now       func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		documents: make(map[string]entity.Document),
		chunks:    make(map[string][]entity.Chunk),
		now:       time.Now,
	}
}

func (s *MemoryStore) Create(_ context.Context, doc entity.Document) (*entity.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = s.now()
	}
	doc.UpdatedAt = doc.CreatedAt
	s.documents[doc.ID] = doc
	return &doc, nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (*entity.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.documents[id]
	if !ok {
		return nil, entity.ErrDocumentNotFound
	}
	return &doc, nil
}

func (s *MemoryStore) ListByUser(_ context.Context, userID string) ([]*entity.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	docs := make([]*entity.Document, 0)
	for _, d := range s.documents {
		if d.UserID == userID {
			docs = append(docs, &d)
		}
	}
	slices.SortFunc(docs, func(a, b *entity.Document) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return docs, nil
}

func (s *MemoryStore) ListNames(_ context.Context, userID string, ids []string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		d, ok := s.documents[id]
		if !ok || d.UserID != userID || seen[id] {
			continue
		}
		seen[id] = true
		names = append(names, d.Name)
	}
	slices.Sort(names)
	return names, nil
}

func (s *MemoryStore) GetOwnedDocumentIDs(_ context.Context, userID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0)
	for id, d := range s.documents {
		if d.UserID == userID {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)
	return ids, nil
}

func (s *MemoryStore) UpdateStatus(_ context.Context, id string, status entity.DocumentStatus, chunkCount int, errMsg *string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, ok := s.documents[id]
	if !ok {
		return entity.ErrDocumentNotFound
	}
	doc.Status = status
	doc.ChunkCount = chunkCount
	doc.Error = errMsg
	doc.UpdatedAt = s.now()
	s.documents[id] = doc
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.documents[id]; !ok {
		return entity.ErrDocumentNotFound
	}
	delete(s.documents, id)
	delete(s.chunks, id)
	return nil
}

func (s *MemoryStore) InsertChunks(_ context.Context, documentID string, chunks []entity.Chunk) error {
	stored := make([]entity.Chunk, len(chunks))
	for i, c := range chunks {
		c.DocumentID = documentID
		c.Metadata = copyMetadata(c.Metadata)
		c.Embedding = slices.Clone(c.Embedding)
		stored[i] = c
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.chunks[documentID] = stored
	return nil
}

func (s *MemoryStore) DeleteChunks(_ context.Context, documentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.chunks, documentID)
	return nil
}

func (s *MemoryStore) SimilaritySearch(_ context.Context, query []float32, documentIDs []string, limit int, threshold float64) ([]entity.RetrievedChunk, error) {
	s.mu.RLock()
	var candidates []entity.Chunk
	seen := make(map[string]bool, len(documentIDs))
	for _, id := range documentIDs {
		if seen[id] {
			continue
		}
		seen[id] = true
		candidates = append(candidates, s.chunks[id]...)
	}
	s.mu.RUnlock()

	return rankChunks(candidates, query, limit, threshold), nil
}

// ChunkCount reports how many chunks are stored for a document.
func (s *MemoryStore) ChunkCount(documentID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.chunks[documentID])
}
