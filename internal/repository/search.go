package repository

import (
	"cmp"
	"slices"

	"github.com/futig/docchat/internal/entity"
	"github.com/futig/docchat/internal/pkg/vector"
)

// rankChunks scores candidates against query in process, for stores without
// a vector index. Ordering matches the postgres query.
func rankChunks(candidates []entity.Chunk, query []float32, limit int, threshold float64) []entity.RetrievedChunk {
	results := make([]entity.RetrievedChunk, 0, min(len(candidates), max(limit, 0)))
	for _, c := range candidates {
		score := vector.Cosine(query, c.Embedding)
		if !(score >= threshold) {
			continue
		}
		results = append(results, entity.RetrievedChunk{
			DocumentID: c.DocumentID,
			ChunkIndex: c.ChunkIndex,
			Content:    c.Content,
			Metadata:   copyMetadata(c.Metadata),
			Score:      score,
		})
	}

	slices.SortFunc(results, func(a, b entity.RetrievedChunk) int {
		if a.Score != b.Score {
			return cmp.Compare(b.Score, a.Score)
		}
		if a.DocumentID != b.DocumentID {
			return cmp.Compare(a.DocumentID, b.DocumentID)
		}
		return cmp.Compare(a.ChunkIndex, b.ChunkIndex)
	})

	if len(results) > limit {
		results = results[:max(limit, 0)]
	}
	return results
}

func copyMetadata(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
