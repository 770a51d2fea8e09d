package document

import (
	"time"

	"github.com/futig/docchat/internal/entity"
)

// toDocumentDetail converts Document entity to DocumentDetail DTO
func toDocumentDetail(d *entity.Document) *entity.DocumentDetail {
	return &entity.DocumentDetail{
		ID:         d.ID,
		Name:       d.Name,
		MimeType:   d.MimeType,
		Size:       d.Size,
		Status:     d.Status,
		ChunkCount: d.ChunkCount,
		Error:      d.Error,
		CreatedAt:  d.CreatedAt.UTC().Format(time.RFC3339),
	}
}
