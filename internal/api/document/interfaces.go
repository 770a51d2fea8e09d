package document

import (
	"context"

	"github.com/futig/docchat/internal/entity"
)

type DocumentUsecase interface {
	Upload(ctx context.Context, req *entity.UploadDocumentRequest) (*entity.Document, error)
	List(ctx context.Context, userID string) ([]*entity.Document, error)
	Get(ctx context.Context, userID, documentID string) (*entity.Document, error)
	Delete(ctx context.Context, userID, documentID string) error
	Reingest(ctx context.Context, userID, documentID string) (*entity.Document, error)
}
