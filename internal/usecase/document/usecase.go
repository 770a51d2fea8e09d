package document

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/futig/docchat/internal/entity"
	"github.com/futig/docchat/internal/pkg/validator"
	"github.com/futig/docchat/internal/repository"
	"github.com/google/uuid"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

// DocumentUsecase implements document business logic
type DocumentUsecase struct {
	documentRepo repository.DocumentRepository
	chunkRepo    repository.ChunkRepository
	blobRepo     repository.BlobRepository
	validator    *validator.Validator
	extractor    Extractor
	ingester     Ingester
	logger       *zap.Logger
	now          func() time.Time
}

// NewUsecase creates a new document use case
func NewUsecase(
	documentRepo repository.DocumentRepository,
	chunkRepo repository.ChunkRepository,
	blobRepo repository.BlobRepository,
	validator *validator.Validator,
	extractor Extractor,
	ingester Ingester,
	logger *zap.Logger,
) *DocumentUsecase {
	return &DocumentUsecase{
		documentRepo: documentRepo,
		chunkRepo:    chunkRepo,
		blobRepo:     blobRepo,
		validator:    validator,
		extractor:    extractor,
		ingester:     ingester,
		logger:       logger,
		now:          time.Now,
	}
}

// Upload validates and extracts the file, stores it and ingests its text.
// The document is kept with status failed when ingestion fails, and the
// returned error is then an *entity.IngestionFailedError.
func (uc *DocumentUsecase) Upload(ctx context.Context, req *entity.UploadDocumentRequest) (*entity.Document, error) {
	if err := uc.validator.ValidateUpload(req); err != nil {
		return nil, err
	}

	text, err := uc.extractText(ctx, req.Content, req.MimeType)
	if err != nil {
		return nil, err
	}

	now := uc.now()
	doc := entity.Document{
		ID:          uuid.New().String(),
		UserID:      req.UserID,
		Name:        req.Filename,
		MimeType:    req.MimeType,
		Size:        int64(len(req.Content)),
		StoragePath: storagePath(req.UserID, req.Filename, now),
		Status:      entity.DocumentStatusProcessing,
		CreatedAt:   now,
	}

	if err := uc.blobRepo.Save(ctx, doc.StoragePath, req.Content); err != nil {
		return nil, fmt.Errorf("save file: %w", err)
	}

	created, err := uc.documentRepo.Create(ctx, doc)
	if err != nil {
		uc.removeBlob(ctx, doc.StoragePath)
		return nil, fmt.Errorf("create document: %w", err)
	}

	ctxzap.Info(ctx, "document stored",
		zap.String("document_id", created.ID),
		zap.String("name", created.Name),
		zap.String("mime_type", created.MimeType),
		zap.Int64("size", created.Size),
	)

	return uc.ingest(ctx, created, text)
}

// List returns the documents of a user, newest first
func (uc *DocumentUsecase) List(ctx context.Context, userID string) ([]*entity.Document, error) {
	if err := uc.validator.ValidateUserID(userID); err != nil {
		return nil, err
	}

	docs, err := uc.documentRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	return docs, nil
}

// Get returns a document owned by userID. Documents of other users are
// reported as not found.
func (uc *DocumentUsecase) Get(ctx context.Context, userID, documentID string) (*entity.Document, error) {
	if err := uc.validator.ValidateUserID(userID); err != nil {
		return nil, err
	}

	doc, err := uc.documentRepo.Get(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if doc.UserID != userID {
		return nil, entity.ErrDocumentNotFound
	}
	return doc, nil
}

// Delete removes the chunks, the stored file and the record of a document
func (uc *DocumentUsecase) Delete(ctx context.Context, userID, documentID string) error {
	doc, err := uc.Get(ctx, userID, documentID)
	if err != nil {
		return err
	}

	if err := uc.chunkRepo.DeleteChunks(ctx, doc.ID); err != nil {
		return fmt.Errorf("delete chunks: %w", err)
	}
	if err := uc.blobRepo.Delete(ctx, doc.StoragePath); err != nil {
		return fmt.Errorf("delete file: %w", err)
	}
	if err := uc.documentRepo.Delete(ctx, doc.ID); err != nil {
		return fmt.Errorf("delete document: %w", err)
	}

	ctxzap.Info(ctx, "document deleted", zap.String("document_id", doc.ID))
	return nil
}

// Reingest extracts the stored file again and replaces the document's chunks
func (uc *DocumentUsecase) Reingest(ctx context.Context, userID, documentID string) (*entity.Document, error) {
	doc, err := uc.Get(ctx, userID, documentID)
	if err != nil {
		return nil, err
	}

	content, err := uc.blobRepo.Read(ctx, doc.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("read stored file: %w", err)
	}

	text, err := uc.extractText(ctx, content, doc.MimeType)
	if err != nil {
		return nil, err
	}

	if err := uc.documentRepo.UpdateStatus(ctx, doc.ID, entity.DocumentStatusProcessing, doc.ChunkCount, nil); err != nil {
		return nil, fmt.Errorf("update document status: %w", err)
	}
	doc.Status = entity.DocumentStatusProcessing

	ctxzap.Info(ctx, "re-ingesting document", zap.String("document_id", doc.ID))

	return uc.ingest(ctx, doc, text)
}

func (uc *DocumentUsecase) extractText(ctx context.Context, content []byte, mimeType string) (string, error) {
	text, err := uc.extractor.Extract(ctx, content, mimeType)
	if err != nil {
		return "", err
	}
	if isBlank(text) {
		return "", fmt.Errorf("%w: no text could be extracted", entity.ErrEmptyDocument)
	}
	return text, nil
}

func (uc *DocumentUsecase) ingest(ctx context.Context, doc *entity.Document, text string) (*entity.Document, error) {
	count, err := uc.ingester.Ingest(ctx, doc.ID, text)

	// the outcome is recorded even when the client has gone away
	statusCtx := context.WithoutCancel(ctx)

	if err != nil {
		msg := err.Error()
		if updErr := uc.documentRepo.UpdateStatus(statusCtx, doc.ID, entity.DocumentStatusFailed, 0, &msg); updErr != nil {
			ctxzap.Error(ctx, "failed to mark document as failed",
				zap.String("document_id", doc.ID),
				zap.Error(updErr),
			)
		}

		var ingErr *entity.IngestionFailedError
		if !errors.As(err, &ingErr) {
			err = &entity.IngestionFailedError{DocumentID: doc.ID, Err: err}
		}
		return nil, err
	}

	if err := uc.documentRepo.UpdateStatus(statusCtx, doc.ID, entity.DocumentStatusReady, count, nil); err != nil {
		return nil, fmt.Errorf("update document status: %w", err)
	}

	doc.Status = entity.DocumentStatusReady
	doc.ChunkCount = count
	doc.Error = nil
	return doc, nil
}

func (uc *DocumentUsecase) removeBlob(ctx context.Context, path string) {
	if err := uc.blobRepo.Delete(context.WithoutCancel(ctx), path); err != nil {
		ctxzap.Warn(ctx, "failed to remove stored file", zap.String("path", path), zap.Error(err))
	}
}
