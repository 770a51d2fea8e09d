package document

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/futig/docchat/internal/config"
	"github.com/futig/docchat/internal/entity"
	"github.com/futig/docchat/internal/pkg/logger"
	"github.com/futig/docchat/internal/pkg/response"
	"github.com/go-chi/chi/v5"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

type Handler struct {
	usecase DocumentUsecase
	cfg     config.FileUploadConfig
}

func NewHandler(usecase DocumentUsecase, cfg config.FileUploadConfig) *Handler {
	return &Handler{
		usecase: usecase,
		cfg:     cfg,
	}
}

// UploadDocument handles POST /documents
func (h *Handler) UploadDocument(w http.ResponseWriter, r *http.Request) {
	ctx := logger.WithAction(r.Context(), "UploadDocument")

	r.Body = http.MaxBytesReader(w, r.Body, h.cfg.MaxUploadSize)
	if err := r.ParseMultipartForm(h.cfg.MaxUploadSize); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			response.Error(ctx, w, http.StatusRequestEntityTooLarge, "upload too large", entity.ErrFileTooLarge)
			return
		}
		response.Error(ctx, w, http.StatusBadRequest, "invalid form data", errors.Join(entity.ErrInvalidParameter, err))
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		response.Error(ctx, w, http.StatusBadRequest, "file is required", errors.Join(entity.ErrMissingField, err))
		return
	}
	defer file.Close()

	content, err := io.ReadAll(io.LimitReader(file, h.cfg.MaxFileSize+1))
	if err != nil {
		response.Error(ctx, w, http.StatusBadRequest, "failed to read file", errors.Join(entity.ErrInvalidParameter, err))
		return
	}

	req := entity.UploadDocumentRequest{
		UserID:   r.FormValue("user_id"),
		Filename: header.Filename,
		MimeType: header.Header.Get("Content-Type"),
		Content:  content,
	}

	ctx = logger.AddFields(ctx,
		zap.String("user_id", req.UserID),
		zap.String("file_name", req.Filename),
	)
	ctxzap.Info(ctx, "uploading document", zap.Int("size", len(content)))

	doc, err := h.usecase.Upload(ctx, &req)
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	ctxzap.Info(ctx, "document uploaded successfully",
		zap.String("document_id", doc.ID),
		zap.Int("chunk_count", doc.ChunkCount),
	)
	response.Created(w, toDocumentDetail(doc))
}

// ListDocuments handles GET /documents
func (h *Handler) ListDocuments(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	ctx := logger.AddFields(r.Context(),
		zap.String("user_id", userID),
		zap.String("action", "ListDocuments"),
	)

	docs, err := h.usecase.List(ctx, userID)
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	details := make([]*entity.DocumentDetail, 0, len(docs))
	for _, d := range docs {
		details = append(details, toDocumentDetail(d))
	}

	ctxzap.Info(ctx, "documents listed successfully", zap.Int("count", len(details)))
	response.Success(w, &entity.ListDocumentsResponse{Documents: details})
}

// GetDocument handles GET /documents/{document_id}
func (h *Handler) GetDocument(w http.ResponseWriter, r *http.Request) {
	ctx, userID, documentID := h.documentContext(r, "GetDocument")

	doc, err := h.usecase.Get(ctx, userID, documentID)
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	response.Success(w, toDocumentDetail(doc))
}

// DeleteDocument handles DELETE /documents/{document_id}
func (h *Handler) DeleteDocument(w http.ResponseWriter, r *http.Request) {
	ctx, userID, documentID := h.documentContext(r, "DeleteDocument")

	ctxzap.Info(ctx, "deleting document")

	if err := h.usecase.Delete(ctx, userID, documentID); err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	ctxzap.Info(ctx, "document deleted successfully")
	response.Success(w, &entity.DeleteDocumentResponse{Status: "deleted"})
}

// ReingestDocument handles POST /documents/{document_id}/reingest
func (h *Handler) ReingestDocument(w http.ResponseWriter, r *http.Request) {
	ctx, userID, documentID := h.documentContext(r, "ReingestDocument")

	doc, err := h.usecase.Reingest(ctx, userID, documentID)
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	ctxzap.Info(ctx, "document re-ingested successfully", zap.Int("chunk_count", doc.ChunkCount))
	response.Success(w, toDocumentDetail(doc))
}

func (h *Handler) documentContext(r *http.Request, action string) (context.Context, string, string) {
	userID := r.URL.Query().Get("user_id")
	documentID := chi.URLParam(r, "document_id")
	ctx := logger.AddFields(r.Context(),
		zap.String("user_id", userID),
		zap.String("document_id", documentID),
		zap.String("action", action),
	)
	return ctx, userID, documentID
}

func (h *Handler) handleUsecaseError(ctx context.Context, w http.ResponseWriter, err error) {
	var ingErr *entity.IngestionFailedError

	switch {
	case errors.As(err, &ingErr):
		ctxzap.Error(ctx, "ingestion failed", zap.String("document_id", ingErr.DocumentID), zap.Error(err))
		response.JSON(w, http.StatusBadGateway, entity.ErrorResponse{
			Kind:       entity.ErrorKind(err),
			Message:    "document was stored but could not be indexed",
			DocumentID: ingErr.DocumentID,
		})
	case errors.Is(err, entity.ErrDocumentNotFound):
		response.Error(ctx, w, http.StatusNotFound, "resource not found", err)
	case errors.Is(err, entity.ErrInvalidParameter) || errors.Is(err, entity.ErrMissingField):
		response.Error(ctx, w, http.StatusBadRequest, "invalid parameter", err)
	case errors.Is(err, entity.ErrFileTooLarge):
		response.Error(ctx, w, http.StatusRequestEntityTooLarge, "invalid file", err)
	case errors.Is(err, entity.ErrUnsupportedMimeType):
		response.Error(ctx, w, http.StatusUnsupportedMediaType, "invalid file", err)
	case errors.Is(err, entity.ErrEmptyDocument) || errors.Is(err, entity.ErrExtractionFailed):
		response.Error(ctx, w, http.StatusUnprocessableEntity, "could not read document text", err)
	case errors.Is(err, entity.ErrTransientService):
		response.Error(ctx, w, http.StatusServiceUnavailable, "service temporarily unavailable", err)
	default:
		response.Error(ctx, w, http.StatusInternalServerError, "internal server error", err)
	}
}
