package chat

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/futig/docchat/internal/entity"
	"github.com/futig/docchat/internal/pkg/logger"
	"github.com/futig/docchat/internal/pkg/response"
	"github.com/futig/docchat/internal/pkg/validator"
	chatuc "github.com/futig/docchat/internal/usecase/chat"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

const maxChatBodySize = 1 << 20

type Handler struct {
	usecase   ChatUsecase
	exporter  TranscriptExporter
	validator *validator.Validator
}

func NewHandler(usecase ChatUsecase, exporter TranscriptExporter, validator *validator.Validator) *Handler {
	return &Handler{
		usecase:   usecase,
		exporter:  exporter,
		validator: validator,
	}
}

// Chat handles POST /chat. Precondition failures are plain JSON errors;
// after retrieval succeeds the answer is streamed as server-sent events.
func (h *Handler) Chat(w http.ResponseWriter, r *http.Request) {
	ctx := logger.WithAction(r.Context(), "Chat")

	var req entity.ChatRequest
	if err := decodeJSON(w, r, &req); err != nil {
		response.Error(ctx, w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	if err := h.validator.ValidateChatRequest(&req); err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	reply, err := h.usecase.Respond(ctx, &req)
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	h.stream(ctx, w, reply)
}

func (h *Handler) stream(ctx context.Context, w http.ResponseWriter, reply *chatuc.Reply) {
	sse := newSSEWriter(w)

	for fragment, err := range reply.Fragments() {
		if err != nil {
			break
		}
		if err := sse.send(eventDelta, entity.DeltaEvent{Text: fragment}); err != nil {
			ctxzap.Warn(ctx, "client stopped reading the stream", zap.Error(err))
			break
		}
	}

	annotation, err := reply.Finalize()
	if err != nil {
		sse.send(eventError, entity.ErrorResponse{
			Kind:    entity.ErrorKind(err),
			Message: "the answer could not be completed",
		})
		return
	}

	if annotation != nil {
		if err := sse.send(eventSources, annotation); err != nil {
			ctxzap.Warn(ctx, "failed to send sources", zap.Error(err))
			return
		}
	}
	sse.send(eventDone, struct{}{})

	ctxzap.Info(ctx, "answer streamed successfully",
		zap.Bool("grounded", annotation != nil),
		zap.Int("answer_length", len(reply.Text())),
	)
}

// ExportTranscript handles POST /chat/export
func (h *Handler) ExportTranscript(w http.ResponseWriter, r *http.Request) {
	ctx := logger.WithAction(r.Context(), "ExportTranscript")

	var req entity.ExportTranscriptRequest
	if err := decodeJSON(w, r, &req); err != nil {
		response.Error(ctx, w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	file, err := h.exporter.Export(ctx, &req)
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	response.File(w, file)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxChatBodySize))
	if err := dec.Decode(v); err != nil {
		return errors.Join(entity.ErrInvalidParameter, err)
	}
	return nil
}

func (h *Handler) handleUsecaseError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, entity.ErrNoDocumentsSelected):
		response.Error(ctx, w, http.StatusBadRequest, "please select at least one document to chat about", err)
	case errors.Is(err, entity.ErrInvalidRole) || errors.Is(err, entity.ErrNoUserMessage) ||
		errors.Is(err, entity.ErrMissingField) || errors.Is(err, entity.ErrInvalidParameter) ||
		errors.Is(err, entity.ErrUnsupportedFormat):
		response.Error(ctx, w, http.StatusBadRequest, "invalid request", err)
	case errors.Is(err, entity.ErrRetrievalFailed):
		response.Error(ctx, w, http.StatusBadGateway, "could not search the selected documents", err)
	case errors.Is(err, entity.ErrTransientService):
		response.Error(ctx, w, http.StatusServiceUnavailable, "service temporarily unavailable", err)
	default:
		response.Error(ctx, w, http.StatusInternalServerError, "internal server error", err)
	}
}
