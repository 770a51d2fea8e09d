package response

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/futig/docchat/internal/entity"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

// JSON writes a JSON response
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			// Can't change response at this point, just log
			http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		}
	}
}

// Error logs err and writes {kind, message}. The kind is derived from err.
func Error(ctx context.Context, w http.ResponseWriter, status int, message string, err error) {
	if status >= http.StatusInternalServerError {
		ctxzap.Error(ctx, message, zap.Int("status", status), zap.Error(err))
	} else {
		ctxzap.Warn(ctx, message, zap.Int("status", status), zap.Error(err))
	}

	body := entity.ErrorResponse{
		Kind:    entity.ErrorKind(err),
		Message: message,
	}
	if err != nil && status < http.StatusInternalServerError {
		body.Message = message + ": " + err.Error()
	}
	JSON(w, status, body)
}

// Success writes a success response
func Success(w http.ResponseWriter, data any) {
	JSON(w, http.StatusOK, data)
}

// Created writes a 201 Created response
func Created(w http.ResponseWriter, data any) {
	JSON(w, http.StatusCreated, data)
}

// File writes a downloadable attachment
func File(w http.ResponseWriter, file *entity.ExportedFile) {
	w.Header().Set("Content-Type", file.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+file.Filename+`"`)
	w.WriteHeader(http.StatusOK)
	w.Write(file.Content)
}
