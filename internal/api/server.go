package api

import (
	"net/http"

	chatapi "github.com/futig/docchat/internal/api/chat"
	"github.com/futig/docchat/internal/api/docs"
	documentapi "github.com/futig/docchat/internal/api/document"
	"github.com/futig/docchat/internal/api/middleware"
	"github.com/futig/docchat/internal/config"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// SetupRouter creates and configures the HTTP router
func SetupRouter(documentHandler *documentapi.Handler, chatHandler *chatapi.Handler, cfg *config.Config, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	// Middleware stack
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.CORS(cfg.CORSAllowedOrigins))
	r.Use(chimiddleware.Timeout(cfg.RequestTimeout))

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy"}`))
	})

	// Swagger documentation endpoints
	docs.RegisterRoutes(r)

	// Register routes
	documentapi.RegisterRoutes(r, documentHandler)
	chatapi.RegisterRoutes(r, chatHandler)

	return r
}
