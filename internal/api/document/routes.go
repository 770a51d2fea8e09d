package document

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers document routes
func RegisterRoutes(r chi.Router, h *Handler) {
	r.Route("/documents", func(r chi.Router) {
		r.Post("/", h.UploadDocument)
		r.Get("/", h.ListDocuments)

		r.Route("/{document_id}", func(r chi.Router) {
			r.Get("/", h.GetDocument)
			r.Delete("/", h.DeleteDocument)
			r.Post("/reingest", h.ReingestDocument)
		})
	})
}
