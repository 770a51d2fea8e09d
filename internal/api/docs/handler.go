package docs

import (
	_ "embed"
	"net/http"

	"github.com/go-chi/chi/v5"
	httpSwagger "github.com/swaggo/http-swagger/v2"
)

const yamlPath = "/docs/swagger.yaml"

//go:embed swagger.yaml
var openAPIDocument []byte

// UIHandler serves Swagger UI pointed at the embedded OpenAPI document
func UIHandler() http.HandlerFunc {
	return httpSwagger.Handler(
		httpSwagger.URL(yamlPath),
		httpSwagger.DeepLinking(true),
		httpSwagger.DocExpansion("list"),
		httpSwagger.DomID("swagger-ui"),
	)
}

// YAMLHandler serves the OpenAPI document of the DocChat API
func YAMLHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/yaml")
		w.WriteHeader(http.StatusOK)
		w.Write(openAPIDocument)
	}
}

// RegisterRoutes registers API documentation routes on the router
func RegisterRoutes(r chi.Router) {
	r.Get("/docs", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/docs/index.html", http.StatusFound)
	})
	r.Get(yamlPath, YAMLHandler())
	r.Get("/docs/*", UIHandler())
}
