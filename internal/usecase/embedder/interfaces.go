package embedder

import "context"

// Provider is an embedding service. Implementations classify their errors
// as entity.TransientServiceError where a retry may help.
type Provider interface {
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
	Model() string
}
