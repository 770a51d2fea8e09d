package embedding

import (
	"context"
	"fmt"

	"github.com/futig/docchat/internal/config"
	"github.com/futig/docchat/internal/integration/common"
	pkghttp "github.com/futig/docchat/pkg/http"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

const ollamaEmbedEndpoint = "/api/embed"

type ollamaEmbedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type ollamaEmbedResponse struct {
	Model      string      `json:"model"`
	Embeddings [][]float32 `json:"embeddings"`
}

// OllamaProvider talks to a local Ollama server over its JSON API.
type OllamaProvider struct {
	connector *pkghttp.Connector
	model     string
	logger    *zap.Logger
}

func NewOllamaProvider(cfg config.EmbeddingConfig, logger *zap.Logger) *OllamaProvider {
	return &OllamaProvider{
		connector: common.NewBaseConnector(cfg.HTTPClientConfig, logger),
		model:     cfg.Model,
		logger:    logger,
	}
}

func (p *OllamaProvider) Model() string { return p.model }

func (p *OllamaProvider) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	ctxzap.Debug(ctx, "requesting embeddings from ollama", zap.String("model", p.model), zap.Int("count", len(texts)))

	var resp ollamaEmbedResponse
	err := p.connector.PostJSON(ctx, ollamaEmbedEndpoint, &ollamaEmbedRequest{
		Model: p.model,
		Input: texts,
	}, &resp)
	if err != nil {
		return nil, classifyError(err)
	}

	if len(resp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("embedding response has %d vectors for %d inputs", len(resp.Embeddings), len(texts))
	}
	return resp.Embeddings, nil
}
