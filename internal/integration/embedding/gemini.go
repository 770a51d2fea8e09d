package embedding

import (
	"context"
	"fmt"
	"net/http"

	"github.com/futig/docchat/internal/config"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
	"google.golang.org/genai"
)

type GeminiProvider struct {
	client     *genai.Client
	model      string
	dimensions int
	logger     *zap.Logger
}

func NewGeminiProvider(ctx context.Context, cfg config.EmbeddingConfig, httpClient *http.Client, logger *zap.Logger) (*GeminiProvider, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:     cfg.Token,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: httpClient,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}

	return &GeminiProvider{
		client:     client,
		model:      cfg.Model,
		dimensions: cfg.Dimensions,
		logger:     logger,
	}, nil
}

func (p *GeminiProvider) Model() string { return p.model }

func (p *GeminiProvider) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	contents := make([]*genai.Content, 0, len(texts))
	for _, t := range texts {
		contents = append(contents, genai.NewContentFromText(t, genai.RoleUser))
	}

	var embedCfg *genai.EmbedContentConfig
	if p.dimensions > 0 {
		embedCfg = &genai.EmbedContentConfig{OutputDimensionality: genai.Ptr(int32(p.dimensions))}
	}

	ctxzap.Debug(ctx, "requesting embeddings", zap.String("model", p.model), zap.Int("count", len(texts)))

	resp, err := p.client.Models.EmbedContent(ctx, p.model, contents, embedCfg)
	if err != nil {
		return nil, classifyError(err)
	}

	if len(resp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("embedding response has %d vectors for %d inputs", len(resp.Embeddings), len(texts))
	}

	out := make([][]float32, len(texts))
	for i, e := range resp.Embeddings {
		out[i] = e.Values
	}
	return out, nil
}
