package embedding

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/futig/docchat/internal/config"
	"github.com/futig/docchat/internal/pkg/vector"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/azure"
	"github.com/openai/openai-go/option"
	"go.uber.org/zap"
)

// OpenAIProvider embeds texts with the OpenAI embeddings API. With the azure
// provider the model name is the deployment name.
type OpenAIProvider struct {
	client     openai.Client
	model      string
	dimensions int
	logger     *zap.Logger
}

func NewOpenAIProvider(cfg config.EmbeddingConfig, httpClient *http.Client, logger *zap.Logger) *OpenAIProvider {
	opts := []option.RequestOption{
		option.WithHTTPClient(httpClient),
		// retries are owned by the embedder
		option.WithMaxRetries(0),
	}

	if cfg.Provider == config.ProviderAzure {
		opts = append(opts,
			azure.WithEndpoint(cfg.AzureEndpoint, cfg.AzureAPIVersion),
			azure.WithAPIKey(cfg.Token),
		)
	} else {
		opts = append(opts, option.WithAPIKey(cfg.Token))
		if cfg.Url != "" {
			opts = append(opts, option.WithBaseURL(cfg.Url))
		}
	}

	return &OpenAIProvider{
		client:     openai.NewClient(opts...),
		model:      cfg.Model,
		dimensions: cfg.Dimensions,
		logger:     logger,
	}
}

func (p *OpenAIProvider) Model() string { return p.model }

// EmbedTexts returns one vector per input, in input order.
func (p *OpenAIProvider) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	params := openai.EmbeddingNewParams{
		Input: openai.EmbeddingNewParamsInputUnion{OfArrayOfStrings: texts},
		Model: openai.EmbeddingModel(p.model),
	}
	// only the text-embedding-3 family accepts a reduced dimension
	if p.dimensions > 0 && strings.HasPrefix(p.model, "text-embedding-3") {
		params.Dimensions = openai.Int(int64(p.dimensions))
	}

	ctxzap.Debug(ctx, "requesting embeddings", zap.String("model", p.model), zap.Int("count", len(texts)))

	resp, err := p.client.Embeddings.New(ctx, params)
	if err != nil {
		return nil, classifyError(err)
	}

	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("embedding response has %d vectors for %d inputs", len(resp.Data), len(texts))
	}

	out := make([][]float32, len(texts))
	for _, d := range resp.Data {
		idx := int(d.Index)
		if idx < 0 || idx >= len(out) {
			return nil, fmt.Errorf("embedding response index %d out of range", idx)
		}
		out[idx] = vector.FromFloat64(d.Embedding)
	}

	return out, nil
}
