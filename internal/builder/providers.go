package builder

import (
	"context"
	"fmt"

	"github.com/futig/docchat/internal/config"
	"github.com/futig/docchat/internal/integration/common"
	"github.com/futig/docchat/internal/integration/completion"
	"github.com/futig/docchat/internal/integration/embedding"
	"github.com/futig/docchat/internal/usecase/chat"
	"github.com/futig/docchat/internal/usecase/embedder"
	"go.uber.org/zap"
)

func setupEmbeddingProvider(ctx context.Context, cfg *config.Config, logger *zap.Logger) (embedder.Provider, error) {
	embCfg := cfg.EmbeddingCfg
	if cfg.EnableMocks {
		return embedding.NewMockProvider(embCfg.Dimensions, logger), nil
	}

	switch embCfg.Provider {
	case config.ProviderOpenAI, config.ProviderAzure:
		return embedding.NewOpenAIProvider(embCfg, common.NewHTTPClient(embCfg.HTTPClientConfig), logger), nil
	case config.ProviderGemini:
		return embedding.NewGeminiProvider(ctx, embCfg, common.NewHTTPClient(embCfg.HTTPClientConfig), logger)
	case config.ProviderOllama:
		return embedding.NewOllamaProvider(embCfg, logger), nil
	default:
		return nil, fmt.Errorf("unsupported embedding provider %q", embCfg.Provider)
	}
}

func setupCompleter(ctx context.Context, cfg *config.Config, logger *zap.Logger) (chat.Completer, error) {
	compCfg := cfg.CompletionCfg
	if cfg.EnableMocks {
		return completion.NewMockCompleter(logger), nil
	}

	switch compCfg.Provider {
	case config.ProviderOpenAI, config.ProviderAzure:
		return completion.NewOpenAICompleter(compCfg, common.NewHTTPClient(compCfg.HTTPClientConfig), logger), nil
	case config.ProviderGemini:
		return completion.NewGeminiCompleter(ctx, compCfg, common.NewHTTPClient(compCfg.HTTPClientConfig), logger)
	default:
		return nil, fmt.Errorf("unsupported completion provider %q", compCfg.Provider)
	}
}
