package builder

import (
	"context"
	"fmt"
	"net/http"

	"github.com/futig/docchat/internal/api"
	chatapi "github.com/futig/docchat/internal/api/chat"
	documentapi "github.com/futig/docchat/internal/api/document"
	"github.com/futig/docchat/internal/config"
	"github.com/futig/docchat/internal/integration/extractor"
	"github.com/futig/docchat/internal/pkg/chunker"
	"github.com/futig/docchat/internal/pkg/formatter"
	pkglogger "github.com/futig/docchat/internal/pkg/logger"
	"github.com/futig/docchat/internal/pkg/validator"
	"github.com/futig/docchat/internal/repository"
	"github.com/futig/docchat/internal/usecase/chat"
	"github.com/futig/docchat/internal/usecase/document"
	"github.com/futig/docchat/internal/usecase/embedder"
	"github.com/futig/docchat/internal/usecase/ingestion"
	"github.com/futig/docchat/internal/usecase/retrieval"
	"go.uber.org/zap"
)

// Services holds the use cases shared by the HTTP server and the CLI
type Services struct {
	Config    *config.Config
	Logger    *zap.Logger
	Validator *validator.Validator
	Documents *document.DocumentUsecase
	Chat      *chat.ChatUsecase
	Exporter  *chat.Exporter

	closeStores func()
}

// Close releases database connections
func (s *Services) Close() {
	if s.closeStores != nil {
		s.closeStores()
	}
	s.Logger.Sync()
}

// BuildServices loads configuration for the environment and wires stores,
// providers and use cases.
func BuildServices(environment string) (*Services, error) {
	ctx := context.Background()

	cfg, err := config.LoadConfig(environment)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := pkglogger.New(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("setup logger: %w", err)
	}

	logger.Info("Building services",
		zap.String("environment", cfg.Environment),
		zap.String("repository_driver", cfg.RepositoryDriver),
		zap.Bool("mocks", cfg.EnableMocks),
	)

	st, err := setupStores(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	services, err := buildUsecases(ctx, cfg, st, logger)
	if err != nil {
		st.close()
		return nil, err
	}
	return services, nil
}

func buildUsecases(ctx context.Context, cfg *config.Config, st *stores, logger *zap.Logger) (*Services, error) {
	blobs, err := repository.NewBlobFilesystem(cfg.StorageDir)
	if err != nil {
		return nil, fmt.Errorf("setup blob storage: %w", err)
	}
	logger.Info("Repositories initialized", zap.String("storage_dir", cfg.StorageDir))

	// Initialize external service providers (with mock support)
	if cfg.EnableMocks {
		logger.Info("Using mock providers for external services")
	} else {
		logger.Info("Using real providers for external services",
			zap.String("embedding_provider", cfg.EmbeddingCfg.Provider),
			zap.String("completion_provider", cfg.CompletionCfg.Provider),
		)
	}

	embeddingProvider, err := setupEmbeddingProvider(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("setup embedding provider: %w", err)
	}
	completer, err := setupCompleter(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("setup completion provider: %w", err)
	}

	emb, err := embedder.New(embeddingProvider, embedder.Config{
		MaxInputChars:     cfg.EmbeddingCfg.MaxInputChars,
		BatchSize:         cfg.EmbeddingCfg.BatchSize,
		Concurrency:       cfg.EmbeddingCfg.Concurrency,
		Dimensions:        cfg.EmbeddingCfg.Dimensions,
		RequestsPerSecond: cfg.EmbeddingCfg.RequestsPerSecond,
		Burst:             cfg.EmbeddingCfg.Burst,
		CacheTTL:          cfg.EmbeddingCfg.CacheTTL,
		Retry:             cfg.EmbeddingCfg.Retry,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("setup embedder: %w", err)
	}

	splitter, err := chunker.New(cfg.ChunkCfg.Size, cfg.ChunkCfg.Overlap)
	if err != nil {
		return nil, fmt.Errorf("setup chunker: %w", err)
	}
	logger.Info("Chunker configured",
		zap.Int("chunk_size", splitter.Size()),
		zap.Int("chunk_overlap", splitter.Overlap()),
	)

	prompts, err := chat.LoadPrompts(cfg.PromptsFile)
	if err != nil {
		return nil, fmt.Errorf("load prompts: %w", err)
	}

	v := validator.NewValidator(cfg.FileUploadCfg)

	pipeline := ingestion.NewPipeline(splitter, emb, st.chunks, logger)
	retriever := retrieval.NewRetriever(emb, st.documents, st.chunks, retrieval.Config{
		Limit:     cfg.RetrievalCfg.Limit,
		Threshold: cfg.RetrievalCfg.Threshold,
	}, logger)

	documentUC := document.NewUsecase(
		st.documents,
		st.chunks,
		blobs,
		v,
		extractor.New(logger),
		pipeline,
		logger,
	)

	chatUC := chat.NewUsecase(
		retriever,
		st.documents,
		completer,
		prompts,
		chat.Config{
			RetrievalLimit: cfg.RetrievalCfg.Limit,
			MaxTokens:      cfg.CompletionCfg.MaxTokens,
			Temperature:    cfg.CompletionCfg.Temperature,
			Retry:          cfg.CompletionCfg.Retry,
		},
		logger,
	)
	logger.Info("Use cases initialized")

	return &Services{
		Config:      cfg,
		Logger:      logger,
		Validator:   v,
		Documents:   documentUC,
		Chat:        chatUC,
		Exporter:    chat.NewExporter(formatter.NewFactory()),
		closeStores: st.close,
	}, nil
}

// Build wires the HTTP server on top of the services
func Build(environment string) (*App, error) {
	services, err := BuildServices(environment)
	if err != nil {
		return nil, err
	}
	cfg := services.Config
	logger := services.Logger

	// Setup API handlers
	documentHandler := documentapi.NewHandler(services.Documents, cfg.FileUploadCfg)
	chatHandler := chatapi.NewHandler(services.Chat, services.Exporter, services.Validator)
	logger.Info("API handlers initialized")

	// Setup router
	router := api.SetupRouter(documentHandler, chatHandler, cfg, logger)
	logger.Info("HTTP router configured")

	// Create HTTP server
	server := &http.Server{
		Addr:              cfg.ServerAddr,
		Handler:           router,
		ReadTimeout:       cfg.ServerReadTimeout,
		ReadHeaderTimeout: cfg.ServerReadTimeout,
		WriteTimeout:      cfg.ServerWriteTimeout,
		IdleTimeout:       2 * cfg.ServerReadTimeout,
	}

	logger.Info("Application built successfully",
		zap.String("environment", cfg.Environment),
	)

	return &App{
		server:   server,
		services: services,
		logger:   logger,
	}, nil
}
