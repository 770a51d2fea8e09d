package chat

import (
	"context"
	"fmt"
	"strings"

	"github.com/futig/docchat/internal/entity"
	"github.com/futig/docchat/internal/pkg/logger"
	pkgRetry "github.com/futig/docchat/internal/pkg/retry"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

type Config struct {
	RetrievalLimit int
	MaxTokens      int
	Temperature    float64
	Retry          pkgRetry.RetryConfig
}

// ChatUsecase answers chat turns from the selected documents
type ChatUsecase struct {
	retriever Retriever
	names     DocumentNamer
	completer Completer
	prompts   *Prompts
	cfg       Config
	logger    *zap.Logger
}

// NewUsecase creates a new chat use case
func NewUsecase(
	retriever Retriever,
	names DocumentNamer,
	completer Completer,
	prompts *Prompts,
	cfg Config,
	logger *zap.Logger,
) *ChatUsecase {
	return &ChatUsecase{
		retriever: retriever,
		names:     names,
		completer: completer,
		prompts:   prompts,
		cfg:       cfg,
		logger:    logger,
	}
}

// Respond validates the conversation, retrieves context for the latest user
// message and prepares the streamed answer. Errors returned here happen
// before anything is streamed; once a Reply is returned the caller commits to
// streaming it.
func (uc *ChatUsecase) Respond(ctx context.Context, req *entity.ChatRequest) (*Reply, error) {
	if err := validateTurns(req.Turns); err != nil {
		return nil, err
	}
	query := req.LatestUserMessage()

	ctx = logger.AddFields(ctx,
		zap.String("user_id", req.UserID),
		zap.Int("selected_documents", len(req.DocumentIDs)),
	)

	chunks, err := uc.retriever.Retrieve(ctx, query, req.UserID, uc.cfg.RetrievalLimit, req.DocumentIDs)
	if err != nil {
		return nil, fmt.Errorf("retrieve context: %w", err)
	}

	var systemPrompt string
	if len(chunks) == 0 {
		systemPrompt, err = uc.noContextPrompt(ctx, req)
	} else {
		systemPrompt, err = uc.groundedPrompt(chunks)
	}
	if err != nil {
		return nil, err
	}

	ctxzap.Info(ctx, "streaming answer",
		zap.Bool("grounded", len(chunks) > 0),
		zap.Int("chunk_count", len(chunks)),
	)

	return &Reply{
		ctx:       ctx,
		completer: uc.completer,
		request: &entity.CompletionRequest{
			SystemPrompt: systemPrompt,
			Turns:        req.Turns,
			MaxTokens:    uc.cfg.MaxTokens,
			Temperature:  uc.cfg.Temperature,
		},
		chunks: chunks,
		retry:  uc.cfg.Retry,
	}, nil
}

func (uc *ChatUsecase) groundedPrompt(chunks []entity.RetrievedChunk) (string, error) {
	parts := make([]string, len(chunks))
	for i, c := range chunks {
		parts[i] = c.Content
	}
	return uc.prompts.Grounded(strings.Join(parts, "\n\n"))
}

func (uc *ChatUsecase) noContextPrompt(ctx context.Context, req *entity.ChatRequest) (string, error) {
	var names []string
	if len(req.DocumentIDs) > 0 {
		var err error
		names, err = uc.names.ListNames(ctx, req.UserID, req.DocumentIDs)
		if err != nil {
			// the fallback prompt still works without names
			ctxzap.Warn(ctx, "failed to load document names", zap.Error(err))
			names = nil
		}
	}
	return uc.prompts.NoContext(names)
}

func validateTurns(turns []entity.ChatTurn) error {
	if len(turns) == 0 {
		return fmt.Errorf("%w: messages are empty", entity.ErrNoUserMessage)
	}
	for i, t := range turns {
		if err := t.Role.Validate(); err != nil {
			return fmt.Errorf("message %d: %w", i, err)
		}
	}
	last := turns[len(turns)-1]
	if last.Role != entity.RoleUser || strings.TrimSpace(last.Content) == "" {
		return fmt.Errorf("%w: last message must be a non-empty user message", entity.ErrNoUserMessage)
	}
	return nil
}
