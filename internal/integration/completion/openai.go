package completion

import (
	"context"
	"iter"
	"net/http"

	"github.com/futig/docchat/internal/config"
	"github.com/futig/docchat/internal/entity"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/azure"
	"github.com/openai/openai-go/option"
	"go.uber.org/zap"
)

// OpenAICompleter streams chat completions from OpenAI or an Azure OpenAI
// deployment.
type OpenAICompleter struct {
	client openai.Client
	model  string
	logger *zap.Logger
}

func NewOpenAICompleter(cfg config.CompletionConfig, httpClient *http.Client, logger *zap.Logger) *OpenAICompleter {
	opts := []option.RequestOption{
		option.WithHTTPClient(httpClient),
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

	return &OpenAICompleter{
		client: openai.NewClient(opts...),
		model:  cfg.Model,
		logger: logger,
	}
}

// StreamCompletion yields text deltas as they arrive. Breaking out of the
// loop closes the upstream stream.
func (c *OpenAICompleter) StreamCompletion(ctx context.Context, req *entity.CompletionRequest) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		params := openai.ChatCompletionNewParams{
			Model:       openai.ChatModel(c.model),
			Messages:    toOpenAIMessages(req),
			MaxTokens:   openai.Int(int64(req.MaxTokens)),
			Temperature: openai.Float(req.Temperature),
		}

		ctxzap.Debug(ctx, "opening completion stream",
			zap.String("model", c.model),
			zap.Int("turns", len(req.Turns)),
		)

		stream := c.client.Chat.Completions.NewStreaming(ctx, params)
		defer stream.Close()

		for stream.Next() {
			chunk := stream.Current()
			if len(chunk.Choices) == 0 {
				continue
			}
			delta := chunk.Choices[0].Delta.Content
			if delta == "" {
				continue
			}
			if !yield(delta, nil) {
				return
			}
		}

		if err := stream.Err(); err != nil {
			yield("", classifyError(err))
		}
	}
}

func toOpenAIMessages(req *entity.CompletionRequest) []openai.ChatCompletionMessageParamUnion {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(req.Turns)+1)
	if req.SystemPrompt != "" {
		messages = append(messages, openai.SystemMessage(req.SystemPrompt))
	}
	for _, t := range req.Turns {
		switch t.Role {
		case entity.RoleSystem:
			messages = append(messages, openai.SystemMessage(t.Content))
		case entity.RoleAssistant:
			messages = append(messages, openai.AssistantMessage(t.Content))
		default:
			messages = append(messages, openai.UserMessage(t.Content))
		}
	}
	return messages
}
