package completion

import (
	"context"
	"fmt"
	"iter"
	"net/http"
	"strings"

	"github.com/futig/docchat/internal/config"
	"github.com/futig/docchat/internal/entity"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
	"google.golang.org/genai"
)

type GeminiCompleter struct {
	client *genai.Client
	model  string
	logger *zap.Logger
}

func NewGeminiCompleter(ctx context.Context, cfg config.CompletionConfig, httpClient *http.Client, logger *zap.Logger) (*GeminiCompleter, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:     cfg.Token,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: httpClient,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}

	return &GeminiCompleter{client: client, model: cfg.Model, logger: logger}, nil
}

// StreamCompletion folds system turns into the system instruction, since
// Gemini only accepts user and model roles in contents.
func (c *GeminiCompleter) StreamCompletion(ctx context.Context, req *entity.CompletionRequest) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		system := []string{req.SystemPrompt}
		contents := make([]*genai.Content, 0, len(req.Turns))
		for _, t := range req.Turns {
			switch t.Role {
			case entity.RoleSystem:
				system = append(system, t.Content)
			case entity.RoleAssistant:
				contents = append(contents, genai.NewContentFromText(t.Content, genai.RoleModel))
			default:
				contents = append(contents, genai.NewContentFromText(t.Content, genai.RoleUser))
			}
		}

		genCfg := &genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText(strings.Join(system, "\n\n"), genai.RoleUser),
			Temperature:       genai.Ptr(float32(req.Temperature)),
			MaxOutputTokens:   int32(req.MaxTokens),
		}

		ctxzap.Debug(ctx, "opening gemini completion stream", zap.String("model", c.model))

		for resp, err := range c.client.Models.GenerateContentStream(ctx, c.model, contents, genCfg) {
			if err != nil {
				yield("", classifyError(err))
				return
			}
			text := resp.Text()
			if text == "" {
				continue
			}
			if !yield(text, nil) {
				return
			}
		}
	}
}
