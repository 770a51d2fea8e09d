package completion

import (
	"context"
	"fmt"
	"iter"
	"strings"

	"github.com/futig/docchat/internal/entity"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

// MockCompleter streams a canned answer word by word.
type MockCompleter struct {
	logger *zap.Logger
}

func NewMockCompleter(logger *zap.Logger) *MockCompleter {
	return &MockCompleter{logger: logger}
}

func (m *MockCompleter) StreamCompletion(ctx context.Context, req *entity.CompletionRequest) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		question := ""
		if len(req.Turns) > 0 {
			question = req.Turns[len(req.Turns)-1].Content
		}

		answer := fmt.Sprintf("Mock answer to %q.", question)
		if _, ctxBlock, ok := strings.Cut(req.SystemPrompt, "Context:\n"); ok {
			answer = fmt.Sprintf("%s Grounded in %d characters of context.", answer, len(ctxBlock))
		}

		ctxzap.Debug(ctx, "mock: streaming completion", zap.Int("length", len(answer)))

		words := strings.SplitAfter(answer, " ")
		for _, w := range words {
			if err := ctx.Err(); err != nil {
				yield("", err)
				return
			}
			if !yield(w, nil) {
				return
			}
		}
	}
}
