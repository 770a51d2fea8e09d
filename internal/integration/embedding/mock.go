package embedding

import (
	"context"
	"hash/fnv"
	"strings"
	"unicode"

	"github.com/futig/docchat/internal/pkg/vector"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

const mockModel = "mock-hashing"

// MockProvider produces deterministic bag-of-words vectors by feature
// hashing, so texts sharing words score as similar without any network.
type MockProvider struct {
	dimensions int
	logger     *zap.Logger
}

func NewMockProvider(dimensions int, logger *zap.Logger) *MockProvider {
	if dimensions <= 0 {
		dimensions = 256
	}
	return &MockProvider{dimensions: dimensions, logger: logger}
}

func (p *MockProvider) Model() string { return mockModel }

func (p *MockProvider) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	ctxzap.Debug(ctx, "mock: embedding texts", zap.Int("count", len(texts)))

	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = p.embed(t)
	}
	return out, nil
}

func (p *MockProvider) embed(text string) []float32 {
	v := make([]float32, p.dimensions)
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, w := range words {
		h := fnv.New32a()
		_, _ = h.Write([]byte(w))
		sum := h.Sum32()
		sign := float32(1)
		if sum&1 == 1 {
			sign = -1
		}
		v[int(sum>>1)%p.dimensions] += sign
	}
	return vector.Normalize(v)
}
