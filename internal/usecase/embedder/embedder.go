package embedder

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/futig/docchat/internal/entity"
	pkgRetry "github.com/futig/docchat/internal/pkg/retry"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

type Config struct {
	// MaxInputChars applies to chunks and queries alike, so both sides of a
	// similarity comparison see the same truncation.
	MaxInputChars     int
	BatchSize         int
	Concurrency       int
	Dimensions        int
	RequestsPerSecond float64
	Burst             int
	CacheTTL          time.Duration
	Retry             pkgRetry.RetryConfig
}

// Embedder maps text to vectors through a Provider, adding truncation,
// caching, rate limiting, bounded parallelism and retries.
type Embedder struct {
	provider Provider
	cfg      Config
	cache    *cache.Cache
	limiter  *rate.Limiter
	logger   *zap.Logger
}

func New(provider Provider, cfg Config, logger *zap.Logger) (*Embedder, error) {
	if cfg.MaxInputChars <= 0 || cfg.BatchSize <= 0 || cfg.Concurrency <= 0 {
		return nil, fmt.Errorf("%w: embedder limits must be positive", entity.ErrConfiguration)
	}

	e := &Embedder{
		provider: provider,
		cfg:      cfg,
		limiter:  rate.NewLimiter(rate.Inf, 0),
		logger:   logger,
	}
	if cfg.RequestsPerSecond > 0 {
		e.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), max(cfg.Burst, 1))
	}
	if cfg.CacheTTL > 0 {
		e.cache = cache.New(cfg.CacheTTL, 2*cfg.CacheTTL)
	}
	return e, nil
}

func (e *Embedder) Model() string { return e.provider.Model() }

// Embed returns the vector for a single text.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := e.EmbedMany(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// EmbedMany returns one vector per text, aligned with the input order.
func (e *Embedder) EmbedMany(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	prepared := make([]string, len(texts))
	var pending []int

	for i, t := range texts {
		if t == "" {
			return nil, fmt.Errorf("%w: text %d is empty", entity.ErrInvalidParameter, i)
		}
		prepared[i] = e.truncate(ctx, t)
		if v, ok := e.cached(prepared[i]); ok {
			out[i] = v
			continue
		}
		pending = append(pending, i)
	}

	if len(pending) == 0 {
		return out, nil
	}

	ctxzap.Debug(ctx, "embedding texts",
		zap.Int("total", len(texts)),
		zap.Int("cache_misses", len(pending)),
		zap.String("model", e.provider.Model()),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.Concurrency)

	for start := 0; start < len(pending); start += e.cfg.BatchSize {
		batch := pending[start:min(start+e.cfg.BatchSize, len(pending))]
		g.Go(func() error {
			inputs := make([]string, len(batch))
			for j, idx := range batch {
				inputs[j] = prepared[idx]
			}

			vecs, err := e.embedBatch(gctx, inputs)
			if err != nil {
				return err
			}

			for j, idx := range batch {
				out[idx] = vecs[j]
				e.store(prepared[idx], vecs[j])
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (e *Embedder) embedBatch(ctx context.Context, inputs []string) ([][]float32, error) {
	vecs, err := retry.DoWithData(func() ([][]float32, error) {
		if err := e.limiter.Wait(ctx); err != nil {
			return nil, err
		}
		return e.provider.EmbedTexts(ctx, inputs)
	}, e.cfg.Retry.ToRetryOptions(ctx, "embedding")...)
	if err != nil {
		return nil, fmt.Errorf("embed batch of %d: %w", len(inputs), err)
	}

	if len(vecs) != len(inputs) {
		return nil, fmt.Errorf("embedding provider returned %d vectors for %d inputs", len(vecs), len(inputs))
	}
	for _, v := range vecs {
		if len(v) == 0 || (e.cfg.Dimensions > 0 && len(v) != e.cfg.Dimensions) {
			return nil, fmt.Errorf("%w: embedding has %d dimensions, expected %d",
				entity.ErrConfiguration, len(v), e.cfg.Dimensions)
		}
	}
	return vecs, nil
}

func (e *Embedder) truncate(ctx context.Context, text string) string {
	runes := []rune(text)
	if len(runes) <= e.cfg.MaxInputChars {
		return text
	}
	ctxzap.Debug(ctx, "truncating embedding input",
		zap.Int("chars", len(runes)),
		zap.Int("max_chars", e.cfg.MaxInputChars),
	)
	return string(runes[:e.cfg.MaxInputChars])
}

func (e *Embedder) cacheKey(text string) string {
	sum := sha256.Sum256([]byte(e.provider.Model() + "\x00" + text))
	return hex.EncodeToString(sum[:])
}

func (e *Embedder) cached(text string) ([]float32, bool) {
	if e.cache == nil {
		return nil, false
	}
	v, ok := e.cache.Get(e.cacheKey(text))
	if !ok {
		return nil, false
	}
	return v.([]float32), true
}

func (e *Embedder) store(text string, v []float32) {
	if e.cache == nil {
		return
	}
	e.cache.Set(e.cacheKey(text), v, cache.DefaultExpiration)
}
