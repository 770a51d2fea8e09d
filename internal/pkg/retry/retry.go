package retry

import (
	"context"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/futig/docchat/internal/entity"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

const (
	defaultAttempts = 3
	defaultMaxDelay = 2 * time.Second
	defaultDelay    = 100 * time.Millisecond
)

type RetryConfig struct {
	Attempts uint          `env:"ATTEMPTS" envDefault:"3"`
	Delay    time.Duration `env:"DELAY" envDefault:"200ms"`
	MaxDelay time.Duration `env:"MAX_DELAY" envDefault:"2s"`
}

// ToRetryOptions builds exponential backoff options that retry only
// transient service errors and stop when ctx is done.
func (rc *RetryConfig) ToRetryOptions(ctx context.Context, service string) []retry.Option {
	return []retry.Option{
		retry.Context(ctx),
		retry.Attempts(max(rc.Attempts, 1)),
		retry.Delay(rc.Delay),
		retry.MaxDelay(rc.MaxDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(entity.IsTransient),
		retry.OnRetry(func(n uint, err error) {
			ctxzap.Warn(ctx, "retrying transient failure",
				zap.String("service", service),
				zap.Uint("attempt", n+1),
				zap.Error(err),
			)
		}),
	}
}

func DefaultRetryConfig() *RetryConfig {
	return &RetryConfig{
		Attempts: defaultAttempts,
		Delay:    defaultDelay,
		MaxDelay: defaultMaxDelay,
	}
}
