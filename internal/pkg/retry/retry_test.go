package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/futig/docchat/internal/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastConfig() *RetryConfig {
	return &RetryConfig{Attempts: 3, Delay: time.Millisecond, MaxDelay: 2 * time.Millisecond}
}

func TestToRetryOptions_RetriesTransient(t *testing.T) {
	calls := 0
	err := retry.Do(func() error {
		calls++
		if calls < 3 {
			return entity.NewTransientError("embedding", errors.New("429"))
		}
		return nil
	}, fastConfig().ToRetryOptions(context.Background(), "embedding")...)

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestToRetryOptions_StopsOnPermanent(t *testing.T) {
	permanent := errors.New("bad request")
	calls := 0
	err := retry.Do(func() error {
		calls++
		return permanent
	}, fastConfig().ToRetryOptions(context.Background(), "embedding")...)

	assert.ErrorIs(t, err, permanent)
	assert.Equal(t, 1, calls)
}

func TestToRetryOptions_BoundedAttempts(t *testing.T) {
	calls := 0
	err := retry.Do(func() error {
		calls++
		return entity.NewTransientError("completion", errors.New("503"))
	}, fastConfig().ToRetryOptions(context.Background(), "completion")...)

	assert.True(t, entity.IsTransient(err))
	assert.Equal(t, 3, calls)
}
