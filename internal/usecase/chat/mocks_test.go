package chat

import (
	"context"
	"iter"
	"time"

	"github.com/futig/docchat/internal/entity"
	pkgRetry "github.com/futig/docchat/internal/pkg/retry"
)

type fakeRetriever struct {
	chunks []entity.RetrievedChunk
	err    error
	calls  int
	query  string
}

func (f *fakeRetriever) Retrieve(_ context.Context, query, _ string, _ int, _ []string) ([]entity.RetrievedChunk, error) {
	f.calls++
	f.query = query
	return f.chunks, f.err
}

type fakeNamer struct {
	names []string
	err   error
	calls int
}

func (f *fakeNamer) ListNames(context.Context, string, []string) ([]string, error) {
	f.calls++
	return f.names, f.err
}

// attempt is one scripted upstream stream: its fragments, then err if set.
type attempt struct {
	fragments []string
	err       error
}

type scriptedCompleter struct {
	attempts []attempt
	requests []*entity.CompletionRequest
	stopped  bool
}

func (s *scriptedCompleter) StreamCompletion(_ context.Context, req *entity.CompletionRequest) iter.Seq2[string, error] {
	n := len(s.requests)
	s.requests = append(s.requests, req)
	a := s.attempts[min(n, len(s.attempts)-1)]

	return func(yield func(string, error) bool) {
		for _, f := range a.fragments {
			if !yield(f, nil) {
				s.stopped = true
				return
			}
		}
		if a.err != nil {
			yield("", a.err)
		}
	}
}

func testConfig() Config {
	return Config{
		RetrievalLimit: 5,
		MaxTokens:      1000,
		Temperature:    0.7,
		Retry:          pkgRetry.RetryConfig{Attempts: 3, Delay: time.Millisecond, MaxDelay: 2 * time.Millisecond},
	}
}
