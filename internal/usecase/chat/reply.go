package chat

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"maps"
	"strings"

	"github.com/avast/retry-go/v4"
	"github.com/futig/docchat/internal/entity"
	pkgRetry "github.com/futig/docchat/internal/pkg/retry"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

type replyState int

const (
	statePending replyState = iota
	stateStreaming
	stateCompleted
	stateInterrupted
)

var errFragmentsConsumed = errors.New("reply fragments already consumed")

// Reply is one assistant answer. Fragments streams the answer text once;
// Finalize is called afterwards and returns the source annotation of a
// grounded answer. A Reply is not safe for concurrent use.
type Reply struct {
	ctx       context.Context
	completer Completer
	request   *entity.CompletionRequest
	chunks    []entity.RetrievedChunk
	retry     pkgRetry.RetryConfig

	state replyState
	text  strings.Builder
	err   error
}

// Grounded reports whether the answer is backed by retrieved chunks.
func (r *Reply) Grounded() bool { return len(r.chunks) > 0 }

// Text returns the answer text delivered so far.
func (r *Reply) Text() string { return r.text.String() }

// Fragments streams answer text as it arrives. A failure ends the sequence
// with a single *entity.StreamInterruptedError. Breaking out of the loop
// stops the upstream stream and marks the reply as interrupted.
func (r *Reply) Fragments() iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		if r.state != statePending {
			yield("", errFragmentsConsumed)
			return
		}
		r.state = stateStreaming

		delivered := false
		abandoned := false
		var midStream error

		err := retry.Do(func() error {
			for fragment, err := range r.completer.StreamCompletion(r.ctx, r.request) {
				if err != nil {
					if !delivered {
						return err
					}
					midStream = err
					return nil
				}
				if fragment == "" {
					continue
				}
				delivered = true
				r.text.WriteString(fragment)
				if !yield(fragment, nil) {
					abandoned = true
					return nil
				}
			}
			return nil
		}, r.retry.ToRetryOptions(r.ctx, "completion")...)

		switch {
		case abandoned:
			r.interrupt(errors.New("reply abandoned by consumer"))
		case err != nil:
			r.interrupt(err)
			yield("", r.err)
		case midStream != nil:
			r.interrupt(midStream)
			yield("", r.err)
		default:
			r.state = stateCompleted
			ctxzap.Debug(r.ctx, "completion stream finished",
				zap.Int("answer_length", r.text.Len()),
				zap.Bool("grounded", r.Grounded()),
			)
		}
	}
}

func (r *Reply) interrupt(cause error) {
	r.state = stateInterrupted
	r.err = &entity.StreamInterruptedError{Err: cause}
	ctxzap.Error(r.ctx, "completion stream interrupted",
		zap.Int("delivered_length", r.text.Len()),
		zap.Error(cause),
	)
}

// Finalize returns the source annotation of a completed grounded answer, or
// nil for a completed answer without context. It fails with the stream error
// if the answer was interrupted and with entity.ErrStreamNotDrained if the
// fragments have not been fully consumed.
func (r *Reply) Finalize() (*entity.SourceAnnotation, error) {
	switch r.state {
	case stateCompleted:
	case stateInterrupted:
		return nil, r.err
	default:
		return nil, fmt.Errorf("finalize reply: %w", entity.ErrStreamNotDrained)
	}

	if !r.Grounded() {
		return nil, nil
	}
	return buildAnnotation(r.chunks), nil
}

func buildAnnotation(chunks []entity.RetrievedChunk) *entity.SourceAnnotation {
	sources := make([]entity.Source, len(chunks))
	for i, c := range chunks {
		metadata := make(map[string]any, len(c.Metadata)+1)
		maps.Copy(metadata, c.Metadata)
		metadata["similarity"] = c.Score

		sources[i] = entity.Source{
			ID:         fmt.Sprintf("chunk-%d", i+1),
			Content:    c.Content,
			Metadata:   metadata,
			DocumentID: c.DocumentID,
			ChunkIndex: c.ChunkIndex,
		}
	}
	return &entity.SourceAnnotation{Sources: sources}
}
