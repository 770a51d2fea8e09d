package chat

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/futig/docchat/internal/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var policyChunks = []entity.RetrievedChunk{
	{DocumentID: "doc-1", ChunkIndex: 0, Content: "Refunds are processed within 30 days.", Score: 0.91, Metadata: map[string]any{"char_start": 0}},
	{DocumentID: "doc-1", ChunkIndex: 3, Content: "Shipping is free.", Score: 0.75},
}

func chatRequest(ids ...string) *entity.ChatRequest {
	return &entity.ChatRequest{
		UserID:      "alice",
		DocumentIDs: ids,
		Turns: []entity.ChatTurn{
			{Role: entity.RoleUser, Content: "Hi"},
			{Role: entity.RoleAssistant, Content: "Hello"},
			{Role: entity.RoleUser, Content: "What is the refund window?"},
		},
	}
}

func newTestUsecase(t *testing.T, r Retriever, n DocumentNamer, c Completer) *ChatUsecase {
	t.Helper()
	prompts, err := NewPrompts(DefaultPromptTemplates())
	require.NoError(t, err)
	return NewUsecase(r, n, c, prompts, testConfig(), zap.NewNop())
}

func drain(t *testing.T, reply *Reply) (string, error) {
	t.Helper()
	var sb strings.Builder
	for fragment, err := range reply.Fragments() {
		if err != nil {
			return sb.String(), err
		}
		sb.WriteString(fragment)
	}
	return sb.String(), nil
}

func TestRespond_GroundedBranch(t *testing.T) {
	retriever := &fakeRetriever{chunks: policyChunks}
	completer := &scriptedCompleter{attempts: []attempt{{fragments: []string{"Within ", "30 days."}}}}
	uc := newTestUsecase(t, retriever, &fakeNamer{}, completer)

	reply, err := uc.Respond(context.Background(), chatRequest("doc-1"))
	require.NoError(t, err)
	assert.True(t, reply.Grounded())
	assert.Equal(t, "What is the refund window?", retriever.query)

	text, err := drain(t, reply)
	require.NoError(t, err)
	assert.Equal(t, "Within 30 days.", text)
	assert.Equal(t, text, reply.Text())

	req := completer.requests[0]
	assert.Contains(t, req.SystemPrompt, "Context:\nRefunds are processed within 30 days.\n\nShipping is free.")
	assert.Contains(t, req.SystemPrompt, `"`+DefaultRefusal+`"`)
	assert.Len(t, req.Turns, 3)
	assert.Equal(t, 1000, req.MaxTokens)
	assert.Equal(t, 0.7, req.Temperature)

	annotation, err := reply.Finalize()
	require.NoError(t, err)
	require.NotNil(t, annotation)
	require.Len(t, annotation.Sources, 2)

	first := annotation.Sources[0]
	assert.Equal(t, "chunk-1", first.ID)
	assert.Equal(t, "doc-1", first.DocumentID)
	assert.Equal(t, 0, first.ChunkIndex)
	assert.Equal(t, 0.91, first.Metadata["similarity"])
	assert.Equal(t, 0, first.Metadata["char_start"])
	assert.Equal(t, "chunk-2", annotation.Sources[1].ID)
	assert.Equal(t, 3, annotation.Sources[1].ChunkIndex)
	assert.NotContains(t, policyChunks[0].Metadata, "similarity")
}

func TestRespond_NoContextWithoutSelection(t *testing.T) {
	namer := &fakeNamer{}
	completer := &scriptedCompleter{attempts: []attempt{{fragments: []string{"Please select a document."}}}}
	uc := newTestUsecase(t, &fakeRetriever{}, namer, completer)

	reply, err := uc.Respond(context.Background(), chatRequest())
	require.NoError(t, err)
	assert.False(t, reply.Grounded())

	_, err = drain(t, reply)
	require.NoError(t, err)

	annotation, err := reply.Finalize()
	require.NoError(t, err)
	assert.Nil(t, annotation)
	assert.Zero(t, namer.calls)
	assert.Contains(t, completer.requests[0].SystemPrompt, "couldn't find relevant information")
}

func TestRespond_NoContextNamesDocuments(t *testing.T) {
	completer := &scriptedCompleter{attempts: []attempt{{fragments: []string{"Try again."}}}}
	uc := newTestUsecase(t, &fakeRetriever{chunks: []entity.RetrievedChunk{}}, &fakeNamer{names: []string{"Policy.txt", "Terms.pdf"}}, completer)

	reply, err := uc.Respond(context.Background(), chatRequest("doc-1", "doc-2"))
	require.NoError(t, err)
	_, err = drain(t, reply)
	require.NoError(t, err)

	assert.Contains(t, completer.requests[0].SystemPrompt, "- Policy.txt\n- Terms.pdf\n")
	annotation, err := reply.Finalize()
	require.NoError(t, err)
	assert.Nil(t, annotation)
}

func TestRespond_NamesFailureFallsBackToEmptyList(t *testing.T) {
	completer := &scriptedCompleter{attempts: []attempt{{fragments: []string{"ok"}}}}
	uc := newTestUsecase(t, &fakeRetriever{}, &fakeNamer{err: errors.New("db down")}, completer)

	reply, err := uc.Respond(context.Background(), chatRequest("doc-1"))
	require.NoError(t, err)
	_, err = drain(t, reply)
	require.NoError(t, err)
	assert.NotContains(t, completer.requests[0].SystemPrompt, "- ")
}

func TestRespond_MidStreamFailure(t *testing.T) {
	upstream := errors.New("connection reset")
	completer := &scriptedCompleter{attempts: []attempt{{fragments: []string{"Refunds ", "are "}, err: upstream}}}
	uc := newTestUsecase(t, &fakeRetriever{chunks: policyChunks}, &fakeNamer{}, completer)

	reply, err := uc.Respond(context.Background(), chatRequest("doc-1"))
	require.NoError(t, err)

	text, err := drain(t, reply)
	assert.Equal(t, "Refunds are ", text)
	require.ErrorIs(t, err, entity.ErrStreamInterrupted)
	assert.ErrorIs(t, err, upstream)

	annotation, err := reply.Finalize()
	assert.Nil(t, annotation)
	assert.ErrorIs(t, err, entity.ErrStreamInterrupted)
	assert.Len(t, completer.requests, 1, "no retry after fragments were delivered")
}

func TestRespond_TransientOpenFailureIsRetried(t *testing.T) {
	completer := &scriptedCompleter{attempts: []attempt{
		{err: entity.NewTransientError("completion", errors.New("429"))},
		{fragments: []string{"30 days."}},
	}}
	uc := newTestUsecase(t, &fakeRetriever{chunks: policyChunks}, &fakeNamer{}, completer)

	reply, err := uc.Respond(context.Background(), chatRequest("doc-1"))
	require.NoError(t, err)

	text, err := drain(t, reply)
	require.NoError(t, err)
	assert.Equal(t, "30 days.", text)
	assert.Len(t, completer.requests, 2)

	annotation, err := reply.Finalize()
	require.NoError(t, err)
	assert.Len(t, annotation.Sources, 2)
}

func TestRespond_PermanentOpenFailure(t *testing.T) {
	completer := &scriptedCompleter{attempts: []attempt{{err: errors.New("invalid api key")}}}
	uc := newTestUsecase(t, &fakeRetriever{chunks: policyChunks}, &fakeNamer{}, completer)

	reply, err := uc.Respond(context.Background(), chatRequest("doc-1"))
	require.NoError(t, err)

	text, err := drain(t, reply)
	assert.Empty(t, text)
	assert.ErrorIs(t, err, entity.ErrStreamInterrupted)
	assert.Len(t, completer.requests, 1)
}

func TestReply_FinalizeBeforeDrain(t *testing.T) {
	completer := &scriptedCompleter{attempts: []attempt{{fragments: []string{"a", "b"}}}}
	uc := newTestUsecase(t, &fakeRetriever{chunks: policyChunks}, &fakeNamer{}, completer)

	reply, err := uc.Respond(context.Background(), chatRequest("doc-1"))
	require.NoError(t, err)

	_, err = reply.Finalize()
	assert.ErrorIs(t, err, entity.ErrStreamNotDrained)
}

func TestReply_AbandonedStream(t *testing.T) {
	completer := &scriptedCompleter{attempts: []attempt{{fragments: []string{"a", "b", "c"}}}}
	uc := newTestUsecase(t, &fakeRetriever{chunks: policyChunks}, &fakeNamer{}, completer)

	reply, err := uc.Respond(context.Background(), chatRequest("doc-1"))
	require.NoError(t, err)

	for fragment, err := range reply.Fragments() {
		require.NoError(t, err)
		assert.Equal(t, "a", fragment)
		break
	}
	assert.True(t, completer.stopped)

	annotation, err := reply.Finalize()
	assert.Nil(t, annotation)
	assert.ErrorIs(t, err, entity.ErrStreamInterrupted)
}

func TestReply_FragmentsAreSingleUse(t *testing.T) {
	completer := &scriptedCompleter{attempts: []attempt{{fragments: []string{"a"}}}}
	uc := newTestUsecase(t, &fakeRetriever{}, &fakeNamer{}, completer)

	reply, err := uc.Respond(context.Background(), chatRequest())
	require.NoError(t, err)
	_, err = drain(t, reply)
	require.NoError(t, err)

	_, err = drain(t, reply)
	assert.Error(t, err)
	assert.Len(t, completer.requests, 1)
}

func TestRespond_Validation(t *testing.T) {
	tests := []struct {
		name  string
		turns []entity.ChatTurn
		want  error
	}{
		{"empty", nil, entity.ErrNoUserMessage},
		{"unknown role", []entity.ChatTurn{{Role: "tool", Content: "x"}, {Role: entity.RoleUser, Content: "q"}}, entity.ErrInvalidRole},
		{"last is assistant", []entity.ChatTurn{{Role: entity.RoleUser, Content: "q"}, {Role: entity.RoleAssistant, Content: "a"}}, entity.ErrNoUserMessage},
		{"blank question", []entity.ChatTurn{{Role: entity.RoleUser, Content: "  "}}, entity.ErrNoUserMessage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			retriever := &fakeRetriever{}
			uc := newTestUsecase(t, retriever, &fakeNamer{}, &scriptedCompleter{})

			_, err := uc.Respond(context.Background(), &entity.ChatRequest{UserID: "alice", DocumentIDs: []string{"d"}, Turns: tt.turns})
			assert.ErrorIs(t, err, tt.want)
			assert.Zero(t, retriever.calls)
		})
	}
}

func TestRespond_RetrievalFailure(t *testing.T) {
	completer := &scriptedCompleter{}
	retriever := &fakeRetriever{err: &entity.RetrievalFailedError{QueryHash: "abc", Err: errors.New("boom")}}
	uc := newTestUsecase(t, retriever, &fakeNamer{}, completer)

	reply, err := uc.Respond(context.Background(), chatRequest("doc-1"))
	assert.Nil(t, reply)
	assert.ErrorIs(t, err, entity.ErrRetrievalFailed)
	assert.Empty(t, completer.requests)
}
