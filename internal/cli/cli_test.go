package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"iter"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/futig/docchat/internal/entity"
	pkgRetry "github.com/futig/docchat/internal/pkg/retry"
	chatuc "github.com/futig/docchat/internal/usecase/chat"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeDocuments struct {
	docs     []*entity.Document
	uploaded *entity.UploadDocumentRequest
	deleted  string
	err      error
}

func (f *fakeDocuments) Upload(_ context.Context, req *entity.UploadDocumentRequest) (*entity.Document, error) {
	f.uploaded = req
	if f.err != nil {
		return nil, f.err
	}
	return &entity.Document{
		ID:         "doc-1",
		UserID:     req.UserID,
		Name:       req.Filename,
		Status:     entity.DocumentStatusReady,
		ChunkCount: 3,
		CreatedAt:  time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}, nil
}

func (f *fakeDocuments) List(context.Context, string) ([]*entity.Document, error) {
	return f.docs, f.err
}

func (f *fakeDocuments) Delete(_ context.Context, _, documentID string) error {
	f.deleted = documentID
	return f.err
}

func (f *fakeDocuments) Reingest(_ context.Context, _, documentID string) (*entity.Document, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &entity.Document{ID: documentID, Name: "Policy.txt", Status: entity.DocumentStatusReady, ChunkCount: 2}, nil
}

type stubRetriever struct {
	chunks []entity.RetrievedChunk
}

func (s stubRetriever) Retrieve(context.Context, string, string, int, []string) ([]entity.RetrievedChunk, error) {
	return s.chunks, nil
}

type stubNamer struct{}

func (stubNamer) ListNames(context.Context, string, []string) ([]string, error) {
	return []string{"Policy.txt"}, nil
}

type stubCompleter struct {
	fragments []string
	err       error
}

func (s stubCompleter) StreamCompletion(context.Context, *entity.CompletionRequest) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		for _, f := range s.fragments {
			if !yield(f, nil) {
				return
			}
		}
		if s.err != nil {
			yield("", s.err)
		}
	}
}

func newChat(t *testing.T, chunks []entity.RetrievedChunk, c stubCompleter) *chatuc.ChatUsecase {
	t.Helper()
	prompts, err := chatuc.NewPrompts(chatuc.DefaultPromptTemplates())
	require.NoError(t, err)
	return chatuc.NewUsecase(stubRetriever{chunks: chunks}, stubNamer{}, c, prompts, chatuc.Config{
		RetrievalLimit: 5,
		MaxTokens:      100,
		Retry:          pkgRetry.RetryConfig{Attempts: 1, Delay: time.Millisecond},
	}, zap.NewNop())
}

func run(t *testing.T, services *Services, args ...string) (string, error) {
	t.Helper()
	root := NewRootCommand(func(string) (*Services, error) {
		return services, nil
	})
	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs(args)

	err := root.Execute()
	return buf.String(), err
}

func TestRootCommand_HasSubcommands(t *testing.T) {
	root := NewRootCommand(nil)
	names := make([]string, 0)
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	assert.Contains(t, names, "ingest")
	assert.Contains(t, names, "ask")
	assert.Contains(t, names, "docs")

	flag := root.PersistentFlags().Lookup("env")
	require.NotNil(t, flag)
	assert.Equal(t, "local", flag.DefValue)
}

func TestIngest_UploadsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "Policy.txt")
	require.NoError(t, os.WriteFile(path, []byte("Refunds are accepted within 30 days."), 0o600))

	docs := &fakeDocuments{}
	out, err := run(t, &Services{Documents: docs}, "ingest", path, "--user", "alice")

	require.NoError(t, err)
	require.NotNil(t, docs.uploaded)
	assert.Equal(t, "alice", docs.uploaded.UserID)
	assert.Equal(t, "Policy.txt", docs.uploaded.Filename)
	assert.Equal(t, "Refunds are accepted within 30 days.", string(docs.uploaded.Content))
	assert.Contains(t, out, "Ingested Policy.txt")
	assert.Contains(t, out, "Chunks:  3")
}

func TestIngest_RequiresUser(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.txt")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o600))

	_, err := run(t, &Services{Documents: &fakeDocuments{}}, "ingest", path)

	assert.ErrorIs(t, err, entity.ErrMissingField)
}

func TestIngest_MissingFile(t *testing.T) {
	_, err := run(t, &Services{Documents: &fakeDocuments{}}, "ingest", "/does/not/exist.txt", "--user", "alice")

	assert.Error(t, err)
}

func TestDocsList(t *testing.T) {
	docs := &fakeDocuments{docs: []*entity.Document{
		{ID: "doc-a", Name: "a.txt", Status: entity.DocumentStatusReady},
		{ID: "doc-b", Name: "b.pdf", Status: entity.DocumentStatusFailed, Error: strPtr("no text")},
	}}

	out, err := run(t, &Services{Documents: docs}, "docs", "list", "--user", "alice")

	require.NoError(t, err)
	assert.Contains(t, out, "doc-a")
	assert.Contains(t, out, "Error:   no text")
	assert.Contains(t, out, "Total: 2 documents")
}

func TestDocsList_Empty(t *testing.T) {
	out, err := run(t, &Services{Documents: &fakeDocuments{}}, "docs", "list", "-u", "alice")

	require.NoError(t, err)
	assert.Contains(t, out, "No documents found.")
}

func TestDocsRm(t *testing.T) {
	docs := &fakeDocuments{}
	out, err := run(t, &Services{Documents: docs}, "docs", "rm", "doc-a", "--user", "alice")

	require.NoError(t, err)
	assert.Equal(t, "doc-a", docs.deleted)
	assert.Contains(t, out, "Deleted doc-a")
}

func TestDocsRm_NotFound(t *testing.T) {
	docs := &fakeDocuments{err: entity.ErrDocumentNotFound}
	_, err := run(t, &Services{Documents: docs}, "docs", "rm", "doc-a", "--user", "alice")

	assert.ErrorIs(t, err, entity.ErrDocumentNotFound)
}

func TestDocsReingest_RequiresArg(t *testing.T) {
	_, err := run(t, &Services{Documents: &fakeDocuments{}}, "docs", "reingest", "--user", "alice")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg(s)")
}

func TestDocsReingest(t *testing.T) {
	out, err := run(t, &Services{Documents: &fakeDocuments{}}, "docs", "reingest", "doc-a", "--user", "alice")

	require.NoError(t, err)
	assert.Contains(t, out, "doc-a")
	assert.Contains(t, out, "Chunks:  2")
}

var policyChunk = entity.RetrievedChunk{
	DocumentID: "doc-1",
	ChunkIndex: 0,
	Content:    "Refunds are accepted within 30 days.",
	Metadata:   map[string]any{"char_start": 0},
	Score:      0.93,
}

func TestAsk_StreamsAnswerAndSources(t *testing.T) {
	chat := newChat(t, []entity.RetrievedChunk{policyChunk}, stubCompleter{fragments: []string{"Within ", "30 days."}})

	out, err := run(t, &Services{Chat: chat}, "ask", "What is the refund window?", "--user", "alice", "--doc", "doc-1")

	require.NoError(t, err)
	assert.Contains(t, out, "Within 30 days.\n")
	assert.Contains(t, out, "Sources:")
	assert.Contains(t, out, "[chunk-1] document doc-1, chunk 0 (0.93)")
}

func TestAsk_JSON(t *testing.T) {
	chat := newChat(t, []entity.RetrievedChunk{policyChunk}, stubCompleter{fragments: []string{"Within 30 days."}})

	out, err := run(t, &Services{Chat: chat}, "ask", "refund?", "--user", "alice", "-d", "doc-1", "--json")

	require.NoError(t, err)
	var res askResult
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, "Within 30 days.", res.Answer)
	require.NotNil(t, res.Sources)
	require.Len(t, res.Sources.Sources, 1)
	assert.Equal(t, "chunk-1", res.Sources.Sources[0].ID)
}

func TestAsk_NoContextHasNoSources(t *testing.T) {
	chat := newChat(t, nil, stubCompleter{fragments: []string{"I can only answer about Policy.txt."}})

	out, err := run(t, &Services{Chat: chat}, "ask", "Who won?", "--user", "alice", "--doc", "doc-1")

	require.NoError(t, err)
	assert.Contains(t, out, "I can only answer about Policy.txt.")
	assert.NotContains(t, out, "Sources:")
}

func TestAsk_RequiresDocuments(t *testing.T) {
	_, err := run(t, &Services{}, "ask", "refund?", "--user", "alice")

	assert.ErrorIs(t, err, entity.ErrNoDocumentsSelected)
}

func TestAsk_Interrupted(t *testing.T) {
	chat := newChat(t, []entity.RetrievedChunk{policyChunk}, stubCompleter{
		fragments: []string{"Within "},
		err:       errors.New("connection reset"),
	})

	out, err := run(t, &Services{Chat: chat}, "ask", "refund?", "--user", "alice", "--doc", "doc-1")

	assert.ErrorIs(t, err, entity.ErrStreamInterrupted)
	assert.Contains(t, out, "Within ")
	assert.NotContains(t, out, "Sources:")
}

func TestWithServices_OpenFailure(t *testing.T) {
	root := NewRootCommand(func(string) (*Services, error) {
		return nil, entity.ErrConfiguration
	})
	root.SetOut(new(bytes.Buffer))
	root.SetErr(new(bytes.Buffer))
	root.SetArgs([]string{"docs", "list", "--user", "alice"})

	err := root.Execute()

	assert.ErrorIs(t, err, entity.ErrConfiguration)
}

func strPtr(s string) *string { return &s }
