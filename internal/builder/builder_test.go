package builder

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/futig/docchat/internal/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setMockEnv(t *testing.T) {
	t.Helper()
	t.Setenv("REPOSITORY_DRIVER", "memory")
	t.Setenv("ENABLE_MOCKS", "true")
	t.Setenv("STORAGE_DIR", t.TempDir())
	t.Setenv("EMBEDDING_DIMENSIONS", "64")
	t.Setenv("LOG_LEVEL", "error")
}

func upload(t *testing.T, h http.Handler, user, name, content string) *httptest.ResponseRecorder {
	t.Helper()
	body := new(bytes.Buffer)
	mw := multipart.NewWriter(body)
	require.NoError(t, mw.WriteField("user_id", user))
	fw, err := mw.CreateFormFile("file", name)
	require.NoError(t, err)
	_, err = fw.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/documents", body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestBuild_InvalidConfiguration(t *testing.T) {
	t.Setenv("REPOSITORY_DRIVER", "cassandra")

	_, err := BuildServices("test")

	require.Error(t, err)
	assert.ErrorIs(t, err, entity.ErrConfiguration)
}

func TestBuild_UploadThenChat(t *testing.T) {
	setMockEnv(t)

	app, err := Build("test")
	require.NoError(t, err)
	defer app.services.Close()
	h := app.server.Handler

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	const policy = "Refunds are accepted within 30 days of purchase."
	rec = upload(t, h, "alice", "Policy.txt", policy)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var doc entity.DocumentDetail
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))
	assert.Equal(t, entity.DocumentStatusReady, doc.Status)
	assert.Equal(t, 1, doc.ChunkCount)

	chatReq, _ := json.Marshal(entity.ChatRequest{
		UserID:      "alice",
		DocumentIDs: []string{doc.ID},
		Turns:       []entity.ChatTurn{{Role: entity.RoleUser, Content: policy}},
	})
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/chat", bytes.NewReader(chatReq)))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
	body := rec.Body.String()
	assert.Contains(t, body, "event: delta")
	assert.Contains(t, body, "event: sources")
	assert.Contains(t, body, `"documentId":"`+doc.ID+`"`)
	assert.True(t, strings.HasSuffix(body, "event: done\ndata: {}\n\n"))
}

func TestBuild_ChatIsScopedToOwner(t *testing.T) {
	setMockEnv(t)

	app, err := Build("test")
	require.NoError(t, err)
	defer app.services.Close()
	h := app.server.Handler

	const policy = "Refunds are accepted within 30 days of purchase."
	rec := upload(t, h, "alice", "Policy.txt", policy)
	require.Equal(t, http.StatusCreated, rec.Code)
	var doc entity.DocumentDetail
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))

	chatReq, _ := json.Marshal(entity.ChatRequest{
		UserID:      "mallory",
		DocumentIDs: []string{doc.ID},
		Turns:       []entity.ChatTurn{{Role: entity.RoleUser, Content: policy}},
	})
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/chat", bytes.NewReader(chatReq)))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "event: sources")
	assert.Contains(t, rec.Body.String(), "event: done")
}
