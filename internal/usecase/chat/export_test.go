package chat

import (
	"context"
	"testing"
	"time"

	"github.com/futig/docchat/internal/entity"
	"github.com/futig/docchat/internal/pkg/formatter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExport_Markdown(t *testing.T) {
	e := NewExporter(formatter.NewFactory())
	e.now = func() time.Time { return time.Date(2025, 3, 1, 12, 30, 0, 0, time.UTC) }

	file, err := e.Export(context.Background(), &entity.ExportTranscriptRequest{
		Format: entity.FormatMarkdown,
		Turns: []entity.ChatTurn{
			{Role: entity.RoleUser, Content: "What is the refund window?"},
			{Role: entity.RoleAssistant, Content: "30 days."},
		},
		Source: &entity.SourceAnnotation{Sources: []entity.Source{{ID: "chunk-1", Content: "Refunds are processed within 30 days.", DocumentID: "doc-1"}}},
	})
	require.NoError(t, err)
	assert.Equal(t, "chat-20250301-123000.md", file.Filename)
	assert.Equal(t, "text/markdown; charset=utf-8", file.ContentType)
	assert.Contains(t, string(file.Content), "**Assistant:** 30 days.")
	assert.Contains(t, string(file.Content), "### chunk-1 (document doc-1, chunk 0)")
}

func TestExport_Invalid(t *testing.T) {
	e := NewExporter(formatter.NewFactory())
	turns := []entity.ChatTurn{{Role: entity.RoleUser, Content: "q"}}

	_, err := e.Export(context.Background(), &entity.ExportTranscriptRequest{Format: "html", Turns: turns})
	assert.ErrorIs(t, err, entity.ErrUnsupportedFormat)

	_, err = e.Export(context.Background(), &entity.ExportTranscriptRequest{Format: entity.FormatPDF})
	assert.ErrorIs(t, err, entity.ErrMissingField)

	_, err = e.Export(context.Background(), &entity.ExportTranscriptRequest{
		Format: entity.FormatMarkdown,
		Turns:  []entity.ChatTurn{{Role: "bot", Content: "x"}},
	})
	assert.ErrorIs(t, err, entity.ErrInvalidRole)
}
