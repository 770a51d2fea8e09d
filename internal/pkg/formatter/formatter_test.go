package formatter

import (
	"bytes"
	"testing"

	"github.com/futig/docchat/internal/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTranscript() *Transcript {
	return &Transcript{
		Turns: []entity.ChatTurn{
			{Role: entity.RoleUser, Content: "What is the refund window?"},
			{Role: entity.RoleAssistant, Content: "Refunds take up to 30 days."},
		},
		Sources: []entity.Source{{
			ID:         "chunk-1",
			Content:    "Refunds are processed within 30 days.",
			DocumentID: "doc-1",
			ChunkIndex: 0,
		}},
	}
}

func TestFactory_Create(t *testing.T) {
	f := NewFactory()

	tests := []struct {
		format entity.ResultFormat
		ext    string
	}{
		{entity.FormatMarkdown, ".md"},
		{entity.FormatDOCX, ".docx"},
		{entity.FormatPDF, ".pdf"},
	}
	for _, tt := range tests {
		t.Run(string(tt.format), func(t *testing.T) {
			got, err := f.Create(tt.format)
			require.NoError(t, err)
			assert.Equal(t, tt.ext, got.FileExtension())
		})
	}

	_, err := f.Create("html")
	assert.ErrorIs(t, err, entity.ErrUnsupportedFormat)
}

func TestMarkdownFormatter(t *testing.T) {
	out, err := NewMarkdownFormatter().Format(sampleTranscript())
	require.NoError(t, err)

	want := "# Chat transcript\n" +
		"\n**User:** What is the refund window?\n" +
		"\n**Assistant:** Refunds take up to 30 days.\n" +
		"\n## Sources\n" +
		"\n### chunk-1 (document doc-1, chunk 0)\n\n" +
		"> Refunds are processed within 30 days.\n"
	assert.Equal(t, want, string(out))
}

func TestMarkdownFormatter_NoSources(t *testing.T) {
	tr := sampleTranscript()
	tr.Sources = nil

	out, err := NewMarkdownFormatter().Format(tr)
	require.NoError(t, err)
	assert.NotContains(t, string(out), "## Sources")
}

func TestPDFFormatter(t *testing.T) {
	out, err := NewPDFFormatter().Format(sampleTranscript())
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF-")))
	assert.Equal(t, "application/pdf", NewPDFFormatter().ContentType())
}
