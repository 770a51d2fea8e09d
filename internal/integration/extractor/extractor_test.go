package extractor

import (
	"context"
	"testing"

	"github.com/futig/docchat/internal/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestExtract_PlainText(t *testing.T) {
	e := New(zap.NewNop())

	text, err := e.Extract(context.Background(), []byte("\xef\xbb\xbfRefunds are processed within 30 days."), MimeTextPlain)
	require.NoError(t, err)
	assert.Equal(t, "Refunds are processed within 30 days.", text)
}

func TestExtract_InvalidUTF8(t *testing.T) {
	_, err := New(zap.NewNop()).Extract(context.Background(), []byte{0xff, 0xfe, 0xfd}, MimeTextPlain)
	assert.ErrorIs(t, err, entity.ErrExtractionFailed)
}

func TestExtract_UnsupportedType(t *testing.T) {
	_, err := New(zap.NewNop()).Extract(context.Background(), []byte("x"), "image/png")
	assert.ErrorIs(t, err, entity.ErrUnsupportedMimeType)
}

func TestExtract_BrokenPDFIsAnError(t *testing.T) {
	_, err := New(zap.NewNop()).Extract(context.Background(), []byte("not a pdf"), MimePDF)
	assert.ErrorIs(t, err, entity.ErrExtractionFailed)
}

func TestExtract_LegacyDocIsAnError(t *testing.T) {
	_, err := New(zap.NewNop()).Extract(context.Background(), []byte{0xd0, 0xcf, 0x11, 0xe0}, MimeMSWord)
	assert.ErrorIs(t, err, entity.ErrExtractionFailed)
}
