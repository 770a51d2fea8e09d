package extractor

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/futig/docchat/internal/entity"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"github.com/ledongthuc/pdf"
	"github.com/unidoc/unioffice/document"
	"go.uber.org/zap"
)

const (
	MimeTextPlain = "text/plain"
	MimePDF       = "application/pdf"
	MimeMSWord    = "application/msword"
	MimeDOCX      = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
)

// Extractor turns uploaded bytes into plain text. Failures are returned as
// ErrExtractionFailed and never replaced by placeholder text.
type Extractor struct {
	logger *zap.Logger
}

func New(logger *zap.Logger) *Extractor {
	return &Extractor{logger: logger}
}

func (e *Extractor) Extract(ctx context.Context, content []byte, mimeType string) (string, error) {
	var (
		text string
		err  error
	)

	switch mimeType {
	case MimeTextPlain:
		text, err = extractPlain(content)
	case MimePDF:
		text, err = extractPDF(content)
	case MimeDOCX, MimeMSWord:
		// legacy .doc binaries are not OOXML and fail here
		text, err = extractDOCX(content)
	default:
		return "", fmt.Errorf("%w: %s", entity.ErrUnsupportedMimeType, mimeType)
	}

	if err != nil {
		ctxzap.Warn(ctx, "text extraction failed", zap.String("mime_type", mimeType), zap.Error(err))
		return "", fmt.Errorf("%w: %w", entity.ErrExtractionFailed, err)
	}

	ctxzap.Debug(ctx, "text extracted",
		zap.String("mime_type", mimeType),
		zap.Int("chars", utf8.RuneCountInString(text)),
	)

	return text, nil
}

func extractPlain(content []byte) (string, error) {
	content = bytes.TrimPrefix(content, []byte("\xef\xbb\xbf"))
	if !utf8.Valid(content) {
		return "", fmt.Errorf("text is not valid UTF-8")
	}
	return string(content), nil
}

func extractPDF(content []byte) (text string, err error) {
	// the pdf reader panics on some malformed inputs
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("malformed pdf: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}

	plain, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("read pdf text: %w", err)
	}

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(plain); err != nil {
		return "", fmt.Errorf("read pdf text: %w", err)
	}
	return buf.String(), nil
}

func extractDOCX(content []byte) (string, error) {
	doc, err := document.Read(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", fmt.Errorf("open docx: %w", err)
	}
	defer doc.Close()

	paragraphs := make([]string, 0, len(doc.Paragraphs()))
	for _, p := range doc.Paragraphs() {
		var line strings.Builder
		for _, r := range p.Runs() {
			line.WriteString(r.Text())
		}
		paragraphs = append(paragraphs, line.String())
	}

	return strings.Join(paragraphs, "\n\n"), nil
}
