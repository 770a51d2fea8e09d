package chat

import (
	"context"
	"fmt"
	"time"

	"github.com/futig/docchat/internal/entity"
	"github.com/futig/docchat/internal/pkg/formatter"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

// Exporter renders conversations as downloadable files
type Exporter struct {
	formatters *formatter.Factory
	now        func() time.Time
}

func NewExporter(formatters *formatter.Factory) *Exporter {
	return &Exporter{formatters: formatters, now: time.Now}
}

// Export renders the turns and sources of a conversation in the requested format.
func (e *Exporter) Export(ctx context.Context, req *entity.ExportTranscriptRequest) (*entity.ExportedFile, error) {
	if !req.Format.IsValid() {
		return nil, fmt.Errorf("%w: %q", entity.ErrUnsupportedFormat, req.Format)
	}
	if len(req.Turns) == 0 {
		return nil, fmt.Errorf("%w: messages", entity.ErrMissingField)
	}
	for i, t := range req.Turns {
		if err := t.Role.Validate(); err != nil {
			return nil, fmt.Errorf("message %d: %w", i, err)
		}
	}

	f, err := e.formatters.Create(req.Format)
	if err != nil {
		return nil, err
	}

	transcript := &formatter.Transcript{Turns: req.Turns}
	if req.Source != nil {
		transcript.Sources = req.Source.Sources
	}

	content, err := f.Format(transcript)
	if err != nil {
		return nil, fmt.Errorf("format transcript: %w", err)
	}

	ctxzap.Info(ctx, "transcript exported",
		zap.String("format", string(req.Format)),
		zap.Int("turns", len(req.Turns)),
		zap.Int("size", len(content)),
	)

	return &entity.ExportedFile{
		Filename:    fmt.Sprintf("chat-%s%s", e.now().UTC().Format("20060102-150405"), f.FileExtension()),
		ContentType: f.ContentType(),
		Content:     content,
	}, nil
}
