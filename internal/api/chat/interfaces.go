package chat

import (
	"context"

	"github.com/futig/docchat/internal/entity"
	chatuc "github.com/futig/docchat/internal/usecase/chat"
)

type ChatUsecase interface {
	Respond(ctx context.Context, req *entity.ChatRequest) (*chatuc.Reply, error)
}

type TranscriptExporter interface {
	Export(ctx context.Context, req *entity.ExportTranscriptRequest) (*entity.ExportedFile, error)
}
