package formatter

import (
	"fmt"

	"github.com/futig/docchat/internal/entity"
)

const baseTitle = "Chat transcript"

// Transcript is a finished conversation with the sources of its last answer.
type Transcript struct {
	Turns   []entity.ChatTurn
	Sources []entity.Source
}

type Formatter interface {
	Format(t *Transcript) ([]byte, error)
	ContentType() string
	FileExtension() string
}

type Factory struct{}

func NewFactory() *Factory {
	return &Factory{}
}

func (f *Factory) Create(format entity.ResultFormat) (Formatter, error) {
	switch format {
	case entity.FormatMarkdown:
		return NewMarkdownFormatter(), nil
	case entity.FormatDOCX:
		return NewDOCXFormatter(), nil
	case entity.FormatPDF:
		return NewPDFFormatter(), nil
	default:
		return nil, fmt.Errorf("%w: %s", entity.ErrUnsupportedFormat, format)
	}
}

func roleLabel(role entity.Role) string {
	switch role {
	case entity.RoleUser:
		return "User"
	case entity.RoleAssistant:
		return "Assistant"
	case entity.RoleSystem:
		return "System"
	default:
		return string(role)
	}
}

func sourceHeading(s entity.Source) string {
	return fmt.Sprintf("%s (document %s, chunk %d)", s.ID, s.DocumentID, s.ChunkIndex)
}
