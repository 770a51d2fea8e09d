package entity

type ResultFormat string

const (
	FormatMarkdown ResultFormat = "markdown"
	FormatDOCX     ResultFormat = "docx"
	FormatPDF      ResultFormat = "pdf"
)

func (f ResultFormat) IsValid() bool {
	switch f {
	case FormatMarkdown, FormatDOCX, FormatPDF:
		return true
	default:
		return false
	}
}

// ChatRequest is the upward boundary of the chat flow.
type ChatRequest struct {
	Turns       []ChatTurn `json:"messages"`
	UserID      string     `json:"user_id"`
	DocumentIDs []string   `json:"selected_documents"`
}

// LatestUserMessage returns the content of the last turn.
func (r *ChatRequest) LatestUserMessage() string {
	if len(r.Turns) == 0 {
		return ""
	}
	return r.Turns[len(r.Turns)-1].Content
}

type ExportTranscriptRequest struct {
	Format ResultFormat      `json:"format"`
	Turns  []ChatTurn        `json:"messages"`
	Source *SourceAnnotation `json:"sources,omitempty"`
}

type ExportedFile struct {
	Filename    string
	ContentType string
	Content     []byte
}

// ErrorResponse is the JSON body of every API error.
type ErrorResponse struct {
	Kind       string `json:"kind"`
	Message    string `json:"message"`
	DocumentID string `json:"document_id,omitempty"`
}

type DeltaEvent struct {
	Text string `json:"text"`
}
