package entity

type UploadDocumentRequest struct {
	UserID   string
	Filename string
	MimeType string
	Content  []byte
}

type DocumentDetail struct {
	ID         string         `json:"id"`
	Name       string         `json:"name"`
	MimeType   string         `json:"mime_type"`
	Size       int64          `json:"size"`
	Status     DocumentStatus `json:"status"`
	ChunkCount int            `json:"chunk_count"`
	Error      *string        `json:"error,omitempty"`
	CreatedAt  string         `json:"created_at"`
}

type ListDocumentsResponse struct {
	Documents []*DocumentDetail `json:"documents"`
}

type DeleteDocumentResponse struct {
	Status string `json:"status"`
}
