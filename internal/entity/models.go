package entity

import (
	"fmt"
	"time"
)

type DocumentStatus string

// Document status follows the ingestion lifecycle of an upload
const (
	DocumentStatusProcessing DocumentStatus = "processing" // Stored, ingestion running
	DocumentStatusReady      DocumentStatus = "ready"      // Chunks persisted, searchable
	DocumentStatusFailed     DocumentStatus = "failed"     // Ingestion failed, no chunks
)

// Document is a user-uploaded source. The user that uploaded it owns it.
type Document struct {
	ID          string         `json:"id"`
	UserID      string         `json:"user_id"`
	Name        string         `json:"name"`
	MimeType    string         `json:"mime_type"`
	Size        int64          `json:"size"`
	StoragePath string         `json:"storage_path"`
	Status      DocumentStatus `json:"status"`
	ChunkCount  int            `json:"chunk_count"`
	Error       *string        `json:"error,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// Chunk is a contiguous piece of a document's extracted text together with
// its embedding. (DocumentID, ChunkIndex) is unique.
type Chunk struct {
	DocumentID string         `json:"document_id"`
	ChunkIndex int            `json:"chunk_index"`
	Content    string         `json:"content"`
	Metadata   map[string]any `json:"metadata"`
	Embedding  []float32      `json:"-"`
}

// RetrievedChunk is a chunk returned by similarity search.
type RetrievedChunk struct {
	DocumentID string         `json:"document_id"`
	ChunkIndex int            `json:"chunk_index"`
	Content    string         `json:"content"`
	Metadata   map[string]any `json:"metadata"`
	Score      float64        `json:"score"`
}

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

func (r Role) Validate() error {
	switch r {
	case RoleUser, RoleAssistant, RoleSystem:
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrInvalidRole, string(r))
	}
}

// ChatTurn is one message of a conversation.
type ChatTurn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Source is one entry of a SourceAnnotation.
type Source struct {
	ID         string         `json:"id"`
	Content    string         `json:"content"`
	Metadata   map[string]any `json:"metadata"`
	DocumentID string         `json:"documentId"`
	ChunkIndex int            `json:"chunkIndex"`
}

// SourceAnnotation lists the chunks used to ground an answer, in retrieval order.
type SourceAnnotation struct {
	Sources []Source `json:"sources"`
}
