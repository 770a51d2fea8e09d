package document

import "context"

type Extractor interface {
	Extract(ctx context.Context, content []byte, mimeType string) (string, error)
}

type Ingester interface {
	Ingest(ctx context.Context, documentID, text string) (int, error)
}
