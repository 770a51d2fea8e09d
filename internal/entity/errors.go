package entity

import (
	"errors"
	"fmt"
)

// Domain errors
var (
	// Document errors
	ErrDocumentNotFound    = errors.New("document not found")
	ErrUnsupportedMimeType = errors.New("unsupported file type")
	ErrFileTooLarge        = errors.New("file too large")
	ErrEmptyDocument       = errors.New("document contains no text")
	ErrExtractionFailed    = errors.New("text extraction failed")

	// Chat errors
	ErrNoDocumentsSelected = errors.New("no documents selected")
	ErrInvalidRole         = errors.New("invalid chat role")
	ErrNoUserMessage       = errors.New("no user message found")
	ErrUnsupportedFormat   = errors.New("unsupported export format")

	// Pipeline errors
	ErrConfiguration     = errors.New("configuration error")
	ErrTransientService  = errors.New("transient service error")
	ErrInputTooLong      = errors.New("input exceeds model limit")
	ErrIngestionFailed   = errors.New("ingestion failed")
	ErrRetrievalFailed   = errors.New("retrieval failed")
	ErrStreamInterrupted = errors.New("stream interrupted")
	ErrStreamNotDrained  = errors.New("stream has not been fully consumed")

	// Validation errors
	ErrMissingField     = errors.New("required field is missing")
	ErrInvalidParameter = errors.New("invalid parameter")
)

// TransientServiceError marks a failure of an external service that may
// succeed when retried (rate limiting, 5xx, network).
type TransientServiceError struct {
	Service string
	Err     error
}

func NewTransientError(service string, err error) error {
	return &TransientServiceError{Service: service, Err: err}
}

func (e *TransientServiceError) Error() string {
	return fmt.Sprintf("%s service temporarily unavailable: %v", e.Service, e.Err)
}

func (e *TransientServiceError) Unwrap() error { return e.Err }

func (e *TransientServiceError) Is(target error) bool { return target == ErrTransientService }

// IsTransient reports whether err is worth retrying.
func IsTransient(err error) bool {
	return errors.Is(err, ErrTransientService)
}

// IngestionFailedError is returned when a document could not be chunked,
// embedded or persisted. No partial chunk set is left behind.
type IngestionFailedError struct {
	DocumentID string
	Err        error
}

func (e *IngestionFailedError) Error() string {
	return fmt.Sprintf("ingestion of document %s failed: %v", e.DocumentID, e.Err)
}

func (e *IngestionFailedError) Unwrap() error { return e.Err }

func (e *IngestionFailedError) Is(target error) bool { return target == ErrIngestionFailed }

// RetrievalFailedError is distinct from an empty result: the store or the
// embedding service could not answer.
type RetrievalFailedError struct {
	QueryHash string
	Err       error
}

func (e *RetrievalFailedError) Error() string {
	return fmt.Sprintf("retrieval for query %s failed: %v", e.QueryHash, e.Err)
}

func (e *RetrievalFailedError) Unwrap() error { return e.Err }

func (e *RetrievalFailedError) Is(target error) bool { return target == ErrRetrievalFailed }

// StreamInterruptedError is surfaced when the completion stream fails after
// it has started. No source annotation follows it.
type StreamInterruptedError struct {
	Err error
}

func (e *StreamInterruptedError) Error() string {
	return fmt.Sprintf("response stream interrupted: %v", e.Err)
}

func (e *StreamInterruptedError) Unwrap() error { return e.Err }

func (e *StreamInterruptedError) Is(target error) bool { return target == ErrStreamInterrupted }

// ErrorKind returns the stable machine-readable kind used in API error bodies.
func ErrorKind(err error) string {
	switch {
	case errors.Is(err, ErrNoDocumentsSelected):
		return "no_documents_selected"
	case errors.Is(err, ErrDocumentNotFound):
		return "not_found"
	case errors.Is(err, ErrUnsupportedMimeType), errors.Is(err, ErrFileTooLarge):
		return "invalid_file"
	case errors.Is(err, ErrEmptyDocument):
		return "empty_document"
	case errors.Is(err, ErrExtractionFailed):
		return "extraction_failed"
	case errors.Is(err, ErrIngestionFailed):
		return "ingestion_failed"
	case errors.Is(err, ErrRetrievalFailed):
		return "retrieval_failed"
	case errors.Is(err, ErrStreamInterrupted):
		return "stream_interrupted"
	case errors.Is(err, ErrInvalidRole), errors.Is(err, ErrNoUserMessage),
		errors.Is(err, ErrMissingField), errors.Is(err, ErrInvalidParameter),
		errors.Is(err, ErrUnsupportedFormat):
		return "invalid_request"
	case errors.Is(err, ErrTransientService):
		return "service_unavailable"
	default:
		return "internal_error"
	}
}
