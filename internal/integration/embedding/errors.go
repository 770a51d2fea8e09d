package embedding

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"strings"

	"github.com/futig/docchat/internal/entity"
	"github.com/openai/openai-go"
	"google.golang.org/genai"

	pkghttp "github.com/futig/docchat/pkg/http"
)

const serviceName = "embedding"

// classifyError maps provider failures onto the transient/permanent split
// the embedder retries on.
func classifyError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	var oaErr *openai.Error
	if errors.As(err, &oaErr) {
		return classifyStatus(oaErr.StatusCode, oaErr.Code+" "+oaErr.Message, err)
	}

	var gErr genai.APIError
	if errors.As(err, &gErr) {
		return classifyStatus(gErr.Code, gErr.Message, err)
	}

	var httpErr *pkghttp.HTTPError
	if errors.As(err, &httpErr) {
		return classifyStatus(httpErr.StatusCode, httpErr.Message, err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) || errors.Is(err, io.ErrUnexpectedEOF) {
		return entity.NewTransientError(serviceName, err)
	}

	return err
}

func classifyStatus(status int, message string, err error) error {
	switch {
	case pkghttp.RetryableStatus(status):
		return entity.NewTransientError(serviceName, err)
	case status == http.StatusRequestEntityTooLarge || isContextLength(message):
		return errors.Join(entity.ErrInputTooLong, err)
	default:
		return err
	}
}

func isContextLength(message string) bool {
	m := strings.ToLower(message)
	return strings.Contains(m, "context_length_exceeded") ||
		strings.Contains(m, "maximum context length") ||
		strings.Contains(m, "too long")
}
