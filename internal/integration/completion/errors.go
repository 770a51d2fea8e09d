package completion

import (
	"context"
	"errors"
	"io"
	"net"

	"github.com/futig/docchat/internal/entity"
	"github.com/openai/openai-go"
	"google.golang.org/genai"

	pkghttp "github.com/futig/docchat/pkg/http"
)

const serviceName = "completion"

func classifyError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	status := 0
	var oaErr *openai.Error
	var gErr genai.APIError
	switch {
	case errors.As(err, &oaErr):
		status = oaErr.StatusCode
	case errors.As(err, &gErr):
		status = gErr.Code
	}

	if pkghttp.RetryableStatus(status) {
		return entity.NewTransientError(serviceName, err)
	}

	var netErr net.Error
	if status == 0 && (errors.As(err, &netErr) || errors.Is(err, io.ErrUnexpectedEOF)) {
		return entity.NewTransientError(serviceName, err)
	}

	return err
}
