package http

import (
	"net/http"
	"time"

	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

// context keys for attaching request metadata
type payloadContextKey struct{}

// maxLoggedPayload keeps document text out of debug logs beyond a preview.
const maxLoggedPayload = 512

var redactedHeaders = map[string]bool{
	"Authorization":  true,
	"Api-Key":        true,
	"X-Goog-Api-Key": true,
}

type logTransport struct {
	transport http.RoundTripper
}

func (t *logTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	start := time.Now()

	fields := []zap.Field{
		zap.String("method", req.Method),
		zap.String("url", req.URL.Redacted()),
		zap.Any("headers", redact(req.Header)),
	}

	if payload, ok := ctx.Value(payloadContextKey{}).([]byte); ok && len(payload) > 0 {
		if len(payload) > maxLoggedPayload {
			payload = payload[:maxLoggedPayload]
		}
		fields = append(fields, zap.ByteString("payload_preview", payload))
	}

	ctxzap.Debug(ctx, "HTTP outbound request", fields...)

	resp, err := t.transport.RoundTrip(req)
	if err != nil {
		ctxzap.Debug(ctx, "HTTP outbound request failed",
			zap.String("url", req.URL.Redacted()),
			zap.Duration("duration", time.Since(start)),
			zap.Error(err),
		)
		return nil, err
	}

	ctxzap.Debug(ctx, "HTTP outbound response",
		zap.String("url", req.URL.Redacted()),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)),
	)

	return resp, nil
}

func redact(h http.Header) http.Header {
	out := h.Clone()
	for name := range out {
		if redactedHeaders[http.CanonicalHeaderKey(name)] {
			out.Set(name, "[redacted]")
		}
	}
	return out
}

// WithRequestLogging wraps the HTTP transport with debug logging of outbound
// calls. Credentials are redacted and payloads truncated.
func WithRequestLogging() Option {
	return WithTransport(func(rt http.RoundTripper) http.RoundTripper {
		return &logTransport{
			transport: rt,
		}
	})
}
