package http

import "net/http"

type authTransport struct {
	header    string
	value     string
	transport http.RoundTripper
}

func (t *authTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.value == "" {
		return t.transport.RoundTrip(req)
	}

	reqCopy := req.Clone(req.Context())
	reqCopy.Header.Set(t.header, t.value)

	return t.transport.RoundTrip(reqCopy)
}

// WithAuthToken sets a bearer Authorization header on every request.
func WithAuthToken(token string) Option {
	value := ""
	if token != "" {
		value = "Bearer " + token
	}
	return withAuthHeader("Authorization", value)
}

// WithAPIKeyHeader sets a raw key header such as "api-key".
func WithAPIKeyHeader(header, key string) Option {
	return withAuthHeader(header, key)
}

func withAuthHeader(header, value string) Option {
	return WithTransport(func(rt http.RoundTripper) http.RoundTripper {
		return &authTransport{
			header:    header,
			value:     value,
			transport: rt,
		}
	})
}
