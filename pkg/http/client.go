package http

import (
	"net"
	"net/http"
	"time"
)

type TransportFunc func(http.RoundTripper) http.RoundTripper

// Timeouts bounds each phase of an outbound call. Zero fields keep the
// defaults.
type Timeouts struct {
	Dial           time.Duration
	KeepAlive      time.Duration
	ResponseHeader time.Duration
	IdleConn       time.Duration
	// Request covers the whole exchange including reading a streamed body.
	Request        time.Duration
}

// Option tunes the client built by NewClient.
type Option func(*clientConfig)

type clientConfig struct {
	timeouts   Timeouts
	transports []TransportFunc
}

// Completion streams stay open for the whole answer, so the request timeout
// is generous while the header timeout stays short.
var defaultTimeouts = Timeouts{
	Dial:           10 * time.Second,
	KeepAlive:      90 * time.Second,
	ResponseHeader: 60 * time.Second,
	IdleConn:       90 * time.Second,
	Request:        5 * time.Minute,
}

func WithTimeouts(t Timeouts) Option {
	return func(c *clientConfig) {
		c.timeouts = mergeTimeouts(c.timeouts, t)
	}
}

func WithTransport(transport TransportFunc) Option {
	return func(c *clientConfig) {
		c.transports = append(c.transports, transport)
	}
}

func mergeTimeouts(base, override Timeouts) Timeouts {
	pick := func(b, o time.Duration) time.Duration {
		if o > 0 {
			return o
		}
		return b
	}
	return Timeouts{
		Dial:           pick(base.Dial, override.Dial),
		KeepAlive:      pick(base.KeepAlive, override.KeepAlive),
		ResponseHeader: pick(base.ResponseHeader, override.ResponseHeader),
		IdleConn:       pick(base.IdleConn, override.IdleConn),
		Request:        pick(base.Request, override.Request),
	}
}

// NewClient builds an *http.Client for provider APIs with the RoundTripper
// wrappers applied in order.
func NewClient(opts ...Option) *http.Client {
	cfg := &clientConfig{timeouts: defaultTimeouts}
	for _, opt := range opts {
		opt(cfg)
	}
	t := cfg.timeouts

	dialer := net.Dialer{
		Timeout:   t.Dial,
		KeepAlive: t.KeepAlive,
	}

	var transport http.RoundTripper = &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   16,
		TLSHandshakeTimeout:   t.Dial,
		ResponseHeaderTimeout: t.ResponseHeader,
		IdleConnTimeout:       t.IdleConn,
		ForceAttemptHTTP2:     true,
	}

	for _, wrap := range cfg.transports {
		transport = wrap(transport)
	}

	return &http.Client{
		Timeout:   t.Request,
		Transport: transport,
	}
}
