package common

import (
	"net/http"

	"github.com/futig/docchat/internal/config"
	pkgHTTP "github.com/futig/docchat/pkg/http"
	"go.uber.org/zap"
)

func timeouts(cfg config.HTTPClientConfig) pkgHTTP.Option {
	return pkgHTTP.WithTimeouts(pkgHTTP.Timeouts{
		Dial:           cfg.ConnTimeout,
		KeepAlive:      cfg.KeepAlive,
		ResponseHeader: cfg.ResponseHeaderTimeout,
		IdleConn:       cfg.IdleConnTimeout,
		Request:        cfg.RequestTimeout,
	})
}

// NewBaseConnector builds a JSON connector for providers without an SDK.
func NewBaseConnector(cfg config.HTTPClientConfig, logger *zap.Logger) *pkgHTTP.Connector {
	return pkgHTTP.NewConnector(
		&pkgHTTP.ConnectorConfig{Logger: logger, BaseURL: cfg.Url},
		timeouts(cfg),
		pkgHTTP.WithRequestLogging(),
		pkgHTTP.WithAuthToken(cfg.Token),
	)
}

// NewHTTPClient builds the client handed to provider SDKs. Authentication
// is left to the SDK.
func NewHTTPClient(cfg config.HTTPClientConfig) *http.Client {
	return pkgHTTP.NewClient(timeouts(cfg), pkgHTTP.WithRequestLogging())
}
