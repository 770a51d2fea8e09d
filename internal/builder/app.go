package builder

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
)

const shutdownTimeout = 30 * time.Second

// App is the HTTP server together with the services it serves
type App struct {
	server   *http.Server
	services *Services
	logger   *zap.Logger
}

// Run serves HTTP until SIGINT/SIGTERM or a listener failure. In-flight
// requests, including open answer streams, get shutdownTimeout to finish
// before the stores are closed.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 1)
	go func() {
		a.logger.Info("Starting HTTP server", zap.String("addr", a.server.Addr))
		serveErr <- a.server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		a.services.Close()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		a.logger.Error("Server error", zap.Error(err))
		return fmt.Errorf("serve http: %w", err)
	case <-ctx.Done():
		a.logger.Info("Received shutdown signal")
	}

	return a.shutdown()
}

func (a *App) shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	defer a.services.Close()

	a.logger.Info("Shutting down server gracefully", zap.Duration("timeout", shutdownTimeout))
	if err := a.server.Shutdown(ctx); err != nil {
		a.logger.Error("Server shutdown error", zap.Error(err))
		return fmt.Errorf("shutdown http server: %w", err)
	}

	a.logger.Info("Application stopped gracefully")
	return nil
}
