package debug

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/mantoumaster/ai-hedge-fund-API/internal/logger"
	"github.com/mantoumaster/ai-hedge-fund-API/internal/metrics"
)

const shutdownTimeout = 5 * time.Second

// NewMux exposes /health and the Prometheus /metrics endpoint.
func NewMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", metrics.Handler())
	return mux
}

// Serve runs the side server on addr until ctx is done. An empty addr
// disables it.
func Serve(ctx context.Context, addr string, log *logger.Logger) error {
	if addr == "" {
		return nil
	}
	if log == nil {
		log = logger.Component("debug")
	}

	server := &http.Server{
		Addr:         addr,
		Handler:      NewMux(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	log.Infow("metrics server listening", "addr", addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
