package http_server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/voyage-finance/voyage-llm-forwarder/handler"
	"github.com/voyage-finance/voyage-llm-forwarder/http_server/routes"
	"go.uber.org/zap"
)

const shutdownTimeout = 5 * time.Second

// NewRouter exposes the forwarder at POST /chat.
func NewRouter(f *handler.Forwarder, logger *zap.Logger) *mux.Router {
	router := mux.NewRouter().StrictSlash(true)
	router.Use(logging(logger))
	routes.ChatRoute(router, f, logger)
	return router
}

// NewMockRouter exposes a stand-in generation endpoint at POST /generate.
func NewMockRouter(logger *zap.Logger) *mux.Router {
	router := mux.NewRouter().StrictSlash(true)
	router.Use(logging(logger))
	routes.MockRoute(router, logger)
	return router
}

// Serve runs h on l until ctx is done, then shuts down gracefully.
func Serve(ctx context.Context, l net.Listener, h http.Handler, logger *zap.Logger) error {
	srv := &http.Server{
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(l)
	}()
	logger.Info("http server listening", zap.String("addr", l.Addr().String()))

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		<-errCh
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (rw *statusRecorder) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

func logging(logger *zap.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)
			logger.Info("http request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", rec.status),
				zap.Duration("duration", time.Since(start)),
				zap.String("remote_addr", r.RemoteAddr))
		})
	}
}
