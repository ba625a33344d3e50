package preview

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"

	"github.com/hellsecdev/hellsec.dev/internal/logfields"
	"github.com/hellsecdev/hellsec.dev/internal/metrics"
)

const shutdownTimeout = 5 * time.Second

// Server serves the output tree over HTTP.
type Server struct {
	addr     string
	root     string
	registry *prom.Registry
	status   *BuildStatus
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithRegistry exposes reg on /metrics.
func WithRegistry(reg *prom.Registry) ServerOption {
	return func(s *Server) { s.registry = reg }
}

// WithBuildStatus makes the server report failed builds.
func WithBuildStatus(bs *BuildStatus) ServerOption {
	return func(s *Server) { s.status = bs }
}

// NewServer returns a Server for the tree at root listening on addr.
func NewServer(addr, root string, opts ...ServerOption) *Server {
	s := &Server{addr: addr, root: root}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the request router.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	if s.registry != nil {
		mux.Handle("/metrics", metrics.HTTPHandler(s.registry))
	}
	files := http.FileServer(http.Dir(s.root))
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		// Browsers must never keep a stale worker or asset during preview.
		w.Header().Set("Cache-Control", "no-store")
		if s.status != nil {
			if lastErr, good := s.status.Get(); lastErr != nil {
				if !good {
					http.Error(w, "build failed: "+lastErr.Error(), http.StatusServiceUnavailable)
					return
				}
				w.Header().Set("X-Sitebuild-Error", lastErr.Error())
			}
		}
		files.ServeHTTP(w, r)
	})
	return mux
}

// ListenAndServe serves until ctx is done, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is ListenAndServe on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()
	slog.Info("Preview server listening", logfields.URL("http://"+ln.Addr().String()))

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	slog.Info("Shutting down preview server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Warn("HTTP server shutdown error", logfields.Error(err))
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
