package web

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net"
	"net/http"
	"time"

	"github.com/cjeanneret/GoRover/internal/debug"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/net/netutil"
)

// DefaultMaxConns bounds concurrent connections; SSE clients hold one each.
const DefaultMaxConns = 8

// Server wraps the HTTP server and handlers.
type Server struct {
	addr     string
	maxConns int
	handlers *Handlers
}

// NewServer creates a server for addr serving the embedded control page.
func NewServer(addr string, maxConns int, drv Executor, broadcaster *StatusBroadcaster, settings Settings) (*Server, error) {
	subFS, err := fs.Sub(staticFiles, "static")
	if err != nil {
		return nil, fmt.Errorf("web: static fs: %w", err)
	}
	if maxConns <= 0 {
		maxConns = DefaultMaxConns
	}
	return &Server{
		addr:     addr,
		maxConns: maxConns,
		handlers: NewHandlers(drv, broadcaster, settings, subFS),
	}, nil
}

// Handler returns the router with all routes registered.
func (s *Server) Handler() http.Handler {
	return newRouter(s.handlers)
}

func newRouter(h *Handlers) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)

	r.Get("/status/stream", h.HandleStatusStream)
	r.Get("/config", h.HandleConfig)
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(h.staticFS))))

	// Everything else is a command attempt.
	r.HandleFunc("/", h.HandleCommand)
	r.HandleFunc("/*", h.HandleCommand)
	r.NotFound(h.HandleCommand)
	r.MethodNotAllowed(h.ServeIndex)
	return r
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		debug.Trace("HTTP %s %s from %s (%v)", r.Method, r.URL.Path, r.RemoteAddr, time.Since(start))
	})
}

// Listen binds the TCP port. Errors here mean the rover cannot serve at all.
func (s *Server) Listen() (net.Listener, error) {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return nil, fmt.Errorf("bind %s: %w", s.addr, err)
	}
	return netutil.LimitListener(ln, s.maxConns), nil
}

// Serve answers requests on ln until ctx is cancelled, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		// Request contexts end with ctx so open SSE streams let Shutdown finish.
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		debug.Info("Web server listening on %s", ln.Addr())
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
