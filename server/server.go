// Package server exposes the façade over HTTP using gorilla/mux.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	dreamscape "github.com/jason-allen-oneal/dreamscape-ai"
	"github.com/jason-allen-oneal/dreamscape-ai/logging"
)

// Options configures a Server.
type Options struct {
	// RecordsPath is the dream record file read by GET /api/world.
	RecordsPath string

	// StaticDir, when set, is served at "/" so generated assets resolve.
	StaticDir string

	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration

	Logger logging.Logger
}

// Server serves the HTTP API.
type Server struct {
	ds     *dreamscape.Dreamscape
	opts   Options
	router *mux.Router
	logger logging.Logger
}

// New creates a Server and registers its routes.
func New(ds *dreamscape.Dreamscape, optFns ...func(o *Options)) *Server {
	opts := Options{
		RecordsPath:     "dreams.json",
		ReadTimeout:     30 * time.Second,
		WriteTimeout:    15 * time.Minute,
		ShutdownTimeout: 10 * time.Second,
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	s := &Server{
		ds:     ds,
		opts:   opts,
		router: mux.NewRouter(),
		logger: logging.OrNoOp(opts.Logger),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.router.Use(s.loggingMiddleware)

	api := s.router.PathPrefix("/api").Subrouter()
	api.Use(jsonMiddleware)
	api.HandleFunc("/world", s.handleWorld).Methods(http.MethodGet)
	api.HandleFunc("/world/status", s.handleWorldStatus).Methods(http.MethodGet)
	api.HandleFunc("/dreams/classify", s.handleClassify).Methods(http.MethodPost)
	api.HandleFunc("/dreams/analyze", s.handleAnalyze).Methods(http.MethodPost)

	s.router.Handle("/health", jsonMiddleware(http.HandlerFunc(handleHealth))).Methods(http.MethodGet)

	if s.opts.StaticDir != "" {
		s.router.PathPrefix("/").Handler(http.FileServer(http.Dir(s.opts.StaticDir))).Methods(http.MethodGet, http.MethodHead)
	}
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler { return s.router }

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("server: listen %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.router,
		ReadTimeout:       s.opts.ReadTimeout,
		ReadHeaderTimeout: s.opts.ReadTimeout,
		WriteTimeout:      s.opts.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server.listening", "addr", ln.Addr().String())
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.opts.ShutdownTimeout)
	defer cancel()

	s.logger.Info("server.shutdown")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
