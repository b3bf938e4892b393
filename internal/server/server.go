// Package server implements the live preview server behind
// "markdown3d serve". It renders the source document through the
// conversion pipeline, serves the resulting scene to an embedded X3DOM
// viewer page, and pushes a reload message over a websocket whenever
// the source file changes on disk.
//
// Routes:
//
//	GET /           embedded viewer page
//	GET /scene.x3d  current scene as X3D
//	GET /scene.json current scene as JSON
//	GET /ws         live-reload websocket
//	GET /healthz    liveness probe
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"

	"github.com/MushroomFleet/Markdown3D-MCP/pkg/observability"
	"github.com/MushroomFleet/Markdown3D-MCP/pkg/pipeline"
)

// DefaultAddr is the listen address used when Config.Addr is empty.
const DefaultAddr = "localhost:8080"

const shutdownTimeout = 5 * time.Second

// Config controls a preview server instance.
type Config struct {
	// Addr is the listen address, defaulting to DefaultAddr.
	Addr string

	// SourcePath is the markdown file to render and watch.
	SourcePath string

	// Options carries the layout and render settings for each build.
	// Source fields and formats are overwritten per build.
	Options pipeline.Options

	// Watch enables rebuilding when the source file changes.
	Watch bool

	Logger *log.Logger
}

// Server renders a single markdown document and serves the resulting
// scene over HTTP. The current artifacts are swapped atomically on each
// rebuild, so handlers never see a half-built scene.
type Server struct {
	runner *pipeline.Runner
	cfg    Config
	logger *log.Logger
	hub    *Hub

	upgrader websocket.Upgrader

	mu        sync.RWMutex
	sceneX3D  []byte
	sceneJSON []byte
}

// New creates a preview server for the given source file. The runner is
// shared so repeated builds of an unchanged document hit its cache.
func New(runner *pipeline.Runner, cfg Config) (*Server, error) {
	if cfg.SourcePath == "" {
		return nil, errors.New("source path is required")
	}
	if err := pipeline.ValidateTemplate(cfg.Options.Template); err != nil {
		return nil, err
	}
	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}
	if cfg.Logger == nil {
		cfg.Logger = log.Default()
	}
	return &Server{
		runner: runner,
		cfg:    cfg,
		logger: cfg.Logger,
		hub:    NewHub(cfg.Logger),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Local preview tool; any origin may connect.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}, nil
}

// Run builds the scene, starts watching the source when configured, and
// serves HTTP until ctx is canceled or the listener fails.
func (s *Server) Run(ctx context.Context) error {
	if err := s.rebuild(ctx); err != nil {
		return fmt.Errorf("initial build: %w", err)
	}

	go s.hub.Run(ctx)

	if s.cfg.Watch {
		if err := s.watch(ctx); err != nil {
			return fmt.Errorf("watch %s: %w", s.cfg.SourcePath, err)
		}
	}

	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
		// No write timeout: the /ws connections are long-lived.
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("preview server listening",
			"addr", "http://"+s.cfg.Addr,
			"source", s.cfg.SourcePath,
			"watch", s.cfg.Watch)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("shutting down preview server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

// Routes assembles the HTTP handler. Exposed separately so tests can
// drive the mux without a listener.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(hooksMiddleware)

	r.Get("/", s.handleIndex)
	r.Get("/scene.x3d", s.handleSceneX3D)
	r.Get("/scene.json", s.handleSceneJSON)
	r.Get("/ws", s.handleWS)
	r.Get("/healthz", s.handleHealthz)
	return r
}

// rebuild runs the pipeline for the source file and swaps in the new
// artifacts. The runner's content-addressed cache makes rebuilding an
// unchanged document nearly free.
func (s *Server) rebuild(ctx context.Context) error {
	start := time.Now()

	opts := s.cfg.Options
	opts.Source = ""
	opts.SourcePath = s.cfg.SourcePath
	opts.Formats = []string{pipeline.FormatX3D, pipeline.FormatJSON}
	opts.Logger = s.logger

	result, err := s.runner.Execute(ctx, opts)
	observability.Viewer().OnRebuild(ctx, s.cfg.SourcePath, time.Since(start), err)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.sceneX3D = result.Artifacts[pipeline.FormatX3D]
	s.sceneJSON = result.Artifacts[pipeline.FormatJSON]
	s.mu.Unlock()

	s.logger.Info("scene built",
		"sections", result.Stats.SectionCount,
		"nodes", result.Stats.NodeCount,
		"duration", time.Since(start))
	return nil
}

func (s *Server) handleIndex(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(viewerHTML)
}

func (s *Server) handleSceneX3D(w http.ResponseWriter, _ *http.Request) {
	s.mu.RLock()
	data := s.sceneX3D
	s.mu.RUnlock()

	w.Header().Set("Content-Type", "model/x3d+xml")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(data)
}

func (s *Server) handleSceneJSON(w http.ResponseWriter, _ *http.Request) {
	s.mu.RLock()
	data := s.sceneJSON
	s.mu.RUnlock()

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(data)
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "err", err)
		return
	}
	s.hub.Register(conn)

	// Viewers never send meaningful data; reading just detects the close.
	go func() {
		defer s.hub.Unregister(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"status":"healthy"}`))
}

// hooksMiddleware reports every request to the registered viewer hooks.
func hooksMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hooks := observability.Viewer()
		hooks.OnRequest(r.Context(), r.Method, r.URL.Path)

		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		hooks.OnResponse(r.Context(), r.Method, r.URL.Path, ww.Status(), time.Since(start))
	})
}
