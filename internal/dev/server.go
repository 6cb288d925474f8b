package dev

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	routecerrors "github.com/vango-dev/routec/internal/errors"
	"github.com/vango-dev/routec/pkg/emit"
	"github.com/vango-dev/routec/pkg/routepath"
)

// ServerOptions configures the development server.
type ServerOptions struct {
	// Addr is the listen address.
	Addr string

	// VirtualRoute serves the latest artifact from memory.
	VirtualRoute string

	Orchestrator *Orchestrator

	// Reload, if set, serves the reload WebSocket.
	Reload *ReloadServer

	// Gatherer backs /metrics. Defaults to the default registry.
	Gatherer prometheus.Gatherer

	Logger *slog.Logger
}

// Server is the development HTTP server. It exposes the in-memory route
// artifact, the manifest, the orchestrator status, a reload WebSocket and
// Prometheus metrics.
type Server struct {
	options    ServerOptions
	router     chi.Router
	httpServer *http.Server
	log        *slog.Logger
}

// NewServer creates a new development server.
func NewServer(options ServerOptions) *Server {
	if options.VirtualRoute == "" {
		options.VirtualRoute = "/_routec/artifact"
	}
	if options.Gatherer == nil {
		options.Gatherer = prometheus.DefaultGatherer
	}
	log := options.Logger
	if log == nil {
		log = slog.Default()
	}

	s := &Server{options: options, log: log}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get(options.VirtualRoute, s.handleArtifact)
	r.Get("/_routec/manifest", s.handleManifest)
	r.Get("/_routec/status", s.handleStatus)
	r.Get("/_routec/match", s.handleMatch)
	if options.Reload != nil {
		r.Get("/_routec/reload", options.Reload.HandleWebSocket)
	}
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(options.Gatherer, promhttp.HandlerOpts{}))
	s.router = r

	return s
}

// Handler returns the server's HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves until ctx is done, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.options.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is done.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.httpServer = &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.log.Info("dev server listening", "addr", ln.Addr().String())

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.httpServer.Serve(ln)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if s.options.Reload != nil {
			s.options.Reload.Close()
		}
		return s.httpServer.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func (s *Server) latest(w http.ResponseWriter) *Result {
	res := s.options.Orchestrator.Latest()
	if res == nil {
		writeJSON(w, http.StatusServiceUnavailable, s.options.Orchestrator.Status())
	}
	return res
}

func (s *Server) handleArtifact(w http.ResponseWriter, r *http.Request) {
	res := s.latest(w)
	if res == nil {
		return
	}
	ct := "text/x-go; charset=utf-8"
	if res.Artifact.Mode == emit.ModeDynamic {
		ct = "application/octet-stream"
		if json.Valid(res.Artifact.Content) {
			ct = "application/json"
		}
	}
	w.Header().Set("Content-Type", ct)
	w.Header().Set("X-Routec-Pass", res.Pass)
	w.Write(res.Artifact.Content)
}

func (s *Server) handleManifest(w http.ResponseWriter, r *http.Request) {
	res := s.latest(w)
	if res == nil {
		return
	}
	w.Header().Set("X-Routec-Pass", res.Pass)
	writeJSON(w, http.StatusOK, res.Manifest)
}

type statusResponse struct {
	Status
	Clients int `json:"clients"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	resp := statusResponse{Status: s.options.Orchestrator.Status()}
	if s.options.Reload != nil {
		resp.Clients = s.options.Reload.ClientCount()
	}
	writeJSON(w, http.StatusOK, resp)
}

type matchResponse struct {
	Path    string            `json:"path"`
	Pattern string            `json:"pattern"`
	File    string            `json:"file"`
	Methods []string          `json:"methods"`
	Params  map[string]string `json:"params,omitempty"`
}

type errorResponse struct {
	Code  string `json:"code,omitempty"`
	Error string `json:"error"`
}

// handleMatch reports the route that handles ?path=.
func (s *Server) handleMatch(w http.ResponseWriter, r *http.Request) {
	res := s.latest(w)
	if res == nil {
		return
	}

	canonical, err := routepath.CanonicalizePath(r.URL.Query().Get("path"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	rt, params, ok := res.Table.Lookup(canonical.Path)
	if !ok {
		e := routecerrors.New("E151").WithDetail(canonical.Path)
		writeJSON(w, http.StatusNotFound, errorResponse{Code: e.Code, Error: e.Error()})
		return
	}
	writeJSON(w, http.StatusOK, matchResponse{
		Path:    canonical.Path,
		Pattern: rt.Pattern,
		File:    rt.File.RelPath,
		Methods: rt.File.Methods.Strings(),
		Params:  params,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.Encode(v)
}
