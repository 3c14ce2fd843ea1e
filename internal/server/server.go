package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/panorama/internal/config"
	"git.home.luguber.info/inful/panorama/internal/logfields"
	"git.home.luguber.info/inful/panorama/internal/metrics"
)

// Server serves the output directory.
type Server struct {
	cfg      *config.Config
	root     string
	registry *prometheus.Registry
	regen    *Regenerator
	logger   *slog.Logger
	started  time.Time

	httpServer *http.Server
}

type Option func(*Server)

// WithRegistry exposes reg on the metrics path when metrics are enabled.
func WithRegistry(reg *prometheus.Registry) Option { return func(s *Server) { s.registry = reg } }

// WithRegenerator reports regeneration status on /healthz.
func WithRegenerator(r *Regenerator) Option { return func(s *Server) { s.regen = r } }

func New(cfg *config.Config, root string, opts ...Option) *Server {
	s := &Server{cfg: cfg, root: root, logger: slog.Default().With("component", "server"), started: time.Now()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the full route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealth)
	if s.registry != nil && s.cfg.Monitoring.Metrics.Enabled {
		mux.Handle(s.cfg.Monitoring.Metrics.Path, metrics.HTTPHandler(s.registry))
	}

	base := config.NormalizeBase(s.cfg.Router.Base)
	site := http.HandlerFunc(s.serveSite)
	if base == "/" {
		mux.Handle("/", site)
	} else {
		mux.Handle(base, http.StripPrefix(strings.TrimSuffix(base, "/"), site))
		mux.Handle("/", http.RedirectHandler(base, http.StatusFound))
	}
	return chain(s.logger, mux)
}

// Start binds addr and serves in the background.
func (s *Server) Start(ctx context.Context, addr string) error {
	lc := net.ListenConfig{}
	ln, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	s.httpServer = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	go func() {
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("HTTP server stopped", logfields.Error(err))
		}
	}()
	s.logger.Info("Serving site", logfields.URL("http://"+ln.Addr().String()+config.NormalizeBase(s.cfg.Router.Base)), logfields.Path(s.root))
	return nil
}

func (s *Server) Stop(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	return nil
}

type healthResponse struct {
	Status        string  `json:"status"`
	UptimeSeconds int64   `json:"uptime_seconds"`
	Regeneration  *Status `json:"regeneration,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	resp := healthResponse{Status: "ok", UptimeSeconds: int64(time.Since(s.started).Seconds())}
	if s.regen != nil {
		st := s.regen.Status()
		resp.Regeneration = &st
		if st.LastError != "" {
			resp.Status = "degraded"
		}
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

// serveSite resolves a request path against the output directory. Paths
// without a file fall back to "<path>.html" for flat output and finally to
// the fallback page with status 404.
func (s *Server) serveSite(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	clean := path.Clean("/" + r.URL.Path)
	local := filepath.Join(s.root, filepath.FromSlash(clean))

	if fi, err := os.Stat(local); err == nil {
		if !fi.IsDir() {
			http.ServeFile(w, r, local)
			return
		}
		if index := filepath.Join(local, "index.html"); fileExists(index) {
			http.ServeFile(w, r, index)
			return
		}
	}
	if clean != "/" && fileExists(local+".html") {
		http.ServeFile(w, r, local+".html")
		return
	}
	s.serveFallback(w)
}

func (s *Server) serveFallback(w http.ResponseWriter) {
	data, err := os.ReadFile(filepath.Join(s.root, s.cfg.Generate.Fallback))
	if err != nil {
		http.Error(w, "404 page not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusNotFound)
	_, _ = w.Write(data)
}

func fileExists(p string) bool {
	fi, err := os.Stat(p)
	return err == nil && !fi.IsDir()
}
