// Package site assembles the generator and its collaborators from the
// configuration: content source, store, renderer, metrics, run history and
// notifications.
package site

import (
	"context"
	stderrors "errors"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/panorama/internal/config"
	"git.home.luguber.info/inful/panorama/internal/content"
	"git.home.luguber.info/inful/panorama/internal/foundation/errors"
	"git.home.luguber.info/inful/panorama/internal/generate"
	"git.home.luguber.info/inful/panorama/internal/gitsource"
	"git.home.luguber.info/inful/panorama/internal/history"
	"git.home.luguber.info/inful/panorama/internal/logfields"
	"git.home.luguber.info/inful/panorama/internal/metrics"
	"git.home.luguber.info/inful/panorama/internal/notify"
	"git.home.luguber.info/inful/panorama/internal/render"
	"git.home.luguber.info/inful/panorama/internal/routes"
)

// Options tune Open.
type Options struct {
	// ProjectRoot resolves relative paths and is hashed for the cache.
	// Defaults to the working directory.
	ProjectRoot string
	// Registry receives generation metrics when metrics are enabled.
	Registry *prometheus.Registry
	// Observers are notified of every run in addition to history and notify.
	Observers []generate.Observer
}

// Site owns every long-lived component. Close releases them.
type Site struct {
	cfg        *config.Config
	root       string
	git        *gitsource.Source
	commit     string
	store      *content.FSStore
	renderer   *render.Renderer
	recorder   metrics.Recorder
	history    history.Store
	observers  []generate.Observer
	publisher  *notify.JetStreamPublisher
	logger     *slog.Logger
	contentDir string
}

// Open builds a Site. The git content source, when configured, is not synced
// until the first Sync, Routes or Generate call.
func Open(ctx context.Context, cfg *config.Config, opts Options) (*Site, error) {
	root := opts.ProjectRoot
	if root == "" {
		root = "."
	}
	s := &Site{
		cfg:       cfg,
		root:      root,
		recorder:  metrics.NoopRecorder{},
		observers: append([]generate.Observer(nil), opts.Observers...),
		logger:    slog.Default().With("component", "site"),
	}
	if opts.Registry != nil && cfg.Monitoring.Metrics.Enabled {
		s.recorder = metrics.NewPrometheusRecorder(opts.Registry)
	}

	renderer, err := render.New(cfg)
	if err != nil {
		return nil, err
	}
	s.renderer = renderer

	if g := cfg.Content.Git; g != nil {
		s.git = gitsource.New(*g, gitsource.WithRecorder(s.recorder))
	} else {
		s.setContentDir(s.resolve(cfg.Content.Dir))
	}

	if p := cfg.Generate.History.Path; p != "" {
		store, err := history.NewSQLiteStore(s.resolve(p))
		if err != nil {
			_ = s.Close()
			return nil, err
		}
		s.history = store
		s.observers = append(s.observers, history.NewRecorder(store))
	}

	if n := cfg.Generate.Notify; n.NATSURL != "" {
		pub, err := notify.NewJetStreamPublisher(ctx, n)
		if err != nil {
			// Notifications are best effort; generation proceeds without them.
			s.logger.Warn("Run notifications disabled", logfields.Error(err))
		} else {
			s.publisher = pub
			s.observers = append(s.observers, notify.NewNotifier(pub, n.Subject, n.Timeout))
		}
	}
	return s, nil
}

func (s *Site) resolve(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(s.root, p)
}

func (s *Site) setContentDir(dir string) {
	if dir == s.contentDir && s.store != nil {
		return
	}
	s.contentDir = dir
	s.store = content.NewFSStore(dir)
}

// Sync refreshes the git content source. It is a no-op for a local content
// directory.
func (s *Site) Sync(ctx context.Context) error {
	if s.git == nil {
		return nil
	}
	res, err := s.git.Sync(ctx)
	if err != nil {
		return err
	}
	s.commit = res.Commit
	s.setContentDir(res.ContentDir)
	return nil
}

func (s *Site) ensureContent(ctx context.Context) error {
	if s.store != nil {
		return nil
	}
	return s.Sync(ctx)
}

// ContentDir is the directory backing the store. Empty before the first sync
// of a git source.
func (s *Site) ContentDir() string { return s.contentDir }

// Store returns the content store, syncing a git source first if needed.
func (s *Site) Store(ctx context.Context) (content.Store, error) {
	if err := s.ensureContent(ctx); err != nil {
		return nil, err
	}
	return s.store, nil
}

// Routes enumerates the routes without generating anything.
func (s *Site) Routes(ctx context.Context) ([]string, error) {
	store, err := s.Store(ctx)
	if err != nil {
		return nil, err
	}
	return routes.NewEnumerator(store).Routes(ctx)
}

// GenerateOptions are per-run overrides.
type GenerateOptions struct {
	Force     bool
	OutputDir string
	Sync      bool // refresh the git source before generating
}

// Generate performs one run.
func (s *Site) Generate(ctx context.Context, opts GenerateOptions) (*generate.Result, error) {
	if opts.Sync {
		if err := s.Sync(ctx); err != nil {
			return nil, err
		}
	} else if err := s.ensureContent(ctx); err != nil {
		return nil, err
	}

	genOpts := []generate.Option{
		generate.WithProjectRoot(s.root),
		generate.WithForce(opts.Force),
		generate.WithRecorder(s.recorder),
		generate.WithObservers(s.observers...),
	}
	if opts.OutputDir != "" {
		genOpts = append(genOpts, generate.WithOutputDir(opts.OutputDir))
	}
	if s.git != nil {
		genOpts = append(genOpts, generate.WithSnapshotInputs("git:"+s.commit))
	}
	return generate.New(s.cfg, s.store, s.renderer, genOpts...).Run(ctx)
}

// OutputDir resolves the directory a run writes to.
func (s *Site) OutputDir(override string) string {
	dir := s.cfg.Generate.Dir
	if override != "" {
		dir = override
	}
	return s.resolve(dir)
}

// History returns the run history store, or nil when history is disabled.
func (s *Site) History() history.Store { return s.history }

func (s *Site) Close() error {
	var errs []error
	if s.publisher != nil {
		errs = append(errs, s.publisher.Close())
	}
	if s.history != nil {
		errs = append(errs, s.history.Close())
	}
	if s.git != nil {
		errs = append(errs, s.git.Close())
	}
	if err := stderrors.Join(errs...); err != nil {
		return errors.WrapError(err, errors.CategoryRuntime, "failed to release site resources").Build()
	}
	return nil
}

// WatchRoots lists the local directories whose changes should trigger a
// regeneration.
func (s *Site) WatchRoots() []string {
	var roots []string
	if s.git == nil && s.contentDir != "" {
		roots = append(roots, s.contentDir)
	}
	if d := s.cfg.Generate.StaticDir; d != "" {
		if _, err := os.Stat(s.resolve(d)); err == nil {
			roots = append(roots, s.resolve(d))
		}
	}
	return roots
}
