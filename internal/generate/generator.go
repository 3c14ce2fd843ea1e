package generate

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/panorama/internal/config"
	"git.home.luguber.info/inful/panorama/internal/content"
	"git.home.luguber.info/inful/panorama/internal/foundation/errors"
	"git.home.luguber.info/inful/panorama/internal/logfields"
	"git.home.luguber.info/inful/panorama/internal/metrics"
	"git.home.luguber.info/inful/panorama/internal/routes"
)

// Stage names used in logs and metrics.
const (
	StageCache     = "cache"
	StageEnumerate = "enumerate"
	StageStatic    = "static"
	StageRender    = "render"
	StageFallback  = "fallback"
	StageCommit    = "commit"
)

// PageRenderer produces complete HTML documents.
type PageRenderer interface {
	Page(route string, e *content.Entry) ([]byte, error)
	Fallback() ([]byte, error)
}

// RouteLister enumerates routes; *routes.Enumerator is the production one.
type RouteLister interface {
	Routes(ctx context.Context) ([]string, error)
}

// Generator runs static generation. One Generator may run many times but
// callers must not overlap runs.
type Generator struct {
	cfg         config.GenerateConfig
	base        string
	store       content.Store
	lister      RouteLister
	renderer    PageRenderer
	projectRoot string
	outputDir   string
	force       bool
	inputs      []string

	recorder metrics.Recorder
	observer Observer
	logger   *slog.Logger
}

// Option configures a Generator.
type Option func(*Generator)

func WithRecorder(r metrics.Recorder) Option { return func(g *Generator) { g.recorder = r } }

func WithObservers(obs ...Observer) Option {
	return func(g *Generator) { g.observer = multiObserver(obs) }
}

func WithLogger(l *slog.Logger) Option { return func(g *Generator) { g.logger = l } }

// WithForce bypasses the generation cache.
func WithForce(force bool) Option { return func(g *Generator) { g.force = force } }

// WithOutputDir overrides generate.dir.
func WithOutputDir(dir string) Option { return func(g *Generator) { g.outputDir = dir } }

// WithProjectRoot sets the directory hashed for the cache and used to resolve
// relative paths. Defaults to the working directory.
func WithProjectRoot(dir string) Option { return func(g *Generator) { g.projectRoot = dir } }

// WithSnapshotInputs adds values to the cache snapshot. Content that is not
// under the project root must be represented here.
func WithSnapshotInputs(inputs ...string) Option {
	return func(g *Generator) { g.inputs = append(g.inputs, inputs...) }
}

// WithRouteLister replaces the enumerator built from the store.
func WithRouteLister(l RouteLister) Option { return func(g *Generator) { g.lister = l } }

// New builds a Generator over store.
func New(cfg *config.Config, store content.Store, renderer PageRenderer, opts ...Option) *Generator {
	g := &Generator{
		cfg:         cfg.Generate,
		base:        config.NormalizeBase(cfg.Router.Base),
		store:       store,
		lister:      routes.NewEnumerator(store),
		renderer:    renderer,
		projectRoot: ".",
		outputDir:   cfg.Generate.Dir,
		recorder:    metrics.NoopRecorder{},
		observer:    NoopObserver{},
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.cfg.Concurrency < 1 {
		g.cfg.Concurrency = 1
	}
	if !filepath.IsAbs(g.outputDir) {
		g.outputDir = filepath.Join(g.projectRoot, g.outputDir)
	}
	return g
}

// OutputDir is the resolved output directory.
func (g *Generator) OutputDir() string { return g.outputDir }

// Run performs one generation run.
func (g *Generator) Run(ctx context.Context) (*Result, error) {
	start := time.Now()
	runID := uuid.NewString()
	logger := g.logger.With(logfields.RunID(runID))
	res := &Result{RunID: runID, OutputDir: g.outputDir}

	g.observer.RunStarted(ctx, runID)
	logger.Info("Generation started", logfields.Path(g.outputDir))

	fail := func(err error) (*Result, error) {
		res.Duration = time.Since(start)
		outcome := metrics.OutcomeFailed
		if stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded) {
			outcome = metrics.OutcomeCanceled
		}
		g.recorder.IncRunOutcome(outcome)
		g.recorder.ObserveRunDuration(res.Duration)
		g.observer.RunFailed(ctx, runID, err)
		logger.Error("Generation failed", logfields.Error(err))
		return res, err
	}

	if !g.cfg.Cache.Disabled {
		t := time.Now()
		snapshot, err := Snapshot(g.projectRoot, g.cacheIgnore())
		g.recorder.ObserveStageDuration(StageCache, time.Since(t))
		if err != nil {
			logger.Warn("Cache snapshot failed; generating anyway", logfields.Error(err))
		} else {
			snapshot = mixSnapshot(snapshot, g.inputs)
			res.Snapshot = snapshot
			if !g.force && g.upToDate(snapshot) {
				res.Skipped = true
				res.Duration = time.Since(start)
				g.recorder.IncRunOutcome(metrics.OutcomeSkipped)
				g.observer.RunCompleted(ctx, runID, res)
				logger.Info("Content unchanged; skipping generation")
				return res, nil
			}
		}
	}

	t := time.Now()
	routeList, err := g.lister.Routes(ctx)
	g.recorder.ObserveStageDuration(StageEnumerate, time.Since(t))
	if err != nil {
		return fail(errors.WrapError(err, errors.CategoryGenerate, "route enumeration failed").
			Fatal().WithContext("run_id", runID).Build())
	}
	res.Routes = routeList
	g.recorder.SetRoutes(len(routeList))
	g.observer.RoutesEnumerated(ctx, runID, routeList)
	logger.Info("Routes enumerated", logfields.Count(len(routeList)))

	st, err := newStage(g.outputDir)
	if err != nil {
		return fail(errors.WrapError(err, errors.CategoryFileSystem, "failed to prepare output").
			WithContext("path", g.outputDir).Build())
	}
	committed := false
	defer func() {
		if !committed {
			st.discard()
		}
	}()

	if g.cfg.StaticDir != "" {
		t = time.Now()
		staticDir := g.cfg.StaticDir
		if !filepath.IsAbs(staticDir) {
			staticDir = filepath.Join(g.projectRoot, staticDir)
		}
		n, err := copyTree(staticDir, st.dir)
		g.recorder.ObserveStageDuration(StageStatic, time.Since(t))
		if err != nil {
			return fail(errors.WrapError(err, errors.CategoryFileSystem, "failed to copy static files").
				WithContext("path", staticDir).Build())
		}
		logger.Debug("Copied static files", logfields.Count(n), logfields.Path(staticDir))
	}

	t = time.Now()
	g.renderAll(ctx, st, runID, routeList, res, logger)
	g.recorder.ObserveStageDuration(StageRender, time.Since(t))
	if err := ctx.Err(); err != nil {
		return fail(errors.WrapError(err, errors.CategoryGenerate, "generation cancelled").Build())
	}

	if g.cfg.Fallback != "" {
		t = time.Now()
		if err := g.writeFallback(st); err != nil {
			pe := PageError{Route: "/" + g.cfg.Fallback, Err: err}
			res.Errors = append(res.Errors, pe)
			g.observer.PageFailed(ctx, runID, pe)
		}
		g.recorder.ObserveStageDuration(StageFallback, time.Since(t))
	}

	sort.Strings(res.Generated)
	sort.SliceStable(res.Errors, func(i, j int) bool { return res.Errors[i].Route < res.Errors[j].Route })

	if res.Failed() {
		for _, pe := range res.Errors {
			logger.Warn("Page failed", logfields.Route(pe.Route), logfields.Error(pe.Err))
		}
		if g.cfg.FailOnError {
			return fail(errors.WrapError(ErrPagesFailed, errors.CategoryGenerate,
				fmt.Sprintf("%d page(s) failed", len(res.Errors))).
				Fatal().WithContext("run_id", runID).Build())
		}
	} else if res.Snapshot != "" {
		rec := cacheRecord{Snapshot: res.Snapshot, RunID: runID, GeneratedAt: time.Now().UTC(), Routes: len(res.Generated)}
		if err := writeCache(st.dir, rec); err != nil {
			logger.Warn("Failed to write generation cache", logfields.Error(err))
		}
	}

	t = time.Now()
	if err := st.commit(); err != nil {
		return fail(errors.WrapError(err, errors.CategoryFileSystem, "failed to publish output").
			WithContext("path", g.outputDir).Build())
	}
	committed = true
	g.recorder.ObserveStageDuration(StageCommit, time.Since(t))

	res.Duration = time.Since(start)
	g.recorder.ObserveRunDuration(res.Duration)
	g.recorder.IncRunOutcome(metrics.OutcomeSuccess)
	g.observer.RunCompleted(ctx, runID, res)
	logger.Info("Generation complete",
		logfields.Count(len(res.Generated)),
		slog.Int("errors", len(res.Errors)),
		logfields.DurationMS(float64(res.Duration.Milliseconds())))
	return res, nil
}

func (g *Generator) cacheIgnore() []string {
	ignore := append([]string{}, g.cfg.Cache.Ignore...)
	if rel, err := filepath.Rel(g.projectRoot, g.outputDir); err == nil && !filepath.IsAbs(rel) {
		rel = filepath.ToSlash(rel)
		// Staging and backup siblings of the output directory.
		parent := path.Dir(rel)
		ignore = append(ignore, rel,
			path.Join(parent, ".panorama-stage-*"),
			path.Join(parent, ".panorama-old-*"))
	}
	return ignore
}

func (g *Generator) upToDate(snapshot string) bool {
	if _, err := os.Stat(g.outputDir); err != nil {
		return false
	}
	rec, err := readCache(g.outputDir)
	if err != nil {
		return false
	}
	return rec.Snapshot == snapshot
}

func (g *Generator) writeFallback(st *stage) error {
	page, err := g.renderer.Fallback()
	if err != nil {
		return err
	}
	return st.write(g.cfg.Fallback, page)
}

// renderAll renders routes through a pool bounded by generate.concurrency.
// Crawled links join the same pool.
func (g *Generator) renderAll(ctx context.Context, st *stage, runID string, list []string, res *Result, logger *slog.Logger) {
	r := &renderRun{
		g:        g,
		ctx:      ctx,
		st:       st,
		runID:    runID,
		res:      res,
		logger:   logger,
		sem:      make(chan struct{}, g.cfg.Concurrency),
		seen:     make(map[string]bool, len(list)),
		throttle: &throttle{interval: g.cfg.Interval},
	}
	for _, route := range list {
		r.schedule(route, false)
	}
	r.wg.Wait()
}

type renderRun struct {
	g        *Generator
	ctx      context.Context
	st       *stage
	runID    string
	res      *Result
	logger   *slog.Logger
	sem      chan struct{}
	throttle *throttle

	wg   sync.WaitGroup
	mu   sync.Mutex
	seen map[string]bool
}

func (r *renderRun) schedule(route string, crawled bool) {
	r.mu.Lock()
	if r.seen[route] {
		r.mu.Unlock()
		if !crawled {
			r.logger.Debug("Duplicate route skipped", logfields.Route(route))
		}
		return
	}
	r.seen[route] = true
	r.mu.Unlock()

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		select {
		case r.sem <- struct{}{}:
		case <-r.ctx.Done():
			return
		}
		defer func() { <-r.sem }()

		if err := r.throttle.wait(r.ctx); err != nil {
			return
		}
		page, err := r.render(route)
		if err != nil {
			if r.ctx.Err() != nil {
				return
			}
			pe := PageError{Route: route, Err: err}
			r.mu.Lock()
			r.res.Errors = append(r.res.Errors, pe)
			r.mu.Unlock()
			r.g.recorder.IncPageResult(metrics.ResultFailed)
			r.g.observer.PageFailed(r.ctx, r.runID, pe)
			return
		}

		r.mu.Lock()
		r.res.Generated = append(r.res.Generated, route)
		r.mu.Unlock()
		r.g.recorder.IncPageResult(metrics.ResultSuccess)
		r.logger.Debug("Page generated", logfields.Route(route))

		if r.g.cfg.Crawler {
			for _, link := range crawlLinks(page, r.g.base) {
				r.schedule(link, true)
			}
		}
	}()
}

func (r *renderRun) render(route string) ([]byte, error) {
	rel, err := OutputFile(route, r.g.cfg.Subfolders)
	if err != nil {
		return nil, errors.ValidationError("invalid route").WithCause(err).
			WithContext("route", route).Build()
	}
	entry, err := r.g.store.Get(r.ctx, routes.EntryPath(route))
	if err != nil {
		return nil, err
	}
	page, err := r.g.renderer.Page(route, entry)
	if err != nil {
		return nil, err
	}
	if err := r.st.write(rel, page); err != nil {
		return nil, errors.WrapError(err, errors.CategoryFileSystem, "failed to write page").
			WithContext("route", route).WithContext("file", rel).Build()
	}
	return page, nil
}

// throttle spaces render starts by interval.
type throttle struct {
	mu       sync.Mutex
	next     time.Time
	interval time.Duration
}

func (t *throttle) wait(ctx context.Context) error {
	if t == nil || t.interval <= 0 {
		return nil
	}
	t.mu.Lock()
	now := time.Now()
	if t.next.Before(now) {
		t.next = now
	}
	delay := t.next.Sub(now)
	t.next = t.next.Add(t.interval)
	t.mu.Unlock()

	if delay <= 0 {
		return nil
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
