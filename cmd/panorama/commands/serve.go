package commands

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"git.home.luguber.info/inful/panorama/internal/logfields"
	"git.home.luguber.info/inful/panorama/internal/schedule"
	"git.home.luguber.info/inful/panorama/internal/server"
	"git.home.luguber.info/inful/panorama/internal/site"
	"git.home.luguber.info/inful/panorama/internal/watch"
)

// ServeCmd implements 'serve'.
type ServeCmd struct {
	Addr     string `help:"Listen address" default:":3000"`
	Watch    bool   `short:"w" help:"Regenerate when content or static files change"`
	Schedule string `help:"Regenerate periodically: a duration (10m) or a cron expression"`
	Output   string `short:"o" help:"Output directory (overrides generate.dir)"`
}

func (c *ServeCmd) Run(global *Global, root *CLI) error {
	cfg, err := root.loadConfig(global)
	if err != nil {
		return err
	}
	ctx, cancel := signalContext()
	defer cancel()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	s, err := site.Open(ctx, cfg, site.Options{ProjectRoot: root.projectRoot(), Registry: reg})
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	regenerate := func(ctx context.Context) error {
		_, err := s.Generate(ctx, site.GenerateOptions{OutputDir: c.Output, Sync: true})
		return err
	}
	// The first run happens before serving; a failure still serves whatever
	// output a previous run left behind.
	if err := regenerate(ctx); err != nil {
		slog.Warn("Initial generation failed", logfields.Error(err))
	}

	regen := server.NewRegenerator(regenerate)
	go regen.Loop(ctx)

	outputDir := s.OutputDir(c.Output)
	srv := server.New(cfg, outputDir, server.WithRegistry(reg), server.WithRegenerator(regen))
	if err := srv.Start(ctx, c.Addr); err != nil {
		return err
	}

	if c.Watch {
		roots := s.WatchRoots()
		if cfg.Content.Git != nil {
			slog.Warn("Content comes from git; --watch only covers the static directory, use --schedule to pull")
		}
		w, err := watch.New(roots, regen.Trigger, watch.WithIgnore(within(outputDir)))
		if err != nil {
			return err
		}
		defer func() { _ = w.Close() }()
		go func() { _ = w.Run(ctx) }()
		slog.Info("Watching for changes", slog.Any("roots", roots))
	}

	if c.Schedule != "" {
		sch, err := schedule.New(c.Schedule, regen.Trigger)
		if err != nil {
			return err
		}
		sch.Start()
		defer func() { _ = sch.Stop() }()
		if next, err := sch.NextRun(); err == nil {
			slog.Info("Scheduled regeneration", slog.String("schedule", c.Schedule), slog.Time("next_run", next))
		}
	}

	<-ctx.Done()
	slog.Info("Shutting down")
	stopCtx, stopCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer stopCancel()
	return srv.Stop(stopCtx)
}

// within reports paths inside dir.
func within(dir string) func(string) bool {
	abs, err := filepath.Abs(dir)
	if err != nil {
		abs = dir
	}
	prefix := filepath.Dir(abs) + string(filepath.Separator) + ".panorama-"
	return func(p string) bool {
		ap, err := filepath.Abs(p)
		if err != nil {
			return false
		}
		if ap == abs || strings.HasPrefix(ap, abs+string(filepath.Separator)) {
			return true
		}
		// staging and backup siblings written during a run
		return strings.HasPrefix(ap, prefix)
	}
}
