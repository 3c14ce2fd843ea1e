package commands

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"text/tabwriter"
	"time"

	"git.home.luguber.info/inful/panorama/internal/foundation/errors"
	"git.home.luguber.info/inful/panorama/internal/history"
)

// HistoryCmd lists recent runs from generate.history.path.
type HistoryCmd struct {
	Since time.Duration `help:"How far back to look" default:"168h"`
	Limit int           `short:"n" help:"Maximum number of runs" default:"20"`
	JSON  bool          `help:"Print JSON instead of a table"`
}

func (h *HistoryCmd) Run(global *Global, root *CLI) error {
	cfg, err := root.loadConfig(global)
	if err != nil {
		return err
	}
	if cfg.Generate.History.Path == "" {
		return errors.ConfigError("run history is disabled (set generate.history.path)").Build()
	}
	path := cfg.Generate.History.Path
	if !filepath.IsAbs(path) {
		path = filepath.Join(root.projectRoot(), path)
	}
	store, err := history.NewSQLiteStore(path)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	ctx, cancel := signalContext()
	defer cancel()
	runs, err := history.Recent(ctx, store, h.Since, h.Limit)
	if err != nil {
		return err
	}

	if h.JSON {
		enc := json.NewEncoder(root.out())
		enc.SetIndent("", "  ")
		return enc.Encode(runs)
	}
	w := tabwriter.NewWriter(root.out(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "RUN\tSTARTED\tSTATUS\tROUTES\tPAGES\tFAILED\tDURATION")
	for _, r := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%d\t%s\n",
			r.RunID[:min(8, len(r.RunID))],
			r.StartedAt.Local().Format(time.DateTime),
			r.Status, r.Routes, r.Generated, len(r.FailedPages),
			r.Duration.Round(time.Millisecond))
	}
	return w.Flush()
}
