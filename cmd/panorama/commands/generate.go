package commands

import (
	"fmt"
	"time"

	"git.home.luguber.info/inful/panorama/internal/site"
)

// GenerateCmd implements 'generate'.
type GenerateCmd struct {
	Force  bool   `short:"f" help:"Ignore the generation cache"`
	Output string `short:"o" help:"Output directory (overrides generate.dir)"`
}

func (g *GenerateCmd) Run(global *Global, root *CLI) error {
	cfg, err := root.loadConfig(global)
	if err != nil {
		return err
	}
	ctx, cancel := signalContext()
	defer cancel()

	s, err := site.Open(ctx, cfg, site.Options{ProjectRoot: root.projectRoot()})
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	res, err := s.Generate(ctx, site.GenerateOptions{Force: g.Force, OutputDir: g.Output})
	if err != nil {
		return err
	}
	if res.Skipped {
		fmt.Fprintf(root.out(), "Content unchanged; %s is up to date (use --force to regenerate)\n", res.OutputDir)
		return nil
	}
	fmt.Fprintf(root.out(), "Generated %d pages into %s in %s\n", len(res.Generated), res.OutputDir, res.Duration.Round(time.Millisecond))
	for _, pe := range res.Errors {
		fmt.Fprintf(root.out(), "  failed %s: %v\n", pe.Route, pe.Err)
	}
	return nil
}
