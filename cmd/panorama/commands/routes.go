package commands

import (
	"fmt"

	"git.home.luguber.info/inful/panorama/internal/site"
)

// RoutesCmd prints the enumerated routes, one per line, in store order.
type RoutesCmd struct{}

func (r *RoutesCmd) Run(global *Global, root *CLI) error {
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

	list, err := s.Routes(ctx)
	if err != nil {
		return err
	}
	for _, route := range list {
		fmt.Fprintln(root.out(), route)
	}
	return nil
}
