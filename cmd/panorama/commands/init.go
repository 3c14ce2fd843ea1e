package commands

import (
	"fmt"

	"git.home.luguber.info/inful/panorama/internal/config"
)

// InitCmd implements 'init'.
type InitCmd struct {
	Force bool `help:"Overwrite an existing configuration file"`
}

func (i *InitCmd) Run(_ *Global, root *CLI) error {
	if err := config.Init(root.Config, i.Force); err != nil {
		return err
	}
	fmt.Fprintf(root.out(), "Wrote default configuration to %s\n", root.Config)
	return nil
}
