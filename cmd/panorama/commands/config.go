package commands

import (
	"git.home.luguber.info/inful/panorama/internal/config"
)

// ConfigCmd prints the effective configuration, environment overrides
// included, as YAML.
type ConfigCmd struct{}

func (c *ConfigCmd) Run(global *Global, root *CLI) error {
	cfg, err := root.loadConfig(global)
	if err != nil {
		return err
	}
	data, err := config.Marshal(cfg)
	if err != nil {
		return err
	}
	_, err = root.out().Write(data)
	return err
}
