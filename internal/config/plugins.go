package config

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/panorama/internal/foundation/normalization"
)

// Module is a build or runtime module reference. In YAML it is either a bare
// name or a mapping with name and options.
type Module struct {
	Name    string         `yaml:"name"`
	Options map[string]any `yaml:"options,omitempty"`
}

func (m *Module) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		m.Name = node.Value
		return nil
	case yaml.SequenceNode:
		// [name, {options}]
		if len(node.Content) == 0 || len(node.Content) > 2 {
			return fmt.Errorf("module: expected [name] or [name, options], got %d items", len(node.Content))
		}
		if err := node.Content[0].Decode(&m.Name); err != nil {
			return fmt.Errorf("module name: %w", err)
		}
		if len(node.Content) == 2 {
			if err := node.Content[1].Decode(&m.Options); err != nil {
				return fmt.Errorf("module %s options: %w", m.Name, err)
			}
		}
		return nil
	}
	type plain Module
	var p plain
	if err := node.Decode(&p); err != nil {
		return fmt.Errorf("module: %w", err)
	}
	*m = Module(p)
	return nil
}

// PluginMode restricts where a plugin runs.
type PluginMode string

const (
	PluginModeAll    PluginMode = "all"
	PluginModeClient PluginMode = "client"
	PluginModeServer PluginMode = "server"
)

var pluginModeNormalizer = normalization.NewNormalizer(map[string]PluginMode{
	"all":    PluginModeAll,
	"client": PluginModeClient,
	"server": PluginModeServer,
}, PluginModeAll)

// Plugin is a script reference; a bare string means Src with the default mode.
type Plugin struct {
	Src  string     `yaml:"src"`
	Mode PluginMode `yaml:"mode,omitempty"`
}

func (p *Plugin) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		p.Src = node.Value
		return nil
	}
	type plain Plugin
	var raw plain
	if err := node.Decode(&raw); err != nil {
		return fmt.Errorf("plugin: %w", err)
	}
	*p = Plugin(raw)
	return nil
}
