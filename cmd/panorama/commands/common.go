// Package commands implements the panorama CLI.
package commands

import (
	"context"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/panorama/internal/config"
)

// Global is shared with every command.
type Global struct {
	Logger *slog.Logger
}

// CLI is the root command and its global flags.
type CLI struct {
	Config    string           `short:"c" help:"Configuration file path" default:"panorama.yaml" type:"path"`
	Verbose   bool             `short:"v" help:"Enable verbose logging"`
	LogFormat string           `name:"log-format" help:"Log output format (text, json)"`
	Version   kong.VersionFlag `name:"version" help:"Show version and exit"`

	Generate GenerateCmd `cmd:"" default:"withargs" help:"Generate the static site"`
	Routes   RoutesCmd   `cmd:"" help:"Print the routes that would be generated"`
	Serve    ServeCmd    `cmd:"" help:"Serve the generated site and regenerate on change"`
	Init     InitCmd     `cmd:"" help:"Write a default configuration file"`
	Show     ConfigCmd   `cmd:"" name:"config" help:"Print the effective configuration"`
	History  HistoryCmd  `cmd:"" help:"List recent generation runs"`

	stdout io.Writer
}

// AfterApply sets up logging once flags are parsed. The configuration may
// raise or lower the level later unless --verbose or PANORAMA_LOG_LEVEL is set.
func (c *CLI) AfterApply(g *Global) error {
	level := slog.LevelInfo
	if v := os.Getenv(config.EnvLogLevel); v != "" {
		level = config.NormalizeLogLevel(v).SlogLevel()
	}
	if c.Verbose {
		level = slog.LevelDebug
	}
	g.Logger = newLogger(level, config.NormalizeLogFormat(c.LogFormat))
	slog.SetDefault(g.Logger)
	return nil
}

func newLogger(level slog.Level, format config.LogFormat) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}
	if format == config.LogFormatJSON {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

// loadConfig loads the configuration file, falling back to defaults when it
// does not exist, and applies its logging section.
func (c *CLI) loadConfig(g *Global) (*config.Config, error) {
	cfg, err := config.LoadOrDefault(c.Config)
	if err != nil {
		return nil, err
	}
	if !c.Verbose && os.Getenv(config.EnvLogLevel) == "" {
		format := cfg.Monitoring.Logging.Format
		if c.LogFormat != "" {
			format = config.NormalizeLogFormat(c.LogFormat)
		}
		g.Logger = newLogger(cfg.Monitoring.Logging.Level.SlogLevel(), format)
		slog.SetDefault(g.Logger)
	}
	return cfg, nil
}

func (c *CLI) out() io.Writer {
	if c.stdout != nil {
		return c.stdout
	}
	return os.Stdout
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

// projectRoot is the directory holding the configuration file; relative paths
// in the configuration resolve against it.
func (c *CLI) projectRoot() string {
	return filepath.Dir(c.Config)
}
