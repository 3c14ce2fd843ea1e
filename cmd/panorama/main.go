package main

import (
	"log/slog"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/panorama/cmd/panorama/commands"
	"git.home.luguber.info/inful/panorama/internal/foundation/errors"
	"git.home.luguber.info/inful/panorama/internal/version"
)

func main() {
	cli := &commands.CLI{}
	global := &commands.Global{}
	ctx := kong.Parse(cli,
		kong.Name("panorama"),
		kong.Description("Static site generator for the Panor.am site"),
		kong.UsageOnError(),
		kong.Vars{"version": version.String()},
		kong.Bind(global, cli),
	)
	if err := ctx.Run(); err != nil {
		errors.NewCLIErrorAdapter(cli.Verbose, slog.Default()).HandleError(err)
	}
}
