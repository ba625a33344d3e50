package main

import (
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"github.com/hellsecdev/hellsec.dev/cmd/sitebuild/commands"
	"github.com/hellsecdev/hellsec.dev/internal/foundation/errors"
	"github.com/hellsecdev/hellsec.dev/internal/version"
)

func main() {
	var cli commands.CLI
	ctx := kong.Parse(&cli,
		kong.Name("sitebuild"),
		kong.Description("Build, optimize and preview the static site."),
		kong.UsageOnError(),
		kong.Vars{"version": version.String()},
	)

	err := ctx.Run(&commands.Global{Logger: slog.Default(), Stdout: os.Stdout}, &cli)
	errors.NewCLIErrorAdapter(cli.Verbose, slog.Default()).HandleError(err)
}
