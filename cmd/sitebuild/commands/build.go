package commands

import (
	"fmt"

	"github.com/hellsecdev/hellsec.dev/internal/config"
	"github.com/hellsecdev/hellsec.dev/internal/foundation/errors"
)

// BuildCmd implements the 'build' command.
type BuildCmd struct {
	PathFlags
	WorkerMode string `name:"worker-mode" help:"Override worker.mode (precache|unregister)"`
	NoFonts    bool   `name:"no-fonts" help:"Skip font localization"`
	Brotli     bool   `help:"Write .br siblings for compressible files"`
	ReportDir  string `name:"report-dir" help:"Persist build-report.json/.txt into this directory"`
}

func (b *BuildCmd) Run(g *Global, root *CLI) error {
	cfg, err := loadConfig(root, b.PathFlags)
	if err != nil {
		return err
	}
	if b.WorkerMode != "" {
		mode, err := config.NormalizeWorkerMode(b.WorkerMode)
		if err != nil {
			return errors.WrapError(err, errors.CategoryConfig, "invalid --worker-mode").Build()
		}
		cfg.Worker.Mode = mode
	}
	if b.NoFonts {
		cfg.Fonts.Enabled = false
	}
	if b.Brotli {
		cfg.Compress.Brotli = true
	}
	if b.ReportDir != "" {
		cfg.Report.Directory = b.ReportDir
	}

	ctx, cancel := signalContext()
	defer cancel()

	env, err := newBuildEnv(cfg)
	if err != nil {
		return err
	}
	defer env.Close()

	report, err := env.gen.Build(ctx)
	writeMetrics(cfg, env.registry)
	if report != nil {
		_, _ = fmt.Fprintln(g.out(), report.Summary())
	}
	return err
}
