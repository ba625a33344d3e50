package commands

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/hellsecdev/hellsec.dev/internal/config"
	"github.com/hellsecdev/hellsec.dev/internal/logfields"
	"github.com/hellsecdev/hellsec.dev/internal/preview"
	"github.com/hellsecdev/hellsec.dev/internal/site"
)

// ServeCmd builds once, serves the output tree and optionally rebuilds on change.
type ServeCmd struct {
	PathFlags
	Addr  string `name:"addr" default:"127.0.0.1:8080" help:"Listen address"`
	Watch bool   `short:"w" help:"Rebuild when the source tree changes"`
}

func (s *ServeCmd) Run(_ *Global, root *CLI) error {
	cfg, err := loadConfig(root, s.PathFlags)
	if err != nil {
		return err
	}
	ctx, cancel := signalContext()
	defer cancel()

	env, err := newBuildEnv(cfg)
	if err != nil {
		return err
	}
	defer env.Close()

	status := &preview.BuildStatus{}
	rebuild := rebuildFunc(env.gen)
	// A failed first build is served as an error page until a rebuild succeeds.
	status.Record(rebuild(ctx))

	srv := preview.NewServer(s.Addr, cfg.OutputDir(), preview.WithRegistry(env.registry), preview.WithBuildStatus(status))

	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() error { return srv.ListenAndServe(ctx) })
	if s.Watch {
		w := newWatcher(cfg, rebuild, status)
		eg.Go(func() error { return w.Run(ctx) })
	}
	return eg.Wait()
}

// rebuildFunc runs one build and logs its summary.
func rebuildFunc(gen *site.Generator) preview.RebuildFunc {
	return func(ctx context.Context) error {
		report, err := gen.Build(ctx)
		if report != nil {
			slog.Info("Build finished", logfields.BuildID(report.BuildID), slog.String("summary", report.Summary()))
		}
		if err != nil && ctx.Err() == nil {
			slog.Error("Build failed", logfields.Error(err))
		}
		return err
	}
}

func newWatcher(cfg *config.Config, rebuild preview.RebuildFunc, status *preview.BuildStatus) *preview.Watcher {
	exclude := []string{cfg.OutputDir()}
	if dir := cfg.FontCacheDir(); dir != "" {
		exclude = append(exclude, dir)
	}
	if dir := cfg.Report.Directory; dir != "" {
		exclude = append(exclude, dir)
	}
	for _, f := range []string{cfg.Metrics.Textfile, cfg.History.Database} {
		if f != "" {
			exclude = append(exclude, f, f+"-journal", f+"-wal")
		}
	}
	return preview.NewWatcher(cfg.SourceDir(), rebuild,
		preview.WithIgnore(cfg.Ignore...),
		preview.WithExclude(exclude...),
		preview.WithStatus(status),
	)
}
