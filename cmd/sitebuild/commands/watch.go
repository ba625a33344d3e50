package commands

import (
	"context"

	"github.com/hellsecdev/hellsec.dev/internal/preview"
)

// WatchCmd rebuilds on every source change without serving.
type WatchCmd struct {
	PathFlags
}

func (w *WatchCmd) Run(_ *Global, root *CLI) error {
	cfg, err := loadConfig(root, w.PathFlags)
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
	build := rebuildFunc(env.gen)
	rebuild := func(ctx context.Context) error {
		err := build(ctx)
		writeMetrics(cfg, env.registry)
		return err
	}
	status.Record(rebuild(ctx))
	return newWatcher(cfg, rebuild, status).Run(ctx)
}
