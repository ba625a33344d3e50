package stages

import (
	"context"
	"log/slog"

	"github.com/hellsecdev/hellsec.dev/internal/logfields"
	"github.com/hellsecdev/hellsec.dev/internal/manifest"
	"github.com/hellsecdev/hellsec.dev/internal/site/models"
	"github.com/hellsecdev/hellsec.dev/internal/worker"
)

// StageGenerateWorker computes the asset manifest and writes the service worker.
// The manifest is recorded in unregister mode too, though the script ignores it.
func StageGenerateWorker(_ context.Context, bs *models.BuildState) error {
	cfg := bs.Generator.Config()
	version, err := manifest.ReadVersion(cfg.PackageFilePath())
	if err != nil {
		return models.NewFatalStageError(models.StageGenerateWorker, err)
	}
	m, err := manifest.New(bs.Generator.OutputDir(), cfg.Worker.URL(), cfg.Worker.CachePrefix, version, bs.Generator.Now())
	if err != nil {
		return models.NewFatalStageError(models.StageGenerateWorker, err)
	}
	bs.Manifest = m
	bs.Report.WorkerMode = string(cfg.Worker.Mode)
	bs.Report.CacheName = m.CacheName
	bs.Report.ManifestURLs = len(m.URLs)
	bs.Report.ManifestHash = m.Hash()
	bs.Report.SiteVersion = version

	p, err := worker.Write(bs.Generator.OutputDir(), cfg.Worker, m)
	if err != nil {
		return models.NewFatalStageError(models.StageGenerateWorker, err)
	}
	slog.Info("Service worker written",
		logfields.Path(p),
		logfields.Mode(string(cfg.Worker.Mode)),
		slog.String("cache", m.CacheName),
		logfields.Count(len(m.URLs)))
	return nil
}
