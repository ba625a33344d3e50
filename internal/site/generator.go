package site

import (
	"context"
	"log/slog"
	"time"

	"github.com/hellsecdev/hellsec.dev/internal/config"
	"github.com/hellsecdev/hellsec.dev/internal/fetch"
	"github.com/hellsecdev/hellsec.dev/internal/fonts"
	"github.com/hellsecdev/hellsec.dev/internal/logfields"
	"github.com/hellsecdev/hellsec.dev/internal/metrics"
	"github.com/hellsecdev/hellsec.dev/internal/site/models"
	"github.com/hellsecdev/hellsec.dev/internal/site/stages"
	"github.com/hellsecdev/hellsec.dev/internal/sitefs"
	"github.com/hellsecdev/hellsec.dev/internal/vcs"
)

// Generator runs builds for one configuration. It is not safe for
// concurrent Build calls; the preview worker serializes them.
type Generator struct {
	config   *config.Config
	recorder metrics.Recorder
	observer models.BuildObserver
	fetcher  fonts.Fetcher
	clock    func() time.Time
}

// NewGenerator returns a Generator with a no-op recorder, a logging observer
// and an HTTP fetcher built from the fonts configuration.
func NewGenerator(cfg *config.Config) *Generator {
	return &Generator{
		config:   cfg,
		recorder: metrics.NoopRecorder{},
		observer: models.LogObserver{},
		clock:    time.Now,
	}
}

// WithRecorder sets the metrics recorder.
func (g *Generator) WithRecorder(r metrics.Recorder) *Generator {
	if r == nil {
		r = metrics.NoopRecorder{}
	}
	g.recorder = r
	return g
}

// WithObserver adds an observer alongside the logging and metrics ones.
func (g *Generator) WithObserver(o models.BuildObserver) *Generator {
	if o != nil {
		g.observer = models.MultiObserver{g.observer, o}
	}
	return g
}

// WithFetcher overrides the remote fetcher used for fonts.
func (g *Generator) WithFetcher(f fonts.Fetcher) *Generator {
	g.fetcher = f
	return g
}

// WithClock overrides the time source used for the cache epoch and sitemap dates.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	if now != nil {
		g.clock = now
	}
	return g
}

func (g *Generator) Config() *config.Config     { return g.config }
func (g *Generator) SourceDir() string          { return g.config.SourceDir() }
func (g *Generator) OutputDir() string          { return g.config.OutputDir() }
func (g *Generator) Recorder() metrics.Recorder { return g.recorder }
func (g *Generator) Now() time.Time             { return g.clock() }

// Observer returns the logging observer combined with the metrics observer.
func (g *Generator) Observer() models.BuildObserver {
	return models.MultiObserver{g.observer, models.RecorderObserver{Recorder: g.recorder}}
}

// Fetcher returns the configured fetcher, building the HTTP client lazily.
func (g *Generator) Fetcher() fonts.Fetcher {
	if g.fetcher == nil {
		g.fetcher = fetch.NewClient(g.config.Fonts, fetch.WithRecorder(g.recorder))
	}
	return g.fetcher
}

// Pipeline returns the ordered stages enabled by the configuration.
func (g *Generator) Pipeline() *models.Pipeline {
	cfg := g.config
	return models.NewPipeline().
		Add(models.StageCleanOutput, stages.StageCleanOutput).
		Add(models.StageMirror, stages.StageMirror).
		AddIf(cfg.Minify.Enabled, models.StageMinifyAssets, stages.StageMinifyAssets).
		AddIf(cfg.Minify.Enabled && cfg.Minify.HTML.Enabled, models.StageMinifyHTML, stages.StageMinifyHTML).
		AddIf(cfg.Fonts.Enabled, models.StageLocalizeFonts, stages.StageLocalizeFonts).
		Add(models.StageStampSitemap, stages.StageStampSitemap).
		Add(models.StageGenerateWorker, stages.StageGenerateWorker).
		AddIf(cfg.Compress.Brotli, models.StageCompress, stages.StageCompress)
}

// Build runs the pipeline once. The report is returned even when a stage
// fails; the output tree then reflects whichever stages completed.
func (g *Generator) Build(ctx context.Context) (*models.BuildReport, error) {
	report := models.NewBuildReport()
	pipeline := g.Pipeline()
	report.Stages = pipeline.Names()
	g.describeSource(report)

	slog.Info("Starting site build",
		logfields.BuildID(report.BuildID),
		slog.String("source", g.SourceDir()),
		slog.String("output", g.OutputDir()))

	bs := models.NewBuildState(g, report)
	runErr := stages.RunStages(ctx, bs, pipeline.Build())

	if files, err := sitefs.Files(g.OutputDir()); err == nil {
		report.OutputFiles = len(files)
	}
	report.Finish()
	report.DeriveOutcome()

	if dir := g.config.Report.Directory; dir != "" {
		if err := report.Persist(dir); err != nil {
			slog.Warn("Failed to persist build report", logfields.Path(dir), logfields.Error(err))
		}
	}
	g.Observer().OnBuildComplete(report)
	return report, runErr
}

// describeSource stamps the source revision into the report. Building from
// a directory outside git is normal and leaves the fields empty.
func (g *Generator) describeSource(report *models.BuildReport) {
	rev, err := vcs.Describe(g.SourceDir())
	if err != nil {
		slog.Warn("Cannot read source revision", logfields.Error(err))
		return
	}
	if rev == nil {
		return
	}
	report.SourceCommit = rev.Commit
	report.SourceBranch = rev.Branch
	report.SourceDirty = rev.Dirty
	slog.Debug("Source revision", slog.String("commit", rev.Short()), slog.Bool("dirty", rev.Dirty))
}
