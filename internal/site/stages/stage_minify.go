package stages

import (
	"context"
	"log/slog"

	"github.com/hellsecdev/hellsec.dev/internal/foundation/errors"
	"github.com/hellsecdev/hellsec.dev/internal/logfields"
	"github.com/hellsecdev/hellsec.dev/internal/minify"
	"github.com/hellsecdev/hellsec.dev/internal/site/models"
	"github.com/hellsecdev/hellsec.dev/internal/sitefs"
)

// StageMinifyAssets minifies the configured script and stylesheet entries.
func StageMinifyAssets(_ context.Context, bs *models.BuildState) error {
	cfg := bs.Generator.Config().Minify
	results, err := minify.Assets(bs.Generator.SourceDir(), bs.Generator.OutputDir(), cfg.Entries, cfg.ScriptTarget)
	bs.Assets.Minified = results
	bs.Report.AssetsMinified = len(results)
	if err != nil {
		return models.NewFatalStageError(models.StageMinifyAssets, err)
	}
	return nil
}

// StageMinifyHTML rewrites every HTML file in the output tree.
func StageMinifyHTML(ctx context.Context, bs *models.BuildState) error {
	opts := bs.Generator.Config().Minify.HTML
	m := minify.NewHTMLMinifier(minify.HTMLOptions{
		RemoveEmptyAttributes: opts.RemoveEmptyAttributes,
		SortAttributes:        opts.SortAttributes,
		SortClassNames:        opts.SortClassNames,
	})

	out := bs.Generator.OutputDir()
	files, err := sitefs.FilesWithExt(out, ".html")
	if err != nil {
		return models.NewFatalStageError(models.StageMinifyHTML,
			errors.WrapError(err, errors.CategoryFileSystem, "failed to list html files").Build())
	}
	for _, rel := range files {
		if err := ctx.Err(); err != nil {
			return models.NewCanceledStageError(models.StageMinifyHTML, err)
		}
		before, after, err := m.MinifyFile(sitefs.Join(out, rel))
		if err != nil {
			return models.NewFatalStageError(models.StageMinifyHTML, err)
		}
		bs.Assets.HTMLFiles++
		bs.Assets.HTMLBytesIn += int64(before)
		bs.Assets.HTMLBytesOut += int64(after)
	}
	bs.Report.HTMLMinified = bs.Assets.HTMLFiles
	bs.Report.HTMLBytesSaved = bs.Assets.HTMLBytesIn - bs.Assets.HTMLBytesOut
	slog.Info("HTML minified",
		logfields.Count(bs.Assets.HTMLFiles),
		slog.Int64("saved_bytes", bs.Report.HTMLBytesSaved))
	return nil
}
