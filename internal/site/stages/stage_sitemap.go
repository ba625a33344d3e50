package stages

import (
	"context"
	"log/slog"

	"github.com/hellsecdev/hellsec.dev/internal/logfields"
	"github.com/hellsecdev/hellsec.dev/internal/site/models"
	"github.com/hellsecdev/hellsec.dev/internal/sitefs"
	"github.com/hellsecdev/hellsec.dev/internal/sitemap"
)

// StageStampSitemap refreshes <lastmod> dates when the sitemap exists.
func StageStampSitemap(_ context.Context, bs *models.BuildState) error {
	file := bs.Generator.Config().Sitemap.File
	res, err := sitemap.Stamp(sitefs.Join(bs.Generator.OutputDir(), file), bs.Generator.Now())
	bs.Sitemap = res
	bs.Report.SitemapStamped = res.Replaced
	if err != nil {
		return models.NewFatalStageError(models.StageStampSitemap, err)
	}
	if !res.Found {
		slog.Info("No sitemap to stamp", logfields.File(file))
		return nil
	}
	slog.Info("Sitemap stamped", logfields.File(file), logfields.Count(res.Replaced), slog.String("date", res.Date))
	return nil
}
