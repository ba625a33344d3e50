package stages

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hellsecdev/hellsec.dev/internal/fonts"
	"github.com/hellsecdev/hellsec.dev/internal/foundation/errors"
	"github.com/hellsecdev/hellsec.dev/internal/logfields"
	"github.com/hellsecdev/hellsec.dev/internal/site/models"
)

// StageLocalizeFonts vendors the remote font stylesheet and its fonts.
// An unreachable stylesheet or a failed font is a warning; the build goes on
// with whatever references remain.
func StageLocalizeFonts(ctx context.Context, bs *models.BuildState) error {
	cfg := bs.Generator.Config()
	loc := fonts.NewLocalizer(cfg.Fonts, bs.Generator.OutputDir(), cfg.FontCacheDir(), bs.Generator.Fetcher()).
		WithRecorder(bs.Recorder())

	res, err := loc.Run(ctx)
	bs.Fonts = res
	if res != nil {
		bs.Report.FontsLocalized = res.Localized
		bs.Report.FontFiles = len(res.Fonts)
		bs.Report.FontFailures = res.Failed
		bs.Report.RewrittenHTML = len(res.RewrittenHTML)
	}

	switch {
	case err == nil:
	case ctx.Err() != nil:
		return models.NewCanceledStageError(models.StageLocalizeFonts, err)
	case errors.HasCategory(err, errors.CategoryNetwork):
		slog.Warn("Font localization skipped; pages keep the remote stylesheet", logfields.Error(err))
		return models.NewWarnStageError(models.StageLocalizeFonts, fmt.Errorf("%w: %w", models.ErrFontsUnavailable, err))
	default:
		return models.NewFatalStageError(models.StageLocalizeFonts, err)
	}

	if res != nil && len(res.Failed) > 0 {
		return models.NewWarnStageError(models.StageLocalizeFonts,
			fmt.Errorf("%w: %d of %d", models.ErrPartialFonts, len(res.Failed), len(res.Fonts)))
	}
	return nil
}
