package stages

import (
	"context"
	"log/slog"

	"github.com/hellsecdev/hellsec.dev/internal/logfields"
	"github.com/hellsecdev/hellsec.dev/internal/mirror"
	"github.com/hellsecdev/hellsec.dev/internal/site/models"
)

// StageMirror copies the source tree into the output tree minus the ignore list.
// The output directory and the font cache are never copied into themselves.
func StageMirror(_ context.Context, bs *models.BuildState) error {
	cfg := bs.Generator.Config()
	exclude := []string{bs.Generator.OutputDir()}
	if dir := cfg.FontCacheDir(); dir != "" {
		exclude = append(exclude, dir)
	}
	stats, err := mirror.Copy(bs.Generator.SourceDir(), bs.Generator.OutputDir(), mirror.Options{
		Ignore:  cfg.Ignore,
		Exclude: exclude,
	})
	bs.Assets.Mirror = stats
	bs.Report.FilesCopied = stats.Files
	bs.Report.BytesCopied = stats.Bytes
	if err != nil {
		return models.NewFatalStageError(models.StageMirror, err)
	}
	slog.Info("Source mirrored",
		logfields.Count(stats.Files),
		logfields.Bytes(stats.Bytes),
		slog.Int("skipped", stats.Skipped))
	return nil
}
