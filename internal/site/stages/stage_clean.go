package stages

import (
	"context"
	"log/slog"

	"github.com/hellsecdev/hellsec.dev/internal/logfields"
	"github.com/hellsecdev/hellsec.dev/internal/mirror"
	"github.com/hellsecdev/hellsec.dev/internal/site/models"
)

// StageCleanOutput removes the output tree (when configured) and recreates it.
func StageCleanOutput(_ context.Context, bs *models.BuildState) error {
	out := bs.Generator.OutputDir()
	if !bs.Generator.Config().Output.Clean {
		if err := mirror.Ensure(out); err != nil {
			return models.NewFatalStageError(models.StageCleanOutput, err)
		}
		return nil
	}
	if err := mirror.Clean(out); err != nil {
		return models.NewFatalStageError(models.StageCleanOutput, err)
	}
	slog.Debug("Output directory reset", logfields.Path(out))
	return nil
}
