package stages

import (
	"context"
	stdErrors "errors"
	"log/slog"

	"github.com/hellsecdev/hellsec.dev/internal/compress"
	"github.com/hellsecdev/hellsec.dev/internal/logfields"
	"github.com/hellsecdev/hellsec.dev/internal/site/models"
)

// StageCompress writes brotli siblings. It runs after the worker so the .br
// files never enter the precache manifest.
func StageCompress(ctx context.Context, bs *models.BuildState) error {
	st, err := compress.Brotli(ctx, bs.Generator.OutputDir(), bs.Generator.Config().Compress.Extensions)
	bs.Compress = st
	bs.Report.Compressed = st.Compressed
	if err != nil {
		if stdErrors.Is(err, context.Canceled) || stdErrors.Is(err, context.DeadlineExceeded) {
			return models.NewCanceledStageError(models.StageCompress, err)
		}
		return models.NewFatalStageError(models.StageCompress, err)
	}
	slog.Info("Precompressed output", logfields.Count(st.Compressed), slog.Int("skipped", st.Skipped))
	return nil
}
