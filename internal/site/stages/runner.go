package stages

import (
	"context"
	"fmt"
	"time"

	"github.com/hellsecdev/hellsec.dev/internal/site/models"
)

// RunStages runs defs in order and stops at the first fatal or canceled
// stage. Cancellation is only observed between stages; a running stage is
// expected to watch ctx itself.
func RunStages(ctx context.Context, bs *models.BuildState, defs []models.StageDef) error {
	obs := bs.Observer()
	for _, def := range defs {
		if err := ctx.Err(); err != nil {
			se := models.NewCanceledStageError(def.Name, err)
			record(bs, ClassifyStageResult(def.Name, se), 0)
			return se
		}

		obs.OnStageStart(def.Name)
		start := time.Now()
		err := def.Fn(ctx, bs)
		elapsed := time.Since(start)

		out := ClassifyStageResult(def.Name, err)
		record(bs, out, elapsed)

		if out.Abort {
			if out.Error != nil {
				return out.Error
			}
			return fmt.Errorf("stage %s aborted", def.Name)
		}
	}
	return nil
}

// record writes one stage outcome into the report, the metrics recorder and
// the observer.
func record(bs *models.BuildState, out StageOutcome, elapsed time.Duration) {
	bs.Report.StageDurations[string(out.Stage)] = elapsed
	if out.Error != nil {
		bs.Report.StageErrorKinds[out.Stage] = out.Error.Kind
		bs.Report.AddIssue(out.IssueCode, out.Stage, out.Severity, out.Error.Error(), out.Transient, out.Error)
	}
	bs.Report.RecordStageResult(out.Stage, out.Result, bs.Recorder())
	bs.Observer().OnStageComplete(out.Stage, elapsed, out.Result)
}
