package history

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/hellsecdev/hellsec.dev/internal/logfields"
	"github.com/hellsecdev/hellsec.dev/internal/site/models"
)

type stageRecord struct {
	stage    models.StageName
	at       time.Time
	duration time.Duration
	result   models.StageResult
}

// Observer records each build into a Store. Stage events are buffered and
// written together with the start and completion events once the build
// ID is known. A failed write is logged and never fails the build.
type Observer struct {
	store Store
	now   func() time.Time

	mu     sync.Mutex
	stages []stageRecord
}

// NewObserver returns an Observer writing to store.
func NewObserver(store Store) *Observer {
	return &Observer{store: store, now: time.Now}
}

func (o *Observer) OnStageStart(models.StageName) {}

func (o *Observer) OnStageComplete(stage models.StageName, d time.Duration, result models.StageResult) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.stages = append(o.stages, stageRecord{stage: stage, at: o.now(), duration: d, result: result})
}

func (o *Observer) OnBuildComplete(report *models.BuildReport) {
	o.mu.Lock()
	stages := o.stages
	o.stages = nil
	o.mu.Unlock()

	events, err := buildEvents(report, stages)
	if err == nil {
		err = o.store.Append(context.Background(), events...)
	}
	if err != nil {
		slog.Warn("Failed to record build history", logfields.BuildID(report.BuildID), logfields.Error(err))
	}
}

func buildEvents(report *models.BuildReport, stages []stageRecord) ([]Event, error) {
	events := make([]Event, 0, len(stages)+2)
	started, err := NewBuildStarted(report)
	if err != nil {
		return nil, err
	}
	events = append(events, started)
	for _, s := range stages {
		e, err := NewStageCompleted(report.BuildID, s.stage, s.at, s.duration, s.result)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	completed, err := NewBuildCompleted(report)
	if err != nil {
		return nil, err
	}
	return append(events, completed), nil
}
