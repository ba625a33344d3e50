package history

import (
	"encoding/json"
	"time"

	"github.com/hellsecdev/hellsec.dev/internal/foundation/errors"
	"github.com/hellsecdev/hellsec.dev/internal/site/models"
)

// EventType names a kind of build event.
type EventType string

const (
	EventBuildStarted   EventType = "BuildStarted"
	EventStageCompleted EventType = "StageCompleted"
	EventBuildCompleted EventType = "BuildCompleted"
)

// BuildStartedPayload records what a build was about to do.
type BuildStartedPayload struct {
	Stages           []string `json:"stages"`
	SitebuildVersion string   `json:"sitebuild_version,omitempty"`
	SourceCommit     string   `json:"source_commit,omitempty"`
	SourceBranch     string   `json:"source_branch,omitempty"`
	SourceDirty      bool     `json:"source_dirty,omitempty"`
}

// StageCompletedPayload records one finished stage.
type StageCompletedPayload struct {
	Stage      string `json:"stage"`
	DurationMS int64  `json:"duration_ms"`
	Result     string `json:"result"`
}

// BuildCompletedPayload records the outcome of a build.
type BuildCompletedPayload struct {
	Outcome      string   `json:"outcome"`
	OutputFiles  int      `json:"output_files"`
	FontFiles    int      `json:"font_files"`
	ManifestURLs int      `json:"manifest_urls"`
	CacheName    string   `json:"cache_name,omitempty"`
	SiteVersion  string   `json:"site_version,omitempty"`
	ErrorStage   string   `json:"error_stage,omitempty"`
	Errors       []string `json:"errors,omitempty"`
	Warnings     []string `json:"warnings,omitempty"`
}

func newEvent(buildID string, typ EventType, at time.Time, payload any) (Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Event{}, errors.EventStoreError("failed to marshal event payload").
			WithCause(err).
			WithContext("build_id", buildID).
			WithContext("type", string(typ)).
			Build()
	}
	return Event{BuildID: buildID, Type: typ, Timestamp: at, Payload: data}, nil
}

// NewBuildStarted creates the opening event of a build from its report.
func NewBuildStarted(r *models.BuildReport) (Event, error) {
	stages := make([]string, len(r.Stages))
	for i, s := range r.Stages {
		stages[i] = string(s)
	}
	return newEvent(r.BuildID, EventBuildStarted, r.Start, BuildStartedPayload{
		Stages:           stages,
		SitebuildVersion: r.SitebuildVersion,
		SourceCommit:     r.SourceCommit,
		SourceBranch:     r.SourceBranch,
		SourceDirty:      r.SourceDirty,
	})
}

// NewStageCompleted creates a stage event.
func NewStageCompleted(buildID string, stage models.StageName, at time.Time, d time.Duration, result models.StageResult) (Event, error) {
	return newEvent(buildID, EventStageCompleted, at, StageCompletedPayload{
		Stage:      string(stage),
		DurationMS: d.Milliseconds(),
		Result:     string(result),
	})
}

// NewBuildCompleted creates the closing event of a build from its report.
func NewBuildCompleted(r *models.BuildReport) (Event, error) {
	p := BuildCompletedPayload{
		Outcome:      string(r.Outcome),
		OutputFiles:  r.OutputFiles,
		FontFiles:    r.FontFiles,
		ManifestURLs: r.ManifestURLs,
		CacheName:    r.CacheName,
		SiteVersion:  r.SiteVersion,
	}
	for stage, kind := range r.StageErrorKinds {
		if kind == models.StageErrorFatal {
			p.ErrorStage = string(stage)
		}
	}
	for _, e := range r.Errors {
		p.Errors = append(p.Errors, e.Error())
	}
	for _, w := range r.Warnings {
		p.Warnings = append(p.Warnings, w.Error())
	}
	return newEvent(r.BuildID, EventBuildCompleted, r.End, p)
}
