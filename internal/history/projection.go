package history

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"
)

const statusRunning = "running"

// StageSummary is one stage of a recorded build.
type StageSummary struct {
	Stage    string        `json:"stage"`
	Duration time.Duration `json:"duration"`
	Result   string        `json:"result"`
}

// BuildSummary is a read model of one build.
type BuildSummary struct {
	BuildID      string         `json:"build_id"`
	Status       string         `json:"status"` // "running" or the build outcome
	StartedAt    time.Time      `json:"started_at"`
	CompletedAt  *time.Time     `json:"completed_at,omitempty"`
	Duration     time.Duration  `json:"duration,omitempty"`
	SourceCommit string         `json:"source_commit,omitempty"`
	SourceDirty  bool           `json:"source_dirty,omitempty"`
	Stages       []StageSummary `json:"stages,omitempty"`
	OutputFiles  int            `json:"output_files"`
	FontFiles    int            `json:"font_files"`
	ManifestURLs int            `json:"manifest_urls"`
	CacheName    string         `json:"cache_name,omitempty"`
	SiteVersion  string         `json:"site_version,omitempty"`
	ErrorStage   string         `json:"error_stage,omitempty"`
	Errors       []string       `json:"errors,omitempty"`
	Warnings     []string       `json:"warnings,omitempty"`
}

// Projection rebuilds bounded build history from a Store.
type Projection struct {
	mu      sync.RWMutex
	store   Store
	builds  map[string]*BuildSummary
	history []*BuildSummary // completed builds, newest first
	maxSize int
}

// NewProjection keeps at most maxSize completed builds (100 when <= 0).
func NewProjection(store Store, maxSize int) *Projection {
	if maxSize <= 0 {
		maxSize = 100
	}
	return &Projection{
		store:   store,
		builds:  make(map[string]*BuildSummary),
		maxSize: maxSize,
	}
}

// Rebuild replays every stored event.
func (p *Projection) Rebuild(ctx context.Context) error {
	events, err := p.store.GetRange(ctx, time.Time{}, time.Now().Add(time.Hour))
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.builds = make(map[string]*BuildSummary)
	p.history = nil
	for _, e := range events {
		p.applyLocked(e)
	}
	sort.SliceStable(p.history, func(i, j int) bool {
		return p.history[i].StartedAt.After(p.history[j].StartedAt)
	})
	p.trimLocked()
	return nil
}

// Apply folds a single event into the projection.
func (p *Projection) Apply(e Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.applyLocked(e)
	p.trimLocked()
}

func (p *Projection) applyLocked(e Event) {
	if e.BuildID == "" {
		return
	}
	summary, ok := p.builds[e.BuildID]
	if !ok {
		summary = &BuildSummary{BuildID: e.BuildID, Status: statusRunning, StartedAt: e.Timestamp}
		p.builds[e.BuildID] = summary
	}

	switch e.Type {
	case EventBuildStarted:
		var payload BuildStartedPayload
		if err := json.Unmarshal(e.Payload, &payload); err == nil {
			summary.SourceCommit = payload.SourceCommit
			summary.SourceDirty = payload.SourceDirty
		}
		summary.StartedAt = e.Timestamp

	case EventStageCompleted:
		var payload StageCompletedPayload
		if err := json.Unmarshal(e.Payload, &payload); err == nil {
			summary.Stages = append(summary.Stages, StageSummary{
				Stage:    payload.Stage,
				Duration: time.Duration(payload.DurationMS) * time.Millisecond,
				Result:   payload.Result,
			})
		}

	case EventBuildCompleted:
		at := e.Timestamp
		summary.CompletedAt = &at
		summary.Duration = at.Sub(summary.StartedAt)
		var payload BuildCompletedPayload
		if err := json.Unmarshal(e.Payload, &payload); err == nil {
			summary.Status = payload.Outcome
			summary.OutputFiles = payload.OutputFiles
			summary.FontFiles = payload.FontFiles
			summary.ManifestURLs = payload.ManifestURLs
			summary.CacheName = payload.CacheName
			summary.SiteVersion = payload.SiteVersion
			summary.ErrorStage = payload.ErrorStage
			summary.Errors = payload.Errors
			summary.Warnings = payload.Warnings
		}
		for _, h := range p.history {
			if h.BuildID == summary.BuildID {
				return
			}
		}
		p.history = append([]*BuildSummary{summary}, p.history...)
	}
}

// trimLocked bounds history and forgets completed builds that fell out of it.
func (p *Projection) trimLocked() {
	if len(p.history) > p.maxSize {
		p.history = p.history[:p.maxSize]
	}
	keep := make(map[string]struct{}, len(p.history))
	for _, h := range p.history {
		keep[h.BuildID] = struct{}{}
	}
	for id, s := range p.builds {
		if s.Status == statusRunning {
			continue
		}
		if _, ok := keep[id]; !ok {
			delete(p.builds, id)
		}
	}
}

// History returns completed builds, newest first.
func (p *Projection) History() []*BuildSummary {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]*BuildSummary, len(p.history))
	copy(out, p.history)
	return out
}

// Build returns a copy of the summary for buildID.
func (p *Projection) Build(buildID string) (*BuildSummary, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	s, ok := p.builds[buildID]
	if !ok {
		return nil, false
	}
	cp := *s
	return &cp, true
}

// Lookup returns the summary for buildID. Builds trimmed from the projection
// are replayed from the store.
func (p *Projection) Lookup(ctx context.Context, buildID string) (*BuildSummary, bool, error) {
	if s, ok := p.Build(buildID); ok {
		return s, true, nil
	}
	events, err := p.store.GetByBuildID(ctx, buildID)
	if err != nil {
		return nil, false, err
	}
	if len(events) == 0 {
		return nil, false, nil
	}
	single := NewProjection(p.store, 1)
	for _, e := range events {
		single.applyLocked(e)
	}
	s, ok := single.Build(buildID)
	return s, ok, nil
}

// Last returns the most recently started completed build, or nil.
func (p *Projection) Last() *BuildSummary {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if len(p.history) == 0 {
		return nil
	}
	cp := *p.history[0]
	return &cp
}
