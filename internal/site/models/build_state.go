package models

import (
	"time"

	"github.com/hellsecdev/hellsec.dev/internal/compress"
	"github.com/hellsecdev/hellsec.dev/internal/config"
	"github.com/hellsecdev/hellsec.dev/internal/fonts"
	"github.com/hellsecdev/hellsec.dev/internal/manifest"
	"github.com/hellsecdev/hellsec.dev/internal/metrics"
	"github.com/hellsecdev/hellsec.dev/internal/minify"
	"github.com/hellsecdev/hellsec.dev/internal/mirror"
	"github.com/hellsecdev/hellsec.dev/internal/sitemap"
)

// Generator defines what stages need from the site generator.
type Generator interface {
	Config() *config.Config
	SourceDir() string
	OutputDir() string
	Recorder() metrics.Recorder
	Observer() BuildObserver
	Fetcher() fonts.Fetcher
	Now() time.Time
}

// AssetsState records the copy and minify stages.
type AssetsState struct {
	Mirror       mirror.Stats
	Minified     []minify.AssetResult
	HTMLFiles    int
	HTMLBytesIn  int64
	HTMLBytesOut int64
}

// PipelineState tracks execution metadata across stages.
type PipelineState struct {
	StartTime time.Time
}

// BuildState carries mutable state across stages.
type BuildState struct {
	Generator Generator
	Report    *BuildReport

	Assets   AssetsState
	Fonts    *fonts.Result
	Sitemap  sitemap.Result
	Manifest *manifest.AssetManifest
	Compress compress.Stats
	Pipeline PipelineState
}

// NewBuildState constructs a BuildState for one run.
func NewBuildState(g Generator, report *BuildReport) *BuildState {
	start := time.Now()
	if g != nil {
		start = g.Now()
	}
	return &BuildState{
		Generator: g,
		Report:    report,
		Pipeline:  PipelineState{StartTime: start},
	}
}

// Recorder returns the generator's recorder or a no-op one.
func (bs *BuildState) Recorder() metrics.Recorder {
	if bs.Generator == nil || bs.Generator.Recorder() == nil {
		return metrics.NoopRecorder{}
	}
	return bs.Generator.Recorder()
}

// Observer returns the generator's observer or a no-op one.
func (bs *BuildState) Observer() BuildObserver {
	if bs.Generator == nil || bs.Generator.Observer() == nil {
		return NoopObserver{}
	}
	return bs.Generator.Observer()
}
