package models

import (
	"context"
	stdErrors "errors"
	"fmt"

	"github.com/hellsecdev/hellsec.dev/internal/foundation/errors"
)

// Stage is a discrete unit of work in the site build.
type Stage func(ctx context.Context, bs *BuildState) error

// StageName is a strongly-typed identifier for a build stage.
type StageName string

// Canonical stage names, in pipeline order.
const (
	StageCleanOutput    StageName = "clean_output"
	StageMirror         StageName = "mirror"
	StageMinifyAssets   StageName = "minify_assets"
	StageMinifyHTML     StageName = "minify_html"
	StageLocalizeFonts  StageName = "localize_fonts"
	StageStampSitemap   StageName = "stamp_sitemap"
	StageGenerateWorker StageName = "generate_worker"
	StageCompress       StageName = "compress"
)

// StageErrorKind classifies the outcome of a stage.
type StageErrorKind string

const (
	StageErrorFatal    StageErrorKind = "fatal"    // Build must abort.
	StageErrorWarning  StageErrorKind = "warning"  // Non-fatal; record and continue.
	StageErrorCanceled StageErrorKind = "canceled" // Context cancellation.
)

// StageError is a structured error carrying category and underlying cause.
type StageError struct {
	Kind  StageErrorKind
	Stage StageName
	Err   error
}

func (e *StageError) Error() string { return fmt.Sprintf("%s stage %s: %v", e.Kind, e.Stage, e.Err) }
func (e *StageError) Unwrap() error { return e.Err }

// Transient reports whether the stage might succeed on a later build.
// Only the font stage talks to the network; filesystem and minifier
// failures repeat until the site changes.
func (e *StageError) Transient() bool {
	if e == nil || e.Kind == StageErrorCanceled || e.Stage != StageLocalizeFonts {
		return false
	}
	return stdErrors.Is(e.Err, ErrFontsUnavailable) || errors.IsTransient(e.Err)
}

// StageResult captures the high-level outcome of a stage.
type StageResult string

const (
	StageResultSuccess  StageResult = "success"
	StageResultWarning  StageResult = "warning"
	StageResultFatal    StageResult = "fatal"
	StageResultCanceled StageResult = "canceled"
	StageResultSkipped  StageResult = "skipped"
)

// NewFatalStageError creates a new fatal stage error.
func NewFatalStageError(stage StageName, err error) *StageError {
	return &StageError{Kind: StageErrorFatal, Stage: stage, Err: err}
}

func NewWarnStageError(stage StageName, err error) *StageError {
	return &StageError{Kind: StageErrorWarning, Stage: stage, Err: err}
}

func NewCanceledStageError(stage StageName, err error) *StageError {
	return &StageError{Kind: StageErrorCanceled, Stage: stage, Err: err}
}

// StageDef pairs a stage name with its executing function.
type StageDef struct {
	Name StageName
	Fn   Stage
}

// Pipeline collects stage definitions in run order.
type Pipeline struct{ defs []StageDef }

func NewPipeline() *Pipeline { return &Pipeline{} }

func (p *Pipeline) Add(name StageName, fn Stage) *Pipeline {
	p.defs = append(p.defs, StageDef{Name: name, Fn: fn})
	return p
}

// AddIf appends the stage only when enabled, so disabled stages never show
// up in the report.
func (p *Pipeline) AddIf(enabled bool, name StageName, fn Stage) *Pipeline {
	if enabled {
		return p.Add(name, fn)
	}
	return p
}

// Build returns the definitions; later Adds do not affect the result.
func (p *Pipeline) Build() []StageDef {
	return append([]StageDef(nil), p.defs...)
}

func (p *Pipeline) Names() []StageName {
	names := make([]StageName, 0, len(p.defs))
	for _, d := range p.defs {
		names = append(names, d.Name)
	}
	return names
}
