package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/hellsecdev/hellsec.dev/internal/metrics"
	"github.com/hellsecdev/hellsec.dev/internal/version"
)

// NewBuildReport constructs a new BuildReport with a fresh build ID.
func NewBuildReport() *BuildReport {
	return &BuildReport{
		SchemaVersion:    1,
		BuildID:          uuid.NewString(),
		Start:            time.Now(),
		StageDurations:   make(map[string]time.Duration),
		StageErrorKinds:  make(map[StageName]StageErrorKind),
		StageCounts:      make(map[StageName]StageCount),
		SitebuildVersion: version.Version,
	}
}

// BuildOutcome is the typed enumeration of final build result states.
type BuildOutcome string

const (
	OutcomeSuccess  BuildOutcome = "success"
	OutcomeWarning  BuildOutcome = "warning"
	OutcomeFailed   BuildOutcome = "failed"
	OutcomeCanceled BuildOutcome = "canceled"
)

// BuildReport captures high-level metrics about a site build.
type BuildReport struct {
	SchemaVersion   int
	BuildID         string
	Start           time.Time
	End             time.Time
	Errors          []error // fatal errors causing build abortion (at most one)
	Warnings        []error // non-fatal issues such as an unreachable font CDN
	StageDurations  map[string]time.Duration
	StageErrorKinds map[StageName]StageErrorKind
	StageCounts     map[StageName]StageCount
	Outcome         BuildOutcome
	Issues          []ReportIssue
	Stages          []StageName // planned pipeline order

	FilesCopied    int
	BytesCopied    int64
	AssetsMinified int
	HTMLMinified   int
	HTMLBytesSaved int64

	FontsLocalized bool
	FontFiles      int
	FontFailures   []string
	RewrittenHTML  int

	SitemapStamped int

	WorkerMode   string
	CacheName    string
	ManifestURLs int
	ManifestHash string
	SiteVersion  string

	Compressed  int
	OutputFiles int

	SitebuildVersion string

	SourceCommit string
	SourceBranch string
	SourceDirty  bool
}

// AddIssue appends a structured issue and mirrors severity into Errors/Warnings slices.
func (r *BuildReport) AddIssue(code ReportIssueCode, stage StageName, severity IssueSeverity, msg string, transient bool, err error) {
	issue := ReportIssue{Code: code, Stage: stage, Severity: severity, Message: msg, Transient: transient}
	r.Issues = append(r.Issues, issue)
	if err != nil {
		switch severity {
		case SeverityError:
			r.Errors = append(r.Errors, err)
		case SeverityWarning:
			r.Warnings = append(r.Warnings, err)
		}
	}
}

// ReportIssueCode enumerates machine-parseable issue identifiers.
// These codes are a stable contract: append only.
type ReportIssueCode string

const (
	IssueCanceled          ReportIssueCode = "BUILD_CANCELED"
	IssueGenericStageError ReportIssueCode = "GENERIC_STAGE_ERROR"
	IssueFilesystem        ReportIssueCode = "FILESYSTEM_FAILURE"
	IssueMinify            ReportIssueCode = "MINIFY_FAILURE"
	IssueFontsUnavailable  ReportIssueCode = "FONTS_UNAVAILABLE"
	IssuePartialFonts      ReportIssueCode = "PARTIAL_FONTS"
	IssueNetworkTimeout    ReportIssueCode = "NETWORK_TIMEOUT"
	IssueWorker            ReportIssueCode = "WORKER_GENERATION"
)

// IssueSeverity represents normalized severity levels.
type IssueSeverity string

const (
	SeverityError   IssueSeverity = "error"
	SeverityWarning IssueSeverity = "warning"
)

// ReportIssue is a structured taxonomy entry describing a discrete problem encountered.
type ReportIssue struct {
	Code      ReportIssueCode `json:"code"`
	Stage     StageName       `json:"stage"`
	Severity  IssueSeverity   `json:"severity"`
	Message   string          `json:"message"`
	Transient bool            `json:"transient"`
}

// StageCount aggregates counts of outcomes for a stage.
type StageCount struct {
	Success  int
	Warning  int
	Fatal    int
	Canceled int
}

// Finish sets the end time of the report.
func (r *BuildReport) Finish() { r.End = time.Now() }

// RecordStageResult updates BuildReport counters and emits metrics (if recorder non-nil).
func (r *BuildReport) RecordStageResult(stage StageName, res StageResult, recorder metrics.Recorder) {
	if r.StageCounts == nil {
		r.StageCounts = make(map[StageName]StageCount)
	}
	sc := r.StageCounts[stage]
	var label metrics.ResultLabel
	switch res {
	case StageResultSuccess:
		sc.Success++
		label = metrics.ResultSuccess
	case StageResultWarning:
		sc.Warning++
		label = metrics.ResultWarning
	case StageResultFatal:
		sc.Fatal++
		label = metrics.ResultFatal
	case StageResultCanceled:
		sc.Canceled++
		label = metrics.ResultCanceled
	case StageResultSkipped:
		// No counters for skipped yet
	}
	if recorder != nil && label != "" {
		recorder.IncStageResult(string(stage), label)
	}
	r.StageCounts[stage] = sc
}

// Summary returns a human-readable single-line summary.
func (r *BuildReport) Summary() string {
	dur := r.End.Sub(r.Start)
	return fmt.Sprintf("build=%s files=%d duration=%s errors=%d warnings=%d stages=%d fonts=%d manifest=%d cache=%s outcome=%s",
		r.BuildID, r.OutputFiles, dur.Truncate(time.Millisecond), len(r.Errors), len(r.Warnings),
		len(r.StageDurations), r.FontFiles, r.ManifestURLs, r.CacheName, string(r.Outcome))
}

// DeriveOutcome sets the Outcome field based on recorded errors/warnings.
func (r *BuildReport) DeriveOutcome() {
	if len(r.Errors) > 0 {
		for _, e := range r.Errors {
			var se *StageError
			if errors.As(e, &se) && se.Kind == StageErrorCanceled {
				r.Outcome = OutcomeCanceled
				return
			}
		}
		r.Outcome = OutcomeFailed
		return
	}
	if len(r.Warnings) > 0 {
		r.Outcome = OutcomeWarning
		return
	}
	r.Outcome = OutcomeSuccess
}

// Persist writes the report atomically into the provided root directory.
func (r *BuildReport) Persist(root string) error {
	if r.End.IsZero() {
		r.Finish()
		r.DeriveOutcome()
	}
	if err := os.MkdirAll(root, 0o750); err != nil {
		return fmt.Errorf("ensure root for report: %w", err)
	}
	jb, err := json.MarshalIndent(r.SanitizedCopy(), "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report json: %w", err)
	}
	if err := writeAtomic(filepath.Join(root, "build-report.json"), jb); err != nil {
		return err
	}
	return writeAtomic(filepath.Join(root, "build-report.txt"), []byte(r.Summary()+"\n"))
}

func writeAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write temp %s: %w", filepath.Base(path), err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("atomic rename %s: %w", filepath.Base(path), err)
	}
	return nil
}

// SanitizedCopy returns a copy with error fields converted to strings for JSON friendliness.
func (r *BuildReport) SanitizedCopy() *BuildReportSerializable {
	stageCounts := make(map[string]StageCount, len(r.StageCounts))
	for k, v := range r.StageCounts {
		stageCounts[string(k)] = v
	}
	sek := make(map[string]string, len(r.StageErrorKinds))
	for k, v := range r.StageErrorKinds {
		sek[string(k)] = string(v)
	}
	stages := make([]string, len(r.Stages))
	for i, s := range r.Stages {
		stages[i] = string(s)
	}
	durations := r.StageDurations
	if durations == nil {
		durations = map[string]time.Duration{}
	}
	issues := r.Issues
	if issues == nil {
		issues = []ReportIssue{}
	}

	s := &BuildReportSerializable{
		SchemaVersion:    r.SchemaVersion,
		BuildID:          r.BuildID,
		Start:            r.Start,
		End:              r.End,
		Errors:           make([]string, len(r.Errors)),
		Warnings:         make([]string, len(r.Warnings)),
		StageDurations:   durations,
		StageErrorKinds:  sek,
		StageCounts:      stageCounts,
		Stages:           stages,
		Outcome:          string(r.Outcome),
		Issues:           issues,
		FilesCopied:      r.FilesCopied,
		BytesCopied:      r.BytesCopied,
		AssetsMinified:   r.AssetsMinified,
		HTMLMinified:     r.HTMLMinified,
		HTMLBytesSaved:   r.HTMLBytesSaved,
		FontsLocalized:   r.FontsLocalized,
		FontFiles:        r.FontFiles,
		FontFailures:     r.FontFailures,
		RewrittenHTML:    r.RewrittenHTML,
		SitemapStamped:   r.SitemapStamped,
		WorkerMode:       r.WorkerMode,
		CacheName:        r.CacheName,
		ManifestURLs:     r.ManifestURLs,
		ManifestHash:     r.ManifestHash,
		SiteVersion:      r.SiteVersion,
		Compressed:       r.Compressed,
		OutputFiles:      r.OutputFiles,
		SitebuildVersion: r.SitebuildVersion,
		SourceCommit:     r.SourceCommit,
		SourceBranch:     r.SourceBranch,
		SourceDirty:      r.SourceDirty,
	}
	for i, e := range r.Errors {
		s.Errors[i] = e.Error()
	}
	for i, w := range r.Warnings {
		s.Warnings[i] = w.Error()
	}
	return s
}

// BuildReportSerializable mirrors BuildReport but with string errors for JSON output.
type BuildReportSerializable struct {
	SchemaVersion    int                      `json:"schema_version"`
	BuildID          string                   `json:"build_id"`
	Start            time.Time                `json:"start"`
	End              time.Time                `json:"end"`
	Errors           []string                 `json:"errors"`
	Warnings         []string                 `json:"warnings"`
	StageDurations   map[string]time.Duration `json:"stage_durations"`
	StageErrorKinds  map[string]string        `json:"stage_error_kinds"`
	StageCounts      map[string]StageCount    `json:"stage_counts"`
	Stages           []string                 `json:"stages"`
	Outcome          string                   `json:"outcome"`
	Issues           []ReportIssue            `json:"issues"`
	FilesCopied      int                      `json:"files_copied"`
	BytesCopied      int64                    `json:"bytes_copied"`
	AssetsMinified   int                      `json:"assets_minified"`
	HTMLMinified     int                      `json:"html_minified"`
	HTMLBytesSaved   int64                    `json:"html_bytes_saved"`
	FontsLocalized   bool                     `json:"fonts_localized"`
	FontFiles        int                      `json:"font_files"`
	FontFailures     []string                 `json:"font_failures,omitempty"`
	RewrittenHTML    int                      `json:"rewritten_html"`
	SitemapStamped   int                      `json:"sitemap_stamped"`
	WorkerMode       string                   `json:"worker_mode,omitempty"`
	CacheName        string                   `json:"cache_name,omitempty"`
	ManifestURLs     int                      `json:"manifest_urls"`
	ManifestHash     string                   `json:"manifest_hash,omitempty"`
	SiteVersion      string                   `json:"site_version,omitempty"`
	Compressed       int                      `json:"compressed"`
	OutputFiles      int                      `json:"output_files"`
	SitebuildVersion string                   `json:"sitebuild_version,omitempty"`
	SourceCommit     string                   `json:"source_commit,omitempty"`
	SourceBranch     string                   `json:"source_branch,omitempty"`
	SourceDirty      bool                     `json:"source_dirty,omitempty"`
}
