package stages

import (
	"context"
	"errors"

	ferrors "github.com/hellsecdev/hellsec.dev/internal/foundation/errors"
	"github.com/hellsecdev/hellsec.dev/internal/site/models"
)

// StageOutcome normalized result of stage execution.
type StageOutcome struct {
	Stage     models.StageName
	Error     *models.StageError
	Result    models.StageResult
	IssueCode models.ReportIssueCode
	Severity  models.IssueSeverity
	Transient bool
	Abort     bool
}

// resultFromStageErrorKind maps a StageErrorKind to a StageResult.
func resultFromStageErrorKind(k models.StageErrorKind) models.StageResult {
	switch k {
	case models.StageErrorWarning:
		return models.StageResultWarning
	case models.StageErrorCanceled:
		return models.StageResultCanceled
	case models.StageErrorFatal:
		return models.StageResultFatal
	default:
		return models.StageResultFatal
	}
}

// severityFromStageErrorKind maps StageErrorKind to IssueSeverity.
func severityFromStageErrorKind(k models.StageErrorKind) models.IssueSeverity {
	if k == models.StageErrorWarning {
		return models.SeverityWarning
	}
	return models.SeverityError
}

// ClassifyStageResult converts a raw error from a stage into a StageOutcome.
// Errors that are not StageErrors are fatal.
func ClassifyStageResult(stage models.StageName, err error) StageOutcome {
	if err == nil {
		return StageOutcome{Stage: stage, Result: models.StageResultSuccess}
	}

	var se *models.StageError
	if !errors.As(err, &se) {
		se = models.NewFatalStageError(stage, err)
	}

	if se.Kind == models.StageErrorCanceled {
		return StageOutcome{
			Stage:     stage,
			Error:     se,
			Result:    models.StageResultCanceled,
			IssueCode: models.IssueCanceled,
			Severity:  models.SeverityError,
			Abort:     true,
		}
	}

	return StageOutcome{
		Stage:     stage,
		Error:     se,
		Result:    resultFromStageErrorKind(se.Kind),
		IssueCode: classifyIssueCode(se),
		Severity:  severityFromStageErrorKind(se.Kind),
		Transient: se.Transient(),
		Abort:     se.Kind == models.StageErrorFatal,
	}
}

// classifyIssueCode determines the issue code from the stage and the error's category.
func classifyIssueCode(se *models.StageError) models.ReportIssueCode {
	switch se.Stage {
	case models.StageLocalizeFonts:
		switch {
		case errors.Is(se.Err, context.DeadlineExceeded):
			return models.IssueNetworkTimeout
		case errors.Is(se.Err, models.ErrPartialFonts):
			return models.IssuePartialFonts
		case errors.Is(se.Err, models.ErrFontsUnavailable):
			return models.IssueFontsUnavailable
		}
	case models.StageGenerateWorker:
		if !ferrors.HasCategory(se.Err, ferrors.CategoryFileSystem) {
			return models.IssueWorker
		}
	}

	switch ferrors.CategoryOf(se.Err) {
	case ferrors.CategoryFileSystem:
		return models.IssueFilesystem
	case ferrors.CategoryMinify:
		return models.IssueMinify
	default:
		return models.IssueGenericStageError
	}
}
