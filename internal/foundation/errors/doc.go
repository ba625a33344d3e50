// Package errors provides the classified error type used across sitebuild.
//
// Every error that reaches the CLI carries a category, which selects the exit
// code, and a severity, which decides whether it is logged. Errors from the
// font CDN are additionally marked transient so the build report can tell a
// flaky network apart from a broken site.
//
//	err := errors.WrapError(cause, errors.CategoryNetwork, "font download failed").
//		Transient().
//		WithContext("url", fontURL).
//		Build()
package errors
