package errors

// ErrorCategory groups errors by the subsystem that produced them. The CLI
// derives its exit code from it.
type ErrorCategory string

const (
	CategoryConfig     ErrorCategory = "config"
	CategoryValidation ErrorCategory = "validation"
	CategoryNotFound   ErrorCategory = "not_found"

	// Remote systems: the font CDN and the source repository.
	CategoryNetwork ErrorCategory = "network"
	CategoryGit     ErrorCategory = "git"

	// Build pipeline and its local side effects.
	CategoryBuild      ErrorCategory = "build"
	CategoryMinify     ErrorCategory = "minify"
	CategoryFileSystem ErrorCategory = "filesystem"
	CategoryEventStore ErrorCategory = "eventstore"

	CategoryInternal ErrorCategory = "internal"
)

// ErrorSeverity indicates how far an error propagates.
type ErrorSeverity string

const (
	SeverityFatal   ErrorSeverity = "fatal"   // aborts the build
	SeverityError   ErrorSeverity = "error"   // fails the current operation
	SeverityWarning ErrorSeverity = "warning" // recorded, work continues
)

// ErrorContext carries structured key/value details for logs.
type ErrorContext map[string]any
