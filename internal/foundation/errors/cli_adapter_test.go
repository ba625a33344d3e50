package errors

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCLIErrorAdapter_ExitCodeFor(t *testing.T) {
	adapter := NewCLIErrorAdapter(false, slog.Default())

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, 0},
		{"validation", ValidationError("invalid input").Build(), 2},
		{"not found", NotFoundError("no history").Build(), 3},
		{"config", ConfigError("bad config").Build(), 7},
		{"network", NetworkError("cdn down").Build(), 8},
		{"git", GitError("corrupt repository").Build(), 8},
		{"filesystem", FileSystemError("disk full").Build(), 11},
		{"minify", MinifyError("syntax error").Build(), 11},
		{"event store", EventStoreError("locked").Build(), 11},
		{"wrapped build", fmt.Errorf("fatal stage mirror: %w", BuildError("copy failed").Build()), 11},
		{"internal", NewError(CategoryInternal, "bug").Build(), 10},
		{"unknown category", NewError("other", "x").Build(), 1},
		{"unclassified", errors.New("unknown error"), 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, adapter.ExitCodeFor(tt.err))
		})
	}
}

func TestCLIErrorAdapter_FormatError(t *testing.T) {
	adapter := NewCLIErrorAdapter(false, slog.Default())
	assert.Empty(t, adapter.FormatError(nil))

	err := WrapError(errors.New("permission denied"), CategoryFileSystem, "write dist/index.html").Build()
	assert.Equal(t, "Error: write dist/index.html: permission denied", adapter.FormatError(err))
	assert.Equal(t, "Error: no history", adapter.FormatError(NotFoundError("no history").Build()))
	assert.Equal(t, "Error: boom", adapter.FormatError(errors.New("boom")))

	verbose := NewCLIErrorAdapter(true, slog.Default())
	assert.Contains(t, verbose.FormatError(err), "[filesystem:error]")
}

func TestCLIErrorAdapter_HandleError(t *testing.T) {
	var stderr, logs bytes.Buffer
	adapter := NewCLIErrorAdapter(false, slog.New(slog.NewTextHandler(&logs, nil)))
	adapter.stderr = &stderr
	code := -1
	adapter.exit = func(c int) { code = c }

	adapter.HandleError(nil)
	assert.Equal(t, -1, code)

	adapter.HandleError(ConfigError("unknown worker mode").WithContext("mode", "bogus").Build())
	assert.Equal(t, 7, code)
	assert.Contains(t, stderr.String(), "unknown worker mode")
	assert.Contains(t, logs.String(), "category=config")
	assert.Contains(t, logs.String(), "mode=bogus")
}

func TestCLIErrorAdapter_QuietForNonFatal(t *testing.T) {
	var stderr, logs bytes.Buffer
	adapter := NewCLIErrorAdapter(false, slog.New(slog.NewTextHandler(&logs, nil)))
	adapter.stderr = &stderr
	adapter.exit = func(int) {}

	adapter.HandleError(NotFoundError("no history").Build())
	assert.Empty(t, logs.String())
	assert.Equal(t, "Error: no history\n", stderr.String())
}
