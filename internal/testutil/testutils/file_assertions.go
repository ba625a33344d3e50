// Package helpers holds assertions shared by the build pipeline tests.
package helpers

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

// FileAssertions checks an output tree. Paths are slash separated and
// relative to the tree root. Every method returns the receiver so checks
// chain.
type FileAssertions struct {
	t    *testing.T
	root string
}

func NewFileAssertions(t *testing.T, root string) *FileAssertions {
	return &FileAssertions{t: t, root: root}
}

func (fa *FileAssertions) path(rel string) string {
	return filepath.Join(fa.root, filepath.FromSlash(rel))
}

func (fa *FileAssertions) AssertFileExists(rel string) *FileAssertions {
	fa.t.Helper()
	assert.FileExists(fa.t, fa.path(rel))
	return fa
}

// AssertFileNotExists fails when anything, file or directory, is at rel.
func (fa *FileAssertions) AssertFileNotExists(rel string) *FileAssertions {
	fa.t.Helper()
	_, err := os.Lstat(fa.path(rel))
	assert.Truef(fa.t, os.IsNotExist(err), "expected %s to be absent", rel)
	return fa
}

func (fa *FileAssertions) AssertDirExists(rel string) *FileAssertions {
	fa.t.Helper()
	assert.DirExists(fa.t, fa.path(rel))
	return fa
}

func (fa *FileAssertions) AssertFileContains(rel, want string) *FileAssertions {
	fa.t.Helper()
	if content, ok := fa.read(rel); ok {
		assert.Containsf(fa.t, content, want, "in %s", rel)
	}
	return fa
}

func (fa *FileAssertions) AssertFileNotContains(rel, unwanted string) *FileAssertions {
	fa.t.Helper()
	if content, ok := fa.read(rel); ok {
		assert.NotContainsf(fa.t, content, unwanted, "in %s", rel)
	}
	return fa
}

// AssertSmallerThan checks that rel is strictly smaller than size bytes.
func (fa *FileAssertions) AssertSmallerThan(rel string, size int) *FileAssertions {
	fa.t.Helper()
	st, err := os.Stat(fa.path(rel))
	if assert.NoError(fa.t, err) {
		assert.Lessf(fa.t, st.Size(), int64(size), "size of %s", rel)
	}
	return fa
}

// AssertMinFileCount counts regular files directly inside rel.
func (fa *FileAssertions) AssertMinFileCount(rel string, minCount int) *FileAssertions {
	fa.t.Helper()
	entries, err := os.ReadDir(fa.path(rel))
	if !assert.NoError(fa.t, err) {
		return fa
	}
	n := 0
	for _, e := range entries {
		if e.Type().IsRegular() {
			n++
		}
	}
	assert.GreaterOrEqualf(fa.t, n, minCount, "files in %s", rel)
	return fa
}

func (fa *FileAssertions) read(rel string) (string, bool) {
	fa.t.Helper()
	// #nosec G304 -- test paths
	b, err := os.ReadFile(fa.path(rel))
	if !assert.NoError(fa.t, err) {
		return "", false
	}
	return string(b), true
}
