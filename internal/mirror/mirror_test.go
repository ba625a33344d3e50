package mirror

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hellsecdev/hellsec.dev/internal/foundation/errors"
	"github.com/hellsecdev/hellsec.dev/internal/sitefs"
)

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		p := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o750))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
	}
}

func TestCopy_SkipsIgnoredNamesAtEveryLevel(t *testing.T) {
	src := t.TempDir()
	writeTree(t, src, map[string]string{
		"index.html":                    "<h1>hi</h1>",
		"style.css":                     "body{}",
		"node_modules/pkg/index.js":     "x",
		".git/HEAD":                     "ref",
		"blog/post.html":                "post",
		"blog/node_modules/dep/file.js": "nested",
		"blog/.idea/workspace.xml":      "ide",
	})
	dst := filepath.Join(t.TempDir(), "dist")

	stats, err := Copy(src, dst, Options{Ignore: []string{"node_modules", ".git", ".idea"}})
	require.NoError(t, err)

	files, err := sitefs.Files(dst)
	require.NoError(t, err)
	assert.Equal(t, []string{"blog/post.html", "index.html", "style.css"}, files)
	assert.Equal(t, 3, stats.Files)
	assert.Equal(t, 4, stats.Skipped)

	data, err := os.ReadFile(filepath.Join(dst, "blog", "post.html"))
	require.NoError(t, err)
	assert.Equal(t, "post", string(data))
}

func TestCopy_SkipsGlobIgnores(t *testing.T) {
	src := t.TempDir()
	writeTree(t, src, map[string]string{
		"index.html":      "a",
		".env":            "TOKEN=1",
		".env.local":      "TOKEN=2",
		"app/.env.test":   "TOKEN=3",
		".htaccess":       "Options -Indexes",
		"environment.txt": "kept",
	})
	dst := filepath.Join(t.TempDir(), "dist")

	_, err := Copy(src, dst, Options{Ignore: []string{".env", ".env.*"}})
	require.NoError(t, err)

	files, err := sitefs.Files(dst)
	require.NoError(t, err)
	assert.Equal(t, []string{".htaccess", "environment.txt", "index.html"}, files)
}

func TestMatcher(t *testing.T) {
	m := NewMatcher([]string{"node_modules", ".env.*", "*.bak", ""})
	assert.True(t, m.Match("node_modules"))
	assert.True(t, m.Match(".env.local"))
	assert.True(t, m.Match("index.html.bak"))
	assert.False(t, m.Match(".env"))
	assert.False(t, m.Match("node_modules2"))
	assert.False(t, m.Match(""))
}

func TestCopy_ExcludesOutputInsideSource(t *testing.T) {
	src := t.TempDir()
	writeTree(t, src, map[string]string{"index.html": "a", "public/old.html": "stale"})
	dst := filepath.Join(src, "public")

	_, err := Copy(src, dst, Options{Exclude: []string{dst}})
	require.NoError(t, err)

	files, err := sitefs.Files(dst)
	require.NoError(t, err)
	assert.Contains(t, files, "index.html")
	assert.NotContains(t, files, "public/old.html")
}

func TestCopy_PreservesMode(t *testing.T) {
	src := t.TempDir()
	writeTree(t, src, map[string]string{"run.sh": "#!/bin/sh"})
	require.NoError(t, os.Chmod(filepath.Join(src, "run.sh"), 0o750))
	dst := t.TempDir()

	_, err := Copy(src, dst, Options{})
	require.NoError(t, err)

	st, err := os.Stat(filepath.Join(dst, "run.sh"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o750), st.Mode().Perm())
}

func TestCopy_SkipsSymlinks(t *testing.T) {
	src := t.TempDir()
	writeTree(t, src, map[string]string{"real.txt": "x"})
	if err := os.Symlink(filepath.Join(src, "real.txt"), filepath.Join(src, "alias.txt")); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}
	dst := t.TempDir()

	stats, err := Copy(src, dst, Options{})
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Files)
	assert.Equal(t, 1, stats.Skipped)
	_, err = os.Lstat(filepath.Join(dst, "alias.txt"))
	assert.True(t, os.IsNotExist(err))
}

func TestCopy_MissingSourceIsFilesystemError(t *testing.T) {
	_, err := Copy(filepath.Join(t.TempDir(), "absent"), t.TempDir(), Options{})
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryFileSystem))
}

func TestClean_RemovesPreviousContent(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, map[string]string{"stale/file.txt": "old"})

	require.NoError(t, Clean(dir))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
