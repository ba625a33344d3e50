package manifest

import (
	"os"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hellsecdev/hellsec.dev/internal/foundation/errors"
)

func writeTree(t *testing.T, root string, files ...string) {
	t.Helper()
	for _, f := range files {
		p := filepath.Join(root, filepath.FromSlash(f))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o750))
		require.NoError(t, os.WriteFile(p, []byte(f), 0o600))
	}
}

func TestBuild(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root,
		"index.html", "sw.js", "style.css", "scripts.js",
		"assets/fonts/a.woff2", "assets/fonts/fonts.css",
		"blog/post/index.html", ".well-known/security.txt",
		".htaccess", ".env",
	)

	got, err := Build(root, "/sw.js")
	require.NoError(t, err)

	want := []string{
		"/",
		"/assets/fonts/a.woff2",
		"/assets/fonts/fonts.css",
		"/blog/post/index.html",
		"/index.html",
		"/scripts.js",
		"/style.css",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("manifest mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildEmptyTree(t *testing.T) {
	got, err := Build(t.TempDir(), "/sw.js")
	require.NoError(t, err)
	assert.Equal(t, []string{"/"}, got)
}

func TestBuildMissingTree(t *testing.T) {
	_, err := Build(filepath.Join(t.TempDir(), "nope"), "/sw.js")
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryFileSystem))
}

func TestCacheName(t *testing.T) {
	ts := time.Date(2024, 12, 31, 23, 59, 59, 0, time.FixedZone("CET", 3600))
	name := CacheName("pumalabs-static", "1.4.0", ts)
	assert.Equal(t, "pumalabs-static-1.4.0-202412312259", name)
	assert.Regexp(t, regexp.MustCompile(`^pumalabs-static-1\.4\.0-\d{12}$`), name)

	sameMinute := CacheName("pumalabs-static", "1.4.0", ts.Add(-30*time.Second))
	assert.Equal(t, name, sameMinute)
	assert.NotEqual(t, name, CacheName("pumalabs-static", "1.4.0", ts.Add(time.Minute)))
}

func TestReadVersion(t *testing.T) {
	dir := t.TempDir()

	v, err := ReadVersion(filepath.Join(dir, "package.json"))
	require.NoError(t, err)
	assert.Equal(t, DefaultVersion, v)

	p := filepath.Join(dir, "package.json")
	require.NoError(t, os.WriteFile(p, []byte(`{"name":"site","version":"2.3.1"}`), 0o600))
	v, err = ReadVersion(p)
	require.NoError(t, err)
	assert.Equal(t, "2.3.1", v)

	require.NoError(t, os.WriteFile(p, []byte(`{"name":"site"}`), 0o600))
	v, err = ReadVersion(p)
	require.NoError(t, err)
	assert.Equal(t, DefaultVersion, v)

	require.NoError(t, os.WriteFile(p, []byte(`{`), 0o600))
	_, err = ReadVersion(p)
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryConfig))
}

func TestManifestJSONAndHash(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, "index.html", "sw.js")
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	m, err := New(root, "/sw.js", "p", "1.0.0", now)
	require.NoError(t, err)
	assert.Equal(t, "p-1.0.0-202401011200", m.CacheName)

	data, err := m.ToJSON()
	require.NoError(t, err)
	restored, err := FromJSON(data)
	require.NoError(t, err)
	if diff := cmp.Diff(m, restored); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}

	later, err := New(root, "/sw.js", "p", "1.0.1", now.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, m.Hash(), later.Hash())

	writeTree(t, root, "new.html")
	changed, err := New(root, "/sw.js", "p", "1.0.0", now)
	require.NoError(t, err)
	assert.NotEqual(t, m.Hash(), changed.Hash())
}

func TestFromJSONInvalid(t *testing.T) {
	_, err := FromJSON([]byte("not json"))
	assert.Error(t, err)
}
