package minify

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hellsecdev/hellsec.dev/internal/config"
	"github.com/hellsecdev/hellsec.dev/internal/foundation/errors"
)

const sampleScript = `// navigation glue
function toggleMenu(button) {
  const expanded = button.getAttribute('aria-expanded') === 'true';
  button.setAttribute('aria-expanded', String(!expanded));
  return !expanded;
}
document.querySelectorAll('.menu-toggle').forEach((b) => b.addEventListener('click', () => toggleMenu(b)));
`

const sampleStyle = `/* theme */
body {
  margin: 0px;
  color: #ffffff;
}

.hero  .title {
  font-weight: bold;
}
`

func TestAssets_MinifiesEntriesIndependently(t *testing.T) {
	src := t.TempDir()
	out := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(src, "scripts.js"), []byte(sampleScript), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(src, "style.css"), []byte(sampleStyle), 0o600))

	entries := config.Default().Minify.Entries
	results, err := Assets(src, out, entries, "es2018")
	require.NoError(t, err)
	require.Len(t, results, 2)

	for _, r := range results {
		assert.Less(t, r.After, r.Before, r.Source)
	}

	js, err := os.ReadFile(filepath.Join(out, "scripts.js"))
	require.NoError(t, err)
	assert.Contains(t, string(js), "aria-expanded")
	assert.NotContains(t, string(js), "navigation glue")

	css, err := os.ReadFile(filepath.Join(out, "style.css"))
	require.NoError(t, err)
	assert.Contains(t, string(css), ".hero .title")
	assert.NotContains(t, string(css), "theme")
}

func TestAssets_MissingEntriesAreSkipped(t *testing.T) {
	results, err := Assets(t.TempDir(), t.TempDir(), config.Default().Minify.Entries, "es2018")
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestAssets_CustomOutputPath(t *testing.T) {
	src := t.TempDir()
	out := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(src, "js"), 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(src, "js", "app.js"), []byte("var  a = 1 ;"), 0o600))

	entries := []config.AssetEntry{{Source: "js/app.js", Output: "js/app.min.js", Kind: config.AssetKindScript}}
	results, err := Assets(src, out, entries, "esnext")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "js/app.min.js", results[0].Output)
	assert.FileExists(t, filepath.Join(out, "js", "app.min.js"))
}

func TestAssets_SyntaxErrorIsMinifyError(t *testing.T) {
	src := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(src, "scripts.js"), []byte("function ( {"), 0o600))

	entries := []config.AssetEntry{{Source: "scripts.js", Kind: config.AssetKindScript}}
	_, err := Assets(src, t.TempDir(), entries, "es2018")
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryMinify))
	assert.Contains(t, err.Error(), "scripts.js")
}
