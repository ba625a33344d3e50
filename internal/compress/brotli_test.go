package compress

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/andybalholm/brotli"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBrotli(t *testing.T) {
	root := t.TempDir()
	page := strings.Repeat("<p>hello brotli</p>\n", 200)
	require.NoError(t, os.WriteFile(filepath.Join(root, "index.html"), []byte(page), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(root, "tiny.css"), []byte("a{}"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(root, "logo.png"), []byte(page), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(root, "tiny.css.br"), []byte("stale"), 0o600))

	st, err := Brotli(context.Background(), root, []string{".html", ".CSS"})
	require.NoError(t, err)
	assert.Equal(t, 1, st.Compressed)
	assert.Equal(t, 1, st.Skipped)
	assert.Less(t, st.BytesOut, st.BytesIn)

	packed, err := os.ReadFile(filepath.Join(root, "index.html.br"))
	require.NoError(t, err)
	plain, err := io.ReadAll(brotli.NewReader(bytes.NewReader(packed)))
	require.NoError(t, err)
	assert.Equal(t, page, string(plain))

	assert.NoFileExists(t, filepath.Join(root, "tiny.css.br"))
	assert.NoFileExists(t, filepath.Join(root, "logo.png.br"))
}

func TestBrotliCanceled(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "index.html"), []byte("x"), 0o600))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Brotli(ctx, root, []string{".html"})
	assert.ErrorIs(t, err, context.Canceled)
}
