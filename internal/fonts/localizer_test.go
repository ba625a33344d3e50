package fonts

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hellsecdev/hellsec.dev/internal/config"
	"github.com/hellsecdev/hellsec.dev/internal/fetch"
	"github.com/hellsecdev/hellsec.dev/internal/foundation/errors"
	"github.com/hellsecdev/hellsec.dev/internal/retry"
)

// fakeCDN serves a stylesheet at /css2 referencing two fonts on the same server.
type fakeCDN struct {
	srv        *httptest.Server
	mu         sync.Mutex
	hits       map[string]int
	sheetCode  int
	failFontOf string
}

func newFakeCDN(t *testing.T) *fakeCDN {
	t.Helper()
	c := &fakeCDN{hits: map[string]int{}, sheetCode: http.StatusOK}
	c.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c.mu.Lock()
		c.hits[r.URL.Path]++
		sheetCode := c.sheetCode
		failFont := c.failFontOf
		c.mu.Unlock()

		switch {
		case r.URL.Path == "/css2":
			if sheetCode != http.StatusOK {
				w.WriteHeader(sheetCode)
				return
			}
			w.Header().Set("Content-Type", "text/css")
			fmt.Fprintf(w, `@font-face {
  font-family: 'Inter';
  src: url(%[1]s/s/inter/v1/a.woff2) format('woff2');
}
@font-face {
  font-family: 'Mono';
  font-display: block;
  src: url("/s/mono/v2/b.woff2") format('woff2');
}
`, c.srv.URL)
		case strings.HasSuffix(r.URL.Path, ".woff2"):
			if failFont != "" && strings.HasSuffix(r.URL.Path, failFont) {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			_, _ = w.Write([]byte("font:" + r.URL.Path))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(c.srv.Close)
	return c
}

func (c *fakeCDN) host() string {
	return strings.TrimPrefix(c.srv.URL, "http://")
}

func (c *fakeCDN) count(p string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits[p]
}

func testFontsConfig(c *fakeCDN) config.FontsConfig {
	cfg := config.Default().Fonts
	host := strings.Split(c.host(), ":")[0]
	cfg.StylesheetHosts = []string{host}
	cfg.PreconnectHosts = []string{host, "fonts.gstatic.com"}
	return cfg
}

// httpFetcher lets the tests hit the plain-http test server.
func httpFetcher(cfg config.FontsConfig) *fetch.Client {
	return fetch.NewClient(cfg, fetch.WithPolicy(retry.NewPolicy(config.RetryBackoffFixed, time.Millisecond, time.Millisecond, 0)))
}

func writeDoc(t *testing.T, root, rel, content string) {
	t.Helper()
	p := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o750))
	require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
}

func readDoc(t *testing.T, root, rel string) string {
	t.Helper()
	b, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(rel)))
	require.NoError(t, err)
	return string(b)
}

func pageWithFonts(sheetURL string) string {
	return `<html><head><link rel="preconnect" href="https://fonts.gstatic.com" crossorigin>` +
		`<link href="` + sheetURL + `" rel="stylesheet"><title>x</title></head><body></body></html>`
}

func TestLocalizerRun(t *testing.T) {
	cdn := newFakeCDN(t)
	cfg := testFontsConfig(cdn)
	out := t.TempDir()
	cache := t.TempDir()
	sheetURL := cdn.srv.URL + "/css2?family=Inter"

	writeDoc(t, out, "index.html", pageWithFonts(sheetURL))
	writeDoc(t, out, "blog/post.html", pageWithFonts(sheetURL))
	writeDoc(t, out, "plain.html", `<html><head><link rel="stylesheet" href="/style.css"></head></html>`)

	res, err := NewLocalizer(cfg, out, cache, httpFetcher(cfg)).Run(context.Background())
	require.NoError(t, err)
	require.True(t, res.Localized)
	assert.Equal(t, sheetURL, res.StylesheetURL)
	assert.Equal(t, "assets/fonts/fonts.css", res.Stylesheet)
	require.Len(t, res.Fonts, 2)
	assert.Empty(t, res.Failed)
	assert.Equal(t, []string{"blog/post.html", "index.html"}, res.RewrittenHTML)

	assert.Equal(t, "font:/s/inter/v1/a.woff2", readDoc(t, out, "assets/fonts/a.woff2"))
	assert.Equal(t, "font:/s/mono/v2/b.woff2", readDoc(t, out, "assets/fonts/b.woff2"))
	assert.FileExists(t, filepath.Join(cache, "a.woff2"))

	sheet := readDoc(t, out, "assets/fonts/fonts.css")
	assert.Contains(t, sheet, "url(/assets/fonts/a.woff2)")
	assert.Contains(t, sheet, "url(/assets/fonts/b.woff2)")
	assert.NotContains(t, sheet, cdn.srv.URL)
	assert.Equal(t, 1, strings.Count(sheet, "font-display: swap;"))
	assert.Contains(t, sheet, "font-display: block;")

	index := readDoc(t, out, "index.html")
	assert.Contains(t, index, `<link rel="preload" as="font" type="font/woff2" href="/assets/fonts/a.woff2" crossorigin>`+
		`<link rel="preload" as="font" type="font/woff2" href="/assets/fonts/b.woff2" crossorigin>`+
		`<link rel="stylesheet" href="/assets/fonts/fonts.css">`)
	assert.NotContains(t, index, "fonts.gstatic.com")
	assert.NotContains(t, index, cdn.srv.URL)

	assert.Equal(t, `<html><head><link rel="stylesheet" href="/style.css"></head></html>`, readDoc(t, out, "plain.html"))
}

func TestLocalizerReusesExistingFonts(t *testing.T) {
	cdn := newFakeCDN(t)
	cfg := testFontsConfig(cdn)
	cache := t.TempDir()
	sheetURL := cdn.srv.URL + "/css2"

	first := t.TempDir()
	writeDoc(t, first, "index.html", pageWithFonts(sheetURL))
	_, err := NewLocalizer(cfg, first, cache, httpFetcher(cfg)).Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, cdn.count("/s/inter/v1/a.woff2"))

	// A fresh output tree is filled from the cache without downloading.
	second := t.TempDir()
	writeDoc(t, second, "index.html", pageWithFonts(sheetURL))
	res, err := NewLocalizer(cfg, second, cache, httpFetcher(cfg)).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, cdn.count("/s/inter/v1/a.woff2"))
	assert.Equal(t, 1, cdn.count("/s/mono/v2/b.woff2"))
	for _, f := range res.Fonts {
		assert.True(t, f.Reused, f.FileName)
	}
	assert.FileExists(t, filepath.Join(second, "assets", "fonts", "a.woff2"))
}

func TestLocalizerStylesheetFailureLeavesHTML(t *testing.T) {
	cdn := newFakeCDN(t)
	cdn.sheetCode = http.StatusInternalServerError
	cfg := testFontsConfig(cdn)
	out := t.TempDir()
	page := pageWithFonts(cdn.srv.URL + "/css2")
	writeDoc(t, out, "index.html", page)

	res, err := NewLocalizer(cfg, out, "", httpFetcher(cfg)).Run(context.Background())
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryNetwork))
	assert.False(t, res.Localized)
	assert.Equal(t, page, readDoc(t, out, "index.html"))
	assert.NoFileExists(t, filepath.Join(out, "assets", "fonts", "fonts.css"))
}

func TestLocalizerFailedFontStillMapped(t *testing.T) {
	cdn := newFakeCDN(t)
	cdn.failFontOf = "b.woff2"
	cfg := testFontsConfig(cdn)
	out := t.TempDir()
	writeDoc(t, out, "index.html", pageWithFonts(cdn.srv.URL+"/css2"))

	res, err := NewLocalizer(cfg, out, "", httpFetcher(cfg)).Run(context.Background())
	require.NoError(t, err)
	assert.True(t, res.Localized)
	assert.Equal(t, []string{cdn.srv.URL + "/s/mono/v2/b.woff2"}, res.Failed)
	assert.NoFileExists(t, filepath.Join(out, "assets", "fonts", "b.woff2"))
	assert.Contains(t, readDoc(t, out, "assets/fonts/fonts.css"), "url(/assets/fonts/b.woff2)")
}

func TestLocalizerNoOps(t *testing.T) {
	cdn := newFakeCDN(t)
	cfg := testFontsConfig(cdn)

	t.Run("missing entry", func(t *testing.T) {
		out := t.TempDir()
		res, err := NewLocalizer(cfg, out, "", httpFetcher(cfg)).Run(context.Background())
		require.NoError(t, err)
		assert.False(t, res.Localized)
	})

	t.Run("no font link", func(t *testing.T) {
		out := t.TempDir()
		page := `<html><head><link rel="preconnect" href="` + cdn.srv.URL + `"></head></html>`
		writeDoc(t, out, "index.html", page)
		res, err := NewLocalizer(cfg, out, "", httpFetcher(cfg)).Run(context.Background())
		require.NoError(t, err)
		assert.False(t, res.Localized)
		assert.Equal(t, page, readDoc(t, out, "index.html"))
		assert.Zero(t, cdn.count("/css2"))
	})

	t.Run("stylesheet without fonts", func(t *testing.T) {
		out := t.TempDir()
		page := pageWithFonts(cdn.srv.URL + "/empty")
		writeDoc(t, out, "index.html", page)
		stub := stubFetcher{cdn.srv.URL + "/empty": []byte("body{color:red}")}
		res, err := NewLocalizer(cfg, out, "", stub).Run(context.Background())
		require.NoError(t, err)
		assert.False(t, res.Localized)
		assert.Equal(t, page, readDoc(t, out, "index.html"))
	})
}

type stubFetcher map[string][]byte

func (s stubFetcher) Get(_ context.Context, url string) ([]byte, error) {
	if b, ok := s[url]; ok {
		return b, nil
	}
	return nil, fmt.Errorf("no stub for %s", url)
}

func TestFontMIME(t *testing.T) {
	assert.Equal(t, "font/woff2", fontMIME("a.WOFF2"))
	assert.Equal(t, "font/woff", fontMIME("a.woff"))
	assert.Equal(t, "font/ttf", fontMIME("a.ttf"))
	assert.Equal(t, "font/otf", fontMIME("a.otf"))
	assert.Equal(t, "application/vnd.ms-fontobject", fontMIME("a.eot"))
}
