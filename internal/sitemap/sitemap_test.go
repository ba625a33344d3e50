package sitemap

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStamp(t *testing.T) {
	p := filepath.Join(t.TempDir(), "sitemap.xml")
	in := `<?xml version="1.0" encoding="UTF-8"?>
<urlset>
  <url><loc>https://example.com/</loc><lastmod>2020-01-01</lastmod></url>
  <url><loc>https://example.com/a</loc><lastmod>2019-05-05T10:00:00Z</lastmod><priority>0.5</priority></url>
  <url><loc>https://example.com/b</loc><lastmod></lastmod></url>
</urlset>
`
	require.NoError(t, os.WriteFile(p, []byte(in), 0o600))

	// 23:30 in UTC-5 is already the next day in UTC.
	now := time.Date(2024, 3, 9, 23, 30, 0, 0, time.FixedZone("EST", -5*3600))
	res, err := Stamp(p, now)
	require.NoError(t, err)
	assert.True(t, res.Found)
	assert.Equal(t, 3, res.Replaced)
	assert.Equal(t, "2024-03-10", res.Date)

	out, err := os.ReadFile(p)
	require.NoError(t, err)
	got := string(out)
	assert.Equal(t, 3, strings.Count(got, "<lastmod>2024-03-10</lastmod>"))
	assert.Equal(t, 3, strings.Count(got, "<lastmod>"))

	want := `<?xml version="1.0" encoding="UTF-8"?>
<urlset>
  <url><loc>https://example.com/</loc><lastmod>2024-03-10</lastmod></url>
  <url><loc>https://example.com/a</loc><lastmod>2024-03-10</lastmod><priority>0.5</priority></url>
  <url><loc>https://example.com/b</loc><lastmod>2024-03-10</lastmod></url>
</urlset>
`
	assert.Equal(t, want, got)
}

func TestStampSkipsMultilineElement(t *testing.T) {
	p := filepath.Join(t.TempDir(), "sitemap.xml")
	in := "<url><lastmod>\n2019-01-01\n</lastmod></url>"
	require.NoError(t, os.WriteFile(p, []byte(in), 0o600))

	res, err := Stamp(p, time.Now())
	require.NoError(t, err)
	assert.Zero(t, res.Replaced)
}

func TestStampMissingFile(t *testing.T) {
	res, err := Stamp(filepath.Join(t.TempDir(), "sitemap.xml"), time.Now())
	require.NoError(t, err)
	assert.False(t, res.Found)
}

func TestStampWithoutLastmodLeavesFile(t *testing.T) {
	p := filepath.Join(t.TempDir(), "sitemap.xml")
	in := "<urlset><url><loc>/</loc></url></urlset>"
	require.NoError(t, os.WriteFile(p, []byte(in), 0o600))

	res, err := Stamp(p, time.Now())
	require.NoError(t, err)
	assert.True(t, res.Found)
	assert.Zero(t, res.Replaced)

	out, err := os.ReadFile(p)
	require.NoError(t, err)
	assert.Equal(t, in, string(out))
}
