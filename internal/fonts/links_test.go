package fonts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var googleHosts = newHostSet([]string{"fonts.googleapis.com"})

func TestFindFontStylesheet(t *testing.T) {
	src := []byte(`<head>
<link rel="preconnect" href="https://fonts.googleapis.com">
<link rel="stylesheet" href="/local.css">
<link REL="Stylesheet" href="//FONTS.googleapis.com/css2?family=A">
<link rel="stylesheet" href="https://fonts.googleapis.com/css2?family=B">
</head>`)

	l, ok := findFontStylesheet(src, googleHosts)
	require.True(t, ok)
	assert.Equal(t, "https://FONTS.googleapis.com/css2?family=A", l.absHref())
	assert.Equal(t, `<link REL="Stylesheet" href="//FONTS.googleapis.com/css2?family=A">`, string(src[l.start:l.end]))

	_, ok = findFontStylesheet([]byte(`<link rel="preconnect" href="https://fonts.googleapis.com">`), googleHosts)
	assert.False(t, ok)
}

func TestRewriteDocument(t *testing.T) {
	hints := newHostSet([]string{"fonts.googleapis.com", "fonts.gstatic.com"})
	src := []byte(`<head><link rel="preconnect" href="https://fonts.gstatic.com" crossorigin>` +
		`<link rel="dns-prefetch" href="//fonts.googleapis.com">` +
		`<link href="https://fonts.googleapis.com/css2?family=A" rel="stylesheet">` +
		`<link rel="preconnect" href="https://cdn.example.com">` +
		`<link href="https://fonts.googleapis.com/css2?family=B" rel="stylesheet"/></head>`)

	out, changed := rewriteDocument(src, googleHosts, hints, `<link rel="stylesheet" href="/assets/fonts/fonts.css">`)
	require.True(t, changed)
	assert.Equal(t, `<head><link rel="stylesheet" href="/assets/fonts/fonts.css">`+
		`<link rel="preconnect" href="https://cdn.example.com"></head>`, string(out))
}

func TestRewriteDocumentKeepsHintsWithoutStylesheet(t *testing.T) {
	hints := newHostSet([]string{"fonts.gstatic.com"})
	src := []byte(`<head><link rel="preconnect" href="https://fonts.gstatic.com"></head>`)

	out, changed := rewriteDocument(src, googleHosts, hints, "x")
	assert.False(t, changed)
	assert.Equal(t, string(src), string(out))
}
