package minify

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	tdminify "github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/css"
	"golang.org/x/net/html"

	"github.com/hellsecdev/hellsec.dev/internal/foundation/errors"
)

// HTMLOptions toggles the optional HTML rewrites.
type HTMLOptions struct {
	RemoveEmptyAttributes bool
	SortAttributes        bool
	SortClassNames        bool
}

// HTMLMinifier rewrites HTML documents token by token. Embedded stylesheets
// and style attributes go through the CSS minifier; script bodies are never
// touched so JSON-LD blocks survive verbatim.
type HTMLMinifier struct {
	opts HTMLOptions
	css  *tdminify.M
}

// NewHTMLMinifier returns a minifier configured with opts.
func NewHTMLMinifier(opts HTMLOptions) *HTMLMinifier {
	m := tdminify.New()
	m.AddFunc("text/css", css.Minify)
	return &HTMLMinifier{opts: opts, css: m}
}

// Elements whose content the tokenizer returns as one raw text token.
var rawTextElements = map[string]bool{
	"script": true, "style": true, "textarea": true, "title": true,
	"noscript": true, "iframe": true, "xmp": true, "noembed": true,
	"noframes": true, "plaintext": true,
}

// Whitespace next to these elements does not render.
var blockElements = map[string]bool{
	"html": true, "head": true, "body": true, "meta": true, "link": true,
	"title": true, "base": true, "address": true, "article": true,
	"aside": true, "blockquote": true, "details": true, "dialog": true,
	"dd": true, "div": true, "dl": true, "dt": true, "fieldset": true,
	"figcaption": true, "figure": true, "footer": true, "form": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"header": true, "hgroup": true, "hr": true, "li": true, "main": true,
	"nav": true, "ol": true, "p": true, "pre": true, "section": true,
	"summary": true, "table": true, "caption": true, "colgroup": true,
	"col": true, "thead": true, "tbody": true, "tfoot": true, "tr": true,
	"td": true, "th": true, "ul": true, "option": true, "optgroup": true,
	"source": true, "track": true, "legend": true,
}

// Attributes that may be dropped when empty without changing behavior.
var removableEmptyAttrs = map[string]bool{
	"class": true, "id": true, "style": true, "title": true, "lang": true, "dir": true,
}

// Minify returns the minified form of src.
func (m *HTMLMinifier) Minify(src []byte) ([]byte, error) {
	w := &htmlWriter{m: m, prevBlock: true}
	w.out.Grow(len(src))

	z := html.NewTokenizer(bytes.NewReader(src))
	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			if err := z.Err(); err != io.EOF {
				return nil, fmt.Errorf("tokenize html: %w", err)
			}
			w.flush(true)
			return w.out.Bytes(), nil

		case html.TextToken:
			raw := z.Raw()
			if w.rawTag != "" {
				w.writeRawText(raw)
				continue
			}
			w.pending = append(w.pending, raw...)

		case html.CommentToken:
			raw := z.Raw()
			if !keepComment(raw) {
				continue
			}
			w.flush(false)
			w.out.Write(raw)
			w.prevBlock = false

		case html.DoctypeToken:
			w.flush(true)
			w.out.Write(z.Raw())
			w.prevBlock = true

		case html.StartTagToken, html.SelfClosingTagToken:
			name, attrs := readTag(z)
			w.flush(blockElements[name])
			w.writeStartTag(name, attrs, tt == html.SelfClosingTagToken)
			w.afterTag(name, true, tt == html.SelfClosingTagToken)

		case html.EndTagToken:
			name, _ := z.TagName()
			tag := string(name)
			w.flush(blockElements[tag])
			w.out.WriteString("</")
			w.out.WriteString(tag)
			w.out.WriteByte('>')
			w.afterTag(tag, false, false)
		}
	}
}

// MinifyFile rewrites the file at path in place and returns the sizes before and after.
func (m *HTMLMinifier) MinifyFile(path string) (before, after int, err error) {
	// #nosec G304 -- path comes from walking the output tree
	src, err := os.ReadFile(path)
	if err != nil {
		return 0, 0, errors.WrapError(err, errors.CategoryFileSystem, "failed to read html").
			WithContext("path", path).Build()
	}
	out, err := m.Minify(src)
	if err != nil {
		return 0, 0, errors.WrapError(err, errors.CategoryMinify, "failed to minify html").
			WithContext("path", path).Build()
	}
	st, err := os.Stat(path)
	if err != nil {
		return 0, 0, errors.WrapError(err, errors.CategoryFileSystem, "failed to stat html").
			WithContext("path", path).Build()
	}
	if err := os.WriteFile(path, out, st.Mode().Perm()); err != nil {
		return 0, 0, errors.WrapError(err, errors.CategoryFileSystem, "failed to write html").
			WithContext("path", path).Build()
	}
	return len(src), len(out), nil
}

type attr struct {
	key, val string
}

func readTag(z *html.Tokenizer) (string, []attr) {
	name, more := z.TagName()
	var attrs []attr
	for more {
		var k, v []byte
		k, v, more = z.TagAttr()
		attrs = append(attrs, attr{key: string(k), val: string(v)})
	}
	return string(name), attrs
}

func keepComment(raw []byte) bool {
	return bytes.HasPrefix(raw, []byte("<!--!")) || bytes.HasPrefix(raw, []byte("<!--[if"))
}

type htmlWriter struct {
	m         *HTMLMinifier
	out       bytes.Buffer
	pending   []byte
	prevBlock bool
	inHead    bool
	preDepth  int
	rawTag    string
}

func (w *htmlWriter) afterTag(name string, start, selfClosing bool) {
	w.prevBlock = blockElements[name]
	switch name {
	case "head":
		w.inHead = start && !selfClosing
	case "body":
		w.inHead = false
	case "pre":
		if start && !selfClosing {
			w.preDepth++
		} else if !start && w.preDepth > 0 {
			w.preDepth--
		}
	}
	switch {
	case start && rawTextElements[name]:
		// The tokenizer switches to raw text even after <script/>.
		w.rawTag = name
	case !start && name == w.rawTag:
		w.rawTag = ""
	}
}

// flush writes buffered text. nextBlock reports whether the upcoming token
// is a block boundary.
func (w *htmlWriter) flush(nextBlock bool) {
	if len(w.pending) == 0 {
		return
	}
	text := w.pending
	w.pending = w.pending[:0]

	if w.preDepth > 0 {
		w.out.Write(text)
		return
	}

	collapsed := collapseWhitespace(text)
	if w.inHead && isAllWhitespace(collapsed) {
		return
	}
	if w.prevBlock {
		collapsed = bytes.TrimLeft(collapsed, " ")
	}
	if nextBlock {
		collapsed = bytes.TrimRight(collapsed, " ")
	}
	w.out.Write(collapsed)
}

func (w *htmlWriter) writeRawText(raw []byte) {
	if w.rawTag == "style" {
		var buf bytes.Buffer
		if err := w.m.css.Minify("text/css", &buf, bytes.NewReader(raw)); err == nil {
			w.out.Write(buf.Bytes())
			return
		}
	}
	w.out.Write(raw)
}

func (w *htmlWriter) writeStartTag(name string, attrs []attr, selfClosing bool) {
	attrs = w.m.rewriteAttrs(name, attrs)
	w.out.WriteByte('<')
	w.out.WriteString(name)
	for _, a := range attrs {
		w.out.WriteByte(' ')
		w.out.WriteString(a.key)
		if a.val == "" {
			continue
		}
		w.out.WriteString(`="`)
		w.out.WriteString(escapeAttr(a.val))
		w.out.WriteByte('"')
	}
	if selfClosing {
		w.out.WriteByte('/')
	}
	w.out.WriteByte('>')
}

func (m *HTMLMinifier) rewriteAttrs(tag string, attrs []attr) []attr {
	seen := make(map[string]bool, len(attrs))
	out := make([]attr, 0, len(attrs))
	for _, a := range attrs {
		if seen[a.key] {
			continue
		}
		seen[a.key] = true

		if redundantAttr(tag, a, attrs) {
			continue
		}
		switch a.key {
		case "class":
			a.val = m.normalizeClass(a.val)
		case "style":
			a.val = m.minifyInlineStyle(a.val)
		}
		if m.opts.RemoveEmptyAttributes && a.val == "" && (removableEmptyAttrs[a.key] || strings.HasPrefix(a.key, "on")) {
			continue
		}
		out = append(out, a)
	}
	if m.opts.SortAttributes {
		sort.SliceStable(out, func(i, j int) bool { return out[i].key < out[j].key })
	}
	return out
}

func redundantAttr(tag string, a attr, all []attr) bool {
	val := strings.ToLower(strings.TrimSpace(a.val))
	switch {
	case tag == "script" && a.key == "type":
		return val == "text/javascript" || val == "application/javascript"
	case tag == "script" && a.key == "language":
		return true
	case tag == "style" && a.key == "type":
		return val == "text/css"
	case tag == "link" && a.key == "type":
		return val == "text/css" && relHas(all, "stylesheet")
	case tag == "form" && a.key == "method":
		return val == "get"
	case tag == "input" && a.key == "type":
		return val == "text"
	}
	return false
}

func relHas(attrs []attr, token string) bool {
	for _, a := range attrs {
		if a.key != "rel" {
			continue
		}
		for _, f := range strings.Fields(a.val) {
			if strings.EqualFold(f, token) {
				return true
			}
		}
		return false
	}
	return false
}

func (m *HTMLMinifier) normalizeClass(v string) string {
	fields := strings.Fields(v)
	if !m.opts.SortClassNames {
		return strings.Join(fields, " ")
	}
	sort.Strings(fields)
	uniq := fields[:0]
	for i, f := range fields {
		if i > 0 && f == fields[i-1] {
			continue
		}
		uniq = append(uniq, f)
	}
	return strings.Join(uniq, " ")
}

func (m *HTMLMinifier) minifyInlineStyle(v string) string {
	var buf bytes.Buffer
	err := m.css.MinifyMimetype([]byte("text/css"), &buf, strings.NewReader(v), map[string]string{"inline": "1"})
	if err != nil {
		return strings.TrimSpace(v)
	}
	return buf.String()
}

var attrEscaper = strings.NewReplacer(`&`, "&amp;", `"`, "&quot;")

func escapeAttr(v string) string {
	return attrEscaper.Replace(v)
}

func isHTMLSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r' || b == '\f'
}

func isAllWhitespace(b []byte) bool {
	for _, c := range b {
		if !isHTMLSpace(c) {
			return false
		}
	}
	return true
}

func collapseWhitespace(b []byte) []byte {
	out := make([]byte, 0, len(b))
	space := false
	for _, c := range b {
		if isHTMLSpace(c) {
			if !space {
				out = append(out, ' ')
				space = true
			}
			continue
		}
		space = false
		out = append(out, c)
	}
	return out
}
