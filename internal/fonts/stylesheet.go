package fonts

import (
	"bytes"
	"io"
	"net/url"
	"path"
	"regexp"
	"strings"

	"github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"
)

var (
	fontFaceBlock = regexp.MustCompile(`@font-face\s*\{[^}]*\}`)
	fontDisplay   = regexp.MustCompile(`(?i)font-display\s*:`)
)

// urlTokenValue returns the address inside a url() token.
func urlTokenValue(tok []byte) string {
	s := string(tok)
	if len(s) >= 4 && strings.EqualFold(s[:4], "url(") {
		s = s[4:]
	}
	s = strings.TrimSuffix(s, ")")
	s = strings.TrimSpace(s)
	if len(s) >= 2 && (s[0] == '"' || s[0] == '\'') && s[len(s)-1] == s[0] {
		s = s[1 : len(s)-1]
	}
	return s
}

// resolveURL resolves ref against base; protocol-relative refs become https.
func resolveURL(base *url.URL, ref string) (*url.URL, bool) {
	if strings.HasPrefix(ref, "//") {
		ref = "https:" + ref
	}
	u, err := url.Parse(ref)
	if err != nil {
		return nil, false
	}
	if base != nil {
		u = base.ResolveReference(u)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, false
	}
	return u, true
}

func hasFontExtension(u *url.URL, exts []string) bool {
	ext := strings.ToLower(path.Ext(u.Path))
	for _, e := range exts {
		if ext == e {
			return true
		}
	}
	return false
}

// fontURLs scans stylesheet url() references for font binaries and returns
// their absolute URLs, deduplicated in discovery order.
func fontURLs(sheet []byte, base *url.URL, exts []string) []string {
	seen := make(map[string]struct{})
	var out []string
	l := css.NewLexer(parse.NewInputBytes(sheet))
	for {
		tt, data := l.Next()
		if tt == css.ErrorToken {
			return out
		}
		if tt != css.URLToken {
			continue
		}
		u, ok := resolveURL(base, urlTokenValue(data))
		if !ok || !hasFontExtension(u, exts) {
			continue
		}
		abs := u.String()
		if _, dup := seen[abs]; dup {
			continue
		}
		seen[abs] = struct{}{}
		out = append(out, abs)
	}
}

// rewriteStylesheet replaces every font url() whose absolute form is in
// mapping with the local href, then makes every @font-face block declare
// font-display.
func rewriteStylesheet(sheet []byte, base *url.URL, mapping map[string]string) ([]byte, error) {
	var out bytes.Buffer
	out.Grow(len(sheet))
	l := css.NewLexer(parse.NewInputBytes(sheet))
	for {
		tt, data := l.Next()
		if tt == css.ErrorToken {
			if err := l.Err(); err != nil && err != io.EOF {
				return nil, err
			}
			break
		}
		if tt == css.URLToken {
			if u, ok := resolveURL(base, urlTokenValue(data)); ok {
				if local, found := mapping[u.String()]; found {
					out.WriteString("url(")
					out.WriteString(local)
					out.WriteString(")")
					continue
				}
			}
		}
		out.Write(data)
	}
	return ensureFontDisplay(out.Bytes()), nil
}

// ensureFontDisplay injects font-display: swap into @font-face blocks that
// do not declare font-display. Blocks that already declare it are untouched.
func ensureFontDisplay(sheet []byte) []byte {
	return fontFaceBlock.ReplaceAllFunc(sheet, func(block []byte) []byte {
		if fontDisplay.Match(block) {
			return block
		}
		body := block[:len(block)-1]
		trimmed := bytes.TrimRight(body, " \t\r\n")
		tail := body[len(trimmed):]

		var b bytes.Buffer
		b.Grow(len(block) + 24)
		b.Write(trimmed)
		if !bytes.HasSuffix(trimmed, []byte(";")) && !bytes.HasSuffix(trimmed, []byte("{")) {
			b.WriteByte(';')
		}
		b.WriteString("\n  font-display: swap;")
		b.Write(tail)
		b.WriteByte('}')
		return b.Bytes()
	})
}
