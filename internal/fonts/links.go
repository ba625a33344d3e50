package fonts

import (
	"bytes"
	"net/url"
	"sort"
	"strings"

	"golang.org/x/net/html"
)

// linkTag is a <link> element located by byte offsets in the source document.
type linkTag struct {
	start, end int
	rel        []string
	href       string
}

func (l linkTag) hasRel(token string) bool {
	for _, r := range l.rel {
		if r == token {
			return true
		}
	}
	return false
}

// host returns the lower-cased host of href; protocol-relative hrefs resolve as https.
func (l linkTag) host() string {
	href := l.href
	if strings.HasPrefix(href, "//") {
		href = "https:" + href
	}
	u, err := url.Parse(href)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Hostname())
}

// absHref returns href with protocol-relative URLs resolved as https.
func (l linkTag) absHref() string {
	if strings.HasPrefix(l.href, "//") {
		return "https:" + l.href
	}
	return l.href
}

// scanLinks returns every <link> start tag in src with its byte span.
func scanLinks(src []byte) []linkTag {
	var links []linkTag
	z := html.NewTokenizer(bytes.NewReader(src))
	pos := 0
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			return links
		}
		start := pos
		pos += len(z.Raw())
		if tt != html.StartTagToken && tt != html.SelfClosingTagToken {
			continue
		}
		name, more := z.TagName()
		if string(name) != "link" {
			continue
		}
		lt := linkTag{start: start, end: pos}
		for more {
			var k, v []byte
			k, v, more = z.TagAttr()
			switch string(k) {
			case "rel":
				if lt.rel == nil {
					lt.rel = strings.Fields(strings.ToLower(string(v)))
				}
			case "href":
				if lt.href == "" {
					lt.href = strings.TrimSpace(string(v))
				}
			}
		}
		links = append(links, lt)
	}
}

// hostSet matches link hosts case-insensitively.
type hostSet map[string]struct{}

func newHostSet(hosts []string) hostSet {
	s := make(hostSet, len(hosts))
	for _, h := range hosts {
		s[strings.ToLower(strings.TrimSpace(h))] = struct{}{}
	}
	return s
}

func (s hostSet) has(host string) bool {
	_, ok := s[host]
	return ok
}

// isFontStylesheet reports whether l loads a stylesheet from one of hosts.
// A preconnect-only link to the same host does not match.
func isFontStylesheet(l linkTag, hosts hostSet) bool {
	return l.hasRel("stylesheet") && hosts.has(l.host())
}

func isFontHint(l linkTag, hosts hostSet) bool {
	return (l.hasRel("preconnect") || l.hasRel("dns-prefetch")) && hosts.has(l.host())
}

// findFontStylesheet returns the first font stylesheet link in src.
func findFontStylesheet(src []byte, hosts hostSet) (linkTag, bool) {
	for _, l := range scanLinks(src) {
		if isFontStylesheet(l, hosts) {
			return l, true
		}
	}
	return linkTag{}, false
}

type edit struct {
	start, end int
	text       string
}

// rewriteDocument replaces the first font stylesheet link with replacement,
// removes any further ones and, when something was replaced, strips resource
// hints pointing at hintHosts. It reports whether src changed.
func rewriteDocument(src []byte, sheetHosts, hintHosts hostSet, replacement string) ([]byte, bool) {
	links := scanLinks(src)
	var edits []edit
	replaced := false
	for _, l := range links {
		if !isFontStylesheet(l, sheetHosts) {
			continue
		}
		text := ""
		if !replaced {
			text = replacement
			replaced = true
		}
		edits = append(edits, edit{start: l.start, end: l.end, text: text})
	}
	if !replaced {
		return src, false
	}
	for _, l := range links {
		if isFontHint(l, hintHosts) && !isFontStylesheet(l, sheetHosts) {
			edits = append(edits, edit{start: l.start, end: l.end})
		}
	}
	sort.Slice(edits, func(i, j int) bool { return edits[i].start < edits[j].start })

	var out bytes.Buffer
	out.Grow(len(src) + len(replacement))
	last := 0
	for _, e := range edits {
		out.Write(src[last:e.start])
		out.WriteString(e.text)
		last = e.end
	}
	out.Write(src[last:])
	return out.Bytes(), true
}
