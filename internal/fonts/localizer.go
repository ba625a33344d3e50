// Package fonts vendors a third-party font stylesheet and its font binaries
// into the output tree and points every HTML document at the local copies.
package fonts

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/hellsecdev/hellsec.dev/internal/config"
	"github.com/hellsecdev/hellsec.dev/internal/foundation/errors"
	"github.com/hellsecdev/hellsec.dev/internal/logfields"
	"github.com/hellsecdev/hellsec.dev/internal/metrics"
	"github.com/hellsecdev/hellsec.dev/internal/sitefs"
)

// Fetcher retrieves a remote resource.
type Fetcher interface {
	Get(ctx context.Context, url string) ([]byte, error)
}

// FontAsset is one vendored font binary.
type FontAsset struct {
	RemoteURL string `json:"remote_url"`
	FileName  string `json:"file_name"`
	LocalHref string `json:"local_href"`
	// Reused is true when the file was already present locally and no download happened.
	Reused bool `json:"reused"`
}

// Result summarizes a localization run.
type Result struct {
	Localized     bool        `json:"localized"`
	StylesheetURL string      `json:"stylesheet_url,omitempty"`
	Stylesheet    string      `json:"stylesheet,omitempty"`
	Fonts         []FontAsset `json:"fonts,omitempty"`
	Failed        []string    `json:"failed,omitempty"`
	RewrittenHTML []string    `json:"rewritten_html,omitempty"`
}

// Localizer runs font localization against an output tree.
type Localizer struct {
	cfg        config.FontsConfig
	outputDir  string
	cacheDir   string
	fetcher    Fetcher
	recorder   metrics.Recorder
	sheetHosts hostSet
	hintHosts  hostSet
}

// NewLocalizer returns a Localizer writing into outputDir. cacheDir, when not
// empty, keeps downloaded fonts across builds.
func NewLocalizer(cfg config.FontsConfig, outputDir, cacheDir string, fetcher Fetcher) *Localizer {
	return &Localizer{
		cfg:        cfg,
		outputDir:  outputDir,
		cacheDir:   cacheDir,
		fetcher:    fetcher,
		recorder:   metrics.NoopRecorder{},
		sheetHosts: newHostSet(cfg.StylesheetHosts),
		hintHosts:  newHostSet(cfg.PreconnectHosts),
	}
}

// WithRecorder reports font fetch results to r.
func (l *Localizer) WithRecorder(r metrics.Recorder) *Localizer {
	if r != nil {
		l.recorder = r
	}
	return l
}

// Run localizes fonts. A missing entry document, a document without a font
// stylesheet link, or a stylesheet without font URLs leave the tree
// untouched. Failing to fetch the stylesheet returns a network error and
// leaves the HTML unchanged; a failed font binary is recorded in
// Result.Failed and does not stop the others.
func (l *Localizer) Run(ctx context.Context) (*Result, error) {
	res := &Result{}

	entryPath := sitefs.Join(l.outputDir, l.cfg.EntryHTML)
	// #nosec G304 -- entry path comes from configuration
	entry, err := os.ReadFile(entryPath)
	if os.IsNotExist(err) {
		slog.Info("Font entry document not found, skipping", logfields.File(l.cfg.EntryHTML))
		return res, nil
	}
	if err != nil {
		return res, errors.WrapError(err, errors.CategoryFileSystem, "failed to read font entry document").
			WithContext("path", entryPath).Build()
	}

	link, ok := findFontStylesheet(entry, l.sheetHosts)
	if !ok {
		slog.Info("No remote font stylesheet referenced", logfields.File(l.cfg.EntryHTML))
		return res, nil
	}
	res.StylesheetURL = link.absHref()

	base, err := url.Parse(res.StylesheetURL)
	if err != nil {
		return res, errors.ValidationError("invalid font stylesheet URL").
			WithCause(err).WithContext("url", res.StylesheetURL).Build()
	}

	sheet, err := l.fetcher.Get(ctx, res.StylesheetURL)
	if err != nil {
		return res, errors.WrapError(err, errors.CategoryNetwork, "font stylesheet unavailable; keeping remote fonts").
			WithContext("url", res.StylesheetURL).Build()
	}

	remote := fontURLs(sheet, base, l.cfg.Extensions)
	if len(remote) == 0 {
		slog.Info("Font stylesheet references no font files", logfields.URL(res.StylesheetURL))
		return res, nil
	}

	mapping := make(map[string]string, len(remote))
	for _, u := range remote {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		asset, err := l.vendor(ctx, u)
		if err != nil {
			if errors.HasCategory(err, errors.CategoryFileSystem) {
				return res, err
			}
			slog.Warn("Font download failed", logfields.URL(u), logfields.Error(err))
			l.recorder.IncFontFetch(metrics.FetchFailed)
			res.Failed = append(res.Failed, u)
		}
		mapping[u] = asset.LocalHref
		res.Fonts = append(res.Fonts, asset)
	}

	rewritten, err := rewriteStylesheet(sheet, base, mapping)
	if err != nil {
		return res, errors.WrapError(err, errors.CategoryBuild, "failed to rewrite font stylesheet").Build()
	}
	res.Stylesheet = path.Join(l.cfg.Directory, l.cfg.StylesheetName)
	if err := sitefs.WriteFile(sitefs.Join(l.outputDir, res.Stylesheet), rewritten, 0o644); err != nil {
		return res, errors.WrapError(err, errors.CategoryFileSystem, "failed to write font stylesheet").Build()
	}

	replacement := l.linkMarkup(res.Fonts)
	htmlFiles, err := sitefs.FilesWithExt(l.outputDir, ".html")
	if err != nil {
		return res, errors.WrapError(err, errors.CategoryFileSystem, "failed to list html files").Build()
	}
	for _, rel := range htmlFiles {
		p := sitefs.Join(l.outputDir, rel)
		// #nosec G304 -- path comes from walking the output tree
		src, err := os.ReadFile(p)
		if err != nil {
			return res, errors.WrapError(err, errors.CategoryFileSystem, "failed to read html").
				WithContext("path", p).Build()
		}
		out, changed := rewriteDocument(src, l.sheetHosts, l.hintHosts, replacement)
		if !changed {
			continue
		}
		if err := sitefs.WriteFile(p, out, 0o644); err != nil {
			return res, err
		}
		res.RewrittenHTML = append(res.RewrittenHTML, rel)
	}

	res.Localized = true
	slog.Info("Fonts localized",
		logfields.Count(len(res.Fonts)),
		slog.Int("failed", len(res.Failed)),
		slog.Int("html_rewritten", len(res.RewrittenHTML)))
	return res, nil
}

// vendor makes the font at remote available locally. The local filename is
// the URL's last path segment and an existing file of that name is reused
// without checking its content.
func (l *Localizer) vendor(ctx context.Context, remote string) (FontAsset, error) {
	u, err := url.Parse(remote)
	if err != nil {
		return FontAsset{RemoteURL: remote}, err
	}
	name := path.Base(u.Path)
	asset := FontAsset{
		RemoteURL: remote,
		FileName:  name,
		LocalHref: "/" + path.Join(l.cfg.Directory, name),
	}
	dst := sitefs.Join(l.outputDir, path.Join(l.cfg.Directory, name))

	if sitefs.Exists(dst) {
		asset.Reused = true
		l.recorder.IncFontFetch(metrics.FetchCached)
		return asset, nil
	}
	if l.cacheDir != "" {
		cached := filepath.Join(l.cacheDir, name)
		if sitefs.Exists(cached) {
			if err := copyFile(cached, dst); err != nil {
				return asset, err
			}
			asset.Reused = true
			l.recorder.IncFontFetch(metrics.FetchCached)
			slog.Debug("Font reused from cache", logfields.File(name))
			return asset, nil
		}
	}

	data, err := l.fetcher.Get(ctx, remote)
	if err != nil {
		return asset, err
	}
	if err := sitefs.WriteFile(dst, data, 0o644); err != nil {
		return asset, errors.WrapError(err, errors.CategoryFileSystem, "failed to write font").Build()
	}
	if l.cacheDir != "" {
		if err := sitefs.WriteFile(filepath.Join(l.cacheDir, name), data, 0o644); err != nil {
			slog.Warn("Failed to populate font cache", logfields.File(name), logfields.Error(err))
		}
	}
	l.recorder.IncFontFetch(metrics.FetchDownloaded)
	slog.Debug("Font downloaded", logfields.URL(remote), logfields.Bytes(int64(len(data))))
	return asset, nil
}

// linkMarkup renders one preload hint per unique font href in discovery
// order, followed by the local stylesheet link.
func (l *Localizer) linkMarkup(assets []FontAsset) string {
	var b strings.Builder
	seen := make(map[string]struct{}, len(assets))
	for _, a := range assets {
		if _, dup := seen[a.LocalHref]; dup {
			continue
		}
		seen[a.LocalHref] = struct{}{}
		fmt.Fprintf(&b, `<link rel="preload" as="font" type="%s" href="%s" crossorigin>`, fontMIME(a.FileName), a.LocalHref)
	}
	fmt.Fprintf(&b, `<link rel="stylesheet" href="%s">`, l.cfg.StylesheetHref())
	return b.String()
}

func fontMIME(name string) string {
	switch strings.ToLower(path.Ext(name)) {
	case ".woff2":
		return "font/woff2"
	case ".woff":
		return "font/woff"
	case ".ttf":
		return "font/ttf"
	case ".otf":
		return "font/otf"
	case ".eot":
		return "application/vnd.ms-fontobject"
	default:
		return "application/octet-stream"
	}
}

func copyFile(src, dst string) error {
	// #nosec G304 -- src lives in the configured font cache
	in, err := os.Open(src)
	if err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "failed to open cached font").Build()
	}
	defer func() { _ = in.Close() }()

	if err := os.MkdirAll(filepath.Dir(dst), 0o750); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "failed to create font directory").Build()
	}
	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "failed to create font").Build()
	}
	_, err = io.Copy(out, in)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "failed to copy cached font").Build()
	}
	return nil
}
