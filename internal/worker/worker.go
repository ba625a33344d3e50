// Package worker renders the service worker script written at the top of
// the output tree.
package worker

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"strings"
	"text/template"

	"github.com/hellsecdev/hellsec.dev/internal/config"
	"github.com/hellsecdev/hellsec.dev/internal/foundation/errors"
	"github.com/hellsecdev/hellsec.dev/internal/manifest"
	"github.com/hellsecdev/hellsec.dev/internal/sitefs"
)

//go:embed templates/*.js.tmpl
var embeddedTemplates embed.FS

var templates = template.Must(
	template.New("worker").Option("missingkey=error").ParseFS(embeddedTemplates, "templates/*.js.tmpl"),
)

// templateData holds pre-encoded JavaScript literals.
type templateData struct {
	CacheName string
	Assets    string
	Fallback  string
}

// Render returns the worker script for mode.
func Render(mode config.WorkerMode, m *manifest.AssetManifest, fallback string) ([]byte, error) {
	var name string
	switch mode {
	case config.WorkerModePrecache:
		name = "precache.js.tmpl"
	case config.WorkerModeUnregister:
		name = "unregister.js.tmpl"
	default:
		return nil, errors.ValidationError(fmt.Sprintf("unsupported worker mode: %s", mode)).Build()
	}

	cacheName, err := jsLiteral(m.CacheName, "")
	if err != nil {
		return nil, err
	}
	urls := m.URLs
	if urls == nil {
		urls = []string{}
	}
	assets, err := jsLiteral(urls, "  ")
	if err != nil {
		return nil, err
	}
	fb, err := jsLiteral(fallback, "")
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, templateData{CacheName: cacheName, Assets: assets, Fallback: fb}); err != nil {
		return nil, fmt.Errorf("render %s: %w", name, err)
	}
	return buf.Bytes(), nil
}

// Write renders the worker and writes it to outputDir/file.
func Write(outputDir string, cfg config.WorkerConfig, m *manifest.AssetManifest) (string, error) {
	script, err := Render(cfg.Mode, m, cfg.FallbackDocument)
	if err != nil {
		return "", err
	}
	p := sitefs.Join(outputDir, cfg.File)
	if err := sitefs.WriteFile(p, script, 0o644); err != nil {
		return "", errors.WrapError(err, errors.CategoryFileSystem, "failed to write service worker").
			WithContext("path", p).Build()
	}
	return p, nil
}

// jsLiteral encodes v as JSON without HTML escaping, which is also a valid
// JavaScript literal.
func jsLiteral(v any, indent string) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if indent != "" {
		enc.SetIndent("", indent)
	}
	if err := enc.Encode(v); err != nil {
		return "", fmt.Errorf("encode worker literal: %w", err)
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}
