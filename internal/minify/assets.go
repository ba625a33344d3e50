package minify

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/evanw/esbuild/pkg/api"

	"github.com/hellsecdev/hellsec.dev/internal/config"
	"github.com/hellsecdev/hellsec.dev/internal/foundation/errors"
	"github.com/hellsecdev/hellsec.dev/internal/logfields"
	"github.com/hellsecdev/hellsec.dev/internal/sitefs"
)

var scriptTargets = map[string]api.Target{
	"es2015": api.ES2015,
	"es2016": api.ES2016,
	"es2017": api.ES2017,
	"es2018": api.ES2018,
	"es2019": api.ES2019,
	"es2020": api.ES2020,
	"es2021": api.ES2021,
	"es2022": api.ES2022,
	"esnext": api.ESNext,
}

// AssetResult describes one minified entry.
type AssetResult struct {
	Source string `json:"source"`
	Output string `json:"output"`
	Before int    `json:"before"`
	After  int    `json:"after"`
}

// Assets minifies each entry from sourceDir into outputDir. Entries whose
// source file is missing are skipped. Each entry is minified on its own with
// no bundling.
func Assets(sourceDir, outputDir string, entries []config.AssetEntry, scriptTarget string) ([]AssetResult, error) {
	target, ok := scriptTargets[strings.ToLower(scriptTarget)]
	if !ok {
		target = api.ES2018
	}

	results := make([]AssetResult, 0, len(entries))
	for _, entry := range entries {
		src := sitefs.Join(sourceDir, entry.Source)
		// #nosec G304 -- entry paths come from configuration
		code, err := os.ReadFile(src)
		if os.IsNotExist(err) {
			slog.Debug("Asset entry not found, skipping", logfields.File(entry.Source))
			continue
		}
		if err != nil {
			return results, errors.WrapError(err, errors.CategoryFileSystem, "failed to read asset entry").
				WithContext("file", entry.Source).Build()
		}

		out, err := transform(code, entry, target)
		if err != nil {
			return results, err
		}

		dst := sitefs.Join(outputDir, entry.OutputPath())
		if err := sitefs.WriteFile(dst, out, 0o644); err != nil {
			return results, errors.WrapError(err, errors.CategoryFileSystem, "failed to write minified asset").
				WithContext("file", entry.OutputPath()).Build()
		}

		res := AssetResult{Source: entry.Source, Output: entry.OutputPath(), Before: len(code), After: len(out)}
		slog.Info("Minified asset", logfields.File(res.Output), slog.Int("before", res.Before), slog.Int("after", res.After))
		results = append(results, res)
	}
	return results, nil
}

func transform(code []byte, entry config.AssetEntry, target api.Target) ([]byte, error) {
	opts := api.TransformOptions{
		Sourcefile:        entry.Source,
		MinifyWhitespace:  true,
		MinifyIdentifiers: true,
		MinifySyntax:      true,
		LogLevel:          api.LogLevelSilent,
	}
	switch entry.Kind {
	case config.AssetKindStylesheet:
		opts.Loader = api.LoaderCSS
	default:
		opts.Loader = api.LoaderJS
		opts.Target = target
	}

	result := api.Transform(string(code), opts)
	for _, w := range result.Warnings {
		slog.Warn("esbuild warning", logfields.File(entry.Source), slog.String("message", w.Text))
	}
	if len(result.Errors) > 0 {
		msgs := make([]string, 0, len(result.Errors))
		for _, m := range result.Errors {
			if m.Location != nil {
				msgs = append(msgs, fmt.Sprintf("%s:%d:%d: %s", m.Location.File, m.Location.Line, m.Location.Column, m.Text))
				continue
			}
			msgs = append(msgs, m.Text)
		}
		return nil, errors.MinifyError("esbuild failed: " + strings.Join(msgs, "; ")).
			WithContext("file", entry.Source).Build()
	}
	return result.Code, nil
}
