package config

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/hellsecdev/hellsec.dev/internal/foundation/errors"
)

// normalize canonicalizes enum-valued fields in place.
func (c *Config) normalize() error {
	mode, err := NormalizeWorkerMode(string(c.Worker.Mode))
	if err != nil {
		return errors.WrapError(err, errors.CategoryConfig, "invalid worker configuration").
			Fatal().WithContext("mode", string(c.Worker.Mode)).Build()
	}
	c.Worker.Mode = mode

	for i := range c.Minify.Entries {
		entry := &c.Minify.Entries[i]
		kind, err := NormalizeAssetKind(string(entry.Kind))
		if err != nil || kind == "" {
			if err == nil {
				err = fmt.Errorf("missing asset kind")
			}
			return errors.WrapError(err, errors.CategoryConfig, "invalid minify entry").
				Fatal().WithContext("source", entry.Source).Build()
		}
		entry.Kind = kind
	}

	backoff, err := NormalizeRetryBackoff(string(c.Fonts.Retry.Mode))
	if err != nil {
		return errors.WrapError(err, errors.CategoryConfig, "invalid fonts retry configuration").
			Fatal().Build()
	}
	c.Fonts.Retry.Mode = backoff

	for i, ext := range c.Fonts.Extensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext != "" && !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		c.Fonts.Extensions[i] = ext
	}
	c.Fonts.Directory = strings.Trim(path.Clean(filepath.ToSlash(c.Fonts.Directory)), "/")
	c.Worker.File = strings.TrimPrefix(filepath.ToSlash(c.Worker.File), "/")

	c.Logging.Level = NormalizeLogLevel(string(c.Logging.Level))
	c.Logging.Format = NormalizeLogFormat(string(c.Logging.Format))
	return nil
}

// Validate checks relations between fields that defaults cannot fix.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Source) == "" {
		return errors.ConfigError("source directory must be set").Build()
	}
	if strings.TrimSpace(c.Output.Directory) == "" {
		return errors.ConfigError("output.directory must be set").Build()
	}
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateFonts(); err != nil {
		return err
	}
	if err := c.validateWorker(); err != nil {
		return err
	}
	if c.History.Limit < 0 {
		return errors.ConfigError("history.limit must be >= 0").Build()
	}
	return nil
}

func (c *Config) validatePaths() error {
	src, err := filepath.Abs(c.Source)
	if err != nil {
		return errors.WrapError(err, errors.CategoryConfig, "cannot resolve source directory").Build()
	}
	out, err := filepath.Abs(c.Output.Directory)
	if err != nil {
		return errors.WrapError(err, errors.CategoryConfig, "cannot resolve output directory").Build()
	}
	// Cleaning the output must never remove the source tree.
	if isWithin(out, src) {
		return errors.ConfigError("output.directory must not contain the source directory").
			WithContext("source", src).WithContext("output", out).Build()
	}
	return nil
}

func (c *Config) validateFonts() error {
	if !c.Fonts.Enabled {
		return nil
	}
	f := c.Fonts
	if f.EntryHTML == "" {
		return errors.ConfigError("fonts.entry_html must be set").Build()
	}
	if len(f.StylesheetHosts) == 0 {
		return errors.ConfigError("fonts.stylesheet_hosts must list at least one host").Build()
	}
	if f.Directory == "" || f.Directory == "." || strings.HasPrefix(f.Directory, "..") || filepath.IsAbs(f.Directory) {
		return errors.ConfigError("fonts.directory must be a relative path inside the output tree").
			WithContext("directory", f.Directory).Build()
	}
	if f.StylesheetName == "" || strings.ContainsAny(f.StylesheetName, `/\`) {
		return errors.ConfigError("fonts.stylesheet_name must be a plain file name").Build()
	}
	if len(f.Extensions) == 0 {
		return errors.ConfigError("fonts.extensions must not be empty").Build()
	}
	if f.Timeout != "" {
		d, err := time.ParseDuration(f.Timeout)
		if err != nil || d <= 0 {
			return errors.ConfigError(fmt.Sprintf("invalid fonts.timeout: %q", f.Timeout)).Build()
		}
	}
	for name, raw := range map[string]string{"initial": f.Retry.Initial, "max": f.Retry.Max} {
		if raw == "" {
			continue
		}
		if _, err := time.ParseDuration(raw); err != nil {
			return errors.ConfigError(fmt.Sprintf("invalid fonts.retry.%s: %q", name, raw)).Build()
		}
	}
	if f.Retry.MaxRetries < 0 {
		return errors.ConfigError("fonts.retry.max_retries must be >= 0").Build()
	}
	return nil
}

func (c *Config) validateWorker() error {
	w := c.Worker
	if w.File == "" || strings.Contains(w.File, "/") {
		return errors.ConfigError("worker.file must be a top-level file name").
			WithContext("file", w.File).Build()
	}
	if strings.TrimSpace(w.CachePrefix) == "" {
		return errors.ConfigError("worker.cache_prefix must be set").Build()
	}
	if w.Mode == WorkerModePrecache && !strings.HasPrefix(w.FallbackDocument, "/") {
		return errors.ConfigError("worker.fallback_document must be a root-relative URL").
			WithContext("fallback_document", w.FallbackDocument).Build()
	}
	return nil
}

// isWithin reports whether child is root or lies below it.
func isWithin(root, child string) bool {
	rel, err := filepath.Rel(root, child)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}

// SourceDir returns the absolute source directory.
func (c *Config) SourceDir() string {
	abs, err := filepath.Abs(c.Source)
	if err != nil {
		return c.Source
	}
	return abs
}

// OutputDir returns the absolute output directory.
func (c *Config) OutputDir() string {
	abs, err := filepath.Abs(c.Output.Directory)
	if err != nil {
		return c.Output.Directory
	}
	return abs
}

// FontCacheDir returns the absolute font cache directory, or "" when disabled.
// Relative paths resolve against the source directory.
func (c *Config) FontCacheDir() string {
	if c.Fonts.CacheDir == "" {
		return ""
	}
	if filepath.IsAbs(c.Fonts.CacheDir) {
		return c.Fonts.CacheDir
	}
	return filepath.Join(c.SourceDir(), c.Fonts.CacheDir)
}

// PackageFilePath returns the package metadata path, relative paths resolving against the source directory.
func (c *Config) PackageFilePath() string {
	if filepath.IsAbs(c.PackageFile) {
		return c.PackageFile
	}
	return filepath.Join(c.SourceDir(), c.PackageFile)
}
