package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hellsecdev/hellsec.dev/internal/foundation/errors"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "sitebuild.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "dist", cfg.Output.Directory)
	assert.True(t, cfg.Output.Clean)
	assert.True(t, cfg.Minify.Enabled)
	assert.True(t, cfg.Fonts.Enabled)
	assert.Equal(t, WorkerModePrecache, cfg.Worker.Mode)
	assert.Equal(t, "/sw.js", cfg.Worker.URL())
	assert.Equal(t, "/assets/fonts/fonts.css", cfg.Fonts.StylesheetHref())
	assert.Contains(t, cfg.Ignore, "node_modules")
	assert.Contains(t, cfg.Ignore, ".git")
	assert.Contains(t, cfg.Ignore, ".env")
	assert.Contains(t, cfg.Ignore, ".env.*")
}

func TestLoad_OverridesKeepUnsetDefaults(t *testing.T) {
	path := writeConfig(t, `
output:
  directory: public
minify:
  enabled: false
worker:
  mode: Unregister
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "public", cfg.Output.Directory)
	assert.True(t, cfg.Output.Clean, "clean should keep its default")
	assert.False(t, cfg.Minify.Enabled)
	assert.True(t, cfg.Minify.HTML.Enabled)
	assert.Equal(t, WorkerModeUnregister, cfg.Worker.Mode)
	assert.Equal(t, "sw.js", cfg.Worker.File)
}

func TestLoad_ExpandsEnvironment(t *testing.T) {
	t.Setenv("SITEBUILD_TEST_PREFIX", "acme-static")
	path := writeConfig(t, "worker:\n  cache_prefix: ${SITEBUILD_TEST_PREFIX}\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "acme-static", cfg.Worker.CachePrefix)
}

func TestLoad_UnknownWorkerModeIsConfigError(t *testing.T) {
	path := writeConfig(t, "worker:\n  mode: bogus\n")

	_, err := Load(path)
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryConfig))
	assert.Contains(t, err.Error(), "worker")
}

func TestLoad_MalformedYAML(t *testing.T) {
	path := writeConfig(t, "output: [unterminated\n")

	_, err := Load(path)
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryConfig))
}

func TestNormalize_AssetKindsAndExtensions(t *testing.T) {
	cfg := Default()
	cfg.Minify.Entries = []AssetEntry{{Source: "app.js", Kind: "JS"}, {Source: "site.css", Kind: "css"}}
	cfg.Fonts.Extensions = []string{"WOFF2", ".ttf"}
	cfg.Fonts.Directory = "/static/fonts/"

	require.NoError(t, cfg.normalize())
	assert.Equal(t, AssetKindScript, cfg.Minify.Entries[0].Kind)
	assert.Equal(t, AssetKindStylesheet, cfg.Minify.Entries[1].Kind)
	assert.Equal(t, []string{".woff2", ".ttf"}, cfg.Fonts.Extensions)
	assert.Equal(t, "static/fonts", cfg.Fonts.Directory)
}

func TestNormalize_EnumAliases(t *testing.T) {
	cfg := Default()
	cfg.Worker.Mode = "Self-Destruct"
	cfg.Fonts.Retry.Mode = "constant"
	cfg.Logging.Level = "WARNING"
	cfg.Logging.Format = "logfmt"

	require.NoError(t, cfg.normalize())
	assert.Equal(t, WorkerModeUnregister, cfg.Worker.Mode)
	assert.Equal(t, RetryBackoffFixed, cfg.Fonts.Retry.Mode)
	assert.Equal(t, LogLevelWarn, cfg.Logging.Level)
	assert.Equal(t, LogFormatText, cfg.Logging.Format)
}

func TestNormalize_RejectsUnknownRetryMode(t *testing.T) {
	cfg := Default()
	cfg.Fonts.Retry.Mode = "jittery"

	err := cfg.normalize()
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryConfig))
	assert.Contains(t, err.Error(), "valid options: [constant exponential fixed linear]")
}

func TestNormalize_RejectsUnknownAssetKind(t *testing.T) {
	cfg := Default()
	cfg.Minify.Entries = []AssetEntry{{Source: "logo.svg", Kind: "image"}}

	err := cfg.normalize()
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryConfig))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "defaults are valid", mutate: func(*Config) {}},
		{
			name:    "output equals source",
			mutate:  func(c *Config) { c.Output.Directory = "." },
			wantErr: "must not contain the source",
		},
		{
			name:    "output is parent of source",
			mutate:  func(c *Config) { c.Source = "site"; c.Output.Directory = "." },
			wantErr: "must not contain the source",
		},
		{
			name:    "fonts directory escapes output",
			mutate:  func(c *Config) { c.Fonts.Directory = "../fonts" },
			wantErr: "fonts.directory",
		},
		{
			name:    "fonts disabled skips font checks",
			mutate:  func(c *Config) { c.Fonts.Enabled = false; c.Fonts.Directory = "" },
			wantErr: "",
		},
		{
			name:    "bad timeout",
			mutate:  func(c *Config) { c.Fonts.Timeout = "soon" },
			wantErr: "fonts.timeout",
		},
		{
			name:    "nested worker file",
			mutate:  func(c *Config) { c.Worker.File = "js/sw.js" },
			wantErr: "worker.file",
		},
		{
			name:    "empty cache prefix",
			mutate:  func(c *Config) { c.Worker.CachePrefix = " " },
			wantErr: "cache_prefix",
		},
		{
			name:    "negative history limit",
			mutate:  func(c *Config) { c.History.Limit = -1 },
			wantErr: "history.limit",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestFontsConfig_RequestTimeout(t *testing.T) {
	assert.Equal(t, "1.5s", FontsConfig{Timeout: "1500ms"}.RequestTimeout().String())
	assert.Equal(t, "20s", FontsConfig{Timeout: "nope"}.RequestTimeout().String())
}

func TestInit_RefusesOverwriteWithoutForce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sitebuild.yaml")
	require.NoError(t, Init(path, false))

	err := Init(path, false)
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryValidation))

	require.NoError(t, Init(path, true))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, Default().Worker, cfg.Worker)
}

func TestLoggingConfig_SlogLevel(t *testing.T) {
	assert.Equal(t, "DEBUG", LoggingConfig{Level: LogLevelDebug}.SlogLevel().String())
	assert.Equal(t, "INFO", LoggingConfig{Level: "weird"}.SlogLevel().String())
}
