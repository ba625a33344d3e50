package config

import (
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/hellsecdev/hellsec.dev/internal/foundation/errors"
)

// DefaultConfigPath is the configuration file looked up when no -c flag is given.
const DefaultConfigPath = "sitebuild.yaml"

// Config represents the build pipeline configuration.
type Config struct {
	Source      string         `yaml:"source"`
	Output      OutputConfig   `yaml:"output"`
	Ignore      []string       `yaml:"ignore"`
	PackageFile string         `yaml:"package_file"`
	Minify      MinifyConfig   `yaml:"minify"`
	Fonts       FontsConfig    `yaml:"fonts"`
	Sitemap     SitemapConfig  `yaml:"sitemap"`
	Worker      WorkerConfig   `yaml:"worker"`
	Compress    CompressConfig `yaml:"compress"`
	Metrics     MetricsConfig  `yaml:"metrics"`
	Report      ReportConfig   `yaml:"report"`
	History     HistoryConfig  `yaml:"history"`
	Logging     LoggingConfig  `yaml:"logging"`
}

// OutputConfig represents output configuration.
type OutputConfig struct {
	Directory string `yaml:"directory"`
	Clean     bool   `yaml:"clean"` // Destroy output directory before build
}

// SitemapConfig names the sitemap file inside the output tree.
type SitemapConfig struct {
	File string `yaml:"file"`
}

// CompressConfig controls precompressed siblings for static hosting.
type CompressConfig struct {
	Brotli     bool     `yaml:"brotli"`
	Extensions []string `yaml:"extensions,omitempty"`
}

// MetricsConfig controls Prometheus metric export after a build.
type MetricsConfig struct {
	Textfile string `yaml:"textfile,omitempty"`
}

// ReportConfig controls build report persistence.
type ReportConfig struct {
	Directory string `yaml:"directory,omitempty"`
}

// HistoryConfig controls the SQLite build history log.
type HistoryConfig struct {
	Database string `yaml:"database,omitempty"` // empty disables history
	Limit    int    `yaml:"limit,omitempty"`    // builds shown by `sitebuild history`
}

// Load reads configuration from configPath on top of Default().
// A missing file is not an error: the defaults describe a complete build.
func Load(configPath string) (*Config, error) {
	if err := loadEnvFile(); err != nil {
		slog.Debug("No .env file loaded", "error", err)
	}

	cfg := Default()

	data, err := os.ReadFile(configPath)
	switch {
	case os.IsNotExist(err):
		slog.Debug("Configuration file not found, using defaults", "path", configPath)
	case err != nil:
		return nil, errors.WrapError(err, errors.CategoryConfig, "failed to read config file").
			Fatal().WithContext("path", configPath).Build()
	default:
		expanded := os.ExpandEnv(string(data))
		if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
			return nil, errors.WrapError(err, errors.CategoryConfig, "failed to unmarshal config").
				Fatal().WithContext("path", configPath).Build()
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Init writes an example configuration file containing every default.
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return errors.ValidationError(fmt.Sprintf("configuration file already exists: %s (use --force to overwrite)", configPath)).Build()
	}

	data, err := yaml.Marshal(Default())
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	content := append([]byte("# sitebuild configuration\n# worker.mode: precache | unregister\n"), data...)

	// #nosec G306 -- config file is meant to be committed and readable
	if err := os.WriteFile(configPath, content, 0o644); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "failed to write config file").
			WithContext("path", configPath).Build()
	}
	return nil
}
