// Package commands holds one kong command per file.
package commands

import (
	"context"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	prom "github.com/prometheus/client_golang/prometheus"

	"github.com/hellsecdev/hellsec.dev/internal/config"
	"github.com/hellsecdev/hellsec.dev/internal/history"
	"github.com/hellsecdev/hellsec.dev/internal/logfields"
	"github.com/hellsecdev/hellsec.dev/internal/metrics"
	"github.com/hellsecdev/hellsec.dev/internal/site"
)

// Global carries shared state into every command.
type Global struct {
	Logger *slog.Logger
	Stdout io.Writer
}

func (g *Global) out() io.Writer {
	if g == nil || g.Stdout == nil {
		return os.Stdout
	}
	return g.Stdout
}

// CLI definition & global flags - used by commands that need access to root config.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path" default:"sitebuild.yaml"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Build    BuildCmd    `cmd:"" default:"1" help:"Run the full build pipeline"`
	Init     InitCmd     `cmd:"" help:"Write an example configuration file"`
	Serve    ServeCmd    `cmd:"" help:"Build, then serve the output tree (optionally rebuilding on change)"`
	Watch    WatchCmd    `cmd:"" help:"Build, then rebuild whenever the source tree changes"`
	Manifest ManifestCmd `cmd:"" help:"Print the precache manifest of an existing output tree"`
	History  HistoryCmd  `cmd:"" help:"Show recent builds recorded in the history database"`
}

// AfterApply runs after flag parsing; setup logging once. The config file
// only contributes its logging section here; commands load it again and
// report errors themselves.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply() error {
	logging := config.Default().Logging
	if _, err := os.Stat(c.Config); err == nil {
		if cfg, err := config.Load(c.Config); err == nil {
			logging = cfg.Logging
		}
	}
	slog.SetDefault(newLogger(os.Stderr, logging, c.Verbose))
	return nil
}

func newLogger(w io.Writer, lc config.LoggingConfig, verbose bool) *slog.Logger {
	level := lc.SlogLevel()
	if verbose {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}
	if lc.Format == config.LogFormatJSON {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// PathFlags override the source and output directories from the config file.
type PathFlags struct {
	Source string `short:"s" help:"Source directory (overrides config source)"`
	Output string `short:"o" help:"Output directory (overrides config output.directory)"`
}

// loadConfig loads root.Config and applies path overrides.
func loadConfig(root *CLI, paths PathFlags) (*config.Config, error) {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return nil, err
	}
	if paths.Source == "" && paths.Output == "" {
		return cfg, nil
	}
	if paths.Source != "" {
		cfg.Source = paths.Source
	}
	if paths.Output != "" {
		cfg.Output.Directory = paths.Output
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// buildEnv bundles a generator with the sinks it reports into.
type buildEnv struct {
	gen      *site.Generator
	registry *prom.Registry
	history  *history.SQLiteStore
}

// newBuildEnv returns a generator recording into a fresh Prometheus registry
// and, when history.database is set, into the build history.
func newBuildEnv(cfg *config.Config) (*buildEnv, error) {
	env := &buildEnv{registry: prom.NewRegistry()}
	env.gen = site.NewGenerator(cfg).WithRecorder(metrics.NewPrometheusRecorder(env.registry))
	if cfg.History.Database == "" {
		return env, nil
	}
	store, err := history.OpenSQLite(cfg.History.Database)
	if err != nil {
		return nil, err
	}
	env.history = store
	env.gen.WithObserver(history.NewObserver(store))
	return env, nil
}

func (e *buildEnv) Close() {
	if e.history != nil {
		if err := e.history.Close(); err != nil {
			slog.Warn("Failed to close build history", logfields.Error(err))
		}
	}
}

// writeMetrics exports reg to the configured textfile, if any.
func writeMetrics(cfg *config.Config, reg *prom.Registry) {
	if cfg.Metrics.Textfile == "" {
		return
	}
	if err := metrics.WriteTextfile(cfg.Metrics.Textfile, reg); err != nil {
		slog.Warn("Failed to write metrics textfile", logfields.Path(cfg.Metrics.Textfile), logfields.Error(err))
	}
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}
