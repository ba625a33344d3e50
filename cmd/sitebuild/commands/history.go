package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/hellsecdev/hellsec.dev/internal/foundation/errors"
	"github.com/hellsecdev/hellsec.dev/internal/history"
)

// HistoryCmd prints recorded builds, newest first.
type HistoryCmd struct {
	BuildID string `arg:"" optional:"" help:"Show a single build in detail"`
	Limit   int    `short:"n" help:"Number of builds to show (overrides history.limit)"`
	JSON    bool   `help:"Print JSON instead of a table"`
}

func (h *HistoryCmd) Run(g *Global, root *CLI) error {
	cfg, err := loadConfig(root, PathFlags{})
	if err != nil {
		return err
	}
	if cfg.History.Database == "" {
		return errors.ConfigError("history.database is not configured").Build()
	}
	if _, err := os.Stat(cfg.History.Database); err != nil {
		return errors.NotFoundError("no build history recorded yet").
			WithContext("path", cfg.History.Database).Build()
	}

	store, err := history.OpenSQLite(cfg.History.Database)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	limit := cfg.History.Limit
	if h.Limit > 0 {
		limit = h.Limit
	}
	proj := history.NewProjection(store, limit)
	if err := proj.Rebuild(context.Background()); err != nil {
		return err
	}

	out := g.out()
	if h.BuildID != "" {
		summary, ok, err := proj.Lookup(context.Background(), h.BuildID)
		if err != nil {
			return err
		}
		if !ok {
			return errors.NotFoundError("build not found in history").
				WithContext("build_id", h.BuildID).Build()
		}
		data, err := json.MarshalIndent(summary, "", "  ")
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintln(out, string(data))
		return nil
	}

	builds := proj.History()
	if h.JSON {
		data, err := json.MarshalIndent(builds, "", "  ")
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintln(out, string(data))
		return nil
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "BUILD\tSTARTED\tDURATION\tSTATUS\tFILES\tCOMMIT")
	for _, b := range builds {
		commit := b.SourceCommit
		if len(commit) > 12 {
			commit = commit[:12]
		}
		if b.SourceDirty {
			commit += "+"
		}
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%s\n",
			b.BuildID, b.StartedAt.Format(time.RFC3339), b.Duration.Truncate(time.Millisecond),
			b.Status, b.OutputFiles, commit)
	}
	return tw.Flush()
}
