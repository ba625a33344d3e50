package commands

import (
	"fmt"
	"os"
	"time"

	"github.com/hellsecdev/hellsec.dev/internal/foundation/errors"
	"github.com/hellsecdev/hellsec.dev/internal/manifest"
)

// ManifestCmd prints the URLs a precache worker would list for the current
// output tree, without building.
type ManifestCmd struct {
	PathFlags
	JSON bool `help:"Print the full manifest as JSON"`
}

func (m *ManifestCmd) Run(g *Global, root *CLI) error {
	cfg, err := loadConfig(root, m.PathFlags)
	if err != nil {
		return err
	}
	outDir := cfg.OutputDir()
	if st, err := os.Stat(outDir); err != nil || !st.IsDir() {
		return errors.FileSystemError("output directory not found; run build first").
			WithContext("path", outDir).Build()
	}

	version, err := manifest.ReadVersion(cfg.PackageFilePath())
	if err != nil {
		return err
	}
	am, err := manifest.New(outDir, cfg.Worker.URL(), cfg.Worker.CachePrefix, version, time.Now())
	if err != nil {
		return err
	}

	out := g.out()
	if m.JSON {
		data, err := am.ToJSON()
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintln(out, string(data))
		return nil
	}
	for _, u := range am.URLs {
		_, _ = fmt.Fprintln(out, u)
	}
	return nil
}
