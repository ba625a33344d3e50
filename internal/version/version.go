// Package version holds build metadata injected with -ldflags, e.g.
//
//	go build -ldflags "-X github.com/hellsecdev/hellsec.dev/internal/version.Version=v1.2.0 \
//	  -X github.com/hellsecdev/hellsec.dev/internal/version.GitCommit=$(git rev-parse --short HEAD)"
package version

import "fmt"

var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

// String is the text printed by `sitebuild --version`.
func String() string {
	if GitCommit == "unknown" && BuildTime == "unknown" {
		return Version
	}
	return fmt.Sprintf("%s (commit %s, built %s)", Version, GitCommit, BuildTime)
}
