package config

import "github.com/hellsecdev/hellsec.dev/internal/foundation/normalization"

// WorkerMode selects which service worker script the build emits.
type WorkerMode string

const (
	// WorkerModePrecache emits a cache-first worker that precaches the whole output tree.
	WorkerModePrecache WorkerMode = "precache"
	// WorkerModeUnregister emits a worker that clears caches, unregisters itself and
	// reloads open tabs. Deploy it to retire a caching worker serving stale content.
	WorkerModeUnregister WorkerMode = "unregister"
)

var workerModes = normalization.NewEnum("worker mode", map[string]WorkerMode{
	"precache":       WorkerModePrecache,
	"unregister":     WorkerModeUnregister,
	"self-destruct":  WorkerModeUnregister,
	"self_destruct":  WorkerModeUnregister,
	"precache-serve": WorkerModePrecache,
})

// NormalizeWorkerMode converts user input to a WorkerMode. Empty input yields
// precache; unknown input is an error.
func NormalizeWorkerMode(raw string) (WorkerMode, error) {
	mode, err := workerModes.Parse(raw)
	if err != nil {
		return "", err
	}
	if mode == "" {
		return WorkerModePrecache, nil
	}
	return mode, nil
}

// WorkerConfig controls service worker generation.
type WorkerConfig struct {
	Mode             WorkerMode `yaml:"mode"`
	File             string     `yaml:"file"`
	CachePrefix      string     `yaml:"cache_prefix"`
	FallbackDocument string     `yaml:"fallback_document"`
}

// URL is the root-relative URL the worker is served from.
func (w WorkerConfig) URL() string {
	return "/" + w.File
}
