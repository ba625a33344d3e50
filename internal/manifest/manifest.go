// Package manifest computes the precache asset list and cache epoch for the
// service worker.
package manifest

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/hellsecdev/hellsec.dev/internal/foundation/errors"
	"github.com/hellsecdev/hellsec.dev/internal/logfields"
	"github.com/hellsecdev/hellsec.dev/internal/sitefs"
)

// DefaultVersion is used when the package file has no version.
const DefaultVersion = "0.0.0"

// EpochLayout is the UTC minute-resolution timestamp in a cache name.
const EpochLayout = "200601021504"

// AssetManifest is the set of root-relative URLs a precaching worker stores.
type AssetManifest struct {
	CacheName string    `json:"cache_name"`
	Version   string    `json:"version"`
	Generated time.Time `json:"generated"`
	URLs      []string  `json:"urls"`
}

// Build lists every file under outputDir as a root-relative URL, adds "/"
// and drops excludeURL (the worker script itself) and paths starting with a
// dot (".htaccess", ".well-known/..."). The result is sorted and free of
// duplicates.
func Build(outputDir, excludeURL string) ([]string, error) {
	files, err := sitefs.Files(outputDir)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryFileSystem, "failed to enumerate output tree").
			WithContext("path", outputDir).Build()
	}
	set := make(map[string]struct{}, len(files)+1)
	set["/"] = struct{}{}
	for _, rel := range files {
		if strings.HasPrefix(rel, ".") {
			continue
		}
		u := "/" + rel
		if u == excludeURL {
			continue
		}
		set[u] = struct{}{}
	}
	urls := make([]string, 0, len(set))
	for u := range set {
		urls = append(urls, u)
	}
	sort.Strings(urls)
	return urls, nil
}

// CacheName returns "<prefix>-<version>-<YYYYMMDDHHmm>" with t in UTC.
// Builds in the same minute with the same version share a name.
func CacheName(prefix, version string, t time.Time) string {
	return fmt.Sprintf("%s-%s-%s", prefix, version, t.UTC().Format(EpochLayout))
}

// New assembles a manifest for the output tree.
func New(outputDir, excludeURL, prefix, version string, now time.Time) (*AssetManifest, error) {
	urls, err := Build(outputDir, excludeURL)
	if err != nil {
		return nil, err
	}
	return &AssetManifest{
		CacheName: CacheName(prefix, version, now),
		Version:   version,
		Generated: now.UTC(),
		URLs:      urls,
	}, nil
}

// ReadVersion returns the "version" field of the package metadata file.
// A missing file or empty version yields DefaultVersion; malformed JSON is an error.
func ReadVersion(pkgPath string) (string, error) {
	// #nosec G304 -- package file path comes from configuration
	data, err := os.ReadFile(pkgPath)
	if os.IsNotExist(err) {
		slog.Warn("Package file not found, using default version", logfields.Path(pkgPath), slog.String("version", DefaultVersion))
		return DefaultVersion, nil
	}
	if err != nil {
		return "", errors.WrapError(err, errors.CategoryFileSystem, "failed to read package file").
			WithContext("path", pkgPath).Build()
	}
	var pkg struct {
		Version string `json:"version"`
	}
	if err := json.Unmarshal(data, &pkg); err != nil {
		return "", errors.WrapError(err, errors.CategoryConfig, "failed to parse package file").
			WithContext("path", pkgPath).Build()
	}
	if pkg.Version == "" {
		return DefaultVersion, nil
	}
	return pkg.Version, nil
}

// ToJSON serializes the manifest to JSON.
func (m *AssetManifest) ToJSON() ([]byte, error) {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal manifest: %w", err)
	}
	return data, nil
}

// FromJSON deserializes a manifest from JSON.
func FromJSON(data []byte) (*AssetManifest, error) {
	var m AssetManifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("unmarshal manifest: %w", err)
	}
	return &m, nil
}

// Hash fingerprints the URL set. Two builds with the same files hash alike
// regardless of their cache names.
func (m *AssetManifest) Hash() string {
	h := sha256.New()
	for _, u := range m.URLs {
		h.Write([]byte(u))
		h.Write([]byte{0})
	}
	return fmt.Sprintf("%x", h.Sum(nil))
}
