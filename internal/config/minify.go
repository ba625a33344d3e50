package config

import "github.com/hellsecdev/hellsec.dev/internal/foundation/normalization"

// AssetKind identifies how an entry file is minified.
type AssetKind string

const (
	AssetKindScript     AssetKind = "script"
	AssetKindStylesheet AssetKind = "stylesheet"
)

var assetKinds = normalization.NewEnum("asset kind", map[string]AssetKind{
	"script":     AssetKindScript,
	"js":         AssetKindScript,
	"stylesheet": AssetKindStylesheet,
	"css":        AssetKindStylesheet,
})

// NormalizeAssetKind converts user input into a typed kind. Blank input
// yields "" and unknown input is an error.
func NormalizeAssetKind(raw string) (AssetKind, error) {
	return assetKinds.Parse(raw)
}

// MinifyConfig controls the asset and HTML minification stages.
type MinifyConfig struct {
	Enabled      bool         `yaml:"enabled"`
	Entries      []AssetEntry `yaml:"entries"`
	ScriptTarget string       `yaml:"script_target"`
	HTML         HTMLConfig   `yaml:"html"`
}

// AssetEntry is one known source file minified independently of the others.
type AssetEntry struct {
	Source string    `yaml:"source"`
	Output string    `yaml:"output,omitempty"` // defaults to Source
	Kind   AssetKind `yaml:"kind"`
}

// OutputPath returns the entry's path relative to the output tree.
func (e AssetEntry) OutputPath() string {
	if e.Output != "" {
		return e.Output
	}
	return e.Source
}

// HTMLConfig controls the HTML minifier.
type HTMLConfig struct {
	Enabled               bool `yaml:"enabled"`
	RemoveEmptyAttributes bool `yaml:"remove_empty_attributes"`
	SortAttributes        bool `yaml:"sort_attributes"`
	SortClassNames        bool `yaml:"sort_class_names"`
}
