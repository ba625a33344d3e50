package config

import (
	"fmt"
	"time"
)

// DefaultUserAgent is a desktop browser identity. The font CSS endpoint serves
// degraded (non-woff2) stylesheets to unknown clients.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"

// FontsConfig controls third-party font localization.
type FontsConfig struct {
	Enabled         bool        `yaml:"enabled"`
	EntryHTML       string      `yaml:"entry_html"`
	StylesheetHosts []string    `yaml:"stylesheet_hosts"`
	PreconnectHosts []string    `yaml:"preconnect_hosts"`
	Directory       string      `yaml:"directory"`
	StylesheetName  string      `yaml:"stylesheet_name"`
	CacheDir        string      `yaml:"cache_dir,omitempty"`
	Extensions      []string    `yaml:"extensions"`
	UserAgent       string      `yaml:"user_agent"`
	Timeout         string      `yaml:"timeout"`
	Retry           RetryConfig `yaml:"retry"`
}

// RequestTimeout parses Timeout, falling back to 20s.
func (f FontsConfig) RequestTimeout() time.Duration {
	d, err := time.ParseDuration(f.Timeout)
	if err != nil || d <= 0 {
		return 20 * time.Second
	}
	return d
}

// StylesheetHref is the root-relative URL of the localized stylesheet.
func (f FontsConfig) StylesheetHref() string {
	return fmt.Sprintf("/%s/%s", f.Directory, f.StylesheetName)
}
