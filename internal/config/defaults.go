package config

import "path/filepath"

// Default returns a configuration describing the standard site layout.
// Load unmarshals user YAML on top of it, so booleans that default to true
// stay true unless the file says otherwise.
func Default() *Config {
	return &Config{
		Source: ".",
		Output: OutputConfig{
			Directory: "dist",
			Clean:     true,
		},
		Ignore:      []string{"node_modules", "dist", ".git", ".idea", ".cache", ".env", ".env.*"},
		PackageFile: "package.json",
		Minify: MinifyConfig{
			Enabled: true,
			Entries: []AssetEntry{
				{Source: "scripts.js", Kind: AssetKindScript},
				{Source: "style.css", Kind: AssetKindStylesheet},
			},
			ScriptTarget: "es2018",
			HTML: HTMLConfig{
				Enabled:        true,
				SortAttributes: true,
				SortClassNames: true,
			},
		},
		Fonts: FontsConfig{
			Enabled:         true,
			EntryHTML:       "index.html",
			StylesheetHosts: []string{"fonts.googleapis.com"},
			PreconnectHosts: []string{"fonts.googleapis.com", "fonts.gstatic.com"},
			Directory:       "assets/fonts",
			StylesheetName:  "fonts.css",
			CacheDir:        filepath.Join(".cache", "fonts"),
			Extensions:      []string{".woff2", ".woff", ".ttf", ".otf", ".eot"},
			UserAgent:       DefaultUserAgent,
			Timeout:         "20s",
			Retry: RetryConfig{
				Mode:       RetryBackoffExponential,
				Initial:    "500ms",
				Max:        "5s",
				MaxRetries: 2,
			},
		},
		Sitemap: SitemapConfig{File: "sitemap.xml"},
		Worker: WorkerConfig{
			Mode:             WorkerModePrecache,
			File:             "sw.js",
			CachePrefix:      "pumalabs-static",
			FallbackDocument: "/index.html",
		},
		Compress: CompressConfig{
			Extensions: []string{".html", ".css", ".js", ".json", ".svg", ".xml", ".txt"},
		},
		History: HistoryConfig{Limit: 20},
		Logging: LoggingConfig{
			Level:  LogLevelInfo,
			Format: LogFormatText,
		},
	}
}
