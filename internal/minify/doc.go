// Package minify shrinks the site's known script and stylesheet entries with
// esbuild and rewrites HTML documents through a token-level minifier whose
// output is stable under repeated runs.
package minify
