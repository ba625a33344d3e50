// Package site assembles and runs the static-site build pipeline: clean,
// mirror, minify, localize fonts, stamp the sitemap, write the service
// worker and optionally precompress.
package site
