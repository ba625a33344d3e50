// Package mirror copies a source tree into the output tree.
package mirror

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/hellsecdev/hellsec.dev/internal/foundation/errors"
	"github.com/hellsecdev/hellsec.dev/internal/logfields"
)

// Options configures a copy.
type Options struct {
	// Ignore lists entry names skipped at every directory level. Entries
	// with glob metacharacters (".env.*") are matched with filepath.Match.
	Ignore []string
	// Exclude lists absolute paths skipped wherever they appear (the output
	// directory when it lives inside the source).
	Exclude []string
}

// Stats summarizes a completed copy.
type Stats struct {
	Files   int
	Dirs    int
	Bytes   int64
	Skipped int
}

// Clean removes dir and recreates it empty.
func Clean(dir string) error {
	if err := os.RemoveAll(dir); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "failed to remove output directory").
			WithContext("path", dir).Build()
	}
	return Ensure(dir)
}

// Ensure creates dir if it does not exist.
func Ensure(dir string) error {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "failed to create output directory").
			WithContext("path", dir).Build()
	}
	return nil
}

// Copy mirrors src into dst. Directories are created as encountered and
// regular files are copied byte-for-byte with their permission bits.
// Symlinks and special files are skipped.
func Copy(src, dst string, opts Options) (Stats, error) {
	c := &copier{ignore: NewMatcher(opts.Ignore), exclude: make(map[string]struct{}, len(opts.Exclude))}
	for _, p := range opts.Exclude {
		if abs, err := filepath.Abs(p); err == nil {
			c.exclude[abs] = struct{}{}
		}
	}
	absSrc, err := filepath.Abs(src)
	if err != nil {
		return Stats{}, errors.WrapError(err, errors.CategoryFileSystem, "failed to resolve source").Build()
	}
	if err := c.copyDir(absSrc, dst); err != nil {
		return c.stats, err
	}
	return c.stats, nil
}

// Matcher tests entry names against an ignore list.
type Matcher struct {
	names map[string]struct{}
	globs []string
}

// NewMatcher splits patterns into literal names and globs.
func NewMatcher(patterns []string) Matcher {
	m := Matcher{names: make(map[string]struct{}, len(patterns))}
	for _, p := range patterns {
		if p == "" {
			continue
		}
		if strings.ContainsAny(p, "*?[") {
			m.globs = append(m.globs, p)
			continue
		}
		m.names[p] = struct{}{}
	}
	return m
}

// Match reports whether name equals a literal entry or matches a glob.
func (m Matcher) Match(name string) bool {
	if _, ok := m.names[name]; ok {
		return true
	}
	for _, g := range m.globs {
		if ok, _ := filepath.Match(g, name); ok {
			return true
		}
	}
	return false
}

type copier struct {
	ignore  Matcher
	exclude map[string]struct{}
	stats   Stats
}

func (c *copier) skip(name, abs string) bool {
	if c.ignore.Match(name) {
		return true
	}
	_, ok := c.exclude[abs]
	return ok
}

func (c *copier) copyDir(src, dst string) error {
	info, err := os.Stat(src)
	if err != nil {
		return fsError(err, "failed to stat source directory", src)
	}
	if err := os.MkdirAll(dst, info.Mode().Perm()|0o700); err != nil {
		return fsError(err, "failed to create directory", dst)
	}
	c.stats.Dirs++

	entries, err := os.ReadDir(src)
	if err != nil {
		return fsError(err, "failed to read directory", src)
	}

	for _, entry := range entries {
		srcPath := filepath.Join(src, entry.Name())
		dstPath := filepath.Join(dst, entry.Name())

		if c.skip(entry.Name(), srcPath) {
			c.stats.Skipped++
			continue
		}

		switch {
		case entry.IsDir():
			if err := c.copyDir(srcPath, dstPath); err != nil {
				return err
			}
		case entry.Type().IsRegular():
			n, err := copyFile(srcPath, dstPath)
			if err != nil {
				return err
			}
			c.stats.Files++
			c.stats.Bytes += n
		default:
			slog.Debug("Skipping non-regular file", logfields.Path(srcPath), logfields.Mode(entry.Type().String()))
			c.stats.Skipped++
		}
	}
	return nil
}

// copyFile copies a single file from src to dst, preserving permission bits.
func copyFile(src, dst string) (int64, error) {
	// #nosec G304 -- src comes from walking the configured source tree
	srcFile, err := os.Open(src)
	if err != nil {
		return 0, fsError(err, "failed to open source file", src)
	}
	defer func() {
		_ = srcFile.Close()
	}()

	info, err := srcFile.Stat()
	if err != nil {
		return 0, fsError(err, "failed to stat source file", src)
	}

	dstFile, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return 0, fsError(err, "failed to create file", dst)
	}

	n, err := io.Copy(dstFile, srcFile)
	if cerr := dstFile.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return n, fsError(err, "failed to copy file", dst)
	}
	return n, nil
}

func fsError(err error, msg, path string) error {
	return errors.WrapError(err, errors.CategoryFileSystem, fmt.Sprintf("%s: %s", msg, path)).
		WithContext("path", path).Build()
}
