// Package sitefs enumerates and writes files in a site tree using
// root-relative, forward-slash paths.
package sitefs

import (
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
)

// Files returns every regular file below root as a slash-separated path
// relative to root, sorted. Symlinks and special files are not listed.
func Files(root string) ([]string, error) {
	var out []string
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		out = append(out, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}
	sort.Strings(out)
	return out, nil
}

// FilesWithExt returns the subset of Files whose extension matches ext (case-insensitive).
func FilesWithExt(root, ext string) ([]string, error) {
	all, err := Files(root)
	if err != nil {
		return nil, err
	}
	out := all[:0]
	for _, rel := range all {
		if strings.EqualFold(path.Ext(rel), ext) {
			out = append(out, rel)
		}
	}
	return out, nil
}

// Join resolves a slash-relative path below root.
func Join(root, rel string) string {
	return filepath.Join(root, filepath.FromSlash(strings.TrimPrefix(rel, "/")))
}

// WriteFile writes data to the file at path, creating parent directories.
// Existing files keep their mode; new files get perm.
func WriteFile(p string, data []byte, perm os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(p), 0o750); err != nil {
		return fmt.Errorf("create parent of %s: %w", p, err)
	}
	if st, err := os.Stat(p); err == nil {
		perm = st.Mode().Perm()
	}
	if err := os.WriteFile(p, data, perm); err != nil {
		return fmt.Errorf("write %s: %w", p, err)
	}
	return nil
}

// Exists reports whether a regular file exists at p.
func Exists(p string) bool {
	st, err := os.Stat(p)
	return err == nil && st.Mode().IsRegular()
}
