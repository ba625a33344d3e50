// Package compress writes precompressed siblings for static hosting.
package compress

import (
	"bytes"
	"context"
	"os"
	"path"
	"strings"

	"github.com/andybalholm/brotli"

	"github.com/hellsecdev/hellsec.dev/internal/foundation/errors"
	"github.com/hellsecdev/hellsec.dev/internal/sitefs"
)

// Suffix is appended to the name of every compressed sibling.
const Suffix = ".br"

// Stats summarizes a compression pass.
type Stats struct {
	Compressed int   `json:"compressed"`
	Skipped    int   `json:"skipped"`
	BytesIn    int64 `json:"bytes_in"`
	BytesOut   int64 `json:"bytes_out"`
}

// Brotli writes <file>.br next to every file under root whose extension is
// in exts. Files that do not shrink are skipped and a stale sibling is removed.
func Brotli(ctx context.Context, root string, exts []string) (Stats, error) {
	var st Stats
	files, err := sitefs.Files(root)
	if err != nil {
		return st, errors.WrapError(err, errors.CategoryFileSystem, "failed to enumerate output tree").Build()
	}
	want := make(map[string]bool, len(exts))
	for _, e := range exts {
		want[strings.ToLower(e)] = true
	}

	for _, rel := range files {
		if err := ctx.Err(); err != nil {
			return st, err
		}
		if strings.HasSuffix(rel, Suffix) || !want[strings.ToLower(path.Ext(rel))] {
			continue
		}
		p := sitefs.Join(root, rel)
		// #nosec G304 -- path comes from walking the output tree
		data, err := os.ReadFile(p)
		if err != nil {
			return st, errors.WrapError(err, errors.CategoryFileSystem, "failed to read file").
				WithContext("path", p).Build()
		}
		packed, err := encode(data)
		if err != nil {
			return st, errors.WrapError(err, errors.CategoryBuild, "brotli encode failed").
				WithContext("path", p).Build()
		}
		if len(packed) >= len(data) {
			st.Skipped++
			_ = os.Remove(p + Suffix)
			continue
		}
		if err := sitefs.WriteFile(p+Suffix, packed, 0o644); err != nil {
			return st, errors.WrapError(err, errors.CategoryFileSystem, "failed to write compressed file").
				WithContext("path", p+Suffix).Build()
		}
		st.Compressed++
		st.BytesIn += int64(len(data))
		st.BytesOut += int64(len(packed))
	}
	return st, nil
}

func encode(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w := brotli.NewWriterLevel(&buf, brotli.BestCompression)
	if _, err := w.Write(data); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
