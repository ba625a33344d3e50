// Package sitemap refreshes <lastmod> dates in a generated sitemap.
package sitemap

import (
	"os"
	"regexp"
	"time"

	"github.com/hellsecdev/hellsec.dev/internal/foundation/errors"
)

// DateLayout is the W3C date form written into <lastmod>.
const DateLayout = "2006-01-02"

// Text substitution only: nested or malformed lastmod tags are not told apart,
// and an element spanning lines is left alone.
var lastmodElement = regexp.MustCompile(`<lastmod>.*?</lastmod>`)

// Result reports what Stamp did.
type Result struct {
	Found    bool   `json:"found"`
	Replaced int    `json:"replaced"`
	Date     string `json:"date,omitempty"`
}

// Stamp sets the content of every <lastmod> element in the file at path to
// now's UTC date. A missing file is not an error.
func Stamp(path string, now time.Time) (Result, error) {
	// #nosec G304 -- sitemap path is derived from configuration
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return Result{}, nil
	}
	if err != nil {
		return Result{}, errors.WrapError(err, errors.CategoryFileSystem, "failed to read sitemap").
			WithContext("path", path).Build()
	}

	res := Result{Found: true, Date: now.UTC().Format(DateLayout)}
	replacement := []byte("<lastmod>" + res.Date + "</lastmod>")
	out := lastmodElement.ReplaceAllFunc(data, func([]byte) []byte {
		res.Replaced++
		return replacement
	})
	if res.Replaced == 0 {
		return res, nil
	}

	st, err := os.Stat(path)
	if err != nil {
		return res, errors.WrapError(err, errors.CategoryFileSystem, "failed to stat sitemap").
			WithContext("path", path).Build()
	}
	if err := os.WriteFile(path, out, st.Mode().Perm()); err != nil {
		return res, errors.WrapError(err, errors.CategoryFileSystem, "failed to write sitemap").
			WithContext("path", path).Build()
	}
	return res, nil
}
