package models

import "errors"

// Standard sentinels for site build stages.
var (
	ErrFontsUnavailable = errors.New("sitebuild: font stylesheet unavailable") // the remote stylesheet could not be fetched
	ErrPartialFonts     = errors.New("sitebuild: some fonts were not fetched") // at least one font binary failed
)
