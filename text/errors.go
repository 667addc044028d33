package text

import "errors"

// Sentinel errors for text package.
var (
	// ErrEmptyFontData is returned when font data is empty.
	ErrEmptyFontData = errors.New("text: empty font data")

	// ErrCubicOutline is returned for glyphs drawn with cubic Beziers,
	// which frames cannot hold.
	ErrCubicOutline = errors.New("text: cubic glyph outline")
)
