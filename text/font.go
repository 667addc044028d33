package text

import (
	"bytes"
	"fmt"

	"github.com/go-text/typesetting/font"
	"golang.org/x/image/font/sfnt"
)

// Font is a parsed TrueType or OpenType font. The same data is parsed
// twice: sfnt provides outlines, go-text provides the shaping tables.
// A Font is safe for concurrent use.
type Font struct {
	outlines *sfnt.Font
	shaping  *font.Font
}

// ParseFont parses font data.
func ParseFont(data []byte) (*Font, error) {
	if len(data) == 0 {
		return nil, ErrEmptyFontData
	}
	outlines, err := sfnt.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("text: failed to parse font: %w", err)
	}
	face, err := font.ParseTTF(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("text: failed to parse font for shaping: %w", err)
	}
	return &Font{outlines: outlines, shaping: face.Font}, nil
}

// Name returns the family name, or "" when the font has none.
func (f *Font) Name() string {
	name, err := f.outlines.Name(nil, sfnt.NameIDFamily)
	if err != nil {
		return ""
	}
	return name
}

// UnitsPerEm returns the design grid size.
func (f *Font) UnitsPerEm() int {
	return int(f.outlines.UnitsPerEm())
}

// NumGlyphs returns the number of glyphs in the font.
func (f *Font) NumGlyphs() int {
	return f.outlines.NumGlyphs()
}

// GlyphIndex maps r to a glyph. Unmapped runes return 0, the
// missing-glyph box.
func (f *Font) GlyphIndex(r rune) sfnt.GlyphIndex {
	idx, err := f.outlines.GlyphIndex(nil, r)
	if err != nil {
		return 0
	}
	return idx
}
