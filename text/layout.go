package text

import (
	"github.com/go-text/typesetting/di"
	"github.com/go-text/typesetting/font"
	"github.com/go-text/typesetting/language"
	"github.com/go-text/typesetting/shaping"
	"github.com/gogpu/quadfill"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"
	"golang.org/x/text/unicode/bidi"
	"golang.org/x/text/unicode/norm"
)

// Glyph is one shaped glyph. Positions and advance are in em units
// relative to the start of the run, y up.
type Glyph struct {
	Index   sfnt.GlyphIndex
	Cluster int
	X, Y    float32
	Advance float32
}

// Shape normalizes s to NFC and shapes it as a single run. Glyphs come
// back in visual order.
func (l *Library) Shape(s string) []Glyph {
	s = norm.NFC.String(s)
	if s == "" {
		return nil
	}
	runes := []rune(s)
	upem := l.font.outlines.UnitsPerEm()

	input := shaping.Input{
		Text:      runes,
		RunStart:  0,
		RunEnd:    len(runes),
		Direction: direction(s),
		Face:      font.NewFace(l.font.shaping),
		Size:      fixed.Int26_6(upem) << 6,
		Script:    detectScript(runes),
		Language:  language.NewLanguage("en"),
	}
	hb := l.shapers.Get().(*shaping.HarfbuzzShaper)
	output := hb.Shape(input)
	l.shapers.Put(hb)

	scale := 1 / float32(upem)
	glyphs := make([]Glyph, len(output.Glyphs))
	var pen float32
	for i, g := range output.Glyphs {
		adv := fixedToFloat(g.Advance) * scale
		glyphs[i] = Glyph{
			Index:   sfnt.GlyphIndex(g.GlyphID), //nolint:gosec // sfnt glyph indices are 16 bit
			Cluster: g.TextIndex(),
			X:       pen + fixedToFloat(g.XOffset)*scale,
			Y:       fixedToFloat(g.YOffset) * scale,
			Advance: adv,
		}
		pen += adv
	}
	return glyphs
}

// Measure returns the advance width of s in em units.
func (l *Library) Measure(s string) float32 {
	var w float32
	for _, g := range l.Shape(s) {
		w += g.Advance
	}
	return w
}

// Layout shapes s and places one object per visible glyph in a. The run
// starts at pos on the baseline; size is the em size in world units.
func (l *Library) Layout(a *quadfill.Arena, s string, pos quadfill.Vec2, size float32) ([]quadfill.Object, error) {
	glyphs := l.Shape(s)
	objects := make([]quadfill.Object, 0, len(glyphs))
	for _, g := range glyphs {
		f, err := l.Frame(g.Index)
		if err != nil {
			return nil, err
		}
		if l.blank(f) {
			continue
		}
		worldFromGlyph := quadfill.Translate(pos.X+g.X*size, pos.Y+g.Y*size, 0).
			Mul(quadfill.Scale(size, size, 1))
		objects = append(objects, a.Object(l.model, f, worldFromGlyph))
	}
	return objects, nil
}

// direction returns the direction of the first bidi run of s.
func direction(s string) di.Direction {
	p := bidi.Paragraph{}
	if _, err := p.SetString(s); err != nil {
		return di.DirectionLTR
	}
	ordering, err := p.Order()
	if err != nil || ordering.NumRuns() == 0 {
		return di.DirectionLTR
	}
	run := ordering.Run(0)
	if run.Direction() == bidi.RightToLeft {
		return di.DirectionRTL
	}
	return di.DirectionLTR
}

// detectScript returns the script of the first non-space rune.
func detectScript(runes []rune) language.Script {
	for _, r := range runes {
		if r == ' ' || r == '\t' || r == '\n' || r == '\r' {
			continue
		}
		return language.LookupScript(r)
	}
	return language.Latin
}

// fixedToFloat converts a fixed.Int26_6 value to float32.
func fixedToFloat(v fixed.Int26_6) float32 {
	return float32(v) / 64
}
