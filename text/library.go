package text

import (
	"fmt"
	"sync"

	"github.com/go-text/typesetting/shaping"
	"github.com/gogpu/quadfill"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"
)

// Library builds glyph frames on demand into a model and remembers them,
// so every glyph is stored once however often it is drawn.
//
// A Library is safe for concurrent use, but the model it writes to must
// not be read by the pipelines while frames are being added.
type Library struct {
	font  *Font
	model *quadfill.Model
	color quadfill.RGBA

	shapers sync.Pool

	mu     sync.Mutex
	buf    sfnt.Buffer
	frames map[sfnt.GlyphIndex]int
}

// NewLibrary returns a library adding glyph frames of f to m, filled with
// color c.
func NewLibrary(f *Font, m *quadfill.Model, c quadfill.RGBA) *Library {
	return &Library{
		font:  f,
		model: m,
		color: c,
		shapers: sync.Pool{
			New: func() any {
				return &shaping.HarfbuzzShaper{}
			},
		},
		frames: make(map[sfnt.GlyphIndex]int),
	}
}

// Font returns the library's font.
func (l *Library) Font() *Font { return l.font }

// Model returns the model glyph frames are added to.
func (l *Library) Model() *quadfill.Model { return l.model }

// Frame returns the frame index of glyph g, building it on first use.
// The frame is in em units with the baseline on y = 0 and y up. Glyphs
// without an outline, like space, get a frame without shards.
func (l *Library) Frame(g sfnt.GlyphIndex) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if f, ok := l.frames[g]; ok {
		return f, nil
	}

	upem := l.font.outlines.UnitsPerEm()
	segments, err := l.font.outlines.LoadGlyph(&l.buf, g, fixed.Int26_6(upem)<<6, nil)
	if err != nil {
		return 0, fmt.Errorf("text: load glyph %d: %w", g, err)
	}
	for _, seg := range segments {
		if seg.Op == sfnt.SegmentOpCubeTo {
			return 0, fmt.Errorf("%w: glyph %d", ErrCubicOutline, g)
		}
	}

	scale := 1 / float32(upem)
	pt := func(p fixed.Point26_6) (float32, float32) {
		return float32(p.X) / 64 * scale, -float32(p.Y) / 64 * scale
	}

	b := l.model.BuildFrame(fmt.Sprintf("glyph %d", g))
	if len(segments) > 0 {
		b.Shard(l.color, 0)
	}
	for _, seg := range segments {
		switch seg.Op {
		case sfnt.SegmentOpMoveTo:
			b.MoveTo(pt(seg.Args[0]))
		case sfnt.SegmentOpLineTo:
			b.LineTo(pt(seg.Args[0]))
		case sfnt.SegmentOpQuadTo:
			cx, cy := pt(seg.Args[0])
			x, y := pt(seg.Args[1])
			b.QuadTo(cx, cy, x, y)
		}
	}
	f := b.Done()
	l.frames[g] = f
	return f, nil
}

// blank reports whether frame f has nothing to draw.
func (l *Library) blank(f int) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.model.Frames[f].Shards.Empty()
}

// Len returns the number of glyph frames built so far.
func (l *Library) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.frames)
}
