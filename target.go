package quadfill

import (
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
)

// Target is a render target for the CPU rasterizer: a float RGBA color
// buffer and a depth buffer of the same size. Depth starts at 0 and
// fragments pass when their depth is greater than or equal to the stored
// value.
type Target struct {
	width    int
	height   int
	color    []RGBA
	depth    []float32
	viewport Viewport
}

// NewTarget creates a transparent target with cleared depth and a
// viewport covering the whole target.
func NewTarget(width, height int) *Target {
	return &Target{
		width:  width,
		height: height,
		color:  make([]RGBA, width*height),
		depth:  make([]float32, width*height),
		viewport: Viewport{
			Width:  float32(width),
			Height: float32(height),
		},
	}
}

// Width returns the width of the target.
func (t *Target) Width() int {
	return t.width
}

// Height returns the height of the target.
func (t *Target) Height() int {
	return t.height
}

// Viewport returns the rectangle clip space is mapped onto.
func (t *Target) Viewport() Viewport {
	return t.viewport
}

// SetViewport changes the rectangle clip space is mapped onto.
// Fragments outside the target are dropped.
func (t *Target) SetViewport(vp Viewport) {
	t.viewport = vp
}

// Clear fills the color buffer. Depth is left alone.
func (t *Target) Clear(c RGBA) {
	for i := range t.color {
		t.color[i] = c
	}
}

// ClearDepth resets every depth value to 0.
func (t *Target) ClearDepth() {
	clear(t.depth)
}

// Pixel returns the color at (x, y), or Transparent outside the target.
func (t *Target) Pixel(x, y int) RGBA {
	if x < 0 || x >= t.width || y < 0 || y >= t.height {
		return Transparent
	}
	return t.color[y*t.width+x]
}

// Depth returns the depth at (x, y), or 0 outside the target.
func (t *Target) Depth(x, y int) float32 {
	if x < 0 || x >= t.width || y < 0 || y >= t.height {
		return 0
	}
	return t.depth[y*t.width+x]
}

// write applies one fragment that passed the depth test.
func (t *Target) write(i int, c RGBA, depth float32) {
	t.color[i] = c
	t.depth[i] = depth
}

// Composite merges a layer drawn elsewhere, applying the same
// GreaterEqual depth test the rasterizer uses.
func (t *Target) Composite(l *Layer) {
	w := min(t.width, l.Width)
	h := min(t.height, l.Height)
	for y := range h {
		for x := range w {
			src := y*l.Width + x
			d := l.Depth[src]
			if d < 0 {
				continue
			}
			dst := y*t.width + x
			if d >= t.depth[dst] {
				t.write(dst, l.Color[src], d)
			}
		}
	}
}

// ToImage converts the color buffer to an 8-bit image.
func (t *Target) ToImage() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, t.width, t.height))
	for i, c := range t.color {
		o := i * 4
		img.Pix[o+0] = to8(c.R)
		img.Pix[o+1] = to8(c.G)
		img.Pix[o+2] = to8(c.B)
		img.Pix[o+3] = to8(c.A)
	}
	return img
}

// EncodePNG writes the color buffer as PNG.
func (t *Target) EncodePNG(w io.Writer) error {
	return png.Encode(w, t.ToImage())
}

// SavePNG saves the color buffer to a PNG file.
func (t *Target) SavePNG(path string) error {
	f, err := os.Create(path) //nolint:gosec // path is user-provided intentionally
	if err != nil {
		return err
	}
	if err := t.EncodePNG(f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// At implements the image.Image interface.
func (t *Target) At(x, y int) color.Color {
	return t.Pixel(x, y).Color()
}

// Bounds implements the image.Image interface.
func (t *Target) Bounds() image.Rectangle {
	return image.Rect(0, 0, t.width, t.height)
}

// ColorModel implements the image.Image interface.
func (t *Target) ColorModel() color.Model {
	return color.NRGBAModel
}

// Layer is the output of one accelerated draw: the colors and depths of
// the pixels the draw wrote. Depth is negative where nothing was written.
type Layer struct {
	Width, Height int
	Color         []RGBA
	Depth         []float32
}

// NewLayer returns an unwritten layer.
func NewLayer(width, height int) *Layer {
	l := &Layer{
		Width:  width,
		Height: height,
		Color:  make([]RGBA, width*height),
		Depth:  make([]float32, width*height),
	}
	for i := range l.Depth {
		l.Depth[i] = -1
	}
	return l
}
