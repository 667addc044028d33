// Package parallel provides the worker pool and framebuffer partitioning
// used by the CPU pipelines of quadfill.
//
// The preprocessor hands the pool one item per chunk of objects; the
// rasterizer hands it one item per horizontal band of the framebuffer.
// Items never share output memory, so no locking is involved beyond the
// pool's own queues.
package parallel

// DefaultBandHeight is the band height used when none is configured.
// 16 rows of a 1024 pixel wide float32 RGBA target is 256KB, which keeps
// a band's color and depth rows in L2.
const DefaultBandHeight = 16

// Band is a horizontal strip of rows [Y0, Y1).
type Band struct {
	Y0, Y1 int
}

// Height returns the number of rows in the band.
func (b Band) Height() int {
	return b.Y1 - b.Y0
}

// Bands splits rows [y0, y1) into strips of at most height rows.
// A height of 0 or less uses DefaultBandHeight.
func Bands(y0, y1, height int) []Band {
	if y1 <= y0 {
		return nil
	}
	if height <= 0 {
		height = DefaultBandHeight
	}
	bands := make([]Band, 0, (y1-y0+height-1)/height)
	for y := y0; y < y1; y += height {
		bands = append(bands, Band{Y0: y, Y1: min(y+height, y1)})
	}
	return bands
}
