// path_builder.go

package quadfill

import "math"

// FrameBuilder appends one frame template to a model through a fluent
// path interface. Shapes are grouped into shards; each shard gets the
// bounding box of its points and the segments added since it began.
//
// Subpaths close implicitly: starting a new subpath, a new shard or
// finishing the frame adds the line back to the subpath start.
//
//	m := &quadfill.Model{}
//	f := m.BuildFrame("badge").
//	    Shard(quadfill.Red, 0).Circle(0, 0, 1).
//	    Shard(quadfill.White, 1).Star(0, 0, 0.8, 0.35, 5).
//	    Done()
type FrameBuilder struct {
	m     *Model
	frame Frame

	inShard bool
	shard   Shard
	bb      Rect

	open       bool
	start, cur uint32
}

// BuildFrame starts a new frame named name at the end of m.
func (m *Model) BuildFrame(name string) *FrameBuilder {
	shards := int32(len(m.Shards)) //nolint:gosec // buffer lengths fit int32
	segs := int32(len(m.Segments)) //nolint:gosec // see above
	return &FrameBuilder{
		m: m,
		frame: Frame{
			Name:     name,
			Shards:   Range{Lo: shards, Hi: shards},
			Segments: Range{Lo: segs, Hi: segs},
		},
	}
}

// Shard finishes the current shard and begins a new one.
func (b *FrameBuilder) Shard(c RGBA, clipDepth uint32) *FrameBuilder {
	b.endShard()
	segs := int32(len(b.m.Segments)) //nolint:gosec // buffer lengths fit int32
	b.inShard = true
	b.shard = Shard{
		Color:     c,
		Segments:  Range{Lo: segs, Hi: segs},
		ClipDepth: clipDepth,
	}
	b.bb = EmptyRect()
	return b
}

func (b *FrameBuilder) vertex(x, y float32) uint32 {
	if !b.inShard {
		b.Shard(Black, 0)
	}
	p := Vec2{X: x, Y: y}
	b.bb = b.bb.Union(p)
	b.m.Vertices = append(b.m.Vertices, p)
	return uint32(len(b.m.Vertices) - 1) //nolint:gosec // buffer lengths fit uint32
}

// MoveTo starts a new subpath at (x, y).
func (b *FrameBuilder) MoveTo(x, y float32) *FrameBuilder {
	b.Close()
	b.start = b.vertex(x, y)
	b.cur = b.start
	b.open = true
	return b
}

// LineTo adds a line to (x, y).
func (b *FrameBuilder) LineTo(x, y float32) *FrameBuilder {
	if !b.open {
		return b.MoveTo(x, y)
	}
	v := b.vertex(x, y)
	b.m.Segments = append(b.m.Segments, LineSegment(b.cur, v))
	b.cur = v
	return b
}

// QuadTo adds a quadratic Bezier through control (cx, cy) to (x, y).
func (b *FrameBuilder) QuadTo(cx, cy, x, y float32) *FrameBuilder {
	if !b.open {
		b.MoveTo(cx, cy)
	}
	c := b.vertex(cx, cy)
	v := b.vertex(x, y)
	b.m.Segments = append(b.m.Segments, QuadSegment(b.cur, c, v))
	b.cur = v
	return b
}

// Close adds the line back to the subpath start, unless the subpath
// already ends there.
func (b *FrameBuilder) Close() *FrameBuilder {
	if !b.open {
		return b
	}
	if b.m.Vertices[b.cur] != b.m.Vertices[b.start] {
		b.m.Segments = append(b.m.Segments, LineSegment(b.cur, b.start))
	}
	b.open = false
	return b
}

// Rect adds a counterclockwise rectangle.
func (b *FrameBuilder) Rect(x, y, w, h float32) *FrameBuilder {
	return b.MoveTo(x, y).
		LineTo(x+w, y).
		LineTo(x+w, y+h).
		LineTo(x, y+h).
		Close()
}

// Circle adds a counterclockwise circle made of eight quadratic arcs.
func (b *FrameBuilder) Circle(cx, cy, r float32) *FrameBuilder {
	return b.Ellipse(cx, cy, r, r)
}

// Ellipse adds a counterclockwise axis-aligned ellipse made of eight
// quadratic arcs.
func (b *FrameBuilder) Ellipse(cx, cy, rx, ry float32) *FrameBuilder {
	const arcs = 8
	step := 2 * math.Pi / arcs
	k := 1 / math.Cos(step/2)

	b.MoveTo(cx+rx, cy)
	for i := 1; i <= arcs; i++ {
		mid := (float64(i) - 0.5) * step
		end := float64(i) * step
		x, y := cx+rx*float32(math.Cos(end)), cy+ry*float32(math.Sin(end))
		if i == arcs {
			x, y = cx+rx, cy
		}
		b.QuadTo(cx+rx*float32(k*math.Cos(mid)), cy+ry*float32(k*math.Sin(mid)), x, y)
	}
	return b.Close()
}

// RoundRect adds a counterclockwise rectangle with quadratic corners.
func (b *FrameBuilder) RoundRect(x, y, w, h, r float32) *FrameBuilder {
	r = min(r, min(w, h)/2)
	return b.MoveTo(x+r, y).
		LineTo(x+w-r, y).
		QuadTo(x+w, y, x+w, y+r).
		LineTo(x+w, y+h-r).
		QuadTo(x+w, y+h, x+w-r, y+h).
		LineTo(x+r, y+h).
		QuadTo(x, y+h, x, y+h-r).
		LineTo(x, y+r).
		QuadTo(x, y, x+r, y).
		Close()
}

// Polygon adds a regular polygon with a vertex straight up.
func (b *FrameBuilder) Polygon(cx, cy, radius float32, sides int) *FrameBuilder {
	if sides < 3 {
		return b
	}
	step := 2 * math.Pi / float64(sides)
	for i := range sides {
		angle := math.Pi/2 + float64(i)*step
		x := cx + radius*float32(math.Cos(angle))
		y := cy + radius*float32(math.Sin(angle))
		if i == 0 {
			b.MoveTo(x, y)
		} else {
			b.LineTo(x, y)
		}
	}
	return b.Close()
}

// Star adds a star with the given number of points, first point up.
func (b *FrameBuilder) Star(cx, cy, outer, inner float32, points int) *FrameBuilder {
	if points < 3 {
		return b
	}
	step := math.Pi / float64(points)
	for i := range points * 2 {
		angle := math.Pi/2 + float64(i)*step
		r := outer
		if i%2 == 1 {
			r = inner
		}
		x := cx + r*float32(math.Cos(angle))
		y := cy + r*float32(math.Sin(angle))
		if i == 0 {
			b.MoveTo(x, y)
		} else {
			b.LineTo(x, y)
		}
	}
	return b.Close()
}

func (b *FrameBuilder) endShard() {
	b.Close()
	if !b.inShard {
		return
	}
	b.shard.Segments.Hi = int32(len(b.m.Segments)) //nolint:gosec // buffer lengths fit int32
	b.shard.BB = b.bb
	if b.shard.BB.IsEmpty() {
		b.shard.BB = Rect{}
	}
	b.m.Shards = append(b.m.Shards, b.shard)
	b.inShard = false
}

// Done finishes the frame, appends it to the model and returns its index.
func (b *FrameBuilder) Done() int {
	b.endShard()
	b.frame.Shards.Hi = int32(len(b.m.Shards))     //nolint:gosec // buffer lengths fit int32
	b.frame.Segments.Hi = int32(len(b.m.Segments)) //nolint:gosec // see above
	b.m.Frames = append(b.m.Frames, b.frame)
	return len(b.m.Frames) - 1
}
