package quadfill

// Vertex is a 2D model-space position.
type Vertex = Vec2

// SegmentKind tags a segment as a line or a quadratic.
type SegmentKind uint8

const (
	// Line is a straight segment from A to B.
	Line SegmentKind = iota
	// Quadratic is a quadratic Bezier from A through control C to B.
	Quadratic
)

// String returns "line" or "quadratic".
func (k SegmentKind) String() string {
	if k == Quadratic {
		return "quadratic"
	}
	return "line"
}

// Segment is a path edge referencing vertices by index. C is meaningful
// only for quadratics.
type Segment struct {
	Kind    SegmentKind
	A, C, B uint32
}

// LineSegment returns a line from vertex a to vertex b.
func LineSegment(a, b uint32) Segment {
	return Segment{Kind: Line, A: a, C: a, B: b}
}

// QuadSegment returns a quadratic from vertex a through control c to b.
func QuadSegment(a, c, b uint32) Segment {
	return Segment{Kind: Quadratic, A: a, C: c, B: b}
}

// EncodeSegment packs s into the 4-index layout the GPU kernels read:
// start, end, control, unused. Lines carry -1 as control.
func EncodeSegment(s Segment) [4]int32 {
	ctl := int32(-1)
	if s.Kind == Quadratic {
		ctl = int32(s.C) //nolint:gosec // indices are validated against the vertex count
	}
	return [4]int32{int32(s.A), int32(s.B), ctl, 0} //nolint:gosec // see above
}

// DecodeSegment unpacks the GPU layout produced by EncodeSegment, so raw
// producer buffers can be turned into tagged segments once at the boundary.
func DecodeSegment(idx [4]int32) Segment {
	if idx[2] < 0 {
		return LineSegment(uint32(idx[0]), uint32(idx[1])) //nolint:gosec // producer contract
	}
	return QuadSegment(uint32(idx[0]), uint32(idx[2]), uint32(idx[1])) //nolint:gosec // producer contract
}

// Range is a half-open index range [Lo, Hi).
type Range struct {
	Lo, Hi int32
}

// Len returns the number of indices in r, or 0 when r is inverted.
func (r Range) Len() int32 {
	if r.Hi < r.Lo {
		return 0
	}
	return r.Hi - r.Lo
}

// Empty reports whether r contains no index.
func (r Range) Empty() bool {
	return r.Hi <= r.Lo
}

// Shift returns r moved by d.
func (r Range) Shift(d int32) Range {
	return Range{Lo: r.Lo + d, Hi: r.Hi + d}
}

// Overlaps reports whether r and o share an index. Empty ranges overlap
// nothing.
func (r Range) Overlaps(o Range) bool {
	if r.Empty() || o.Empty() {
		return false
	}
	return r.Lo < o.Hi && o.Lo < r.Hi
}

// Contains reports whether o lies inside r.
func (r Range) Contains(o Range) bool {
	if o.Empty() {
		return o.Lo >= r.Lo && o.Lo <= r.Hi
	}
	return o.Lo >= r.Lo && o.Hi <= r.Hi
}

// Shard is one fillable model-space box: pixels inside BB are tested
// against Segments and filled with Color when the winding is nonzero.
type Shard struct {
	BB        Rect
	Color     RGBA
	Segments  Range
	ClipDepth uint32
}

// Frame is a template made of a shard range and a segment range into the
// model's shared arrays. Shard segment ranges lie inside Segments.
type Frame struct {
	Name     string
	Shards   Range
	Segments Range
}

// Model owns the shared template buffers.
type Model struct {
	Vertices []Vertex
	Segments []Segment
	Shards   []Shard
	Frames   []Frame
}

// Frame returns the frame with the given name.
func (m *Model) Frame(name string) (int, bool) {
	for i := range m.Frames {
		if m.Frames[i].Name == name {
			return i, true
		}
	}
	return 0, false
}

// FrameClipSize returns the number of clip-depth slots frame f uses: the
// largest shard clip depth plus one, or 0 for a frame without shards.
func (m *Model) FrameClipSize(f int) uint32 {
	fr := m.Frames[f]
	var size uint32
	for i := fr.Shards.Lo; i < fr.Shards.Hi; i++ {
		if d := m.Shards[i].ClipDepth + 1; d > size {
			size = d
		}
	}
	return size
}

// segmentPoints returns the start, control and end positions of s.
// For lines the control equals the start.
func (m *Model) segmentPoints(s Segment) (a, c, b Vec2) {
	a, b = m.Vertices[s.A], m.Vertices[s.B]
	c = a
	if s.Kind == Quadratic {
		c = m.Vertices[s.C]
	}
	return a, c, b
}

// CheckModel returns a small two-shard model: a red shape bounded by
// three lines and one quadratic, overlapped by a blue triangle one clip
// depth above it. It is a single frame named "check".
func CheckModel() *Model {
	return &Model{
		Vertices: []Vertex{
			{0, 0},
			{0.5, 1},
			{-0.5, 0.5},
			{0, -0.5},
			{0.2, 1},
		},
		Segments: []Segment{
			LineSegment(0, 2),
			QuadSegment(2, 0, 3),
			LineSegment(3, 1),
			LineSegment(1, 0),
			LineSegment(0, 1),
			LineSegment(1, 4),
			LineSegment(4, 0),
		},
		Shards: []Shard{
			{
				BB:        Rect{-1, -1, 1, 1},
				Color:     RGBA{R: 1, A: 1},
				Segments:  Range{0, 4},
				ClipDepth: 0,
			},
			{
				BB:        Rect{-0.2, 0.2, 1.3, 1.5},
				Color:     RGBA{B: 1, A: 1},
				Segments:  Range{4, 7},
				ClipDepth: 1,
			},
		},
		Frames: []Frame{
			{Name: "check", Shards: Range{0, 2}, Segments: Range{0, 7}},
		},
	}
}
