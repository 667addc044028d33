package quadfill

// MaxClipDepth is the largest clip depth that still encodes to a depth
// below 1. Clip depths carry 24 significant bits.
const MaxClipDepth = 1<<24 - 1

// depthScale is 2^24.
const depthScale = 1 << 24

// EncodeDepth maps a clip depth to the depth coordinate clip/2^24.
// The mapping is exact and monotonic for clip <= MaxClipDepth.
func EncodeDepth(clip uint32) float32 {
	return float32(clip) / depthScale
}

// DecodeDepth recovers the clip depth from a depth coordinate.
func DecodeDepth(depth float32) uint32 {
	return uint32(float64(depth)*depthScale + 0.5)
}

// VerticesPerQuad is the number of vertices one quad expands to.
const VerticesPerQuad = 6

// quadCorners selects, per vertex, the x (0 = min, 2 = max) and y corner
// of the box. The two triangles share the (x0,y2)-(x2,y0) diagonal.
var quadCorners = [VerticesPerQuad][2]uint8{
	{0, 1},
	{0, 3},
	{2, 1},
	{2, 3},
	{2, 1},
	{0, 3},
}

// QuadCorner returns corner k (0..5) of box bb in the fixed two-triangle
// order (x0,y0) (x0,y2) (x2,y0) (x2,y2) (x2,y0) (x0,y2).
func QuadCorner(bb Rect, k int) Vec2 {
	c := quadCorners[k]
	return Vec2{X: bb[c[0]], Y: bb[c[1]]}
}

// VertexQuad splits a global vertex index into quad index and corner.
func VertexQuad(index uint32) (quad uint32, corner int) {
	return index / VerticesPerQuad, int(index % VerticesPerQuad)
}

// Quad is one authoring-time bounding quad for the direct rasterizer.
// BB, Vertices and Segments live in the space of the origin selected by
// OriginIndex.
type Quad struct {
	BB          Rect
	Color       RGBA
	Segments    Range
	ClipDepth   uint32
	OriginIndex uint32
}
