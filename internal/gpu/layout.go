//go:build !nogpu

package gpu

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/gogpu/quadfill"
)

// Byte sizes of the std430 structs shared with shaders/*.wgsl.
const (
	mat4Size         = 64
	uniformsSize     = 3 * mat4Size // clip_from_world, world_from_fragment, fragment_from_clip
	paramsSize       = 16           // object_count + 3 pad
	originSize       = 2 * mat4Size // clip_from_tex, tex_from_fragment
	originsSize      = quadfill.MaxOrigins * originSize
	quadSize         = 48 // bb, color, segments, clip_depth, origin
	vertexSize       = 8  // vec2<f32>
	segmentSize      = 16 // vec4<i32>: start, end, control or -1, unused
	shardSize        = 48 // bb, color, segments, clip_depth, pad
	frameSize        = 16 // shards, segments
	objectSize       = 80 // world_from_object, frame, clip_offset, shard_offset, segment_offset
	shardVertexSize  = 48 // position, color, segments, clip_depth, pad
	frameSegmentSize = 32 // start, control, end, kind, pad
)

// minBufferSize keeps bindings valid when an input array is empty.
const minBufferSize = 16

// packer appends little-endian GPU values.
type packer struct {
	buf []byte
}

func newPacker(size int) *packer {
	return &packer{buf: make([]byte, 0, max(size, minBufferSize))}
}

func (p *packer) u32(v uint32) { p.buf = binary.LittleEndian.AppendUint32(p.buf, v) }
func (p *packer) i32(v int32)  { p.u32(uint32(v)) } //nolint:gosec // bit pattern reinterpretation
func (p *packer) f32(v float32) {
	p.u32(math.Float32bits(v))
}

func (p *packer) vec2(v quadfill.Vec2) {
	p.f32(v.X)
	p.f32(v.Y)
}

func (p *packer) vec4(v quadfill.Vec4) {
	p.f32(v.X)
	p.f32(v.Y)
	p.f32(v.Z)
	p.f32(v.W)
}

func (p *packer) rect(r quadfill.Rect) {
	for _, v := range r {
		p.f32(v)
	}
}

func (p *packer) color(c quadfill.RGBA) {
	p.f32(c.R)
	p.f32(c.G)
	p.f32(c.B)
	p.f32(c.A)
}

func (p *packer) rng(r quadfill.Range) {
	p.i32(r.Lo)
	p.i32(r.Hi)
}

func (p *packer) mat4(m quadfill.Mat4) {
	for _, v := range m {
		p.f32(v)
	}
}

// bytes returns the packed data, zero-padded to the minimum buffer size.
func (p *packer) bytes() []byte {
	for len(p.buf) < minBufferSize {
		p.buf = append(p.buf, 0)
	}
	return p.buf
}

func packUniforms(u quadfill.Uniforms) []byte {
	p := newPacker(uniformsSize)
	p.mat4(u.ClipFromWorld)
	p.mat4(u.WorldFromFragment)
	p.mat4(u.FragmentFromClip)
	return p.bytes()
}

func packParams(objectCount int) []byte {
	p := newPacker(paramsSize)
	p.u32(uint32(objectCount)) //nolint:gosec // object counts fit uint32
	p.u32(0)
	p.u32(0)
	p.u32(0)
	return p.bytes()
}

// packOrigins folds the draw uniforms into each origin so the shader
// needs one matrix per direction. Unused slots are zero.
func packOrigins(u quadfill.Uniforms, origins []quadfill.Origin) ([]byte, error) {
	if len(origins) > quadfill.MaxOrigins {
		return nil, fmt.Errorf("%w: %d origins", quadfill.ErrTooManyOrigins, len(origins))
	}
	p := newPacker(originsSize)
	for _, o := range origins {
		p.mat4(u.ClipFromWorld.Mul(o.WorldFromTex))
		p.mat4(o.TexFromWorld.Mul(u.WorldFromFragment))
	}
	for range quadfill.MaxOrigins - len(origins) {
		p.mat4(quadfill.Mat4{})
		p.mat4(quadfill.Mat4{})
	}
	return p.bytes(), nil
}

func packQuads(quads []quadfill.Quad) []byte {
	p := newPacker(len(quads) * quadSize)
	for _, q := range quads {
		p.rect(q.BB)
		p.color(q.Color)
		p.rng(q.Segments)
		p.u32(q.ClipDepth)
		p.u32(q.OriginIndex)
	}
	return p.bytes()
}

func packVertices(vertices []quadfill.Vertex) []byte {
	p := newPacker(len(vertices) * vertexSize)
	for _, v := range vertices {
		p.vec2(v)
	}
	return p.bytes()
}

func packSegments(segments []quadfill.Segment) []byte {
	p := newPacker(len(segments) * segmentSize)
	for _, s := range segments {
		for _, idx := range quadfill.EncodeSegment(s) {
			p.i32(idx)
		}
	}
	return p.bytes()
}

func packShards(shards []quadfill.Shard) []byte {
	p := newPacker(len(shards) * shardSize)
	for _, sh := range shards {
		p.rect(sh.BB)
		p.color(sh.Color)
		p.rng(sh.Segments)
		p.u32(sh.ClipDepth)
		p.u32(0)
	}
	return p.bytes()
}

func packFrames(frames []quadfill.Frame) []byte {
	p := newPacker(len(frames) * frameSize)
	for _, f := range frames {
		p.rng(f.Shards)
		p.rng(f.Segments)
	}
	return p.bytes()
}

func packObjects(objects []quadfill.Object) []byte {
	p := newPacker(len(objects) * objectSize)
	for _, o := range objects {
		p.mat4(o.WorldFromObject)
		p.i32(o.Frame)
		p.u32(o.ClipOffset)
		p.i32(o.ShardOffset)
		p.i32(o.SegmentOffset)
	}
	return p.bytes()
}

func packShardVertices(vertices []quadfill.ShardVertex) []byte {
	p := newPacker(len(vertices) * shardVertexSize)
	for _, v := range vertices {
		p.vec4(v.Position)
		p.color(v.Color)
		p.rng(v.Segments)
		p.u32(v.ClipDepth)
		p.u32(0)
	}
	return p.bytes()
}

func packFrameSegments(segments []quadfill.FrameSegment) []byte {
	p := newPacker(len(segments) * frameSegmentSize)
	for _, s := range segments {
		p.vec2(s.Start)
		p.vec2(s.Control)
		p.vec2(s.End)
		p.u32(uint32(s.Kind))
		p.u32(0)
	}
	return p.bytes()
}

// unpacker reads little-endian GPU values.
type unpacker struct {
	buf []byte
	off int
}

func (u *unpacker) u32() uint32 {
	v := binary.LittleEndian.Uint32(u.buf[u.off:])
	u.off += 4
	return v
}

func (u *unpacker) i32() int32   { return int32(u.u32()) } //nolint:gosec // bit pattern reinterpretation
func (u *unpacker) f32() float32 { return math.Float32frombits(u.u32()) }

func (u *unpacker) vec2() quadfill.Vec2 {
	return quadfill.Vec2{X: u.f32(), Y: u.f32()}
}

func (u *unpacker) vec4() quadfill.Vec4 {
	return quadfill.Vec4{X: u.f32(), Y: u.f32(), Z: u.f32(), W: u.f32()}
}

func (u *unpacker) color() quadfill.RGBA {
	return quadfill.RGBA{R: u.f32(), G: u.f32(), B: u.f32(), A: u.f32()}
}

func (u *unpacker) rng() quadfill.Range {
	return quadfill.Range{Lo: u.i32(), Hi: u.i32()}
}

func unpackShardVertices(data []byte, dst []quadfill.ShardVertex) error {
	if len(data) < len(dst)*shardVertexSize {
		return fmt.Errorf("shard vertex readback: %d bytes for %d vertices", len(data), len(dst))
	}
	u := unpacker{buf: data}
	for i := range dst {
		dst[i].Position = u.vec4()
		dst[i].Color = u.color()
		dst[i].Segments = u.rng()
		dst[i].ClipDepth = u.u32()
		u.u32()
	}
	return nil
}

func unpackFrameSegments(data []byte, dst []quadfill.FrameSegment) error {
	if len(data) < len(dst)*frameSegmentSize {
		return fmt.Errorf("frame segment readback: %d bytes for %d segments", len(data), len(dst))
	}
	u := unpacker{buf: data}
	for i := range dst {
		dst[i].Start = u.vec2()
		dst[i].Control = u.vec2()
		dst[i].End = u.vec2()
		dst[i].Kind = quadfill.SegmentKind(u.u32()) //nolint:gosec // kinds are 0 or 1
		u.u32()
	}
	return nil
}

// copyRowPitch returns the staging buffer row pitch for a texture row of
// width 4-byte texels. Texture-to-buffer copies need 256-byte rows.
func copyRowPitch(width uint32) uint32 {
	const align = 256
	return (width*4 + align - 1) / align * align
}

// unpackLayer converts the BGRA8 color and R32Float depth readbacks into
// a layer. Both buffers use the pitch from copyRowPitch.
func unpackLayer(width, height int, color, depth []byte) (*quadfill.Layer, error) {
	pitch := int(copyRowPitch(uint32(width))) //nolint:gosec // dimensions always fit uint32
	if len(color) < pitch*height || len(depth) < pitch*height {
		return nil, fmt.Errorf("layer readback: %d/%d bytes for %dx%d", len(color), len(depth), width, height)
	}
	l := quadfill.NewLayer(width, height)
	for y := range height {
		row := y * pitch
		for x := range width {
			o := row + x*4
			i := y*width + x
			l.Depth[i] = math.Float32frombits(binary.LittleEndian.Uint32(depth[o:]))
			l.Color[i] = quadfill.RGBA{
				R: float32(color[o+2]) / 255,
				G: float32(color[o+1]) / 255,
				B: float32(color[o+0]) / 255,
				A: float32(color[o+3]) / 255,
			}
		}
	}
	return l, nil
}
