package quadfill

import (
	"errors"
	"math"

	"github.com/gogpu/quadfill/internal/parallel"
)

// QuadBatch is the input of the direct rasterizer. Quad boxes, vertices
// and segments are in the tex space of the origin each quad selects.
// An empty Origins table means a single identity origin.
type QuadBatch struct {
	Origins  []Origin
	Quads    []Quad
	Vertices []Vertex
	Segments []Segment
}

// Rasterizer is the CPU implementation of the quad rasterizer. It
// reproduces the GPU pipelines: every quad expands to two triangles,
// pixel centers inside a triangle run the winding test over the quad's
// segments, zero winding discards, and surviving fragments pass a
// GreaterEqual depth test before writing color and depth.
//
// Fragments are processed in horizontal bands on a worker pool. Within a
// band quads are visited in submission order, which preserves the
// depth-test tie behavior of a GPU.
type Rasterizer struct {
	opts options
	pool *parallel.WorkerPool
}

// NewRasterizer starts a rasterizer and its worker pool.
func NewRasterizer(opts ...Option) *Rasterizer {
	o := applyOptions(opts)
	return &Rasterizer{
		opts: o,
		pool: parallel.NewWorkerPool(o.workers),
	}
}

// Close stops the worker pool.
func (r *Rasterizer) Close() {
	r.pool.Close()
}

// stage is one rasterizer variant: where quad corners come from and how a
// fragment resolves.
type stage interface {
	quadCount() int
	// corner returns the clip-space position of corner k of quad q, with
	// z already holding the encoded depth times w.
	corner(q, k int) Vec4
	// shade runs the fragment stage at framebuffer point frag.
	shade(q int, frag Vec2) (RGBA, bool)
}

// DrawQuads rasterizes authoring-time quads. Each quad's corners go
// through ClipFromWorld and the WorldFromTex of its origin; each fragment
// is mapped back through WorldFromFragment and TexFromWorld before the
// winding test.
func (r *Rasterizer) DrawQuads(t *Target, u Uniforms, b QuadBatch) {
	if len(b.Quads) == 0 {
		return
	}
	origins := b.Origins
	if len(origins) == 0 {
		origins = []Origin{IdentityOrigin()}
	}

	if r.opts.accelerated {
		if a := RegisteredAccelerator(); a != nil {
			l, err := a.DrawQuads(t.width, t.height, t.viewport, u, origins, b.Quads, b.Vertices, b.Segments)
			if err == nil {
				t.Composite(l)
				return
			}
			r.logFallback(a, err)
		}
	}

	st := &quadStage{
		quads:    b.Quads,
		vertices: b.Vertices,
		segments: b.Segments,
	}
	for _, o := range origins {
		st.clipFromTex = append(st.clipFromTex, u.ClipFromWorld.Mul(o.WorldFromTex))
		st.texFromFrag = append(st.texFromFrag, o.TexFromWorld.Mul(u.WorldFromFragment))
	}
	r.draw(t, st)
}

// DrawShards rasterizes preprocessed shards. Segments are already in
// framebuffer coordinates, so fragments test their own position directly.
func (r *Rasterizer) DrawShards(t *Target, out *Output) {
	if out.Shards() == 0 {
		return
	}

	if r.opts.accelerated {
		if a := RegisteredAccelerator(); a != nil {
			l, err := a.DrawShards(t.width, t.height, t.viewport, out)
			if err == nil {
				t.Composite(l)
				return
			}
			r.logFallback(a, err)
		}
	}

	r.draw(t, &shardStage{out: out})
}

func (r *Rasterizer) logFallback(a Accelerator, err error) {
	if !errors.Is(err, ErrFallbackToCPU) {
		Logger().Warn("quadfill: accelerated draw failed", "accelerator", a.Name(), "err", err)
	}
}

type quadStage struct {
	quads       []Quad
	vertices    []Vertex
	segments    []Segment
	clipFromTex []Mat4
	texFromFrag []Mat4
}

func (s *quadStage) quadCount() int { return len(s.quads) }

func (s *quadStage) corner(q, k int) Vec4 {
	qd := &s.quads[q]
	pos := s.clipFromTex[qd.OriginIndex].Apply2(QuadCorner(qd.BB, k))
	pos.Z = EncodeDepth(qd.ClipDepth) * pos.W
	return pos
}

func (s *quadStage) shade(q int, frag Vec2) (RGBA, bool) {
	qd := &s.quads[q]
	p := s.texFromFrag[qd.OriginIndex].Project2(frag)
	if w := WindingNumber(p, s.vertices, s.segments, qd.Segments); NonZero.Fills(w) {
		return qd.Color, true
	}
	return RGBA{}, false
}

type shardStage struct {
	out *Output
}

func (s *shardStage) quadCount() int { return s.out.Shards() }

func (s *shardStage) corner(q, k int) Vec4 {
	v := &s.out.Vertices[q*VerticesPerQuad+k]
	pos := v.Position
	pos.Z = EncodeDepth(v.ClipDepth) * pos.W
	return pos
}

func (s *shardStage) shade(q int, frag Vec2) (RGBA, bool) {
	// Flat attributes come from the provoking (first) vertex.
	v := &s.out.Vertices[q*VerticesPerQuad]
	var w int32
	for i := v.Segments.Lo; i < v.Segments.Hi; i++ {
		w += s.out.Segments[i].Winding(frag)
	}
	if NonZero.Fills(w) {
		return v.Color, true
	}
	return RGBA{}, false
}

// triangle is a set-up triangle in framebuffer coordinates, oriented so
// that its area is positive.
type triangle struct {
	quad                   int
	x, y                   [3]float64
	z                      [3]float32
	flatZ                  bool
	area                   float64
	minX, minY, maxX, maxY int
}

// draw runs the fixed-function part of the pipeline for one stage.
func (r *Rasterizer) draw(t *Target, st stage) {
	vp := t.viewport
	clipX0 := max(int(math.Floor(float64(vp.X))), 0)
	clipY0 := max(int(math.Floor(float64(vp.Y))), 0)
	clipX1 := min(int(math.Ceil(float64(vp.X+vp.Width))), t.width)
	clipY1 := min(int(math.Ceil(float64(vp.Y+vp.Height))), t.height)
	if clipX1 <= clipX0 || clipY1 <= clipY0 {
		return
	}

	n := st.quadCount()
	tris := make([]triangle, 2*n)
	valid := make([]bool, 2*n)
	r.pool.ForEach(n, 0, func(lo, hi int) {
		for q := lo; q < hi; q++ {
			var c [VerticesPerQuad]Vec4
			for k := range c {
				c[k] = st.corner(q, k)
			}
			for h := range 2 {
				tri, ok := setupTriangle(q, c[3*h], c[3*h+1], c[3*h+2], vp)
				if ok {
					tri.minX = max(tri.minX, clipX0)
					tri.minY = max(tri.minY, clipY0)
					tri.maxX = min(tri.maxX, clipX1-1)
					tri.maxY = min(tri.maxY, clipY1-1)
					ok = tri.minX <= tri.maxX && tri.minY <= tri.maxY
				}
				tris[2*q+h] = tri
				valid[2*q+h] = ok
			}
		}
	})

	bands := parallel.Bands(clipY0, clipY1, r.opts.bandHeight)
	Logger().Debug("quadfill: rasterize", "quads", n, "bands", len(bands), "workers", r.pool.Workers())

	work := make([]func(), len(bands))
	for i, b := range bands {
		work[i] = func() {
			for j := range tris {
				if valid[j] {
					rasterizeBand(t, st, &tris[j], b)
				}
			}
		}
	}
	r.pool.ExecuteAll(work)
}

// setupTriangle performs the homogeneous divide and viewport transform.
// Triangles with a vertex at or behind the eye (w <= 0) or with no area
// are dropped.
func setupTriangle(q int, v0, v1, v2 Vec4, vp Viewport) (triangle, bool) {
	tri := triangle{quad: q}
	for i, v := range [3]Vec4{v0, v1, v2} {
		if v.W <= 0 {
			return tri, false
		}
		nx := float64(v.X) / float64(v.W)
		ny := float64(v.Y) / float64(v.W)
		tri.x[i] = float64(vp.X) + (nx+1)*float64(vp.Width)/2
		tri.y[i] = float64(vp.Y) + (1-ny)*float64(vp.Height)/2
		tri.z[i] = v.Z / v.W
	}

	tri.area = edge(tri.x[0], tri.y[0], tri.x[1], tri.y[1], tri.x[2], tri.y[2])
	if tri.area == 0 || math.IsNaN(tri.area) {
		return tri, false
	}
	if tri.area < 0 {
		tri.x[1], tri.x[2] = tri.x[2], tri.x[1]
		tri.y[1], tri.y[2] = tri.y[2], tri.y[1]
		tri.z[1], tri.z[2] = tri.z[2], tri.z[1]
		tri.area = -tri.area
	}
	tri.flatZ = tri.z[0] == tri.z[1] && tri.z[1] == tri.z[2]

	minX := math.Min(tri.x[0], math.Min(tri.x[1], tri.x[2]))
	maxX := math.Max(tri.x[0], math.Max(tri.x[1], tri.x[2]))
	minY := math.Min(tri.y[0], math.Min(tri.y[1], tri.y[2]))
	maxY := math.Max(tri.y[0], math.Max(tri.y[1], tri.y[2]))
	// Pixel i is sampled at i+0.5.
	tri.minX = int(math.Ceil(minX - 0.5))
	tri.maxX = int(math.Floor(maxX - 0.5))
	tri.minY = int(math.Ceil(minY - 0.5))
	tri.maxY = int(math.Floor(maxY - 0.5))
	return tri, true
}

// edge is the signed doubled area of (a, b, p): positive when p lies on
// the interior side of a->b for a positively oriented triangle.
func edge(ax, ay, bx, by, px, py float64) float64 {
	return (bx-ax)*(py-ay) - (by-ay)*(px-ax)
}

// owns reports whether a sample exactly on edge a->b belongs to this
// triangle: the top-left rule, for y growing down. Reversing the edge
// flips the answer, so of two triangles sharing an edge exactly one
// covers samples on it.
func owns(ax, ay, bx, by float64) bool {
	dy := by - ay
	return dy < 0 || (dy == 0 && bx-ax > 0)
}

func inside(e float64, ax, ay, bx, by float64) bool {
	return e > 0 || (e == 0 && owns(ax, ay, bx, by))
}

func rasterizeBand(t *Target, st stage, tri *triangle, b parallel.Band) {
	y0 := max(tri.minY, b.Y0)
	y1 := min(tri.maxY, b.Y1-1)
	x := tri.x
	y := tri.y
	for py := y0; py <= y1; py++ {
		sy := float64(py) + 0.5
		row := py * t.width
		for px := tri.minX; px <= tri.maxX; px++ {
			sx := float64(px) + 0.5
			e0 := edge(x[1], y[1], x[2], y[2], sx, sy)
			e1 := edge(x[2], y[2], x[0], y[0], sx, sy)
			e2 := edge(x[0], y[0], x[1], y[1], sx, sy)
			if !inside(e0, x[1], y[1], x[2], y[2]) ||
				!inside(e1, x[2], y[2], x[0], y[0]) ||
				!inside(e2, x[0], y[0], x[1], y[1]) {
				continue
			}

			z := tri.z[0]
			if !tri.flatZ {
				z = float32((e0*float64(tri.z[0]) + e1*float64(tri.z[1]) + e2*float64(tri.z[2])) / tri.area)
			}
			if z < 0 || z > 1 {
				continue
			}
			i := row + px
			if z < t.depth[i] {
				continue
			}
			c, ok := st.shade(tri.quad, Vec2{X: float32(sx), Y: float32(sy)})
			if !ok {
				continue
			}
			t.write(i, c, z)
		}
	}
}
