package quadfill

import (
	"image"
	"testing"

	"golang.org/x/image/vector"
)

func TestDrawQuadsMatchesWinding(t *testing.T) {
	m := CheckModel()
	u := testUniforms(t, 64, 64, 1)
	b, err := ModelBatch(m, []Object{{WorldFromObject: Identity()}})
	if err != nil {
		t.Fatal(err)
	}
	target := NewTarget(64, 64)
	target.Clear(White)
	r := NewRasterizer()
	defer r.Close()
	r.DrawQuads(target, u, b)

	red, blue := m.Shards[0], m.Shards[1]
	filled := 0
	for y := range 64 {
		for x := range 64 {
			p := u.WorldFromFragment.Project2(V2(float32(x)+0.5, float32(y)+0.5))
			want := White
			switch {
			case WindingNumber(p, m.Vertices, m.Segments, blue.Segments) != 0:
				want = blue.Color
			case WindingNumber(p, m.Vertices, m.Segments, red.Segments) != 0:
				want = red.Color
			}
			if got := target.Pixel(x, y); got != want {
				t.Fatalf("pixel (%d, %d) = %v, want %v", x, y, got, want)
			}
			if want != White {
				filled++
			}
		}
	}
	if filled < 100 {
		t.Errorf("only %d pixels filled", filled)
	}
}

func TestDrawShardsMatchesDrawQuads(t *testing.T) {
	shards := renderCheck(t)

	m := CheckModel()
	b, err := ModelBatch(m, []Object{{WorldFromObject: Identity()}})
	if err != nil {
		t.Fatal(err)
	}
	quads := NewTarget(64, 64)
	quads.Clear(White)
	r := NewRasterizer()
	defer r.Close()
	r.DrawQuads(quads, testUniforms(t, 64, 64, 1), b)

	diff, covered := countDiff(shards, quads, White)
	if covered == 0 || diff*50 > covered {
		t.Errorf("%d of %d covered pixels differ", diff, covered)
	}
}

func TestDrawQuadsOrigins(t *testing.T) {
	m := CheckModel()
	var a Arena
	objects := []Object{
		a.Object(m, 0, Translate(-0.5, 0.3, 0).Mul(Scale(0.5, 0.5, 1))),
		a.Object(m, 0, Translate(0.4, -0.4, 0).Mul(RotateZ(1)).Mul(Scale(0.6, 0.6, 1))),
		a.Object(m, 0, Translate(0.5, 0.5, 0).Mul(Scale(-0.4, 0.4, 1))),
	}
	u := testUniforms(t, 96, 64, 1)
	r := NewRasterizer()
	defer r.Close()

	b, err := ModelBatch(m, objects)
	if err != nil {
		t.Fatal(err)
	}
	if err := ValidateBatch(b); err != nil {
		t.Fatal(err)
	}
	quads := NewTarget(96, 64)
	quads.Clear(White)
	r.DrawQuads(quads, u, b)

	out := NewOutput(&a)
	Preprocess(m, objects, u, out)
	shards := NewTarget(96, 64)
	shards.Clear(White)
	r.DrawShards(shards, out)

	diff, covered := countDiff(shards, quads, White)
	if covered < 100 || diff*50 > covered {
		t.Errorf("%d of %d covered pixels differ", diff, covered)
	}
}

func TestDrawQuadsEmptyOrigins(t *testing.T) {
	m := CheckModel()
	u := testUniforms(t, 64, 64, 1)
	b, err := ModelBatch(m, []Object{{WorldFromObject: Identity()}})
	if err != nil {
		t.Fatal(err)
	}
	r := NewRasterizer()
	defer r.Close()

	explicit := NewTarget(64, 64)
	r.DrawQuads(explicit, u, b)
	b.Origins = nil
	implicit := NewTarget(64, 64)
	r.DrawQuads(implicit, u, b)

	assertSameImage(t, explicit, implicit)
}

func TestRasterizerWorkers(t *testing.T) {
	want := renderCheck(t, WithWorkers(1))
	for _, opts := range [][]Option{
		{WithWorkers(4)},
		{WithWorkers(3), WithBandHeight(1)},
		{WithBandHeight(100)},
	} {
		assertSameImage(t, want, renderCheck(t, opts...))
	}
}

// countStage records how often each pixel is shaded.
type countStage struct {
	quads  []Rect
	counts []int32
	width  int
}

func (s *countStage) quadCount() int { return len(s.quads) }

func (s *countStage) corner(q, k int) Vec4 {
	p := QuadCorner(s.quads[q], k)
	return Vec4{X: p.X, Y: p.Y, W: 1}
}

func (s *countStage) shade(_ int, frag Vec2) (RGBA, bool) {
	s.counts[int(frag.Y)*s.width+int(frag.X)]++
	return RGBA{}, false
}

func TestRasterizerCoversSamplesOnce(t *testing.T) {
	// Quad corners land exactly on pixel centers: x = 8.5, 24.5 and 40.5,
	// y = 8.5 and 24.5 in framebuffer coordinates.
	clip := func(fx, fy float32) Vec2 { return V2(fx/32-1, 1-fy/32) }
	a, b, c := clip(8.5, 24.5), clip(24.5, 8.5), clip(40.5, 8.5)
	st := &countStage{
		quads: []Rect{
			{a.X, a.Y, b.X, b.Y},
			{b.X, a.Y, c.X, c.Y},
		},
		counts: make([]int32, 64*64),
		width:  64,
	}
	r := NewRasterizer(WithBandHeight(4))
	defer r.Close()
	r.draw(NewTarget(64, 64), st)

	total := int32(0)
	for i, n := range st.counts {
		if n > 1 {
			t.Fatalf("pixel (%d, %d) shaded %d times", i%64, i/64, n)
		}
		total += n
	}
	if total != 32*16 {
		t.Errorf("shaded %d samples, want %d", total, 32*16)
	}
	// Top-left rule: the left and top edges are inside, right and bottom
	// are not.
	if st.counts[8*64+8] != 1 || st.counts[23*64+39] != 1 {
		t.Error("top-left samples should be covered")
	}
	if st.counts[24*64+20] != 0 || st.counts[12*64+40] != 0 {
		t.Error("bottom and right samples should not be covered")
	}
}

func TestDrawShardsDepth(t *testing.T) {
	m := &Model{}
	m.BuildFrame("red").Shard(Red, 0).Rect(-1, -1, 2, 2).Done()
	m.BuildFrame("blue").Shard(Blue, 0).Rect(-0.5, -0.5, 1, 1).Done()
	u := testUniforms(t, 32, 32, 1)

	tests := []struct {
		name      string
		blueClip  uint32
		redClip   uint32
		wantColor RGBA
	}{
		// Blue is drawn first in both cases.
		{"higher depth survives later draw", 1, 0, Blue},
		{"equal depth lets later draw win", 0, 0, Red},
		{"later higher depth wins", 0, 1, Red},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			objects := []Object{
				{Frame: 1, WorldFromObject: Identity(), ClipOffset: tt.blueClip, ShardOffset: 0, SegmentOffset: 0},
				{Frame: 0, WorldFromObject: Identity(), ClipOffset: tt.redClip, ShardOffset: 1, SegmentOffset: 4},
			}
			out := &Output{
				Vertices: make([]ShardVertex, 2*VerticesPerQuad),
				Segments: make([]FrameSegment, 8),
			}
			if err := ValidateObjects(m, objects, out); err != nil {
				t.Fatal(err)
			}
			Preprocess(m, objects, u, out)

			target := NewTarget(32, 32)
			r := NewRasterizer()
			defer r.Close()
			r.DrawShards(target, out)

			if got := target.Pixel(16, 16); got != tt.wantColor {
				t.Errorf("center = %v, want %v", got, tt.wantColor)
			}
			if got := target.Pixel(1, 1); got != Red {
				t.Errorf("corner = %v, want red", got)
			}
			want := EncodeDepth(max(tt.blueClip, tt.redClip))
			if got := target.Depth(16, 16); got != want {
				t.Errorf("center depth = %g, want %g", got, want)
			}
		})
	}
}

func TestDrawShardsViewport(t *testing.T) {
	m := CheckModel()
	var a Arena
	objects := []Object{a.Object(m, 0, Identity())}
	r := NewRasterizer()
	defer r.Close()

	sub := Viewport{X: 16, Y: 8, Width: 32, Height: 32}
	u, err := NewUniforms(sub, Identity())
	if err != nil {
		t.Fatal(err)
	}
	out := NewOutput(&a)
	Preprocess(m, objects, u, out)
	big := NewTarget(64, 64)
	big.Clear(White)
	big.SetViewport(sub)
	r.DrawShards(big, out)

	for y := range 64 {
		for x := range 64 {
			insideVP := x >= 16 && x < 48 && y >= 8 && y < 40
			if !insideVP && big.Pixel(x, y) != White {
				t.Fatalf("pixel (%d, %d) outside the viewport was written", x, y)
			}
		}
	}

	u, err = NewUniforms(Viewport{Width: 32, Height: 32}, Identity())
	if err != nil {
		t.Fatal(err)
	}
	Preprocess(m, objects, u, out)
	small := NewTarget(32, 32)
	small.Clear(White)
	r.DrawShards(small, out)

	diff, covered := 0, 0
	for y := range 32 {
		for x := range 32 {
			want, got := small.Pixel(x, y), big.Pixel(x+16, y+8)
			if want != got {
				diff++
			}
			if want != White {
				covered++
			}
		}
	}
	if covered == 0 || diff*20 > covered {
		t.Errorf("%d of %d covered pixels differ from the unshifted render", diff, covered)
	}
}

func TestDrawShardsClipsToTarget(t *testing.T) {
	// A viewport hanging off the target is clipped, not wrapped.
	m := CheckModel()
	var a Arena
	objects := []Object{a.Object(m, 0, Identity())}
	vp := Viewport{X: -32, Y: -32, Width: 64, Height: 64}
	u, err := NewUniforms(vp, Identity())
	if err != nil {
		t.Fatal(err)
	}
	out := NewOutput(&a)
	Preprocess(m, objects, u, out)

	target := NewTarget(40, 40)
	target.Clear(White)
	target.SetViewport(vp)
	r := NewRasterizer()
	defer r.Close()
	r.DrawShards(target, out)

	for y := range 40 {
		for x := range 40 {
			if (x >= 32 || y >= 32) && target.Pixel(x, y) != White {
				t.Fatalf("pixel (%d, %d) written outside the viewport", x, y)
			}
		}
	}
}

// vectorShapes builds one shard per shape in pixel coordinates on a
// 64x64 target, without overlaps between shards.
func vectorShapes() *Model {
	m := &Model{}
	m.BuildFrame("shapes").
		Shard(Red, 0).Star(20, 20, 16, 7, 5).
		Shard(Blue, 1).Circle(44, 44, 16).Ellipse(44, 44, 8, -8).
		Shard(Green, 2).RoundRect(2, 42, 22, 18, 5).
		Shard(White, 3).MoveTo(36, 4).QuadTo(60, 4, 60, 26).LineTo(36, 26).
		Done()
	return m
}

// vectorMask rasterizes the segments of one shard with x/image/vector.
func vectorMask(m *Model, sh Shard, w, h int) *image.Alpha {
	z := vector.NewRasterizer(w, h)
	var pen Vec2
	started := false
	for _, s := range m.Segments[sh.Segments.Lo:sh.Segments.Hi] {
		a, c, b := m.segmentPoints(s)
		if !started || a != pen {
			if started {
				z.ClosePath()
			}
			z.MoveTo(a.X, a.Y)
			started = true
		}
		if s.Kind == Quadratic {
			z.QuadTo(c.X, c.Y, b.X, b.Y)
		} else {
			z.LineTo(b.X, b.Y)
		}
		pen = b
	}
	if started {
		z.ClosePath()
	}
	dst := image.NewAlpha(image.Rect(0, 0, w, h))
	z.Draw(dst, dst.Bounds(), image.Opaque, image.Point{})
	return dst
}

// uniformAlpha reports whether the 3x3 neighborhood of (x, y) has alpha a.
func uniformAlpha(img *image.Alpha, x, y int, a uint8) bool {
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			p := image.Pt(x+dx, y+dy)
			if !p.In(img.Rect) {
				continue
			}
			if img.AlphaAt(p.X, p.Y).A != a {
				return false
			}
		}
	}
	return true
}

func TestRasterizerAgainstVector(t *testing.T) {
	const size = 64
	m := vectorShapes()
	if err := m.Validate(); err != nil {
		t.Fatal(err)
	}

	masks := make([]*image.Alpha, len(m.Shards))
	for i, sh := range m.Shards {
		masks[i] = vectorMask(m, sh, size, size)
	}

	// World space is pixel space.
	vp := Viewport{Width: size, Height: size}
	u, err := NewUniforms(vp, ClipFromFragment(vp))
	if err != nil {
		t.Fatal(err)
	}

	render := map[string]func(t *testing.T, r *Rasterizer, target *Target){
		"quads": func(t *testing.T, r *Rasterizer, target *Target) {
			b, err := ModelBatch(m, []Object{{WorldFromObject: Identity()}})
			if err != nil {
				t.Fatal(err)
			}
			r.DrawQuads(target, u, b)
		},
		"shards": func(_ *testing.T, r *Rasterizer, target *Target) {
			var a Arena
			objects := []Object{a.Object(m, 0, Identity())}
			out := NewOutput(&a)
			Preprocess(m, objects, u, out)
			r.DrawShards(target, out)
		},
	}
	for name, drawFn := range render {
		t.Run(name, func(t *testing.T) {
			target := NewTarget(size, size)
			target.Clear(Black)
			r := NewRasterizer()
			defer r.Close()
			drawFn(t, r, target)

			inside, outside := 0, 0
			for y := range size {
				for x := range size {
					empty := true
					for i, mask := range masks {
						if uniformAlpha(mask, x, y, 0xff) {
							inside++
							if got := target.Pixel(x, y); got != m.Shards[i].Color {
								t.Fatalf("pixel (%d, %d) = %v, want shard %d color %v", x, y, got, i, m.Shards[i].Color)
							}
						}
						if !uniformAlpha(mask, x, y, 0) {
							empty = false
						}
					}
					if empty {
						outside++
						if got := target.Pixel(x, y); got != Black {
							t.Fatalf("pixel (%d, %d) = %v, want background", x, y, got)
						}
					}
				}
			}
			if inside < 500 || outside < 500 {
				t.Errorf("checked %d inside and %d outside pixels", inside, outside)
			}
		})
	}
}

func BenchmarkDrawShards(b *testing.B) {
	m := CheckModel()
	var a Arena
	objects := make([]Object, 0, 400)
	for i := range cap(objects) {
		mat := Translate(float32(i%20)*0.1-1, float32(i/20)*0.1-1, 0).Mul(Scale(0.1, 0.1, 1))
		objects = append(objects, a.Object(m, 0, mat))
	}
	u := testUniforms(b, 512, 512, 1)
	out := NewOutput(&a)
	Preprocess(m, objects, u, out)
	target := NewTarget(512, 512)
	r := NewRasterizer()
	defer r.Close()

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		target.ClearDepth()
		r.DrawShards(target, out)
	}
}
