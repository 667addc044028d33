package quadfill

import "testing"

// testUniforms returns uniforms for a w x h viewport at the target origin
// showing scale world units from the center to the top edge.
func testUniforms(t testing.TB, w, h int, scale float32) Uniforms {
	t.Helper()
	vp := Viewport{Width: float32(w), Height: float32(h)}
	u, err := NewUniforms(vp, OrthoCamera(vp, scale))
	if err != nil {
		t.Fatalf("NewUniforms failed: %v", err)
	}
	return u
}

// renderCheck draws the check model at the world origin through the
// preprocessed-shard pipeline on a 64x64 white target.
func renderCheck(t testing.TB, opts ...Option) *Target {
	t.Helper()
	m := CheckModel()
	var arena Arena
	objects := []Object{arena.Object(m, 0, Identity())}
	u := testUniforms(t, 64, 64, 1)

	out := NewOutput(&arena)
	Preprocess(m, objects, u, out, opts...)

	target := NewTarget(64, 64)
	target.Clear(White)
	r := NewRasterizer(opts...)
	defer r.Close()
	r.DrawShards(target, out)
	return target
}

// assertSameImage fails when two targets differ in any pixel.
func assertSameImage(t *testing.T, want, got *Target) {
	t.Helper()
	if want.Width() != got.Width() || want.Height() != got.Height() {
		t.Fatalf("size %dx%d, want %dx%d", got.Width(), got.Height(), want.Width(), want.Height())
	}
	for y := range want.Height() {
		for x := range want.Width() {
			if want.Pixel(x, y) != got.Pixel(x, y) {
				t.Fatalf("pixel (%d, %d) = %v, want %v", x, y, got.Pixel(x, y), want.Pixel(x, y))
			}
		}
	}
}

// countDiff returns the number of pixels that differ between two targets
// and the number of pixels either one changed from background bg.
func countDiff(a, b *Target, bg RGBA) (diff, covered int) {
	for y := range a.Height() {
		for x := range a.Width() {
			pa, pb := a.Pixel(x, y), b.Pixel(x, y)
			if pa != pb {
				diff++
			}
			if pa != bg || pb != bg {
				covered++
			}
		}
	}
	return diff, covered
}
