package quadfill

import "testing"

func TestQuadCorner(t *testing.T) {
	bb := Rect{-1, -2, 3, 4}
	want := [VerticesPerQuad]Vec2{
		{-1, -2}, {-1, 4}, {3, -2},
		{3, 4}, {3, -2}, {-1, 4},
	}
	for k, w := range want {
		if got := QuadCorner(bb, k); got != w {
			t.Errorf("QuadCorner(%d) = %v, want %v", k, got, w)
		}
	}
}

func TestVertexQuad(t *testing.T) {
	tests := []struct {
		index  uint32
		quad   uint32
		corner int
	}{
		{0, 0, 0},
		{5, 0, 5},
		{6, 1, 0},
		{13, 2, 1},
		{6*1000 + 3, 1000, 3},
	}
	for _, tt := range tests {
		q, c := VertexQuad(tt.index)
		if q != tt.quad || c != tt.corner {
			t.Errorf("VertexQuad(%d) = (%d, %d), want (%d, %d)", tt.index, q, c, tt.quad, tt.corner)
		}
	}
}

func TestEncodeDepth(t *testing.T) {
	tests := []struct {
		clip uint32
		want float32
	}{
		{0, 0},
		{1, 1.0 / (1 << 24)},
		{1 << 23, 0.5},
		{MaxClipDepth, float32(MaxClipDepth) / (1 << 24)},
	}
	for _, tt := range tests {
		got := EncodeDepth(tt.clip)
		if got != tt.want {
			t.Errorf("EncodeDepth(%d) = %g, want %g", tt.clip, got, tt.want)
		}
		if back := DecodeDepth(got); back != tt.clip {
			t.Errorf("DecodeDepth(EncodeDepth(%d)) = %d", tt.clip, back)
		}
	}
	if EncodeDepth(MaxClipDepth) >= 1 {
		t.Error("largest clip depth must encode below 1")
	}
}

func TestEncodeDepthMonotonic(t *testing.T) {
	for _, base := range []uint32{0, 1000, 1 << 20, MaxClipDepth - 100} {
		for c := base; c < base+100; c++ {
			if !(EncodeDepth(c) < EncodeDepth(c+1)) {
				t.Fatalf("EncodeDepth(%d) >= EncodeDepth(%d)", c, c+1)
			}
		}
	}
}

func TestEncodeSegment(t *testing.T) {
	tests := []struct {
		seg  Segment
		want [4]int32
	}{
		{LineSegment(3, 7), [4]int32{3, 7, -1, 0}},
		{QuadSegment(1, 2, 4), [4]int32{1, 4, 2, 0}},
		{LineSegment(0, 0), [4]int32{0, 0, -1, 0}},
	}
	for _, tt := range tests {
		got := EncodeSegment(tt.seg)
		if got != tt.want {
			t.Errorf("EncodeSegment(%+v) = %v, want %v", tt.seg, got, tt.want)
		}
		if back := DecodeSegment(got); back != tt.seg {
			t.Errorf("DecodeSegment(%v) = %+v, want %+v", got, back, tt.seg)
		}
	}
}

func TestSegmentKindString(t *testing.T) {
	if Line.String() != "line" || Quadratic.String() != "quadratic" {
		t.Errorf("String() = %q, %q", Line, Quadratic)
	}
}
