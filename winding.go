package quadfill

import "math"

// Winding contributions follow a ray cast from the test point in +x.
// A crossing where the segment moves toward +y counts +1, toward -y
// counts -1, so a counterclockwise outline in a y-up space winds +1.
// A point is "above" an endpoint's y when the endpoint y is strictly
// greater; shared endpoints therefore count exactly once.

// lineWindingTable maps the 3-bit line code to its contribution.
// Bit 0: start above p. Bit 1: end above p. Bit 2: crossing right of p.
var lineWindingTable = [8]int32{
	0,  // below, below, left
	0,  // above, below, left
	0,  // below, above, left
	0,  // above, above, left
	0,  // below, below, right
	-1, // above, below, right
	+1, // below, above, right
	0,  // above, above, right
}

// WindingLine returns the signed crossing of the +x ray from p with the
// line from a to b.
func WindingLine(p, a, b Vec2) int32 {
	// x offset of the crossing relative to p, blended from both
	// endpoints. Only read when the endpoints straddle p.Y, so the
	// divisions are never 0/0 on the path that uses them.
	s := (b.X-p.X)*((p.Y-a.Y)/(b.Y-a.Y)) + (a.X-p.X)*((p.Y-b.Y)/(a.Y-b.Y))

	code := b2u(a.Y > p.Y) | b2u(b.Y > p.Y)<<1 | b2u(s > 0)<<2
	return lineWindingTable[code]
}

// quadRootCodes packs, two bits per case, which roots of the y equation
// are real crossings. The case index is start, control and end being
// above p, one bit each. Bit 0 of the result selects the falling root
// t1, bit 1 the rising root t2.
const quadRootCodes = 0x2E74

// WindingQuadratic returns the net signed crossing of the +x ray from p
// with the quadratic Bezier from a through control c to b.
func WindingQuadratic(p, a, c, b Vec2) int32 {
	// Work relative to p. The curve is A t^2 - 2 B t + P0 with
	// A = p0 - 2 p1 + p2 and B = p0 - p1.
	p0 := a.Sub(p)
	p1 := c.Sub(p)
	p2 := b.Sub(p)

	shift := b2u(p0.Y > 0)<<1 | b2u(p1.Y > 0)<<2 | b2u(p2.Y > 0)<<3
	code := (quadRootCodes >> shift) & 3
	if code == 0 {
		return 0
	}

	ax := p0.X - 2*p1.X + p2.X
	ay := p0.Y - 2*p1.Y + p2.Y
	bx := p0.X - p1.X
	by := p0.Y - p1.Y
	cy := p0.Y

	d := float32(math.Sqrt(float64(max32(by*by-ay*cy, 0))))

	var t1, t2 float32
	if ay == 0 {
		// Collinear y: a single root of the linear equation. Only one of
		// t1 and t2 is used in this case, so both get the same value.
		t1 = cy / (2 * by)
		t2 = t1
	} else {
		// Each root uses whichever of (B -+ d)/A and C/(B +- d) does
		// not subtract nearly equal numbers.
		t1 = (by - d) / ay
		if by > 0 {
			t1 = cy / (by + d)
		}
		t2 = (by + d) / ay
		if by < 0 {
			t2 = cy / (by - d)
		}
	}

	var w int32
	if code&1 != 0 && (ax*t1-2*bx)*t1+p0.X > 0 {
		w--
	}
	if code&2 != 0 && (ax*t2-2*bx)*t2+p0.X > 0 {
		w++
	}
	return w
}

// Winding returns the contribution of s for test point p, dispatching on
// the segment kind.
func (s Segment) Winding(p Vec2, vertices []Vertex) int32 {
	switch s.Kind {
	case Quadratic:
		return WindingQuadratic(p, vertices[s.A], vertices[s.C], vertices[s.B])
	default:
		return WindingLine(p, vertices[s.A], vertices[s.B])
	}
}

// WindingNumber sums the contributions of segments[r.Lo:r.Hi] at p.
func WindingNumber(p Vec2, vertices []Vertex, segments []Segment, r Range) int32 {
	var w int32
	for i := r.Lo; i < r.Hi; i++ {
		w += segments[i].Winding(p, vertices)
	}
	return w
}

// FillRule decides coverage from a winding number.
type FillRule uint8

const (
	// NonZero fills points whose winding number is not zero.
	NonZero FillRule = iota
)

// Fills reports whether winding w is inside under the rule.
func (FillRule) Fills(w int32) bool {
	return w != 0
}

func b2u(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}
