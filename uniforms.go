package quadfill

import "fmt"

// Viewport is the framebuffer rectangle clip space maps onto, in pixels.
type Viewport struct {
	X, Y          float32
	Width, Height float32
}

// FragmentFromClip maps clip space to framebuffer coordinates: x grows
// right from vp.X, y grows down from vp.Y.
func FragmentFromClip(vp Viewport) Mat4 {
	return Translate(vp.X, vp.Y, 0).
		Mul(Scale(vp.Width/2, -vp.Height/2, 1)).
		Mul(Translate(1, -1, 0))
}

// ClipFromFragment is the inverse of FragmentFromClip.
func ClipFromFragment(vp Viewport) Mat4 {
	return Translate(-1, 1, 0).
		Mul(Scale(2/vp.Width, -2/vp.Height, 1)).
		Mul(Translate(-vp.X, -vp.Y, 0))
}

// OrthoCamera returns a clip-from-world transform for a camera centered
// on the world origin that shows scale world units from the center to
// the top edge, keeping pixels square.
func OrthoCamera(vp Viewport, scale float32) Mat4 {
	aspect := vp.Width / vp.Height
	return Scale(1/(aspect*scale), 1/scale, 1)
}

// Uniforms holds the transforms shared by one draw.
type Uniforms struct {
	ClipFromWorld     Mat4
	WorldFromFragment Mat4
	FragmentFromClip  Mat4
}

// NewUniforms derives the draw transforms from a viewport and camera.
func NewUniforms(vp Viewport, clipFromWorld Mat4) (Uniforms, error) {
	if vp.Width <= 0 || vp.Height <= 0 {
		return Uniforms{}, fmt.Errorf("%w: viewport %vx%v", ErrEmptyViewport, vp.Width, vp.Height)
	}
	worldFromClip, ok := clipFromWorld.Invert()
	if !ok {
		return Uniforms{}, fmt.Errorf("%w: clip from world", ErrSingularTransform)
	}
	return Uniforms{
		ClipFromWorld:     clipFromWorld,
		WorldFromFragment: worldFromClip.Mul(ClipFromFragment(vp)),
		FragmentFromClip:  FragmentFromClip(vp),
	}, nil
}

// MaxOrigins is the largest origin table one draw can address.
const MaxOrigins = 5

// Origin is a selectable coordinate space, such as one texture atlas.
// Quads referencing it are authored in tex space.
type Origin struct {
	WorldFromTex Mat4
	TexFromWorld Mat4
}

// NewOrigin returns an origin for the given tex-to-world transform.
func NewOrigin(worldFromTex Mat4) (Origin, error) {
	inv, ok := worldFromTex.Invert()
	if !ok {
		return Origin{}, fmt.Errorf("%w: world from tex", ErrSingularTransform)
	}
	return Origin{WorldFromTex: worldFromTex, TexFromWorld: inv}, nil
}

// IdentityOrigin is the origin whose tex space is world space.
func IdentityOrigin() Origin {
	return Origin{WorldFromTex: Identity(), TexFromWorld: Identity()}
}
