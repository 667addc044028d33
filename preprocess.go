package quadfill

import (
	"errors"

	"github.com/gogpu/quadfill/internal/parallel"
)

// ShardVertex is one corner of an expanded shard, already in clip space.
// Segments indexes the flat FrameSegment array.
type ShardVertex struct {
	Position  Vec4
	Color     RGBA
	Segments  Range
	ClipDepth uint32
}

// FrameSegment is a segment projected into framebuffer coordinates. Lines
// store their start point as Control.
type FrameSegment struct {
	Kind    SegmentKind
	Start   Vec2
	Control Vec2
	End     Vec2
}

// Winding returns the contribution of s for the framebuffer point p.
func (s FrameSegment) Winding(p Vec2) int32 {
	if s.Kind == Quadratic {
		return WindingQuadratic(p, s.Start, s.Control, s.End)
	}
	return WindingLine(p, s.Start, s.End)
}

// Output holds the two preprocessor arenas.
type Output struct {
	Vertices []ShardVertex
	Segments []FrameSegment
}

// NewOutput allocates arenas large enough for everything a has placed.
func NewOutput(a *Arena) *Output {
	return &Output{
		Vertices: make([]ShardVertex, int(a.Shards())*VerticesPerQuad),
		Segments: make([]FrameSegment, a.Segments()),
	}
}

// Shards returns the number of shards the output holds.
func (o *Output) Shards() int {
	return len(o.Vertices) / VerticesPerQuad
}

// PreprocessObject expands one object into out. It writes only the
// object's own placement, so objects with disjoint placements can be
// expanded concurrently. Offsets outside the arenas panic.
func PreprocessObject(m *Model, obj Object, u Uniforms, out *Output) {
	fr := m.Frames[obj.Frame]
	clipFromObject := u.ClipFromWorld.Mul(obj.WorldFromObject)
	fragFromObject := u.FragmentFromClip.Mul(clipFromObject)
	rebase := obj.SegmentOffset - fr.Segments.Lo

	for i := int32(0); i < fr.Shards.Len(); i++ {
		sh := m.Shards[fr.Shards.Lo+i]
		base := int(i+obj.ShardOffset) * VerticesPerQuad
		for k := range VerticesPerQuad {
			out.Vertices[base+k] = ShardVertex{
				Position:  clipFromObject.Apply2(QuadCorner(sh.BB, k)),
				Color:     sh.Color,
				Segments:  sh.Segments.Shift(rebase),
				ClipDepth: sh.ClipDepth + obj.ClipOffset,
			}
		}
	}

	for i := fr.Segments.Lo; i < fr.Segments.Hi; i++ {
		s := m.Segments[i]
		a, c, b := m.segmentPoints(s)
		fs := FrameSegment{
			Kind:  s.Kind,
			Start: fragFromObject.Project2(a),
			End:   fragFromObject.Project2(b),
		}
		fs.Control = fs.Start
		if s.Kind == Quadratic {
			fs.Control = fragFromObject.Project2(c)
		}
		out.Segments[i+rebase] = fs
	}
}

// Preprocessor runs the Frame Preprocessor over many objects in parallel.
// Reuse one Preprocessor across frames; Close it when done.
type Preprocessor struct {
	opts options
	pool *parallel.WorkerPool
}

// NewPreprocessor starts a preprocessor and its worker pool.
func NewPreprocessor(opts ...Option) *Preprocessor {
	o := applyOptions(opts)
	return &Preprocessor{
		opts: o,
		pool: parallel.NewWorkerPool(o.workers),
	}
}

// Close stops the worker pool.
func (p *Preprocessor) Close() {
	p.pool.Close()
}

// Run expands every object into out. Objects must have disjoint
// placements inside out; see Arena and ValidateObjects.
//
// With a registered accelerator the expansion runs on the GPU; any
// accelerator error falls back to the CPU.
func (p *Preprocessor) Run(m *Model, objects []Object, u Uniforms, out *Output) {
	if len(objects) == 0 {
		return
	}
	if p.opts.accelerated {
		if a := RegisteredAccelerator(); a != nil {
			err := a.Preprocess(m, objects, u, out)
			if err == nil {
				return
			}
			if !errors.Is(err, ErrFallbackToCPU) {
				Logger().Warn("quadfill: accelerated preprocess failed", "accelerator", a.Name(), "err", err)
			}
		}
	}

	Logger().Debug("quadfill: preprocess",
		"objects", len(objects),
		"vertices", len(out.Vertices),
		"segments", len(out.Segments),
		"workers", p.pool.Workers())

	p.pool.ForEach(len(objects), 0, func(lo, hi int) {
		for _, obj := range objects[lo:hi] {
			PreprocessObject(m, obj, u, out)
		}
	})
}

// Preprocess expands objects into out with a temporary Preprocessor.
func Preprocess(m *Model, objects []Object, u Uniforms, out *Output, opts ...Option) {
	p := NewPreprocessor(opts...)
	defer p.Close()
	p.Run(m, objects, u, out)
}
