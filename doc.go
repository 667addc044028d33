// Package quadfill is an analytic vector-path rasterizer built around
// per-pixel winding-number evaluation.
//
// # Overview
//
// Paths are made of line and quadratic segments. Instead of tessellating
// curves or running a stencil pass, every pixel covered by a bounding quad
// casts a ray in +x and sums the signed crossings of the segments assigned
// to that quad. A nonzero total fills the pixel with the quad's flat color;
// a zero total discards it.
//
// Geometry is organized as reusable templates:
//
//   - A [Model] owns vertices, segments, shards and frames.
//   - A [Shard] is one fillable box with a color, a clip depth and the
//     segment range it tests against.
//   - A [Frame] is a template: a shard range plus a segment range.
//   - An [Object] instances a frame with its own transform and placement
//     offsets into the flat output arrays.
//
// # Pipelines
//
// [Preprocess] expands objects into flat [ShardVertex] and [FrameSegment]
// arrays, one disjoint slice per object, planned by an [Arena].
// [Rasterizer] then draws either the preprocessed shards ([Rasterizer.DrawShards])
// or authoring-time quads addressed through an origin table
// ([Rasterizer.DrawQuads]).
//
// The CPU rasterizer in this package mirrors the GPU pipelines in
// internal/gpu pixel for pixel: homogeneous divide, viewport transform,
// pixel-center sampling, top-left fill rule, GreaterEqual depth test.
// Import github.com/gogpu/quadfill/gpu to register the GPU backend.
//
// # Quick Start
//
//	m := quadfill.CheckModel()
//	vp := quadfill.Viewport{Width: 512, Height: 512}
//	u, _ := quadfill.NewUniforms(vp, quadfill.OrthoCamera(vp, 1.5))
//
//	var arena quadfill.Arena
//	objs := []quadfill.Object{arena.Object(m, 0, quadfill.Identity())}
//
//	out := quadfill.NewOutput(&arena)
//	quadfill.Preprocess(m, objs, u, out)
//
//	target := quadfill.NewTarget(512, 512)
//	r := quadfill.NewRasterizer()
//	defer r.Close()
//	r.DrawShards(target, out)
//	_ = target.SavePNG("check.png")
//
// # Logging
//
// The package is silent by default. See [SetLogger].
package quadfill
