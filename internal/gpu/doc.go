//go:build !nogpu

// Package gpu runs the quadfill pipelines on a GPU through gogpu/wgpu's
// hardware abstraction layer (zero CGO; Vulkan, Metal or DX12 depending
// on the platform).
//
// # Pipelines
//
//   - preprocess: a compute pass with one invocation per object that
//     expands shards into clip-space quads and projects segments into
//     framebuffer coordinates
//   - quad: a render pipeline that pulls authoring-time quads, vertices
//     and segments from storage buffers and evaluates the winding number
//     per fragment in the tex space of each quad's origin
//   - shard: a render pipeline over preprocessed shards whose fragments
//     test their own framebuffer position
//
// Both render pipelines write two color targets, BGRA8 color and an
// R32Float copy of the fragment depth cleared to -1, against a
// Depth24Plus attachment compared with GreaterEqual. The two targets are
// copied to staging buffers and returned as a quadfill.Layer so the CPU
// side can merge them with the same depth rule it uses itself.
//
// All storage structs follow the std430 layouts in layout.go and
// shaders/*.wgsl.
package gpu
