//go:build !nogpu

package gpu

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/quadfill"
	"github.com/gogpu/wgpu/hal"
)

// preprocessWorkgroupSize matches @workgroup_size in preprocess.wgsl.
const preprocessWorkgroupSize = 64

// preprocessBindings lists the binding types of preprocess.wgsl in
// binding order.
var preprocessBindings = []gputypes.BufferBindingType{
	gputypes.BufferBindingTypeUniform,         // uniforms
	gputypes.BufferBindingTypeUniform,         // params
	gputypes.BufferBindingTypeReadOnlyStorage, // vertices
	gputypes.BufferBindingTypeReadOnlyStorage, // segments
	gputypes.BufferBindingTypeReadOnlyStorage, // shards
	gputypes.BufferBindingTypeReadOnlyStorage, // frames
	gputypes.BufferBindingTypeReadOnlyStorage, // objects
	gputypes.BufferBindingTypeStorage,         // out_vertices
	gputypes.BufferBindingTypeStorage,         // out_segments
}

// preprocessPipeline runs the frame preprocessor as a compute pass.
type preprocessPipeline struct {
	dev *device

	shader     hal.ShaderModule
	bindLayout hal.BindGroupLayout
	pipeLayout hal.PipelineLayout
	pipeline   hal.ComputePipeline
}

func newPreprocessPipeline(dev *device) (*preprocessPipeline, error) {
	p := &preprocessPipeline{dev: dev}
	if err := p.create(); err != nil {
		p.destroy()
		return nil, err
	}
	return p, nil
}

func (p *preprocessPipeline) create() error {
	src, err := ShaderSource(ShaderPreprocess)
	if err != nil {
		return err
	}
	p.shader, err = p.dev.hal.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  "preprocess_shader",
		Source: hal.ShaderSource{WGSL: src},
	})
	if err != nil {
		return fmt.Errorf("compile preprocess shader: %w", err)
	}

	p.bindLayout, err = p.dev.bindGroupLayout("preprocess_bind_layout", gputypes.ShaderStageCompute, preprocessBindings)
	if err != nil {
		return err
	}

	p.pipeLayout, err = p.dev.hal.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            "preprocess_pipe_layout",
		BindGroupLayouts: []hal.BindGroupLayout{p.bindLayout},
	})
	if err != nil {
		return fmt.Errorf("create pipeline layout: %w", err)
	}

	p.pipeline, err = p.dev.hal.CreateComputePipeline(&hal.ComputePipelineDescriptor{
		Label:  "preprocess_pipeline",
		Layout: p.pipeLayout,
		Compute: hal.ComputeState{
			Module:     p.shader,
			EntryPoint: "cs_main",
		},
	})
	if err != nil {
		return fmt.Errorf("create compute pipeline: %w", err)
	}
	return nil
}

// destroy releases pipeline objects in reverse creation order.
func (p *preprocessPipeline) destroy() {
	if p.dev == nil || p.dev.hal == nil {
		return
	}
	if p.pipeline != nil {
		p.dev.hal.DestroyComputePipeline(p.pipeline)
		p.pipeline = nil
	}
	if p.pipeLayout != nil {
		p.dev.hal.DestroyPipelineLayout(p.pipeLayout)
		p.pipeLayout = nil
	}
	if p.bindLayout != nil {
		p.dev.hal.DestroyBindGroupLayout(p.bindLayout)
		p.bindLayout = nil
	}
	if p.shader != nil {
		p.dev.hal.DestroyShaderModule(p.shader)
		p.shader = nil
	}
}

// run expands objects into out. The output arenas are uploaded first so
// that entries outside every placement come back unchanged.
func (p *preprocessPipeline) run(m *quadfill.Model, objects []quadfill.Object, u quadfill.Uniforms, out *quadfill.Output) error {
	if len(objects) == 0 {
		return nil
	}
	bufs := buffers{d: p.dev}
	defer bufs.release()

	inputs := []struct {
		label string
		data  []byte
		usage gputypes.BufferUsage
	}{
		{"preprocess_uniforms", packUniforms(u), gputypes.BufferUsageUniform},
		{"preprocess_params", packParams(len(objects)), gputypes.BufferUsageUniform},
		{"preprocess_vertices", packVertices(m.Vertices), gputypes.BufferUsageStorage},
		{"preprocess_segments", packSegments(m.Segments), gputypes.BufferUsageStorage},
		{"preprocess_shards", packShards(m.Shards), gputypes.BufferUsageStorage},
		{"preprocess_frames", packFrames(m.Frames), gputypes.BufferUsageStorage},
		{"preprocess_objects", packObjects(objects), gputypes.BufferUsageStorage},
		{"preprocess_out_vertices", packShardVertices(out.Vertices), gputypes.BufferUsageStorage | gputypes.BufferUsageCopySrc},
		{"preprocess_out_segments", packFrameSegments(out.Segments), gputypes.BufferUsageStorage | gputypes.BufferUsageCopySrc},
	}
	bindings := make([]binding, len(inputs))
	for i, in := range inputs {
		buf, err := p.dev.upload(in.label, in.data, in.usage)
		if err != nil {
			return err
		}
		bindings[i] = binding{buf: bufs.add(buf), size: uint64(len(in.data))}
	}
	outVerts, outSegs := bindings[7], bindings[8]

	stageVerts, err := p.dev.staging("preprocess_staging_vertices", outVerts.size)
	if err != nil {
		return err
	}
	bufs.add(stageVerts)
	stageSegs, err := p.dev.staging("preprocess_staging_segments", outSegs.size)
	if err != nil {
		return err
	}
	bufs.add(stageSegs)

	bindGroup, err := p.dev.bindGroup("preprocess_bind", p.bindLayout, bindings)
	if err != nil {
		return err
	}
	defer p.dev.hal.DestroyBindGroup(bindGroup)

	encoder, err := p.dev.hal.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: "preprocess_encoder"})
	if err != nil {
		return fmt.Errorf("create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding("preprocess"); err != nil {
		return fmt.Errorf("begin encoding: %w", err)
	}

	groups := (uint32(len(objects)) + preprocessWorkgroupSize - 1) / preprocessWorkgroupSize //nolint:gosec // object counts fit uint32
	pass := encoder.BeginComputePass(&hal.ComputePassDescriptor{Label: "preprocess_pass"})
	pass.SetPipeline(p.pipeline)
	pass.SetBindGroup(0, bindGroup, nil)
	pass.Dispatch(groups, 1, 1)
	pass.End()

	encoder.TransitionBuffers([]hal.BufferBarrier{
		{Buffer: outVerts.buf, Usage: hal.BufferUsageTransition{
			OldUsage: gputypes.BufferUsageStorage, NewUsage: gputypes.BufferUsageCopySrc,
		}},
		{Buffer: outSegs.buf, Usage: hal.BufferUsageTransition{
			OldUsage: gputypes.BufferUsageStorage, NewUsage: gputypes.BufferUsageCopySrc,
		}},
	})
	encoder.CopyBufferToBuffer(outVerts.buf, stageVerts, []hal.BufferCopy{{Size: outVerts.size}})
	encoder.CopyBufferToBuffer(outSegs.buf, stageSegs, []hal.BufferCopy{{Size: outSegs.size}})

	if err := p.dev.submit(encoder); err != nil {
		return err
	}

	slogger().Debug("gpu: preprocess dispatched",
		"objects", len(objects),
		"workgroups", groups,
		"vertex_bytes", outVerts.size,
		"segment_bytes", outSegs.size)

	vertData, err := p.dev.read(stageVerts, outVerts.size)
	if err != nil {
		return fmt.Errorf("read shard vertices: %w", err)
	}
	segData, err := p.dev.read(stageSegs, outSegs.size)
	if err != nil {
		return fmt.Errorf("read frame segments: %w", err)
	}
	if err := unpackShardVertices(vertData, out.Vertices); err != nil {
		return err
	}
	return unpackFrameSegments(segData, out.Segments)
}
