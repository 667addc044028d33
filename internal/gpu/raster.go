//go:build !nogpu

package gpu

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/quadfill"
	"github.com/gogpu/wgpu/hal"
)

// Render target formats shared by both raster pipelines.
const (
	colorFormat     = gputypes.TextureFormatBGRA8Unorm
	depthCopyFormat = gputypes.TextureFormatR32Float
	depthFormat     = gputypes.TextureFormatDepth24Plus
)

// quadBindings lists the binding types of quad.wgsl.
var quadBindings = []gputypes.BufferBindingType{
	gputypes.BufferBindingTypeUniform,         // origins
	gputypes.BufferBindingTypeReadOnlyStorage, // quads
	gputypes.BufferBindingTypeReadOnlyStorage, // vertices
	gputypes.BufferBindingTypeReadOnlyStorage, // segments
}

// shardBindings lists the binding types of shard.wgsl.
var shardBindings = []gputypes.BufferBindingType{
	gputypes.BufferBindingTypeReadOnlyStorage, // shard_vertices
	gputypes.BufferBindingTypeReadOnlyStorage, // frame_segments
}

// rasterPipeline is one quad rasterizer variant. Vertices are pulled
// from storage buffers by vertex index, so the pipeline has no vertex
// buffer layout.
type rasterPipeline struct {
	dev      *device
	name     string
	bindings []gputypes.BufferBindingType

	shader     hal.ShaderModule
	bindLayout hal.BindGroupLayout
	pipeLayout hal.PipelineLayout
	pipeline   hal.RenderPipeline
}

func newRasterPipeline(dev *device, name string, bindings []gputypes.BufferBindingType) (*rasterPipeline, error) {
	p := &rasterPipeline{dev: dev, name: name, bindings: bindings}
	if err := p.create(); err != nil {
		p.destroy()
		return nil, err
	}
	return p, nil
}

func (p *rasterPipeline) create() error {
	src, err := ShaderSource(p.name)
	if err != nil {
		return err
	}
	p.shader, err = p.dev.hal.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  p.name + "_shader",
		Source: hal.ShaderSource{WGSL: src},
	})
	if err != nil {
		return fmt.Errorf("compile %s shader: %w", p.name, err)
	}

	p.bindLayout, err = p.dev.bindGroupLayout(p.name+"_bind_layout",
		gputypes.ShaderStageVertex|gputypes.ShaderStageFragment, p.bindings)
	if err != nil {
		return err
	}

	p.pipeLayout, err = p.dev.hal.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            p.name + "_pipe_layout",
		BindGroupLayouts: []hal.BindGroupLayout{p.bindLayout},
	})
	if err != nil {
		return fmt.Errorf("create pipeline layout: %w", err)
	}

	p.pipeline, err = p.dev.hal.CreateRenderPipeline(&hal.RenderPipelineDescriptor{
		Label:  p.name + "_pipeline",
		Layout: p.pipeLayout,
		Vertex: hal.VertexState{
			Module:     p.shader,
			EntryPoint: "vs_main",
		},
		Fragment: &hal.FragmentState{
			Module:     p.shader,
			EntryPoint: "fs_main",
			Targets: []gputypes.ColorTargetState{
				{Format: colorFormat, WriteMask: gputypes.ColorWriteMaskAll},
				{Format: depthCopyFormat, WriteMask: gputypes.ColorWriteMaskAll},
			},
		},
		DepthStencil: &hal.DepthStencilState{
			Format:            depthFormat,
			DepthWriteEnabled: true,
			DepthCompare:      gputypes.CompareFunctionGreaterEqual,
			StencilFront: hal.StencilFaceState{
				Compare:     gputypes.CompareFunctionAlways,
				FailOp:      hal.StencilOperationKeep,
				DepthFailOp: hal.StencilOperationKeep,
				PassOp:      hal.StencilOperationKeep,
			},
			StencilBack: hal.StencilFaceState{
				Compare:     gputypes.CompareFunctionAlways,
				FailOp:      hal.StencilOperationKeep,
				DepthFailOp: hal.StencilOperationKeep,
				PassOp:      hal.StencilOperationKeep,
			},
		},
		Primitive: gputypes.PrimitiveState{
			Topology: gputypes.PrimitiveTopologyTriangleList,
			CullMode: gputypes.CullModeNone,
		},
		Multisample: gputypes.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		return fmt.Errorf("create %s render pipeline: %w", p.name, err)
	}
	return nil
}

// destroy releases pipeline objects in reverse creation order.
func (p *rasterPipeline) destroy() {
	if p.dev == nil || p.dev.hal == nil {
		return
	}
	if p.pipeline != nil {
		p.dev.hal.DestroyRenderPipeline(p.pipeline)
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

// draw uploads the bind group inputs, renders vertexCount vertices into
// targets and reads both color targets back.
func (p *rasterPipeline) draw(t *renderTargets, vp quadfill.Viewport, inputs [][]byte, usages []gputypes.BufferUsage, vertexCount uint32) (*quadfill.Layer, error) {
	bufs := buffers{d: p.dev}
	defer bufs.release()

	bindings := make([]binding, len(inputs))
	for i, data := range inputs {
		buf, err := p.dev.upload(fmt.Sprintf("%s_input_%d", p.name, i), data, usages[i])
		if err != nil {
			return nil, err
		}
		bindings[i] = binding{buf: bufs.add(buf), size: uint64(len(data))}
	}
	bindGroup, err := p.dev.bindGroup(p.name+"_bind", p.bindLayout, bindings)
	if err != nil {
		return nil, err
	}
	defer p.dev.hal.DestroyBindGroup(bindGroup)

	pitch := copyRowPitch(t.width)
	size := uint64(pitch) * uint64(t.height)
	colorStage, err := p.dev.staging(p.name+"_color_staging", size)
	if err != nil {
		return nil, err
	}
	bufs.add(colorStage)
	depthStage, err := p.dev.staging(p.name+"_depth_staging", size)
	if err != nil {
		return nil, err
	}
	bufs.add(depthStage)

	encoder, err := p.dev.hal.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: p.name + "_encoder"})
	if err != nil {
		return nil, fmt.Errorf("create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding(p.name); err != nil {
		return nil, fmt.Errorf("begin encoding: %w", err)
	}

	rp := encoder.BeginRenderPass(&hal.RenderPassDescriptor{
		Label: p.name + "_pass",
		ColorAttachments: []hal.RenderPassColorAttachment{
			{
				View:       t.colorView,
				LoadOp:     gputypes.LoadOpClear,
				StoreOp:    gputypes.StoreOpStore,
				ClearValue: gputypes.Color{R: 0, G: 0, B: 0, A: 0},
			},
			{
				View:       t.depthCopyView,
				LoadOp:     gputypes.LoadOpClear,
				StoreOp:    gputypes.StoreOpStore,
				ClearValue: gputypes.Color{R: -1, G: 0, B: 0, A: 0},
			},
		},
		DepthStencilAttachment: &hal.RenderPassDepthStencilAttachment{
			View:            t.depthView,
			DepthLoadOp:     gputypes.LoadOpClear,
			DepthStoreOp:    gputypes.StoreOpDiscard,
			DepthClearValue: 0,
		},
	})
	rp.SetViewport(vp.X, vp.Y, vp.Width, vp.Height, 0, 1)
	rp.SetPipeline(p.pipeline)
	rp.SetBindGroup(0, bindGroup, nil)
	rp.Draw(vertexCount, 1, 0, 0)
	rp.End()

	encoder.TransitionTextures([]hal.TextureBarrier{
		{Texture: t.colorTex, Usage: hal.TextureUsageTransition{
			OldUsage: gputypes.TextureUsageRenderAttachment, NewUsage: gputypes.TextureUsageCopySrc,
		}},
		{Texture: t.depthCopyTex, Usage: hal.TextureUsageTransition{
			OldUsage: gputypes.TextureUsageRenderAttachment, NewUsage: gputypes.TextureUsageCopySrc,
		}},
	})
	extent := hal.Extent3D{Width: t.width, Height: t.height, DepthOrArrayLayers: 1}
	layout := hal.ImageDataLayout{BytesPerRow: pitch, RowsPerImage: t.height}
	encoder.CopyTextureToBuffer(t.colorTex, colorStage, []hal.BufferTextureCopy{{
		BufferLayout: layout,
		TextureBase:  hal.ImageCopyTexture{Texture: t.colorTex},
		Size:         extent,
	}})
	encoder.CopyTextureToBuffer(t.depthCopyTex, depthStage, []hal.BufferTextureCopy{{
		BufferLayout: layout,
		TextureBase:  hal.ImageCopyTexture{Texture: t.depthCopyTex},
		Size:         extent,
	}})

	if err := p.dev.submit(encoder); err != nil {
		return nil, err
	}
	slogger().Debug("gpu: draw", "pipeline", p.name, "vertices", vertexCount, "width", t.width, "height", t.height)

	colorData, err := p.dev.read(colorStage, size)
	if err != nil {
		return nil, fmt.Errorf("read color: %w", err)
	}
	depthData, err := p.dev.read(depthStage, size)
	if err != nil {
		return nil, fmt.Errorf("read depth: %w", err)
	}
	return unpackLayer(int(t.width), int(t.height), colorData, depthData)
}

// renderTargets holds the attachments of one framebuffer size.
type renderTargets struct {
	dev           *device
	width, height uint32

	colorTex      hal.Texture
	colorView     hal.TextureView
	depthCopyTex  hal.Texture
	depthCopyView hal.TextureView
	depthTex      hal.Texture
	depthView     hal.TextureView
}

// ensure (re)creates the attachments when the size changes.
func (t *renderTargets) ensure(w, h uint32) error {
	if t.width == w && t.height == h && t.colorTex != nil {
		return nil
	}
	t.destroy()

	var err error
	t.colorTex, t.colorView, err = t.create("color", colorFormat,
		gputypes.TextureUsageRenderAttachment|gputypes.TextureUsageCopySrc, w, h)
	if err != nil {
		t.destroy()
		return err
	}
	t.depthCopyTex, t.depthCopyView, err = t.create("depth_copy", depthCopyFormat,
		gputypes.TextureUsageRenderAttachment|gputypes.TextureUsageCopySrc, w, h)
	if err != nil {
		t.destroy()
		return err
	}
	t.depthTex, t.depthView, err = t.create("depth", depthFormat,
		gputypes.TextureUsageRenderAttachment, w, h)
	if err != nil {
		t.destroy()
		return err
	}
	t.width, t.height = w, h
	return nil
}

func (t *renderTargets) create(label string, format gputypes.TextureFormat, usage gputypes.TextureUsage, w, h uint32) (hal.Texture, hal.TextureView, error) {
	tex, err := t.dev.hal.CreateTexture(&hal.TextureDescriptor{
		Label:         label,
		Size:          hal.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        format,
		Usage:         usage,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("create %s texture: %w", label, err)
	}
	view, err := t.dev.hal.CreateTextureView(tex, &hal.TextureViewDescriptor{
		Label:         label + "_view",
		Format:        format,
		Dimension:     gputypes.TextureViewDimension2D,
		Aspect:        gputypes.TextureAspectAll,
		MipLevelCount: 1,
	})
	if err != nil {
		t.dev.hal.DestroyTexture(tex)
		return nil, nil, fmt.Errorf("create %s view: %w", label, err)
	}
	return tex, view, nil
}

// destroy releases all attachments and resets the size.
func (t *renderTargets) destroy() {
	if t.dev == nil || t.dev.hal == nil {
		return
	}
	for _, v := range []*hal.TextureView{&t.colorView, &t.depthCopyView, &t.depthView} {
		if *v != nil {
			t.dev.hal.DestroyTextureView(*v)
			*v = nil
		}
	}
	for _, tex := range []*hal.Texture{&t.colorTex, &t.depthCopyTex, &t.depthTex} {
		if *tex != nil {
			t.dev.hal.DestroyTexture(*tex)
			*tex = nil
		}
	}
	t.width, t.height = 0, 0
}
