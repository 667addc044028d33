//go:build !nogpu

package gpu

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/quadfill"
	"github.com/gogpu/wgpu/hal"
)

// Accelerator runs the preprocessing and rasterization pipelines on a GPU.
// It implements quadfill.Accelerator.
//
// Init never fails: without a usable GPU every method returns
// quadfill.ErrFallbackToCPU and the CPU pipelines take over.
type Accelerator struct {
	mu sync.Mutex

	dev        *device
	preprocess *preprocessPipeline
	quads      *rasterPipeline
	shards     *rasterPipeline
	targets    renderTargets
	ready      bool
}

var _ quadfill.Accelerator = (*Accelerator)(nil)

// NewAccelerator returns an accelerator on a device owned by the caller.
// The device is not destroyed by Close.
func NewAccelerator(d hal.Device, q hal.Queue) (*Accelerator, error) {
	a := &Accelerator{}
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.attach(sharedDevice(d, q)); err != nil {
		return nil, err
	}
	return a, nil
}

// Name returns the backend name.
func (a *Accelerator) Name() string { return "wgpu" }

// Init opens a Vulkan device unless one is already attached.
func (a *Accelerator) Init() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.ready {
		return nil
	}
	dev, err := openDevice()
	if err != nil {
		slogger().Warn("gpu: init failed, using CPU fallback", "err", err)
		return nil
	}
	if err := a.attach(dev); err != nil {
		slogger().Warn("gpu: pipeline creation failed, using CPU fallback", "err", err)
		dev.destroy()
	}
	return nil
}

// attach creates the pipelines on dev. On failure nothing is kept.
// Callers hold a.mu.
func (a *Accelerator) attach(dev *device) error {
	pre, err := newPreprocessPipeline(dev)
	if err != nil {
		return fmt.Errorf("preprocess pipeline: %w", err)
	}
	quads, err := newRasterPipeline(dev, ShaderQuad, quadBindings)
	if err != nil {
		pre.destroy()
		return fmt.Errorf("quad pipeline: %w", err)
	}
	shards, err := newRasterPipeline(dev, ShaderShard, shardBindings)
	if err != nil {
		quads.destroy()
		pre.destroy()
		return fmt.Errorf("shard pipeline: %w", err)
	}
	a.dev = dev
	a.preprocess = pre
	a.quads = quads
	a.shards = shards
	a.targets = renderTargets{dev: dev}
	a.ready = true
	return nil
}

// release destroys the pipelines and, unless shared, the device.
// Callers hold a.mu.
func (a *Accelerator) release() {
	a.targets.destroy()
	if a.shards != nil {
		a.shards.destroy()
		a.shards = nil
	}
	if a.quads != nil {
		a.quads.destroy()
		a.quads = nil
	}
	if a.preprocess != nil {
		a.preprocess.destroy()
		a.preprocess = nil
	}
	a.dev.destroy()
	a.dev = nil
	a.ready = false
}

// Close releases all GPU resources.
func (a *Accelerator) Close() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.release()
}

// SetLogger routes internal/gpu logging to l.
func (a *Accelerator) SetLogger(l *slog.Logger) {
	setLogger(l)
}

// SetDeviceProvider switches the accelerator to a shared GPU device from
// an external provider. The provider must implement HalDevice() any and
// HalQueue() any returning hal.Device and hal.Queue.
func (a *Accelerator) SetDeviceProvider(provider any) error {
	type halProvider interface {
		HalDevice() any
		HalQueue() any
	}
	hp, ok := provider.(halProvider)
	if !ok {
		return fmt.Errorf("gpu: provider does not expose HAL types")
	}
	d, ok := hp.HalDevice().(hal.Device)
	if !ok || d == nil {
		return fmt.Errorf("gpu: provider HalDevice is not hal.Device")
	}
	q, ok := hp.HalQueue().(hal.Queue)
	if !ok || q == nil {
		return fmt.Errorf("gpu: provider HalQueue is not hal.Queue")
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.release()
	if err := a.attach(sharedDevice(d, q)); err != nil {
		return fmt.Errorf("gpu: create pipelines with shared device: %w", err)
	}
	slogger().Info("gpu: switched to shared GPU device")
	return nil
}

// Preprocess runs the frame preprocessor in a compute pass.
func (a *Accelerator) Preprocess(m *quadfill.Model, objects []quadfill.Object, u quadfill.Uniforms, out *quadfill.Output) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.ready {
		return quadfill.ErrFallbackToCPU
	}
	return a.preprocess.run(m, objects, u, out)
}

// DrawQuads rasterizes quads with the direct pipeline.
func (a *Accelerator) DrawQuads(width, height int, vp quadfill.Viewport, u quadfill.Uniforms, origins []quadfill.Origin,
	quads []quadfill.Quad, vertices []quadfill.Vertex, segments []quadfill.Segment,
) (*quadfill.Layer, error) {
	originData, err := packOrigins(u, origins)
	if err != nil {
		return nil, err
	}
	inputs := [][]byte{originData, packQuads(quads), packVertices(vertices), packSegments(segments)}
	usages := []gputypes.BufferUsage{
		gputypes.BufferUsageUniform,
		gputypes.BufferUsageStorage,
		gputypes.BufferUsageStorage,
		gputypes.BufferUsageStorage,
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.prepare(width, height, vp); err != nil {
		return nil, err
	}
	return a.quads.draw(&a.targets, vp, inputs, usages, vertexCount(len(quads)))
}

// DrawShards rasterizes preprocessed shards.
func (a *Accelerator) DrawShards(width, height int, vp quadfill.Viewport, out *quadfill.Output) (*quadfill.Layer, error) {
	inputs := [][]byte{packShardVertices(out.Vertices), packFrameSegments(out.Segments)}
	usages := []gputypes.BufferUsage{gputypes.BufferUsageStorage, gputypes.BufferUsageStorage}

	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.prepare(width, height, vp); err != nil {
		return nil, err
	}
	return a.shards.draw(&a.targets, vp, inputs, usages, vertexCount(out.Shards()))
}

// prepare checks that the draw fits the GPU path and sizes the targets.
// Viewports reaching outside the framebuffer stay on the CPU, which
// clips them itself.
func (a *Accelerator) prepare(width, height int, vp quadfill.Viewport) error {
	if !a.ready || width <= 0 || height <= 0 {
		return quadfill.ErrFallbackToCPU
	}
	if vp.X < 0 || vp.Y < 0 || vp.Width <= 0 || vp.Height <= 0 ||
		vp.X+vp.Width > float32(width) || vp.Y+vp.Height > float32(height) {
		return quadfill.ErrFallbackToCPU
	}
	return a.targets.ensure(uint32(width), uint32(height)) //nolint:gosec // checked positive above
}

func vertexCount(quads int) uint32 {
	return uint32(quads * quadfill.VerticesPerQuad) //nolint:gosec // quad counts fit uint32
}
