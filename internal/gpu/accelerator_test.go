//go:build !nogpu

package gpu

import (
	"errors"
	"testing"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/quadfill"
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/noop"
)

func createNoopDevice(t *testing.T) (hal.Device, hal.Queue, func()) {
	t.Helper()
	api := noop.API{}
	instance, err := api.CreateInstance(nil)
	if err != nil {
		t.Fatalf("CreateInstance failed: %v", err)
	}
	adapters := instance.EnumerateAdapters(nil)
	openDev, err := adapters[0].Adapter.Open(0, gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		t.Fatalf("Open failed: %v", err)
	}
	cleanup := func() {
		openDev.Device.Destroy()
		instance.Destroy()
	}
	return openDev.Device, openDev.Queue, cleanup
}

func checkScene(t *testing.T) (*quadfill.Model, []quadfill.Object, quadfill.Uniforms, *quadfill.Output, quadfill.Viewport) {
	t.Helper()
	m := quadfill.CheckModel()
	vp := quadfill.Viewport{Width: 64, Height: 48}
	u, err := quadfill.NewUniforms(vp, quadfill.OrthoCamera(vp, 1.5))
	if err != nil {
		t.Fatal(err)
	}
	var arena quadfill.Arena
	objects := []quadfill.Object{
		arena.Object(m, 0, quadfill.Identity()),
		arena.Object(m, 0, quadfill.Translate(0.5, 0, 0)),
	}
	return m, objects, u, quadfill.NewOutput(&arena), vp
}

func TestAcceleratorNoopDevice(t *testing.T) {
	device, queue, cleanup := createNoopDevice(t)
	defer cleanup()

	a, err := NewAccelerator(device, queue)
	if err != nil {
		t.Fatalf("NewAccelerator: %v", err)
	}
	defer a.Close()

	if a.Name() != "wgpu" {
		t.Errorf("Name() = %q", a.Name())
	}

	m, objects, u, out, vp := checkScene(t)
	if err := a.Preprocess(m, objects, u, out); err != nil {
		t.Fatalf("Preprocess: %v", err)
	}
	if got := out.Shards(); got != 4 {
		t.Errorf("Shards() = %d, want 4", got)
	}

	l, err := a.DrawShards(64, 48, vp, out)
	if err != nil {
		t.Fatalf("DrawShards: %v", err)
	}
	if l.Width != 64 || l.Height != 48 || len(l.Color) != 64*48 || len(l.Depth) != 64*48 {
		t.Errorf("layer = %dx%d (%d, %d)", l.Width, l.Height, len(l.Color), len(l.Depth))
	}

	b, err := quadfill.ModelBatch(m, objects)
	if err != nil {
		t.Fatal(err)
	}
	l, err = a.DrawQuads(64, 48, vp, u, b.Origins, b.Quads, b.Vertices, b.Segments)
	if err != nil {
		t.Fatalf("DrawQuads: %v", err)
	}
	if l.Width != 64 || l.Height != 48 {
		t.Errorf("layer = %dx%d", l.Width, l.Height)
	}

	// Resizing recreates the targets.
	if _, err := a.DrawShards(32, 32, quadfill.Viewport{Width: 32, Height: 32}, out); err != nil {
		t.Fatalf("DrawShards after resize: %v", err)
	}
	if a.targets.width != 32 || a.targets.height != 32 {
		t.Errorf("targets = %dx%d, want 32x32", a.targets.width, a.targets.height)
	}
}

func TestAcceleratorFallback(t *testing.T) {
	device, queue, cleanup := createNoopDevice(t)
	defer cleanup()

	a, err := NewAccelerator(device, queue)
	if err != nil {
		t.Fatal(err)
	}
	_, _, _, out, _ := checkScene(t)

	tests := []struct {
		name string
		w, h int
		vp   quadfill.Viewport
	}{
		{"viewport past right edge", 64, 48, quadfill.Viewport{X: 10, Width: 64, Height: 48}},
		{"negative viewport origin", 64, 48, quadfill.Viewport{Y: -1, Width: 64, Height: 40}},
		{"empty target", 0, 48, quadfill.Viewport{Width: 1, Height: 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := a.DrawShards(tt.w, tt.h, tt.vp, out)
			if !errors.Is(err, quadfill.ErrFallbackToCPU) {
				t.Errorf("err = %v, want ErrFallbackToCPU", err)
			}
		})
	}

	a.Close()
	a.Close() // idempotent
	m, objects, u, out, _ := checkScene(t)
	if err := a.Preprocess(m, objects, u, out); !errors.Is(err, quadfill.ErrFallbackToCPU) {
		t.Errorf("Preprocess after Close: err = %v, want ErrFallbackToCPU", err)
	}
}

type noopProvider struct {
	device hal.Device
	queue  hal.Queue
}

func (p noopProvider) HalDevice() any { return p.device }
func (p noopProvider) HalQueue() any  { return p.queue }

func TestAcceleratorSetDeviceProvider(t *testing.T) {
	device, queue, cleanup := createNoopDevice(t)
	defer cleanup()

	a := &Accelerator{}
	if err := a.SetDeviceProvider(struct{}{}); err == nil {
		t.Error("expected error for provider without HAL types")
	}
	if err := a.SetDeviceProvider(noopProvider{}); err == nil {
		t.Error("expected error for nil device")
	}
	if err := a.SetDeviceProvider(noopProvider{device: device, queue: queue}); err != nil {
		t.Fatalf("SetDeviceProvider: %v", err)
	}
	if !a.ready || !a.dev.external {
		t.Error("accelerator should be ready on the shared device")
	}
	a.Close()
}
