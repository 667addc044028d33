//go:build !nogpu

package gpu

import (
	"testing"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/quadfill"
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/noop"
)

func openNoop(t *testing.T) (hal.Device, hal.Queue) {
	t.Helper()
	instance, err := noop.API{}.CreateInstance(nil)
	if err != nil {
		t.Fatalf("CreateInstance failed: %v", err)
	}
	t.Cleanup(instance.Destroy)
	adapters := instance.EnumerateAdapters(nil)
	openDev, err := adapters[0].Adapter.Open(0, gputypes.DefaultLimits())
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(openDev.Device.Destroy)
	return openDev.Device, openDev.Queue
}

// fakeProvider is a gpucontext.DeviceProvider that also exposes HAL types.
type fakeProvider struct {
	device hal.Device
	queue  hal.Queue
	kind   gpucontext.AdapterType
}

func (p fakeProvider) Device() gpucontext.Device { return p.device }
func (p fakeProvider) Queue() gpucontext.Queue   { return p.queue }
func (p fakeProvider) SurfaceFormat() gputypes.TextureFormat {
	return gputypes.TextureFormatUndefined
}
func (p fakeProvider) Adapter() gpucontext.Adapter { return nil }
func (p fakeProvider) AdapterInfo() gpucontext.AdapterInfo {
	return gpucontext.AdapterInfo{Name: "fake", Type: p.kind}
}
func (p fakeProvider) HalDevice() any { return p.device }
func (p fakeProvider) HalQueue() any  { return p.queue }

func TestUseDevice(t *testing.T) {
	device, queue := openNoop(t)
	defer quadfill.UnregisterAccelerator()

	if err := UseDevice(device, queue); err != nil {
		t.Fatalf("UseDevice: %v", err)
	}
	a := quadfill.RegisteredAccelerator()
	if a == nil || a.Name() != "wgpu" {
		t.Fatalf("registered accelerator = %v", a)
	}
}

func TestSetDeviceProvider(t *testing.T) {
	device, queue := openNoop(t)
	defer quadfill.UnregisterAccelerator()

	if err := UseDevice(device, queue); err != nil {
		t.Fatal(err)
	}
	hw := fakeProvider{device: device, queue: queue, kind: gpucontext.AdapterTypeDiscrete}
	if err := SetDeviceProvider(hw); err != nil {
		t.Fatalf("SetDeviceProvider: %v", err)
	}
	if quadfill.RegisteredAccelerator() == nil {
		t.Fatal("accelerator should stay registered for a hardware adapter")
	}

	sw := fakeProvider{device: device, queue: queue, kind: gpucontext.AdapterTypeSoftware}
	if err := SetDeviceProvider(sw); err != nil {
		t.Fatalf("SetDeviceProvider: %v", err)
	}
	if quadfill.RegisteredAccelerator() != nil {
		t.Error("software adapter should leave rasterization on the CPU")
	}
}

func TestShaderNames(t *testing.T) {
	names := ShaderNames()
	if len(names) != 3 {
		t.Fatalf("ShaderNames() = %v", names)
	}
	names[0] = "changed"
	if ShaderNames()[0] == "changed" {
		t.Error("ShaderNames must return a copy")
	}
}
