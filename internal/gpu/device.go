//go:build !nogpu

package gpu

import (
	"fmt"
	"unsafe"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	// Import Vulkan backend so it registers via init().
	_ "github.com/gogpu/wgpu/hal/vulkan"
)

// device bundles the HAL objects the pipelines render with.
type device struct {
	instance hal.Instance // nil for shared devices
	hal      hal.Device
	queue    hal.Queue
	name     string
	external bool // owned by a provider; never destroyed here
}

// openDevice opens a Vulkan device on the first discrete or integrated
// GPU, or the first adapter when neither is present.
func openDevice() (*device, error) {
	backend, ok := hal.GetBackend(gputypes.BackendVulkan)
	if !ok {
		return nil, fmt.Errorf("vulkan backend not available")
	}
	instance, err := backend.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	if err != nil {
		return nil, fmt.Errorf("create instance: %w", err)
	}
	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		instance.Destroy()
		return nil, fmt.Errorf("no GPU adapters found")
	}
	selected := &adapters[0]
	for i := range adapters {
		if adapters[i].Info.DeviceType == gputypes.DeviceTypeDiscreteGPU ||
			adapters[i].Info.DeviceType == gputypes.DeviceTypeIntegratedGPU {
			selected = &adapters[i]
			break
		}
	}
	open, err := selected.Adapter.Open(gputypes.Features(0), gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		return nil, fmt.Errorf("open device: %w", err)
	}
	slogger().Info("gpu: device opened", "adapter", selected.Info.Name, "type", selected.Info.DeviceType)
	return &device{
		instance: instance,
		hal:      open.Device,
		queue:    open.Queue,
		name:     selected.Info.Name,
	}, nil
}

// sharedDevice wraps a device owned by the caller.
func sharedDevice(d hal.Device, q hal.Queue) *device {
	return &device{hal: d, queue: q, name: "shared", external: true}
}

// destroy releases the device unless it is shared.
func (d *device) destroy() {
	if d == nil || d.external {
		return
	}
	if d.hal != nil {
		d.hal.Destroy()
		d.hal = nil
	}
	if d.instance != nil {
		d.instance.Destroy()
		d.instance = nil
	}
}

// upload creates a buffer holding data.
func (d *device) upload(label string, data []byte, usage gputypes.BufferUsage) (hal.Buffer, error) {
	buf, err := d.hal.CreateBuffer(&hal.BufferDescriptor{
		Label: label,
		Size:  uint64(len(data)),
		Usage: usage | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", label, err)
	}
	if err := d.queue.WriteBuffer(buf, 0, data); err != nil {
		d.hal.DestroyBuffer(buf)
		return nil, fmt.Errorf("write %s: %w", label, err)
	}
	return buf, nil
}

// staging creates a host-readable copy destination.
func (d *device) staging(label string, size uint64) (hal.Buffer, error) {
	buf, err := d.hal.CreateBuffer(&hal.BufferDescriptor{
		Label: label,
		Size:  size,
		Usage: gputypes.BufferUsageMapRead | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", label, err)
	}
	return buf, nil
}

// submit finishes encoding, submits and waits for the GPU to go idle.
func (d *device) submit(encoder hal.CommandEncoder) error {
	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		return fmt.Errorf("end encoding: %w", err)
	}
	defer d.hal.FreeCommandBuffer(cmdBuf)

	if _, err := d.queue.Submit([]hal.CommandBuffer{cmdBuf}); err != nil {
		return fmt.Errorf("submit: %w", err)
	}
	if err := d.hal.WaitIdle(); err != nil {
		return fmt.Errorf("wait for GPU: %w", err)
	}
	return nil
}

// read copies size bytes out of a staging buffer.
func (d *device) read(buf hal.Buffer, size uint64) ([]byte, error) {
	m, err := d.hal.MapBuffer(buf, 0, size)
	if err != nil {
		return nil, fmt.Errorf("map buffer: %w", err)
	}
	out := make([]byte, size)
	copy(out, unsafe.Slice((*byte)(m.Ptr), size))
	if err := d.hal.UnmapBuffer(buf); err != nil {
		slogger().Warn("gpu: unmap failed", "err", err)
	}
	return out, nil
}

// binding describes one buffer entry of a bind group.
type binding struct {
	buf  hal.Buffer
	size uint64
}

// bindGroup creates a bind group with buffer bindings 0..n-1.
func (d *device) bindGroup(label string, layout hal.BindGroupLayout, bindings []binding) (hal.BindGroup, error) {
	entries := make([]gputypes.BindGroupEntry, len(bindings))
	for i, b := range bindings {
		entries[i] = gputypes.BindGroupEntry{
			Binding: uint32(i), //nolint:gosec // binding counts are tiny
			Resource: gputypes.BufferBinding{
				Buffer: b.buf.NativeHandle(),
				Size:   b.size,
			},
		}
	}
	bg, err := d.hal.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:   label,
		Layout:  layout,
		Entries: entries,
	})
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", label, err)
	}
	return bg, nil
}

// bindGroupLayout creates a layout whose entries are buffers of the given
// binding types, visible to stages.
func (d *device) bindGroupLayout(label string, stages gputypes.ShaderStages, types []gputypes.BufferBindingType) (hal.BindGroupLayout, error) {
	entries := make([]gputypes.BindGroupLayoutEntry, len(types))
	for i, t := range types {
		entries[i] = gputypes.BindGroupLayoutEntry{
			Binding:    uint32(i), //nolint:gosec // binding counts are tiny
			Visibility: stages,
			Buffer:     &gputypes.BufferBindingLayout{Type: t},
		}
	}
	layout, err := d.hal.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label:   label,
		Entries: entries,
	})
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", label, err)
	}
	return layout, nil
}

// buffers tracks per-draw buffers for release.
type buffers struct {
	d    *device
	list []hal.Buffer
}

func (b *buffers) add(buf hal.Buffer) hal.Buffer {
	b.list = append(b.list, buf)
	return buf
}

func (b *buffers) release() {
	for _, buf := range b.list {
		b.d.hal.DestroyBuffer(buf)
	}
	b.list = nil
}
