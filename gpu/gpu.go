//go:build !nogpu

// Package gpu registers the wgpu accelerator for the quadfill pipelines.
//
// Import this package to run preprocessing and rasterization on a GPU
// through Vulkan. If GPU initialization fails the accelerator stays
// registered but declines every draw, and rendering falls back to the
// CPU.
//
// Usage:
//
//	import _ "github.com/gogpu/quadfill/gpu" // enable GPU acceleration
package gpu

import (
	"fmt"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/quadfill"
	gpuimpl "github.com/gogpu/quadfill/internal/gpu"
	"github.com/gogpu/wgpu/hal"
)

func init() {
	if err := quadfill.RegisterAccelerator(&gpuimpl.Accelerator{}); err != nil {
		quadfill.Logger().Warn("GPU accelerator not available", "err", err)
	}
}

// SetDeviceProvider configures the accelerator to use a shared GPU device
// from an external provider. The provider must also expose HalDevice()
// and HalQueue() for direct HAL access.
//
// Call this before drawing, typically right after the window toolkit
// has created its device.
func SetDeviceProvider(provider gpucontext.DeviceProvider) error {
	info := provider.AdapterInfo()
	if info.Type == gpucontext.AdapterTypeSoftware {
		quadfill.Logger().Info("gpu: software adapter, keeping CPU rasterizer", "adapter", info.Name)
		quadfill.UnregisterAccelerator()
		return nil
	}
	return quadfill.SetAcceleratorDeviceProvider(provider)
}

// UseDevice registers an accelerator on a device owned by the caller,
// replacing the default one. Close the device only after
// quadfill.UnregisterAccelerator.
func UseDevice(device hal.Device, queue hal.Queue) error {
	a, err := gpuimpl.NewAccelerator(device, queue)
	if err != nil {
		return fmt.Errorf("gpu: %w", err)
	}
	return quadfill.RegisterAccelerator(a)
}

// ShaderNames lists the WGSL shaders the accelerator builds.
func ShaderNames() []string {
	return append([]string(nil), gpuimpl.ShaderNames...)
}

// CompileShader translates the named shader to SPIR-V with naga, for
// checking shaders without a device.
func CompileShader(name string) ([]byte, error) {
	return gpuimpl.CompileShader(name)
}
