package quadfill

import (
	"errors"
	"sync"
)

// ErrFallbackToCPU indicates the accelerator cannot handle a draw.
// The caller falls back to the CPU rasterizer.
var ErrFallbackToCPU = errors.New("quadfill: falling back to CPU rendering")

// Accelerator is an optional GPU backend for the preprocessing and
// rasterization pipelines.
//
// When registered via RegisterAccelerator, [Rasterizer] offers each draw
// to the accelerator first. Any error, including ErrFallbackToCPU, makes
// the draw run on the CPU instead.
//
// Users opt in with a blank import:
//
//	import _ "github.com/gogpu/quadfill/gpu"
type Accelerator interface {
	// Name returns the backend name (e.g. "wgpu").
	Name() string

	// Init acquires GPU resources. Called once during registration.
	Init() error

	// Close releases GPU resources.
	Close()

	// Preprocess runs the Frame Preprocessor on the device and writes the
	// result into out.
	Preprocess(m *Model, objects []Object, u Uniforms, out *Output) error

	// DrawQuads rasterizes quads addressed through an origin table into
	// a fresh layer of the given size.
	DrawQuads(width, height int, vp Viewport, u Uniforms, origins []Origin,
		quads []Quad, vertices []Vertex, segments []Segment) (*Layer, error)

	// DrawShards rasterizes preprocessed shards into a fresh layer.
	DrawShards(width, height int, vp Viewport, out *Output) (*Layer, error)
}

var (
	accelMu sync.RWMutex
	accel   Accelerator
)

// RegisterAccelerator registers the GPU backend. Only one accelerator is
// kept; a later registration replaces and closes the previous one.
// If Init fails the accelerator is not registered and the error is returned.
func RegisterAccelerator(a Accelerator) error {
	if a == nil {
		return errors.New("quadfill: accelerator must not be nil")
	}
	if err := a.Init(); err != nil {
		return err
	}
	accelMu.Lock()
	old := accel
	accel = a
	accelMu.Unlock()
	if old != nil {
		old.Close()
	}
	propagateLogger(a, Logger())
	return nil
}

// UnregisterAccelerator closes and removes the registered accelerator.
func UnregisterAccelerator() {
	accelMu.Lock()
	old := accel
	accel = nil
	accelMu.Unlock()
	if old != nil {
		old.Close()
	}
}

// RegisteredAccelerator returns the registered accelerator, or nil.
func RegisteredAccelerator() Accelerator {
	accelMu.RLock()
	a := accel
	accelMu.RUnlock()
	return a
}

// DeviceProviderAware is implemented by accelerators that can switch to a
// GPU device owned by someone else, such as a windowing toolkit.
type DeviceProviderAware interface {
	SetDeviceProvider(provider any) error
}

// SetAcceleratorDeviceProvider passes a device provider to the registered
// accelerator. If no accelerator is registered or it does not support
// device sharing, this is a no-op.
func SetAcceleratorDeviceProvider(provider any) error {
	a := RegisteredAccelerator()
	if a == nil {
		return nil
	}
	if dpa, ok := a.(DeviceProviderAware); ok {
		return dpa.SetDeviceProvider(provider)
	}
	return nil
}
