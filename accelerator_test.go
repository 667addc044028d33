package quadfill

import (
	"errors"
	"log/slog"
	"sync"
	"testing"
)

// mockAccelerator implements Accelerator for testing. It declines every
// draw unless layer is set.
type mockAccelerator struct {
	name    string
	initErr error
	layer   *Layer

	mu        sync.Mutex
	closed    bool
	logger    *slog.Logger
	provider  any
	preproc   int
	quadDraws int
}

func (m *mockAccelerator) Name() string { return m.name }

func (m *mockAccelerator) Init() error { return m.initErr }

func (m *mockAccelerator) Close() {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
}

func (m *mockAccelerator) isClosed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

func (m *mockAccelerator) SetLogger(l *slog.Logger) {
	m.mu.Lock()
	m.logger = l
	m.mu.Unlock()
}

func (m *mockAccelerator) SetDeviceProvider(p any) error {
	m.mu.Lock()
	m.provider = p
	m.mu.Unlock()
	return nil
}

func (m *mockAccelerator) Preprocess(*Model, []Object, Uniforms, *Output) error {
	m.mu.Lock()
	m.preproc++
	m.mu.Unlock()
	return ErrFallbackToCPU
}

func (m *mockAccelerator) DrawQuads(int, int, Viewport, Uniforms, []Origin, []Quad, []Vertex, []Segment) (*Layer, error) {
	m.mu.Lock()
	m.quadDraws++
	m.mu.Unlock()
	if m.layer == nil {
		return nil, ErrFallbackToCPU
	}
	return m.layer, nil
}

func (m *mockAccelerator) DrawShards(int, int, Viewport, *Output) (*Layer, error) {
	if m.layer == nil {
		return nil, ErrFallbackToCPU
	}
	return m.layer, nil
}

// resetAccelerator clears the global accelerator state between tests.
func resetAccelerator() {
	accelMu.Lock()
	accel = nil
	accelMu.Unlock()
}

func TestRegisterAcceleratorNil(t *testing.T) {
	resetAccelerator()
	if err := RegisterAccelerator(nil); err == nil {
		t.Fatal("expected error when registering nil accelerator")
	}
	if RegisteredAccelerator() != nil {
		t.Error("accelerator should remain nil after failed registration")
	}
}

func TestRegisterAcceleratorInitError(t *testing.T) {
	resetAccelerator()
	initErr := errors.New("GPU init failed")
	if err := RegisterAccelerator(&mockAccelerator{name: "failing", initErr: initErr}); !errors.Is(err, initErr) {
		t.Errorf("RegisterAccelerator() = %v, want %v", err, initErr)
	}
	if RegisteredAccelerator() != nil {
		t.Error("accelerator should not be registered when Init fails")
	}
}

func TestRegisterAcceleratorReplaces(t *testing.T) {
	resetAccelerator()
	t.Cleanup(resetAccelerator)

	first := &mockAccelerator{name: "first"}
	second := &mockAccelerator{name: "second"}
	if err := RegisterAccelerator(first); err != nil {
		t.Fatal(err)
	}
	if err := RegisterAccelerator(second); err != nil {
		t.Fatal(err)
	}
	if !first.isClosed() {
		t.Error("replaced accelerator should be closed")
	}
	if RegisteredAccelerator() != second {
		t.Error("second accelerator should be registered")
	}

	UnregisterAccelerator()
	if !second.isClosed() || RegisteredAccelerator() != nil {
		t.Error("UnregisterAccelerator should close and remove the accelerator")
	}
}

func TestAcceleratorReceivesLoggerAndProvider(t *testing.T) {
	resetAccelerator()
	t.Cleanup(resetAccelerator)
	orig := Logger()
	t.Cleanup(func() { SetLogger(orig) })

	m := &mockAccelerator{name: "mock"}
	if err := RegisterAccelerator(m); err != nil {
		t.Fatal(err)
	}
	l := slog.New(slog.NewTextHandler(&discard{}, nil))
	SetLogger(l)
	if m.logger != l {
		t.Error("SetLogger should propagate to the accelerator")
	}

	if err := SetAcceleratorDeviceProvider("device"); err != nil {
		t.Fatal(err)
	}
	if m.provider != "device" {
		t.Errorf("provider = %v, want %q", m.provider, "device")
	}
}

func TestAcceleratorFallback(t *testing.T) {
	resetAccelerator()
	t.Cleanup(resetAccelerator)

	m := &mockAccelerator{name: "declining"}
	if err := RegisterAccelerator(m); err != nil {
		t.Fatal(err)
	}

	cpu := renderCheck(t, WithAccelerator(false))
	withMock := renderCheck(t)
	if m.preproc == 0 {
		t.Error("Preprocess should have been offered to the accelerator")
	}
	assertSameImage(t, cpu, withMock)
}

func TestAcceleratorLayerComposited(t *testing.T) {
	resetAccelerator()
	t.Cleanup(resetAccelerator)

	l := NewLayer(4, 4)
	l.Color[5] = Red
	l.Depth[5] = EncodeDepth(3)
	if err := RegisterAccelerator(&mockAccelerator{name: "layer", layer: l}); err != nil {
		t.Fatal(err)
	}

	target := NewTarget(4, 4)
	target.Clear(White)
	r := NewRasterizer()
	defer r.Close()
	r.DrawQuads(target, testUniforms(t, 4, 4, 1), QuadBatch{Quads: []Quad{{BB: Rect{-1, -1, 1, 1}}}})

	if got := target.Pixel(1, 1); got != Red {
		t.Errorf("pixel from layer = %v, want red", got)
	}
	if got := target.Depth(1, 1); got != EncodeDepth(3) {
		t.Errorf("depth from layer = %v", got)
	}
	if got := target.Pixel(0, 0); got != White {
		t.Errorf("untouched pixel = %v, want white", got)
	}
}

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }
