package quadfill

// Option configures a Preprocessor or Rasterizer.
//
// Example:
//
//	r := quadfill.NewRasterizer(
//	    quadfill.WithWorkers(4),
//	    quadfill.WithBandHeight(32),
//	)
type Option func(*options)

type options struct {
	workers     int
	bandHeight  int
	accelerated bool
}

func defaultOptions() options {
	return options{
		workers:     0, // GOMAXPROCS
		bandHeight:  0, // parallel.DefaultBandHeight
		accelerated: true,
	}
}

func applyOptions(opts []Option) options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithWorkers sets the number of CPU workers. Zero or less uses GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(o *options) {
		o.workers = n
	}
}

// WithBandHeight sets the height in pixels of the framebuffer strips the
// CPU rasterizer processes in parallel.
func WithBandHeight(px int) Option {
	return func(o *options) {
		o.bandHeight = px
	}
}

// WithAccelerator enables or disables use of the registered accelerator.
// Enabled by default.
func WithAccelerator(enabled bool) Option {
	return func(o *options) {
		o.accelerated = enabled
	}
}
