package scene

import (
	"fmt"
	"math"
	"os"

	"github.com/gogpu/quadfill"
	"github.com/gogpu/quadfill/internal/cache"
	"github.com/gogpu/quadfill/text"
	"golang.org/x/image/font/gofont/goregular"
)

// fonts holds parsed fonts by path, shared by every scene in the process.
// The empty path is the built-in Go Regular font.
var fonts = cache.New[string, *text.Font](16)

func loadFont(path string) (*text.Font, error) {
	return fonts.GetOrCreate(path, func() (*text.Font, error) {
		data := goregular.TTF
		if path != "" {
			var err error
			if data, err = os.ReadFile(path); err != nil {
				return nil, err
			}
		}
		return text.ParseFont(data)
	})
}

// Built is a scene ready to render.
type Built struct {
	Model      *quadfill.Model
	Objects    []quadfill.Object
	Arena      quadfill.Arena
	Uniforms   quadfill.Uniforms
	Viewport   quadfill.Viewport
	Width      int
	Height     int
	Background quadfill.RGBA
	Pipeline   Pipeline
}

// Build turns the scene into model buffers, objects placed in one arena
// in declaration order (objects first, then text), and uniforms for an
// orthographic camera.
func (s *Scene) Build() (*Built, error) {
	if s.Width <= 0 || s.Height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", quadfill.ErrEmptyViewport, s.Width, s.Height)
	}
	bg, err := quadfill.ParseHex(s.Background)
	if err != nil {
		return nil, fmt.Errorf("scene: background: %w", err)
	}
	vp := quadfill.Viewport{Width: float32(s.Width), Height: float32(s.Height)}
	u, err := quadfill.NewUniforms(vp, quadfill.OrthoCamera(vp, s.Scale))
	if err != nil {
		return nil, fmt.Errorf("scene: camera: %w", err)
	}

	b := &Built{
		Model:      &quadfill.Model{},
		Uniforms:   u,
		Viewport:   vp,
		Width:      s.Width,
		Height:     s.Height,
		Background: bg,
		Pipeline:   s.Pipeline,
	}

	frames := make(map[string]int, len(s.Frames))
	for i, fr := range s.Frames {
		if fr.Name == "" {
			return nil, fmt.Errorf("scene: frame %d has no name", i)
		}
		f, err := buildFrame(b.Model, fr)
		if err != nil {
			return nil, fmt.Errorf("scene: frame %q: %w", fr.Name, err)
		}
		frames[fr.Name] = f
	}

	for i, obj := range s.Objects {
		f, ok := frames[obj.Frame]
		if !ok {
			return nil, fmt.Errorf("%w: object %d uses %q", ErrUnknownFrame, i, obj.Frame)
		}
		m, err := obj.transform()
		if err != nil {
			return nil, fmt.Errorf("scene: object %d: %w", i, err)
		}
		b.Objects = append(b.Objects, b.Arena.Object(b.Model, f, m))
	}

	libs := make(map[string]*text.Library)
	for i, t := range s.Text {
		objects, err := b.layoutText(libs, t)
		if err != nil {
			return nil, fmt.Errorf("scene: text %d: %w", i, err)
		}
		b.Objects = append(b.Objects, objects...)
	}

	if err := b.Model.Validate(); err != nil {
		return nil, fmt.Errorf("scene: %w", err)
	}
	return b, nil
}

func buildFrame(m *quadfill.Model, fr Frame) (int, error) {
	fb := m.BuildFrame(fr.Name)
	for i, sh := range fr.Shards {
		c, err := parseColor(sh.Color)
		if err != nil {
			return 0, fmt.Errorf("shard %d: %w", i, err)
		}
		clip := uint32(i) //nolint:gosec // shard counts fit uint32
		if sh.Clip != nil {
			clip = *sh.Clip
		}
		fb.Shard(c, clip)
		if err := sh.appendShapes(fb); err != nil {
			return 0, fmt.Errorf("shard %d: %w", i, err)
		}
	}
	return fb.Done(), nil
}

// parseColor parses a hex color, black when empty.
func parseColor(s string) (quadfill.RGBA, error) {
	if s == "" {
		return quadfill.Black, nil
	}
	return quadfill.ParseHex(s)
}

func (sh Shard) appendShapes(fb *quadfill.FrameBuilder) error {
	shapes := []struct {
		name string
		v    []float32
		n    int
		add  func(v []float32)
	}{
		{"rect", sh.Rect, 4, func(v []float32) { fb.Rect(v[0], v[1], v[2], v[3]) }},
		{"round_rect", sh.RoundRect, 5, func(v []float32) { fb.RoundRect(v[0], v[1], v[2], v[3], v[4]) }},
		{"circle", sh.Circle, 3, func(v []float32) { fb.Circle(v[0], v[1], v[2]) }},
		{"ellipse", sh.Ellipse, 4, func(v []float32) { fb.Ellipse(v[0], v[1], v[2], v[3]) }},
		{"polygon", sh.Polygon, 4, func(v []float32) { fb.Polygon(v[0], v[1], v[2], int(v[3])) }},
		{"star", sh.Star, 5, func(v []float32) { fb.Star(v[0], v[1], v[2], v[3], int(v[4])) }},
	}
	for _, s := range shapes {
		if s.v == nil {
			continue
		}
		if len(s.v) != s.n {
			return fmt.Errorf("%w: %s needs %d values, got %d", ErrBadShape, s.name, s.n, len(s.v))
		}
		s.add(s.v)
	}
	if sh.Path != "" {
		return AppendPath(fb, sh.Path)
	}
	return nil
}

func (o Object) transform() (quadfill.Mat4, error) {
	var tx, ty float32
	switch len(o.Translate) {
	case 0:
	case 2:
		tx, ty = o.Translate[0], o.Translate[1]
	default:
		return quadfill.Mat4{}, fmt.Errorf("%w: translate needs 2 values, got %d", ErrBadShape, len(o.Translate))
	}
	sx, sy := o.Scale.Factors()
	return quadfill.Translate(tx, ty, 0).
		Mul(quadfill.RotateZ(o.Rotate * math.Pi / 180)).
		Mul(quadfill.Scale(sx, sy, 1)), nil
}

func (b *Built) layoutText(libs map[string]*text.Library, t Text) ([]quadfill.Object, error) {
	c, err := parseColor(t.Color)
	if err != nil {
		return nil, err
	}
	var pos quadfill.Vec2
	switch len(t.Position) {
	case 0:
	case 2:
		pos = quadfill.V2(t.Position[0], t.Position[1])
	default:
		return nil, fmt.Errorf("%w: position needs 2 values, got %d", ErrBadShape, len(t.Position))
	}
	size := t.Size
	if size == 0 {
		size = 0.2
	}

	key := t.Font + "\x00" + t.Color
	lib, ok := libs[key]
	if !ok {
		f, err := loadFont(t.Font)
		if err != nil {
			return nil, err
		}
		lib = text.NewLibrary(f, b.Model, c)
		libs[key] = lib
	}

	switch t.Align {
	case "", "left":
	case "center":
		pos.X -= lib.Measure(t.String) * size / 2
	case "right":
		pos.X -= lib.Measure(t.String) * size
	default:
		return nil, fmt.Errorf("unknown align %q", t.Align)
	}
	return lib.Layout(&b.Arena, t.String, pos, size)
}

// Render draws the built scene on the CPU rasterizer, or on the
// registered accelerator when the options allow it.
func (b *Built) Render(opts ...quadfill.Option) (*quadfill.Target, error) {
	t := quadfill.NewTarget(b.Width, b.Height)
	t.Clear(b.Background)
	if len(b.Objects) == 0 {
		return t, nil
	}

	r := quadfill.NewRasterizer(opts...)
	defer r.Close()

	switch b.Pipeline {
	case PipelineQuads:
		for lo := 0; lo < len(b.Objects); lo += quadfill.MaxOrigins {
			hi := min(lo+quadfill.MaxOrigins, len(b.Objects))
			batch, err := quadfill.ModelBatch(b.Model, b.Objects[lo:hi])
			if err != nil {
				return nil, fmt.Errorf("scene: %w", err)
			}
			r.DrawQuads(t, b.Uniforms, batch)
		}
	default:
		out := quadfill.NewOutput(&b.Arena)
		if err := quadfill.ValidateObjects(b.Model, b.Objects, out); err != nil {
			return nil, fmt.Errorf("scene: %w", err)
		}
		quadfill.Preprocess(b.Model, b.Objects, b.Uniforms, out, opts...)
		r.DrawShards(t, out)
	}
	return t, nil
}
