// Package scene reads TOML scene descriptions and builds them into a
// quadfill model, objects and uniforms.
//
// A scene declares frame templates made of shards, places instances of
// them as objects and lays out text:
//
//	width = 320
//	height = 240
//	background = "#101018"
//	scale = 1.2
//
//	[[frame]]
//	name = "badge"
//	  [[frame.shard]]
//	  color = "#e04040"
//	  circle = [0.0, 0.0, 1.0]
//	  [[frame.shard]]
//	  color = "#ffffff"
//	  path = "M 0 0.8 L -0.5 -0.6 L 0.7 0.2 L -0.7 0.2 L 0.5 -0.6 Z"
//
//	[[object]]
//	frame = "badge"
//	translate = [-0.5, 0.0]
//	scale = 0.5
//
//	[[text]]
//	string = "quadfill"
//	position = [-1.0, -0.9]
//	size = 0.25
//	color = "#ffffff"
//
// World space is y up with the origin at the center of the image; scale
// is the distance from the center to the top edge in world units.
package scene

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
)

// Scene errors.
var (
	// ErrUnknownKey is returned when a scene file has keys this package
	// does not read.
	ErrUnknownKey = errors.New("scene: unknown key")

	// ErrUnknownFrame is returned when an object names a missing frame.
	ErrUnknownFrame = errors.New("scene: unknown frame")

	// ErrBadShape is returned when a shape has the wrong number of values.
	ErrBadShape = errors.New("scene: malformed shape")
)

// Pipeline selects the rasterizer variant a scene renders with.
type Pipeline string

const (
	// PipelineShards preprocesses objects and draws the shard output.
	PipelineShards Pipeline = "shards"
	// PipelineQuads draws model shards directly with one origin per object.
	PipelineQuads Pipeline = "quads"
)

// Scene is the decoded form of a scene file.
type Scene struct {
	Width      int      `toml:"width"`
	Height     int      `toml:"height"`
	Background string   `toml:"background"`
	Scale      float32  `toml:"scale"`
	Pipeline   Pipeline `toml:"pipeline"`

	Frames  []Frame  `toml:"frame"`
	Objects []Object `toml:"object"`
	Text    []Text   `toml:"text"`
}

// Frame is a named template.
type Frame struct {
	Name   string  `toml:"name"`
	Shards []Shard `toml:"shard"`
}

// Shard is one fill of a frame. Its outline is the union of every shape
// given; Clip defaults to the shard's position in the frame.
type Shard struct {
	Color string  `toml:"color"`
	Clip  *uint32 `toml:"clip"`

	Path      string    `toml:"path"`
	Rect      []float32 `toml:"rect"`       // x, y, w, h
	RoundRect []float32 `toml:"round_rect"` // x, y, w, h, r
	Circle    []float32 `toml:"circle"`     // cx, cy, r
	Ellipse   []float32 `toml:"ellipse"`    // cx, cy, rx, ry
	Polygon   []float32 `toml:"polygon"`    // cx, cy, r, sides
	Star      []float32 `toml:"star"`       // cx, cy, outer, inner, points
}

// Object places one instance of a frame. Transforms apply as scale, then
// rotate, then translate.
type Object struct {
	Frame     string    `toml:"frame"`
	Translate []float32 `toml:"translate"`
	Scale     Scale     `toml:"scale"`
	Rotate    float64   `toml:"rotate"` // degrees, counterclockwise
}

// Text is a run of text on one baseline.
type Text struct {
	String   string    `toml:"string"`
	Font     string    `toml:"font"` // TrueType file; Go Regular when empty
	Position []float32 `toml:"position"`
	Size     float32   `toml:"size"`
	Color    string    `toml:"color"`
	Align    string    `toml:"align"` // left, center or right
}

// Scale is a uniform factor or an [x, y] pair.
type Scale struct {
	X, Y float32
	set  bool
}

// UnmarshalTOML implements toml.Unmarshaler.
func (s *Scale) UnmarshalTOML(v any) error {
	switch v := v.(type) {
	case int64:
		s.X, s.Y = float32(v), float32(v)
	case float64:
		s.X, s.Y = float32(v), float32(v)
	case []any:
		if len(v) != 2 {
			return fmt.Errorf("%w: scale needs 1 or 2 values, got %d", ErrBadShape, len(v))
		}
		xy := [2]float32{}
		for i, e := range v {
			switch e := e.(type) {
			case int64:
				xy[i] = float32(e)
			case float64:
				xy[i] = float32(e)
			default:
				return fmt.Errorf("%w: scale component %v", ErrBadShape, e)
			}
		}
		s.X, s.Y = xy[0], xy[1]
	default:
		return fmt.Errorf("%w: scale %v", ErrBadShape, v)
	}
	s.set = true
	return nil
}

// Factors returns the scale, 1 when unset.
func (s Scale) Factors() (x, y float32) {
	if !s.set {
		return 1, 1
	}
	return s.X, s.Y
}

// Load reads a scene file. Font paths in the scene are resolved relative
// to the working directory.
func Load(path string) (*Scene, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("scene: %w", err)
	}
	defer f.Close()
	s, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// Decode reads a scene from r and fills in defaults.
func Decode(r io.Reader) (*Scene, error) {
	s := &Scene{
		Width:      512,
		Height:     512,
		Background: "#ffffff",
		Scale:      1,
		Pipeline:   PipelineShards,
	}
	md, err := toml.NewDecoder(r).Decode(s)
	if err != nil {
		return nil, fmt.Errorf("scene: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("%w: %s", ErrUnknownKey, strings.Join(keys, ", "))
	}
	switch s.Pipeline {
	case PipelineShards, PipelineQuads:
	default:
		return nil, fmt.Errorf("scene: unknown pipeline %q", s.Pipeline)
	}
	return s, nil
}
